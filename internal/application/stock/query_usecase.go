package stock

import (
	"context"
	"time"

	"github.com/jhoicas/Almacen-api/internal/domain"
	"github.com/jhoicas/Almacen-api/internal/domain/entity"
	"github.com/jhoicas/Almacen-api/internal/domain/repository"
)

// QueryUseCase lecturas del motor de stock: registros, libro, reservas y bitácora.
// No muta nada; trabaja con repositorios atados al pool (sin transacción).
type QueryUseCase struct {
	records      repository.StockRecordRepository
	movements    repository.StockMovementRepository
	reservations repository.StockReservationRepository
	inheritance  repository.InheritanceLogRepository
}

// NewQueryUseCase construye el caso de uso de lecturas.
func NewQueryUseCase(
	records repository.StockRecordRepository,
	movements repository.StockMovementRepository,
	reservations repository.StockReservationRepository,
	inheritance repository.InheritanceLogRepository,
) *QueryUseCase {
	return &QueryUseCase{records: records, movements: movements, reservations: reservations, inheritance: inheritance}
}

// GetRecord obtiene el registro por clave (producto, variante, dueño).
func (uc *QueryUseCase) GetRecord(ctx context.Context, productID string, variantID *string, owner entity.Owner) (*entity.StockRecord, error) {
	if err := owner.Validate(); err != nil {
		return nil, err
	}
	rec, err := uc.records.Get(ctx, productID, variantID, owner)
	if err != nil {
		return nil, err
	}
	if rec == nil {
		return nil, domain.ErrNotFound
	}
	return rec, nil
}

// GetRecordByID obtiene el registro por ID.
func (uc *QueryUseCase) GetRecordByID(ctx context.Context, id string) (*entity.StockRecord, error) {
	rec, err := uc.records.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if rec == nil {
		return nil, domain.ErrNotFound
	}
	return rec, nil
}

// ListRecordsByProduct lista los registros de un producto en todas las bodegas y tiendas.
func (uc *QueryUseCase) ListRecordsByProduct(ctx context.Context, productID string) ([]*entity.StockRecord, error) {
	return uc.records.ListByProduct(ctx, productID)
}

// ListMovements lista el libro de un registro, con rango opcional de fecha de negocio.
func (uc *QueryUseCase) ListMovements(ctx context.Context, recordID string, from, to *time.Time, limit, offset int) ([]*entity.StockMovement, error) {
	return uc.movements.ListByRecord(ctx, recordID, from, to, limit, offset)
}

// ListMovementsByTransaction lista los movimientos de una transacción lógica (ej. las
// dos patas de una transferencia).
func (uc *QueryUseCase) ListMovementsByTransaction(ctx context.Context, transactionID string) ([]*entity.StockMovement, error) {
	return uc.movements.ListByTransaction(ctx, transactionID)
}

// GetReservation obtiene la reserva por ID.
func (uc *QueryUseCase) GetReservation(ctx context.Context, id string) (*entity.StockReservation, error) {
	res, err := uc.reservations.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if res == nil {
		return nil, domain.ErrNotFound
	}
	return res, nil
}

// GetReservationByNumber obtiene la reserva por número legible (RSV-...).
func (uc *QueryUseCase) GetReservationByNumber(ctx context.Context, number string) (*entity.StockReservation, error) {
	res, err := uc.reservations.GetByNumber(ctx, number)
	if err != nil {
		return nil, err
	}
	if res == nil {
		return nil, domain.ErrNotFound
	}
	return res, nil
}

// ListReplenishment devuelve los registros activos bajo su punto de reorden, mayor
// déficit primero. ownerID vacío = todos los dueños.
func (uc *QueryUseCase) ListReplenishment(ctx context.Context, ownerID string) ([]repository.ReplenishmentItem, error) {
	return uc.records.ListBelowReorderPoint(ctx, ownerID)
}

// ListInheritanceLog lista la bitácora de resolución de un par tienda+producto.
func (uc *QueryUseCase) ListInheritanceLog(ctx context.Context, shopID, productID string, limit, offset int) ([]*entity.StockInheritanceLog, error) {
	return uc.inheritance.ListByShopProduct(ctx, shopID, productID, limit, offset)
}
