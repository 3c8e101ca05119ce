package stock

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/jhoicas/Almacen-api/internal/domain"
	"github.com/jhoicas/Almacen-api/internal/domain/entity"
	"github.com/jhoicas/Almacen-api/internal/domain/repository"
	"github.com/jhoicas/Almacen-api/pkg/logger"
)

// ResolverUseCase decide, por producto+tienda, si usar el override de tienda o caer
// al registro de la bodega por defecto, y deja cada transición en la bitácora de
// herencia. Es puramente decisional: los saldos solo cambian a través del libro.
type ResolverUseCase struct {
	txRunner   TxRunner
	warehouses repository.WarehouseRepository
	policy     Policy
	log        *logger.Logger
}

// NewResolverUseCase construye el resolver.
func NewResolverUseCase(txRunner TxRunner, warehouses repository.WarehouseRepository, policy Policy, log *logger.Logger) *ResolverUseCase {
	return &ResolverUseCase{txRunner: txRunner, warehouses: warehouses, policy: policy, log: log}
}

// Resolve devuelve el registro efectivo para (producto, tienda): el override de tienda
// si existe; si no, el registro de la bodega maestra, registrando 'inherit' en la
// bitácora solo la primera vez por tienda+producto. Una fila con ambos dueños
// persistidos (estructuralmente imposible) falla rápido con ErrDualOwnershipConflict
// desde el scan, en lugar de elegir una en silencio.
func (uc *ResolverUseCase) Resolve(ctx context.Context, productID string, variantID *string, shopID string) (*entity.StockRecord, error) {
	if productID == "" || shopID == "" {
		return nil, domain.ErrInvalidInput
	}
	var result *entity.StockRecord
	err := uc.txRunner.Run(ctx, func(
		records repository.StockRecordRepository,
		_ repository.StockMovementRepository,
		_ repository.StockReservationRepository,
		inheritance repository.InheritanceLogRepository,
	) error {
		shopRec, err := records.Get(ctx, productID, variantID, entity.ShopOwner(shopID))
		if err != nil {
			return err
		}
		if shopRec != nil {
			result = shopRec
			return nil
		}

		wh, err := uc.warehouses.GetDefault(ctx)
		if err != nil {
			return err
		}
		if wh == nil {
			return domain.ErrNotFound
		}
		whRec, err := records.Get(ctx, productID, variantID, entity.WarehouseOwner(wh.ID))
		if err != nil {
			return err
		}
		if whRec == nil {
			return domain.ErrNotFound
		}

		has, err := inheritance.HasInheritEntry(ctx, productID, variantID, shopID)
		if err != nil {
			return err
		}
		if !has {
			entry := &entity.StockInheritanceLog{
				ID:                uuid.New().String(),
				ProductID:         productID,
				VariantID:         variantID,
				ShopID:            shopID,
				Action:            entity.InheritanceInherit,
				SourceWarehouseID: &wh.ID,
				QuantityBefore:    whRec.Quantity,
				QuantityAfter:     whRec.Quantity,
				CreatedAt:         time.Now(),
			}
			if err := inheritance.Create(ctx, entry); err != nil {
				return err
			}
			uc.log.Debug().
				Str("product_id", productID).
				Str("shop_id", shopID).
				Str("warehouse_id", wh.ID).
				Msg("tienda hereda stock de bodega por defecto")
		}
		result = whRec
		return nil
	})
	return result, err
}

// Override materializa el registro de tienda (creándolo si no existe) y fija su
// cantidad en newQuantity. El delta viaja por el libro como movimiento sync y la
// bitácora registra 'override' con before/after.
func (uc *ResolverUseCase) Override(ctx context.Context, productID string, variantID *string, shopID string, newQuantity decimal.Decimal, actorID string) (*entity.StockRecord, error) {
	return uc.setShopQuantity(ctx, productID, variantID, shopID, newQuantity, entity.InheritanceOverride, nil, actorID, nil)
}

// Pull fija la cantidad de la tienda desde un canal externo autoritativo y registra
// 'pull' en la bitácora.
func (uc *ResolverUseCase) Pull(ctx context.Context, productID string, variantID *string, shopID string, externalQuantity decimal.Decimal, source string) (*entity.StockRecord, error) {
	meta := map[string]any{"source": source}
	return uc.setShopQuantity(ctx, productID, variantID, shopID, externalQuantity, entity.InheritancePull, nil, "", meta)
}

// SyncFromWarehouse copia la cantidad de la bodega por defecto hacia el override de
// la tienda y registra 'sync'.
func (uc *ResolverUseCase) SyncFromWarehouse(ctx context.Context, productID string, variantID *string, shopID, actorID string) (*entity.StockRecord, error) {
	wh, err := uc.warehouses.GetDefault(ctx)
	if err != nil {
		return nil, err
	}
	if wh == nil {
		return nil, domain.ErrNotFound
	}

	var source decimal.Decimal
	err = uc.txRunner.Run(ctx, func(
		records repository.StockRecordRepository,
		_ repository.StockMovementRepository,
		_ repository.StockReservationRepository,
		_ repository.InheritanceLogRepository,
	) error {
		whRec, err := records.Get(ctx, productID, variantID, entity.WarehouseOwner(wh.ID))
		if err != nil {
			return err
		}
		if whRec == nil {
			return domain.ErrNotFound
		}
		source = whRec.Quantity
		return nil
	})
	if err != nil {
		return nil, err
	}
	return uc.setShopQuantity(ctx, productID, variantID, shopID, source, entity.InheritanceSync, &wh.ID, actorID, nil)
}

// setShopQuantity camino común de override/pull/sync: bloquea (o crea) el registro de
// tienda, aplica el delta vía libro y escribe la entrada de bitácora con before/after.
// Con delta cero no se emite movimiento (el libro no admite cambio cero) pero la
// bitácora se escribe igual.
func (uc *ResolverUseCase) setShopQuantity(
	ctx context.Context,
	productID string,
	variantID *string,
	shopID string,
	newQuantity decimal.Decimal,
	action entity.InheritanceAction,
	sourceWarehouseID *string,
	actorID string,
	metadata map[string]any,
) (*entity.StockRecord, error) {
	if productID == "" || shopID == "" {
		return nil, domain.ErrInvalidInput
	}
	now := time.Now()
	owner := entity.ShopOwner(shopID)

	var result *entity.StockRecord
	err := uc.txRunner.Run(ctx, func(
		records repository.StockRecordRepository,
		movements repository.StockMovementRepository,
		_ repository.StockReservationRepository,
		inheritance repository.InheritanceLogRepository,
	) error {
		rec, err := records.GetForUpdate(ctx, productID, variantID, owner)
		if err != nil {
			return err
		}
		if rec == nil {
			rec, err = entity.NewStockRecord(productID, variantID, owner, uc.policy.AllowNegativeDefault, now)
			if err != nil {
				return err
			}
			if err := records.Create(ctx, rec); err != nil {
				if !errors.Is(err, domain.ErrDuplicate) {
					return err
				}
				// Carrera de creación: re-bloquear la fila ganadora.
				rec, err = records.GetForUpdate(ctx, productID, variantID, owner)
				if err != nil {
					return err
				}
				if rec == nil {
					return domain.ErrStaleWrite
				}
			}
		}

		before := rec.Quantity
		delta := newQuantity.Sub(before)
		if !delta.IsZero() {
			spec := deltaSpec{
				movType:         entity.MovementSync,
				quantityDelta:   delta,
				unitCost:        rec.UnitCost,
				referenceType:   "inheritance",
				referenceID:     shopID,
				transactionID:   uuid.New().String(),
				fromWarehouseID: sourceWarehouseID,
				movementDate:    now,
				actorID:         actorID,
			}
			if _, err := applyDelta(ctx, records, movements, rec, spec, now); err != nil {
				return err
			}
		}

		entry := &entity.StockInheritanceLog{
			ID:                uuid.New().String(),
			ProductID:         productID,
			VariantID:         variantID,
			ShopID:            shopID,
			Action:            action,
			SourceWarehouseID: sourceWarehouseID,
			QuantityBefore:    before,
			QuantityAfter:     newQuantity,
			Metadata:          metadata,
			CreatedAt:         now,
			CreatedBy:         actorID,
		}
		if err := inheritance.Create(ctx, entry); err != nil {
			return err
		}
		result = rec
		return nil
	})
	if err != nil {
		return nil, err
	}

	uc.log.Info().
		Str("action", string(action)).
		Str("product_id", productID).
		Str("shop_id", shopID).
		Str("quantity", newQuantity.String()).
		Msg("resolución de stock de tienda actualizada")
	return result, nil
}
