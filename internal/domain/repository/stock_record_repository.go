package repository

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/Almacen-api/internal/domain/entity"
)

// ReplenishmentItem resultado crudo del repositorio para un registro bajo punto de reorden.
type ReplenishmentItem struct {
	RecordID        string
	ProductID       string
	VariantID       *string
	OwnerID         string
	Available       decimal.Decimal
	ReorderPoint    decimal.Decimal
	ReorderQuantity decimal.Decimal
	UnitCost        decimal.Decimal
}

// StockRecordRepository define el puerto de persistencia del StockRecord.
// Los writers (libro y reservas) deben usar las variantes ForUpdate dentro de una tx:
// toda lectura que alimenta una escritura pasa por la fila bloqueada.
type StockRecordRepository interface {
	// Get devuelve el registro para la clave (producto, variante, dueño); nil si no existe.
	Get(ctx context.Context, productID string, variantID *string, owner entity.Owner) (*entity.StockRecord, error)
	GetByID(ctx context.Context, id string) (*entity.StockRecord, error)
	// GetForUpdate bloquea la fila (SELECT FOR UPDATE); nil si no existe.
	GetForUpdate(ctx context.Context, productID string, variantID *string, owner entity.Owner) (*entity.StockRecord, error)
	GetByIDForUpdate(ctx context.Context, id string) (*entity.StockRecord, error)
	// Create inserta un registro nuevo; ErrDuplicate si la clave compuesta ya existe.
	Create(ctx context.Context, record *entity.StockRecord) error
	// Update persiste cantidad, reserva, disponible, costo, flags y contadores.
	// El disponible siempre viaja recalculado en la misma escritura.
	Update(ctx context.Context, record *entity.StockRecord) error
	ListByProduct(ctx context.Context, productID string) ([]*entity.StockRecord, error)
	// ListBelowReorderPoint devuelve registros activos bajo su punto de reorden,
	// ordenados por mayor déficit primero. ownerID vacío = todos los dueños.
	ListBelowReorderPoint(ctx context.Context, ownerID string) ([]ReplenishmentItem, error)
}
