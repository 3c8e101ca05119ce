package entity

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/Almacen-api/internal/domain"
)

// Estados del ciclo de vida del registro (sin soft-delete por timestamp).
const (
	RecordStatusActive   = "active"
	RecordStatusArchived = "archived"
)

// DeliveryStatus estados del flujo de entrega de la mercancía asociada al registro.
type DeliveryStatus string

const (
	DeliveryNotOrdered DeliveryStatus = "not_ordered"
	DeliveryOrdered    DeliveryStatus = "ordered"
	DeliveryInTransit  DeliveryStatus = "in_transit"
	DeliveryCustoms    DeliveryStatus = "customs"
	DeliveryReceived   DeliveryStatus = "received"
	DeliveryAvailable  DeliveryStatus = "available"
	DeliveryCancelled  DeliveryStatus = "cancelled"
)

// deliveryTransitions transiciones permitidas del flujo de entrega.
// "cancelled" es alcanzable desde cualquier estado no final.
var deliveryTransitions = map[DeliveryStatus][]DeliveryStatus{
	DeliveryNotOrdered: {DeliveryOrdered, DeliveryCancelled},
	DeliveryOrdered:    {DeliveryInTransit, DeliveryCancelled},
	DeliveryInTransit:  {DeliveryCustoms, DeliveryReceived, DeliveryCancelled},
	DeliveryCustoms:    {DeliveryReceived, DeliveryCancelled},
	DeliveryReceived:   {DeliveryAvailable, DeliveryCancelled},
	DeliveryAvailable:  {},
	DeliveryCancelled:  {},
}

// CanTransitionTo indica si el flujo de entrega permite pasar de s a next.
func (s DeliveryStatus) CanTransitionTo(next DeliveryStatus) bool {
	for _, allowed := range deliveryTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// StockRecord es el pool de cantidad/reserva de un producto (+variante) bajo exactamente
// un dueño (bodega o tienda). Es la raíz autoritativa: solo se muta vía el libro de
// movimientos, nunca directamente por callers externos.
type StockRecord struct {
	ID        string
	ProductID string
	VariantID *string
	Owner     Owner

	Quantity          decimal.Decimal // puede ser negativa si AllowNegative
	ReservedQuantity  decimal.Decimal // siempre >= 0
	AvailableQuantity decimal.Decimal // derivada: Quantity - Reserved; se persiste junto a cada escritura

	MinimumStock    decimal.Decimal
	MaximumStock    decimal.Decimal
	ReorderPoint    decimal.Decimal
	ReorderQuantity decimal.Decimal
	LowStockAlert   bool

	UnitCost       decimal.Decimal // costo promedio ponderado, mantenido por entradas
	AllowNegative  bool
	DeliveryStatus DeliveryStatus
	Status         string // active | archived

	MovementCount  int64
	LastMovementAt *time.Time

	CreatedAt time.Time
	UpdatedAt time.Time
}

// NewStockRecord crea un registro en cero para el par producto/dueño.
func NewStockRecord(productID string, variantID *string, owner Owner, allowNegative bool, now time.Time) (*StockRecord, error) {
	if productID == "" {
		return nil, domain.ErrInvalidInput
	}
	if err := owner.Validate(); err != nil {
		return nil, err
	}
	return &StockRecord{
		ProductID:      productID,
		VariantID:      variantID,
		Owner:          owner,
		Quantity:       decimal.Zero,
		AllowNegative:  allowNegative,
		DeliveryStatus: DeliveryNotOrdered,
		Status:         RecordStatusActive,
		CreatedAt:      now,
		UpdatedAt:      now,
	}, nil
}

// Recompute recalcula la cantidad disponible y la alerta de stock bajo.
// Debe llamarse en la misma escritura que modifica Quantity/Reserved: el valor
// persistido nunca puede quedar obsoleto respecto de sus insumos.
func (r *StockRecord) Recompute() {
	r.AvailableQuantity = r.Quantity.Sub(r.ReservedQuantity)
	r.LowStockAlert = r.MinimumStock.GreaterThan(decimal.Zero) &&
		r.AvailableQuantity.LessThanOrEqual(r.MinimumStock)
}

// CheckInvariants valida 0 <= reserved <= |quantity|.
func (r *StockRecord) CheckInvariants() error {
	if r.ReservedQuantity.IsNegative() {
		return domain.ErrReservedExceedsQuantity
	}
	if r.ReservedQuantity.GreaterThan(r.Quantity.Abs()) {
		return domain.ErrReservedExceedsQuantity
	}
	return nil
}

// TouchMovement actualiza el contador y la marca de último movimiento.
func (r *StockRecord) TouchMovement(at time.Time) {
	r.MovementCount++
	r.LastMovementAt = &at
	r.UpdatedAt = at
}

// BelowReorderPoint indica si el registro está bajo su punto de reorden.
func (r *StockRecord) BelowReorderPoint() bool {
	return r.ReorderPoint.GreaterThan(decimal.Zero) &&
		r.AvailableQuantity.LessThan(r.ReorderPoint)
}
