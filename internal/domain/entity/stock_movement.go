package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// MovementType tipo de movimiento del libro de stock.
type MovementType string

const (
	MovementIn          MovementType = "in"
	MovementOut         MovementType = "out"
	MovementTransfer    MovementType = "transfer"
	MovementReservation MovementType = "reservation"
	MovementRelease     MovementType = "release"
	MovementAdjustment  MovementType = "adjustment"
	MovementReturn      MovementType = "return"
	MovementDamage      MovementType = "damage"
	MovementLost        MovementType = "lost"
	MovementFound       MovementType = "found"
	MovementProduction  MovementType = "production"
	MovementCorrection  MovementType = "correction"
	MovementSync        MovementType = "sync"
)

// IsValidMovementType indica si el tipo pertenece al catálogo del libro.
func IsValidMovementType(t MovementType) bool {
	switch t {
	case MovementIn, MovementOut, MovementTransfer, MovementReservation,
		MovementRelease, MovementAdjustment, MovementReturn, MovementDamage,
		MovementLost, MovementFound, MovementProduction, MovementCorrection,
		MovementSync:
		return true
	}
	return false
}

// AffectsReserved indica si el tipo muta la cantidad reservada en lugar de la física.
// Para estos tipos las columnas before/change/after siguen el saldo reservado, de modo
// que la cadena after = before + change se cumple de forma uniforme en todo el libro.
func (t MovementType) AffectsReserved() bool {
	return t == MovementReservation || t == MovementRelease
}

// StockMovement es una entrada inmutable del libro: un cambio atómico de saldo sobre un
// StockRecord. Nunca se actualiza ni se borra; las correcciones son filas nuevas con
// IsCorrection activo.
type StockMovement struct {
	ID            string
	TransactionID string // agrupa operaciones lógicas, p.ej. las dos patas de un transfer
	RecordID      string
	Type          MovementType

	QuantityBefore decimal.Decimal
	QuantityChange decimal.Decimal // nunca cero
	QuantityAfter  decimal.Decimal
	ReservedBefore decimal.Decimal
	ReservedAfter  decimal.Decimal

	// Par de transfer: requeridos juntos y distintos entre sí.
	FromWarehouseID *string
	ToWarehouseID   *string

	UnitCost  decimal.Decimal
	TotalCost decimal.Decimal

	ReferenceType  string
	ReferenceID    string
	CorrelationKey *string // clave de idempotencia provista por el caller (único global)
	IsCorrection   bool

	MovementDate time.Time // fecha de negocio, distinta del created_at de auditoría
	CreatedAt    time.Time
	CreatedBy    string
}
