package entity

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/Almacen-api/internal/domain"
)

// ReservationType origen de negocio de la reserva.
type ReservationType string

const (
	ReservationOrder      ReservationType = "order"
	ReservationQuote      ReservationType = "quote"
	ReservationPreOrder   ReservationType = "pre_order"
	ReservationAllocation ReservationType = "allocation"
	ReservationManual     ReservationType = "manual"
)

// ReservationStatus máquina de estados de la reserva.
// pending → confirmed → {partial → fulfilled} | expired | cancelled | on_hold.
type ReservationStatus string

const (
	ReservationPending   ReservationStatus = "pending"
	ReservationConfirmed ReservationStatus = "confirmed"
	ReservationPartial   ReservationStatus = "partial"
	ReservationFulfilled ReservationStatus = "fulfilled"
	ReservationExpired   ReservationStatus = "expired"
	ReservationCancelled ReservationStatus = "cancelled"
	ReservationOnHold    ReservationStatus = "on_hold"
)

var reservationTransitions = map[ReservationStatus][]ReservationStatus{
	ReservationPending:   {ReservationConfirmed, ReservationExpired, ReservationCancelled, ReservationOnHold},
	ReservationConfirmed: {ReservationPartial, ReservationFulfilled, ReservationExpired, ReservationCancelled, ReservationOnHold},
	ReservationPartial:   {ReservationPartial, ReservationFulfilled, ReservationCancelled},
	ReservationOnHold:    {ReservationPending, ReservationConfirmed, ReservationCancelled},
	ReservationFulfilled: {},
	ReservationExpired:   {},
	ReservationCancelled: {},
}

// CanTransitionTo indica si la máquina de estados permite pasar de s a next.
func (s ReservationStatus) CanTransitionTo(next ReservationStatus) bool {
	for _, allowed := range reservationTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// IsTerminal indica si el estado es final (fulfilled, expired, cancelled).
func (s ReservationStatus) IsTerminal() bool {
	return s == ReservationFulfilled || s == ReservationExpired || s == ReservationCancelled
}

// StockReservation es un reclamo acotado en el tiempo sobre disponibilidad futura,
// independiente del movimiento físico hasta que se cumple (fulfill).
type StockReservation struct {
	ID       string
	Number   string // único, prefijo RSV-
	RecordID string
	Type     ReservationType

	QuantityRequested decimal.Decimal
	QuantityReserved  decimal.Decimal // <= requested
	QuantityFulfilled decimal.Decimal // <= reserved
	QuantityRemaining decimal.Decimal // derivada: reserved - fulfilled

	Status        ReservationStatus
	Priority      int // 1 = más alta, 10 = más baja
	ExpiresAt     *time.Time
	AutoRelease   bool
	IsFirm        bool // bloquea el auto-release
	ReleaseReason string

	ReferenceType string
	ReferenceID   string

	ReservedAt time.Time
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// Recompute recalcula la cantidad restante a partir de reservado y cumplido.
func (v *StockReservation) Recompute() {
	v.QuantityRemaining = v.QuantityReserved.Sub(v.QuantityFulfilled)
}

// CheckInvariants valida fulfilled <= reserved <= requested.
func (v *StockReservation) CheckInvariants() error {
	if v.QuantityReserved.GreaterThan(v.QuantityRequested) {
		return domain.ErrInvalidInput
	}
	if v.QuantityFulfilled.GreaterThan(v.QuantityReserved) {
		return domain.ErrInvalidInput
	}
	return nil
}

// ExpiryDue indica si la reserva debe auto-liberarse en el instante now:
// vencida, en estado pending/confirmed, con auto_release y sin marca firme.
func (v *StockReservation) ExpiryDue(now time.Time) bool {
	if v.ExpiresAt == nil || v.ExpiresAt.After(now) {
		return false
	}
	if !v.AutoRelease || v.IsFirm {
		return false
	}
	return v.Status == ReservationPending || v.Status == ReservationConfirmed
}
