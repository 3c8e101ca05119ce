package entity_test

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	"github.com/jhoicas/Almacen-api/internal/domain/entity"
)

// ──────────────────────────────────────────────────────────────────────────────
// Máquina de estados de la reserva
// ──────────────────────────────────────────────────────────────────────────────

func TestReservationStatus_TransicionesPermitidas(t *testing.T) {
	cases := []struct {
		from, to entity.ReservationStatus
	}{
		{entity.ReservationPending, entity.ReservationConfirmed},
		{entity.ReservationPending, entity.ReservationCancelled},
		{entity.ReservationPending, entity.ReservationExpired},
		{entity.ReservationPending, entity.ReservationOnHold},
		{entity.ReservationConfirmed, entity.ReservationPartial},
		{entity.ReservationConfirmed, entity.ReservationFulfilled},
		{entity.ReservationPartial, entity.ReservationFulfilled},
		{entity.ReservationPartial, entity.ReservationPartial}, // cumplimientos sucesivos
		{entity.ReservationOnHold, entity.ReservationConfirmed},
		{entity.ReservationOnHold, entity.ReservationPending},
	}
	for _, c := range cases {
		assert.True(t, c.from.CanTransitionTo(c.to), "%s -> %s debe permitirse", c.from, c.to)
	}
}

func TestReservationStatus_TransicionesProhibidas(t *testing.T) {
	cases := []struct {
		from, to entity.ReservationStatus
	}{
		{entity.ReservationPending, entity.ReservationFulfilled}, // debe pasar por confirmed
		{entity.ReservationFulfilled, entity.ReservationCancelled},
		{entity.ReservationExpired, entity.ReservationConfirmed},
		{entity.ReservationCancelled, entity.ReservationPending},
		{entity.ReservationPartial, entity.ReservationExpired}, // parcial no expira
	}
	for _, c := range cases {
		assert.False(t, c.from.CanTransitionTo(c.to), "%s -> %s debe rechazarse", c.from, c.to)
	}
}

func TestReservationStatus_Terminales(t *testing.T) {
	assert.True(t, entity.ReservationFulfilled.IsTerminal())
	assert.True(t, entity.ReservationExpired.IsTerminal())
	assert.True(t, entity.ReservationCancelled.IsTerminal())
	assert.False(t, entity.ReservationPending.IsTerminal())
	assert.False(t, entity.ReservationOnHold.IsTerminal())
}

// ──────────────────────────────────────────────────────────────────────────────
// Cantidades e invariantes
// ──────────────────────────────────────────────────────────────────────────────

func TestReservation_RecomputeRestante(t *testing.T) {
	v := &entity.StockReservation{
		QuantityRequested: decimal.NewFromInt(30),
		QuantityReserved:  decimal.NewFromInt(30),
		QuantityFulfilled: decimal.NewFromInt(12),
	}
	v.Recompute()
	assert.True(t, v.QuantityRemaining.Equal(decimal.NewFromInt(18)))
	assert.NoError(t, v.CheckInvariants())
}

func TestReservation_InvariantesVioladas(t *testing.T) {
	v := &entity.StockReservation{
		QuantityRequested: decimal.NewFromInt(10),
		QuantityReserved:  decimal.NewFromInt(11), // reservado > pedido
	}
	assert.Error(t, v.CheckInvariants())

	v = &entity.StockReservation{
		QuantityRequested: decimal.NewFromInt(10),
		QuantityReserved:  decimal.NewFromInt(10),
		QuantityFulfilled: decimal.NewFromInt(11), // cumplido > reservado
	}
	assert.Error(t, v.CheckInvariants())
}

// ──────────────────────────────────────────────────────────────────────────────
// ExpiryDue — predicado de auto-release
// ──────────────────────────────────────────────────────────────────────────────

func TestExpiryDue(t *testing.T) {
	now := time.Now()
	past := now.Add(-time.Minute)
	future := now.Add(time.Hour)

	base := entity.StockReservation{
		Status:      entity.ReservationConfirmed,
		ExpiresAt:   &past,
		AutoRelease: true,
	}

	v := base
	assert.True(t, v.ExpiryDue(now), "vencida + auto_release + no firme = liberar")

	v = base
	v.ExpiresAt = &future
	assert.False(t, v.ExpiryDue(now), "aún no vencida")

	v = base
	v.ExpiresAt = nil
	assert.False(t, v.ExpiryDue(now), "sin vencimiento nunca se auto-libera")

	v = base
	v.IsFirm = true
	assert.False(t, v.ExpiryDue(now), "la marca firme bloquea el auto-release")

	v = base
	v.AutoRelease = false
	assert.False(t, v.ExpiryDue(now))

	v = base
	v.Status = entity.ReservationCancelled
	assert.False(t, v.ExpiryDue(now), "un estado terminal no se libera dos veces")
}
