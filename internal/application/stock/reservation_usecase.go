package stock

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/jhoicas/Almacen-api/internal/domain"
	"github.com/jhoicas/Almacen-api/internal/domain/entity"
	"github.com/jhoicas/Almacen-api/internal/domain/repository"
)

// ReservationUseCase gestiona el ciclo de vida de las reservas contra el StockRecord:
// crear, confirmar, cumplir, liberar y expirar. Toda mutación de la cantidad reservada
// pasa por el libro (movimientos reservation/release/out) bajo bloqueo de fila.
type ReservationUseCase struct {
	txRunner TxRunner
	policy   Policy
}

// NewReservationUseCase construye el gestor de reservas.
func NewReservationUseCase(txRunner TxRunner, policy Policy) *ReservationUseCase {
	return &ReservationUseCase{txRunner: txRunner, policy: policy}
}

// ReserveInput entrada para crear una reserva.
type ReserveInput struct {
	ProductID string
	VariantID *string
	Owner     entity.Owner
	Type      entity.ReservationType
	Quantity  decimal.Decimal
	Priority  int // 1 más alta .. 10 más baja; 0 = 5 por defecto

	ExpiresAt   *time.Time // nil = nunca expira
	AutoRelease bool
	IsFirm      bool // bloquea el auto-release
	Confirm     bool // true: nace confirmed si se otorga completa; un parcial nace pending
	// AllowPartial acepta reservar menos que lo pedido si no alcanza el disponible.
	// La reserva nace pending con reserved < requested; PromotePending la completa.
	AllowPartial bool

	ReferenceType string
	ReferenceID   string
	ActorID       string
}

// Reserve verifica atómicamente available >= pedido bajo la fila bloqueada, emite el
// movimiento reservation y crea la fila de la reserva. Con stock insuficiente y sin
// parcialidad permitida falla con ErrInsufficientStock. Decisión de política: con
// cantidad física negativa no se acepta ninguna reserva.
func (uc *ReservationUseCase) Reserve(ctx context.Context, in ReserveInput) (*entity.StockReservation, error) {
	if !in.Quantity.GreaterThan(decimal.Zero) {
		return nil, domain.ErrInvalidInput
	}
	if err := in.Owner.Validate(); err != nil {
		return nil, err
	}
	priority := in.Priority
	if priority == 0 {
		priority = 5
	}
	if priority < 1 || priority > 10 {
		return nil, domain.ErrInvalidInput
	}

	now := time.Now()
	var result *entity.StockReservation
	err := uc.txRunner.Run(ctx, func(
		records repository.StockRecordRepository,
		movements repository.StockMovementRepository,
		reservations repository.StockReservationRepository,
		_ repository.InheritanceLogRepository,
	) error {
		rec, err := records.GetForUpdate(ctx, in.ProductID, in.VariantID, in.Owner)
		if err != nil {
			return err
		}
		if rec == nil || rec.Status != entity.RecordStatusActive {
			return domain.ErrInsufficientStock
		}
		if rec.Quantity.IsNegative() {
			return domain.ErrInsufficientStock
		}

		granted := in.Quantity
		if rec.AvailableQuantity.LessThan(granted) {
			if !in.AllowPartial || !rec.AvailableQuantity.GreaterThan(decimal.Zero) {
				return domain.ErrInsufficientStock
			}
			granted = rec.AvailableQuantity
		}

		res := &entity.StockReservation{
			ID:                uuid.New().String(),
			Number:            newReservationNumber(),
			RecordID:          rec.ID,
			Type:              in.Type,
			QuantityRequested: in.Quantity,
			QuantityReserved:  granted,
			Status:            entity.ReservationPending,
			Priority:          priority,
			ExpiresAt:         in.ExpiresAt,
			AutoRelease:       in.AutoRelease,
			IsFirm:            in.IsFirm,
			ReferenceType:     in.ReferenceType,
			ReferenceID:       in.ReferenceID,
			ReservedAt:        now,
			CreatedAt:         now,
			UpdatedAt:         now,
		}
		// Un otorgamiento parcial queda pending aunque se pida confirmación:
		// solo las pending entran al barrido de PromotePending que las completa.
		if in.Confirm && granted.Equal(in.Quantity) {
			res.Status = entity.ReservationConfirmed
		}
		res.Recompute()
		if err := res.CheckInvariants(); err != nil {
			return err
		}

		spec := deltaSpec{
			movType:       entity.MovementReservation,
			reservedDelta: granted,
			unitCost:      rec.UnitCost,
			referenceType: "reservation",
			referenceID:   res.ID,
			transactionID: uuid.New().String(),
			movementDate:  now,
			actorID:       in.ActorID,
		}
		if _, err := applyDelta(ctx, records, movements, rec, spec, now); err != nil {
			return err
		}
		if err := reservations.Create(ctx, res); err != nil {
			return err
		}
		result = res
		return nil
	})
	return result, err
}

// Confirm aprueba una reserva pending (aprobación de negocio).
func (uc *ReservationUseCase) Confirm(ctx context.Context, reservationID string) (*entity.StockReservation, error) {
	return uc.transition(ctx, reservationID, entity.ReservationConfirmed, "")
}

// Hold pone en pausa una reserva pending/confirmed sin devolver lo reservado.
func (uc *ReservationUseCase) Hold(ctx context.Context, reservationID string) (*entity.StockReservation, error) {
	return uc.transition(ctx, reservationID, entity.ReservationOnHold, "")
}

// Resume reactiva una reserva en pausa dejándola confirmed.
func (uc *ReservationUseCase) Resume(ctx context.Context, reservationID string) (*entity.StockReservation, error) {
	return uc.transition(ctx, reservationID, entity.ReservationConfirmed, "")
}

// transition aplica un cambio de estado puro (sin efecto en saldos) bajo lock.
func (uc *ReservationUseCase) transition(ctx context.Context, reservationID string, next entity.ReservationStatus, reason string) (*entity.StockReservation, error) {
	var result *entity.StockReservation
	err := uc.txRunner.Run(ctx, func(
		_ repository.StockRecordRepository,
		_ repository.StockMovementRepository,
		reservations repository.StockReservationRepository,
		_ repository.InheritanceLogRepository,
	) error {
		res, err := reservations.GetByIDForUpdate(ctx, reservationID)
		if err != nil {
			return err
		}
		if res == nil {
			return domain.ErrNotFound
		}
		if !res.Status.CanTransitionTo(next) {
			return domain.ErrReservationState
		}
		res.Status = next
		if reason != "" {
			res.ReleaseReason = reason
		}
		res.UpdatedAt = time.Now()
		if err := reservations.Update(ctx, res); err != nil {
			return err
		}
		result = res
		return nil
	})
	return result, err
}

// Fulfill incrementa lo cumplido y emite un movimiento out que reduce cantidad física
// y reservada por el monto cumplido. Pasa a partial o fulfilled según lo restante.
func (uc *ReservationUseCase) Fulfill(ctx context.Context, reservationID string, quantity decimal.Decimal, actorID string) (*entity.StockReservation, error) {
	if !quantity.GreaterThan(decimal.Zero) {
		return nil, domain.ErrInvalidInput
	}
	now := time.Now()
	var result *entity.StockReservation
	err := uc.txRunner.Run(ctx, func(
		records repository.StockRecordRepository,
		movements repository.StockMovementRepository,
		reservations repository.StockReservationRepository,
		_ repository.InheritanceLogRepository,
	) error {
		res, err := reservations.GetByIDForUpdate(ctx, reservationID)
		if err != nil {
			return err
		}
		if res == nil {
			return domain.ErrNotFound
		}
		if res.Status != entity.ReservationConfirmed && res.Status != entity.ReservationPartial {
			return domain.ErrReservationState
		}
		if quantity.GreaterThan(res.QuantityRemaining) {
			return domain.ErrInvalidInput
		}

		rec, err := records.GetByIDForUpdate(ctx, res.RecordID)
		if err != nil {
			return err
		}
		if rec == nil {
			return domain.ErrNotFound
		}

		spec := deltaSpec{
			movType:       entity.MovementOut,
			quantityDelta: quantity.Neg(),
			reservedDelta: quantity.Neg(),
			unitCost:      rec.UnitCost,
			referenceType: "reservation",
			referenceID:   res.ID,
			transactionID: uuid.New().String(),
			movementDate:  now,
			actorID:       actorID,
		}
		if _, err := applyDelta(ctx, records, movements, rec, spec, now); err != nil {
			return err
		}

		res.QuantityFulfilled = res.QuantityFulfilled.Add(quantity)
		res.Recompute()
		if err := res.CheckInvariants(); err != nil {
			return err
		}
		next := entity.ReservationPartial
		if res.QuantityRemaining.IsZero() {
			next = entity.ReservationFulfilled
		}
		if !res.Status.CanTransitionTo(next) {
			return domain.ErrReservationState
		}
		res.Status = next
		res.UpdatedAt = now
		if err := reservations.Update(ctx, res); err != nil {
			return err
		}
		result = res
		return nil
	})
	return result, err
}

// Release cancela una reserva no terminal devolviendo lo restante al disponible
// mediante un movimiento release.
func (uc *ReservationUseCase) Release(ctx context.Context, reservationID, reason, actorID string) (*entity.StockReservation, error) {
	return uc.release(ctx, reservationID, entity.ReservationCancelled, reason, actorID, nil)
}

// release implementa cancelación y expiración: ambas liberan lo restante y difieren
// solo en el estado final. Con predicate no-nil, la reserva bloqueada debe cumplirlo
// o la operación se omite en silencio (re-chequeo idempotente de ExpireDue).
func (uc *ReservationUseCase) release(
	ctx context.Context,
	reservationID string,
	final entity.ReservationStatus,
	reason, actorID string,
	predicate func(*entity.StockReservation) bool,
) (*entity.StockReservation, error) {
	now := time.Now()
	var result *entity.StockReservation
	err := uc.txRunner.Run(ctx, func(
		records repository.StockRecordRepository,
		movements repository.StockMovementRepository,
		reservations repository.StockReservationRepository,
		_ repository.InheritanceLogRepository,
	) error {
		res, err := reservations.GetByIDForUpdate(ctx, reservationID)
		if err != nil {
			return err
		}
		if res == nil {
			return domain.ErrNotFound
		}
		if predicate != nil && !predicate(res) {
			return nil
		}
		if res.Status.IsTerminal() || !res.Status.CanTransitionTo(final) {
			return domain.ErrReservationState
		}

		remaining := res.QuantityRemaining
		if remaining.GreaterThan(decimal.Zero) {
			rec, err := records.GetByIDForUpdate(ctx, res.RecordID)
			if err != nil {
				return err
			}
			if rec == nil {
				return domain.ErrNotFound
			}
			spec := deltaSpec{
				movType:       entity.MovementRelease,
				reservedDelta: remaining.Neg(),
				unitCost:      rec.UnitCost,
				referenceType: "reservation",
				referenceID:   res.ID,
				transactionID: uuid.New().String(),
				movementDate:  now,
				actorID:       actorID,
			}
			if _, err := applyDelta(ctx, records, movements, rec, spec, now); err != nil {
				return err
			}
		}

		res.Status = final
		res.ReleaseReason = reason
		res.QuantityReserved = res.QuantityFulfilled // lo restante vuelve al disponible
		res.Recompute()
		res.UpdatedAt = now
		if err := reservations.Update(ctx, res); err != nil {
			return err
		}
		result = res
		return nil
	})
	return result, err
}

// ExpireDue barre las reservas vencidas con auto_release y no firmes, liberando cada
// una en su propia transacción atómica. Es seguro correrlo concurrente con tráfico
// vivo y re-ejecutarlo tras una interrupción: el predicado se re-verifica bajo lock,
// así una reserva ya liberada no se libera dos veces.
func (uc *ReservationUseCase) ExpireDue(ctx context.Context, now time.Time, batchSize int) ([]*entity.StockReservation, error) {
	if batchSize <= 0 {
		batchSize = 100
	}
	var ids []string
	err := uc.txRunner.Run(ctx, func(
		_ repository.StockRecordRepository,
		_ repository.StockMovementRepository,
		reservations repository.StockReservationRepository,
		_ repository.InheritanceLogRepository,
	) error {
		var err error
		ids, err = reservations.ListExpirableIDs(ctx, now, batchSize)
		return err
	})
	if err != nil {
		return nil, err
	}

	expired := make([]*entity.StockReservation, 0, len(ids))
	for _, id := range ids {
		res, err := uc.release(ctx, id, entity.ReservationExpired, "expirada por vencimiento", "",
			func(r *entity.StockReservation) bool { return r.ExpiryDue(now) })
		if err != nil {
			return expired, err
		}
		if res != nil {
			expired = append(expired, res)
		}
	}
	return expired, nil
}

// PromotePending completa reservas pending con reserved < requested a medida que hay
// disponibilidad, en orden de asignación: priority ascendente y FIFO dentro de la
// misma prioridad. Pensado para invocarse tras entradas de stock.
func (uc *ReservationUseCase) PromotePending(ctx context.Context, recordID, actorID string) ([]*entity.StockReservation, error) {
	now := time.Now()
	var promoted []*entity.StockReservation
	err := uc.txRunner.Run(ctx, func(
		records repository.StockRecordRepository,
		movements repository.StockMovementRepository,
		reservations repository.StockReservationRepository,
		_ repository.InheritanceLogRepository,
	) error {
		rec, err := records.GetByIDForUpdate(ctx, recordID)
		if err != nil {
			return err
		}
		if rec == nil {
			return domain.ErrNotFound
		}
		pending, err := reservations.ListPendingByRecord(ctx, recordID)
		if err != nil {
			return err
		}
		for _, res := range pending {
			missing := res.QuantityRequested.Sub(res.QuantityReserved)
			if !missing.GreaterThan(decimal.Zero) {
				continue
			}
			if !rec.AvailableQuantity.GreaterThan(decimal.Zero) {
				break
			}
			grant := decimal.Min(missing, rec.AvailableQuantity)
			spec := deltaSpec{
				movType:       entity.MovementReservation,
				reservedDelta: grant,
				unitCost:      rec.UnitCost,
				referenceType: "reservation",
				referenceID:   res.ID,
				transactionID: uuid.New().String(),
				movementDate:  now,
				actorID:       actorID,
			}
			if _, err := applyDelta(ctx, records, movements, rec, spec, now); err != nil {
				return err
			}
			res.QuantityReserved = res.QuantityReserved.Add(grant)
			res.Recompute()
			res.UpdatedAt = now
			if err := reservations.Update(ctx, res); err != nil {
				return err
			}
			promoted = append(promoted, res)
		}
		return nil
	})
	return promoted, err
}

// newReservationNumber genera un número único legible con prefijo RSV-.
func newReservationNumber() string {
	return "RSV-" + strings.ToUpper(strings.ReplaceAll(uuid.New().String(), "-", "")[:12])
}
