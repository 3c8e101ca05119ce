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
	stockdom "github.com/jhoicas/Almacen-api/internal/domain/stock"
)

// LedgerUseCase aplica movimientos al libro de stock de forma transaccional, con
// bloqueo de fila (SELECT FOR UPDATE) sobre el StockRecord y cadena before/after
// monótona por registro. Es el único camino de mutación de saldos físicos.
type LedgerUseCase struct {
	txRunner TxRunner
	idem     IdempotencyGuard // opcional; nil = solo índice único en BD
	policy   Policy
}

// NewLedgerUseCase construye el caso de uso. idem puede ser nil.
func NewLedgerUseCase(txRunner TxRunner, idem IdempotencyGuard, policy Policy) *LedgerUseCase {
	return &LedgerUseCase{txRunner: txRunner, idem: idem, policy: policy}
}

// MovementInput entrada para aplicar un movimiento.
// Para in/return/found/production y out/damage/lost, Quantity es magnitud positiva
// (el libro guarda las salidas negadas). Para adjustment/correction/sync, Quantity
// es el delta con signo. Para transfer: FromWarehouseID, ToWarehouseID y Quantity > 0.
type MovementInput struct {
	ProductID string
	VariantID *string
	Owner     entity.Owner
	Type      entity.MovementType
	Quantity  decimal.Decimal
	UnitCost  *decimal.Decimal // obligatorio en entradas (in)

	ReferenceType  string
	ReferenceID    string
	CorrelationKey string // opcional: idempotencia por clave externa
	IsCorrection   bool

	FromWarehouseID string // solo transfer
	ToWarehouseID   string // solo transfer

	MovementDate *time.Time // fecha de negocio; nil = ahora
	ActorID      string
}

// ApplyMovement valida, bloquea la fila del registro, calcula before/after y escribe
// movimiento + registro en la misma transacción. Para transfer produce dos movimientos
// ligados por TransactionID (débito origen, crédito destino) y devuelve el débito.
// Reaplicar con la misma CorrelationKey devuelve el movimiento original sin segundo
// cambio de saldo.
func (uc *LedgerUseCase) ApplyMovement(ctx context.Context, in MovementInput) (*entity.StockMovement, error) {
	change, err := uc.validate(in)
	if err != nil {
		return nil, err
	}
	if in.Type != entity.MovementTransfer {
		if err := in.Owner.Validate(); err != nil {
			return nil, err
		}
	}

	// Fast path de idempotencia (Redis SetNX). La BD sigue siendo la fuente de verdad.
	acquired := false
	if in.CorrelationKey != "" && uc.idem != nil {
		ok, gerr := uc.idem.Acquire(ctx, in.CorrelationKey)
		if gerr == nil && !ok {
			if existing, ferr := uc.findByCorrelation(ctx, in.CorrelationKey); ferr == nil && existing != nil {
				return existing, nil
			}
			// Clave tomada pero movimiento aún no visible: el caller debe reintentar.
			return nil, domain.ErrDuplicate
		}
		acquired = gerr == nil && ok
	}

	now := time.Now()
	movementDate := now
	if in.MovementDate != nil {
		movementDate = *in.MovementDate
	}

	var result *entity.StockMovement
	err = uc.txRunner.Run(ctx, func(
		records repository.StockRecordRepository,
		movements repository.StockMovementRepository,
		_ repository.StockReservationRepository,
		_ repository.InheritanceLogRepository,
	) error {
		if in.CorrelationKey != "" {
			existing, err := movements.GetByCorrelationKey(ctx, in.CorrelationKey)
			if err != nil {
				return err
			}
			if existing != nil {
				result = existing
				return nil
			}
		}
		if in.Type == entity.MovementTransfer {
			mov, err := uc.doTransfer(ctx, records, movements, in, now, movementDate)
			if err != nil {
				return err
			}
			result = mov
			return nil
		}
		mov, err := uc.doSimple(ctx, records, movements, in, change, now, movementDate)
		if err != nil {
			return err
		}
		result = mov
		return nil
	})
	if err != nil {
		if acquired {
			_ = uc.idem.Release(ctx, in.CorrelationKey)
		}
		return nil, err
	}
	return result, nil
}

// validate normaliza el signo del delta según el tipo. Devuelve el cambio firmado.
func (uc *LedgerUseCase) validate(in MovementInput) (decimal.Decimal, error) {
	if !entity.IsValidMovementType(in.Type) {
		return decimal.Zero, domain.ErrInvalidMovement
	}
	// reservation/release solo los emite el gestor de reservas (single-writer).
	if in.Type.AffectsReserved() {
		return decimal.Zero, domain.ErrInvalidMovement
	}
	if in.Quantity.IsZero() {
		return decimal.Zero, domain.ErrInvalidMovement
	}
	switch in.Type {
	case entity.MovementTransfer:
		if in.FromWarehouseID == "" || in.ToWarehouseID == "" || in.FromWarehouseID == in.ToWarehouseID {
			return decimal.Zero, domain.ErrInvalidMovement
		}
		if !in.Quantity.GreaterThan(decimal.Zero) {
			return decimal.Zero, domain.ErrInvalidMovement
		}
		return in.Quantity, nil
	case entity.MovementIn, entity.MovementReturn, entity.MovementFound, entity.MovementProduction:
		if !in.Quantity.GreaterThan(decimal.Zero) {
			return decimal.Zero, domain.ErrInvalidMovement
		}
		if in.Type == entity.MovementIn && (in.UnitCost == nil || in.UnitCost.IsNegative()) {
			return decimal.Zero, domain.ErrInvalidInput
		}
		return in.Quantity, nil
	case entity.MovementOut, entity.MovementDamage, entity.MovementLost:
		if !in.Quantity.GreaterThan(decimal.Zero) {
			return decimal.Zero, domain.ErrInvalidMovement
		}
		return in.Quantity.Neg(), nil
	default: // adjustment, correction, sync: delta con signo
		return in.Quantity, nil
	}
}

// doSimple aplica un movimiento de un solo registro bajo bloqueo de fila.
func (uc *LedgerUseCase) doSimple(
	ctx context.Context,
	records repository.StockRecordRepository,
	movements repository.StockMovementRepository,
	in MovementInput,
	change decimal.Decimal,
	now, movementDate time.Time,
) (*entity.StockMovement, error) {
	rec, err := uc.getOrCreateForUpdate(ctx, records, in.ProductID, in.VariantID, in.Owner, now)
	if err != nil {
		return nil, err
	}

	// Entradas con costo: mantener el costo promedio ponderado del registro.
	unitCost := rec.UnitCost
	if change.GreaterThan(decimal.Zero) && in.UnitCost != nil {
		rec.UnitCost = stockdom.WeightedAverageCost(rec.Quantity, rec.UnitCost, change, *in.UnitCost)
		unitCost = *in.UnitCost
	}

	spec := deltaSpec{
		movType:        in.Type,
		quantityDelta:  change,
		unitCost:       unitCost,
		referenceType:  in.ReferenceType,
		referenceID:    in.ReferenceID,
		correlationKey: optionalKey(in.CorrelationKey),
		transactionID:  uuid.New().String(),
		isCorrection:   in.IsCorrection,
		movementDate:   movementDate,
		actorID:        in.ActorID,
	}
	return applyDelta(ctx, records, movements, rec, spec, now)
}

// doTransfer resta en la bodega origen y suma en la destino dentro de la misma
// transacción, con dos movimientos ligados por TransactionID. Devuelve el débito.
func (uc *LedgerUseCase) doTransfer(
	ctx context.Context,
	records repository.StockRecordRepository,
	movements repository.StockMovementRepository,
	in MovementInput,
	now, movementDate time.Time,
) (*entity.StockMovement, error) {
	origin, err := uc.getOrCreateForUpdate(ctx, records, in.ProductID, in.VariantID, entity.WarehouseOwner(in.FromWarehouseID), now)
	if err != nil {
		return nil, err
	}
	dest, err := uc.getOrCreateForUpdate(ctx, records, in.ProductID, in.VariantID, entity.WarehouseOwner(in.ToWarehouseID), now)
	if err != nil {
		return nil, err
	}

	txID := uuid.New().String()
	from, to := in.FromWarehouseID, in.ToWarehouseID
	unitCost := origin.UnitCost

	debit := deltaSpec{
		movType:         entity.MovementTransfer,
		quantityDelta:   in.Quantity.Neg(),
		unitCost:        unitCost,
		referenceType:   in.ReferenceType,
		referenceID:     in.ReferenceID,
		correlationKey:  optionalKey(in.CorrelationKey),
		transactionID:   txID,
		fromWarehouseID: &from,
		toWarehouseID:   &to,
		movementDate:    movementDate,
		actorID:         in.ActorID,
	}
	debitMov, err := applyDelta(ctx, records, movements, origin, debit, now)
	if err != nil {
		return nil, err
	}

	// El destino hereda el costo promedio del origen en la cantidad transferida.
	dest.UnitCost = stockdom.WeightedAverageCost(dest.Quantity, dest.UnitCost, in.Quantity, unitCost)
	credit := debit
	credit.quantityDelta = in.Quantity
	credit.correlationKey = nil // la clave de idempotencia vive en el débito
	if _, err := applyDelta(ctx, records, movements, dest, credit, now); err != nil {
		return nil, err
	}
	return debitMov, nil
}

// getOrCreateForUpdate devuelve la fila bloqueada, creándola en cero al primer toque
// del par producto/dueño. Ante carrera en el insert, reintenta el lock una vez.
func (uc *LedgerUseCase) getOrCreateForUpdate(
	ctx context.Context,
	records repository.StockRecordRepository,
	productID string,
	variantID *string,
	owner entity.Owner,
	now time.Time,
) (*entity.StockRecord, error) {
	rec, err := records.GetForUpdate(ctx, productID, variantID, owner)
	if err != nil {
		return nil, err
	}
	if rec != nil {
		return rec, nil
	}
	rec, err = entity.NewStockRecord(productID, variantID, owner, uc.policy.AllowNegativeDefault, now)
	if err != nil {
		return nil, err
	}
	if err := records.Create(ctx, rec); err != nil {
		if errors.Is(err, domain.ErrDuplicate) {
			return records.GetForUpdate(ctx, productID, variantID, owner)
		}
		return nil, err
	}
	return rec, nil
}

// UpdateDeliveryStatus avanza el flujo de entrega del registro con transición validada.
func (uc *LedgerUseCase) UpdateDeliveryStatus(ctx context.Context, recordID string, next entity.DeliveryStatus) (*entity.StockRecord, error) {
	var result *entity.StockRecord
	err := uc.txRunner.Run(ctx, func(
		records repository.StockRecordRepository,
		_ repository.StockMovementRepository,
		_ repository.StockReservationRepository,
		_ repository.InheritanceLogRepository,
	) error {
		rec, err := records.GetByIDForUpdate(ctx, recordID)
		if err != nil {
			return err
		}
		if rec == nil {
			return domain.ErrNotFound
		}
		if !rec.DeliveryStatus.CanTransitionTo(next) {
			return domain.ErrInvalidInput
		}
		rec.DeliveryStatus = next
		rec.UpdatedAt = time.Now()
		if err := records.Update(ctx, rec); err != nil {
			return err
		}
		result = rec
		return nil
	})
	return result, err
}

// findByCorrelation busca un movimiento ya aplicado para la clave (lectura corta).
func (uc *LedgerUseCase) findByCorrelation(ctx context.Context, key string) (*entity.StockMovement, error) {
	var found *entity.StockMovement
	err := uc.txRunner.Run(ctx, func(
		_ repository.StockRecordRepository,
		movements repository.StockMovementRepository,
		_ repository.StockReservationRepository,
		_ repository.InheritanceLogRepository,
	) error {
		m, err := movements.GetByCorrelationKey(ctx, key)
		if err != nil {
			return err
		}
		found = m
		return nil
	})
	return found, err
}

func optionalKey(key string) *string {
	if key == "" {
		return nil
	}
	return &key
}

// deltaSpec describe una mutación de saldos a registrar en el libro.
type deltaSpec struct {
	movType         entity.MovementType
	quantityDelta   decimal.Decimal
	reservedDelta   decimal.Decimal
	unitCost        decimal.Decimal
	referenceType   string
	referenceID     string
	correlationKey  *string
	transactionID   string
	fromWarehouseID *string
	toWarehouseID   *string
	isCorrection    bool
	movementDate    time.Time
	actorID         string
}

// applyDelta es el único punto que muta un StockRecord: valida la política de stock
// negativo y la cota de reserva, escribe la fila del movimiento y persiste el registro
// con el disponible recalculado, todo dentro de la tx del caller y sobre la fila ya
// bloqueada. Lo comparten el libro, el gestor de reservas y el resolver.
func applyDelta(
	ctx context.Context,
	records repository.StockRecordRepository,
	movements repository.StockMovementRepository,
	rec *entity.StockRecord,
	spec deltaSpec,
	now time.Time,
) (*entity.StockMovement, error) {
	if spec.quantityDelta.IsZero() && spec.reservedDelta.IsZero() {
		return nil, domain.ErrInvalidMovement
	}

	quantityBefore := rec.Quantity
	reservedBefore := rec.ReservedQuantity
	quantityAfter := quantityBefore.Add(spec.quantityDelta)
	reservedAfter := reservedBefore.Add(spec.reservedDelta)

	if quantityAfter.IsNegative() && !rec.AllowNegative {
		return nil, domain.ErrInvalidMovement
	}
	if reservedAfter.IsNegative() || reservedAfter.GreaterThan(quantityAfter.Abs()) {
		return nil, domain.ErrReservedExceedsQuantity
	}

	// Para reservation/release la cadena before/change/after sigue el saldo reservado;
	// para el resto, el físico. Así after = before + change se cumple en todo el libro.
	before, change, after := quantityBefore, spec.quantityDelta, quantityAfter
	if spec.movType.AffectsReserved() {
		before, change, after = reservedBefore, spec.reservedDelta, reservedAfter
	}

	mov := &entity.StockMovement{
		ID:              uuid.New().String(),
		TransactionID:   spec.transactionID,
		RecordID:        rec.ID,
		Type:            spec.movType,
		QuantityBefore:  before,
		QuantityChange:  change,
		QuantityAfter:   after,
		ReservedBefore:  reservedBefore,
		ReservedAfter:   reservedAfter,
		FromWarehouseID: spec.fromWarehouseID,
		ToWarehouseID:   spec.toWarehouseID,
		UnitCost:        spec.unitCost,
		TotalCost:       change.Mul(spec.unitCost),
		ReferenceType:   spec.referenceType,
		ReferenceID:     spec.referenceID,
		CorrelationKey:  spec.correlationKey,
		IsCorrection:    spec.isCorrection,
		MovementDate:    spec.movementDate,
		CreatedAt:       now,
		CreatedBy:       spec.actorID,
	}
	if err := movements.Create(ctx, mov); err != nil {
		return nil, err
	}

	rec.Quantity = quantityAfter
	rec.ReservedQuantity = reservedAfter
	rec.Recompute()
	if err := rec.CheckInvariants(); err != nil {
		return nil, err
	}
	rec.TouchMovement(now)
	if err := records.Update(ctx, rec); err != nil {
		return nil, err
	}
	return mov, nil
}
