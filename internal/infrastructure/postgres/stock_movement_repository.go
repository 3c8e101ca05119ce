package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/jhoicas/Almacen-api/internal/domain"
	"github.com/jhoicas/Almacen-api/internal/domain/entity"
	"github.com/jhoicas/Almacen-api/internal/domain/repository"
)

var _ repository.StockMovementRepository = (*StockMovementRepo)(nil)

// StockMovementRepo implementación del libro de movimientos sobre PostgreSQL.
// Solo inserta y lee: las filas del libro nunca se actualizan ni se borran.
type StockMovementRepo struct {
	q Querier
}

// NewStockMovementRepository construye el adaptador. Pasar pool o tx (Querier).
func NewStockMovementRepository(q Querier) *StockMovementRepo {
	return &StockMovementRepo{q: q}
}

const stockMovementColumns = `
	id, transaction_id, record_id, type,
	quantity_before, quantity_change, quantity_after, reserved_before, reserved_after,
	from_warehouse_id, to_warehouse_id, unit_cost, total_cost,
	reference_type, reference_id, correlation_key, is_correction,
	movement_date, created_at, created_by`

func scanMovement(row pgx.Row) (*entity.StockMovement, error) {
	var m entity.StockMovement
	var createdBy *string
	err := row.Scan(
		&m.ID, &m.TransactionID, &m.RecordID, &m.Type,
		&m.QuantityBefore, &m.QuantityChange, &m.QuantityAfter, &m.ReservedBefore, &m.ReservedAfter,
		&m.FromWarehouseID, &m.ToWarehouseID, &m.UnitCost, &m.TotalCost,
		&m.ReferenceType, &m.ReferenceID, &m.CorrelationKey, &m.IsCorrection,
		&m.MovementDate, &m.CreatedAt, &createdBy,
	)
	if err != nil {
		return nil, err
	}
	if createdBy != nil {
		m.CreatedBy = *createdBy
	}
	return &m, nil
}

// Create persiste una entrada del libro. ErrDuplicate si la clave de correlación ya
// fue aplicada (índice único): la fuente de verdad de la idempotencia.
func (r *StockMovementRepo) Create(ctx context.Context, movement *entity.StockMovement) error {
	if movement.ID == "" {
		movement.ID = uuid.New().String()
	}
	createdBy := (*string)(nil)
	if movement.CreatedBy != "" {
		createdBy = &movement.CreatedBy
	}
	query := `
		INSERT INTO stock_movements (
			id, transaction_id, record_id, type,
			quantity_before, quantity_change, quantity_after, reserved_before, reserved_after,
			from_warehouse_id, to_warehouse_id, unit_cost, total_cost,
			reference_type, reference_id, correlation_key, is_correction,
			movement_date, created_at, created_by
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17,$18,$19,$20)`
	_, err := r.q.Exec(ctx, query,
		movement.ID, movement.TransactionID, movement.RecordID, movement.Type,
		movement.QuantityBefore, movement.QuantityChange, movement.QuantityAfter,
		movement.ReservedBefore, movement.ReservedAfter,
		movement.FromWarehouseID, movement.ToWarehouseID, movement.UnitCost, movement.TotalCost,
		movement.ReferenceType, movement.ReferenceID, movement.CorrelationKey, movement.IsCorrection,
		movement.MovementDate, movement.CreatedAt, createdBy,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrDuplicate
		}
		return fmt.Errorf("create stock movement: %w", err)
	}
	return nil
}

// GetByID obtiene un movimiento por ID; nil si no existe.
func (r *StockMovementRepo) GetByID(ctx context.Context, id string) (*entity.StockMovement, error) {
	query := `
		SELECT ` + stockMovementColumns + `
		FROM stock_movements WHERE id = $1`
	m, err := scanMovement(r.q.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get movement: %w", err)
	}
	return m, nil
}

// GetByCorrelationKey obtiene el movimiento aplicado para la clave de idempotencia.
func (r *StockMovementRepo) GetByCorrelationKey(ctx context.Context, key string) (*entity.StockMovement, error) {
	query := `
		SELECT ` + stockMovementColumns + `
		FROM stock_movements WHERE correlation_key = $1`
	m, err := scanMovement(r.q.QueryRow(ctx, query, key))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get movement by correlation key: %w", err)
	}
	return m, nil
}

// ListByTransaction lista los movimientos de una transacción lógica en orden de creación.
func (r *StockMovementRepo) ListByTransaction(ctx context.Context, transactionID string) ([]*entity.StockMovement, error) {
	query := `
		SELECT ` + stockMovementColumns + `
		FROM stock_movements WHERE transaction_id = $1
		ORDER BY created_at, id`
	rows, err := r.q.Query(ctx, query, transactionID)
	if err != nil {
		return nil, fmt.Errorf("list by transaction: %w", err)
	}
	defer rows.Close()
	return collectMovements(rows)
}

// ListByRecord lista movimientos de un registro en un rango de fechas de negocio.
func (r *StockMovementRepo) ListByRecord(ctx context.Context, recordID string, from, to *time.Time, limit, offset int) ([]*entity.StockMovement, error) {
	query := `
		SELECT ` + stockMovementColumns + `
		FROM stock_movements WHERE record_id = $1`
	args := []any{recordID}
	pos := 2
	if from != nil {
		query += fmt.Sprintf(" AND movement_date >= $%d", pos)
		args = append(args, *from)
		pos++
	}
	if to != nil {
		query += fmt.Sprintf(" AND movement_date <= $%d", pos)
		args = append(args, *to)
		pos++
	}
	// limit <= 0 = sin límite (LIMIT NULL).
	var lim any
	if limit > 0 {
		lim = limit
	}
	query += fmt.Sprintf(" ORDER BY movement_date DESC, created_at DESC LIMIT $%d OFFSET $%d", pos, pos+1)
	args = append(args, lim, offset)

	rows, err := r.q.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list by record: %w", err)
	}
	defer rows.Close()
	return collectMovements(rows)
}

func collectMovements(rows pgx.Rows) ([]*entity.StockMovement, error) {
	var list []*entity.StockMovement
	for rows.Next() {
		m, err := scanMovement(rows)
		if err != nil {
			return nil, fmt.Errorf("scan movement: %w", err)
		}
		list = append(list, m)
	}
	return list, rows.Err()
}
