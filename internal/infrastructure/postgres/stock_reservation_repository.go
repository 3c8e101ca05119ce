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

var _ repository.StockReservationRepository = (*StockReservationRepo)(nil)

// StockReservationRepo implementación de StockReservationRepository sobre PostgreSQL.
type StockReservationRepo struct {
	q Querier
}

// NewStockReservationRepository construye el adaptador. Pasar pool o tx (Querier).
func NewStockReservationRepository(q Querier) *StockReservationRepo {
	return &StockReservationRepo{q: q}
}

const stockReservationColumns = `
	id, number, record_id, type,
	quantity_requested, quantity_reserved, quantity_fulfilled, quantity_remaining,
	status, priority, expires_at, auto_release, is_firm, release_reason,
	reference_type, reference_id, reserved_at, created_at, updated_at`

func scanReservation(row pgx.Row) (*entity.StockReservation, error) {
	var v entity.StockReservation
	err := row.Scan(
		&v.ID, &v.Number, &v.RecordID, &v.Type,
		&v.QuantityRequested, &v.QuantityReserved, &v.QuantityFulfilled, &v.QuantityRemaining,
		&v.Status, &v.Priority, &v.ExpiresAt, &v.AutoRelease, &v.IsFirm, &v.ReleaseReason,
		&v.ReferenceType, &v.ReferenceID, &v.ReservedAt, &v.CreatedAt, &v.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &v, nil
}

// Create persiste una reserva nueva. ErrDuplicate si el número ya existe.
func (r *StockReservationRepo) Create(ctx context.Context, reservation *entity.StockReservation) error {
	if reservation.ID == "" {
		reservation.ID = uuid.New().String()
	}
	query := `
		INSERT INTO stock_reservations (
			id, number, record_id, type,
			quantity_requested, quantity_reserved, quantity_fulfilled, quantity_remaining,
			status, priority, expires_at, auto_release, is_firm, release_reason,
			reference_type, reference_id, reserved_at, created_at, updated_at
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17,$18,$19)`
	_, err := r.q.Exec(ctx, query,
		reservation.ID, reservation.Number, reservation.RecordID, reservation.Type,
		reservation.QuantityRequested, reservation.QuantityReserved,
		reservation.QuantityFulfilled, reservation.QuantityRemaining,
		reservation.Status, reservation.Priority, reservation.ExpiresAt,
		reservation.AutoRelease, reservation.IsFirm, reservation.ReleaseReason,
		reservation.ReferenceType, reservation.ReferenceID,
		reservation.ReservedAt, reservation.CreatedAt, reservation.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrDuplicate
		}
		return fmt.Errorf("create reservation: %w", err)
	}
	return nil
}

func (r *StockReservationRepo) getBy(ctx context.Context, where string, arg any, forUpdate bool) (*entity.StockReservation, error) {
	query := `
		SELECT ` + stockReservationColumns + `
		FROM stock_reservations WHERE ` + where
	if forUpdate {
		query += `
		FOR UPDATE`
	}
	v, err := scanReservation(r.q.QueryRow(ctx, query, arg))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get reservation: %w", err)
	}
	return v, nil
}

// GetByID obtiene la reserva por ID; nil si no existe.
func (r *StockReservationRepo) GetByID(ctx context.Context, id string) (*entity.StockReservation, error) {
	return r.getBy(ctx, "id = $1", id, false)
}

// GetByNumber obtiene la reserva por número legible.
func (r *StockReservationRepo) GetByNumber(ctx context.Context, number string) (*entity.StockReservation, error) {
	return r.getBy(ctx, "number = $1", number, false)
}

// GetByIDForUpdate obtiene la reserva bloqueando la fila (SELECT FOR UPDATE).
func (r *StockReservationRepo) GetByIDForUpdate(ctx context.Context, id string) (*entity.StockReservation, error) {
	return r.getBy(ctx, "id = $1", id, true)
}

// Update persiste cantidades, estado y metadatos de la reserva.
func (r *StockReservationRepo) Update(ctx context.Context, reservation *entity.StockReservation) error {
	query := `
		UPDATE stock_reservations SET
			quantity_requested = $2, quantity_reserved = $3,
			quantity_fulfilled = $4, quantity_remaining = $5,
			status = $6, priority = $7, expires_at = $8,
			auto_release = $9, is_firm = $10, release_reason = $11, updated_at = $12
		WHERE id = $1`
	tag, err := r.q.Exec(ctx, query,
		reservation.ID,
		reservation.QuantityRequested, reservation.QuantityReserved,
		reservation.QuantityFulfilled, reservation.QuantityRemaining,
		reservation.Status, reservation.Priority, reservation.ExpiresAt,
		reservation.AutoRelease, reservation.IsFirm, reservation.ReleaseReason, reservation.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("update reservation: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// ListPendingByRecord lista reservas pending de un registro en orden de asignación:
// priority ascendente, reserved_at ascendente (FIFO dentro de la misma prioridad).
// Bloquea las filas: se invoca desde transacciones que las van a mutar.
func (r *StockReservationRepo) ListPendingByRecord(ctx context.Context, recordID string) ([]*entity.StockReservation, error) {
	query := `
		SELECT ` + stockReservationColumns + `
		FROM stock_reservations
		WHERE record_id = $1 AND status = 'pending'
		ORDER BY priority ASC, reserved_at ASC
		FOR UPDATE`
	rows, err := r.q.Query(ctx, query, recordID)
	if err != nil {
		return nil, fmt.Errorf("list pending reservations: %w", err)
	}
	defer rows.Close()
	var list []*entity.StockReservation
	for rows.Next() {
		v, err := scanReservation(rows)
		if err != nil {
			return nil, fmt.Errorf("scan reservation: %w", err)
		}
		list = append(list, v)
	}
	return list, rows.Err()
}

// ListExpirableIDs devuelve IDs de reservas candidatas a auto-release en now. El
// predicado se re-verifica bajo lock antes de liberar cada una: la re-ejecución del
// barrido no libera dos veces.
func (r *StockReservationRepo) ListExpirableIDs(ctx context.Context, now time.Time, limit int) ([]string, error) {
	query := `
		SELECT id FROM stock_reservations
		WHERE expires_at IS NOT NULL AND expires_at <= $1
		  AND status IN ('pending', 'confirmed')
		  AND auto_release AND NOT is_firm
		ORDER BY expires_at ASC
		LIMIT $2`
	rows, err := r.q.Query(ctx, query, now, limit)
	if err != nil {
		return nil, fmt.Errorf("list expirable reservations: %w", err)
	}
	defer rows.Close()
	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan reservation id: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}
