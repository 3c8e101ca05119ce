package repository

import (
	"context"
	"time"

	"github.com/jhoicas/Almacen-api/internal/domain/entity"
)

// StockReservationRepository define el puerto de persistencia de reservas.
// Las filas se mutan solo desde el gestor de reservas, siempre bajo ForUpdate.
type StockReservationRepository interface {
	Create(ctx context.Context, reservation *entity.StockReservation) error
	GetByID(ctx context.Context, id string) (*entity.StockReservation, error)
	GetByNumber(ctx context.Context, number string) (*entity.StockReservation, error)
	// GetByIDForUpdate bloquea la fila de la reserva (SELECT FOR UPDATE).
	GetByIDForUpdate(ctx context.Context, id string) (*entity.StockReservation, error)
	Update(ctx context.Context, reservation *entity.StockReservation) error
	// ListPendingByRecord devuelve reservas pending de un registro en orden de
	// asignación: priority ascendente y reserved_at ascendente (FIFO en empate).
	ListPendingByRecord(ctx context.Context, recordID string) ([]*entity.StockReservation, error)
	// ListExpirableIDs devuelve IDs de reservas candidatas a auto-release en now:
	// expires_at <= now, status in (pending, confirmed), auto_release y no firmes.
	// El predicado se re-verifica bajo lock antes de liberar cada una.
	ListExpirableIDs(ctx context.Context, now time.Time, limit int) ([]string, error)
}
