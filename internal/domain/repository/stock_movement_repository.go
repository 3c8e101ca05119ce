package repository

import (
	"context"
	"time"

	"github.com/jhoicas/Almacen-api/internal/domain/entity"
)

// StockMovementRepository define el puerto del libro de movimientos (append-only).
// No hay Update ni Delete: las correcciones son filas nuevas.
type StockMovementRepository interface {
	Create(ctx context.Context, movement *entity.StockMovement) error
	GetByID(ctx context.Context, id string) (*entity.StockMovement, error)
	// GetByCorrelationKey devuelve el movimiento ya aplicado para la clave de
	// idempotencia; nil si no existe.
	GetByCorrelationKey(ctx context.Context, key string) (*entity.StockMovement, error)
	// ListByTransaction devuelve los movimientos de una transacción lógica
	// (p.ej. las dos patas de un transfer), en orden de creación.
	ListByTransaction(ctx context.Context, transactionID string) ([]*entity.StockMovement, error)
	// ListByRecord lista el historial de un registro en un rango de fechas de
	// negocio, reciente primero. limit <= 0 lista sin límite.
	ListByRecord(ctx context.Context, recordID string, from, to *time.Time, limit, offset int) ([]*entity.StockMovement, error)
}
