package stock

import (
	"context"

	"github.com/jhoicas/Almacen-api/internal/domain/repository"
)

// TxRunner ejecuta una función dentro de una transacción de BD, pasando repositorios
// atados a esa tx. Garantiza atomicidad para el motor de stock: movimiento, registro,
// reserva y bitácora se escriben en la misma unidad o en ninguna.
type TxRunner interface {
	Run(ctx context.Context, fn func(
		recordRepo repository.StockRecordRepository,
		movementRepo repository.StockMovementRepository,
		reservationRepo repository.StockReservationRepository,
		inheritanceRepo repository.InheritanceLogRepository,
	) error) error
}

// IdempotencyGuard atajo rápido (SetNX) para claves de correlación. Es solo un fast
// path: la fuente de verdad es el índice único de correlation_key en el libro.
type IdempotencyGuard interface {
	Acquire(ctx context.Context, key string) (bool, error)
	Release(ctx context.Context, key string) error
}

// Policy política de stock configurable del motor.
type Policy struct {
	// AllowNegativeDefault aplica a registros creados implícitamente por el libro.
	// Cada registro puede sobreescribirla con su propio flag.
	AllowNegativeDefault bool
}
