package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/jhoicas/Almacen-api/internal/application/stock"
	"github.com/jhoicas/Almacen-api/internal/domain"
	"github.com/jhoicas/Almacen-api/internal/domain/repository"
)

// Ensure TxRunner implements stock.TxRunner.
var _ stock.TxRunner = (*TxRunner)(nil)

// TxRunner ejecuta callbacks dentro de una transacción PostgreSQL con los cuatro
// repositorios del motor atados a la tx. Los fallos de serialización y deadlocks se
// mapean a ErrStaleWrite para que el caller reintente con backoff.
type TxRunner struct {
	pool *pgxpool.Pool
}

// NewTxRunner construye el runner con el pool.
func NewTxRunner(pool *pgxpool.Pool) *TxRunner {
	return &TxRunner{pool: pool}
}

// Run inicia una transacción, ejecuta fn con repos atados a la tx y hace Commit o Rollback.
func (r *TxRunner) Run(ctx context.Context, fn func(
	recordRepo repository.StockRecordRepository,
	movementRepo repository.StockMovementRepository,
	reservationRepo repository.StockReservationRepository,
	inheritanceRepo repository.InheritanceLogRepository,
) error) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	recordRepo := NewStockRecordRepository(tx)
	movementRepo := NewStockMovementRepository(tx)
	reservationRepo := NewStockReservationRepository(tx)
	inheritanceRepo := NewInheritanceLogRepository(tx)

	if err := fn(recordRepo, movementRepo, reservationRepo, inheritanceRepo); err != nil {
		if isConcurrencyFailure(err) {
			return fmt.Errorf("conflicto de escritura concurrente: %w", domain.ErrStaleWrite)
		}
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		if isConcurrencyFailure(err) {
			return fmt.Errorf("conflicto de escritura concurrente: %w", domain.ErrStaleWrite)
		}
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}
