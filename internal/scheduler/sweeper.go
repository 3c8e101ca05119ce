package scheduler

import (
	"context"
	"time"

	"github.com/jhoicas/Almacen-api/internal/application/stock"
	"github.com/jhoicas/Almacen-api/pkg/logger"
)

// Sweeper barrido periódico de reservas vencidas. Cada pasada libera en lotes las
// reservas con auto_release cumplido; es seguro frente a reinicios porque el gestor
// re-verifica el vencimiento bajo lock.
type Sweeper struct {
	reservations *stock.ReservationUseCase
	interval     time.Duration
	batchSize    int
	log          *logger.Logger
}

// NewSweeper construye el barrido.
func NewSweeper(reservations *stock.ReservationUseCase, interval time.Duration, batchSize int, log *logger.Logger) *Sweeper {
	if interval <= 0 {
		interval = time.Minute
	}
	return &Sweeper{reservations: reservations, interval: interval, batchSize: batchSize, log: log}
}

// Run bloquea hasta que ctx se cancele, ejecutando una pasada por tick.
func (s *Sweeper) Run(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	s.log.Info().Dur("interval", s.interval).Msg("barrido de reservas iniciado")
	for {
		select {
		case <-ctx.Done():
			s.log.Info().Msg("barrido de reservas detenido")
			return
		case now := <-ticker.C:
			s.sweep(ctx, now)
		}
	}
}

func (s *Sweeper) sweep(ctx context.Context, now time.Time) {
	expired, err := s.reservations.ExpireDue(ctx, now, s.batchSize)
	if err != nil {
		// La pasada siguiente reintenta lo que quedó pendiente.
		s.log.Error().Err(err).Int("released", len(expired)).Msg("barrido de reservas con error")
		return
	}
	if len(expired) > 0 {
		s.log.Info().Int("released", len(expired)).Msg("reservas vencidas liberadas")
	}
}
