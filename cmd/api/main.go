package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/redis/go-redis/v9"

	"github.com/jhoicas/Almacen-api/internal/application/stock"
	"github.com/jhoicas/Almacen-api/internal/infrastructure/postgres"
	"github.com/jhoicas/Almacen-api/internal/infrastructure/redisguard"
	httpRouter "github.com/jhoicas/Almacen-api/internal/interfaces/http"
	"github.com/jhoicas/Almacen-api/internal/scheduler"
	"github.com/jhoicas/Almacen-api/pkg/config"
	"github.com/jhoicas/Almacen-api/pkg/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("cargar configuración: " + err.Error())
	}

	log := logger.New(logger.Config{
		Env:   cfg.App.Env,
		Level: "info",
	})
	log.Info().
		Str("env", cfg.App.Env).
		Str("app", cfg.App.Name).
		Msg("iniciando aplicación")

	ctx := context.Background()
	pool, err := postgres.NewPool(ctx, cfg.DB)
	if err != nil {
		log.Fatal().Err(err).Msg("conexión a PostgreSQL")
	}
	defer pool.Close()

	// Guard de idempotencia opcional: sin Redis, el índice único de correlation_key
	// en la base sigue garantizando la semántica.
	var idem stock.IdempotencyGuard
	if cfg.Redis.Enabled() {
		rdb := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err := rdb.Ping(ctx).Err(); err != nil {
			log.Fatal().Err(err).Msg("conexión a Redis")
		}
		defer rdb.Close()
		idem = redisguard.NewIdempotencyGuard(rdb)
		log.Info().Str("addr", cfg.Redis.Addr).Msg("guard de idempotencia Redis activo")
	}

	policy := stock.Policy{AllowNegativeDefault: cfg.Stock.AllowNegativeDefault}
	txRunner := postgres.NewTxRunner(pool)
	warehouseRepo := postgres.NewWarehouseRepository(pool)

	ledgerUC := stock.NewLedgerUseCase(txRunner, idem, policy)
	reservationUC := stock.NewReservationUseCase(txRunner, policy)
	resolverUC := stock.NewResolverUseCase(txRunner, warehouseRepo, policy, log)
	queryUC := stock.NewQueryUseCase(
		postgres.NewStockRecordRepository(pool),
		postgres.NewStockMovementRepository(pool),
		postgres.NewStockReservationRepository(pool),
		postgres.NewInheritanceLogRepository(pool),
	)
	warehouseUC := stock.NewWarehouseUseCase(warehouseRepo)

	// Barrido de reservas vencidas en segundo plano.
	sweepCtx, stopSweep := context.WithCancel(ctx)
	sweeper := scheduler.NewSweeper(reservationUC, cfg.Stock.SweepInterval, cfg.Stock.SweepBatchSize, log)
	go sweeper.Run(sweepCtx)

	app := fiber.New(fiber.Config{
		AppName:      cfg.App.Name,
		ReadTimeout:  time.Second * 10,
		WriteTimeout: time.Second * 10,
		IdleTimeout:  time.Second * 60,
	})
	app.Use(recover.New())

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok", "service": cfg.App.Name})
	})

	httpRouter.Router(app, httpRouter.RouterDeps{
		Ledger:       ledgerUC,
		Reservations: reservationUC,
		Resolver:     resolverUC,
		Query:        queryUC,
		WarehouseUC:  warehouseUC,
		JWTSecret:    cfg.JWT.Secret,
	})

	go func() {
		if err := app.Listen(cfg.HTTP.Addr()); err != nil {
			log.Error().Err(err).Msg("servidor HTTP finalizado")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("señal de apagado recibida, cerrando servidor...")
	stopSweep()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("apagado del servidor")
	}

	log.Info().Msg("aplicación detenida")
}
