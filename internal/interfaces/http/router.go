package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/Almacen-api/internal/application/stock"
)

// RouterDeps dependencias para el router.
type RouterDeps struct {
	Ledger       *stock.LedgerUseCase
	Reservations *stock.ReservationUseCase
	Resolver     *stock.ResolverUseCase
	Query        *stock.QueryUseCase
	WarehouseUC  *stock.WarehouseUseCase
	JWTSecret    string
}

// Router registra las rutas de la API.
func Router(app *fiber.App, deps RouterDeps) {
	api := app.Group("/api")

	// Rutas protegidas (requieren Bearer Token)
	protected := api.Group("/", AuthMiddleware(deps.JWTSecret))

	// Warehouses (protegido)
	warehouses := protected.Group("/warehouses")
	warehouseHandler := NewWarehouseHandler(deps.WarehouseUC)
	warehouses.Post("/", warehouseHandler.Create)
	warehouses.Get("/", warehouseHandler.List)
	warehouses.Get("/:id", warehouseHandler.GetByID)

	// Libro de stock (protegido)
	stockGroup := protected.Group("/stock")
	stockHandler := NewStockHandler(deps.Ledger, deps.Query)
	// Las escrituras del libro quedan restringidas a roles operativos.
	canWrite := RequireRole("admin", "almacenista")
	stockGroup.Post("/movements", canWrite, stockHandler.RegisterMovement)
	stockGroup.Get("/records", stockHandler.GetRecord)
	stockGroup.Get("/records/:id", stockHandler.GetRecordByID)
	stockGroup.Patch("/records/:id/delivery-status", canWrite, stockHandler.UpdateDeliveryStatus)
	stockGroup.Get("/records/:id/movements", stockHandler.ListMovements)
	stockGroup.Get("/products/:productId/records", stockHandler.ListRecordsByProduct)
	stockGroup.Get("/transactions/:id/movements", stockHandler.ListMovementsByTransaction)
	stockGroup.Get("/replenishment", stockHandler.GetReplenishmentList)

	// Reservas (protegido)
	reservationHandler := NewReservationHandler(deps.Reservations, deps.Query)
	stockGroup.Post("/reservations", reservationHandler.Create)
	stockGroup.Get("/reservations/:id", reservationHandler.Get)
	stockGroup.Post("/reservations/:id/confirm", reservationHandler.Confirm)
	stockGroup.Post("/reservations/:id/hold", reservationHandler.Hold)
	stockGroup.Post("/reservations/:id/resume", reservationHandler.Resume)
	stockGroup.Post("/reservations/:id/fulfill", reservationHandler.Fulfill)
	stockGroup.Post("/reservations/:id/release", reservationHandler.Release)
	stockGroup.Post("/records/:id/promote", reservationHandler.PromotePending)

	// Resolución por tienda (protegido)
	resolutionHandler := NewResolutionHandler(deps.Resolver, deps.Query)
	shopStock := protected.Group("/shops/:shopId/products/:productId/stock")
	shopStock.Get("/", resolutionHandler.Resolve)
	shopStock.Put("/override", canWrite, resolutionHandler.Override)
	shopStock.Post("/pull", canWrite, resolutionHandler.Pull)
	shopStock.Post("/sync", canWrite, resolutionHandler.Sync)
	shopStock.Get("/log", resolutionHandler.Log)
}
