package http

import (
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/Almacen-api/internal/application/dto"
	"github.com/jhoicas/Almacen-api/internal/application/stock"
	"github.com/jhoicas/Almacen-api/internal/domain/entity"
)

// StockHandler maneja las peticiones HTTP del libro de stock (protegido).
type StockHandler struct {
	ledger *stock.LedgerUseCase
	query  *stock.QueryUseCase
}

// NewStockHandler construye el handler.
func NewStockHandler(ledger *stock.LedgerUseCase, query *stock.QueryUseCase) *StockHandler {
	return &StockHandler{ledger: ledger, query: query}
}

// ownerFromIDs arma el dueño excluyente a partir de los campos de la petición.
func ownerFromIDs(warehouseID, shopID string) (entity.Owner, error) {
	var wh, sh *string
	if warehouseID != "" {
		wh = &warehouseID
	}
	if shopID != "" {
		sh = &shopID
	}
	return entity.OwnerFromColumns(wh, sh)
}

// RegisterMovement aplica un movimiento al libro. POST /api/stock/movements
func (h *StockHandler) RegisterMovement(c *fiber.Ctx) error {
	var in dto.MovementRequest
	if err := c.BodyParser(&in); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_BODY", Message: "cuerpo inválido"})
	}

	input := stock.MovementInput{
		ProductID:       in.ProductID,
		VariantID:       in.VariantID,
		Type:            entity.MovementType(in.Type),
		Quantity:        in.Quantity,
		UnitCost:        in.UnitCost,
		ReferenceType:   in.ReferenceType,
		ReferenceID:     in.ReferenceID,
		CorrelationKey:  in.CorrelationKey,
		IsCorrection:    in.IsCorrection,
		FromWarehouseID: in.FromWarehouseID,
		ToWarehouseID:   in.ToWarehouseID,
		MovementDate:    in.MovementDate,
		ActorID:         GetUserID(c),
	}
	if input.Type != entity.MovementTransfer {
		owner, err := ownerFromIDs(in.WarehouseID, in.ShopID)
		if err != nil {
			return writeError(c, err)
		}
		input.Owner = owner
	}

	mov, err := h.ledger.ApplyMovement(c.Context(), input)
	if err != nil {
		return writeError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(dto.MovementFromEntity(mov))
}

// GetRecord obtiene un registro por clave. GET /api/stock/records
func (h *StockHandler) GetRecord(c *fiber.Ctx) error {
	owner, err := ownerFromIDs(c.Query("warehouse_id"), c.Query("shop_id"))
	if err != nil {
		return writeError(c, err)
	}
	var variantID *string
	if v := c.Query("variant_id"); v != "" {
		variantID = &v
	}
	rec, err := h.query.GetRecord(c.Context(), c.Query("product_id"), variantID, owner)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(dto.RecordFromEntity(rec))
}

// GetRecordByID obtiene un registro por ID. GET /api/stock/records/:id
func (h *StockHandler) GetRecordByID(c *fiber.Ctx) error {
	rec, err := h.query.GetRecordByID(c.Context(), c.Params("id"))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(dto.RecordFromEntity(rec))
}

// ListRecordsByProduct lista los registros de un producto. GET /api/stock/products/:productId/records
func (h *StockHandler) ListRecordsByProduct(c *fiber.Ctx) error {
	list, err := h.query.ListRecordsByProduct(c.Context(), c.Params("productId"))
	if err != nil {
		return writeError(c, err)
	}
	out := make([]dto.RecordResponse, 0, len(list))
	for _, rec := range list {
		out = append(out, dto.RecordFromEntity(rec))
	}
	return c.JSON(fiber.Map{"total": len(out), "records": out})
}

// UpdateDeliveryStatus avanza el flujo de entrega. PATCH /api/stock/records/:id/delivery-status
func (h *StockHandler) UpdateDeliveryStatus(c *fiber.Ctx) error {
	var in dto.DeliveryStatusRequest
	if err := c.BodyParser(&in); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_BODY", Message: "cuerpo inválido"})
	}
	rec, err := h.ledger.UpdateDeliveryStatus(c.Context(), c.Params("id"), entity.DeliveryStatus(in.Status))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(dto.RecordFromEntity(rec))
}

// ListMovements lista el libro de un registro. GET /api/stock/records/:id/movements
func (h *StockHandler) ListMovements(c *fiber.Ctx) error {
	var page dto.PageRequest
	if err := c.QueryParser(&page); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_QUERY", Message: "query inválido"})
	}
	page.DefaultPage()

	var from, to *time.Time
	if v := c.Query("from"); v != "" {
		t, err := time.Parse(time.RFC3339, v)
		if err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_QUERY", Message: "from inválido (RFC3339)"})
		}
		from = &t
	}
	if v := c.Query("to"); v != "" {
		t, err := time.Parse(time.RFC3339, v)
		if err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_QUERY", Message: "to inválido (RFC3339)"})
		}
		to = &t
	}

	list, err := h.query.ListMovements(c.Context(), c.Params("id"), from, to, page.Limit, page.Offset)
	if err != nil {
		return writeError(c, err)
	}
	out := make([]dto.MovementResponse, 0, len(list))
	for _, m := range list {
		out = append(out, dto.MovementFromEntity(m))
	}
	return c.JSON(fiber.Map{"total": len(out), "movements": out})
}

// ListMovementsByTransaction lista las patas de una transacción lógica.
// GET /api/stock/transactions/:id/movements
func (h *StockHandler) ListMovementsByTransaction(c *fiber.Ctx) error {
	list, err := h.query.ListMovementsByTransaction(c.Context(), c.Params("id"))
	if err != nil {
		return writeError(c, err)
	}
	out := make([]dto.MovementResponse, 0, len(list))
	for _, m := range list {
		out = append(out, dto.MovementFromEntity(m))
	}
	return c.JSON(fiber.Map{"total": len(out), "movements": out})
}

// GetReplenishmentList registros bajo el punto de reorden. GET /api/stock/replenishment
func (h *StockHandler) GetReplenishmentList(c *fiber.Ctx) error {
	list, err := h.query.ListReplenishment(c.Context(), c.Query("owner_id"))
	if err != nil {
		return writeError(c, err)
	}
	out := make([]dto.ReplenishmentItemDTO, 0, len(list))
	for _, it := range list {
		out = append(out, dto.ReplenishmentFromItem(it))
	}
	return c.JSON(fiber.Map{"total": len(out), "replenishments": out})
}
