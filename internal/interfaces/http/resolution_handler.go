package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/Almacen-api/internal/application/dto"
	"github.com/jhoicas/Almacen-api/internal/application/stock"
)

// ResolutionHandler expone la resolución de stock por tienda (protegido).
type ResolutionHandler struct {
	uc    *stock.ResolverUseCase
	query *stock.QueryUseCase
}

// NewResolutionHandler construye el handler.
func NewResolutionHandler(uc *stock.ResolverUseCase, query *stock.QueryUseCase) *ResolutionHandler {
	return &ResolutionHandler{uc: uc, query: query}
}

func variantFromQuery(c *fiber.Ctx) *string {
	if v := c.Query("variant_id"); v != "" {
		return &v
	}
	return nil
}

// Resolve devuelve el registro efectivo para (producto, tienda).
// GET /api/shops/:shopId/products/:productId/stock
func (h *ResolutionHandler) Resolve(c *fiber.Ctx) error {
	rec, err := h.uc.Resolve(c.Context(), c.Params("productId"), variantFromQuery(c), c.Params("shopId"))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(dto.RecordFromEntity(rec))
}

// Override fija la cantidad del override de tienda.
// PUT /api/shops/:shopId/products/:productId/stock/override
func (h *ResolutionHandler) Override(c *fiber.Ctx) error {
	var in dto.OverrideRequest
	if err := c.BodyParser(&in); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_BODY", Message: "cuerpo inválido"})
	}
	rec, err := h.uc.Override(c.Context(), c.Params("productId"), variantFromQuery(c), c.Params("shopId"), in.Quantity, GetUserID(c))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(dto.RecordFromEntity(rec))
}

// Pull fija la cantidad de tienda desde un canal externo autoritativo.
// POST /api/shops/:shopId/products/:productId/stock/pull
func (h *ResolutionHandler) Pull(c *fiber.Ctx) error {
	var in dto.PullRequest
	if err := c.BodyParser(&in); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_BODY", Message: "cuerpo inválido"})
	}
	rec, err := h.uc.Pull(c.Context(), c.Params("productId"), variantFromQuery(c), c.Params("shopId"), in.Quantity, in.Source)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(dto.RecordFromEntity(rec))
}

// Sync copia la cantidad de la bodega por defecto hacia el override de tienda.
// POST /api/shops/:shopId/products/:productId/stock/sync
func (h *ResolutionHandler) Sync(c *fiber.Ctx) error {
	rec, err := h.uc.SyncFromWarehouse(c.Context(), c.Params("productId"), variantFromQuery(c), c.Params("shopId"), GetUserID(c))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(dto.RecordFromEntity(rec))
}

// Log lista la bitácora de resolución del par tienda+producto.
// GET /api/shops/:shopId/products/:productId/stock/log
func (h *ResolutionHandler) Log(c *fiber.Ctx) error {
	var page dto.PageRequest
	if err := c.QueryParser(&page); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_QUERY", Message: "query inválido"})
	}
	page.DefaultPage()
	list, err := h.query.ListInheritanceLog(c.Context(), c.Params("shopId"), c.Params("productId"), page.Limit, page.Offset)
	if err != nil {
		return writeError(c, err)
	}
	out := make([]dto.InheritanceLogDTO, 0, len(list))
	for _, l := range list {
		out = append(out, dto.InheritanceLogFromEntity(l))
	}
	return c.JSON(fiber.Map{"total": len(out), "entries": out})
}
