package http

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/Almacen-api/internal/application/dto"
	"github.com/jhoicas/Almacen-api/internal/application/stock"
	"github.com/jhoicas/Almacen-api/internal/domain/entity"
)

// ReservationHandler maneja el ciclo de vida de reservas vía HTTP (protegido).
type ReservationHandler struct {
	uc    *stock.ReservationUseCase
	query *stock.QueryUseCase
}

// NewReservationHandler construye el handler.
func NewReservationHandler(uc *stock.ReservationUseCase, query *stock.QueryUseCase) *ReservationHandler {
	return &ReservationHandler{uc: uc, query: query}
}

// Create crea una reserva. POST /api/stock/reservations
func (h *ReservationHandler) Create(c *fiber.Ctx) error {
	var in dto.ReserveRequest
	if err := c.BodyParser(&in); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_BODY", Message: "cuerpo inválido"})
	}
	owner, err := ownerFromIDs(in.WarehouseID, in.ShopID)
	if err != nil {
		return writeError(c, err)
	}
	res, err := h.uc.Reserve(c.Context(), stock.ReserveInput{
		ProductID:     in.ProductID,
		VariantID:     in.VariantID,
		Owner:         owner,
		Type:          entity.ReservationType(in.Type),
		Quantity:      in.Quantity,
		Priority:      in.Priority,
		ExpiresAt:     in.ExpiresAt,
		AutoRelease:   in.AutoRelease,
		IsFirm:        in.IsFirm,
		Confirm:       in.Confirm,
		AllowPartial:  in.AllowPartial,
		ReferenceType: in.ReferenceType,
		ReferenceID:   in.ReferenceID,
		ActorID:       GetUserID(c),
	})
	if err != nil {
		return writeError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(dto.ReservationFromEntity(res))
}

// Get obtiene una reserva por ID o por número RSV-. GET /api/stock/reservations/:id
func (h *ReservationHandler) Get(c *fiber.Ctx) error {
	id := c.Params("id")
	var (
		res *entity.StockReservation
		err error
	)
	if strings.HasPrefix(id, "RSV-") {
		res, err = h.query.GetReservationByNumber(c.Context(), id)
	} else {
		res, err = h.query.GetReservation(c.Context(), id)
	}
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(dto.ReservationFromEntity(res))
}

// Confirm aprueba una reserva pending. POST /api/stock/reservations/:id/confirm
func (h *ReservationHandler) Confirm(c *fiber.Ctx) error {
	res, err := h.uc.Confirm(c.Context(), c.Params("id"))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(dto.ReservationFromEntity(res))
}

// Hold pausa una reserva. POST /api/stock/reservations/:id/hold
func (h *ReservationHandler) Hold(c *fiber.Ctx) error {
	res, err := h.uc.Hold(c.Context(), c.Params("id"))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(dto.ReservationFromEntity(res))
}

// Resume reactiva una reserva en pausa. POST /api/stock/reservations/:id/resume
func (h *ReservationHandler) Resume(c *fiber.Ctx) error {
	res, err := h.uc.Resume(c.Context(), c.Params("id"))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(dto.ReservationFromEntity(res))
}

// Fulfill cumple parcial o totalmente una reserva. POST /api/stock/reservations/:id/fulfill
func (h *ReservationHandler) Fulfill(c *fiber.Ctx) error {
	var in dto.FulfillRequest
	if err := c.BodyParser(&in); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_BODY", Message: "cuerpo inválido"})
	}
	res, err := h.uc.Fulfill(c.Context(), c.Params("id"), in.Quantity, GetUserID(c))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(dto.ReservationFromEntity(res))
}

// Release cancela una reserva devolviendo lo restante. POST /api/stock/reservations/:id/release
func (h *ReservationHandler) Release(c *fiber.Ctx) error {
	var in dto.ReleaseRequest
	if err := c.BodyParser(&in); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_BODY", Message: "cuerpo inválido"})
	}
	res, err := h.uc.Release(c.Context(), c.Params("id"), in.Reason, GetUserID(c))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(dto.ReservationFromEntity(res))
}

// PromotePending completa reservas pending de un registro a medida que hay
// disponibilidad. POST /api/stock/records/:id/promote
func (h *ReservationHandler) PromotePending(c *fiber.Ctx) error {
	promoted, err := h.uc.PromotePending(c.Context(), c.Params("id"), GetUserID(c))
	if err != nil {
		return writeError(c, err)
	}
	out := make([]dto.ReservationResponse, 0, len(promoted))
	for _, res := range promoted {
		out = append(out, dto.ReservationFromEntity(res))
	}
	return c.JSON(fiber.Map{"total": len(out), "promoted": out})
}
