package http

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/Almacen-api/internal/application/dto"
	"github.com/jhoicas/Almacen-api/internal/domain"
)

// writeError mapea los errores de dominio a estados HTTP. Todo error no clasificado
// sale como 500 con el mensaje original.
func writeError(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, domain.ErrInvalidInput), errors.Is(err, domain.ErrInvalidMovement):
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: err.Error()})
	case errors.Is(err, domain.ErrAmbiguousOwnership), errors.Is(err, domain.ErrDualOwnershipConflict):
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "OWNERSHIP", Message: err.Error()})
	case errors.Is(err, domain.ErrNotFound):
		return c.Status(fiber.StatusNotFound).JSON(dto.ErrorResponse{Code: "NOT_FOUND", Message: err.Error()})
	case errors.Is(err, domain.ErrDuplicate):
		return c.Status(fiber.StatusConflict).JSON(dto.ErrorResponse{Code: "DUPLICATE", Message: err.Error()})
	case errors.Is(err, domain.ErrInsufficientStock):
		return c.Status(fiber.StatusConflict).JSON(dto.ErrorResponse{Code: "INSUFFICIENT_STOCK", Message: err.Error()})
	case errors.Is(err, domain.ErrReservedExceedsQuantity):
		return c.Status(fiber.StatusConflict).JSON(dto.ErrorResponse{Code: "RESERVED_EXCEEDS_QUANTITY", Message: err.Error()})
	case errors.Is(err, domain.ErrReservationState):
		return c.Status(fiber.StatusConflict).JSON(dto.ErrorResponse{Code: "RESERVATION_STATE", Message: err.Error()})
	case errors.Is(err, domain.ErrStaleWrite):
		// El cliente puede reintentar: la transacción perdió la carrera.
		return c.Status(fiber.StatusConflict).JSON(dto.ErrorResponse{Code: "STALE_WRITE", Message: err.Error()})
	default:
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{Code: "INTERNAL", Message: err.Error()})
	}
}
