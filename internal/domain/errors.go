package domain

import "errors"

// Errores de dominio (sin dependencias externas).
var (
	ErrNotFound     = errors.New("recurso no encontrado")
	ErrInvalidInput = errors.New("entrada inválida")
	ErrDuplicate    = errors.New("recurso duplicado")

	// ErrInvalidMovement: delta cero o política de stock negativo violada.
	ErrInvalidMovement = errors.New("movimiento inválido")
	// ErrReservedExceedsQuantity: la cantidad reservada resultante excede |quantity|.
	ErrReservedExceedsQuantity = errors.New("la reserva excede la cantidad en stock")
	// ErrInsufficientStock: no hay disponibilidad para satisfacer la reserva.
	ErrInsufficientStock = errors.New("stock insuficiente")
	// ErrAmbiguousOwnership: el registro no tiene exactamente un dueño (bodega XOR tienda).
	ErrAmbiguousOwnership = errors.New("propiedad ambigua del registro de stock")
	// ErrDualOwnershipConflict: coexisten propietario bodega y tienda para la misma clave.
	ErrDualOwnershipConflict = errors.New("conflicto de propiedad dual bodega/tienda")
	// ErrStaleWrite: conflicto de escritura concurrente detectado; el caller puede reintentar con backoff.
	ErrStaleWrite = errors.New("escritura obsoleta, reintentar")
	// ErrReservationState: el estado actual de la reserva no permite la transición pedida.
	ErrReservationState = errors.New("estado de reserva no permite la operación")
)
