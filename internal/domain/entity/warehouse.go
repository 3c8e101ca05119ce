package entity

import "time"

// Warehouse representa una bodega física donde se almacena inventario (multi-bodega).
// La bodega por defecto (IsDefault) es la fuente de herencia para las tiendas sin override.
type Warehouse struct {
	ID        string
	Code      string
	Name      string
	Address   string
	IsDefault bool
	CreatedAt time.Time
	UpdatedAt time.Time
}
