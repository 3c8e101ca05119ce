package repository

import (
	"context"

	"github.com/jhoicas/Almacen-api/internal/domain/entity"
)

// WarehouseRepository define el puerto de persistencia de bodegas.
type WarehouseRepository interface {
	Create(ctx context.Context, warehouse *entity.Warehouse) error
	GetByID(ctx context.Context, id string) (*entity.Warehouse, error)
	// GetDefault devuelve la bodega maestra usada como fuente de herencia
	// para tiendas sin override; nil si no hay ninguna marcada.
	GetDefault(ctx context.Context) (*entity.Warehouse, error)
	List(ctx context.Context) ([]*entity.Warehouse, error)
}
