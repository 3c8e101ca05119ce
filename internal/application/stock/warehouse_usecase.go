package stock

import (
	"context"
	"strings"
	"time"

	"github.com/jhoicas/Almacen-api/internal/domain"
	"github.com/jhoicas/Almacen-api/internal/domain/entity"
	"github.com/jhoicas/Almacen-api/internal/domain/repository"
)

// WarehouseUseCase CRUD mínimo de bodegas. La bodega marcada como default es la
// fuente de herencia para el resolver de tiendas.
type WarehouseUseCase struct {
	warehouses repository.WarehouseRepository
}

// NewWarehouseUseCase construye el caso de uso.
func NewWarehouseUseCase(warehouses repository.WarehouseRepository) *WarehouseUseCase {
	return &WarehouseUseCase{warehouses: warehouses}
}

// Create valida y persiste una bodega nueva.
func (uc *WarehouseUseCase) Create(ctx context.Context, code, name, address string, isDefault bool) (*entity.Warehouse, error) {
	code = strings.TrimSpace(code)
	name = strings.TrimSpace(name)
	if code == "" || name == "" {
		return nil, domain.ErrInvalidInput
	}
	now := time.Now()
	w := &entity.Warehouse{
		Code:      code,
		Name:      name,
		Address:   address,
		IsDefault: isDefault,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := uc.warehouses.Create(ctx, w); err != nil {
		return nil, err
	}
	return w, nil
}

// GetByID obtiene una bodega; ErrNotFound si no existe.
func (uc *WarehouseUseCase) GetByID(ctx context.Context, id string) (*entity.Warehouse, error) {
	w, err := uc.warehouses.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if w == nil {
		return nil, domain.ErrNotFound
	}
	return w, nil
}

// List lista todas las bodegas.
func (uc *WarehouseUseCase) List(ctx context.Context) ([]*entity.Warehouse, error) {
	return uc.warehouses.List(ctx)
}
