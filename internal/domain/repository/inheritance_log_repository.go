package repository

import (
	"context"

	"github.com/jhoicas/Almacen-api/internal/domain/entity"
)

// InheritanceLogRepository define el puerto de la bitácora de resolución (append-only).
type InheritanceLogRepository interface {
	Create(ctx context.Context, log *entity.StockInheritanceLog) error
	// HasInheritEntry indica si ya se registró el primer fallback de herencia
	// para el par (producto, variante, tienda).
	HasInheritEntry(ctx context.Context, productID string, variantID *string, shopID string) (bool, error)
	// ListByShopProduct lista la bitácora del par tienda+producto, reciente
	// primero. limit <= 0 lista sin límite.
	ListByShopProduct(ctx context.Context, shopID, productID string, limit, offset int) ([]*entity.StockInheritanceLog, error)
}
