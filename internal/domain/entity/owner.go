package entity

import "github.com/jhoicas/Almacen-api/internal/domain"

// OwnerKind discrimina el dueño de un registro de stock: bodega (global) o tienda (override).
type OwnerKind string

const (
	OwnerKindWarehouse OwnerKind = "warehouse"
	OwnerKindShop      OwnerKind = "shop"
)

// Owner identifica al dueño de un StockRecord como unión etiquetada (bodega XOR tienda).
// Reemplaza el par de FKs anulables: los estados "ambos" o "ninguno" no son representables.
type Owner struct {
	Kind OwnerKind
	ID   string
}

// WarehouseOwner construye un dueño de tipo bodega.
func WarehouseOwner(warehouseID string) Owner {
	return Owner{Kind: OwnerKindWarehouse, ID: warehouseID}
}

// ShopOwner construye un dueño de tipo tienda.
func ShopOwner(shopID string) Owner {
	return Owner{Kind: OwnerKindShop, ID: shopID}
}

// Validate verifica que el dueño tenga tipo conocido e ID no vacío.
func (o Owner) Validate() error {
	if o.ID == "" {
		return domain.ErrAmbiguousOwnership
	}
	switch o.Kind {
	case OwnerKindWarehouse, OwnerKindShop:
		return nil
	}
	return domain.ErrAmbiguousOwnership
}

// IsWarehouse indica si el dueño es una bodega.
func (o Owner) IsWarehouse() bool { return o.Kind == OwnerKindWarehouse }

// IsShop indica si el dueño es una tienda.
func (o Owner) IsShop() bool { return o.Kind == OwnerKindShop }

// Columns descompone el dueño en el par (warehouse_id, shop_id) para persistencia.
// Exactamente uno de los dos es no-nulo.
func (o Owner) Columns() (warehouseID, shopID *string) {
	switch o.Kind {
	case OwnerKindWarehouse:
		return &o.ID, nil
	case OwnerKindShop:
		return nil, &o.ID
	}
	return nil, nil
}

// OwnerFromColumns reconstruye el dueño desde las columnas persistidas.
// Falla rápido con ErrDualOwnershipConflict si ambas están presentes (fila corrupta)
// y con ErrAmbiguousOwnership si ninguna lo está.
func OwnerFromColumns(warehouseID, shopID *string) (Owner, error) {
	switch {
	case warehouseID != nil && shopID != nil:
		return Owner{}, domain.ErrDualOwnershipConflict
	case warehouseID != nil:
		return WarehouseOwner(*warehouseID), nil
	case shopID != nil:
		return ShopOwner(*shopID), nil
	}
	return Owner{}, domain.ErrAmbiguousOwnership
}
