package entity_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/Almacen-api/internal/domain"
	"github.com/jhoicas/Almacen-api/internal/domain/entity"
)

// ──────────────────────────────────────────────────────────────────────────────
// Owner — unión etiquetada bodega XOR tienda
// ──────────────────────────────────────────────────────────────────────────────

func TestOwner_WarehouseValido(t *testing.T) {
	o := entity.WarehouseOwner("wh-1")
	require.NoError(t, o.Validate())
	assert.True(t, o.IsWarehouse())
	assert.False(t, o.IsShop())

	wh, sh := o.Columns()
	require.NotNil(t, wh)
	assert.Equal(t, "wh-1", *wh)
	assert.Nil(t, sh, "un dueño bodega no debe producir shop_id")
}

func TestOwner_ShopValido(t *testing.T) {
	o := entity.ShopOwner("shop-1")
	require.NoError(t, o.Validate())
	assert.True(t, o.IsShop())

	wh, sh := o.Columns()
	assert.Nil(t, wh)
	require.NotNil(t, sh)
	assert.Equal(t, "shop-1", *sh)
}

func TestOwner_SinID_EsAmbiguo(t *testing.T) {
	assert.ErrorIs(t, entity.WarehouseOwner("").Validate(), domain.ErrAmbiguousOwnership)
	assert.ErrorIs(t, entity.Owner{}.Validate(), domain.ErrAmbiguousOwnership)
}

func TestOwnerFromColumns_RoundTrip(t *testing.T) {
	wh := "wh-9"
	o, err := entity.OwnerFromColumns(&wh, nil)
	require.NoError(t, err)
	assert.Equal(t, entity.WarehouseOwner("wh-9"), o)

	sh := "shop-9"
	o, err = entity.OwnerFromColumns(nil, &sh)
	require.NoError(t, err)
	assert.Equal(t, entity.ShopOwner("shop-9"), o)
}

// Una fila con ambos dueños es estructuralmente corrupta: debe fallar rápido,
// nunca elegir uno en silencio.
func TestOwnerFromColumns_AmbosDuenos_Conflicto(t *testing.T) {
	wh, sh := "wh-1", "shop-1"
	_, err := entity.OwnerFromColumns(&wh, &sh)
	assert.ErrorIs(t, err, domain.ErrDualOwnershipConflict)
}

func TestOwnerFromColumns_NingunDueno_Ambiguo(t *testing.T) {
	_, err := entity.OwnerFromColumns(nil, nil)
	assert.ErrorIs(t, err, domain.ErrAmbiguousOwnership)
}
