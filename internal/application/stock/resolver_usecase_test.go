package stock_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/Almacen-api/internal/application/stock"
	"github.com/jhoicas/Almacen-api/internal/domain"
	"github.com/jhoicas/Almacen-api/internal/domain/entity"
	"github.com/jhoicas/Almacen-api/pkg/logger"
)

// resolverFixture monta el resolver con una bodega por defecto y stock sembrado en ella.
func resolverFixture(t *testing.T, seedQty string) (*stock.ResolverUseCase, *memStore) {
	t.Helper()
	store := newMemStore()
	warehouses := newMemWarehouseRepo()
	require.NoError(t, warehouses.Create(context.Background(), &entity.Warehouse{
		ID:        "wh-main",
		Code:      "BOD-01",
		Name:      "Bodega Principal",
		IsDefault: true,
		CreatedAt: time.Now(),
	}))

	policy := stock.Policy{}
	log := logger.New(logger.Config{Env: "development", Level: "error"})
	resolver := stock.NewResolverUseCase(&memTxRunner{store: store}, warehouses, policy, log)

	if seedQty != "" {
		ledger := stock.NewLedgerUseCase(&memTxRunner{store: store}, nil, policy)
		_, err := ledger.ApplyMovement(context.Background(), entrada("prod-1", "wh-main", seedQty, "10"))
		require.NoError(t, err)
	}
	return resolver, store
}

func shopLogs(t *testing.T, store *memStore, shopID string) []*entity.StockInheritanceLog {
	t.Helper()
	logs, err := (&memLogRepo{s: store}).ListByShopProduct(context.Background(), shopID, "prod-1", 100, 0)
	require.NoError(t, err)
	return logs
}

// ──────────────────────────────────────────────────────────────────────────────
// Resolve — herencia y override
// ──────────────────────────────────────────────────────────────────────────────

func TestResolve_SinOverrideHeredaDeBodegaYLogueaUnaVez(t *testing.T) {
	resolver, store := resolverFixture(t, "40")
	ctx := context.Background()

	rec, err := resolver.Resolve(ctx, "prod-1", nil, "shop-1")
	require.NoError(t, err)
	assert.Equal(t, entity.OwnerKindWarehouse, rec.Owner.Kind, "sin override responde la bodega")
	assert.True(t, rec.Quantity.Equal(d("40")))

	logs := shopLogs(t, store, "shop-1")
	require.Len(t, logs, 1)
	assert.Equal(t, entity.InheritanceInherit, logs[0].Action)
	require.NotNil(t, logs[0].SourceWarehouseID)
	assert.Equal(t, "wh-main", *logs[0].SourceWarehouseID)

	// Resoluciones repetidas no acumulan entradas 'inherit'.
	_, err = resolver.Resolve(ctx, "prod-1", nil, "shop-1")
	require.NoError(t, err)
	assert.Len(t, shopLogs(t, store, "shop-1"), 1)
}

func TestResolve_ConOverridePrefiereLaTienda(t *testing.T) {
	resolver, _ := resolverFixture(t, "40")
	ctx := context.Background()

	_, err := resolver.Override(ctx, "prod-1", nil, "shop-1", d("7"), "tester")
	require.NoError(t, err)

	rec, err := resolver.Resolve(ctx, "prod-1", nil, "shop-1")
	require.NoError(t, err)
	assert.Equal(t, entity.OwnerKindShop, rec.Owner.Kind)
	assert.True(t, rec.Quantity.Equal(d("7")))
}

func TestResolve_SinRegistroEnNingunLado(t *testing.T) {
	resolver, _ := resolverFixture(t, "")
	_, err := resolver.Resolve(context.Background(), "prod-1", nil, "shop-1")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestResolve_EntradaVacia(t *testing.T) {
	resolver, _ := resolverFixture(t, "")
	_, err := resolver.Resolve(context.Background(), "", nil, "shop-1")
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
	_, err = resolver.Resolve(context.Background(), "prod-1", nil, "")
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

// ──────────────────────────────────────────────────────────────────────────────
// Override / Pull / Sync
// ──────────────────────────────────────────────────────────────────────────────

func TestOverride_CreaRegistroDeTiendaViaMovimientoSync(t *testing.T) {
	resolver, store := resolverFixture(t, "40")
	ctx := context.Background()

	rec, err := resolver.Override(ctx, "prod-1", nil, "shop-1", d("25"), "tester")
	require.NoError(t, err)
	assert.Equal(t, entity.OwnerKindShop, rec.Owner.Kind)
	assert.True(t, rec.Quantity.Equal(d("25")))

	// El delta completo quedó asentado como movimiento sync en el libro.
	movs, err := (&memMovementRepo{s: store}).ListByRecord(ctx, rec.ID, nil, nil, 100, 0)
	require.NoError(t, err)
	require.Len(t, movs, 1)
	assert.Equal(t, entity.MovementSync, movs[0].Type)
	assert.True(t, movs[0].QuantityBefore.IsZero())
	assert.True(t, movs[0].QuantityAfter.Equal(d("25")))

	logs := shopLogs(t, store, "shop-1")
	require.Len(t, logs, 1)
	assert.Equal(t, entity.InheritanceOverride, logs[0].Action)
	assert.True(t, logs[0].QuantityBefore.IsZero())
	assert.True(t, logs[0].QuantityAfter.Equal(d("25")))
	assert.Equal(t, "tester", logs[0].CreatedBy)
}

func TestOverride_SinCambioNoEmiteMovimientoPeroSiBitacora(t *testing.T) {
	resolver, store := resolverFixture(t, "40")
	ctx := context.Background()

	rec, err := resolver.Override(ctx, "prod-1", nil, "shop-1", d("25"), "tester")
	require.NoError(t, err)
	_, err = resolver.Override(ctx, "prod-1", nil, "shop-1", d("25"), "tester")
	require.NoError(t, err)

	movs, err := (&memMovementRepo{s: store}).ListByRecord(ctx, rec.ID, nil, nil, 100, 0)
	require.NoError(t, err)
	assert.Len(t, movs, 1, "el libro no admite movimientos de cambio cero")
	assert.Len(t, shopLogs(t, store, "shop-1"), 2, "la bitácora registra cada intento")
}

func TestPull_GuardaLaFuenteEnMetadata(t *testing.T) {
	resolver, store := resolverFixture(t, "")
	ctx := context.Background()

	rec, err := resolver.Pull(ctx, "prod-1", nil, "shop-1", d("12"), "shopify")
	require.NoError(t, err)
	assert.True(t, rec.Quantity.Equal(d("12")))

	logs := shopLogs(t, store, "shop-1")
	require.Len(t, logs, 1)
	assert.Equal(t, entity.InheritancePull, logs[0].Action)
	require.NotNil(t, logs[0].Metadata)
	assert.Equal(t, "shopify", logs[0].Metadata["source"])
}

func TestSyncFromWarehouse_CopiaLaCantidadDeLaBodega(t *testing.T) {
	resolver, store := resolverFixture(t, "40")
	ctx := context.Background()

	// La tienda arranca desalineada y el sync la iguala a la bodega.
	_, err := resolver.Override(ctx, "prod-1", nil, "shop-1", d("5"), "tester")
	require.NoError(t, err)

	rec, err := resolver.SyncFromWarehouse(ctx, "prod-1", nil, "shop-1", "tester")
	require.NoError(t, err)
	assert.True(t, rec.Quantity.Equal(d("40")))

	logs := shopLogs(t, store, "shop-1")
	require.Len(t, logs, 2)
	// ListByShopProduct devuelve lo más reciente primero.
	assert.Equal(t, entity.InheritanceSync, logs[0].Action)
	assert.True(t, logs[0].QuantityBefore.Equal(d("5")))
	assert.True(t, logs[0].QuantityAfter.Equal(d("40")))
	require.NotNil(t, logs[0].SourceWarehouseID)
	assert.Equal(t, "wh-main", *logs[0].SourceWarehouseID)
}

func TestSyncFromWarehouse_SinRegistroEnBodega(t *testing.T) {
	resolver, _ := resolverFixture(t, "")
	_, err := resolver.SyncFromWarehouse(context.Background(), "prod-1", nil, "shop-1", "tester")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}
