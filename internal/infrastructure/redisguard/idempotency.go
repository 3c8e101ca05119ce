package redisguard

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/jhoicas/Almacen-api/internal/application/stock"
)

const (
	keyPrefix = "stock:correlation:"
	keyTTL    = 24 * time.Hour
)

var _ stock.IdempotencyGuard = (*IdempotencyGuard)(nil)

// IdempotencyGuard atajo de idempotencia sobre Redis (SETNX con TTL). Es solo un
// filtro rápido frente a reintentos en ráfaga: la fuente de verdad sigue siendo el
// índice único de correlation_key en la base. Si Redis no responde dejamos pasar
// la petición y que la base resuelva.
type IdempotencyGuard struct {
	client *redis.Client
}

// NewIdempotencyGuard construye el guard sobre un cliente Redis ya conectado.
func NewIdempotencyGuard(client *redis.Client) *IdempotencyGuard {
	return &IdempotencyGuard{client: client}
}

// Acquire intenta marcar la clave de correlación. Devuelve false si ya estaba
// marcada (petición repetida en ventana de TTL).
func (g *IdempotencyGuard) Acquire(ctx context.Context, key string) (bool, error) {
	ok, err := g.client.SetNX(ctx, keyPrefix+key, 1, keyTTL).Result()
	if err != nil {
		return false, err
	}
	return ok, nil
}

// Release libera la marca cuando la transacción de fondo falló, para que el
// reintento legítimo no quede bloqueado hasta el TTL.
func (g *IdempotencyGuard) Release(ctx context.Context, key string) error {
	return g.client.Del(ctx, keyPrefix+key).Err()
}
