package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/jhoicas/stockledger-api/internal/application/inventory"
	"github.com/jhoicas/stockledger-api/internal/domain/entity"
)

var _ inventory.CriticalCache = (*CriticalCache)(nil)

const versionKey = "stockledger:critical:version"

// CriticalCache caché de lectura de ítems en estado LOW/CRITICAL.
// Las claves llevan la versión vigente; Invalidate la incrementa y las anteriores expiran por TTL.
type CriticalCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewCriticalCache construye la caché. Un client nil desactiva la caché (siempre llama al loader).
func NewCriticalCache(client *redis.Client, ttl time.Duration) *CriticalCache {
	if ttl <= 0 {
		ttl = 30 * time.Second
	}
	return &CriticalCache{client: client, ttl: ttl}
}

func (c *CriticalCache) version(ctx context.Context) (int64, error) {
	ver, err := c.client.Get(ctx, versionKey).Int64()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	return ver, err
}

// FetchCritical devuelve la lista cacheada bajo key o la carga con loader y la guarda.
func (c *CriticalCache) FetchCritical(
	ctx context.Context,
	key string,
	loader func(context.Context) ([]*entity.StockItem, error),
) ([]*entity.StockItem, error) {
	if c == nil || c.client == nil {
		return loader(ctx)
	}
	ver, err := c.version(ctx)
	if err != nil {
		return nil, fmt.Errorf("critical cache version: %w", err)
	}
	fullKey := fmt.Sprintf("%s:v%d", key, ver)

	payload, err := c.client.Get(ctx, fullKey).Bytes()
	if err == nil {
		var items []*entity.StockItem
		if err := json.Unmarshal(payload, &items); err == nil {
			return items, nil
		}
	} else if !errors.Is(err, redis.Nil) {
		return nil, fmt.Errorf("critical cache get: %w", err)
	}

	items, err := loader(ctx)
	if err != nil {
		return nil, err
	}
	if items == nil {
		items = []*entity.StockItem{}
	}
	raw, err := json.Marshal(items)
	if err != nil {
		return nil, err
	}
	if err := c.client.Set(ctx, fullKey, raw, c.ttl).Err(); err != nil {
		return nil, fmt.Errorf("critical cache set: %w", err)
	}
	return items, nil
}

// Invalidate incrementa la versión; toda clave anterior deja de leerse.
func (c *CriticalCache) Invalidate(ctx context.Context) error {
	if c == nil || c.client == nil {
		return nil
	}
	return c.client.Incr(ctx, versionKey).Err()
}
