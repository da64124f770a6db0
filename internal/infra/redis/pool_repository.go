package redis

import (
	"context"
	"encoding/json"
	"math/rand"
	"time"

	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/singleflight"
	"whobible-live/internal/domain"
	"whobible-live/internal/infra/memory"
)

const poolKey = "pool:people"

// PoolRepository caches the serialized people pool in Redis and falls back
// to a loader on cache miss, collapsing concurrent misses with singleflight.
type PoolRepository struct {
	client *redis.Client
	loader memory.PoolLoader
	ttl    time.Duration
	sf     singleflight.Group
	rnd    *rand.Rand
}

func NewPoolRepository(client *redis.Client, loader memory.PoolLoader, ttl time.Duration) *PoolRepository {
	return &PoolRepository{
		client: client,
		loader: loader,
		ttl:    ttl,
		rnd:    rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

func (r *PoolRepository) LoadPool(ctx context.Context) ([]domain.Person, error) {
	if pool, ok := r.fromCache(ctx); ok {
		return pool, nil
	}

	result, err, _ := r.sf.Do(poolKey, func() (interface{}, error) {
		// Re-check in case another goroutine filled the cache.
		if pool, ok := r.fromCache(ctx); ok {
			return pool, nil
		}

		pool, err := r.loader.LoadPool(ctx)
		if err != nil {
			return nil, err
		}

		if data, err := json.Marshal(pool); err == nil {
			_ = r.client.Set(ctx, poolKey, data, r.ttlWithJitter()).Err()
		}
		return pool, nil
	})
	if err != nil {
		return nil, err
	}
	return result.([]domain.Person), nil
}

func (r *PoolRepository) fromCache(ctx context.Context) ([]domain.Person, bool) {
	data, err := r.client.Get(ctx, poolKey).Bytes()
	if err != nil || len(data) == 0 {
		return nil, false
	}
	var pool []domain.Person
	if err := json.Unmarshal(data, &pool); err != nil {
		return nil, false
	}
	return pool, len(pool) > 0
}

func (r *PoolRepository) ttlWithJitter() time.Duration {
	if r.ttl <= 0 {
		return 0
	}
	jitterMax := int64(r.ttl) / 10
	return r.ttl + time.Duration(r.rnd.Int63n(jitterMax+1))
}
