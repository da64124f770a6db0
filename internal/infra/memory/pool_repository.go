package memory

import (
	"context"
	"math/rand"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"
	"whobible-live/internal/domain"
)

// PoolLoader fetches the people pool from a backing store (e.g., Postgres).
type PoolLoader interface {
	LoadPool(ctx context.Context) ([]domain.Person, error)
}

// PoolRepository caches the people pool with a TTL so starting a game does
// not hit the backing store every time.
type PoolRepository struct {
	loader PoolLoader
	ttl    time.Duration
	clock  func() time.Time
	sf     singleflight.Group
	rnd    *rand.Rand

	mu        sync.RWMutex
	cached    []domain.Person
	expiresAt time.Time
}

func NewPoolRepository(loader PoolLoader, ttl time.Duration) *PoolRepository {
	return &PoolRepository{
		loader: loader,
		ttl:    ttl,
		clock:  time.Now,
		rnd:    rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

func (r *PoolRepository) LoadPool(ctx context.Context) ([]domain.Person, error) {
	now := r.clock()

	r.mu.RLock()
	if r.cached != nil && r.expiresAt.After(now) {
		pool := r.cached
		r.mu.RUnlock()
		return pool, nil
	}
	r.mu.RUnlock()

	result, err, _ := r.sf.Do("pool", func() (interface{}, error) {
		now := r.clock()
		r.mu.RLock()
		if r.cached != nil && r.expiresAt.After(now) {
			pool := r.cached
			r.mu.RUnlock()
			return pool, nil
		}
		r.mu.RUnlock()

		pool, err := r.loader.LoadPool(ctx)
		if err != nil {
			return nil, err
		}

		r.mu.Lock()
		r.cached = pool
		r.expiresAt = now.Add(r.ttlWithJitter())
		r.mu.Unlock()
		return pool, nil
	})
	if err != nil {
		return nil, err
	}
	return result.([]domain.Person), nil
}

// StaticPoolLoader serves a fixed slice (useful for tests and demos).
type StaticPoolLoader struct {
	pool []domain.Person
}

func NewStaticPoolLoader(pool []domain.Person) *StaticPoolLoader {
	return &StaticPoolLoader{pool: pool}
}

func (l *StaticPoolLoader) LoadPool(_ context.Context) ([]domain.Person, error) {
	if len(l.pool) == 0 {
		return nil, domain.ErrEmptyPool
	}
	return l.pool, nil
}

func (r *PoolRepository) ttlWithJitter() time.Duration {
	if r.ttl <= 0 {
		return 0
	}
	// up to 10% jitter to spread expirations
	jitterMax := int64(r.ttl) / 10
	return r.ttl + time.Duration(r.rnd.Int63n(jitterMax+1))
}
