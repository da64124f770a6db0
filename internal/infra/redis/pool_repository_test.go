package redis

import (
	"context"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"whobible-live/internal/domain"
	"whobible-live/internal/infra/memory"
)

func TestPoolRepositoryCachesInRedis(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("run miniredis: %v", err)
	}
	defer mr.Close()

	loader := &countingLoader{
		PoolLoader: memory.NewStaticPoolLoader([]domain.Person{
			{Name: "Moses", Age: 120, NotableEvents: []string{"Parted the sea"}},
			{Name: "David", Age: 70, Occupation: "King"},
		}),
	}
	repo := NewPoolRepository(newClient(mr), loader, time.Minute)

	pool, err := repo.LoadPool(context.Background())
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(pool) != 2 {
		t.Fatalf("expected 2 people, got %d", len(pool))
	}
	if loader.calls != 1 {
		t.Fatalf("expected loader called once, got %d", loader.calls)
	}

	// Second load hits the Redis cache.
	if _, err := repo.LoadPool(context.Background()); err != nil {
		t.Fatalf("load 2: %v", err)
	}
	if loader.calls != 1 {
		t.Fatalf("expected cache hit, loader calls=%d", loader.calls)
	}
	if !mr.Exists("pool:people") {
		t.Fatal("expected cached pool key")
	}
}

type countingLoader struct {
	memory.PoolLoader
	calls int
}

func (l *countingLoader) LoadPool(ctx context.Context) ([]domain.Person, error) {
	l.calls++
	return l.PoolLoader.LoadPool(ctx)
}
