package postgres

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v4/pgxpool"
	"whobible-live/internal/domain"
)

// PoolLoader reads the people pool from Postgres. Each person is one JSONB
// row in the people table.
type PoolLoader struct {
	pool *pgxpool.Pool
}

func NewPoolLoader(pool *pgxpool.Pool) *PoolLoader {
	return &PoolLoader{pool: pool}
}

func (l *PoolLoader) LoadPool(ctx context.Context) ([]domain.Person, error) {
	rows, err := l.pool.Query(ctx, `SELECT data FROM people ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("load people: %w", err)
	}
	defer rows.Close()

	var people []domain.Person
	for rows.Next() {
		var raw []byte
		if err := rows.Scan(&raw); err != nil {
			return nil, fmt.Errorf("scan person: %w", err)
		}
		var person domain.Person
		if err := json.Unmarshal(raw, &person); err != nil {
			return nil, fmt.Errorf("unmarshal person: %w", err)
		}
		people = append(people, person)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("load people: %w", err)
	}
	if len(people) == 0 {
		return nil, domain.ErrEmptyPool
	}
	return people, nil
}
