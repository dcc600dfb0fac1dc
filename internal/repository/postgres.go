package repository

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	log "github.com/sirupsen/logrus"
)

// The json column type keeps the document text as written, so section order
// survives a round trip (jsonb would reorder keys).
const schema = `
CREATE TABLE IF NOT EXISTS crawl_snapshots (
	name       TEXT PRIMARY KEY,
	data       JSON NOT NULL,
	updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
)`

// EnsureSchema creates the snapshot table if it does not exist.
func EnsureSchema(ctx context.Context, db *pgxpool.Pool) error {
	if _, err := db.Exec(ctx, schema); err != nil {
		return fmt.Errorf("failed to create crawl_snapshots table: %w", err)
	}
	return nil
}

type postgresStore[T any] struct {
	db   *pgxpool.Pool
	name string
}

func NewPostgresStore[T any](db *pgxpool.Pool, name string) Store[T] {
	return &postgresStore[T]{
		db:   db,
		name: name,
	}
}

func (s *postgresStore[T]) Save(ctx context.Context, items []T) error {
	if items == nil {
		items = []T{}
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(items); err != nil {
		return fmt.Errorf("failed to encode snapshot %s: %w", s.name, err)
	}

	query := `
	INSERT INTO crawl_snapshots (name, data, updated_at)
	VALUES ($1, $2::json, now())
	ON CONFLICT (name)
	DO UPDATE SET data = EXCLUDED.data, updated_at = EXCLUDED.updated_at`
	if _, err := s.db.Exec(ctx, query, s.name, buf.String()); err != nil {
		return fmt.Errorf("failed to save snapshot %s: %w", s.name, err)
	}

	log.Infof("💾 Saved %d items to snapshot %s", len(items), s.name)
	return nil
}

func (s *postgresStore[T]) Load(ctx context.Context) ([]T, error) {
	var data string
	err := s.db.QueryRow(ctx, `SELECT data::text FROM crawl_snapshots WHERE name = $1`, s.name).Scan(&data)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return []T{}, nil
		}
		return nil, fmt.Errorf("failed to load snapshot %s: %w", s.name, err)
	}

	items := []T{}
	if err := json.Unmarshal([]byte(data), &items); err != nil {
		return nil, fmt.Errorf("failed to decode snapshot %s: %w", s.name, err)
	}
	return items, nil
}
