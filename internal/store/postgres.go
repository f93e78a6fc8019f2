package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"
)

const (
	selectDataset = `SELECT body::text FROM datasets WHERE name = $1`
	seedDataset   = `INSERT INTO datasets (name, body) VALUES ($1, '{}') ON CONFLICT (name) DO NOTHING`
	upsertDataset = `INSERT INTO datasets (name, body, updated_at) VALUES ($1, $2::json, now())
ON CONFLICT (name) DO UPDATE SET body = EXCLUDED.body, updated_at = EXCLUDED.updated_at`
)

// PostgresBackend keeps datasets as rows of the datasets table.
type PostgresBackend struct {
	db *sqlx.DB
}

// NewPostgresBackend expects the datasets migration to be applied.
func NewPostgresBackend(db *sqlx.DB) *PostgresBackend {
	return &PostgresBackend{db: db}
}

func (b *PostgresBackend) Load(ctx context.Context, name Name) ([]byte, error) {
	var body string
	err := b.db.GetContext(ctx, &body, selectDataset, string(name))
	if errors.Is(err, sql.ErrNoRows) {
		if _, err := b.db.ExecContext(ctx, seedDataset, string(name)); err != nil {
			return nil, fmt.Errorf("seed %s: %w", name, err)
		}
		err = b.db.GetContext(ctx, &body, selectDataset, string(name))
	}
	if err != nil {
		return nil, fmt.Errorf("select %s: %w", name, err)
	}
	return []byte(body), nil
}

func (b *PostgresBackend) Save(ctx context.Context, name Name, data []byte) error {
	if _, err := b.db.ExecContext(ctx, upsertDataset, string(name), string(data)); err != nil {
		return fmt.Errorf("upsert %s: %w", name, err)
	}
	return nil
}

func (b *PostgresBackend) Close() error {
	return b.db.Close()
}
