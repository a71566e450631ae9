package storage

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const kvSchema = `
CREATE TABLE IF NOT EXISTS client_kv (
  namespace  TEXT        NOT NULL,
  key        TEXT        NOT NULL,
  value      TEXT        NOT NULL,
  updated_at TIMESTAMPTZ NOT NULL DEFAULT now(),
  PRIMARY KEY (namespace, key)
)`

// PostgresStore keeps one device's keys under a namespace in a shared table,
// for kiosk or multi-device setups where the disk is not durable.
type PostgresStore struct {
	pool      *pgxpool.Pool
	namespace string
}

func NewPostgresStore(pool *pgxpool.Pool, namespace string) *PostgresStore {
	if namespace == "" {
		namespace = "default"
	}
	return &PostgresStore{pool: pool, namespace: namespace}
}

// EnsureSchema creates the key-value table if it is missing. Idempotent.
func (p *PostgresStore) EnsureSchema(ctx context.Context) error {
	if p.pool == nil {
		return ErrClosed
	}
	if _, err := p.pool.Exec(ctx, kvSchema); err != nil {
		return fmt.Errorf("create client_kv: %w", err)
	}
	return nil
}

func (p *PostgresStore) Get(ctx context.Context, key string) (string, bool, error) {
	if p.pool == nil {
		return "", false, ErrClosed
	}
	var v string
	err := p.pool.QueryRow(ctx,
		`SELECT value FROM client_kv WHERE namespace=$1 AND key=$2`, p.namespace, key,
	).Scan(&v)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("get %s: %w", key, err)
	}
	return v, true, nil
}

func (p *PostgresStore) Set(ctx context.Context, key, value string) error {
	if p.pool == nil {
		return ErrClosed
	}
	_, err := p.pool.Exec(ctx, `
INSERT INTO client_kv (namespace, key, value, updated_at)
VALUES ($1,$2,$3,now())
ON CONFLICT (namespace, key) DO UPDATE SET
  value = EXCLUDED.value,
  updated_at = EXCLUDED.updated_at
`, p.namespace, key, value)
	if err != nil {
		return fmt.Errorf("set %s: %w", key, err)
	}
	return nil
}

func (p *PostgresStore) Remove(ctx context.Context, keys ...string) error {
	if p.pool == nil {
		return ErrClosed
	}
	if len(keys) == 0 {
		return nil
	}
	if _, err := p.pool.Exec(ctx,
		`DELETE FROM client_kv WHERE namespace=$1 AND key = ANY($2)`, p.namespace, keys,
	); err != nil {
		return fmt.Errorf("remove keys: %w", err)
	}
	return nil
}
