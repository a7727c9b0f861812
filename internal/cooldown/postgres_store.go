package cooldown

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/ignite/shopify-repricer/internal/domain"
)

// PostgresStore implements Store against the price_cooldowns table using
// upsert-by-(key, type). Expired rows are invisible to Active and are swept
// by DeleteExpired.
type PostgresStore struct {
	db *sql.DB
}

// NewPostgresStore creates a Postgres-backed cooldown store.
func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) Active(ctx context.Context, key string, typ domain.CooldownType) (bool, error) {
	var exists bool
	err := s.db.QueryRowContext(ctx, `
		SELECT EXISTS (
			SELECT 1 FROM price_cooldowns
			WHERE key = $1 AND type = $2 AND expires_at > NOW()
		)
	`, key, typ).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("cooldown lookup %s/%s: %w", typ, key, err)
	}
	return exists, nil
}

func (s *PostgresStore) Set(ctx context.Context, key string, typ domain.CooldownType, ttl time.Duration) error {
	expiresAt := time.Now().Add(ttl)
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO price_cooldowns (key, type, expires_at, created_at)
		VALUES ($1, $2, $3, NOW())
		ON CONFLICT (key, type) DO UPDATE
			SET expires_at = EXCLUDED.expires_at, created_at = NOW()
	`, key, typ, expiresAt)
	if err != nil {
		return fmt.Errorf("cooldown upsert %s/%s: %w", typ, key, err)
	}
	return nil
}

func (s *PostgresStore) Clear(ctx context.Context, key string, typ domain.CooldownType) error {
	_, err := s.db.ExecContext(ctx, `
		DELETE FROM price_cooldowns WHERE key = $1 AND type = $2
	`, key, typ)
	if err != nil {
		return fmt.Errorf("cooldown clear %s/%s: %w", typ, key, err)
	}
	return nil
}

func (s *PostgresStore) DeleteExpired(ctx context.Context) (int64, error) {
	res, err := s.db.ExecContext(ctx, `
		DELETE FROM price_cooldowns WHERE expires_at <= NOW()
	`)
	if err != nil {
		return 0, fmt.Errorf("cooldown sweep: %w", err)
	}
	return res.RowsAffected()
}
