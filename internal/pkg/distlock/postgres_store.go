package distlock

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/ignite/shopify-repricer/internal/domain"
)

// PostgresStore implements Store against the processing_locks table. The
// uniqueness constraint on (key, type) provides create-or-fail semantics;
// an expired row is reclaimed by the conditional ON CONFLICT update. A
// losing conditional update affects zero rows and is reported as "not
// acquired", never as an error.
type PostgresStore struct {
	db *sql.DB
}

// NewPostgresStore creates a Postgres-backed lock store.
func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) TryAcquire(ctx context.Context, key string, typ domain.LockType, owner string, ttl time.Duration) (bool, error) {
	expiresAt := time.Now().Add(ttl)
	res, err := s.db.ExecContext(ctx, `
		INSERT INTO processing_locks (key, type, owner, expires_at, created_at)
		VALUES ($1, $2, $3, $4, NOW())
		ON CONFLICT (key, type) DO UPDATE
			SET owner = EXCLUDED.owner,
			    expires_at = EXCLUDED.expires_at,
			    created_at = NOW()
			WHERE processing_locks.expires_at <= NOW()
	`, key, typ, owner, expiresAt)
	if err != nil {
		return false, fmt.Errorf("acquire lock %s/%s: %w", typ, key, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("acquire lock %s/%s: %w", typ, key, err)
	}
	return n > 0, nil
}

func (s *PostgresStore) Release(ctx context.Context, key string, typ domain.LockType, owner string) error {
	_, err := s.db.ExecContext(ctx, `
		DELETE FROM processing_locks
		WHERE key = $1 AND type = $2 AND owner = $3
	`, key, typ, owner)
	if err != nil {
		return fmt.Errorf("release lock %s/%s: %w", typ, key, err)
	}
	return nil
}
