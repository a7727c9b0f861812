package worker

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/ignite/shopify-repricer/internal/config"
)

// =============================================================================
// DATA CLEANUP WORKER — Removes Expired Locks, Cooldowns & Aged Run History
// =============================================================================
// Locks and cooldowns in the Postgres fallback store expire by timestamp but
// nothing deletes the rows; processing run summaries and price change entries
// accumulate one row per webhook. Without periodic cleanup these tables grow
// unbounded.
//
// Retention policies:
//   - Expired processing locks:        immediately once past expires_at
//   - Expired price cooldowns:         immediately once past expires_at
//   - Processing runs:                 configurable, default 30 days
//   - Price changes:                   90 days
//
// Deletes run in batches of 10 000 rows to avoid long-running transactions
// that could lock tables and block webhook traffic.

const (
	// cleanupBatchSize limits each DELETE to avoid table-level locks.
	cleanupBatchSize = 10000

	priceChangeRetentionDays = 90
)

// DataCleanupWorker periodically removes expired and aged rows.
type DataCleanupWorker struct {
	db           *sql.DB
	interval     time.Duration
	runRetention int // days
}

// NewDataCleanupWorker creates a cleanup worker from config.
func NewDataCleanupWorker(db *sql.DB, cfg config.CleanupConfig) *DataCleanupWorker {
	return &DataCleanupWorker{
		db:           db,
		interval:     cfg.Interval(),
		runRetention: cfg.RunRetentionDays,
	}
}

// Start begins the cleanup loop. It blocks until ctx is cancelled.
func (dc *DataCleanupWorker) Start(ctx context.Context) {
	log.Printf("[DataCleanup] Starting (interval=%s, batch_size=%d)", dc.interval, cleanupBatchSize)

	// Run once immediately on start
	dc.cleanup(ctx)

	ticker := time.NewTicker(dc.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Println("[DataCleanup] Stopping")
			return
		case <-ticker.C:
			dc.cleanup(ctx)
		}
	}
}

func (dc *DataCleanupWorker) cleanup(ctx context.Context) {
	start := time.Now()

	dc.cleanupExpiredLocks(ctx)
	dc.cleanupExpiredCooldowns(ctx)
	dc.cleanupProcessingRuns(ctx)
	dc.cleanupPriceChanges(ctx)

	log.Printf("[DataCleanup] Cleanup cycle completed in %s", time.Since(start).Round(time.Millisecond))
}

func (dc *DataCleanupWorker) cleanupExpiredLocks(ctx context.Context) {
	total := dc.batchDelete(ctx, "processing_locks", `
		DELETE FROM processing_locks
		WHERE (key, type) IN (
			SELECT key, type FROM processing_locks
			WHERE expires_at <= NOW()
			LIMIT $1
		)
	`)
	if total > 0 {
		log.Printf("[DataCleanup] Removed %d expired processing locks", total)
	}
}

func (dc *DataCleanupWorker) cleanupExpiredCooldowns(ctx context.Context) {
	total := dc.batchDelete(ctx, "price_cooldowns", `
		DELETE FROM price_cooldowns
		WHERE (key, type) IN (
			SELECT key, type FROM price_cooldowns
			WHERE expires_at <= NOW()
			LIMIT $1
		)
	`)
	if total > 0 {
		log.Printf("[DataCleanup] Removed %d expired cooldowns", total)
	}
}

func (dc *DataCleanupWorker) cleanupProcessingRuns(ctx context.Context) {
	total := dc.batchDelete(ctx, "processing_runs", fmt.Sprintf(`
		DELETE FROM processing_runs
		WHERE id IN (
			SELECT id FROM processing_runs
			WHERE created_at < NOW() - INTERVAL '%d days'
			LIMIT $1
		)
	`, dc.runRetention))
	if total > 0 {
		log.Printf("[DataCleanup] Removed %d processing runs older than %d days", total, dc.runRetention)
	}
}

func (dc *DataCleanupWorker) cleanupPriceChanges(ctx context.Context) {
	total := dc.batchDelete(ctx, "price_changes", fmt.Sprintf(`
		DELETE FROM price_changes
		WHERE id IN (
			SELECT id FROM price_changes
			WHERE created_at < NOW() - INTERVAL '%d days'
			LIMIT $1
		)
	`, priceChangeRetentionDays))
	if total > 0 {
		log.Printf("[DataCleanup] Removed %d price changes older than %d days", total, priceChangeRetentionDays)
	}
}

// batchDelete runs the given DELETE statement in a loop, passing
// cleanupBatchSize as $1, until zero rows are affected. Returns the
// cumulative number of deleted rows.
//
// If the target table does not exist (migrations haven't run yet), it logs
// once and returns 0.
func (dc *DataCleanupWorker) batchDelete(ctx context.Context, table, query string) int64 {
	var totalDeleted int64

	for {
		if ctx.Err() != nil {
			return totalDeleted
		}

		queryCtx, cancel := context.WithTimeout(ctx, 60*time.Second)
		res, err := dc.db.ExecContext(queryCtx, query, cleanupBatchSize)
		cancel()

		if err != nil {
			if isTableNotExistsError(err) {
				if totalDeleted == 0 {
					log.Printf("[DataCleanup] Table %s does not exist, skipping", table)
				}
				return totalDeleted
			}
			log.Printf("[DataCleanup] Error deleting from %s: %v", table, err)
			return totalDeleted
		}

		affected, _ := res.RowsAffected()
		if affected == 0 {
			return totalDeleted
		}
		totalDeleted += affected

		// Small pause between batches to reduce load
		time.Sleep(100 * time.Millisecond)
	}
}

// isTableNotExistsError checks whether a Postgres error indicates the target
// relation does not exist. A string check avoids error-code matching for a
// worker that only ever logs and moves on.
func isTableNotExistsError(err error) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	return strings.Contains(msg, "does not exist")
}
