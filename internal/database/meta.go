package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

const metaLastSyncedAt = "last_synced_at"

// SetLastSyncedAt persists the global sync watermark.
func (db *DB) SetLastSyncedAt(ctx context.Context, ts time.Time) error {
	query := `INSERT INTO sync_meta (key, value) VALUES (?, ?)
              ON CONFLICT(key) DO UPDATE SET value = excluded.value`

	_, err := db.db.ExecContext(ctx, query, metaLastSyncedAt, timeToDB(ts))
	if err != nil {
		return fmt.Errorf("failed to set last synced at: %w", err)
	}
	return nil
}

// GetLastSyncedAt returns the watermark, or nil when no full sync has ever
// completed.
func (db *DB) GetLastSyncedAt(ctx context.Context) (*time.Time, error) {
	var value string
	err := db.db.QueryRowContext(ctx, `SELECT value FROM sync_meta WHERE key = ?`, metaLastSyncedAt).Scan(&value)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get last synced at: %w", err)
	}

	ts := timeFromDB(value)
	if ts.IsZero() {
		return nil, nil
	}
	return &ts, nil
}
