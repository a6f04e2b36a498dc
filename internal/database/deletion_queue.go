package database

import (
	"context"
	"fmt"
	"time"

	"vestry/internal/models"
)

// QueueTaskDeletion records a locally deleted task whose remote row still
// needs to be removed. Queuing the same id twice keeps the newest remote id.
func (db *DB) QueueTaskDeletion(ctx context.Context, id, remoteID string) error {
	query := `INSERT INTO deletion_queue (id, remote_id, queued_at) VALUES (?, ?, ?)
              ON CONFLICT(id) DO UPDATE SET remote_id = excluded.remote_id, queued_at = excluded.queued_at`

	_, err := db.db.ExecContext(ctx, query, id, remoteID, timeToDB(time.Now()))
	if err != nil {
		return fmt.Errorf("failed to queue deletion for %s: %w", id, err)
	}
	return nil
}

func (db *DB) GetQueuedTaskDeletions(ctx context.Context) ([]models.QueuedTaskDeletion, error) {
	query := `SELECT id, remote_id, queued_at FROM deletion_queue ORDER BY queued_at ASC`

	rows, err := db.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to read deletion queue: %w", err)
	}
	defer rows.Close()

	var queued []models.QueuedTaskDeletion
	for rows.Next() {
		var (
			entry    models.QueuedTaskDeletion
			queuedAt string
		)
		if err := rows.Scan(&entry.ID, &entry.RemoteID, &queuedAt); err != nil {
			return nil, fmt.Errorf("failed to scan deletion queue entry: %w", err)
		}
		entry.QueuedAt = timeFromDB(queuedAt)
		queued = append(queued, entry)
	}
	return queued, rows.Err()
}

// ClearQueuedTaskDeletion drops the entry once the gateway confirmed the
// remote row is gone. Idempotent.
func (db *DB) ClearQueuedTaskDeletion(ctx context.Context, id string) error {
	_, err := db.db.ExecContext(ctx, `DELETE FROM deletion_queue WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to clear queued deletion %s: %w", id, err)
	}
	return nil
}
