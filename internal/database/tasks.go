package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"vestry/internal/models"
)

const taskColumns = `id, remote_id, title, notes, due_date, assigned_to, status, priority, created_by, created_at, updated_at, dirty, last_synced_at`

// GetAllTasks returns every stored task, sanitized, most recently touched
// first. A read failure surfaces as an error, never as a silent empty list.
func (db *DB) GetAllTasks(ctx context.Context) ([]models.Task, error) {
	query := `SELECT ` + taskColumns + ` FROM tasks ORDER BY updated_at DESC, id ASC`

	rows, err := db.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to read tasks: %w", err)
	}
	defer rows.Close()

	var tasks []models.Task
	for rows.Next() {
		task, err := scanTask(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan task: %w", err)
		}
		tasks = append(tasks, task)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read tasks: %w", err)
	}
	return tasks, nil
}

// GetTask returns a single task by id, or nil when it does not exist.
func (db *DB) GetTask(ctx context.Context, id string) (*models.Task, error) {
	query := `SELECT ` + taskColumns + ` FROM tasks WHERE id = ?`

	row := db.db.QueryRowContext(ctx, query, id)
	task, err := scanTask(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read task %s: %w", id, err)
	}
	return &task, nil
}

// SaveTask upserts by id, overwriting any existing record.
func (db *DB) SaveTask(ctx context.Context, task models.Task) error {
	query := `
        INSERT INTO tasks (` + taskColumns + `)
        VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
        ON CONFLICT(id) DO UPDATE SET
            remote_id = excluded.remote_id,
            title = excluded.title,
            notes = excluded.notes,
            due_date = excluded.due_date,
            assigned_to = excluded.assigned_to,
            status = excluded.status,
            priority = excluded.priority,
            created_by = excluded.created_by,
            created_at = excluded.created_at,
            updated_at = excluded.updated_at,
            dirty = excluded.dirty,
            last_synced_at = excluded.last_synced_at
    `

	_, err := db.db.ExecContext(ctx, query, taskArgs(task)...)
	if err != nil {
		return fmt.Errorf("failed to save task %s: %w", task.ID, err)
	}
	return nil
}

// UpsertManyTasks bulk-upserts in a single transaction. Used for hydration
// from remote and CSV import.
func (db *DB) UpsertManyTasks(ctx context.Context, tasks []models.Task) error {
	if len(tasks) == 0 {
		return nil
	}

	tx, err := db.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin upsert: %w", err)
	}
	defer tx.Rollback()

	query := `
        INSERT INTO tasks (` + taskColumns + `)
        VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
        ON CONFLICT(id) DO UPDATE SET
            remote_id = excluded.remote_id,
            title = excluded.title,
            notes = excluded.notes,
            due_date = excluded.due_date,
            assigned_to = excluded.assigned_to,
            status = excluded.status,
            priority = excluded.priority,
            created_by = excluded.created_by,
            created_at = excluded.created_at,
            updated_at = excluded.updated_at,
            dirty = excluded.dirty,
            last_synced_at = excluded.last_synced_at
    `
	stmt, err := tx.PrepareContext(ctx, query)
	if err != nil {
		return fmt.Errorf("failed to prepare upsert: %w", err)
	}
	defer stmt.Close()

	for _, task := range tasks {
		if _, err := stmt.ExecContext(ctx, taskArgs(task)...); err != nil {
			return fmt.Errorf("failed to upsert task %s: %w", task.ID, err)
		}
	}

	return tx.Commit()
}

// DeleteTask removes the record. Deleting a nonexistent id is a no-op.
func (db *DB) DeleteTask(ctx context.Context, id string) error {
	_, err := db.db.ExecContext(ctx, `DELETE FROM tasks WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete task %s: %w", id, err)
	}
	return nil
}

// GetDirtyTasks returns the subset of tasks with local changes not yet
// confirmed on the remote store.
func (db *DB) GetDirtyTasks(ctx context.Context) ([]models.Task, error) {
	query := `SELECT ` + taskColumns + ` FROM tasks WHERE dirty = 1 ORDER BY updated_at DESC, id ASC`

	rows, err := db.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to read dirty tasks: %w", err)
	}
	defer rows.Close()

	var tasks []models.Task
	for rows.Next() {
		task, err := scanTask(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan task: %w", err)
		}
		tasks = append(tasks, task)
	}
	return tasks, rows.Err()
}

// MarkTaskSynced clears the dirty flag and records the sync timestamp,
// updating the remote id when one is provided. A task deleted concurrently
// is left alone: the queued deletion will clean the remote row up.
func (db *DB) MarkTaskSynced(ctx context.Context, id string, syncedAt time.Time, remoteID string) error {
	query := `UPDATE tasks SET dirty = 0, last_synced_at = ?`
	args := []interface{}{timeToDB(syncedAt)}
	if remoteID != "" {
		query += `, remote_id = ?`
		args = append(args, remoteID)
	}
	query += ` WHERE id = ?`
	args = append(args, id)

	_, err := db.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("failed to mark task %s synced: %w", id, err)
	}
	return nil
}

// ClearAllTaskData wipes tasks, the deletion queue and sync metadata. Used
// only by the explicit administrative reset.
func (db *DB) ClearAllTaskData(ctx context.Context) error {
	tx, err := db.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin reset: %w", err)
	}
	defer tx.Rollback()

	for _, query := range []string{
		`DELETE FROM tasks`,
		`DELETE FROM deletion_queue`,
		`DELETE FROM sync_meta`,
	} {
		if _, err := tx.ExecContext(ctx, query); err != nil {
			return fmt.Errorf("failed to reset task data: %w", err)
		}
	}
	return tx.Commit()
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanTask(row rowScanner) (models.Task, error) {
	var (
		raw          models.RawTask
		createdAt    string
		updatedAt    string
		dirty        int
		lastSyncedAt sql.NullString
	)

	err := row.Scan(
		&raw.ID,
		&raw.RemoteID,
		&raw.Title,
		&raw.Notes,
		&raw.DueDate,
		&raw.AssignedTo,
		&raw.Status,
		&raw.Priority,
		&raw.CreatedBy,
		&createdAt,
		&updatedAt,
		&dirty,
		&lastSyncedAt,
	)
	if err != nil {
		return models.Task{}, err
	}

	created := timeFromDB(createdAt)
	updated := timeFromDB(updatedAt)
	isDirty := dirty != 0
	raw.CreatedAt = &created
	raw.UpdatedAt = &updated
	raw.Dirty = &isDirty
	if lastSyncedAt.Valid {
		synced := timeFromDB(lastSyncedAt.String)
		raw.LastSyncedAt = &synced
	}

	// Legacy rows re-enter through the sanitizer like any other boundary.
	return models.SanitizeTask(raw), nil
}

func taskArgs(task models.Task) []interface{} {
	var lastSynced interface{}
	if task.Sync.LastSyncedAt != nil {
		lastSynced = timeToDB(*task.Sync.LastSyncedAt)
	}
	dirty := 0
	if task.Sync.Dirty {
		dirty = 1
	}
	return []interface{}{
		task.ID,
		task.RemoteID,
		task.Title,
		task.Notes,
		task.DueDate,
		task.AssignedTo,
		task.Status,
		task.Priority,
		task.CreatedBy,
		timeToDB(task.CreatedAt),
		timeToDB(task.UpdatedAt),
		dirty,
		lastSynced,
	}
}
