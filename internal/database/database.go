package database

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"vestry/internal/domain"

	_ "github.com/mattn/go-sqlite3"
	"github.com/rs/zerolog"
)

// Store combines everything the application persists durably.
type Store interface {
	domain.TaskStore
	domain.DirectoryStore
	Close() error
}

type DB struct {
	db     *sql.DB
	logger *zerolog.Logger
}

func New(path string, logger *zerolog.Logger) (*DB, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if err := createTables(db); err != nil {
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}

	logger.Info().Str("path", path).Msg("database initialized")
	return &DB{db: db, logger: logger}, nil
}

// NewWithFallback opens the durable store, degrading to the in-memory store
// when SQLite cannot be opened. The returned error, when non-nil, is a
// *domain.StorageUnavailableError describing the degraded mode; the returned
// Store is usable either way.
func NewWithFallback(path string, logger *zerolog.Logger) (Store, error) {
	db, err := New(path, logger)
	if err == nil {
		return db, nil
	}
	logger.Error().Err(err).Msg("durable store unavailable, falling back to memory")
	return NewMemoryStore(), &domain.StorageUnavailableError{Cause: err}
}

func createTables(db *sql.DB) error {
	queries := []string{
		`CREATE TABLE IF NOT EXISTS tasks (
            id TEXT PRIMARY KEY,
            remote_id TEXT NOT NULL DEFAULT '',
            title TEXT NOT NULL,
            notes TEXT NOT NULL DEFAULT '',
            due_date TEXT NOT NULL DEFAULT '',
            assigned_to TEXT NOT NULL DEFAULT '',
            status TEXT NOT NULL DEFAULT 'pending',
            priority TEXT NOT NULL DEFAULT 'medium',
            created_by TEXT NOT NULL DEFAULT '',
            created_at TEXT NOT NULL,
            updated_at TEXT NOT NULL,
            dirty INTEGER NOT NULL DEFAULT 1,
            last_synced_at TEXT
        )`,
		`CREATE TABLE IF NOT EXISTS deletion_queue (
            id TEXT PRIMARY KEY,
            remote_id TEXT NOT NULL DEFAULT '',
            queued_at TEXT NOT NULL
        )`,
		`CREATE TABLE IF NOT EXISTS sync_meta (
            key TEXT PRIMARY KEY,
            value TEXT NOT NULL
        )`,
		`CREATE TABLE IF NOT EXISTS members (
            id TEXT PRIMARY KEY,
            first_name TEXT NOT NULL,
            last_name TEXT NOT NULL,
            email TEXT NOT NULL DEFAULT '',
            phone TEXT NOT NULL DEFAULT '',
            address TEXT NOT NULL DEFAULT '',
            membership TEXT NOT NULL DEFAULT 'visitor',
            joined_at TEXT NOT NULL DEFAULT '',
            created_at TEXT NOT NULL,
            updated_at TEXT NOT NULL
        )`,
		`CREATE TABLE IF NOT EXISTS contributions (
            id TEXT PRIMARY KEY,
            member_id TEXT NOT NULL DEFAULT '',
            fund TEXT NOT NULL,
            amount_cents INTEGER NOT NULL,
            date TEXT NOT NULL,
            method TEXT NOT NULL,
            note TEXT NOT NULL DEFAULT '',
            created_at TEXT NOT NULL
        )`,
		`CREATE TABLE IF NOT EXISTS attendance (
            id TEXT PRIMARY KEY,
            service_date TEXT NOT NULL,
            service_type TEXT NOT NULL,
            adults INTEGER NOT NULL DEFAULT 0,
            children INTEGER NOT NULL DEFAULT 0,
            visitors INTEGER NOT NULL DEFAULT 0,
            note TEXT NOT NULL DEFAULT '',
            created_at TEXT NOT NULL
        )`,

		`CREATE INDEX IF NOT EXISTS idx_tasks_dirty ON tasks(dirty)`,
		`CREATE INDEX IF NOT EXISTS idx_tasks_updated_at ON tasks(updated_at)`,
		`CREATE INDEX IF NOT EXISTS idx_members_membership ON members(membership)`,
		`CREATE INDEX IF NOT EXISTS idx_contributions_date ON contributions(date)`,
		`CREATE INDEX IF NOT EXISTS idx_contributions_fund ON contributions(fund)`,
		`CREATE INDEX IF NOT EXISTS idx_attendance_date ON attendance(service_date)`,
	}

	for _, query := range queries {
		if _, err := db.Exec(query); err != nil {
			return fmt.Errorf("error executing query %s: %w", query, err)
		}
	}
	return nil
}

func (db *DB) Close() error {
	return db.db.Close()
}

// Timestamps persist as RFC 3339 UTC strings.

// dbTimeLayout is fixed width: RFC3339Nano drops trailing fractional zeros,
// which breaks lexicographic ORDER BY at sub-second granularity.
const dbTimeLayout = "2006-01-02T15:04:05.000000000Z07:00"

func timeToDB(t time.Time) string {
	return t.UTC().Format(dbTimeLayout)
}

func timeFromDB(s string) time.Time {
	if s == "" {
		return time.Time{}
	}
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}
	}
	return t
}
