package domain

import (
	"context"
	"time"

	"vestry/internal/models"
)

// TaskStore is the durable home of tasks, the deletion queue and the sync
// watermark. It is the single source of truth; in-memory task lists are
// read-through projections of it.
type TaskStore interface {
	GetAllTasks(ctx context.Context) ([]models.Task, error)
	GetTask(ctx context.Context, id string) (*models.Task, error)
	SaveTask(ctx context.Context, task models.Task) error
	UpsertManyTasks(ctx context.Context, tasks []models.Task) error
	DeleteTask(ctx context.Context, id string) error
	GetDirtyTasks(ctx context.Context) ([]models.Task, error)
	MarkTaskSynced(ctx context.Context, id string, syncedAt time.Time, remoteID string) error

	QueueTaskDeletion(ctx context.Context, id, remoteID string) error
	GetQueuedTaskDeletions(ctx context.Context) ([]models.QueuedTaskDeletion, error)
	ClearQueuedTaskDeletion(ctx context.Context, id string) error

	SetLastSyncedAt(ctx context.Context, ts time.Time) error
	GetLastSyncedAt(ctx context.Context) (*time.Time, error)

	ClearAllTaskData(ctx context.Context) error
}

// DirectoryStore персистентность справочника и финансов прихода.
type DirectoryStore interface {
	GetAllMembers(ctx context.Context) ([]models.Member, error)
	GetMember(ctx context.Context, id string) (*models.Member, error)
	SaveMember(ctx context.Context, member models.Member) error
	DeleteMember(ctx context.Context, id string) error

	GetContributions(ctx context.Context, from, to string) ([]models.Contribution, error)
	SaveContribution(ctx context.Context, c models.Contribution) error
	DeleteContribution(ctx context.Context, id string) error

	GetAttendance(ctx context.Context, from, to string) ([]models.AttendanceRecord, error)
	SaveAttendance(ctx context.Context, rec models.AttendanceRecord) error
}

// RemoteGateway is the capability the reconciler pushes through and hydrates
// from. Implementations are interchangeable and must tolerate missing
// configuration by reporting Configured() == false rather than erroring.
type RemoteGateway interface {
	// Name identifies the backend for logs and errors.
	Name() string
	// Configured reports whether the backend has everything it needs to be
	// called at all. An unconfigured gateway makes sync a deliberate skip.
	Configured() bool
	// LoadAll fetches every remote record mapped into sanitized Task shape
	// with RemoteID set from the remote row identifier.
	LoadAll(ctx context.Context) ([]models.Task, error)
	// Upsert creates the task remotely when it has no RemoteID, updates it in
	// place otherwise, and returns the authoritative remote identifier.
	Upsert(ctx context.Context, task models.Task) (string, error)
	// Delete removes the remote row. A row that is already gone is a no-op.
	Delete(ctx context.Context, id, remoteID string) error
}

// EventPublisher publishes in-process events.
type EventPublisher interface {
	PublishJSON(eventType string, payload interface{}) error
}

// StatusRepository keeps the reconciler's last reported outcome so the API
// and UI can read it without touching the reconciler.
type StatusRepository interface {
	SetStatus(ctx context.Context, status *models.SyncStatus) error
	GetStatus(ctx context.Context) (*models.SyncStatus, error)
}

// Credentials is the opaque signed-in state supplied by the identity
// provider. Absence of a token means "not configured", never an error.
type Credentials interface {
	SignedIn() bool
	Token(ctx context.Context) (string, error)
}
