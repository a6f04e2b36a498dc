package models

import "time"

// SyncMeta tracks whether a task's local state has been confirmed on the
// remote store. Anything not explicitly marked clean is treated as dirty.
type SyncMeta struct {
	Dirty        bool       `json:"dirty"`
	LastSyncedAt *time.Time `json:"last_synced_at,omitempty"`
}

// Task is a unit of work tracked by the congregation's staff.
type Task struct {
	ID         string     `json:"id"`
	RemoteID   string     `json:"remote_id,omitempty"` // assigned by the remote store after first upsert
	Title      string     `json:"title"`
	Notes      string     `json:"notes,omitempty"`
	DueDate    string     `json:"due_date,omitempty"` // calendar date, 2006-01-02
	AssignedTo string     `json:"assigned_to,omitempty"`
	Status     string     `json:"status"`   // pending, in_progress, completed
	Priority   string     `json:"priority"` // low, medium, high
	CreatedBy  string     `json:"created_by"`
	CreatedAt  time.Time  `json:"created_at"`
	UpdatedAt  time.Time  `json:"updated_at"`
	Sync       SyncMeta   `json:"sync"`
}

// QueuedTaskDeletion records a locally deleted task whose remote row has not
// been confirmed gone yet. Entries survive until the gateway confirms.
type QueuedTaskDeletion struct {
	ID       string    `json:"id"`
	RemoteID string    `json:"remote_id,omitempty"`
	QueuedAt time.Time `json:"queued_at"`
}

// RawTask is the untrusted record shape entering the system from CSV rows,
// remote payloads or legacy local data. Every field is optional; SanitizeTask
// turns it into a well-formed Task.
type RawTask struct {
	ID           string     `json:"id"`
	RemoteID     string     `json:"remote_id"`
	Title        string     `json:"title"`
	Notes        string     `json:"notes"`
	DueDate      string     `json:"due_date"`
	AssignedTo   string     `json:"assigned_to"`
	Status       string     `json:"status"`
	Priority     string     `json:"priority"`
	CreatedBy    string     `json:"created_by"`
	CreatedAt    *time.Time `json:"created_at"`
	UpdatedAt    *time.Time `json:"updated_at"`
	Dirty        *bool      `json:"dirty"`
	LastSyncedAt *time.Time `json:"last_synced_at"`
}

// TaskPatch is a partial edit. Nil fields are absent and keep the stored
// value; a non-nil empty string explicitly clears an optional field.
type TaskPatch struct {
	Title      *string `json:"title"`
	Notes      *string `json:"notes"`
	DueDate    *string `json:"due_date"`
	AssignedTo *string `json:"assigned_to"`
	Status     *string `json:"status"`
	Priority   *string `json:"priority"`
}

// Apply merges the present fields onto raw.
func (p TaskPatch) Apply(raw *RawTask) {
	if p.Title != nil {
		raw.Title = *p.Title
	}
	if p.Notes != nil {
		raw.Notes = *p.Notes
	}
	if p.DueDate != nil {
		raw.DueDate = *p.DueDate
	}
	if p.AssignedTo != nil {
		raw.AssignedTo = *p.AssignedTo
	}
	if p.Status != nil {
		raw.Status = *p.Status
	}
	if p.Priority != nil {
		raw.Priority = *p.Priority
	}
}

// Raw converts a Task back to its untrusted shape, mostly for round-tripping
// through the sanitizer at store boundaries.
func (t Task) Raw() RawTask {
	created := t.CreatedAt
	updated := t.UpdatedAt
	dirty := t.Sync.Dirty
	return RawTask{
		ID:           t.ID,
		RemoteID:     t.RemoteID,
		Title:        t.Title,
		Notes:        t.Notes,
		DueDate:      t.DueDate,
		AssignedTo:   t.AssignedTo,
		Status:       t.Status,
		Priority:     t.Priority,
		CreatedBy:    t.CreatedBy,
		CreatedAt:    &created,
		UpdatedAt:    &updated,
		Dirty:        &dirty,
		LastSyncedAt: t.Sync.LastSyncedAt,
	}
}
