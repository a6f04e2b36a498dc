package models

import "time"

// Sync cycle outcomes reported through the status repository.
const (
	SyncStateIdle     = "idle"
	SyncStateRunning  = "running"
	SyncStateOK       = "ok"
	SyncStateSkipped  = "skipped"
	SyncStatePartial  = "partial"
	SyncStateFailed   = "failed"
	SyncStateUpToDate = "up_to_date"
)

// SyncStatus is the reconciler's last reported outcome.
type SyncStatus struct {
	State        string     `json:"state"`
	Message      string     `json:"message,omitempty"`
	Pushed       int        `json:"pushed"`
	PushFailed   int        `json:"push_failed"`
	Deleted      int        `json:"deleted"`
	DeleteFailed int        `json:"delete_failed"`
	Hydrated     int        `json:"hydrated"`
	StartedAt    time.Time  `json:"started_at"`
	FinishedAt   *time.Time `json:"finished_at,omitempty"`
}
