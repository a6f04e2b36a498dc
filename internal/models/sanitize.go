package models

import (
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
)

// SanitizeTask turns an arbitrary untrusted record into a structurally valid
// Task. It never fails: missing or invalid fields are defaulted, string fields
// are trimmed and clamped. Validation of business rules (non-empty title and
// the like) happens at the service boundary, not here.
//
// Sanitization is idempotent: running it over an already-valid task yields the
// same task. An existing id is never regenerated and an existing remote id is
// never cleared.
func SanitizeTask(raw RawTask) Task {
	now := time.Now().UTC()

	task := Task{
		ID:         strings.TrimSpace(raw.ID),
		RemoteID:   strings.TrimSpace(raw.RemoteID),
		Title:      clamp(strings.TrimSpace(raw.Title), MaxTitleLength),
		Notes:      clamp(strings.TrimSpace(raw.Notes), MaxNotesLength),
		AssignedTo: strings.TrimSpace(raw.AssignedTo),
		CreatedBy:  strings.TrimSpace(raw.CreatedBy),
	}

	if task.ID == "" {
		task.ID = uuid.NewString()
	}

	task.Status = NormalizeStatus(raw.Status)
	task.Priority = NormalizePriority(raw.Priority)

	if due := strings.TrimSpace(raw.DueDate); due != "" {
		if parsed, err := time.Parse(DateLayout, due); err == nil {
			task.DueDate = parsed.Format(DateLayout)
		}
	}

	if raw.CreatedAt != nil && !raw.CreatedAt.IsZero() {
		task.CreatedAt = raw.CreatedAt.UTC()
	} else {
		task.CreatedAt = now
	}
	if raw.UpdatedAt != nil && !raw.UpdatedAt.IsZero() {
		task.UpdatedAt = raw.UpdatedAt.UTC()
	} else {
		task.UpdatedAt = task.CreatedAt
	}

	// Anything not explicitly marked clean needs a sync.
	if raw.Dirty == nil {
		task.Sync.Dirty = true
	} else {
		task.Sync.Dirty = *raw.Dirty
	}
	if raw.LastSyncedAt != nil && !raw.LastSyncedAt.IsZero() {
		t := raw.LastSyncedAt.UTC()
		task.Sync.LastSyncedAt = &t
	}

	return task
}

// NormalizeStatus maps free-form status input onto the status enum,
// defaulting to pending.
func NormalizeStatus(s string) string {
	switch canonical(s) {
	case StatusPending, "":
		return StatusPending
	case StatusInProgress, "inprogress":
		return StatusInProgress
	case StatusCompleted, "complete", "done":
		return StatusCompleted
	default:
		return StatusPending
	}
}

// NormalizePriority maps free-form priority input onto the priority enum,
// defaulting to medium.
func NormalizePriority(p string) string {
	switch canonical(p) {
	case PriorityLow:
		return PriorityLow
	case PriorityHigh:
		return PriorityHigh
	default:
		return PriorityMedium
	}
}

func canonical(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	s = strings.ReplaceAll(s, " ", "_")
	s = strings.ReplaceAll(s, "-", "_")
	return s
}

// clamp truncates s to max characters. The limit counts runes, not bytes,
// matching the boundary validation, so multi-byte input at the limit passes
// through untouched.
func clamp(s string, max int) string {
	if utf8.RuneCountInString(s) <= max {
		return s
	}
	runes := []rune(s)
	return strings.TrimSpace(string(runes[:max]))
}
