package csvio

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"strings"
	"time"

	"vestry/internal/domain"
	"vestry/internal/models"

	"github.com/rs/zerolog"
)

// Column names are fixed and shared by import and export. Import accepts any
// column order but rejects a file missing any of them.
const (
	colTaskID       = "Task ID"
	colTitle        = "Task Title"
	colNotes        = "Notes"
	colAssignedTo   = "Assigned To"
	colDueDate      = "Due Date"
	colStatus       = "Status"
	colPriority     = "Priority"
	colCreatedBy    = "Created By"
	colCreatedAt    = "Created At"
	colUpdatedAt    = "Updated At"
	colRemoteID     = "SP ID"
	colLastSyncedAt = "Last Synced At"
)

var columns = []string{
	colTaskID, colTitle, colNotes, colAssignedTo, colDueDate, colStatus,
	colPriority, colCreatedBy, colCreatedAt, colUpdatedAt, colRemoteID,
	colLastSyncedAt,
}

// ImportResult summarizes one import run.
type ImportResult struct {
	Imported int `json:"imported"`
	Skipped  int `json:"skipped"`
}

// Importer reads task CSV files into the local store.
type Importer struct {
	store  domain.TaskStore
	logger *zerolog.Logger
}

func NewImporter(store domain.TaskStore, logger *zerolog.Logger) *Importer {
	return &Importer{store: store, logger: logger}
}

// Import parses the reader, sanitizes each row into a dirty task and bulk
// upserts the batch. A header missing any required column rejects the whole
// file naming that column; rows without a title or status are skipped and
// counted, not fatal.
func (im *Importer) Import(ctx context.Context, r io.Reader) (*ImportResult, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err != nil {
		return nil, &domain.ValidationError{Field: "file", Reason: "empty or unreadable CSV"}
	}

	index := make(map[string]int, len(header))
	for i, name := range header {
		index[strings.TrimSpace(name)] = i
	}
	for _, col := range columns {
		if _, ok := index[col]; !ok {
			return nil, &domain.ValidationError{Field: "header", Reason: fmt.Sprintf("missing column %q", col)}
		}
	}

	result := &ImportResult{}
	var tasks []models.Task

	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			// A structurally broken row is skipped like an incomplete one.
			result.Skipped++
			continue
		}

		cell := func(col string) string {
			i := index[col]
			if i >= len(record) {
				return ""
			}
			return strings.TrimSpace(record[i])
		}

		if cell(colTitle) == "" || cell(colStatus) == "" {
			result.Skipped++
			continue
		}

		raw := models.RawTask{
			ID:         cell(colTaskID),
			RemoteID:   cell(colRemoteID),
			Title:      cell(colTitle),
			Notes:      cell(colNotes),
			AssignedTo: cell(colAssignedTo),
			DueDate:    cell(colDueDate),
			Status:     cell(colStatus),
			Priority:   cell(colPriority),
			CreatedBy:  cell(colCreatedBy),
			CreatedAt:  parseTime(cell(colCreatedAt)),
			UpdatedAt:  parseTime(cell(colUpdatedAt)),
		}
		// Imported rows enter the system as local changes awaiting push.
		dirty := true
		raw.Dirty = &dirty
		raw.LastSyncedAt = parseTime(cell(colLastSyncedAt))

		tasks = append(tasks, models.SanitizeTask(raw))
		result.Imported++
	}

	if len(tasks) > 0 {
		if err := im.store.UpsertManyTasks(ctx, tasks); err != nil {
			return nil, err
		}
	}

	im.logger.Info().Int("imported", result.Imported).Int("skipped", result.Skipped).Msg("csv import finished")
	return result, nil
}

// Export writes every stored task to w using the fixed column set.
func Export(ctx context.Context, store domain.TaskStore, w io.Writer) error {
	tasks, err := store.GetAllTasks(ctx)
	if err != nil {
		return err
	}

	writer := csv.NewWriter(w)
	if err := writer.Write(columns); err != nil {
		return err
	}

	for _, task := range tasks {
		lastSynced := ""
		if task.Sync.LastSyncedAt != nil {
			lastSynced = task.Sync.LastSyncedAt.UTC().Format(time.RFC3339)
		}
		row := []string{
			task.ID,
			task.Title,
			task.Notes,
			task.AssignedTo,
			task.DueDate,
			task.Status,
			task.Priority,
			task.CreatedBy,
			task.CreatedAt.UTC().Format(time.RFC3339),
			task.UpdatedAt.UTC().Format(time.RFC3339),
			task.RemoteID,
			lastSynced,
		}
		if err := writer.Write(row); err != nil {
			return err
		}
	}

	writer.Flush()
	return writer.Error()
}

func parseTime(s string) *time.Time {
	if s == "" {
		return nil
	}
	for _, layout := range []string{time.RFC3339Nano, time.RFC3339, models.DateLayout} {
		if t, err := time.Parse(layout, s); err == nil {
			return &t
		}
	}
	return nil
}
