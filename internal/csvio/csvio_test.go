package csvio

import (
	"bytes"
	"context"
	"encoding/csv"
	"io"
	"strings"
	"testing"
	"time"

	"vestry/internal/database"
	"vestry/internal/domain"
	"vestry/internal/models"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const validHeader = "Task ID,Task Title,Notes,Assigned To,Due Date,Status,Priority,Created By,Created At,Updated At,SP ID,Last Synced At"

func newImporter(t *testing.T) (*Importer, database.Store) {
	t.Helper()
	store := database.NewMemoryStore()
	logger := zerolog.New(io.Discard)
	return NewImporter(store, &logger), store
}

func TestImportRejectsMissingColumn(t *testing.T) {
	im, store := newImporter(t)
	ctx := context.Background()

	header := strings.Replace(validHeader, "Status,", "", 1)
	input := header + "\nt1,Some task,,,,high,Admin,,,sp-1,\n"

	_, err := im.Import(ctx, strings.NewReader(input))
	var validation *domain.ValidationError
	require.ErrorAs(t, err, &validation)
	assert.Contains(t, validation.Reason, `"Status"`)

	tasks, err := store.GetAllTasks(ctx)
	require.NoError(t, err)
	assert.Empty(t, tasks, "a rejected import must add zero tasks")
}

func TestImportSkipsIncompleteRows(t *testing.T) {
	im, store := newImporter(t)
	ctx := context.Background()

	input := validHeader + "\n" +
		"t1,Prepare minutes,,Anna,2026-10-01,pending,high,Admin,,,sp-1,\n" +
		",,,,,pending,medium,Admin,,,,\n" + // no title
		"t3,No status,,,,,medium,Admin,,,,\n" + // no status
		"t4,Valid row,,,,completed,low,Admin,,,,\n"

	result, err := im.Import(ctx, strings.NewReader(input))
	require.NoError(t, err)
	assert.Equal(t, 2, result.Imported)
	assert.Equal(t, 2, result.Skipped)

	tasks, err := store.GetAllTasks(ctx)
	require.NoError(t, err)
	require.Len(t, tasks, 2)
	for _, task := range tasks {
		assert.True(t, task.Sync.Dirty, "imported rows await the next push")
	}
}

func TestImportHeaderOrderInsensitive(t *testing.T) {
	im, store := newImporter(t)
	ctx := context.Background()

	input := "Status,Task Title,Task ID,Notes,Assigned To,Due Date,Priority,Created By,Created At,Updated At,SP ID,Last Synced At\n" +
		"in progress,Reversed columns,t1,,,,,Admin,,,,\n"

	result, err := im.Import(ctx, strings.NewReader(input))
	require.NoError(t, err)
	assert.Equal(t, 1, result.Imported)

	got, err := store.GetTask(ctx, "t1")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "Reversed columns", got.Title)
	assert.Equal(t, models.StatusInProgress, got.Status)
}

func TestImportEmptyFile(t *testing.T) {
	im, _ := newImporter(t)

	_, err := im.Import(context.Background(), strings.NewReader(""))
	var validation *domain.ValidationError
	require.ErrorAs(t, err, &validation)
}

func TestExportRoundTrip(t *testing.T) {
	_, store := newImporter(t)
	ctx := context.Background()

	now := time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC)
	synced := now.Add(time.Hour)
	dirty := false
	task := models.SanitizeTask(models.RawTask{
		ID:           "t1",
		RemoteID:     "sp-1",
		Title:        "Prepare minutes",
		Notes:        "bring the agenda",
		AssignedTo:   "Anna",
		DueDate:      "2026-10-01",
		Status:       models.StatusCompleted,
		Priority:     models.PriorityHigh,
		CreatedBy:    "Admin",
		CreatedAt:    &now,
		UpdatedAt:    &now,
		Dirty:        &dirty,
		LastSyncedAt: &synced,
	})
	require.NoError(t, store.SaveTask(ctx, task))

	var buf bytes.Buffer
	require.NoError(t, Export(ctx, store, &buf))

	records, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, strings.Split(validHeader, ","), records[0])

	row := records[1]
	assert.Equal(t, "t1", row[0])
	assert.Equal(t, "Prepare minutes", row[1])
	assert.Equal(t, "2026-10-01", row[4])
	assert.Equal(t, models.StatusCompleted, row[5])
	assert.Equal(t, "sp-1", row[10])
	assert.NotEmpty(t, row[11])

	// The exported file imports back cleanly.
	fresh, freshStore := newImporter(t)
	var export bytes.Buffer
	require.NoError(t, Export(ctx, store, &export))
	result, err := fresh.Import(ctx, &export)
	require.NoError(t, err)
	assert.Equal(t, 1, result.Imported)

	got, err := freshStore.GetTask(ctx, "t1")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "Prepare minutes", got.Title)
}
