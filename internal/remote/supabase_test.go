package remote

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"

	"vestry/internal/config"
	"vestry/internal/domain"
	"vestry/internal/models"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newSupabaseForTest(t *testing.T, handler http.Handler) *SupabaseGateway {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	logger := zerolog.New(io.Discard)
	cfg := config.RemoteConfig{
		Backend: "supabase",
		Supabase: config.SupabaseConfig{
			URL:    server.URL,
			APIKey: "anon-key",
			Table:  "tasks",
		},
		RPS:   100,
		Burst: 100,
	}
	return NewSupabaseGateway(cfg, &logger)
}

func TestSupabaseLoadAll(t *testing.T) {
	g := newSupabaseForTest(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/rest/v1/tasks", r.URL.Path)
		assert.Equal(t, "*", r.URL.Query().Get("select"))
		assert.Equal(t, "anon-key", r.Header.Get("apikey"))
		assert.Equal(t, "Bearer anon-key", r.Header.Get("Authorization"))

		_ = json.NewEncoder(w).Encode([]map[string]any{
			{
				"id": 5, "task_id": "t1", "title": "Remote task",
				"status": "in_progress", "priority": "high",
				"updated_at": "2026-08-30T10:00:00Z",
			},
		})
	}))

	tasks, err := g.LoadAll(context.Background())
	require.NoError(t, err)
	require.Len(t, tasks, 1)
	assert.Equal(t, "t1", tasks[0].ID)
	assert.Equal(t, "5", tasks[0].RemoteID)
	assert.Equal(t, models.StatusInProgress, tasks[0].Status)
	assert.Equal(t, models.PriorityHigh, tasks[0].Priority)
}

func TestSupabaseUpsertInserts(t *testing.T) {
	g := newSupabaseForTest(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "return=representation", r.Header.Get("Prefer"))

		var row taskRow
		require.NoError(t, json.NewDecoder(r.Body).Decode(&row))
		assert.Equal(t, "t1", row.TaskID)

		w.WriteHeader(http.StatusCreated)
		row.ID = 42
		_ = json.NewEncoder(w).Encode([]taskRow{row})
	}))

	task := models.SanitizeTask(models.RawTask{ID: "t1", Title: "New task"})
	remoteID, err := g.Upsert(context.Background(), task)
	require.NoError(t, err)
	assert.Equal(t, "42", remoteID)
}

func TestSupabaseUpsertUpdates(t *testing.T) {
	g := newSupabaseForTest(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPatch, r.Method)
		assert.Equal(t, "eq.42", r.URL.Query().Get("id"))
		w.WriteHeader(http.StatusNoContent)
	}))

	task := models.SanitizeTask(models.RawTask{ID: "t1", RemoteID: "42", Title: "Edited"})
	remoteID, err := g.Upsert(context.Background(), task)
	require.NoError(t, err)
	assert.Equal(t, "42", remoteID)
}

func TestSupabaseUpsertEmptyRepresentation(t *testing.T) {
	g := newSupabaseForTest(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte("[]"))
	}))

	_, err := g.Upsert(context.Background(), models.SanitizeTask(models.RawTask{Title: "x"}))
	var syncErr *domain.RemoteSyncError
	require.ErrorAs(t, err, &syncErr)
	assert.Equal(t, "supabase", syncErr.Backend)
}

func TestSupabaseDelete(t *testing.T) {
	var byRowID, byTaskID int
	g := newSupabaseForTest(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodDelete, r.Method)
		if id := r.URL.Query().Get("id"); id != "" {
			assert.Equal(t, "eq.42", id)
			byRowID++
		} else {
			assert.Equal(t, "eq.t9", r.URL.Query().Get("task_id"))
			byTaskID++
		}
		w.WriteHeader(http.StatusNoContent)
	}))

	require.NoError(t, g.Delete(context.Background(), "t1", "42"))
	require.NoError(t, g.Delete(context.Background(), "t9", ""))
	assert.Equal(t, 1, byRowID)
	assert.Equal(t, 1, byTaskID)
}

func TestSupabaseConfigured(t *testing.T) {
	logger := zerolog.New(io.Discard)

	full := config.RemoteConfig{Supabase: config.SupabaseConfig{URL: "https://x.supabase.co", APIKey: "k", Table: "tasks"}}
	assert.True(t, NewSupabaseGateway(full, &logger).Configured())

	missing := config.RemoteConfig{Supabase: config.SupabaseConfig{URL: "https://x.supabase.co"}}
	assert.False(t, NewSupabaseGateway(missing, &logger).Configured())
}

func TestSupabaseRowMapping(t *testing.T) {
	g := newSupabaseForTest(t, http.NotFoundHandler())

	task := models.SanitizeTask(models.RawTask{ID: "t1", Title: "Mapped", Status: "completed"})
	row := rowFromTask(task)
	assert.Equal(t, "t1", row.TaskID)
	assert.Equal(t, models.StatusCompleted, row.Status)

	back := g.taskFromRow(taskRow{ID: 7, TaskID: "t1", Title: "Mapped", Status: "completed", Priority: "low"})
	assert.Equal(t, "t1", back.ID)
	assert.Equal(t, strconv.Itoa(7), back.RemoteID)
	assert.Equal(t, models.PriorityLow, back.Priority)
}
