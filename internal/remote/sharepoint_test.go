package remote

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"vestry/internal/config"
	"vestry/internal/domain"
	"vestry/internal/identity"
	"vestry/internal/models"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testRemoteConfig() config.RemoteConfig {
	return config.RemoteConfig{
		Backend:    "sharepoint",
		SharePoint: config.SharePointConfig{SiteID: "site-1", ListID: "list-1"},
		RPS:        100,
		Burst:      100,
	}
}

func newSharePointForTest(t *testing.T, handler http.Handler) *SharePointGateway {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	logger := zerolog.New(io.Discard)
	g := NewSharePointGateway(testRemoteConfig(), identity.StaticCredentials{Value: "test-token"}, &logger)
	g.baseURL = server.URL
	return g
}

func TestSharePointLoadAllPaged(t *testing.T) {
	var pageTwoURL string
	mux := http.NewServeMux()
	mux.HandleFunc("/sites/site-1/lists/list-1/items", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer test-token", r.Header.Get("Authorization"))
		_ = json.NewEncoder(w).Encode(map[string]any{
			"value": []map[string]any{
				{"id": "1", "fields": map[string]any{
					"Title": "First", "TaskID": "t1", "TaskStatus": "completed",
					"UpdatedAtISO": "2026-08-30T10:00:00Z",
				}},
			},
			"@odata.nextLink": pageTwoURL,
		})
	})
	mux.HandleFunc("/page2", func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{
			"value": []map[string]any{
				{"id": "2", "fields": map[string]any{"Title": "Second", "TaskID": "t2"}},
			},
		})
	})

	g := newSharePointForTest(t, mux)
	pageTwoURL = g.baseURL + "/page2"

	tasks, err := g.LoadAll(context.Background())
	require.NoError(t, err)
	require.Len(t, tasks, 2)

	assert.Equal(t, "t1", tasks[0].ID)
	assert.Equal(t, "1", tasks[0].RemoteID)
	assert.Equal(t, models.StatusCompleted, tasks[0].Status)
	assert.Equal(t, "t2", tasks[1].ID)
	assert.Equal(t, models.StatusPending, tasks[1].Status, "unknown status sanitizes to pending")
}

func TestSharePointUpsertCreates(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/sites/site-1/lists/list-1/items", func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)

		var body struct {
			Fields listItemFields `json:"fields"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "Prepare minutes", body.Fields.Title)
		assert.Equal(t, "t1", body.Fields.TaskID)

		w.WriteHeader(http.StatusCreated)
		_ = json.NewEncoder(w).Encode(map[string]any{"id": "77"})
	})

	g := newSharePointForTest(t, mux)
	task := models.SanitizeTask(models.RawTask{ID: "t1", Title: "Prepare minutes"})

	remoteID, err := g.Upsert(context.Background(), task)
	require.NoError(t, err)
	assert.Equal(t, "77", remoteID)
}

func TestSharePointUpsertUpdates(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/sites/site-1/lists/list-1/items/77/fields", func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPatch, r.Method)
		w.WriteHeader(http.StatusOK)
	})

	g := newSharePointForTest(t, mux)
	task := models.SanitizeTask(models.RawTask{ID: "t1", RemoteID: "77", Title: "Edited"})

	remoteID, err := g.Upsert(context.Background(), task)
	require.NoError(t, err)
	assert.Equal(t, "77", remoteID)
}

func TestSharePointUpsertFailureWrapped(t *testing.T) {
	g := newSharePointForTest(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "throttled", http.StatusTooManyRequests)
	}))

	_, err := g.Upsert(context.Background(), models.SanitizeTask(models.RawTask{Title: "x"}))
	var syncErr *domain.RemoteSyncError
	require.ErrorAs(t, err, &syncErr)
	assert.Equal(t, "sharepoint", syncErr.Backend)
	assert.Equal(t, "upsert", syncErr.Op)
}

func TestSharePointDelete(t *testing.T) {
	deleted := 0
	mux := http.NewServeMux()
	mux.HandleFunc("/sites/site-1/lists/list-1/items/", func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodDelete, r.Method)
		deleted++
		switch {
		case deleted == 1:
			w.WriteHeader(http.StatusNoContent)
		default:
			// Already gone; the gateway must treat this as success.
			http.Error(w, "not found", http.StatusNotFound)
		}
	})

	g := newSharePointForTest(t, mux)

	require.NoError(t, g.Delete(context.Background(), "t1", "77"))
	require.NoError(t, g.Delete(context.Background(), "t1", "77"))
	assert.Equal(t, 2, deleted)

	// No remote row, nothing to call.
	require.NoError(t, g.Delete(context.Background(), "t2", ""))
	assert.Equal(t, 2, deleted)
}

func TestSharePointConfigured(t *testing.T) {
	logger := zerolog.New(io.Discard)

	g := NewSharePointGateway(testRemoteConfig(), identity.StaticCredentials{Value: "token"}, &logger)
	assert.True(t, g.Configured())

	g = NewSharePointGateway(testRemoteConfig(), identity.StaticCredentials{}, &logger)
	assert.False(t, g.Configured(), "missing credentials downgrade to not configured")

	cfg := testRemoteConfig()
	cfg.SharePoint.ListID = ""
	g = NewSharePointGateway(cfg, identity.StaticCredentials{Value: "token"}, &logger)
	assert.False(t, g.Configured())
}

func TestGatewaySelection(t *testing.T) {
	logger := zerolog.New(io.Discard)
	creds := identity.StaticCredentials{Value: "token"}

	assert.Equal(t, "sharepoint", New(testRemoteConfig(), creds, &logger).Name())
	assert.Equal(t, "supabase", New(config.RemoteConfig{Backend: "supabase"}, creds, &logger).Name())
	assert.Equal(t, "none", New(config.RemoteConfig{}, creds, &logger).Name())

	disabled := New(config.RemoteConfig{}, creds, &logger)
	assert.False(t, disabled.Configured())
	_, err := disabled.Upsert(context.Background(), models.Task{})
	assert.Error(t, err)
	assert.Error(t, disabled.Delete(context.Background(), "t1", "1"))
	tasks, err := disabled.LoadAll(context.Background())
	assert.NoError(t, err)
	assert.Empty(t, tasks)
}
