package remote

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"vestry/internal/config"
	"vestry/internal/domain"
	"vestry/internal/models"

	"github.com/rs/zerolog"
)

// SupabaseGateway stores tasks as rows of a Supabase table, reached through
// the PostgREST endpoint with the project API key.
type SupabaseGateway struct {
	client
	cfg config.SupabaseConfig
}

func NewSupabaseGateway(cfg config.RemoteConfig, logger *zerolog.Logger) *SupabaseGateway {
	return &SupabaseGateway{
		client: newClient(cfg, logger),
		cfg:    cfg.Supabase,
	}
}

func (g *SupabaseGateway) Name() string { return "supabase" }

func (g *SupabaseGateway) Configured() bool {
	return g.cfg.URL != "" && g.cfg.APIKey != "" && g.cfg.Table != ""
}

// taskRow mirrors the Supabase table columns.
type taskRow struct {
	ID         int64  `json:"id,omitempty"` // row pk assigned by the database
	TaskID     string `json:"task_id"`
	Title      string `json:"title"`
	Notes      string `json:"notes,omitempty"`
	DueDate    string `json:"due_date,omitempty"`
	AssignedTo string `json:"assigned_to,omitempty"`
	Status     string `json:"status"`
	Priority   string `json:"priority"`
	CreatedBy  string `json:"created_by,omitempty"`
	CreatedAt  string `json:"created_at,omitempty"`
	UpdatedAt  string `json:"updated_at,omitempty"`
}

func (g *SupabaseGateway) LoadAll(ctx context.Context) ([]models.Task, error) {
	var rows []taskRow
	url := fmt.Sprintf("%s/rest/v1/%s?select=*", strings.TrimRight(g.cfg.URL, "/"), g.cfg.Table)
	if _, err := g.doJSON(ctx, http.MethodGet, url, g.headers(nil), nil, &rows); err != nil {
		return nil, &domain.RemoteSyncError{Backend: g.Name(), Op: "load", Cause: err}
	}

	tasks := make([]models.Task, 0, len(rows))
	for _, row := range rows {
		tasks = append(tasks, g.taskFromRow(row))
	}
	return tasks, nil
}

func (g *SupabaseGateway) Upsert(ctx context.Context, task models.Task) (string, error) {
	row := rowFromTask(task)
	base := strings.TrimRight(g.cfg.URL, "/")

	if task.RemoteID == "" {
		var created []taskRow
		url := fmt.Sprintf("%s/rest/v1/%s", base, g.cfg.Table)
		headers := g.headers(map[string]string{"Prefer": "return=representation"})
		if _, err := g.doJSON(ctx, http.MethodPost, url, headers, row, &created); err != nil {
			return "", &domain.RemoteSyncError{Backend: g.Name(), Op: "upsert", Cause: err}
		}
		if len(created) == 0 {
			return "", &domain.RemoteSyncError{Backend: g.Name(), Op: "upsert", Cause: fmt.Errorf("insert returned no representation")}
		}
		return fmt.Sprintf("%d", created[0].ID), nil
	}

	url := fmt.Sprintf("%s/rest/v1/%s?id=eq.%s", base, g.cfg.Table, task.RemoteID)
	if _, err := g.doJSON(ctx, http.MethodPatch, url, g.headers(nil), row, nil); err != nil {
		return "", &domain.RemoteSyncError{Backend: g.Name(), Op: "upsert", Cause: err}
	}
	return task.RemoteID, nil
}

// Delete removes the row. PostgREST treats deleting an absent row as an
// empty success, which matches the gateway contract.
func (g *SupabaseGateway) Delete(ctx context.Context, id, remoteID string) error {
	base := strings.TrimRight(g.cfg.URL, "/")

	var url string
	if remoteID != "" {
		url = fmt.Sprintf("%s/rest/v1/%s?id=eq.%s", base, g.cfg.Table, remoteID)
	} else {
		// Never synced under a known row id; clean up by local task id.
		url = fmt.Sprintf("%s/rest/v1/%s?task_id=eq.%s", base, g.cfg.Table, id)
	}

	if _, err := g.doJSON(ctx, http.MethodDelete, url, g.headers(nil), nil, nil, http.StatusNotFound); err != nil {
		return &domain.RemoteSyncError{Backend: g.Name(), Op: "delete", Cause: err}
	}
	return nil
}

func (g *SupabaseGateway) headers(extra map[string]string) map[string]string {
	headers := map[string]string{
		"apikey":        g.cfg.APIKey,
		"Authorization": "Bearer " + g.cfg.APIKey,
	}
	for k, v := range extra {
		headers[k] = v
	}
	return headers
}

func (g *SupabaseGateway) taskFromRow(row taskRow) models.Task {
	raw := models.RawTask{
		ID:         row.TaskID,
		Title:      row.Title,
		Notes:      row.Notes,
		DueDate:    row.DueDate,
		AssignedTo: row.AssignedTo,
		Status:     row.Status,
		Priority:   row.Priority,
		CreatedBy:  row.CreatedBy,
	}
	if row.ID != 0 {
		raw.RemoteID = fmt.Sprintf("%d", row.ID)
	}
	if t, err := time.Parse(time.RFC3339, row.CreatedAt); err == nil {
		raw.CreatedAt = &t
	}
	if t, err := time.Parse(time.RFC3339, row.UpdatedAt); err == nil {
		raw.UpdatedAt = &t
	}
	return models.SanitizeTask(raw)
}

func rowFromTask(task models.Task) taskRow {
	return taskRow{
		TaskID:     task.ID,
		Title:      task.Title,
		Notes:      task.Notes,
		DueDate:    task.DueDate,
		AssignedTo: task.AssignedTo,
		Status:     task.Status,
		Priority:   task.Priority,
		CreatedBy:  task.CreatedBy,
		CreatedAt:  task.CreatedAt.UTC().Format(time.RFC3339),
		UpdatedAt:  task.UpdatedAt.UTC().Format(time.RFC3339),
	}
}
