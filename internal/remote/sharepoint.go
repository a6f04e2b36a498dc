package remote

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"vestry/internal/config"
	"vestry/internal/domain"
	"vestry/internal/models"

	"github.com/rs/zerolog"
)

const graphBaseURL = "https://graph.microsoft.com/v1.0"

// SharePointGateway stores tasks as items of a SharePoint list, reached
// through the Microsoft Graph REST API with an app-only token.
type SharePointGateway struct {
	client
	cfg     config.SharePointConfig
	creds   domain.Credentials
	baseURL string
}

func NewSharePointGateway(cfg config.RemoteConfig, creds domain.Credentials, logger *zerolog.Logger) *SharePointGateway {
	return &SharePointGateway{
		client:  newClient(cfg, logger),
		cfg:     cfg.SharePoint,
		creds:   creds,
		baseURL: graphBaseURL,
	}
}

func (g *SharePointGateway) Name() string { return "sharepoint" }

// Configured requires both the list coordinates and a signed-in identity.
func (g *SharePointGateway) Configured() bool {
	return g.cfg.SiteID != "" && g.cfg.ListID != "" && g.creds != nil && g.creds.SignedIn()
}

// listItemFields is the task projection stored in SharePoint list columns.
type listItemFields struct {
	Title        string `json:"Title,omitempty"`
	TaskID       string `json:"TaskID,omitempty"`
	Notes        string `json:"Notes,omitempty"`
	DueDate      string `json:"DueDate,omitempty"`
	AssignedTo   string `json:"AssignedTo,omitempty"`
	TaskStatus   string `json:"TaskStatus,omitempty"`
	TaskPriority string `json:"TaskPriority,omitempty"`
	CreatedBy    string `json:"Author0,omitempty"`
	CreatedAtISO string `json:"CreatedAtISO,omitempty"`
	UpdatedAtISO string `json:"UpdatedAtISO,omitempty"`
}

type listItem struct {
	ID     string         `json:"id"`
	Fields listItemFields `json:"fields"`
}

func (g *SharePointGateway) LoadAll(ctx context.Context) ([]models.Task, error) {
	headers, err := g.authHeaders(ctx)
	if err != nil {
		return nil, &domain.RemoteSyncError{Backend: g.Name(), Op: "load", Cause: err}
	}

	var tasks []models.Task
	url := fmt.Sprintf("%s/sites/%s/lists/%s/items?expand=fields", g.baseURL, g.cfg.SiteID, g.cfg.ListID)

	// Graph pages results; follow @odata.nextLink until exhausted.
	for url != "" {
		var page struct {
			Value    []listItem `json:"value"`
			NextLink string     `json:"@odata.nextLink"`
		}
		if _, err := g.doJSON(ctx, http.MethodGet, url, headers, nil, &page); err != nil {
			return nil, &domain.RemoteSyncError{Backend: g.Name(), Op: "load", Cause: err}
		}
		for _, item := range page.Value {
			tasks = append(tasks, g.taskFromItem(item))
		}
		url = page.NextLink
	}
	return tasks, nil
}

func (g *SharePointGateway) Upsert(ctx context.Context, task models.Task) (string, error) {
	headers, err := g.authHeaders(ctx)
	if err != nil {
		return "", &domain.RemoteSyncError{Backend: g.Name(), Op: "upsert", Cause: err}
	}

	fields := fieldsFromTask(task)

	if task.RemoteID == "" {
		var created listItem
		url := fmt.Sprintf("%s/sites/%s/lists/%s/items", g.baseURL, g.cfg.SiteID, g.cfg.ListID)
		body := map[string]interface{}{"fields": fields}
		if _, err := g.doJSON(ctx, http.MethodPost, url, headers, body, &created); err != nil {
			return "", &domain.RemoteSyncError{Backend: g.Name(), Op: "upsert", Cause: err}
		}
		return created.ID, nil
	}

	url := fmt.Sprintf("%s/sites/%s/lists/%s/items/%s/fields", g.baseURL, g.cfg.SiteID, g.cfg.ListID, task.RemoteID)
	if _, err := g.doJSON(ctx, http.MethodPatch, url, headers, fields, nil); err != nil {
		return "", &domain.RemoteSyncError{Backend: g.Name(), Op: "upsert", Cause: err}
	}
	return task.RemoteID, nil
}

// Delete removes the list item. A 404 means the row is already gone, which
// counts as success.
func (g *SharePointGateway) Delete(ctx context.Context, id, remoteID string) error {
	if remoteID == "" {
		return nil
	}
	headers, err := g.authHeaders(ctx)
	if err != nil {
		return &domain.RemoteSyncError{Backend: g.Name(), Op: "delete", Cause: err}
	}

	url := fmt.Sprintf("%s/sites/%s/lists/%s/items/%s", g.baseURL, g.cfg.SiteID, g.cfg.ListID, remoteID)
	if _, err := g.doJSON(ctx, http.MethodDelete, url, headers, nil, nil, http.StatusNotFound); err != nil {
		return &domain.RemoteSyncError{Backend: g.Name(), Op: "delete", Cause: err}
	}
	return nil
}

func (g *SharePointGateway) authHeaders(ctx context.Context) (map[string]string, error) {
	token, err := g.creds.Token(ctx)
	if err != nil {
		return nil, err
	}
	return map[string]string{"Authorization": "Bearer " + token}, nil
}

func (g *SharePointGateway) taskFromItem(item listItem) models.Task {
	raw := models.RawTask{
		ID:         item.Fields.TaskID,
		RemoteID:   item.ID,
		Title:      item.Fields.Title,
		Notes:      item.Fields.Notes,
		DueDate:    item.Fields.DueDate,
		AssignedTo: item.Fields.AssignedTo,
		Status:     item.Fields.TaskStatus,
		Priority:   item.Fields.TaskPriority,
		CreatedBy:  item.Fields.CreatedBy,
	}
	if t, err := time.Parse(time.RFC3339, item.Fields.CreatedAtISO); err == nil {
		raw.CreatedAt = &t
	}
	if t, err := time.Parse(time.RFC3339, item.Fields.UpdatedAtISO); err == nil {
		raw.UpdatedAt = &t
	}
	return models.SanitizeTask(raw)
}

func fieldsFromTask(task models.Task) listItemFields {
	return listItemFields{
		Title:        task.Title,
		TaskID:       task.ID,
		Notes:        task.Notes,
		DueDate:      task.DueDate,
		AssignedTo:   task.AssignedTo,
		TaskStatus:   task.Status,
		TaskPriority: task.Priority,
		CreatedBy:    task.CreatedBy,
		CreatedAtISO: task.CreatedAt.UTC().Format(time.RFC3339),
		UpdatedAtISO: task.UpdatedAt.UTC().Format(time.RFC3339),
	}
}
