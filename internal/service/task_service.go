package service

import (
	"context"
	"strings"
	"time"
	"unicode/utf8"

	"vestry/internal/domain"
	"vestry/internal/events"
	"vestry/internal/models"

	"github.com/rs/zerolog"
)

// TaskService владеет жизненным циклом задач поверх локального хранилища.
// Every write path goes through the sanitizer and leaves the record dirty so
// the reconciler picks it up on the next push.
type TaskService struct {
	store    domain.TaskStore
	eventBus domain.EventPublisher
	logger   *zerolog.Logger
}

func NewTaskService(store domain.TaskStore, eventBus domain.EventPublisher, logger *zerolog.Logger) *TaskService {
	return &TaskService{
		store:    store,
		eventBus: eventBus,
		logger:   logger,
	}
}

// ValidateTask rejects input that sanitization would otherwise silently
// repair. Form submissions get told what is wrong; imports just get clamped.
func (s *TaskService) ValidateTask(raw models.RawTask) error {
	title := strings.TrimSpace(raw.Title)
	if title == "" {
		return &domain.ValidationError{Field: "title", Reason: "must not be empty"}
	}
	if utf8.RuneCountInString(title) > models.MaxTitleLength {
		return &domain.ValidationError{Field: "title", Reason: "too long"}
	}
	if utf8.RuneCountInString(raw.Notes) > models.MaxNotesLength {
		return &domain.ValidationError{Field: "notes", Reason: "too long"}
	}
	if raw.DueDate != "" {
		if _, err := time.Parse(models.DateLayout, strings.TrimSpace(raw.DueDate)); err != nil {
			return &domain.ValidationError{Field: "due_date", Reason: "must be YYYY-MM-DD"}
		}
	}
	if raw.Status != "" && !models.ValidStatus(strictValue(raw.Status)) {
		return &domain.ValidationError{Field: "status", Reason: "unknown status"}
	}
	if raw.Priority != "" && !models.ValidPriority(strictValue(raw.Priority)) {
		return &domain.ValidationError{Field: "priority", Reason: "unknown priority"}
	}
	return nil
}

// strictValue lowercases form input for exact enum comparison. Unlike the
// sanitizer it never repairs an unknown value, it lets validation reject it.
func strictValue(v string) string {
	return strings.ReplaceAll(strings.ToLower(strings.TrimSpace(v)), " ", "_")
}

func (s *TaskService) CreateTask(ctx context.Context, raw models.RawTask) (*models.Task, error) {
	if err := s.ValidateTask(raw); err != nil {
		return nil, err
	}

	// Новые задачи всегда грязные до первой успешной синхронизации.
	raw.ID = ""
	raw.RemoteID = ""
	raw.Dirty = nil
	raw.LastSyncedAt = nil
	raw.CreatedAt = nil
	raw.UpdatedAt = nil

	task := models.SanitizeTask(raw)
	if err := s.store.SaveTask(ctx, task); err != nil {
		return nil, err
	}

	s.publishEvent(events.EventTaskCreated, task)
	return &task, nil
}

// UpdateTask merges the patch onto the stored record. Fields the patch does
// not carry keep their stored values, so a title-only edit cannot wipe notes
// or the assignee.
func (s *TaskService) UpdateTask(ctx context.Context, id string, patch models.TaskPatch) (*models.Task, error) {
	existing, err := s.store.GetTask(ctx, id)
	if err != nil {
		return nil, err
	}
	if existing == nil {
		return nil, &domain.NotFoundError{Kind: "task", ID: id}
	}

	// Identity, creator and sync history come from the stored record, never
	// from the caller. The edit itself marks the task dirty again.
	raw := existing.Raw()
	patch.Apply(&raw)

	if err := s.ValidateTask(raw); err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	raw.UpdatedAt = &now
	dirty := true
	raw.Dirty = &dirty

	task := models.SanitizeTask(raw)
	if err := s.store.SaveTask(ctx, task); err != nil {
		return nil, err
	}

	s.publishEvent(events.EventTaskUpdated, task)
	return &task, nil
}

// MarkTaskStatus is the status-only shortcut used by list views.
func (s *TaskService) MarkTaskStatus(ctx context.Context, id, status string) (*models.Task, error) {
	existing, err := s.store.GetTask(ctx, id)
	if err != nil {
		return nil, err
	}
	if existing == nil {
		return nil, &domain.NotFoundError{Kind: "task", ID: id}
	}

	normalized := strictValue(status)
	if !models.ValidStatus(normalized) {
		return nil, &domain.ValidationError{Field: "status", Reason: "unknown status"}
	}

	raw := existing.Raw()
	raw.Status = normalized
	now := time.Now().UTC()
	raw.UpdatedAt = &now
	dirty := true
	raw.Dirty = &dirty

	task := models.SanitizeTask(raw)
	if err := s.store.SaveTask(ctx, task); err != nil {
		return nil, err
	}

	s.publishEvent(events.EventTaskUpdated, task)
	return &task, nil
}

// DeleteTask removes the task locally right away. A task that already has a
// remote row leaves a deletion marker behind so the next push can clean up.
func (s *TaskService) DeleteTask(ctx context.Context, id string) error {
	existing, err := s.store.GetTask(ctx, id)
	if err != nil {
		return err
	}
	if existing == nil {
		return &domain.NotFoundError{Kind: "task", ID: id}
	}

	if existing.RemoteID != "" {
		if err := s.store.QueueTaskDeletion(ctx, existing.ID, existing.RemoteID); err != nil {
			return err
		}
	}

	if err := s.store.DeleteTask(ctx, id); err != nil {
		return err
	}

	s.publishEvent(events.EventTaskDeleted, *existing)
	return nil
}

func (s *TaskService) GetTask(ctx context.Context, id string) (*models.Task, error) {
	task, err := s.store.GetTask(ctx, id)
	if err != nil {
		return nil, err
	}
	if task == nil {
		return nil, &domain.NotFoundError{Kind: "task", ID: id}
	}
	return task, nil
}

func (s *TaskService) GetAllTasks(ctx context.Context) ([]models.Task, error) {
	return s.store.GetAllTasks(ctx)
}

func (s *TaskService) GetDirtyTasks(ctx context.Context) ([]models.Task, error) {
	return s.store.GetDirtyTasks(ctx)
}

// ClearAllTaskData wipes tasks, the deletion queue and the watermark. The
// member directory and finances are untouched.
func (s *TaskService) ClearAllTaskData(ctx context.Context) error {
	return s.store.ClearAllTaskData(ctx)
}

func (s *TaskService) publishEvent(eventType string, task models.Task) {
	if s.eventBus == nil {
		return
	}

	payload := events.TaskEventPayload{
		TaskID:    task.ID,
		Title:     task.Title,
		Status:    task.Status,
		Priority:  task.Priority,
		ChangedBy: task.CreatedBy,
	}

	if err := s.eventBus.PublishJSON(eventType, payload); err != nil {
		s.logger.Error().Err(err).Str("event_type", eventType).Str("task_id", task.ID).Msg("publish event error")
	}
}
