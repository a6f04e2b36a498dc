package database

import (
	"context"
	"sort"
	"sync"
	"time"

	"vestry/internal/models"
)

// MemoryStore is the fallback when SQLite cannot be opened. Same contracts,
// no durability: data lives for the lifetime of the process only.
type MemoryStore struct {
	mu            sync.RWMutex
	tasks         map[string]models.Task
	deletions     map[string]models.QueuedTaskDeletion
	lastSyncedAt  *time.Time
	members       map[string]models.Member
	contributions map[string]models.Contribution
	attendance    map[string]models.AttendanceRecord
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		tasks:         make(map[string]models.Task),
		deletions:     make(map[string]models.QueuedTaskDeletion),
		members:       make(map[string]models.Member),
		contributions: make(map[string]models.Contribution),
		attendance:    make(map[string]models.AttendanceRecord),
	}
}

func (s *MemoryStore) GetAllTasks(ctx context.Context) ([]models.Task, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	tasks := make([]models.Task, 0, len(s.tasks))
	for _, task := range s.tasks {
		tasks = append(tasks, models.SanitizeTask(task.Raw()))
	}
	sort.Slice(tasks, func(i, j int) bool {
		if !tasks[i].UpdatedAt.Equal(tasks[j].UpdatedAt) {
			return tasks[i].UpdatedAt.After(tasks[j].UpdatedAt)
		}
		return tasks[i].ID < tasks[j].ID
	})
	return tasks, nil
}

func (s *MemoryStore) GetTask(ctx context.Context, id string) (*models.Task, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	task, ok := s.tasks[id]
	if !ok {
		return nil, nil
	}
	return &task, nil
}

func (s *MemoryStore) SaveTask(ctx context.Context, task models.Task) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tasks[task.ID] = task
	return nil
}

func (s *MemoryStore) UpsertManyTasks(ctx context.Context, tasks []models.Task) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, task := range tasks {
		s.tasks[task.ID] = task
	}
	return nil
}

func (s *MemoryStore) DeleteTask(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.tasks, id)
	return nil
}

func (s *MemoryStore) GetDirtyTasks(ctx context.Context) ([]models.Task, error) {
	all, err := s.GetAllTasks(ctx)
	if err != nil {
		return nil, err
	}
	var dirty []models.Task
	for _, task := range all {
		if task.Sync.Dirty {
			dirty = append(dirty, task)
		}
	}
	return dirty, nil
}

func (s *MemoryStore) MarkTaskSynced(ctx context.Context, id string, syncedAt time.Time, remoteID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	task, ok := s.tasks[id]
	if !ok {
		// Deleted concurrently; the queued deletion wins.
		return nil
	}
	synced := syncedAt.UTC()
	task.Sync = models.SyncMeta{Dirty: false, LastSyncedAt: &synced}
	if remoteID != "" {
		task.RemoteID = remoteID
	}
	s.tasks[id] = task
	return nil
}

func (s *MemoryStore) QueueTaskDeletion(ctx context.Context, id, remoteID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.deletions[id] = models.QueuedTaskDeletion{ID: id, RemoteID: remoteID, QueuedAt: time.Now().UTC()}
	return nil
}

func (s *MemoryStore) GetQueuedTaskDeletions(ctx context.Context) ([]models.QueuedTaskDeletion, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	queued := make([]models.QueuedTaskDeletion, 0, len(s.deletions))
	for _, entry := range s.deletions {
		queued = append(queued, entry)
	}
	sort.Slice(queued, func(i, j int) bool { return queued[i].QueuedAt.Before(queued[j].QueuedAt) })
	return queued, nil
}

func (s *MemoryStore) ClearQueuedTaskDeletion(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.deletions, id)
	return nil
}

func (s *MemoryStore) SetLastSyncedAt(ctx context.Context, ts time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	utc := ts.UTC()
	s.lastSyncedAt = &utc
	return nil
}

func (s *MemoryStore) GetLastSyncedAt(ctx context.Context) (*time.Time, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.lastSyncedAt, nil
}

func (s *MemoryStore) ClearAllTaskData(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tasks = make(map[string]models.Task)
	s.deletions = make(map[string]models.QueuedTaskDeletion)
	s.lastSyncedAt = nil
	return nil
}

func (s *MemoryStore) GetAllMembers(ctx context.Context) ([]models.Member, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	members := make([]models.Member, 0, len(s.members))
	for _, m := range s.members {
		members = append(members, m)
	}
	sort.Slice(members, func(i, j int) bool {
		if members[i].LastName != members[j].LastName {
			return members[i].LastName < members[j].LastName
		}
		return members[i].FirstName < members[j].FirstName
	})
	return members, nil
}

func (s *MemoryStore) GetMember(ctx context.Context, id string) (*models.Member, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	m, ok := s.members[id]
	if !ok {
		return nil, nil
	}
	return &m, nil
}

func (s *MemoryStore) SaveMember(ctx context.Context, member models.Member) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.members[member.ID] = member
	return nil
}

func (s *MemoryStore) DeleteMember(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.members, id)
	return nil
}

func (s *MemoryStore) GetContributions(ctx context.Context, from, to string) ([]models.Contribution, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []models.Contribution
	for _, c := range s.contributions {
		if from != "" && c.Date < from {
			continue
		}
		if to != "" && c.Date > to {
			continue
		}
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date > out[j].Date })
	return out, nil
}

func (s *MemoryStore) SaveContribution(ctx context.Context, c models.Contribution) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.contributions[c.ID] = c
	return nil
}

func (s *MemoryStore) DeleteContribution(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.contributions, id)
	return nil
}

func (s *MemoryStore) GetAttendance(ctx context.Context, from, to string) ([]models.AttendanceRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []models.AttendanceRecord
	for _, rec := range s.attendance {
		if from != "" && rec.ServiceDate < from {
			continue
		}
		if to != "" && rec.ServiceDate > to {
			continue
		}
		out = append(out, rec)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ServiceDate > out[j].ServiceDate })
	return out, nil
}

func (s *MemoryStore) SaveAttendance(ctx context.Context, rec models.AttendanceRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.attendance[rec.ID] = rec
	return nil
}

func (s *MemoryStore) Close() error { return nil }
