package repository

import (
	"context"
	"sync"

	"vestry/internal/models"
)

// MemoryStatusRepository is the process-local fallback when Redis is not
// configured or unreachable.
type MemoryStatusRepository struct {
	mu     sync.RWMutex
	status *models.SyncStatus
}

func NewMemoryStatusRepository() *MemoryStatusRepository {
	return &MemoryStatusRepository{}
}

func (r *MemoryStatusRepository) SetStatus(ctx context.Context, status *models.SyncStatus) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	copied := *status
	r.status = &copied
	return nil
}

func (r *MemoryStatusRepository) GetStatus(ctx context.Context) (*models.SyncStatus, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.status == nil {
		return nil, nil
	}
	copied := *r.status
	return &copied, nil
}
