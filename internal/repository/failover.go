package repository

import (
	"context"
	"sync/atomic"
	"time"

	"vestry/internal/domain"
	"vestry/internal/models"

	"github.com/rs/zerolog"
)

// FailoverStatusRepository prefers the primary (Redis) and falls back to the
// in-memory repository when it errors, retrying the primary after a minute.
type FailoverStatusRepository struct {
	primary   domain.StatusRepository
	fallback  domain.StatusRepository
	logger    *zerolog.Logger
	isDown    atomic.Bool
	lastCheck atomic.Int64 // unix nanos of the last failed primary attempt
}

func NewFailoverStatusRepository(primary, fallback domain.StatusRepository, logger *zerolog.Logger) *FailoverStatusRepository {
	return &FailoverStatusRepository{
		primary:  primary,
		fallback: fallback,
		logger:   logger,
	}
}

func (r *FailoverStatusRepository) SetStatus(ctx context.Context, status *models.SyncStatus) error {
	if r.primaryUsable() {
		if err := r.primary.SetStatus(ctx, status); err == nil {
			return r.fallback.SetStatus(ctx, status) // keep the fallback warm
		} else {
			r.markDown(err)
		}
	}
	return r.fallback.SetStatus(ctx, status)
}

func (r *FailoverStatusRepository) GetStatus(ctx context.Context) (*models.SyncStatus, error) {
	if r.primaryUsable() {
		status, err := r.primary.GetStatus(ctx)
		if err == nil {
			return status, nil
		}
		r.markDown(err)
	}
	return r.fallback.GetStatus(ctx)
}

func (r *FailoverStatusRepository) primaryUsable() bool {
	if !r.isDown.Load() {
		return true
	}
	// Retry the primary after a minute of being down.
	if time.Since(time.Unix(0, r.lastCheck.Load())) > time.Minute {
		r.isDown.Store(false)
		return true
	}
	return false
}

func (r *FailoverStatusRepository) markDown(err error) {
	r.logger.Error().Err(err).Msg("primary status repository failed, falling back to memory")
	r.isDown.Store(true)
	r.lastCheck.Store(time.Now().UnixNano())
}
