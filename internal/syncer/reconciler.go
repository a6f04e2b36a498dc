package syncer

import (
	"context"
	"encoding/json"
	"sync/atomic"
	"time"

	"vestry/internal/domain"
	"vestry/internal/events"
	"vestry/internal/metrics"
	"vestry/internal/models"

	"github.com/rs/zerolog"
)

// ConnectivitySource reports the current offline flag. The monitor implements
// it; tests substitute a stub.
type ConnectivitySource interface {
	IsOffline() bool
}

// Reconciler владеет циклом синхронизации: гидратация из удалённого
// хранилища и отправка локальных изменений. A single boolean guard rejects
// overlapping cycles instead of queueing them.
type Reconciler struct {
	store        domain.TaskStore
	gateway      domain.RemoteGateway
	creds        domain.Credentials
	connectivity ConnectivitySource
	statusRepo   domain.StatusRepository
	logger       *zerolog.Logger

	inFlight atomic.Bool
	autoSync bool
}

func NewReconciler(
	store domain.TaskStore,
	gateway domain.RemoteGateway,
	creds domain.Credentials,
	connectivity ConnectivitySource,
	statusRepo domain.StatusRepository,
	autoSync bool,
	logger *zerolog.Logger,
) *Reconciler {
	return &Reconciler{
		store:        store,
		gateway:      gateway,
		creds:        creds,
		connectivity: connectivity,
		statusRepo:   statusRepo,
		autoSync:     autoSync,
		logger:       logger,
	}
}

// SubscribeEvents wires the reconciler to connectivity transitions and the
// manual sync trigger.
func (r *Reconciler) SubscribeEvents(bus *events.EventBus) {
	bus.Subscribe(events.EventWentOnline, func(event *events.Event) error {
		if !r.autoSync {
			return nil
		}
		go func() {
			if err := r.Sync(context.Background()); err != nil {
				r.logger.Warn().Err(err).Msg("auto sync after reconnect failed")
			}
		}()
		return nil
	})

	bus.Subscribe(events.EventSyncRequested, func(event *events.Event) error {
		var payload events.SyncRequestPayload
		_ = json.Unmarshal(event.Payload, &payload)
		go func() {
			if err := r.Sync(context.Background()); err != nil {
				r.logger.Warn().Err(err).Str("requested_by", payload.RequestedBy).Msg("manual sync failed")
			}
		}()
		return nil
	})
}

// Sync runs hydration followed by push as one guarded cycle. A cycle already
// in flight bounces the request with domain.ErrSyncInProgress and makes no
// remote calls.
func (r *Reconciler) Sync(ctx context.Context) error {
	// The stored status belongs to the in-flight cycle; a bounced request
	// only reports through its error return.
	if !r.inFlight.CompareAndSwap(false, true) {
		return domain.ErrSyncInProgress
	}
	defer r.inFlight.Store(false)

	status := &models.SyncStatus{State: models.SyncStateRunning, StartedAt: time.Now().UTC()}
	r.reportStatus(ctx, status)

	if skip, reason := r.shouldSkip(); skip {
		r.finish(ctx, status, models.SyncStateSkipped, reason)
		return nil
	}

	hydrated, err := r.hydrate(ctx)
	if err != nil {
		r.logger.Error().Err(err).Msg("hydration failed")
		r.finish(ctx, status, models.SyncStateFailed, err.Error())
		return nil
	}
	status.Hydrated = hydrated

	r.push(ctx, status)
	return nil
}

// Push uploads dirty tasks and queued deletions without hydrating first. Used
// by flows that only need local changes out, such as reconnect with auto sync
// disabled elsewhere.
func (r *Reconciler) Push(ctx context.Context) error {
	if !r.inFlight.CompareAndSwap(false, true) {
		return domain.ErrSyncInProgress
	}
	defer r.inFlight.Store(false)

	status := &models.SyncStatus{State: models.SyncStateRunning, StartedAt: time.Now().UTC()}
	r.reportStatus(ctx, status)

	if skip, reason := r.shouldSkip(); skip {
		r.finish(ctx, status, models.SyncStateSkipped, reason)
		return nil
	}

	r.push(ctx, status)
	return nil
}

// Status returns the last reported cycle outcome.
func (r *Reconciler) Status(ctx context.Context) (*models.SyncStatus, error) {
	status, err := r.statusRepo.GetStatus(ctx)
	if err != nil {
		return nil, err
	}
	if status == nil {
		return &models.SyncStatus{State: models.SyncStateIdle}, nil
	}
	return status, nil
}

func (r *Reconciler) shouldSkip() (bool, string) {
	if r.connectivity != nil && r.connectivity.IsOffline() {
		return true, "offline"
	}
	if r.gateway == nil || !r.gateway.Configured() {
		return true, "remote backend not configured"
	}
	if r.creds != nil && !r.creds.SignedIn() {
		return true, "not signed in"
	}
	return false, ""
}

// hydrate pulls every remote record into the local store. Remote wins on a
// conflicting id; this is a whole-record overwrite, not a field merge.
func (r *Reconciler) hydrate(ctx context.Context) (int, error) {
	remote, err := r.gateway.LoadAll(ctx)
	if err != nil {
		return 0, err
	}
	if len(remote) == 0 {
		return 0, nil
	}

	now := time.Now().UTC()
	for i := range remote {
		syncedAt := remote[i].UpdatedAt
		if syncedAt.IsZero() {
			syncedAt = now
		}
		remote[i].Sync = models.SyncMeta{Dirty: false, LastSyncedAt: &syncedAt}
	}

	if err := r.store.UpsertManyTasks(ctx, remote); err != nil {
		return 0, err
	}

	metrics.IncHydration(len(remote))
	r.logger.Info().Int("count", len(remote)).Str("backend", r.gateway.Name()).Msg("hydrated tasks from remote")
	return len(remote), nil
}

// push walks dirty tasks and queued deletions one at a time. A failed record
// stays dirty or queued for the next cycle; the rest of the batch proceeds.
func (r *Reconciler) push(ctx context.Context, status *models.SyncStatus) {
	dirty, err := r.store.GetDirtyTasks(ctx)
	if err != nil {
		r.finish(ctx, status, models.SyncStateFailed, err.Error())
		return
	}
	deletions, err := r.store.GetQueuedTaskDeletions(ctx)
	if err != nil {
		r.finish(ctx, status, models.SyncStateFailed, err.Error())
		return
	}

	if len(dirty) == 0 && len(deletions) == 0 && status.Hydrated == 0 {
		r.finish(ctx, status, models.SyncStateUpToDate, "already up to date")
		return
	}

	// One timestamp for the whole batch so every record synced in this cycle
	// carries the same watermark.
	syncTimestamp := time.Now().UTC()
	fatal := false

	for _, task := range dirty {
		remoteID, err := r.gateway.Upsert(ctx, task)
		if err != nil {
			status.PushFailed++
			metrics.IncPush("error")
			r.logger.Warn().Err(err).Str("task_id", task.ID).Msg("push upsert failed")
			continue
		}
		if err := r.store.MarkTaskSynced(ctx, task.ID, syncTimestamp, remoteID); err != nil {
			fatal = true
			status.PushFailed++
			r.logger.Error().Err(err).Str("task_id", task.ID).Msg("mark synced failed")
			continue
		}
		status.Pushed++
		metrics.IncPush("ok")
	}

	for _, del := range deletions {
		if err := r.gateway.Delete(ctx, del.ID, del.RemoteID); err != nil {
			status.DeleteFailed++
			metrics.IncDeletion("error")
			r.logger.Warn().Err(err).Str("task_id", del.ID).Msg("push delete failed")
			continue
		}
		if err := r.store.ClearQueuedTaskDeletion(ctx, del.ID); err != nil {
			fatal = true
			status.DeleteFailed++
			r.logger.Error().Err(err).Str("task_id", del.ID).Msg("clear deletion queue entry failed")
			continue
		}
		status.Deleted++
		metrics.IncDeletion("ok")
	}

	if !fatal {
		if err := r.store.SetLastSyncedAt(ctx, syncTimestamp); err != nil {
			r.logger.Error().Err(err).Msg("persist watermark failed")
			fatal = true
		}
	}

	switch {
	case fatal:
		r.finish(ctx, status, models.SyncStateFailed, "local store failed during sync")
	case status.PushFailed > 0 || status.DeleteFailed > 0:
		r.finish(ctx, status, models.SyncStatePartial, "some records stayed dirty")
	default:
		r.finish(ctx, status, models.SyncStateOK, "")
	}
}

func (r *Reconciler) finish(ctx context.Context, status *models.SyncStatus, state, message string) {
	now := time.Now().UTC()
	status.State = state
	status.Message = message
	status.FinishedAt = &now
	r.reportStatus(ctx, status)

	r.logger.Info().
		Str("state", state).
		Int("pushed", status.Pushed).
		Int("push_failed", status.PushFailed).
		Int("deleted", status.Deleted).
		Int("delete_failed", status.DeleteFailed).
		Int("hydrated", status.Hydrated).
		Msg("sync cycle finished")
}

func (r *Reconciler) reportStatus(ctx context.Context, status *models.SyncStatus) {
	if r.statusRepo == nil {
		return
	}
	if err := r.statusRepo.SetStatus(ctx, status); err != nil {
		r.logger.Warn().Err(err).Msg("store sync status failed")
	}
}
