package repository

import (
	"context"
	"io"
	"testing"
	"time"

	"vestry/internal/models"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRedisStatusRepository(t *testing.T) {
	s, err := miniredis.Run()
	require.NoError(t, err)
	defer s.Close()

	client := redis.NewClient(&redis.Options{
		Addr: s.Addr(),
	})
	defer client.Close()

	repo := NewRedisStatusRepository(client, time.Hour)
	ctx := context.Background()

	t.Run("SetAndGetStatus", func(t *testing.T) {
		status := &models.SyncStatus{
			State:   models.SyncStateOK,
			Pushed:  3,
			Deleted: 1,
		}

		err := repo.SetStatus(ctx, status)
		require.NoError(t, err)

		got, err := repo.GetStatus(ctx)
		require.NoError(t, err)
		require.NotNil(t, got)
		assert.Equal(t, models.SyncStateOK, got.State)
		assert.Equal(t, 3, got.Pushed)
		assert.Equal(t, 1, got.Deleted)
	})

	t.Run("StatusExpires", func(t *testing.T) {
		require.NoError(t, repo.SetStatus(ctx, &models.SyncStatus{State: models.SyncStateRunning}))

		s.FastForward(time.Hour + time.Minute)

		got, err := repo.GetStatus(ctx)
		require.NoError(t, err)
		assert.Nil(t, got)
	})

	t.Run("NilClient", func(t *testing.T) {
		repo := NewRedisStatusRepository(nil, time.Hour)
		_, err := repo.GetStatus(ctx)
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "redis client is nil")

		err = repo.SetStatus(ctx, &models.SyncStatus{})
		assert.Error(t, err)
	})

	t.Run("Ping", func(t *testing.T) {
		assert.NoError(t, Ping(ctx, client))
	})

	t.Run("Close", func(t *testing.T) {
		assert.NoError(t, Close(client))
	})
}

func TestMemoryStatusRepository(t *testing.T) {
	repo := NewMemoryStatusRepository()
	ctx := context.Background()

	got, err := repo.GetStatus(ctx)
	require.NoError(t, err)
	assert.Nil(t, got)

	status := &models.SyncStatus{State: models.SyncStatePartial, PushFailed: 2}
	require.NoError(t, repo.SetStatus(ctx, status))

	// Mutating the original must not leak into the stored copy.
	status.PushFailed = 99

	got, err = repo.GetStatus(ctx)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, models.SyncStatePartial, got.State)
	assert.Equal(t, 2, got.PushFailed)
}

func TestFailoverStatusRepository(t *testing.T) {
	logger := zerolog.New(io.Discard)
	ctx := context.Background()

	t.Run("PrimaryHealthy", func(t *testing.T) {
		s, err := miniredis.Run()
		require.NoError(t, err)
		defer s.Close()

		client := redis.NewClient(&redis.Options{Addr: s.Addr()})
		defer client.Close()

		primary := NewRedisStatusRepository(client, time.Hour)
		fallback := NewMemoryStatusRepository()
		repo := NewFailoverStatusRepository(primary, fallback, &logger)

		require.NoError(t, repo.SetStatus(ctx, &models.SyncStatus{State: models.SyncStateOK}))

		got, err := repo.GetStatus(ctx)
		require.NoError(t, err)
		require.NotNil(t, got)
		assert.Equal(t, models.SyncStateOK, got.State)

		// The fallback is kept warm on every successful write.
		warm, err := fallback.GetStatus(ctx)
		require.NoError(t, err)
		require.NotNil(t, warm)
		assert.Equal(t, models.SyncStateOK, warm.State)
	})

	t.Run("FallsBackWhenPrimaryDies", func(t *testing.T) {
		s, err := miniredis.Run()
		require.NoError(t, err)

		client := redis.NewClient(&redis.Options{Addr: s.Addr()})
		defer client.Close()

		primary := NewRedisStatusRepository(client, time.Hour)
		fallback := NewMemoryStatusRepository()
		repo := NewFailoverStatusRepository(primary, fallback, &logger)

		require.NoError(t, repo.SetStatus(ctx, &models.SyncStatus{State: models.SyncStateOK}))

		s.Close()

		require.NoError(t, repo.SetStatus(ctx, &models.SyncStatus{State: models.SyncStateFailed}))

		got, err := repo.GetStatus(ctx)
		require.NoError(t, err)
		require.NotNil(t, got)
		assert.Equal(t, models.SyncStateFailed, got.State)
	})

	t.Run("SkipsPrimaryWhileDown", func(t *testing.T) {
		primary := NewRedisStatusRepository(nil, time.Hour)
		fallback := NewMemoryStatusRepository()
		repo := NewFailoverStatusRepository(primary, fallback, &logger)

		require.NoError(t, repo.SetStatus(ctx, &models.SyncStatus{State: models.SyncStateRunning}))
		// The second write goes straight to the fallback without retrying.
		require.NoError(t, repo.SetStatus(ctx, &models.SyncStatus{State: models.SyncStateOK}))

		got, err := repo.GetStatus(ctx)
		require.NoError(t, err)
		require.NotNil(t, got)
		assert.Equal(t, models.SyncStateOK, got.State)
	})
}
