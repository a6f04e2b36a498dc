package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"vestry/internal/config"
	"vestry/internal/models"

	"github.com/redis/go-redis/v9"
)

const statusKey = "sync:status"

// RedisStatusRepository keeps the reconciler's last reported outcome in
// Redis so multiple processes (API, workers) can read it.
type RedisStatusRepository struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisClient создает новый клиент Redis на основе конфигурации
func NewRedisClient(cfg config.RedisConfig) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:     cfg.Address,
		Password: cfg.Password,
		DB:       cfg.DB,
		PoolSize: cfg.PoolSize,
	})
}

func NewRedisStatusRepository(client *redis.Client, ttl time.Duration) *RedisStatusRepository {
	return &RedisStatusRepository{
		client: client,
		ttl:    ttl,
	}
}

func (r *RedisStatusRepository) SetStatus(ctx context.Context, status *models.SyncStatus) error {
	if r.client == nil {
		return fmt.Errorf("redis client is nil")
	}
	data, err := json.Marshal(status)
	if err != nil {
		return fmt.Errorf("failed to marshal sync status: %w", err)
	}

	if err := r.client.Set(ctx, statusKey, data, r.ttl).Err(); err != nil {
		return fmt.Errorf("failed to set sync status in redis: %w", err)
	}
	return nil
}

func (r *RedisStatusRepository) GetStatus(ctx context.Context) (*models.SyncStatus, error) {
	if r.client == nil {
		return nil, fmt.Errorf("redis client is nil")
	}
	val, err := r.client.Get(ctx, statusKey).Result()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get sync status from redis: %w", err)
	}

	var status models.SyncStatus
	if err := json.Unmarshal([]byte(val), &status); err != nil {
		return nil, fmt.Errorf("failed to unmarshal sync status: %w", err)
	}
	return &status, nil
}

// Ping проверяет соединение с Redis
func Ping(ctx context.Context, client *redis.Client) error {
	if _, err := client.Ping(ctx).Result(); err != nil {
		return fmt.Errorf("failed to ping Redis: %w", err)
	}
	return nil
}

// Close закрывает соединение с Redis
func Close(client *redis.Client) error {
	if client != nil {
		return client.Close()
	}
	return nil
}
