package main

import (
	"context"
	"errors"
	"io"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"vestry/internal/api"
	"vestry/internal/config"
	"vestry/internal/csvio"
	"vestry/internal/database"
	"vestry/internal/domain"
	"vestry/internal/events"
	"vestry/internal/export"
	"vestry/internal/identity"
	"vestry/internal/logging"
	"vestry/internal/metrics"
	"vestry/internal/monitor"
	"vestry/internal/remote"
	"vestry/internal/repository"
	"vestry/internal/service"
	"vestry/internal/syncer"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

const statusTTL = 24 * time.Hour

func main() {
	if err := run(); err != nil {
		log.Fatalf("Fatal error: %v", err)
	}
}

func run() error {
	cfg, logger, closer, err := loadConfigAndLogger()
	if err != nil {
		return err
	}
	if closer != nil {
		defer (func(c io.Closer) { _ = c.Close() })(closer)
	}

	if err := prepareDirectories(cfg, logger); err != nil {
		return err
	}

	metrics.Register()

	store, err := database.NewWithFallback(cfg.Database.Path, logger)
	if err != nil {
		var unavailable *domain.StorageUnavailableError
		if !errors.As(err, &unavailable) {
			return err
		}
		logger.Warn().Msg("running with in-memory storage, data will not survive restart")
	}
	defer store.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	redisClient, statusRepo := initStatusRepository(ctx, cfg, logger)
	if redisClient != nil {
		defer func() { _ = repository.Close(redisClient) }()
	}

	creds := identity.NewMicrosoftProvider(cfg.Identity)
	gateway := remote.New(cfg.Remote, creds, logger)

	eventBus := events.NewEventBus()

	connectivity := monitor.New(cfg.Sync.ProbeURL, cfg.Sync.PollInterval, eventBus, logger)
	go connectivity.Start(ctx)

	reconciler := syncer.NewReconciler(store, gateway, creds, connectivity, statusRepo, cfg.Sync.AutoSync, logger)
	reconciler.SubscribeEvents(eventBus)

	taskService := service.NewTaskService(store, eventBus, logger)
	directoryService := service.NewDirectoryService(store, logger)
	importer := csvio.NewImporter(store, logger)
	exporter := export.NewExcelExporter(store, store, cfg.Exports.Path, logger)

	if cfg.Backup.Enabled {
		backupService := database.NewBackupService(cfg.Database.Path, cfg.Backup, logger)
		go backupService.Start(ctx)
	}

	if cfg.API.Enabled {
		apiServer := api.NewServer(cfg.API, taskService, directoryService, reconciler, importer, exporter, store, logger)
		go func() {
			if err := apiServer.Start(); err != nil {
				logger.Error().Err(err).Msg("API server error")
			}
		}()
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			_ = apiServer.Shutdown(shutdownCtx)
		}()
	}

	logger.Info().Str("backend", gateway.Name()).Msg("vestry started")
	<-ctx.Done()
	logger.Info().Msg("Shutdown complete.")
	return nil
}

func loadConfigAndLogger() (*config.Config, *zerolog.Logger, io.Closer, error) {
	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = "configs/config.yaml"
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, nil, nil, err
	}

	baseLogger, closer, err := logging.New(cfg.Logging, cfg.App)
	if err != nil {
		return nil, nil, nil, err
	}
	logger := baseLogger.With().Str("component", "server-main").Logger()

	return cfg, &logger, closer, nil
}

func prepareDirectories(cfg *config.Config, logger *zerolog.Logger) error {
	if cfg == nil {
		return os.ErrInvalid
	}
	if dir := filepath.Dir(cfg.Database.Path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			logger.Error().Err(err).Msg("creating database directory failed")
			return err
		}
	}
	if err := os.MkdirAll(cfg.Exports.Path, 0o755); err != nil {
		logger.Error().Err(err).Msg("creating exports directory failed")
		return err
	}
	return nil
}

func initStatusRepository(ctx context.Context, cfg *config.Config, logger *zerolog.Logger) (*redis.Client, domain.StatusRepository) {
	fallback := repository.NewMemoryStatusRepository()

	if cfg.Redis.Address == "" {
		return nil, fallback
	}

	redisClient := repository.NewRedisClient(cfg.Redis)
	if err := repository.Ping(ctx, redisClient); err != nil {
		logger.Warn().Err(err).Msg("Redis unavailable")
	}

	primary := repository.NewRedisStatusRepository(redisClient, statusTTL)
	return redisClient, repository.NewFailoverStatusRepository(primary, fallback, logger)
}
