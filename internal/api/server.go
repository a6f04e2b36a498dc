package api

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"time"

	"vestry/internal/config"
	"vestry/internal/csvio"
	"vestry/internal/domain"
	"vestry/internal/export"
	"vestry/internal/service"
	"vestry/internal/syncer"

	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
)

// Server exposes the administration HTTP API.
type Server struct {
	cfg        config.APIConfig
	tasks      *service.TaskService
	directory  *service.DirectoryService
	reconciler *syncer.Reconciler
	importer   *csvio.Importer
	exporter   *export.ExcelExporter
	taskStore  domain.TaskStore
	logger     *zerolog.Logger

	server *http.Server
}

func NewServer(
	cfg config.APIConfig,
	tasks *service.TaskService,
	directory *service.DirectoryService,
	reconciler *syncer.Reconciler,
	importer *csvio.Importer,
	exporter *export.ExcelExporter,
	taskStore domain.TaskStore,
	logger *zerolog.Logger,
) *Server {
	s := &Server{
		cfg:        cfg,
		tasks:      tasks,
		directory:  directory,
		reconciler: reconciler,
		importer:   importer,
		exporter:   exporter,
		taskStore:  taskStore,
		logger:     logger,
	}

	router := mux.NewRouter()
	router.HandleFunc("/health", s.handleHealth).Methods(http.MethodGet)
	router.Handle("/metrics", promhttp.Handler()).Methods(http.MethodGet)

	v1 := router.PathPrefix("/api/v1").Subrouter()

	v1.HandleFunc("/tasks", s.handleListTasks).Methods(http.MethodGet)
	v1.HandleFunc("/tasks", s.handleCreateTask).Methods(http.MethodPost)
	v1.HandleFunc("/tasks/export.csv", s.handleExportCSV).Methods(http.MethodGet)
	v1.HandleFunc("/tasks/export.xlsx", s.handleExportXLSX).Methods(http.MethodGet)
	v1.HandleFunc("/tasks/import", s.handleImportCSV).Methods(http.MethodPost)
	v1.HandleFunc("/tasks/{id}", s.handleGetTask).Methods(http.MethodGet)
	v1.HandleFunc("/tasks/{id}", s.handleUpdateTask).Methods(http.MethodPut)
	v1.HandleFunc("/tasks/{id}", s.handleDeleteTask).Methods(http.MethodDelete)
	v1.HandleFunc("/tasks/{id}/status", s.handleMarkTaskStatus).Methods(http.MethodPost)

	v1.HandleFunc("/sync", s.handleSyncNow).Methods(http.MethodPost)
	v1.HandleFunc("/sync/status", s.handleSyncStatus).Methods(http.MethodGet)

	v1.HandleFunc("/members", s.handleListMembers).Methods(http.MethodGet)
	v1.HandleFunc("/members", s.handleSaveMember).Methods(http.MethodPost)
	v1.HandleFunc("/members/{id}", s.handleGetMember).Methods(http.MethodGet)
	v1.HandleFunc("/members/{id}", s.handleDeleteMember).Methods(http.MethodDelete)

	v1.HandleFunc("/contributions", s.handleListContributions).Methods(http.MethodGet)
	v1.HandleFunc("/contributions", s.handleRecordContribution).Methods(http.MethodPost)
	v1.HandleFunc("/contributions/export.xlsx", s.handleExportContributions).Methods(http.MethodGet)
	v1.HandleFunc("/contributions/summary", s.handleContributionSummary).Methods(http.MethodGet)
	v1.HandleFunc("/contributions/{id}", s.handleDeleteContribution).Methods(http.MethodDelete)

	v1.HandleFunc("/attendance", s.handleListAttendance).Methods(http.MethodGet)
	v1.HandleFunc("/attendance", s.handleRecordAttendance).Methods(http.MethodPost)

	v1.HandleFunc("/admin/reset", s.handleAdminReset).Methods(http.MethodPost)

	auth := NewAuth(cfg)
	var handler http.Handler = router
	handler = auth.Wrap(handler)
	handler = metricsMiddleware(handler)
	handler = handlers.RecoveryHandler(handlers.PrintRecoveryStack(false))(handler)
	handler = handlers.CombinedLoggingHandler(os.Stdout, handler)

	s.server = &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      30 * time.Second,
	}

	return s
}

func (s *Server) Start() error {
	if s.server == nil {
		return fmt.Errorf("http server is not initialized")
	}
	s.logger.Info().Str("addr", s.server.Addr).Msg("HTTP API listening")
	if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	if s.server == nil {
		return nil
	}
	return s.server.Shutdown(ctx)
}

// Handler exposes the composed handler chain for tests.
func (s *Server) Handler() http.Handler {
	return s.server.Handler
}
