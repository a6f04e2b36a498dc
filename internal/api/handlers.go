package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"path/filepath"

	"vestry/internal/csvio"
	"vestry/internal/domain"
	"vestry/internal/metrics"
	"vestry/internal/models"

	"github.com/gorilla/mux"
)

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleListTasks(w http.ResponseWriter, r *http.Request) {
	tasks, err := s.tasks.GetAllTasks(r.Context())
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"tasks": tasks})
}

func (s *Server) handleCreateTask(w http.ResponseWriter, r *http.Request) {
	var raw models.RawTask
	if err := decodeBody(r, &raw); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	task, err := s.tasks.CreateTask(r.Context(), raw)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, task)
}

func (s *Server) handleGetTask(w http.ResponseWriter, r *http.Request) {
	task, err := s.tasks.GetTask(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, task)
}

func (s *Server) handleUpdateTask(w http.ResponseWriter, r *http.Request) {
	var patch models.TaskPatch
	if err := decodeBody(r, &patch); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	task, err := s.tasks.UpdateTask(r.Context(), mux.Vars(r)["id"], patch)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, task)
}

func (s *Server) handleDeleteTask(w http.ResponseWriter, r *http.Request) {
	if err := s.tasks.DeleteTask(r.Context(), mux.Vars(r)["id"]); err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

func (s *Server) handleMarkTaskStatus(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Status string `json:"status"`
	}
	if err := decodeBody(r, &body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	task, err := s.tasks.MarkTaskStatus(r.Context(), mux.Vars(r)["id"], body.Status)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, task)
}

func (s *Server) handleSyncNow(w http.ResponseWriter, r *http.Request) {
	err := s.reconciler.Sync(r.Context())
	status, statusErr := s.reconciler.Status(r.Context())
	if statusErr != nil {
		status = &models.SyncStatus{State: models.SyncStateIdle}
	}

	if errors.Is(err, domain.ErrSyncInProgress) {
		writeJSON(w, http.StatusConflict, map[string]any{
			"error":  "sync already in progress",
			"status": status,
		})
		return
	}
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, status)
}

func (s *Server) handleSyncStatus(w http.ResponseWriter, r *http.Request) {
	status, err := s.reconciler.Status(r.Context())
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, status)
}

// handleImportCSV accepts either a multipart upload under "file" or a raw
// text/csv body.
func (s *Server) handleImportCSV(w http.ResponseWriter, r *http.Request) {
	body := r.Body
	if file, _, err := r.FormFile("file"); err == nil {
		defer file.Close()
		body = file
	}

	result, err := s.importer.Import(r.Context(), body)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (s *Server) handleExportCSV(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", `attachment; filename="tasks.csv"`)
	if err := csvio.Export(r.Context(), s.taskStore, w); err != nil {
		s.logger.Error().Err(err).Msg("csv export failed")
	}
}

func (s *Server) handleExportXLSX(w http.ResponseWriter, r *http.Request) {
	path, err := s.exporter.ExportTasks(r.Context())
	if err != nil {
		writeServiceError(w, err)
		return
	}
	w.Header().Set("Content-Disposition", `attachment; filename="`+filepath.Base(path)+`"`)
	http.ServeFile(w, r, path)
}

func (s *Server) handleExportContributions(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	path, err := s.exporter.ExportContributions(r.Context(), q.Get("from"), q.Get("to"))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	w.Header().Set("Content-Disposition", `attachment; filename="`+filepath.Base(path)+`"`)
	http.ServeFile(w, r, path)
}

func (s *Server) handleListMembers(w http.ResponseWriter, r *http.Request) {
	members, err := s.directory.GetAllMembers(r.Context())
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"members": members})
}

func (s *Server) handleSaveMember(w http.ResponseWriter, r *http.Request) {
	var member models.Member
	if err := decodeBody(r, &member); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	saved, err := s.directory.SaveMember(r.Context(), member)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, saved)
}

func (s *Server) handleGetMember(w http.ResponseWriter, r *http.Request) {
	member, err := s.directory.GetMember(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, member)
}

func (s *Server) handleDeleteMember(w http.ResponseWriter, r *http.Request) {
	if err := s.directory.DeleteMember(r.Context(), mux.Vars(r)["id"]); err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

func (s *Server) handleListContributions(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	contributions, err := s.directory.GetContributions(r.Context(), q.Get("from"), q.Get("to"))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"contributions": contributions})
}

func (s *Server) handleRecordContribution(w http.ResponseWriter, r *http.Request) {
	var c models.Contribution
	if err := decodeBody(r, &c); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	saved, err := s.directory.RecordContribution(r.Context(), c)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, saved)
}

func (s *Server) handleContributionSummary(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	totals, err := s.directory.ContributionSummary(r.Context(), q.Get("from"), q.Get("to"))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"totals_by_fund": totals})
}

func (s *Server) handleDeleteContribution(w http.ResponseWriter, r *http.Request) {
	if err := s.directory.DeleteContribution(r.Context(), mux.Vars(r)["id"]); err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

func (s *Server) handleListAttendance(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	records, err := s.directory.GetAttendance(r.Context(), q.Get("from"), q.Get("to"))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"attendance": records})
}

func (s *Server) handleRecordAttendance(w http.ResponseWriter, r *http.Request) {
	var rec models.AttendanceRecord
	if err := decodeBody(r, &rec); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	saved, err := s.directory.RecordAttendance(r.Context(), rec)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, saved)
}

// handleAdminReset wipes the task stores. The member directory and finances
// survive a reset.
func (s *Server) handleAdminReset(w http.ResponseWriter, r *http.Request) {
	if err := s.tasks.ClearAllTaskData(r.Context()); err != nil {
		writeServiceError(w, err)
		return
	}
	s.logger.Warn().Msg("all task data cleared by admin request")
	writeJSON(w, http.StatusOK, map[string]string{"status": "reset"})
}

func decodeBody(r *http.Request, out any) error {
	decoder := json.NewDecoder(r.Body)
	return decoder.Decode(out)
}

func writeServiceError(w http.ResponseWriter, err error) {
	var validation *domain.ValidationError
	var notFound *domain.NotFoundError
	var unavailable *domain.StorageUnavailableError

	switch {
	case errors.As(err, &validation):
		writeError(w, http.StatusBadRequest, validation.Error())
	case errors.As(err, &notFound):
		writeError(w, http.StatusNotFound, notFound.Error())
	case errors.As(err, &unavailable):
		writeError(w, http.StatusServiceUnavailable, unavailable.Error())
	default:
		writeError(w, http.StatusInternalServerError, err.Error())
	}
}

func writeJSON(w http.ResponseWriter, statusCode int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, statusCode int, message string) {
	writeJSON(w, statusCode, map[string]string{"error": message})
}

func metricsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		metrics.IncHTTP(r.URL.Path)
		next.ServeHTTP(w, r)
	})
}
