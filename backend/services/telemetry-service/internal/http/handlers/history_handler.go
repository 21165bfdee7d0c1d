package handlers

import (
	"net/http"
	"time"

	"go.uber.org/zap"

	"shuttletrack/backend/services/telemetry-service/internal/models"
	"shuttletrack/backend/services/telemetry-service/internal/repository"
)

const maxHistoryLimit = 500

// HistoryHandler serves archived location samples.
type HistoryHandler struct {
	repo   *repository.HistoryRepository
	logger *zap.Logger
}

// NewHistoryHandler returns handler for GET /api/history.
func NewHistoryHandler(repo *repository.HistoryRepository, logger *zap.Logger) *HistoryHandler {
	return &HistoryHandler{repo: repo, logger: logger}
}

// ServeHTTP lists samples newest-first. Supports hours, bus_mac and limit
// query parameters.
func (h *HistoryHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	limit := queryInt(r, "limit", maxHistoryLimit)
	if limit <= 0 || limit > maxHistoryLimit {
		limit = maxHistoryLimit
	}

	var cutoff time.Time
	if hours := queryInt(r, "hours", 0); hours > 0 {
		cutoff = time.Now().UTC().Add(-time.Duration(hours) * time.Hour)
	}
	mac := r.URL.Query().Get("bus_mac")

	samples, err := h.repo.FetchWindow(r.Context(), cutoff, mac, limit)
	if err != nil {
		h.logger.Error("failed to fetch history", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "failed to fetch history")
		return
	}
	if samples == nil {
		samples = []models.LocationSample{}
	}
	writeJSON(w, http.StatusOK, samples)
}
