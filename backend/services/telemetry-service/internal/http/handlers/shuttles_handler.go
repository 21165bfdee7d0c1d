package handlers

import (
	"net/http"

	"go.uber.org/zap"

	"shuttletrack/backend/services/telemetry-service/internal/models"
	"shuttletrack/backend/services/telemetry-service/internal/repository"
)

const maxShuttleListLimit = 500

// ShuttlesHandler serves the current fleet state.
type ShuttlesHandler struct {
	repo   *repository.ShuttleRepository
	logger *zap.Logger
}

// NewShuttlesHandler returns handler for GET /api/shuttles.
func NewShuttlesHandler(repo *repository.ShuttleRepository, logger *zap.Logger) *ShuttlesHandler {
	return &ShuttlesHandler{repo: repo, logger: logger}
}

// ServeHTTP lists all known shuttles with their latest telemetry.
func (h *ShuttlesHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	limit := queryInt(r, "limit", maxShuttleListLimit)
	if limit <= 0 || limit > maxShuttleListLimit {
		limit = maxShuttleListLimit
	}

	shuttles, err := h.repo.List(r.Context(), limit)
	if err != nil {
		h.logger.Error("failed to list shuttles", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "failed to list shuttles")
		return
	}
	if shuttles == nil {
		shuttles = []models.Shuttle{}
	}
	writeJSON(w, http.StatusOK, shuttles)
}
