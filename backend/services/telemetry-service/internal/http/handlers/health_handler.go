package handlers

import (
	"database/sql"
	"net/http"
)

// HealthHandler reports readiness, checking the database connection.
type HealthHandler struct {
	db *sql.DB
}

// NewHealthHandler returns handler for GET /health.
func NewHealthHandler(db *sql.DB) *HealthHandler {
	return &HealthHandler{db: db}
}

// ServeHTTP pings the database and reports status.
func (h *HealthHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if h.db != nil {
		if err := h.db.PingContext(r.Context()); err != nil {
			writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "degraded"})
			return
		}
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
