package handlers

import (
	"encoding/json"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"shuttletrack/backend/services/telemetry-service/internal/models"
	"shuttletrack/backend/services/telemetry-service/internal/repository"
)

// ZonesHandler manages geofence configuration.
type ZonesHandler struct {
	repo   *repository.ZoneRepository
	logger *zap.Logger
}

// NewZonesHandler returns handler for /api/zones.
func NewZonesHandler(repo *repository.ZoneRepository, logger *zap.Logger) *ZonesHandler {
	return &ZonesHandler{repo: repo, logger: logger}
}

// ServeHTTP handles GET (list) and POST (create) on the collection.
func (h *ZonesHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		h.list(w, r)
	case http.MethodPost:
		h.create(w, r)
	default:
		w.Header().Set("Allow", "GET, POST")
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

func (h *ZonesHandler) list(w http.ResponseWriter, r *http.Request) {
	zones, err := h.repo.List(r.Context())
	if err != nil {
		h.logger.Error("failed to list zones", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "failed to list zones")
		return
	}
	if zones == nil {
		zones = []models.Zone{}
	}
	writeJSON(w, http.StatusOK, zones)
}

type createZoneRequest struct {
	Name      string       `json:"name"`
	Points    [][2]float64 `json:"points"`
	CenterLat *float64     `json:"center_lat"`
	CenterLon *float64     `json:"center_lon"`
	RadiusM   *float64     `json:"radius_m"`
}

func (h *ZonesHandler) create(w http.ResponseWriter, r *http.Request) {
	var req createZoneRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json")
		return
	}
	if strings.TrimSpace(req.Name) == "" {
		writeError(w, http.StatusBadRequest, "name is required")
		return
	}
	hasPolygon := len(req.Points) >= 3
	hasCircle := req.CenterLat != nil && req.CenterLon != nil
	if !hasPolygon && !hasCircle {
		writeError(w, http.StatusBadRequest, "zone needs at least 3 polygon points or a center")
		return
	}

	zone := models.Zone{
		Name:      req.Name,
		Points:    req.Points,
		CenterLat: req.CenterLat,
		CenterLon: req.CenterLon,
		RadiusM:   req.RadiusM,
	}
	id, err := h.repo.Create(r.Context(), zone)
	if err != nil {
		h.logger.Error("failed to create zone", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "failed to create zone")
		return
	}
	writeJSON(w, http.StatusCreated, map[string]string{"id": id})
}

// ZoneByIDHandler handles DELETE /api/zones/{id}.
type ZoneByIDHandler struct {
	repo   *repository.ZoneRepository
	logger *zap.Logger
}

// NewZoneByIDHandler returns handler.
func NewZoneByIDHandler(repo *repository.ZoneRepository, logger *zap.Logger) *ZoneByIDHandler {
	return &ZoneByIDHandler{repo: repo, logger: logger}
}

// ServeHTTP handles item-level operations.
func (h *ZoneByIDHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodDelete {
		w.Header().Set("Allow", "DELETE")
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	id := strings.TrimPrefix(r.URL.Path, "/api/zones/")
	if id == "" || strings.Contains(id, "/") {
		writeError(w, http.StatusBadRequest, "zone id is required")
		return
	}

	deleted, err := h.repo.Delete(r.Context(), id)
	if err != nil {
		h.logger.Error("failed to delete zone", zap.String("zone_id", id), zap.Error(err))
		writeError(w, http.StatusInternalServerError, "failed to delete zone")
		return
	}
	if !deleted {
		writeError(w, http.StatusNotFound, "zone not found")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}
