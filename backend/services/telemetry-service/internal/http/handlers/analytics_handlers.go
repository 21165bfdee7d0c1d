package handlers

import (
	"net/http"
	"time"

	"shuttletrack/backend/services/telemetry-service/internal/analytics"
)

const defaultHoursWindow = 24

// NewHeatmapHandler returns GET /api/analytics/zones.
func NewHeatmapHandler(engine *analytics.Engine) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		hours := queryInt(r, "hours", defaultHoursWindow)
		cellSize := queryFloat(r, "grid_size", analytics.DefaultCellSize)
		mac := r.URL.Query().Get("bus_mac")

		cells := engine.ZoneHeatmap(r.Context(), hours, cellSize, mac)
		writeJSON(w, http.StatusOK, map[string]interface{}{
			"zones": cells,
			"count": len(cells),
		})
	}
}

// NewTimeSeriesHandler returns GET /api/analytics/timeseries.
func NewTimeSeriesHandler(engine *analytics.Engine) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		hours := queryInt(r, "hours", defaultHoursWindow)
		intervalMinutes := queryInt(r, "interval_minutes", 60)
		mac := r.URL.Query().Get("bus_mac")

		series := engine.TimeSeries(r.Context(), hours, time.Duration(intervalMinutes)*time.Minute, mac)
		writeJSON(w, http.StatusOK, map[string]interface{}{
			"series": series,
			"count":  len(series),
		})
	}
}

// NewStatsHandler returns GET /api/analytics/stats.
func NewStatsHandler(engine *analytics.Engine) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		hours := queryInt(r, "hours", defaultHoursWindow)
		mac := r.URL.Query().Get("bus_mac")

		writeJSON(w, http.StatusOK, engine.OverallStats(r.Context(), hours, mac))
	}
}
