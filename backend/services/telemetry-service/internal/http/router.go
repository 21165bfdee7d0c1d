package httpserver

import "net/http"

// Routes defines the HTTP endpoints of the telemetry service.
type Routes struct {
	Heatmap    http.Handler
	TimeSeries http.Handler
	Stats      http.Handler
	Shuttles   http.Handler
	History    http.Handler
	Zones      http.Handler
	ZoneByID   http.Handler
	Ring       http.Handler
	Live       http.Handler
	Health     http.Handler
	Metrics    http.Handler
}

// NewRouter sets up HTTP routing.
func NewRouter(routes Routes) http.Handler {
	mux := http.NewServeMux()
	if routes.Heatmap != nil {
		mux.Handle("/api/analytics/zones", method(http.MethodGet, routes.Heatmap.ServeHTTP))
	}
	if routes.TimeSeries != nil {
		mux.Handle("/api/analytics/timeseries", method(http.MethodGet, routes.TimeSeries.ServeHTTP))
	}
	if routes.Stats != nil {
		mux.Handle("/api/analytics/stats", method(http.MethodGet, routes.Stats.ServeHTTP))
	}
	if routes.Shuttles != nil {
		mux.Handle("/api/shuttles", method(http.MethodGet, routes.Shuttles.ServeHTTP))
	}
	if routes.History != nil {
		mux.Handle("/api/history", method(http.MethodGet, routes.History.ServeHTTP))
	}
	if routes.Zones != nil {
		mux.Handle("/api/zones", routes.Zones)
	}
	if routes.ZoneByID != nil {
		mux.Handle("/api/zones/", routes.ZoneByID)
	}
	if routes.Ring != nil {
		mux.Handle("/api/ring", method(http.MethodPost, routes.Ring.ServeHTTP))
	}
	if routes.Live != nil {
		mux.Handle("/api/live", routes.Live)
	}
	if routes.Health != nil {
		mux.Handle("/health", method(http.MethodGet, routes.Health.ServeHTTP))
	}
	if routes.Metrics != nil {
		mux.Handle("/metrics", routes.Metrics)
	}
	return mux
}

func method(expected string, handler http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != expected {
			w.Header().Set("Allow", expected)
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		handler(w, r)
	}
}
