package zone

import (
	"context"
	"time"

	"go.uber.org/zap"

	"shuttletrack/backend/services/telemetry-service/internal/geo"
	"shuttletrack/backend/services/telemetry-service/internal/metrics"
	"shuttletrack/backend/services/telemetry-service/internal/models"
)

const (
	emaAlpha            = 0.1
	defaultRadiusMeters = 50.0
)

// Store is the persistence surface the matcher needs.
type Store interface {
	List(ctx context.Context) ([]models.Zone, error)
	UpdateStats(ctx context.Context, id string, avgPM25, avgPM10 float64) error
	AppendVisit(ctx context.Context, v models.ZoneVisit) error
}

// Matcher evaluates resolved positions against every configured zone. All
// matching zones are updated; there is no exclusivity between zones.
type Matcher struct {
	store   Store
	logger  *zap.Logger
	metrics *metrics.Metrics
}

// NewMatcher returns matcher.
func NewMatcher(store Store, m *metrics.Metrics, logger *zap.Logger) *Matcher {
	return &Matcher{store: store, logger: logger, metrics: m}
}

// Match tests (lat, lon) against all zones. For each hit it appends a visit
// audit row and, when updateAverages is set, folds the pollutant readings into
// the zone's running averages. The two writes are independent: failure of one
// never suppresses the other. Store errors are logged, not returned; a zone
// sweep must not fail the ingestion pipeline.
func (m *Matcher) Match(ctx context.Context, mac string, lat, lon, pm25, pm10 float64, updateAverages bool) {
	zones, err := m.store.List(ctx)
	if err != nil {
		m.logger.Error("failed to load zones", zap.Error(err))
		return
	}

	for _, z := range zones {
		if !m.contains(z, lat, lon) {
			continue
		}
		if m.metrics != nil {
			m.metrics.ZoneMatches.Inc()
		}

		if updateAverages {
			if err := m.store.UpdateStats(ctx, z.ID, Smooth(z.AvgPM25, pm25), Smooth(z.AvgPM10, pm10)); err != nil {
				m.logger.Error("failed to update zone averages",
					zap.String("zone_id", z.ID), zap.Error(err))
			}
		}

		visit := models.ZoneVisit{
			ZoneID:     z.ID,
			MACAddress: mac,
			PM25:       pm25,
			PM10:       pm10,
			RecordedAt: time.Now().UTC(),
		}
		if err := m.store.AppendVisit(ctx, visit); err != nil {
			m.logger.Warn("failed to append zone visit",
				zap.String("zone_id", z.ID), zap.Error(err))
		}
	}
}

// contains prefers the polygon when one is configured and falls back to the
// circle definition for legacy zones that only carry a center point.
func (m *Matcher) contains(z models.Zone, lat, lon float64) bool {
	if len(z.Points) >= 3 {
		return geo.PointInPolygon(lat, lon, z.Points)
	}
	if z.CenterLat != nil && z.CenterLon != nil {
		radius := defaultRadiusMeters
		if z.RadiusM != nil && *z.RadiusM > 0 {
			radius = *z.RadiusM
		}
		return geo.InCircle(lat, lon, *z.CenterLat, *z.CenterLon, radius)
	}
	return false
}

// Smooth folds a new reading into a running exponential moving average. A
// stored average of exactly zero means no prior samples, and the reading
// becomes the average outright instead of being dragged down by the zero
// baseline.
func Smooth(old, reading float64) float64 {
	if old == 0 {
		return reading
	}
	return emaAlpha*reading + (1-emaAlpha)*old
}
