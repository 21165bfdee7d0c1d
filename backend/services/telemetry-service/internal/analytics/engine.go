package analytics

import (
	"context"
	"math"
	"sort"
	"time"

	"go.uber.org/zap"

	"shuttletrack/backend/services/telemetry-service/internal/models"
)

const (
	// DefaultCellSize is roughly 111 meters of latitude at the equator.
	DefaultCellSize  = 0.001
	DefaultInterval  = 60 * time.Minute
	maxSourceSamples = 5000
	maxBuckets       = 500
)

// SampleSource replays historical samples for aggregation.
type SampleSource interface {
	FetchWindow(ctx context.Context, cutoff time.Time, mac string, limit int) ([]models.LocationSample, error)
}

// HeatmapCell is one grid cell aggregate, positioned at the cell center.
type HeatmapCell struct {
	Lat         float64   `json:"lat"`
	Lon         float64   `json:"lon"`
	AvgPM25     float64   `json:"avg_pm25"`
	AvgPM10     float64   `json:"avg_pm10"`
	MaxPM25     float64   `json:"max_pm25"`
	MinPM25     float64   `json:"min_pm25"`
	Count       int       `json:"count"`
	LastUpdated time.Time `json:"last_updated"`
}

// TimeBucket is one interval aggregate.
type TimeBucket struct {
	Timestamp time.Time `json:"timestamp"`
	AvgPM25   float64   `json:"avg_pm25"`
	AvgPM10   float64   `json:"avg_pm10"`
	AvgTemp   float64   `json:"avg_temp"`
	AvgHum    float64   `json:"avg_hum"`
	Count     int       `json:"count"`
}

// Stats is the dashboard summary aggregate.
type Stats struct {
	AvgPM25       float64 `json:"avg_pm25"`
	AvgPM10       float64 `json:"avg_pm10"`
	MaxPM25       float64 `json:"max_pm25"`
	MinPM25       float64 `json:"min_pm25"`
	AvgTemp       float64 `json:"avg_temp"`
	AvgHum        float64 `json:"avg_hum"`
	TotalReadings int     `json:"total_readings"`
}

// Engine computes query-time aggregates over the sample history. It is
// independent of the live ingestion path. Every method degrades to an empty
// result on store failure so dashboards keep rendering.
type Engine struct {
	source SampleSource
	logger *zap.Logger
}

// NewEngine returns engine.
func NewEngine(source SampleSource, logger *zap.Logger) *Engine {
	return &Engine{source: source, logger: logger}
}

// ZoneHeatmap buckets samples onto a lat/lon grid and aggregates one cell per
// bucket. hoursWindow <= 0 means no time bound; an empty mac means all
// devices. Cells are sorted by average PM2.5 ascending, best air first.
func (e *Engine) ZoneHeatmap(ctx context.Context, hoursWindow int, cellSize float64, mac string) []HeatmapCell {
	if cellSize <= 0 {
		cellSize = DefaultCellSize
	}

	samples := e.fetch(ctx, hoursWindow, mac)

	type cellKey struct{ latIdx, lonIdx int64 }
	type cellAgg struct {
		sumPM25, sumPM10 float64
		maxPM25, minPM25 float64
		count            int
		last             time.Time
	}

	cells := make(map[cellKey]*cellAgg)
	for _, s := range samples {
		if s.PM25 <= 0 {
			continue
		}
		key := cellKey{
			latIdx: int64(math.Floor(s.Lat / cellSize)),
			lonIdx: int64(math.Floor(s.Lon / cellSize)),
		}
		agg, ok := cells[key]
		if !ok {
			if len(cells) >= maxBuckets {
				continue
			}
			agg = &cellAgg{maxPM25: s.PM25, minPM25: s.PM25}
			cells[key] = agg
		}
		agg.sumPM25 += s.PM25
		agg.sumPM10 += s.PM10
		if s.PM25 > agg.maxPM25 {
			agg.maxPM25 = s.PM25
		}
		if s.PM25 < agg.minPM25 {
			agg.minPM25 = s.PM25
		}
		if s.RecordedAt.After(agg.last) {
			agg.last = s.RecordedAt
		}
		agg.count++
	}

	result := make([]HeatmapCell, 0, len(cells))
	for key, agg := range cells {
		n := float64(agg.count)
		result = append(result, HeatmapCell{
			Lat:         float64(key.latIdx)*cellSize + cellSize/2,
			Lon:         float64(key.lonIdx)*cellSize + cellSize/2,
			AvgPM25:     round1(agg.sumPM25 / n),
			AvgPM10:     round1(agg.sumPM10 / n),
			MaxPM25:     round1(agg.maxPM25),
			MinPM25:     round1(agg.minPM25),
			Count:       agg.count,
			LastUpdated: agg.last,
		})
	}
	sort.Slice(result, func(i, j int) bool { return result[i].AvgPM25 < result[j].AvgPM25 })
	return result
}

// TimeSeries truncates sample timestamps to the interval and aggregates each
// bucket; output is sorted ascending by bucket start.
func (e *Engine) TimeSeries(ctx context.Context, hoursWindow int, interval time.Duration, mac string) []TimeBucket {
	if interval <= 0 {
		interval = DefaultInterval
	}

	samples := e.fetch(ctx, hoursWindow, mac)

	type bucketAgg struct {
		sumPM25, sumPM10, sumTemp, sumHum float64
		count                             int
	}

	buckets := make(map[time.Time]*bucketAgg)
	for _, s := range samples {
		if s.PM25 <= 0 {
			continue
		}
		start := s.RecordedAt.UTC().Truncate(interval)
		agg, ok := buckets[start]
		if !ok {
			if len(buckets) >= maxBuckets {
				continue
			}
			agg = &bucketAgg{}
			buckets[start] = agg
		}
		agg.sumPM25 += s.PM25
		agg.sumPM10 += s.PM10
		agg.sumTemp += s.Temp
		agg.sumHum += s.Hum
		agg.count++
	}

	result := make([]TimeBucket, 0, len(buckets))
	for start, agg := range buckets {
		n := float64(agg.count)
		result = append(result, TimeBucket{
			Timestamp: start,
			AvgPM25:   round1(agg.sumPM25 / n),
			AvgPM10:   round1(agg.sumPM10 / n),
			AvgTemp:   round1(agg.sumTemp / n),
			AvgHum:    math.Round(agg.sumHum / n),
			Count:     agg.count,
		})
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Timestamp.Before(result[j].Timestamp) })
	return result
}

// OverallStats aggregates the whole window into one record. With no usable
// samples it returns zeroed defaults rather than an error.
func (e *Engine) OverallStats(ctx context.Context, hoursWindow int, mac string) Stats {
	samples := e.fetch(ctx, hoursWindow, mac)

	var (
		stats                         Stats
		sum25, sum10, sumTemp, sumHum float64
	)
	for _, s := range samples {
		if s.PM25 <= 0 {
			continue
		}
		if stats.TotalReadings == 0 {
			stats.MaxPM25, stats.MinPM25 = s.PM25, s.PM25
		}
		sum25 += s.PM25
		sum10 += s.PM10
		sumTemp += s.Temp
		sumHum += s.Hum
		if s.PM25 > stats.MaxPM25 {
			stats.MaxPM25 = s.PM25
		}
		if s.PM25 < stats.MinPM25 {
			stats.MinPM25 = s.PM25
		}
		stats.TotalReadings++
	}
	if stats.TotalReadings == 0 {
		return Stats{}
	}

	n := float64(stats.TotalReadings)
	stats.AvgPM25 = round1(sum25 / n)
	stats.AvgPM10 = round1(sum10 / n)
	stats.AvgTemp = round1(sumTemp / n)
	stats.AvgHum = math.Round(sumHum / n)
	stats.MaxPM25 = round1(stats.MaxPM25)
	stats.MinPM25 = round1(stats.MinPM25)
	return stats
}

// fetch loads the capped sample window; failures log and return nothing so
// query endpoints render empty rather than erroring.
func (e *Engine) fetch(ctx context.Context, hoursWindow int, mac string) []models.LocationSample {
	var cutoff time.Time
	if hoursWindow > 0 {
		cutoff = time.Now().UTC().Add(-time.Duration(hoursWindow) * time.Hour)
	}

	samples, err := e.source.FetchWindow(ctx, cutoff, mac, maxSourceSamples)
	if err != nil {
		e.logger.Error("failed to fetch history window", zap.Error(err))
		return nil
	}
	return samples
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}
