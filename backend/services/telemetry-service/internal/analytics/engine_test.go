package analytics

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"shuttletrack/backend/services/telemetry-service/internal/models"
)

type fakeSource struct {
	samples []models.LocationSample
	err     error
}

func (f *fakeSource) FetchWindow(_ context.Context, _ time.Time, mac string, limit int) ([]models.LocationSample, error) {
	if f.err != nil {
		return nil, f.err
	}
	var out []models.LocationSample
	for _, s := range f.samples {
		if mac != "" && s.MACAddress != mac {
			continue
		}
		if len(out) == limit {
			break
		}
		out = append(out, s)
	}
	return out, nil
}

func sample(lat, lon, pm25 float64, at time.Time) models.LocationSample {
	return models.LocationSample{
		MACAddress: "AA:BB",
		Lat:        lat,
		Lon:        lon,
		PM25:       pm25,
		PM10:       pm25 * 1.5,
		Temp:       30,
		Hum:        60,
		RecordedAt: at,
	}
}

func TestZoneHeatmapGroupsSameCell(t *testing.T) {
	now := time.Now().UTC()
	src := &fakeSource{samples: []models.LocationSample{
		sample(14.8801, 102.0201, 20, now.Add(-time.Minute)),
		sample(14.8804, 102.0204, 40, now),
	}}
	e := NewEngine(src, zap.NewNop())

	cells := e.ZoneHeatmap(context.Background(), 24, 0.001, "")
	require.Len(t, cells, 1)

	c := cells[0]
	assert.Equal(t, 30.0, c.AvgPM25)
	assert.Equal(t, 40.0, c.MaxPM25)
	assert.Equal(t, 20.0, c.MinPM25)
	assert.Equal(t, 2, c.Count)
	assert.Equal(t, now, c.LastUpdated)

	// Cell center of floor(14.8801/0.001)*0.001 = 14.880.
	assert.InDelta(t, 14.8805, c.Lat, 1e-9)
	assert.InDelta(t, 102.0205, c.Lon, 1e-9)
}

func TestZoneHeatmapBucketingIsOrderIndependent(t *testing.T) {
	now := time.Now().UTC()
	a := sample(14.8801, 102.0201, 20, now)
	b := sample(14.8804, 102.0204, 40, now)

	e1 := NewEngine(&fakeSource{samples: []models.LocationSample{a, b}}, zap.NewNop())
	e2 := NewEngine(&fakeSource{samples: []models.LocationSample{b, a}}, zap.NewNop())

	c1 := e1.ZoneHeatmap(context.Background(), 24, 0.001, "")
	c2 := e2.ZoneHeatmap(context.Background(), 24, 0.001, "")

	require.Len(t, c1, 1)
	require.Len(t, c2, 1)
	assert.Equal(t, c1[0].Lat, c2[0].Lat)
	assert.Equal(t, c1[0].Lon, c2[0].Lon)
	assert.Equal(t, c1[0].AvgPM25, c2[0].AvgPM25)
}

func TestZoneHeatmapExcludesNonPositivePM(t *testing.T) {
	now := time.Now().UTC()
	src := &fakeSource{samples: []models.LocationSample{
		sample(14.88, 102.02, 0, now),
		sample(14.88, 102.02, -5, now),
	}}
	e := NewEngine(src, zap.NewNop())

	assert.Empty(t, e.ZoneHeatmap(context.Background(), 24, 0.001, ""))
}

func TestZoneHeatmapSortedByAvgAscending(t *testing.T) {
	now := time.Now().UTC()
	src := &fakeSource{samples: []models.LocationSample{
		sample(14.88, 102.02, 80, now),
		sample(14.99, 102.10, 10, now),
	}}
	e := NewEngine(src, zap.NewNop())

	cells := e.ZoneHeatmap(context.Background(), 24, 0.001, "")
	require.Len(t, cells, 2)
	assert.Less(t, cells[0].AvgPM25, cells[1].AvgPM25)
}

func TestZoneHeatmapSourceFailureReturnsEmpty(t *testing.T) {
	e := NewEngine(&fakeSource{err: errors.New("store unavailable")}, zap.NewNop())
	assert.Empty(t, e.ZoneHeatmap(context.Background(), 24, 0.001, ""))
}

func TestTimeSeriesSortedWithCounts(t *testing.T) {
	base := time.Date(2026, 8, 30, 10, 0, 0, 0, time.UTC)
	src := &fakeSource{samples: []models.LocationSample{
		sample(14.88, 102.02, 30, base.Add(90*time.Minute)),
		sample(14.88, 102.02, 10, base.Add(5*time.Minute)),
		sample(14.88, 102.02, 20, base.Add(30*time.Minute)),
	}}
	e := NewEngine(src, zap.NewNop())

	series := e.TimeSeries(context.Background(), 24, time.Hour, "")
	require.Len(t, series, 2)

	assert.Equal(t, base, series[0].Timestamp)
	assert.Equal(t, 2, series[0].Count)
	assert.Equal(t, 15.0, series[0].AvgPM25)

	assert.Equal(t, base.Add(time.Hour), series[1].Timestamp)
	assert.Equal(t, 1, series[1].Count)
	assert.True(t, series[0].Timestamp.Before(series[1].Timestamp))
}

func TestTimeSeriesDeviceFilter(t *testing.T) {
	now := time.Now().UTC()
	other := sample(14.88, 102.02, 50, now)
	other.MACAddress = "CC:DD"
	src := &fakeSource{samples: []models.LocationSample{
		sample(14.88, 102.02, 30, now),
		other,
	}}
	e := NewEngine(src, zap.NewNop())

	series := e.TimeSeries(context.Background(), 24, time.Hour, "CC:DD")
	require.Len(t, series, 1)
	assert.Equal(t, 1, series[0].Count)
	assert.Equal(t, 50.0, series[0].AvgPM25)
}

func TestOverallStats(t *testing.T) {
	now := time.Now().UTC()
	src := &fakeSource{samples: []models.LocationSample{
		sample(14.88, 102.02, 20, now),
		sample(14.88, 102.02, 40, now),
		sample(14.88, 102.02, 0, now), // artifact, excluded
	}}
	e := NewEngine(src, zap.NewNop())

	stats := e.OverallStats(context.Background(), 24, "")
	assert.Equal(t, 2, stats.TotalReadings)
	assert.Equal(t, 30.0, stats.AvgPM25)
	assert.Equal(t, 40.0, stats.MaxPM25)
	assert.Equal(t, 20.0, stats.MinPM25)
	assert.Equal(t, 30.0, stats.AvgTemp)
	assert.Equal(t, 60.0, stats.AvgHum)
}

func TestOverallStatsEmptyWindowZeroed(t *testing.T) {
	e := NewEngine(&fakeSource{}, zap.NewNop())
	assert.Equal(t, Stats{}, e.OverallStats(context.Background(), 24, ""))
}
