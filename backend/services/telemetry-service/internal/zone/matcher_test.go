package zone

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"shuttletrack/backend/services/telemetry-service/internal/models"
)

type fakeStore struct {
	zones       []models.Zone
	listErr     error
	statsErr    error
	visitErr    error
	statUpdates map[string][2]float64
	visits      []models.ZoneVisit
}

func newFakeStore(zones ...models.Zone) *fakeStore {
	return &fakeStore{zones: zones, statUpdates: make(map[string][2]float64)}
}

func (f *fakeStore) List(context.Context) ([]models.Zone, error) {
	return f.zones, f.listErr
}

func (f *fakeStore) UpdateStats(_ context.Context, id string, avgPM25, avgPM10 float64) error {
	if f.statsErr != nil {
		return f.statsErr
	}
	f.statUpdates[id] = [2]float64{avgPM25, avgPM10}
	return nil
}

func (f *fakeStore) AppendVisit(_ context.Context, v models.ZoneVisit) error {
	if f.visitErr != nil {
		return f.visitErr
	}
	f.visits = append(f.visits, v)
	return nil
}

func polygonZone(id string) models.Zone {
	return models.Zone{
		ID:   id,
		Name: "campus-" + id,
		Points: [][2]float64{
			{14.870, 102.010},
			{14.870, 102.030},
			{14.890, 102.030},
			{14.890, 102.010},
		},
	}
}

func circleZone(id string, lat, lon float64) models.Zone {
	return models.Zone{ID: id, Name: "stop-" + id, CenterLat: &lat, CenterLon: &lon}
}

func TestSmoothColdStart(t *testing.T) {
	assert.Equal(t, 40.0, Smooth(0, 40))
}

func TestSmoothBlends(t *testing.T) {
	assert.InDelta(t, 42.0, Smooth(40, 60), 0.0001)
}

func TestMatchPolygonUpdatesStatsAndAudit(t *testing.T) {
	store := newFakeStore(polygonZone("z1"))
	m := NewMatcher(store, nil, zap.NewNop())

	m.Match(context.Background(), "AA:BB", 14.880, 102.020, 40, 55, true)

	require.Contains(t, store.statUpdates, "z1")
	assert.Equal(t, 40.0, store.statUpdates["z1"][0])
	assert.Equal(t, 55.0, store.statUpdates["z1"][1])

	require.Len(t, store.visits, 1)
	assert.Equal(t, "AA:BB", store.visits[0].MACAddress)
	assert.Equal(t, "z1", store.visits[0].ZoneID)
}

func TestMatchOutsideTouchesNothing(t *testing.T) {
	store := newFakeStore(polygonZone("z1"))
	m := NewMatcher(store, nil, zap.NewNop())

	m.Match(context.Background(), "AA:BB", 14.990, 102.020, 40, 55, true)

	assert.Empty(t, store.statUpdates)
	assert.Empty(t, store.visits)
}

func TestMatchCircleFallback(t *testing.T) {
	store := newFakeStore(circleZone("stop", 14.8800, 102.0200))
	m := NewMatcher(store, nil, zap.NewNop())

	// ~43 meters away, inside the default 50 meter radius.
	m.Match(context.Background(), "AA:BB", 14.8800, 102.0204, 12, 20, true)

	assert.Contains(t, store.statUpdates, "stop")
	assert.Len(t, store.visits, 1)
}

func TestMatchMultipleZones(t *testing.T) {
	store := newFakeStore(polygonZone("z1"), circleZone("z2", 14.8800, 102.0200))
	m := NewMatcher(store, nil, zap.NewNop())

	m.Match(context.Background(), "AA:BB", 14.8800, 102.0200, 30, 45, true)

	assert.Len(t, store.statUpdates, 2)
	assert.Len(t, store.visits, 2)
}

func TestMatchAuditFailureDoesNotBlockStats(t *testing.T) {
	store := newFakeStore(polygonZone("z1"))
	store.visitErr = errors.New("disk full")
	m := NewMatcher(store, nil, zap.NewNop())

	m.Match(context.Background(), "AA:BB", 14.880, 102.020, 40, 55, true)

	assert.Contains(t, store.statUpdates, "z1")
}

func TestMatchStatsFailureStillAudits(t *testing.T) {
	store := newFakeStore(polygonZone("z1"))
	store.statsErr = errors.New("store unavailable")
	m := NewMatcher(store, nil, zap.NewNop())

	m.Match(context.Background(), "AA:BB", 14.880, 102.020, 40, 55, true)

	assert.Len(t, store.visits, 1)
}

func TestMatchWithoutAverageUpdateOnlyAudits(t *testing.T) {
	store := newFakeStore(polygonZone("z1"))
	m := NewMatcher(store, nil, zap.NewNop())

	m.Match(context.Background(), "AA:BB", 14.880, 102.020, 0, 0, false)

	assert.Empty(t, store.statUpdates)
	assert.Len(t, store.visits, 1)
}

func TestSmoothSecondSampleUsesEMA(t *testing.T) {
	avg := Smooth(0, 40)
	avg = Smooth(avg, 60)
	assert.InDelta(t, 42.0, avg, 0.0001)
}
