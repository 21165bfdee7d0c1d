package geo

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

// Square roughly around the campus center.
var square = [][2]float64{
	{14.870, 102.010},
	{14.870, 102.030},
	{14.890, 102.030},
	{14.890, 102.010},
}

func TestPointInPolygonInside(t *testing.T) {
	assert.True(t, PointInPolygon(14.880, 102.020, square))
}

func TestPointInPolygonOutside(t *testing.T) {
	assert.False(t, PointInPolygon(14.900, 102.020, square))
	assert.False(t, PointInPolygon(14.880, 102.050, square))
}

func TestPointInPolygonClosesLastEdge(t *testing.T) {
	// A triangle whose closing edge (last vertex back to the first) is the
	// only thing separating the probe point from the outside.
	triangle := [][2]float64{
		{0, 0},
		{10, 0},
		{10, 10},
	}
	assert.True(t, PointInPolygon(6, 5, triangle))
	assert.False(t, PointInPolygon(2, 5, triangle))
}

func TestPointInPolygonHorizontalEdgeExcluded(t *testing.T) {
	// Point level with the bottom horizontal edge of the square. The
	// horizontal edge itself must not contribute crossings, so the result is
	// stable rather than flipping on the degenerate edge.
	assert.False(t, PointInPolygon(14.870, 102.000, square))
}

func TestPointInPolygonTooFewVertices(t *testing.T) {
	assert.False(t, PointInPolygon(1, 1, [][2]float64{{0, 0}, {2, 2}}))
}

func TestHaversineKnownDistance(t *testing.T) {
	// One degree of latitude is about 111.2 km.
	d := Haversine(14.0, 102.0, 15.0, 102.0)
	assert.InDelta(t, 111195, d, 200)
}

func TestHaversineZeroDistance(t *testing.T) {
	assert.InDelta(t, 0, Haversine(14.88, 102.02, 14.88, 102.02), 0.0001)
}

func TestInCircle(t *testing.T) {
	// ~44 meters east at this latitude.
	assert.True(t, InCircle(14.8800, 102.0204, 14.8800, 102.0200, 50))
	assert.False(t, InCircle(14.8800, 102.0300, 14.8800, 102.0200, 50))
}
