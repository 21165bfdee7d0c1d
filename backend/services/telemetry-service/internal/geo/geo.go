package geo

import "math"

const earthRadiusMeters = 6371000.0

// PointInPolygon reports whether (lat, lon) lies inside the polygon described
// by points, each a [lat, lon] pair. The vertex list is treated as closed: the
// edge from the last point back to the first is included. Uses ray casting
// with a horizontal ray; fully-horizontal edges are skipped so they are not
// counted twice.
func PointInPolygon(lat, lon float64, points [][2]float64) bool {
	n := len(points)
	if n < 3 {
		return false
	}

	inside := false
	j := n - 1
	for i := 0; i < n; i++ {
		latI, lonI := points[i][0], points[i][1]
		latJ, lonJ := points[j][0], points[j][1]
		j = i

		if latI == latJ {
			continue
		}
		if (latI > lat) == (latJ > lat) {
			continue
		}

		crossLon := lonI + (lat-latI)*(lonJ-lonI)/(latJ-latI)
		if lon < crossLon {
			inside = !inside
		}
	}
	return inside
}

// Haversine returns the great-circle distance in meters between two points.
func Haversine(lat1, lon1, lat2, lon2 float64) float64 {
	phi1 := lat1 * math.Pi / 180
	phi2 := lat2 * math.Pi / 180
	dPhi := (lat2 - lat1) * math.Pi / 180
	dLambda := (lon2 - lon1) * math.Pi / 180

	a := math.Sin(dPhi/2)*math.Sin(dPhi/2) +
		math.Cos(phi1)*math.Cos(phi2)*math.Sin(dLambda/2)*math.Sin(dLambda/2)
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))

	return earthRadiusMeters * c
}

// InCircle reports whether (lat, lon) lies within radiusMeters of the center.
func InCircle(lat, lon, centerLat, centerLon, radiusMeters float64) bool {
	return Haversine(lat, lon, centerLat, centerLon) <= radiusMeters
}
