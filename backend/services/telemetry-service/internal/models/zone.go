package models

import "time"

// Zone is a named geofence: either a polygon (three or more vertices) or a
// circle around a center point. Running pollutant averages are smoothed in
// place every time a shuttle position lands inside the zone.
type Zone struct {
	ID          string       `db:"id" json:"id"`
	Name        string       `db:"name" json:"name"`
	Points      [][2]float64 `db:"points" json:"points"`
	CenterLat   *float64     `db:"center_lat" json:"center_lat,omitempty"`
	CenterLon   *float64     `db:"center_lon" json:"center_lon,omitempty"`
	RadiusM     *float64     `db:"radius_m" json:"radius_m,omitempty"`
	AvgPM25     float64      `db:"avg_pm25" json:"avg_pm25"`
	AvgPM10     float64      `db:"avg_pm10" json:"avg_pm10"`
	LastUpdated *time.Time   `db:"last_updated" json:"last_updated,omitempty"`
	CreatedAt   time.Time    `db:"created_at" json:"created_at"`
}

// ZoneVisit is one append-only audit row recorded when a resolved position
// matched a zone.
type ZoneVisit struct {
	ZoneID     string    `db:"zone_id" json:"zone_id"`
	MACAddress string    `db:"mac_address" json:"mac_address"`
	PM25       float64   `db:"pm2_5" json:"pm2_5"`
	PM10       float64   `db:"pm10" json:"pm10"`
	RecordedAt time.Time `db:"recorded_at" json:"recorded_at"`
}
