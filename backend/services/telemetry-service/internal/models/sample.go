package models

import "time"

// LocationSample is one immutable history row, written only when a reading has
// a resolved position. Aggregation queries replay these rows.
type LocationSample struct {
	ID         int64     `db:"id" json:"id"`
	MACAddress string    `db:"mac_address" json:"mac_address"`
	Lat        float64   `db:"lat" json:"lat"`
	Lon        float64   `db:"lon" json:"lon"`
	PM25       float64   `db:"pm2_5" json:"pm2_5"`
	PM10       float64   `db:"pm10" json:"pm10"`
	Temp       float64   `db:"temp" json:"temp"`
	Hum        float64   `db:"hum" json:"hum"`
	RecordedAt time.Time `db:"recorded_at" json:"recorded_at"`
}
