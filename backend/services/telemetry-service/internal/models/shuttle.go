package models

import "time"

// Shuttle is the live-state record for one onboard device, keyed by MAC address.
// Position stays null until the device reports its first fix.
type Shuttle struct {
	MACAddress     string    `db:"mac_address" json:"mac_address"`
	Name           *string   `db:"bus_name" json:"bus_name,omitempty"`
	CurrentLat     *float64  `db:"current_lat" json:"current_lat"`
	CurrentLon     *float64  `db:"current_lon" json:"current_lon"`
	SeatsAvailable int       `db:"seats_available" json:"seats_available"`
	PM25           float64   `db:"pm2_5" json:"pm2_5"`
	PM10           float64   `db:"pm10" json:"pm10"`
	Temp           float64   `db:"temp" json:"temp"`
	Hum            float64   `db:"hum" json:"hum"`
	LastUpdated    time.Time `db:"last_updated" json:"last_updated"`
}

// BlockedDevice marks a MAC address whose messages are dropped on ingest.
type BlockedDevice struct {
	MACAddress string    `db:"mac_address" json:"mac_address"`
	Reason     *string   `db:"reason" json:"reason,omitempty"`
	CreatedAt  time.Time `db:"created_at" json:"created_at"`
}
