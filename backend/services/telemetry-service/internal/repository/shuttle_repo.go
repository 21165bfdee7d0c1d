package repository

import (
	"context"
	"database/sql"
	"errors"

	"shuttletrack/backend/services/telemetry-service/internal/models"
)

// ShuttleRepository persists live shuttle state, one row per MAC address.
type ShuttleRepository struct {
	db *sql.DB
}

// NewShuttleRepository returns repository.
func NewShuttleRepository(db *sql.DB) *ShuttleRepository {
	return &ShuttleRepository{db: db}
}

// TelemetryUpdate carries the fields of one accepted full update. Nil name and
// position mean "leave the stored value untouched".
type TelemetryUpdate struct {
	MACAddress     string
	Name           *string
	Lat            *float64
	Lon            *float64
	SeatsAvailable int
	PM25           float64
	PM10           float64
	Temp           float64
	Hum            float64
}

// GetByMAC returns the live record, or nil when the device has never reported.
func (r *ShuttleRepository) GetByMAC(ctx context.Context, mac string) (*models.Shuttle, error) {
	const query = `
		SELECT mac_address, bus_name, current_lat, current_lon, seats_available,
		       pm2_5, pm10, temp, hum, last_updated
		FROM shuttles
		WHERE mac_address = $1
	`
	var s models.Shuttle
	err := r.db.QueryRowContext(ctx, query, mac).Scan(
		&s.MACAddress,
		&s.Name,
		&s.CurrentLat,
		&s.CurrentLon,
		&s.SeatsAvailable,
		&s.PM25,
		&s.PM10,
		&s.Temp,
		&s.Hum,
		&s.LastUpdated,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &s, nil
}

// UpsertTelemetry applies a full update with create-on-first-seen semantics.
// The single-row upsert is atomic in Postgres, so concurrent updates for the
// same MAC can never create duplicates. COALESCE keeps the stored name and
// position when the update carries none.
func (r *ShuttleRepository) UpsertTelemetry(ctx context.Context, u TelemetryUpdate) error {
	const query = `
		INSERT INTO shuttles (mac_address, bus_name, current_lat, current_lon,
		                      seats_available, pm2_5, pm10, temp, hum, last_updated)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, NOW())
		ON CONFLICT (mac_address) DO UPDATE SET
			bus_name        = COALESCE(EXCLUDED.bus_name, shuttles.bus_name),
			current_lat     = COALESCE(EXCLUDED.current_lat, shuttles.current_lat),
			current_lon     = COALESCE(EXCLUDED.current_lon, shuttles.current_lon),
			seats_available = EXCLUDED.seats_available,
			pm2_5           = EXCLUDED.pm2_5,
			pm10            = EXCLUDED.pm10,
			temp            = EXCLUDED.temp,
			hum             = EXCLUDED.hum,
			last_updated    = NOW()
	`
	_, err := r.db.ExecContext(ctx, query,
		u.MACAddress,
		u.Name,
		u.Lat,
		u.Lon,
		u.SeatsAvailable,
		u.PM25,
		u.PM10,
		u.Temp,
		u.Hum,
	)
	return err
}

// UpsertPosition updates only the position fields, used for fast fixes that
// carry no trustworthy sensor data.
func (r *ShuttleRepository) UpsertPosition(ctx context.Context, mac string, lat, lon float64) error {
	const query = `
		INSERT INTO shuttles (mac_address, current_lat, current_lon, last_updated)
		VALUES ($1, $2, $3, NOW())
		ON CONFLICT (mac_address) DO UPDATE SET
			current_lat  = $2,
			current_lon  = $3,
			last_updated = NOW()
	`
	_, err := r.db.ExecContext(ctx, query, mac, lat, lon)
	return err
}

// UpdateSeats sets seat availability for the door-counter side path.
func (r *ShuttleRepository) UpdateSeats(ctx context.Context, mac string, seats int) error {
	const query = `
		INSERT INTO shuttles (mac_address, seats_available, last_updated)
		VALUES ($1, $2, NOW())
		ON CONFLICT (mac_address) DO UPDATE SET
			seats_available = $2,
			last_updated    = NOW()
	`
	_, err := r.db.ExecContext(ctx, query, mac, seats)
	return err
}

// List returns all live records for the map bootstrap endpoint.
func (r *ShuttleRepository) List(ctx context.Context, limit int) ([]models.Shuttle, error) {
	const query = `
		SELECT mac_address, bus_name, current_lat, current_lon, seats_available,
		       pm2_5, pm10, temp, hum, last_updated
		FROM shuttles
		ORDER BY last_updated DESC
		LIMIT $1
	`
	rows, err := r.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var shuttles []models.Shuttle
	for rows.Next() {
		var s models.Shuttle
		if err := rows.Scan(
			&s.MACAddress,
			&s.Name,
			&s.CurrentLat,
			&s.CurrentLon,
			&s.SeatsAvailable,
			&s.PM25,
			&s.PM10,
			&s.Temp,
			&s.Hum,
			&s.LastUpdated,
		); err != nil {
			return nil, err
		}
		shuttles = append(shuttles, s)
	}
	return shuttles, rows.Err()
}
