package repository

import (
	"context"
	"database/sql"
	"time"

	"shuttletrack/backend/services/telemetry-service/internal/models"
)

// HistoryRepository appends and replays immutable location samples.
type HistoryRepository struct {
	db *sql.DB
}

// NewHistoryRepository returns repository.
func NewHistoryRepository(db *sql.DB) *HistoryRepository {
	return &HistoryRepository{db: db}
}

// Append stores one sample. Rows are never updated or deleted by the service.
func (r *HistoryRepository) Append(ctx context.Context, s models.LocationSample) error {
	const query = `
		INSERT INTO location_history (mac_address, lat, lon, pm2_5, pm10, temp, hum, recorded_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`
	_, err := r.db.ExecContext(ctx, query,
		s.MACAddress,
		s.Lat,
		s.Lon,
		s.PM25,
		s.PM10,
		s.Temp,
		s.Hum,
		s.RecordedAt,
	)
	return err
}

// FetchWindow returns up to limit samples newer than cutoff, newest first.
// A zero cutoff means no lower bound; an empty mac means all devices.
func (r *HistoryRepository) FetchWindow(ctx context.Context, cutoff time.Time, mac string, limit int) ([]models.LocationSample, error) {
	const query = `
		SELECT id, mac_address, lat, lon, pm2_5, pm10, temp, hum, recorded_at
		FROM location_history
		WHERE ($1::timestamptz IS NULL OR recorded_at >= $1)
		  AND ($2 = '' OR mac_address = $2)
		ORDER BY recorded_at DESC
		LIMIT $3
	`
	var cutoffArg interface{}
	if !cutoff.IsZero() {
		cutoffArg = cutoff
	}

	rows, err := r.db.QueryContext(ctx, query, cutoffArg, mac, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var samples []models.LocationSample
	for rows.Next() {
		var s models.LocationSample
		if err := rows.Scan(
			&s.ID,
			&s.MACAddress,
			&s.Lat,
			&s.Lon,
			&s.PM25,
			&s.PM10,
			&s.Temp,
			&s.Hum,
			&s.RecordedAt,
		); err != nil {
			return nil, err
		}
		samples = append(samples, s)
	}
	return samples, rows.Err()
}
