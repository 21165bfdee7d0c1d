package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"

	"shuttletrack/backend/services/telemetry-service/internal/models"
)

// ZoneRepository manages geofence zones, their running averages and the
// append-only visit audit.
type ZoneRepository struct {
	db *sql.DB
}

// NewZoneRepository returns repository.
func NewZoneRepository(db *sql.DB) *ZoneRepository {
	return &ZoneRepository{db: db}
}

// List returns all configured zones.
func (r *ZoneRepository) List(ctx context.Context) ([]models.Zone, error) {
	const query = `
		SELECT id, name, points, center_lat, center_lon, radius_m,
		       avg_pm25, avg_pm10, last_updated, created_at
		FROM zones
		ORDER BY created_at
	`
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var zones []models.Zone
	for rows.Next() {
		var (
			z      models.Zone
			points []byte
		)
		if err := rows.Scan(
			&z.ID,
			&z.Name,
			&points,
			&z.CenterLat,
			&z.CenterLon,
			&z.RadiusM,
			&z.AvgPM25,
			&z.AvgPM10,
			&z.LastUpdated,
			&z.CreatedAt,
		); err != nil {
			return nil, err
		}
		if len(points) > 0 {
			if err := json.Unmarshal(points, &z.Points); err != nil {
				return nil, fmt.Errorf("zone %s: decode points: %w", z.ID, err)
			}
		}
		zones = append(zones, z)
	}
	return zones, rows.Err()
}

// Create inserts a zone and returns its generated id.
func (r *ZoneRepository) Create(ctx context.Context, z models.Zone) (string, error) {
	const query = `
		INSERT INTO zones (id, name, points, center_lat, center_lon, radius_m,
		                   avg_pm25, avg_pm10, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, 0, 0, NOW())
	`
	points, err := json.Marshal(z.Points)
	if err != nil {
		return "", err
	}

	id := uuid.NewString()
	_, err = r.db.ExecContext(ctx, query, id, z.Name, points, z.CenterLat, z.CenterLon, z.RadiusM)
	if err != nil {
		return "", err
	}
	return id, nil
}

// Delete removes a zone. Visit audit rows are kept for offline analysis.
func (r *ZoneRepository) Delete(ctx context.Context, id string) (bool, error) {
	const query = `DELETE FROM zones WHERE id = $1`
	result, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return false, err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return false, err
	}
	return affected > 0, nil
}

// UpdateStats stores the smoothed pollutant averages. Read-modify-write across
// List and this call is not atomic; simultaneous traffic in the same zone may
// lose an update, which is acceptable for monitoring data.
func (r *ZoneRepository) UpdateStats(ctx context.Context, id string, avgPM25, avgPM10 float64) error {
	const query = `
		UPDATE zones
		SET avg_pm25 = $2, avg_pm10 = $3, last_updated = NOW()
		WHERE id = $1
	`
	_, err := r.db.ExecContext(ctx, query, id, avgPM25, avgPM10)
	return err
}

// AppendVisit records one audit row for a zone match.
func (r *ZoneRepository) AppendVisit(ctx context.Context, v models.ZoneVisit) error {
	const query = `
		INSERT INTO zone_visits (zone_id, mac_address, pm2_5, pm10, recorded_at)
		VALUES ($1, $2, $3, $4, $5)
	`
	_, err := r.db.ExecContext(ctx, query, v.ZoneID, v.MACAddress, v.PM25, v.PM10, v.RecordedAt)
	return err
}
