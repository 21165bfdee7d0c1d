package repository

import (
	"context"
	"database/sql"
)

// BlockedRepository answers whether a device identity is blocked from ingest.
type BlockedRepository struct {
	db *sql.DB
}

// NewBlockedRepository returns repository.
func NewBlockedRepository(db *sql.DB) *BlockedRepository {
	return &BlockedRepository{db: db}
}

// IsBlocked reports whether mac is on the block list.
func (r *BlockedRepository) IsBlocked(ctx context.Context, mac string) (bool, error) {
	const query = `SELECT EXISTS (SELECT 1 FROM blocked_devices WHERE mac_address = $1)`
	var blocked bool
	if err := r.db.QueryRowContext(ctx, query, mac).Scan(&blocked); err != nil {
		return false, err
	}
	return blocked, nil
}
