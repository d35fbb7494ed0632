package repository

import (
	"context"
	"database/sql"
)

// OcppLogRepository records raw OCPP frames for audit.
type OcppLogRepository struct {
	db *sql.DB
}

// NewOcppLogRepository returns repository.
func NewOcppLogRepository(db *sql.DB) *OcppLogRepository {
	return &OcppLogRepository{db: db}
}

// Save appends one frame.
func (r *OcppLogRepository) Save(ctx context.Context, chargeBoxID, direction, action string, payload []byte) error {
	const query = `
		INSERT INTO ocpp_log (charge_box_id, direction, action, payload, created_at)
		VALUES ($1, $2, $3, $4, NOW())
	`
	_, err := r.db.ExecContext(ctx, query, chargeBoxID, direction, action, payload)
	return err
}
