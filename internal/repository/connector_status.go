package repository

import (
	"context"
	"database/sql"
	"time"
)

// ConnectorStatusRepository keeps the status history reported by stations.
type ConnectorStatusRepository struct {
	db *sql.DB
}

// NewConnectorStatusRepository returns repository.
func NewConnectorStatusRepository(db *sql.DB) *ConnectorStatusRepository {
	return &ConnectorStatusRepository{db: db}
}

// Insert appends one status notification.
func (r *ConnectorStatusRepository) Insert(ctx context.Context, chargeBoxID string, connectorID int, status, errorCode, info string, at time.Time) error {
	const query = `
		INSERT INTO connector_status (charge_box_id, connector_id, status, error_code, info, status_timestamp)
		VALUES ($1, $2, $3, NULLIF($4, ''), NULLIF($5, ''), $6)
	`
	_, err := r.db.ExecContext(ctx, query, chargeBoxID, connectorID, status, errorCode, info, at)
	return err
}
