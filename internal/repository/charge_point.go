package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"chargehub/internal/models"
)

// ChargePointRepository manages charge point persistence.
type ChargePointRepository struct {
	db *sql.DB
}

// NewChargePointRepository returns repository.
func NewChargePointRepository(db *sql.DB) *ChargePointRepository {
	return &ChargePointRepository{db: db}
}

// Upsert stores or updates charge point metadata.
func (r *ChargePointRepository) Upsert(ctx context.Context, cp *models.ChargePoint) error {
	const query = `
		INSERT INTO charge_point (charge_box_id, ocpp_protocol, endpoint, vendor, model, firmware_version, last_heartbeat, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, NOW(), NOW())
		ON CONFLICT (charge_box_id) DO UPDATE SET
			ocpp_protocol = EXCLUDED.ocpp_protocol,
			endpoint = EXCLUDED.endpoint,
			vendor = EXCLUDED.vendor,
			model = EXCLUDED.model,
			firmware_version = EXCLUDED.firmware_version,
			last_heartbeat = EXCLUDED.last_heartbeat,
			updated_at = NOW()
	`
	if cp.LastHeartbeat.IsZero() {
		cp.LastHeartbeat = time.Now().UTC()
	}
	_, err := r.db.ExecContext(ctx, query,
		cp.ChargeBoxID,
		cp.OcppProtocol,
		cp.Endpoint,
		cp.Vendor,
		cp.Model,
		cp.FirmwareVersion,
		cp.LastHeartbeat,
	)
	return err
}

// UpdateHeartbeat refreshes the last heartbeat instant.
func (r *ChargePointRepository) UpdateHeartbeat(ctx context.Context, chargeBoxID string, at time.Time) error {
	const query = `
		UPDATE charge_point
		SET last_heartbeat = $2,
		    updated_at = NOW()
		WHERE charge_box_id = $1
	`
	_, err := r.db.ExecContext(ctx, query, chargeBoxID, at)
	return err
}

// GetSelect loads the addressing info needed to dispatch to a charge box.
func (r *ChargePointRepository) GetSelect(ctx context.Context, chargeBoxID string) (models.ChargePointSelect, error) {
	const query = `
		SELECT charge_box_id, ocpp_protocol, endpoint
		FROM charge_point
		WHERE charge_box_id = $1
	`
	var sel models.ChargePointSelect
	err := r.db.QueryRowContext(ctx, query, chargeBoxID).Scan(&sel.ChargeBoxID, &sel.OcppProtocol, &sel.Endpoint)
	if errors.Is(err, sql.ErrNoRows) {
		return models.ChargePointSelect{}, ErrNotFound
	}
	if err != nil {
		return models.ChargePointSelect{}, err
	}
	return sel, nil
}
