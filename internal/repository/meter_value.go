package repository

import (
	"context"
	"database/sql"

	"chargehub/internal/models"
	"chargehub/internal/reconcile"
)

// MeterValueRepository persists sampled meter readings.
type MeterValueRepository struct {
	db *sql.DB
}

// NewMeterValueRepository returns repository.
func NewMeterValueRepository(db *sql.DB) *MeterValueRepository {
	return &MeterValueRepository{db: db}
}

// Insert stores readings reported by one charge box connector. The
// transaction pk is only set when the station tagged the readings itself.
func (r *MeterValueRepository) Insert(ctx context.Context, chargeBoxID string, connectorID int, transactionPk *int, values []models.MeterValue) error {
	const query = `
		INSERT INTO connector_meter_value
			(charge_box_id, connector_id, transaction_pk, value_timestamp, value,
			 reading_context, format, measurand, location, unit, phase)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`
	for _, v := range values {
		_, err := r.db.ExecContext(ctx, query,
			chargeBoxID,
			connectorID,
			nullInt(transactionPk),
			v.ValueTimestamp,
			v.Value,
			nullStr(v.ReadingContext),
			nullStr(v.Format),
			nullStr(v.Measurand),
			nullStr(v.Location),
			nullStr(v.Unit),
			nullStr(v.Phase),
		)
		if err != nil {
			return err
		}
	}
	return nil
}

// ByTransaction returns readings explicitly tagged with the transaction id.
func (r *MeterValueRepository) ByTransaction(ctx context.Context, transactionPk int) ([]models.MeterValue, error) {
	const query = `
		SELECT value_timestamp, value, reading_context, format, measurand, location, unit, phase, transaction_pk
		FROM connector_meter_value
		WHERE transaction_pk = $1
	`
	rows, err := r.db.QueryContext(ctx, query, transactionPk)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanMeterValues(rows)
}

// ByConnectorWindow returns readings on one connector inside the window.
func (r *MeterValueRepository) ByConnectorWindow(ctx context.Context, chargeBoxID string, connectorID int, window reconcile.Window) ([]models.MeterValue, error) {
	const query = `
		SELECT value_timestamp, value, reading_context, format, measurand, location, unit, phase, transaction_pk
		FROM connector_meter_value
		WHERE charge_box_id = $1
		  AND connector_id = $2
		  AND value_timestamp >= $3
		  AND ($4::timestamptz IS NULL OR value_timestamp <= $4)
	`
	var end sql.NullTime
	if window.End != nil {
		end = sql.NullTime{Time: *window.End, Valid: true}
	}
	rows, err := r.db.QueryContext(ctx, query, chargeBoxID, connectorID, window.Start, end)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanMeterValues(rows)
}

func scanMeterValues(rows *sql.Rows) ([]models.MeterValue, error) {
	var out []models.MeterValue
	for rows.Next() {
		var (
			v                                           models.MeterValue
			readingContext, format, measurand, location sql.NullString
			unit, phase                                 sql.NullString
			transactionPk                               sql.NullInt64
		)
		err := rows.Scan(&v.ValueTimestamp, &v.Value, &readingContext, &format, &measurand, &location, &unit, &phase, &transactionPk)
		if err != nil {
			return nil, err
		}
		v.ReadingContext = strPtr(readingContext)
		v.Format = strPtr(format)
		v.Measurand = strPtr(measurand)
		v.Location = strPtr(location)
		v.Unit = strPtr(unit)
		v.Phase = strPtr(phase)
		if transactionPk.Valid {
			pk := int(transactionPk.Int64)
			v.TransactionPk = &pk
		}
		out = append(out, v)
	}
	return out, rows.Err()
}

func nullStr(s *string) sql.NullString {
	if s == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *s, Valid: true}
}

func strPtr(s sql.NullString) *string {
	if !s.Valid {
		return nil
	}
	v := s.String
	return &v
}
