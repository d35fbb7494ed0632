package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"chargehub/internal/models"
)

// TransactionRepository manages transaction persistence.
type TransactionRepository struct {
	db *sql.DB
}

// NewTransactionRepository returns repository.
func NewTransactionRepository(db *sql.DB) *TransactionRepository {
	return &TransactionRepository{db: db}
}

// InsertStart records a new transaction and returns its pk.
func (r *TransactionRepository) InsertStart(ctx context.Context, chargeBoxID string, connectorID int, idTag string, startTimestamp time.Time, startValue string) (int, error) {
	const query = `
		INSERT INTO transactions (charge_box_id, connector_id, id_tag, start_timestamp, start_value, created_at)
		VALUES ($1, $2, $3, $4, $5, NOW())
		RETURNING transaction_pk
	`
	var pk int
	err := r.db.QueryRowContext(ctx, query, chargeBoxID, connectorID, idTag, startTimestamp, startValue).Scan(&pk)
	return pk, err
}

// UpdateStop records the stop event for a transaction.
func (r *TransactionRepository) UpdateStop(ctx context.Context, transactionPk int, stopTimestamp time.Time, stopValue, stopReason, stopEventActor string) error {
	const query = `
		UPDATE transactions
		SET stop_timestamp = $2,
		    stop_value = $3,
		    stop_reason = NULLIF($4, ''),
		    stop_event_actor = $5
		WHERE transaction_pk = $1
	`
	_, err := r.db.ExecContext(ctx, query, transactionPk, stopTimestamp, stopValue, stopReason, stopEventActor)
	return err
}

// GetTransaction loads one transaction row.
func (r *TransactionRepository) GetTransaction(ctx context.Context, transactionPk int) (models.Transaction, error) {
	const query = `
		SELECT transaction_pk, charge_box_id, connector_id, id_tag,
		       start_timestamp, start_value,
		       stop_timestamp, stop_value, stop_reason, stop_event_actor
		FROM transactions
		WHERE transaction_pk = $1
	`
	var (
		tx            models.Transaction
		stopTimestamp sql.NullTime
		stopValue     sql.NullString
		stopReason    sql.NullString
		stopActor     sql.NullString
	)
	err := r.db.QueryRowContext(ctx, query, transactionPk).Scan(
		&tx.TransactionPk,
		&tx.ChargeBoxID,
		&tx.ConnectorID,
		&tx.IDTag,
		&tx.StartTimestamp,
		&tx.StartValue,
		&stopTimestamp,
		&stopValue,
		&stopReason,
		&stopActor,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Transaction{}, ErrNotFound
	}
	if err != nil {
		return models.Transaction{}, err
	}

	if stopTimestamp.Valid {
		t := stopTimestamp.Time
		tx.StopTimestamp = &t
	}
	if stopValue.Valid {
		v := stopValue.String
		tx.StopValue = &v
	}
	if stopReason.Valid {
		v := stopReason.String
		tx.StopReason = &v
	}
	if stopActor.Valid {
		v := stopActor.String
		tx.StopEventActor = &v
	}
	return tx, nil
}

// NextTransactionStart finds the earliest transaction on the same connector
// starting strictly after the given instant. Returns nil when the transaction
// is still the most recent one on the connector; that is a valid outcome, not
// an error.
func (r *TransactionRepository) NextTransactionStart(ctx context.Context, chargeBoxID string, connectorID int, after time.Time) (*time.Time, error) {
	const query = `
		SELECT start_timestamp
		FROM transactions
		WHERE charge_box_id = $1
		  AND connector_id = $2
		  AND start_timestamp > $3
		ORDER BY start_timestamp
		LIMIT 1
	`
	var start time.Time
	err := r.db.QueryRowContext(ctx, query, chargeBoxID, connectorID, after).Scan(&start)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &start, nil
}
