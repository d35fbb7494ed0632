package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"strconv"

	"go.uber.org/zap"

	"chargehub/internal/ocpp"
	"chargehub/internal/ocpp/v16"
	"chargehub/internal/repository"
)

// NewStopTransactionHandler registers handler.
func NewStopTransactionHandler(transactions *repository.TransactionRepository, meterValues *repository.MeterValueRepository, logger *zap.Logger) ocpp.HandlerFunc {
	return func(ctx context.Context, chargeBoxID string, payload json.RawMessage) (interface{}, error) {
		req, err := ocpp.Decode[v16.StopTransactionRequest](payload)
		if err != nil {
			return nil, err
		}

		tx, err := transactions.GetTransaction(ctx, req.TransactionID)
		if errors.Is(err, repository.ErrNotFound) {
			// The station may reference a transaction we never saw start,
			// for example after a server-side wipe. Acknowledge anyway so
			// the station does not retry forever.
			logger.Warn("stop for unknown transaction",
				zap.String("charge_box_id", chargeBoxID),
				zap.Int("transaction_id", req.TransactionID))
			return v16.StopTransactionResponse{}, nil
		}
		if err != nil {
			return nil, err
		}

		err = transactions.UpdateStop(ctx, req.TransactionID, req.Timestamp.UTC(), strconv.Itoa(req.MeterStop), req.Reason, "station")
		if err != nil {
			logger.Error("failed to stop transaction",
				zap.String("charge_box_id", chargeBoxID),
				zap.Int("transaction_id", req.TransactionID),
				zap.Error(err))
			return nil, err
		}

		if len(req.TransactionData) > 0 {
			pk := req.TransactionID
			values := flattenMeterValues(req.TransactionData, &pk)
			if err := meterValues.Insert(ctx, chargeBoxID, tx.ConnectorID, &pk, values); err != nil {
				logger.Error("failed to store transaction data",
					zap.String("charge_box_id", chargeBoxID),
					zap.Int("transaction_id", req.TransactionID),
					zap.Error(err))
			}
		}

		logger.Info("transaction stopped",
			zap.String("charge_box_id", chargeBoxID),
			zap.Int("transaction_id", req.TransactionID))

		return v16.StopTransactionResponse{}, nil
	}
}
