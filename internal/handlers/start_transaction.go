package handlers

import (
	"context"
	"encoding/json"
	"strconv"

	"go.uber.org/zap"

	"chargehub/internal/ocpp"
	"chargehub/internal/ocpp/v16"
	"chargehub/internal/repository"
)

// NewStartTransactionHandler registers handler.
func NewStartTransactionHandler(repo *repository.TransactionRepository, logger *zap.Logger) ocpp.HandlerFunc {
	return func(ctx context.Context, chargeBoxID string, payload json.RawMessage) (interface{}, error) {
		req, err := ocpp.Decode[v16.StartTransactionRequest](payload)
		if err != nil {
			return nil, err
		}

		pk, err := repo.InsertStart(ctx, chargeBoxID, req.ConnectorID, req.IdTag, req.Timestamp.UTC(), strconv.Itoa(req.MeterStart))
		if err != nil {
			logger.Error("failed to insert transaction",
				zap.String("charge_box_id", chargeBoxID),
				zap.Int("connector_id", req.ConnectorID),
				zap.Error(err))
			return nil, err
		}

		logger.Info("transaction started",
			zap.String("charge_box_id", chargeBoxID),
			zap.Int("connector_id", req.ConnectorID),
			zap.Int("transaction_pk", pk))

		return v16.StartTransactionResponse{
			TransactionID: pk,
			IdTagInfo:     v16.IdTagInfo{Status: v16.StatusAccepted},
		}, nil
	}
}
