package handlers

import (
	"context"
	"encoding/json"
	"time"

	"go.uber.org/zap"

	"chargehub/internal/ocpp"
	"chargehub/internal/ocpp/v16"
	"chargehub/internal/repository"
)

// NewStatusNotificationHandler registers handler.
func NewStatusNotificationHandler(repo *repository.ConnectorStatusRepository, logger *zap.Logger) ocpp.HandlerFunc {
	return func(ctx context.Context, chargeBoxID string, payload json.RawMessage) (interface{}, error) {
		req, err := ocpp.Decode[v16.StatusNotificationRequest](payload)
		if err != nil {
			return nil, err
		}

		// Some stations omit the timestamp; fall back to receive time.
		at := time.Now().UTC()
		if req.Timestamp != nil {
			at = *req.Timestamp
		}

		if err := repo.Insert(ctx, chargeBoxID, req.ConnectorID, req.Status, req.ErrorCode, req.Info, at); err != nil {
			logger.Error("failed to store connector status",
				zap.String("charge_box_id", chargeBoxID),
				zap.Int("connector_id", req.ConnectorID),
				zap.Error(err))
			return nil, err
		}

		return v16.StatusNotificationResponse{}, nil
	}
}
