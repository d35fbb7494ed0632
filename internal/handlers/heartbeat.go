package handlers

import (
	"context"
	"encoding/json"
	"time"

	"go.uber.org/zap"

	"chargehub/internal/ocpp"
	"chargehub/internal/ocpp/v16"
	"chargehub/internal/presence"
	"chargehub/internal/repository"
)

// NewHeartbeatHandler registers handler.
func NewHeartbeatHandler(repo *repository.ChargePointRepository, online *presence.Store, logger *zap.Logger) ocpp.HandlerFunc {
	return func(ctx context.Context, chargeBoxID string, payload json.RawMessage) (interface{}, error) {
		now := time.Now().UTC()

		if err := repo.UpdateHeartbeat(ctx, chargeBoxID, now); err != nil {
			logger.Error("failed to update heartbeat", zap.String("charge_box_id", chargeBoxID), zap.Error(err))
			return nil, err
		}
		if err := online.Touch(ctx, chargeBoxID); err != nil {
			logger.Warn("failed to refresh presence", zap.String("charge_box_id", chargeBoxID), zap.Error(err))
		}

		return v16.HeartbeatResponse{CurrentTime: now}, nil
	}
}
