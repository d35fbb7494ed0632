package handlers

import (
	"context"
	"encoding/json"
	"time"

	"go.uber.org/zap"

	"chargehub/internal/models"
	"chargehub/internal/ocpp"
	"chargehub/internal/ocpp/v16"
	"chargehub/internal/repository"
)

const heartbeatIntervalSeconds = 60

// NewBootNotificationHandler registers handler.
func NewBootNotificationHandler(repo *repository.ChargePointRepository, logger *zap.Logger) ocpp.HandlerFunc {
	return func(ctx context.Context, chargeBoxID string, payload json.RawMessage) (interface{}, error) {
		req, err := ocpp.Decode[v16.BootNotificationRequest](payload)
		if err != nil {
			return nil, err
		}

		cp := &models.ChargePoint{
			ChargeBoxID:     chargeBoxID,
			OcppProtocol:    "ocpp1.6J",
			Vendor:          req.ChargePointVendor,
			Model:           req.ChargePointModel,
			FirmwareVersion: req.FirmwareVersion,
			LastHeartbeat:   time.Now().UTC(),
		}

		if err := repo.Upsert(ctx, cp); err != nil {
			logger.Error("failed to upsert charge point", zap.String("charge_box_id", chargeBoxID), zap.Error(err))
			return nil, err
		}

		return v16.BootNotificationResponse{
			Status:      v16.StatusAccepted,
			CurrentTime: time.Now().UTC(),
			Interval:    heartbeatIntervalSeconds,
		}, nil
	}
}
