package handlers

import (
	"context"
	"encoding/json"

	"go.uber.org/zap"

	"chargehub/internal/models"
	"chargehub/internal/ocpp"
	"chargehub/internal/ocpp/v16"
	"chargehub/internal/repository"
)

// NewMeterValuesHandler registers handler.
func NewMeterValuesHandler(repo *repository.MeterValueRepository, logger *zap.Logger) ocpp.HandlerFunc {
	return func(ctx context.Context, chargeBoxID string, payload json.RawMessage) (interface{}, error) {
		req, err := ocpp.Decode[v16.MeterValuesRequest](payload)
		if err != nil {
			return nil, err
		}

		values := flattenMeterValues(req.MeterValue, req.TransactionID)
		if len(values) == 0 {
			return v16.MeterValuesResponse{}, nil
		}

		if err := repo.Insert(ctx, chargeBoxID, req.ConnectorID, req.TransactionID, values); err != nil {
			logger.Error("failed to store meter values",
				zap.String("charge_box_id", chargeBoxID),
				zap.Int("connector_id", req.ConnectorID),
				zap.Error(err))
			return nil, err
		}

		return v16.MeterValuesResponse{}, nil
	}
}

// flattenMeterValues turns the nested wire layout into one row per sample.
func flattenMeterValues(entries []v16.MeterValue, transactionPk *int) []models.MeterValue {
	var out []models.MeterValue
	for _, entry := range entries {
		for _, sample := range entry.SampledValue {
			out = append(out, models.MeterValue{
				ValueTimestamp: entry.Timestamp.UTC(),
				Value:          sample.Value,
				ReadingContext: sample.Context,
				Format:         sample.Format,
				Measurand:      sample.Measurand,
				Location:       sample.Location,
				Unit:           sample.Unit,
				Phase:          sample.Phase,
				TransactionPk:  transactionPk,
			})
		}
	}
	return out
}
