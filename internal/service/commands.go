package service

import (
	"context"

	"go.uber.org/zap"

	"chargehub/internal/dispatch"
	"chargehub/internal/models"
	"chargehub/internal/schedule"
	"chargehub/internal/task"
)

// ChargePointStore resolves dispatch targets from stored metadata.
type ChargePointStore interface {
	GetSelect(ctx context.Context, chargeBoxID string) (models.ChargePointSelect, error)
}

// ProfileStore loads charging profile details.
type ProfileStore interface {
	GetDetails(ctx context.Context, chargingProfilePk int) (models.ChargingProfileDetails, error)
}

// CommandService assembles domain requests and hands them to the dispatcher.
// Validation and version checks fail fast here, before any task exists.
type CommandService struct {
	chargePoints ChargePointStore
	profiles     ProfileStore
	dispatcher   *dispatch.Dispatcher
	logger       *zap.Logger
}

// NewCommandService builds the service.
func NewCommandService(chargePoints ChargePointStore, profiles ProfileStore, dispatcher *dispatch.Dispatcher, logger *zap.Logger) *CommandService {
	return &CommandService{
		chargePoints: chargePoints,
		profiles:     profiles,
		dispatcher:   dispatcher,
		logger:       logger,
	}
}

// SetChargingProfile dispatches a stored profile to one charge box connector.
func (s *CommandService) SetChargingProfile(ctx context.Context, chargeBoxID string, chargingProfilePk, connectorID int, transactionID *int, caller string) (int, error) {
	sel, err := s.chargePoints.GetSelect(ctx, chargeBoxID)
	if err != nil {
		return 0, err
	}
	if !s.dispatcher.Supports(sel.OcppProtocol, task.OpSetChargingProfile) {
		return 0, dispatch.ErrUnsupportedVersion
	}

	details, err := s.profiles.GetDetails(ctx, chargingProfilePk)
	if err != nil {
		return 0, err
	}
	if err := schedule.ValidateProfile(details.Profile); err != nil {
		return 0, err
	}

	payload := dispatch.SetChargingProfilePayload{
		Details:       details,
		ConnectorID:   connectorID,
		TransactionID: transactionID,
	}
	return s.dispatcher.Dispatch(ctx, []models.ChargePointSelect{sel}, task.OpSetChargingProfile, task.OriginExternal, caller, payload)
}

// ClearChargingProfile dispatches a profile removal matching the filter.
func (s *CommandService) ClearChargingProfile(ctx context.Context, chargeBoxID string, filter models.ClearChargingProfileFilter, caller string) (int, error) {
	sel, err := s.chargePoints.GetSelect(ctx, chargeBoxID)
	if err != nil {
		return 0, err
	}
	if !s.dispatcher.Supports(sel.OcppProtocol, task.OpClearChargingProfile) {
		return 0, dispatch.ErrUnsupportedVersion
	}

	payload := dispatch.ClearChargingProfilePayload{Filter: filter}
	return s.dispatcher.Dispatch(ctx, []models.ChargePointSelect{sel}, task.OpClearChargingProfile, task.OriginExternal, caller, payload)
}

// GetCompositeSchedule asks one charge box for its effective schedule.
func (s *CommandService) GetCompositeSchedule(ctx context.Context, chargeBoxID string, connectorID, durationSeconds int, rateUnit *models.ChargingRateUnit, caller string) (int, error) {
	sel, err := s.chargePoints.GetSelect(ctx, chargeBoxID)
	if err != nil {
		return 0, err
	}
	if !s.dispatcher.Supports(sel.OcppProtocol, task.OpGetCompositeSchedule) {
		return 0, dispatch.ErrUnsupportedVersion
	}

	payload := dispatch.GetCompositeSchedulePayload{
		ConnectorID:     connectorID,
		DurationSeconds: durationSeconds,
		RateUnit:        rateUnit,
	}
	return s.dispatcher.Dispatch(ctx, []models.ChargePointSelect{sel}, task.OpGetCompositeSchedule, task.OriginExternal, caller, payload)
}

// RemoteStartTransaction fans a remote start out to one or more charge boxes.
// One task tracks all targets; unsupported targets are recorded on the task
// rather than failing the batch.
func (s *CommandService) RemoteStartTransaction(ctx context.Context, chargeBoxIDs []string, connectorID *int, idTag, caller string) (int, error) {
	targets, err := s.resolveTargets(ctx, chargeBoxIDs)
	if err != nil {
		return 0, err
	}
	payload := dispatch.RemoteStartPayload{ConnectorID: connectorID, IDTag: idTag}
	return s.dispatcher.Dispatch(ctx, targets, task.OpRemoteStartTransaction, task.OriginExternal, caller, payload)
}

// RemoteStopTransaction asks a charge box to stop a transaction.
func (s *CommandService) RemoteStopTransaction(ctx context.Context, chargeBoxID string, transactionID int, caller string) (int, error) {
	sel, err := s.chargePoints.GetSelect(ctx, chargeBoxID)
	if err != nil {
		return 0, err
	}
	payload := dispatch.RemoteStopPayload{TransactionID: transactionID}
	return s.dispatcher.Dispatch(ctx, []models.ChargePointSelect{sel}, task.OpRemoteStopTransaction, task.OriginExternal, caller, payload)
}

func (s *CommandService) resolveTargets(ctx context.Context, chargeBoxIDs []string) ([]models.ChargePointSelect, error) {
	targets := make([]models.ChargePointSelect, 0, len(chargeBoxIDs))
	for _, id := range chargeBoxIDs {
		sel, err := s.chargePoints.GetSelect(ctx, id)
		if err != nil {
			return nil, err
		}
		targets = append(targets, sel)
	}
	return targets, nil
}
