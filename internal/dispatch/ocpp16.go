package dispatch

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"go.uber.org/zap"

	"chargehub/internal/models"
	"chargehub/internal/ocpp"
	"chargehub/internal/ocpp/v16"
	"chargehub/internal/schedule"
	"chargehub/internal/task"
	"chargehub/internal/ws"
)

// CallSender is the seam to the OCPP-J connection layer.
type CallSender interface {
	Get(chargeBoxID string) (*ws.Connection, bool)
}

// OCPP16Adapter speaks OCPP 1.6 over JSON websockets. It is the only version
// with the smart charging feature profile.
type OCPP16Adapter struct {
	connections CallSender
	now         func() time.Time
	logger      *zap.Logger
}

// NewOCPP16Adapter builds the adapter.
func NewOCPP16Adapter(connections CallSender, logger *zap.Logger) *OCPP16Adapter {
	return &OCPP16Adapter{
		connections: connections,
		now:         time.Now,
		logger:      logger,
	}
}

// Protocol implements ProtocolAdapter.
func (a *OCPP16Adapter) Protocol() ocpp.Protocol {
	return ocpp.Protocol{Version: ocpp.V16, Transport: ocpp.TransportJSON}
}

// Supports implements ProtocolAdapter. 1.6 handles every modeled operation.
func (a *OCPP16Adapter) Supports(op task.Operation) bool {
	switch op {
	case task.OpSetChargingProfile,
		task.OpClearChargingProfile,
		task.OpGetCompositeSchedule,
		task.OpRemoteStartTransaction,
		task.OpRemoteStopTransaction:
		return true
	default:
		return false
	}
}

// Send implements ProtocolAdapter.
func (a *OCPP16Adapter) Send(ctx context.Context, target models.ChargePointSelect, t *task.CommunicationTask, onOutcome OutcomeFunc) {
	conn, ok := a.connections.Get(target.ChargeBoxID)
	if !ok {
		onOutcome(target.ChargeBoxID, "", fmt.Errorf("charge point %s is not connected", target.ChargeBoxID))
		return
	}

	action, request, err := a.buildRequest(t)
	if err != nil {
		onOutcome(target.ChargeBoxID, "", err)
		return
	}

	a.logger.Debug("dispatching ocpp 1.6 call",
		zap.Int("task_id", t.ID()),
		zap.String("charge_box_id", target.ChargeBoxID),
		zap.String("action", action))

	err = conn.SendCall(action, request, func(payload json.RawMessage, callErr error) {
		if callErr != nil {
			onOutcome(target.ChargeBoxID, "", callErr)
			return
		}
		status, decodeErr := decodeStatus(t.Operation(), payload)
		if decodeErr != nil {
			onOutcome(target.ChargeBoxID, "", decodeErr)
			return
		}
		onOutcome(target.ChargeBoxID, status, nil)
	})
	if err != nil {
		onOutcome(target.ChargeBoxID, "", err)
	}
}

func (a *OCPP16Adapter) buildRequest(t *task.CommunicationTask) (string, interface{}, error) {
	switch p := t.Payload().(type) {
	case SetChargingProfilePayload:
		req := schedule.BuildSetChargingProfileRequest(p.Details, p.ConnectorID, p.TransactionID, a.now)
		return v16.ActionSetChargingProfile, req, nil
	case ClearChargingProfilePayload:
		return v16.ActionClearChargingProfile, schedule.BuildClearChargingProfileRequest(p.Filter), nil
	case GetCompositeSchedulePayload:
		return v16.ActionGetCompositeSchedule, schedule.BuildGetCompositeScheduleRequest(p.ConnectorID, p.DurationSeconds, p.RateUnit), nil
	case RemoteStartPayload:
		return v16.ActionRemoteStartTransaction, v16.RemoteStartTransactionRequest{ConnectorID: p.ConnectorID, IdTag: p.IDTag}, nil
	case RemoteStopPayload:
		return v16.ActionRemoteStopTransaction, v16.RemoteStopTransactionRequest{TransactionID: p.TransactionID}, nil
	default:
		return "", nil, fmt.Errorf("dispatch: unexpected payload type %T for %s", p, t.Operation())
	}
}

// decodeStatus normalizes the device's answer into its status string.
func decodeStatus(op task.Operation, payload json.RawMessage) (string, error) {
	switch op {
	case task.OpSetChargingProfile:
		resp, err := ocpp.Decode[v16.SetChargingProfileResponse](payload)
		return resp.Status, err
	case task.OpClearChargingProfile:
		resp, err := ocpp.Decode[v16.ClearChargingProfileResponse](payload)
		return resp.Status, err
	case task.OpGetCompositeSchedule:
		resp, err := ocpp.Decode[v16.GetCompositeScheduleResponse](payload)
		return resp.Status, err
	case task.OpRemoteStartTransaction:
		resp, err := ocpp.Decode[v16.RemoteStartTransactionResponse](payload)
		return resp.Status, err
	case task.OpRemoteStopTransaction:
		resp, err := ocpp.Decode[v16.RemoteStopTransactionResponse](payload)
		return resp.Status, err
	default:
		return "", fmt.Errorf("dispatch: unexpected operation %s", op)
	}
}
