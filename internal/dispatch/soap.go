package dispatch

import (
	"context"
	"encoding/xml"
	"fmt"

	"go.uber.org/zap"

	"chargehub/internal/models"
	"chargehub/internal/ocpp"
	"chargehub/internal/task"
	"chargehub/internal/transport/soap"
)

// remoteStartRequest15 and friends cover the operations the SOAP versions
// share. The smart charging profile does not exist before 1.6, so those
// operations are reported unsupported instead of silently no-oping.
type remoteStartRequest15 struct {
	XMLName     xml.Name `xml:"urn://Ocpp/Cp/2012/06/ remoteStartTransactionRequest"`
	IdTag       string   `xml:"idTag"`
	ConnectorID *int     `xml:"connectorId,omitempty"`
}

type remoteStopRequest15 struct {
	XMLName       xml.Name `xml:"urn://Ocpp/Cp/2012/06/ remoteStopTransactionRequest"`
	TransactionID int      `xml:"transactionId"`
}

type statusResponse15 struct {
	Status string `xml:"status"`
}

// SOAPAdapter speaks OCPP 1.2/1.5 over SOAP.
type SOAPAdapter struct {
	version ocpp.Version
	client  soap.Client
	logger  *zap.Logger
}

// NewSOAPAdapter builds an adapter for one SOAP protocol version.
func NewSOAPAdapter(version ocpp.Version, client soap.Client, logger *zap.Logger) *SOAPAdapter {
	return &SOAPAdapter{version: version, client: client, logger: logger}
}

// Protocol implements ProtocolAdapter.
func (a *SOAPAdapter) Protocol() ocpp.Protocol {
	return ocpp.Protocol{Version: a.version, Transport: ocpp.TransportSOAP}
}

// Supports implements ProtocolAdapter.
func (a *SOAPAdapter) Supports(op task.Operation) bool {
	switch op {
	case task.OpRemoteStartTransaction, task.OpRemoteStopTransaction:
		return true
	default:
		return false
	}
}

// Send implements ProtocolAdapter. The SOAP round trip happens in the calling
// goroutine; the dispatcher runs adapters asynchronously.
func (a *SOAPAdapter) Send(ctx context.Context, target models.ChargePointSelect, t *task.CommunicationTask, onOutcome OutcomeFunc) {
	if target.Endpoint == "" {
		onOutcome(target.ChargeBoxID, "", fmt.Errorf("charge point %s has no SOAP endpoint", target.ChargeBoxID))
		return
	}

	action, request, err := a.buildRequest(t)
	if err != nil {
		onOutcome(target.ChargeBoxID, "", err)
		return
	}

	a.logger.Debug("dispatching soap call",
		zap.Int("task_id", t.ID()),
		zap.String("charge_box_id", target.ChargeBoxID),
		zap.String("action", action))

	var response statusResponse15
	if err := a.client.Call(ctx, target.Endpoint, action, target.ChargeBoxID, request, &response); err != nil {
		onOutcome(target.ChargeBoxID, "", err)
		return
	}
	onOutcome(target.ChargeBoxID, response.Status, nil)
}

func (a *SOAPAdapter) buildRequest(t *task.CommunicationTask) (string, interface{}, error) {
	switch p := t.Payload().(type) {
	case RemoteStartPayload:
		return "/RemoteStartTransaction", remoteStartRequest15{IdTag: p.IDTag, ConnectorID: p.ConnectorID}, nil
	case RemoteStopPayload:
		return "/RemoteStopTransaction", remoteStopRequest15{TransactionID: p.TransactionID}, nil
	default:
		return "", nil, fmt.Errorf("dispatch: operation %s not supported by OCPP %s", t.Operation(), a.version)
	}
}
