package dispatch

import (
	"context"

	"chargehub/internal/models"
	"chargehub/internal/ocpp"
	"chargehub/internal/task"
)

// OutcomeFunc receives the terminal outcome for one targeted charge box.
// Invoked exactly once per target: either with the normalized device status,
// or with a transport/protocol error.
type OutcomeFunc func(chargeBoxID string, status string, err error)

// ProtocolAdapter converts a task's domain request into the version-specific
// wire request, submits it, and adapts the response back into a status.
type ProtocolAdapter interface {
	// Protocol identifies the version and transport the adapter speaks.
	Protocol() ocpp.Protocol
	// Supports reports whether the protocol version can perform the operation.
	Supports(op task.Operation) bool
	// Send dispatches the task's request to one target. Must not block on the
	// device response; the outcome callback fires when the device answers or
	// the transport fails.
	Send(ctx context.Context, target models.ChargePointSelect, t *task.CommunicationTask, onOutcome OutcomeFunc)
}
