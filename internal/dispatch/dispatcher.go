package dispatch

import (
	"context"
	"errors"
	"strings"

	"go.uber.org/zap"

	"chargehub/internal/events"
	"chargehub/internal/models"
	"chargehub/internal/ocpp"
	"chargehub/internal/ocpp/v16"
	"chargehub/internal/task"
)

// ErrUnsupportedVersion is returned when no targeted charge point's protocol
// version can perform the requested operation. Surfaced before any task is
// registered.
var ErrUnsupportedVersion = errors.New("dispatch: operation not supported by charge point protocol version")

// ErrTargetOffline marks a target whose presence entry says it is not
// connected. Recorded as a per-target failure, never failing the batch.
var ErrTargetOffline = errors.New("dispatch: charge point is not connected")

// PresenceChecker reports whether a charge box currently holds a live
// connection. A nil checker treats every target as reachable.
type PresenceChecker interface {
	IsOnline(ctx context.Context, chargeBoxID string) (bool, error)
}

// AssignmentStore persists profile-to-connector assignments after a device
// accepts or clears a profile.
type AssignmentStore interface {
	SetAssignment(ctx context.Context, chargingProfilePk int, chargeBoxID string, connectorID int) error
	ClearAssignments(ctx context.Context, chargeBoxID string, filter models.ClearChargingProfileFilter) error
}

// Dispatcher resolves protocol adapters and submits tasks. Fire-and-track:
// the caller gets a task id immediately, device outcomes are recorded on the
// task as they arrive.
type Dispatcher struct {
	store       *task.Store
	adapters    map[ocpp.Protocol]ProtocolAdapter
	presence    PresenceChecker
	assignments AssignmentStore
	events      *events.Publisher
	logger      *zap.Logger
}

// NewDispatcher builds a dispatcher.
func NewDispatcher(store *task.Store, online PresenceChecker, assignments AssignmentStore, publisher *events.Publisher, logger *zap.Logger) *Dispatcher {
	return &Dispatcher{
		store:       store,
		adapters:    make(map[ocpp.Protocol]ProtocolAdapter),
		presence:    online,
		assignments: assignments,
		events:      publisher,
		logger:      logger,
	}
}

// RegisterAdapter attaches an adapter for the protocol it speaks. Keyed by
// version and transport: a 1.6 SOAP charge point must not resolve to the
// websocket adapter.
func (d *Dispatcher) RegisterAdapter(a ProtocolAdapter) {
	d.adapters[a.Protocol()] = a
}

// Supports reports whether the stored protocol of a charge point can perform
// the operation. Used by callers to fail fast before building payloads.
func (d *Dispatcher) Supports(protocol string, op task.Operation) bool {
	parsed, err := ocpp.ParseProtocol(protocol)
	if err != nil {
		return false
	}
	adapter, ok := d.adapters[parsed]
	return ok && adapter.Supports(op)
}

type resolvedTarget struct {
	target  models.ChargePointSelect
	adapter ProtocolAdapter
}

// Dispatch registers one task covering all targets and submits the request to
// each supporting target's adapter. Targets whose version cannot perform the
// operation are recorded as failed entries on the task rather than failing
// the batch; if no target supports it, no task is registered and
// ErrUnsupportedVersion is returned. Never blocks on device responses.
func (d *Dispatcher) Dispatch(ctx context.Context, targets []models.ChargePointSelect, op task.Operation, origin task.Origin, caller string, payload interface{}) (int, error) {
	var (
		supported   []resolvedTarget
		unsupported []string
		names       []string
	)
	for _, target := range targets {
		names = append(names, target.ChargeBoxID)
		parsed, err := ocpp.ParseProtocol(target.OcppProtocol)
		if err != nil {
			unsupported = append(unsupported, target.ChargeBoxID)
			continue
		}
		adapter, ok := d.adapters[parsed]
		if !ok || !adapter.Supports(op) {
			unsupported = append(unsupported, target.ChargeBoxID)
			continue
		}
		supported = append(supported, resolvedTarget{target: target, adapter: adapter})
	}

	if len(supported) == 0 {
		return 0, ErrUnsupportedVersion
	}

	t := task.New(op, origin, caller, payload, names)
	taskID := d.store.Register(t)

	outcome := d.outcome(t)
	for _, chargeBoxID := range unsupported {
		outcome(chargeBoxID, "", ErrUnsupportedVersion)
	}
	for _, r := range supported {
		r := r
		// device round trips must not block the caller's request cycle
		go func() {
			sendCtx := context.Background()
			if d.presence != nil {
				online, err := d.presence.IsOnline(sendCtx, r.target.ChargeBoxID)
				if err != nil {
					// presence is a cache; an unreachable cache must not block commands
					d.logger.Warn("presence lookup failed, dispatching anyway",
						zap.String("charge_box_id", r.target.ChargeBoxID),
						zap.Error(err))
				} else if !online {
					outcome(r.target.ChargeBoxID, "", ErrTargetOffline)
					return
				}
			}
			r.adapter.Send(sendCtx, r.target, t, outcome)
		}()
	}

	d.logger.Info("task dispatched",
		zap.Int("task_id", taskID),
		zap.String("operation", string(op)),
		zap.Int("targets", len(names)),
		zap.Int("unsupported", len(unsupported)))

	return taskID, nil
}

// outcome adapts per-target results onto the task and applies domain effects.
func (d *Dispatcher) outcome(t *task.CommunicationTask) OutcomeFunc {
	return func(chargeBoxID, status string, err error) {
		ctx := context.Background()

		var recorded, completed bool
		if err != nil {
			recorded, completed = t.RecordFailure(chargeBoxID, err.Error())
			if recorded {
				d.logger.Warn("task target failed",
					zap.Int("task_id", t.ID()),
					zap.String("charge_box_id", chargeBoxID),
					zap.Error(err))
			}
		} else {
			recorded, completed = t.RecordResponse(chargeBoxID, status)
			if recorded {
				d.applyDomainEffects(ctx, t, chargeBoxID, status)
			}
		}

		if completed {
			d.events.TaskCompleted(ctx, t.Overview())
		}
	}
}

// applyDomainEffects persists what an Accepted answer means. A pure function
// of (operation, status, purpose); anything but Accepted is recorded on the
// task and triggers no persistence.
func (d *Dispatcher) applyDomainEffects(ctx context.Context, t *task.CommunicationTask, chargeBoxID, status string) {
	if !strings.EqualFold(status, v16.StatusAccepted) {
		return
	}

	switch p := t.Payload().(type) {
	case SetChargingProfilePayload:
		// transaction-scoped profiles are ephemeral, no assignment is kept
		if p.Details.Profile.Purpose == models.PurposeTxProfile {
			return
		}
		if err := d.assignments.SetAssignment(ctx, p.Details.Profile.ChargingProfilePk, chargeBoxID, p.ConnectorID); err != nil {
			d.logger.Error("persist profile assignment failed",
				zap.Int("charging_profile_pk", p.Details.Profile.ChargingProfilePk),
				zap.String("charge_box_id", chargeBoxID),
				zap.Error(err))
			return
		}
		d.events.ProfileAssigned(ctx, events.AssignmentPayload{
			ChargingProfilePk: p.Details.Profile.ChargingProfilePk,
			ChargeBoxID:       chargeBoxID,
			ConnectorID:       p.ConnectorID,
		})
	case ClearChargingProfilePayload:
		if err := d.assignments.ClearAssignments(ctx, chargeBoxID, p.Filter); err != nil {
			d.logger.Error("clear profile assignments failed",
				zap.String("charge_box_id", chargeBoxID),
				zap.Error(err))
			return
		}
		d.events.ProfileCleared(ctx, chargeBoxID)
	}
}
