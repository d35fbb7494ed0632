package events

import (
	"context"
	"encoding/json"
	"time"

	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"

	"chargehub/internal/task"
)

// Event types published to the bus.
const (
	TypeTaskCompleted   = "task.completed"
	TypeProfileAssigned = "charging_profile.assigned"
	TypeProfileCleared  = "charging_profile.cleared"
)

// Event is the envelope written to kafka.
type Event struct {
	Type       string      `json:"type"`
	OccurredAt time.Time   `json:"occurred_at"`
	Payload    interface{} `json:"payload"`
}

// AssignmentPayload describes a profile assignment change.
type AssignmentPayload struct {
	ChargingProfilePk int    `json:"charging_profile_pk"`
	ChargeBoxID       string `json:"charge_box_id"`
	ConnectorID       int    `json:"connector_id"`
}

// Publisher writes lifecycle events to a kafka topic. A nil publisher is a
// no-op so the bus stays optional.
type Publisher struct {
	writer *kafka.Writer
	logger *zap.Logger
}

// NewPublisher builds a kafka-backed publisher. Returns nil when no brokers
// are configured.
func NewPublisher(brokers []string, topic string, logger *zap.Logger) *Publisher {
	if len(brokers) == 0 {
		return nil
	}
	return &Publisher{
		writer: &kafka.Writer{
			Addr:         kafka.TCP(brokers...),
			Topic:        topic,
			RequiredAcks: kafka.RequireOne,
			Balancer:     &kafka.Hash{},
		},
		logger: logger,
	}
}

// TaskCompleted publishes a task summary once every target has reported.
func (p *Publisher) TaskCompleted(ctx context.Context, overview task.Overview) {
	p.publish(ctx, Event{Type: TypeTaskCompleted, OccurredAt: time.Now().UTC(), Payload: overview}, intKey(overview.TaskID))
}

// ProfileAssigned publishes an accepted charging profile assignment.
func (p *Publisher) ProfileAssigned(ctx context.Context, payload AssignmentPayload) {
	p.publish(ctx, Event{Type: TypeProfileAssigned, OccurredAt: time.Now().UTC(), Payload: payload}, []byte(payload.ChargeBoxID))
}

// ProfileCleared publishes an accepted charging profile removal.
func (p *Publisher) ProfileCleared(ctx context.Context, chargeBoxID string) {
	p.publish(ctx, Event{Type: TypeProfileCleared, OccurredAt: time.Now().UTC(), Payload: map[string]string{"charge_box_id": chargeBoxID}}, []byte(chargeBoxID))
}

func (p *Publisher) publish(ctx context.Context, event Event, key []byte) {
	if p == nil {
		return
	}
	data, err := json.Marshal(event)
	if err != nil {
		p.logger.Error("marshal event failed", zap.String("type", event.Type), zap.Error(err))
		return
	}
	if err := p.writer.WriteMessages(ctx, kafka.Message{Key: key, Value: data}); err != nil {
		p.logger.Warn("publish event failed", zap.String("type", event.Type), zap.Error(err))
	}
}

// Close flushes the underlying writer.
func (p *Publisher) Close() error {
	if p == nil {
		return nil
	}
	return p.writer.Close()
}

func intKey(id int) []byte {
	return []byte{byte(id >> 24), byte(id >> 16), byte(id >> 8), byte(id)}
}
