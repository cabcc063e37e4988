package broker

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"canna_portal_backend/internal/events"
	"canna_portal_backend/platform/logger"
	"canna_portal_backend/platform/metrics"
)

// Publisher sends an encoded message to the broker.
type Publisher interface {
	Publish(ctx context.Context, routingKey string, messageID string, body []byte) error
}

// Envelope is the message body seen by consumers. ID is the event's own id
// and doubles as the AMQP message id.
type Envelope struct {
	ID         uuid.UUID       `json:"id"`
	Event      string          `json:"event"`
	OccurredAt time.Time       `json:"occurredAt"`
	Payload    json.RawMessage `json:"payload"`
}

// Forwarder republishes bus events on the broker, routed by event name.
type Forwarder struct {
	pub Publisher
	log *logger.Logger
}

func NewForwarder(pub Publisher, log *logger.Logger) *Forwarder {
	return &Forwarder{pub: pub, log: log}
}

// RegisterHandlers subscribes the forwarder to the events downstream
// systems consume.
func (f *Forwarder) RegisterHandlers(bus *events.InMemoryBus) {
	events.Subscribe(bus, f, events.LeadStageChanged{}, events.AffiliatePurchaseTracked{})
}

func (f *Forwarder) Handle(ctx context.Context, event events.Event) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("encode %s: %w", event.EventName(), err)
	}

	env := Envelope{
		ID:         events.IDOf(event),
		Event:      event.EventName(),
		OccurredAt: event.OccurredAt(),
		Payload:    payload,
	}
	body, err := json.Marshal(env)
	if err != nil {
		return fmt.Errorf("encode envelope: %w", err)
	}

	if err := f.pub.Publish(ctx, env.Event, env.ID.String(), body); err != nil {
		metrics.RecordIntegrationError("amqp")
		f.log.WithContext(ctx).Error("event forwarding failed", "event", env.Event, "error", err)
		return err
	}
	return nil
}

var _ events.Handler = (*Forwarder)(nil)
