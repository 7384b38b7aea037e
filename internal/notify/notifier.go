// Package notify is the best-effort notification seam: order events go out
// through a Notifier and nothing in the order path ever waits on, or fails
// because of, the notification side.
package notify

import (
	"context"
	"encoding/json"
	"time"

	"go.uber.org/zap"

	"github.com/petalroad/storefront-service/pkg/broker"
)

const (
	KindOrderCreated   = "order.created"
	KindOrderCancelled = "order.cancelled"
)

type Notifier interface {
	Notify(ctx context.Context, kind string, payload interface{}) error
}

// Event is the envelope published to the order events topic.
type Event struct {
	EventID   string          `json:"event_id"`
	EventType string          `json:"event_type"`
	Payload   json.RawMessage `json:"payload"`
	Timestamp time.Time       `json:"timestamp"`
}

// KafkaNotifier publishes events to the order events topic keyed by kind,
// decoupling checkout from whatever consumes them.
type KafkaNotifier struct {
	producer *broker.KafkaProducer
	newID    func() string
	logger   *zap.Logger
}

func NewKafkaNotifier(producer *broker.KafkaProducer, newID func() string, log *zap.Logger) *KafkaNotifier {
	return &KafkaNotifier{producer: producer, newID: newID, logger: log}
}

func (n *KafkaNotifier) Notify(ctx context.Context, kind string, payload interface{}) error {
	raw, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	event := Event{
		EventID:   n.newID(),
		EventType: kind,
		Payload:   raw,
		Timestamp: time.Now(),
	}

	value, err := json.Marshal(event)
	if err != nil {
		return err
	}

	return n.producer.Publish(ctx, []byte(kind), value)
}
