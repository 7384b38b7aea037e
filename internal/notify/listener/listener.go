// Package listener consumes order events from Kafka and drives the mailer.
// It is the downstream half of the fire-and-forget notification path.
package listener

import (
	"context"
	"encoding/json"
	"time"

	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"

	"github.com/petalroad/storefront-service/internal/model"
	"github.com/petalroad/storefront-service/internal/notify"
)

type Consumer interface {
	ReadMessage(ctx context.Context) (kafka.Message, error)
}

type NotificationListener struct {
	consumer Consumer
	mailer   notify.Mailer
	logger   *zap.Logger
}

func NewNotificationListener(consumer Consumer, mailer notify.Mailer, log *zap.Logger) *NotificationListener {
	return &NotificationListener{
		consumer: consumer,
		mailer:   mailer,
		logger:   log,
	}
}

func (l *NotificationListener) Start(ctx context.Context) {
	l.logger.Info("starting notification listener")
	for {
		select {
		case <-ctx.Done():
			l.logger.Info("stopping notification listener")
			return
		default:
			msg, err := l.consumer.ReadMessage(ctx)
			if err != nil {
				if ctx.Err() != nil {
					return
				}
				l.logger.Error("failed to read kafka message", zap.Error(err))
				time.Sleep(1 * time.Second)
				continue
			}
			l.ProcessMessage(ctx, msg.Value)
		}
	}
}

// ProcessMessage dispatches one event to the mailer. Failures are logged
// and the message is considered handled; the order itself is long since
// committed.
func (l *NotificationListener) ProcessMessage(ctx context.Context, value []byte) {
	var event notify.Event
	if err := json.Unmarshal(value, &event); err != nil {
		l.logger.Error("failed to unmarshal event", zap.Error(err))
		return
	}

	var order model.Order
	if err := json.Unmarshal(event.Payload, &order); err != nil {
		l.logger.Error("failed to unmarshal order payload",
			zap.String("event_id", event.EventID),
			zap.Error(err),
		)
		return
	}

	var err error
	switch event.EventType {
	case notify.KindOrderCreated:
		err = l.mailer.SendOrderConfirmation(ctx, &order)
	case notify.KindOrderCancelled:
		err = l.mailer.SendOrderCancellation(ctx, &order)
	default:
		return
	}

	if err != nil {
		l.logger.Error("failed to send notification",
			zap.String("event_type", event.EventType),
			zap.String("order_number", order.OrderNumber),
			zap.Error(err),
		)
	}
}
