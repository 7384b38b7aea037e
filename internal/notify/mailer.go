package notify

import (
	"context"

	"go.uber.org/zap"

	"github.com/petalroad/storefront-service/internal/model"
)

// Mailer sends customer-facing messages. Implementations are best-effort;
// errors are for the caller to log, never to propagate to checkout.
type Mailer interface {
	SendOrderConfirmation(ctx context.Context, order *model.Order) error
	SendOrderCancellation(ctx context.Context, order *model.Order) error
}

// LogMailer stands in for a real email provider and just records what would
// have been sent.
type LogMailer struct {
	logger *zap.Logger
}

func NewLogMailer(log *zap.Logger) *LogMailer {
	return &LogMailer{logger: log}
}

func (m *LogMailer) SendOrderConfirmation(ctx context.Context, order *model.Order) error {
	m.logger.Info("order confirmation email",
		zap.String("to", order.CustomerEmail),
		zap.String("order_number", order.OrderNumber),
		zap.String("total", order.Total.StringFixed(2)),
	)
	return nil
}

func (m *LogMailer) SendOrderCancellation(ctx context.Context, order *model.Order) error {
	m.logger.Info("order cancellation email",
		zap.String("to", order.CustomerEmail),
		zap.String("order_number", order.OrderNumber),
	)
	return nil
}
