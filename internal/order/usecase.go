package order

import (
	"context"

	"github.com/petalroad/storefront-service/internal/model"
	"github.com/petalroad/storefront-service/internal/order/dto"
)

type UseCase interface {
	// PlaceOrder runs the checkout pipeline: validate input and stock,
	// compute totals, persist (with stock decrement), then notify
	// fire-and-forget.
	PlaceOrder(ctx context.Context, input *dto.PlaceOrderInput) (*model.Order, error)
	GetOrder(ctx context.Context, id string) (*model.Order, error)
	GetOrderByNumber(ctx context.Context, number string) (*model.Order, error)
	ListOrders(ctx context.Context, filters *dto.OrderFilters) ([]model.Order, int, error)
	UpdateOrderStatus(ctx context.Context, id string, status model.OrderStatus) (*model.Order, error)
	// DeleteOrder soft-cancels first (status cancelled, payment refunded)
	// and only then removes the row, so change-log observers see the
	// cancellation before the delete.
	DeleteOrder(ctx context.Context, id string) error
}
