package order

import (
	"context"

	"github.com/petalroad/storefront-service/internal/model"
	"github.com/petalroad/storefront-service/internal/order/dto"
)

type Repository interface {
	// Create persists the order, its item snapshots, the per-item
	// conditional stock decrements and the movement audit rows in a single
	// transaction. A decrement that would go negative aborts the whole
	// transaction with apperr.InsufficientStockError, so an order row never
	// exists without its inventory having been taken.
	Create(ctx context.Context, order *model.Order) error
	FindByID(ctx context.Context, id string) (*model.Order, error)
	FindByNumber(ctx context.Context, number string) (*model.Order, error)
	FindAll(ctx context.Context, filters *dto.OrderFilters) ([]model.Order, int, error)
	UpdateStatus(ctx context.Context, id string, status model.OrderStatus, payment model.PaymentStatus) error
	Delete(ctx context.Context, id string) error
	OrderNumberExists(ctx context.Context, number string) (bool, error)
}
