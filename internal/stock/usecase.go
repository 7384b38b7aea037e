package stock

import (
	"context"

	"github.com/petalroad/storefront-service/internal/model"
)

type UseCase interface {
	GetStock(ctx context.Context, productID string) (int, error)
	DecrementStock(ctx context.Context, productID string, qty int, reference string) (int, error)
	// SetStock is the administrative override. It serializes per product via
	// a distributed lock so concurrent overrides cannot interleave with the
	// before/after bookkeeping.
	SetStock(ctx context.Context, productID string, value int, reason string) (int, error)
	ListMovements(ctx context.Context, filters *MovementFilters) ([]model.StockMovement, int, error)
}
