package stock

import (
	"context"

	"github.com/petalroad/storefront-service/internal/model"
)

// InsufficientError is returned by DecrementStock when the conditional
// update matched no row because the remaining stock is smaller than the
// requested quantity.
type InsufficientError struct {
	ProductID string
	Requested int
	Available int
}

func (e *InsufficientError) Error() string {
	return "insufficient stock for product " + e.ProductID
}

type Repository interface {
	GetStock(ctx context.Context, productID string) (int, error)
	// DecrementStock is a single atomic conditional update: it subtracts qty
	// only when the current stock covers it and returns the new value.
	DecrementStock(ctx context.Context, productID string, qty int) (int, error)
	SetStock(ctx context.Context, productID string, value int) (int, error)

	LogMovement(ctx context.Context, movement *model.StockMovement) error
	ListMovements(ctx context.Context, filters *MovementFilters) ([]model.StockMovement, int, error)
}

type MovementFilters struct {
	ProductID string
	Reason    string
	Page      int
	PageSize  int
}
