package catalog

import (
	"context"

	"github.com/petalroad/storefront-service/internal/model"
)

type Repository interface {
	Create(ctx context.Context, product *model.Product) error
	FindByID(ctx context.Context, id string) (*model.Product, error)
	// FindAll returns the whole catalog in stable insertion order; filtering
	// and sorting happen in the query engine so there is a single semantics.
	FindAll(ctx context.Context) ([]model.Product, error)
	Update(ctx context.Context, product *model.Product) error
	Delete(ctx context.Context, id string) error
}
