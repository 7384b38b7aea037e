package dto

import "github.com/petalroad/storefront-service/internal/catalog/engine"

// ProductFilters is the HTTP-facing listing request: the engine request plus
// pagination.
type ProductFilters struct {
	engine.Request
	Page     int
	PageSize int
}
