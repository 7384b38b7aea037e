package model

import (
	"github.com/lib/pq"
	"github.com/shopspring/decimal"
)

type Product struct {
	BaseModel
	Name        string           `db:"name" json:"name"`
	Description string           `db:"description" json:"description"`
	Price       decimal.Decimal  `db:"price" json:"price"`
	SalePrice   *decimal.Decimal `db:"sale_price" json:"sale_price"` // Nullable, < Price when set
	Stock       int              `db:"stock" json:"stock"`
	Category    string           `db:"category" json:"category"`
	IsFeatured  bool             `db:"is_featured" json:"is_featured"`
	IsNew       bool             `db:"is_new" json:"is_new"`
	Features    pq.StringArray   `db:"features" json:"features"`
	Images      pq.StringArray   `db:"images" json:"images"` // First image is canonical
}

// EffectivePrice is the price actually charged: the sale price when one is
// set, the list price otherwise. Range filters and price sorts use this,
// never the list price alone.
func (p *Product) EffectivePrice() decimal.Decimal {
	if p.SalePrice != nil {
		return *p.SalePrice
	}
	return p.Price
}
