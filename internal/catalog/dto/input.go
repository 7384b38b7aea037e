package dto

import (
	"github.com/shopspring/decimal"

	"github.com/petalroad/storefront-service/internal/apperr"
)

type CreateProductInput struct {
	Name        string           `json:"name"`
	Description string           `json:"description"`
	Price       decimal.Decimal  `json:"price"`
	SalePrice   *decimal.Decimal `json:"sale_price"`
	Stock       int              `json:"stock"`
	Category    string           `json:"category"`
	IsFeatured  bool             `json:"is_featured"`
	IsNew       bool             `json:"is_new"`
	Features    []string         `json:"features"`
	Images      []string         `json:"images"`
}

func (in *CreateProductInput) Validate() error {
	fields := apperr.FieldErrors{}
	if in.Name == "" {
		fields["name"] = "name is required"
	}
	if in.Category == "" {
		fields["category"] = "category is required"
	}
	if !in.Price.IsPositive() {
		fields["price"] = "price must be greater than zero"
	}
	if in.SalePrice != nil && !in.SalePrice.LessThan(in.Price) {
		fields["sale_price"] = "sale price must be less than price"
	}
	if in.SalePrice != nil && !in.SalePrice.IsPositive() {
		fields["sale_price"] = "sale price must be greater than zero"
	}
	if in.Stock < 0 {
		fields["stock"] = "stock cannot be negative"
	}
	if len(fields) > 0 {
		return &apperr.ValidationError{Fields: fields}
	}
	return nil
}

type UpdateProductInput struct {
	ID          string           `json:"-"`
	Name        string           `json:"name"`
	Description string           `json:"description"`
	Price       decimal.Decimal  `json:"price"`
	SalePrice   *decimal.Decimal `json:"sale_price"`
	Category    string           `json:"category"`
	IsFeatured  bool             `json:"is_featured"`
	IsNew       bool             `json:"is_new"`
	Features    []string         `json:"features"`
	Images      []string         `json:"images"`
}

func (in *UpdateProductInput) Validate() error {
	create := CreateProductInput{
		Name:      in.Name,
		Category:  in.Category,
		Price:     in.Price,
		SalePrice: in.SalePrice,
	}
	return create.Validate()
}
