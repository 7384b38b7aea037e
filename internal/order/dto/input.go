package dto

import (
	"strings"

	"github.com/petalroad/storefront-service/internal/apperr"
	"github.com/petalroad/storefront-service/internal/model"
)

type CartItem struct {
	ProductID string `json:"product_id"`
	Quantity  int    `json:"quantity"`
}

type CustomerInfo struct {
	Name    string `json:"name"`
	Email   string `json:"email"`
	Phone   string `json:"phone"`
	Street  string `json:"street"`
	City    string `json:"city"`
	State   string `json:"state"`
	Zip     string `json:"zip"`
	Country string `json:"country"`
}

type PlaceOrderInput struct {
	Items    []CartItem   `json:"items"`
	Customer CustomerInfo `json:"customer"`
}

// Validate checks shape only; stock availability is the pipeline's job.
// Every problem is reported per field so the customer knows exactly what to
// fix.
func (in *PlaceOrderInput) Validate() error {
	fields := apperr.FieldErrors{}

	if len(in.Items) == 0 {
		fields["items"] = "cart is empty"
	}
	seen := map[string]bool{}
	for _, item := range in.Items {
		if item.ProductID == "" {
			fields["items"] = "every item needs a product_id"
			break
		}
		if item.Quantity <= 0 {
			fields["items"] = "every item needs a positive quantity"
			break
		}
		if seen[item.ProductID] {
			fields["items"] = "cart items must be unique by product"
			break
		}
		seen[item.ProductID] = true
	}

	if strings.TrimSpace(in.Customer.Name) == "" {
		fields["customer.name"] = "name is required"
	}
	email := strings.TrimSpace(in.Customer.Email)
	if email == "" {
		fields["customer.email"] = "email is required"
	} else if !strings.Contains(email, "@") {
		fields["customer.email"] = "email is not valid"
	}
	if strings.TrimSpace(in.Customer.Street) == "" {
		fields["customer.street"] = "street is required"
	}
	if strings.TrimSpace(in.Customer.City) == "" {
		fields["customer.city"] = "city is required"
	}
	if strings.TrimSpace(in.Customer.Zip) == "" {
		fields["customer.zip"] = "zip is required"
	}

	if len(fields) > 0 {
		return &apperr.ValidationError{Fields: fields}
	}
	return nil
}

type UpdateStatusInput struct {
	Status model.OrderStatus `json:"status"`
}

func (in *UpdateStatusInput) Validate() error {
	if !in.Status.Valid() {
		return &apperr.ValidationError{Fields: apperr.FieldErrors{
			"status": "status must be one of pending, processing, shipped, delivered, cancelled",
		}}
	}
	return nil
}
