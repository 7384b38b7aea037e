package model

import "github.com/shopspring/decimal"

type OrderStatus string

const (
	StatusPending    OrderStatus = "pending"
	StatusProcessing OrderStatus = "processing"
	StatusShipped    OrderStatus = "shipped"
	StatusDelivered  OrderStatus = "delivered"
	StatusCancelled  OrderStatus = "cancelled"
)

func (s OrderStatus) Valid() bool {
	switch s {
	case StatusPending, StatusProcessing, StatusShipped, StatusDelivered, StatusCancelled:
		return true
	}
	return false
}

// Terminal statuses have no outgoing transitions.
func (s OrderStatus) Terminal() bool {
	return s == StatusDelivered || s == StatusCancelled
}

// CanTransitionTo reports whether the status machine allows moving from s to
// next. Forward progress is pending → processing → shipped → delivered;
// cancelled is reachable from any non-terminal status.
func (s OrderStatus) CanTransitionTo(next OrderStatus) bool {
	if s.Terminal() {
		return false
	}
	if next == StatusCancelled {
		return true
	}
	switch s {
	case StatusPending:
		return next == StatusProcessing
	case StatusProcessing:
		return next == StatusShipped
	case StatusShipped:
		return next == StatusDelivered
	}
	return false
}

type PaymentStatus string

const (
	PaymentPending  PaymentStatus = "pending"
	PaymentPaid     PaymentStatus = "paid"
	PaymentRefunded PaymentStatus = "refunded"
)

type Order struct {
	BaseModel
	OrderNumber   string          `db:"order_number" json:"order_number"`
	CustomerName  string          `db:"customer_name" json:"customer_name"`
	CustomerEmail string          `db:"customer_email" json:"customer_email"`
	CustomerPhone string          `db:"customer_phone" json:"customer_phone"`
	ShipStreet    string          `db:"ship_street" json:"ship_street"`
	ShipCity      string          `db:"ship_city" json:"ship_city"`
	ShipState     string          `db:"ship_state" json:"ship_state"`
	ShipZip       string          `db:"ship_zip" json:"ship_zip"`
	ShipCountry   string          `db:"ship_country" json:"ship_country"`
	Subtotal      decimal.Decimal `db:"subtotal" json:"subtotal"`
	Tax           decimal.Decimal `db:"tax" json:"tax"`
	Shipping      decimal.Decimal `db:"shipping" json:"shipping"`
	Total         decimal.Decimal `db:"total" json:"total"`
	Status        OrderStatus     `db:"status" json:"status"`
	PaymentStatus PaymentStatus   `db:"payment_status" json:"payment_status"`
	Items         []OrderItem     `db:"-" json:"items"` // Loaded from order_items
}

// OrderItem is an immutable snapshot of a product at order-creation time.
// It is never re-read from the catalog after the order exists.
type OrderItem struct {
	ID        string           `db:"id" json:"id"`
	OrderID   string           `db:"order_id" json:"order_id"`
	ProductID string           `db:"product_id" json:"product_id"`
	Name      string           `db:"name" json:"name"`
	UnitPrice decimal.Decimal  `db:"unit_price" json:"unit_price"`
	SalePrice *decimal.Decimal `db:"sale_price" json:"sale_price"`
	Quantity  int              `db:"quantity" json:"quantity"`
}

// EffectivePrice mirrors Product.EffectivePrice for the snapshotted prices.
func (i *OrderItem) EffectivePrice() decimal.Decimal {
	if i.SalePrice != nil {
		return *i.SalePrice
	}
	return i.UnitPrice
}
