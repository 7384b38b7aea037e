package model

import "time"

// StockMovement is an audit row written for every stock mutation, whether it
// comes from an order or an administrative override.
type StockMovement struct {
	ID             string    `db:"id" json:"id"`
	ProductID      string    `db:"product_id" json:"product_id"`
	QuantityChange int       `db:"quantity_change" json:"quantity_change"`
	QuantityBefore int       `db:"quantity_before" json:"quantity_before"`
	QuantityAfter  int       `db:"quantity_after" json:"quantity_after"`
	Reason         string    `db:"reason" json:"reason"`
	Reference      *string   `db:"reference" json:"reference"` // e.g. order number
	CreatedAt      time.Time `db:"created_at" json:"created_at"`
}
