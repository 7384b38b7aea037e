// Package totals computes the monetary breakdown of an order. All math is
// decimal; rounding to cents happens once, at the edge, never between
// intermediate steps.
package totals

import "github.com/shopspring/decimal"

var (
	// Shipping is free strictly above this subtotal; exactly 50.00 still
	// pays the flat fee.
	freeShippingThreshold = decimal.New(50, 0)
	flatShippingFee       = decimal.New(599, -2) // 5.99
	taxRate               = decimal.New(8, -2)   // 8%, on the subtotal only
)

// LineItem pairs the snapshotted unit prices with a quantity.
type LineItem struct {
	UnitPrice decimal.Decimal
	SalePrice *decimal.Decimal
	Quantity  int
}

func (i LineItem) effectivePrice() decimal.Decimal {
	if i.SalePrice != nil {
		return *i.SalePrice
	}
	return i.UnitPrice
}

// Breakdown holds the derived order amounts. Total is always
// Subtotal + Shipping + Tax by construction.
type Breakdown struct {
	Subtotal decimal.Decimal
	Shipping decimal.Decimal
	Tax      decimal.Decimal
	Total    decimal.Decimal
}

// Compute derives the exact (unrounded) breakdown from the line items.
func Compute(items []LineItem) Breakdown {
	subtotal := decimal.Zero
	for _, item := range items {
		line := item.effectivePrice().Mul(decimal.NewFromInt(int64(item.Quantity)))
		subtotal = subtotal.Add(line)
	}

	shipping := flatShippingFee
	if subtotal.GreaterThan(freeShippingThreshold) {
		shipping = decimal.Zero
	}

	tax := subtotal.Mul(taxRate)

	return Breakdown{
		Subtotal: subtotal,
		Shipping: shipping,
		Tax:      tax,
		Total:    subtotal.Add(shipping).Add(tax),
	}
}

// Rounded rounds each component to cents and recomputes the total from the
// rounded parts, so the persisted invariant total == subtotal+shipping+tax
// holds exactly.
func (b Breakdown) Rounded() Breakdown {
	subtotal := b.Subtotal.Round(2)
	shipping := b.Shipping.Round(2)
	tax := b.Tax.Round(2)
	return Breakdown{
		Subtotal: subtotal,
		Shipping: shipping,
		Tax:      tax,
		Total:    subtotal.Add(shipping).Add(tax),
	}
}
