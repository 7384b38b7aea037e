package totals

import (
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func decP(s string) *decimal.Decimal {
	d := decimal.RequireFromString(s)
	return &d
}

func TestCompute_SubtotalExactlyFiftyPaysShipping(t *testing.T) {
	// price 30, sale 25, qty 2: subtotal is exactly 50.00 which is NOT
	// strictly greater than the threshold.
	b := Compute([]LineItem{
		{UnitPrice: dec("30"), SalePrice: decP("25"), Quantity: 2},
	}).Rounded()

	assert.True(t, b.Subtotal.Equal(dec("50.00")), "subtotal = %s", b.Subtotal)
	assert.True(t, b.Shipping.Equal(dec("5.99")), "shipping = %s", b.Shipping)
	assert.True(t, b.Tax.Equal(dec("4.00")), "tax = %s", b.Tax)
	assert.True(t, b.Total.Equal(dec("59.99")), "total = %s", b.Total)
}

func TestCompute_AboveThresholdShipsFree(t *testing.T) {
	b := Compute([]LineItem{
		{UnitPrice: dec("30"), SalePrice: decP("25"), Quantity: 3},
	}).Rounded()

	assert.True(t, b.Subtotal.Equal(dec("75.00")))
	assert.True(t, b.Shipping.IsZero())
	assert.True(t, b.Tax.Equal(dec("6.00")))
	assert.True(t, b.Total.Equal(dec("81.00")))
}

func TestCompute_SalePriceWinsOverUnitPrice(t *testing.T) {
	b := Compute([]LineItem{
		{UnitPrice: dec("12.00"), SalePrice: decP("9.50"), Quantity: 1},
		{UnitPrice: dec("8.00"), Quantity: 2},
	})

	assert.True(t, b.Subtotal.Equal(dec("25.50")), "subtotal = %s", b.Subtotal)
}

func TestCompute_EmptyCart(t *testing.T) {
	b := Compute(nil).Rounded()
	assert.True(t, b.Subtotal.IsZero())
	assert.True(t, b.Shipping.Equal(dec("5.99")))
	assert.True(t, b.Tax.IsZero())
	assert.True(t, b.Total.Equal(dec("5.99")))
}

func TestCompute_NoPennyDriftOnManyItems(t *testing.T) {
	// 0.10 * 3 summed 100 times is exactly 30.00 in decimal math; binary
	// floats would drift.
	items := make([]LineItem, 100)
	for i := range items {
		items[i] = LineItem{UnitPrice: dec("0.10"), Quantity: 3}
	}

	b := Compute(items).Rounded()
	assert.True(t, b.Subtotal.Equal(dec("30.00")), "subtotal = %s", b.Subtotal)
}

func TestCompute_Properties(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 200

	genItems := gen.SliceOf(gopter.CombineGens(
		gen.IntRange(1, 10000),  // price in cents
		gen.IntRange(1, 20),     // quantity
		gen.IntRange(0, 1),      // has sale price
	).Map(func(vals []interface{}) LineItem {
		priceCents := int64(vals[0].(int))
		item := LineItem{
			UnitPrice: decimal.New(priceCents, -2),
			Quantity:  vals[1].(int),
		}
		if vals[2].(int) == 1 && priceCents > 1 {
			sale := decimal.New(priceCents/2, -2)
			item.SalePrice = &sale
		}
		return item
	}))

	properties := gopter.NewProperties(parameters)

	properties.Property("total reconciles after rounding", prop.ForAll(
		func(items []LineItem) bool {
			b := Compute(items).Rounded()
			return b.Total.Equal(b.Subtotal.Add(b.Shipping).Add(b.Tax))
		},
		genItems,
	))

	properties.Property("shipping is zero iff subtotal exceeds 50.00", prop.ForAll(
		func(items []LineItem) bool {
			b := Compute(items)
			free := b.Subtotal.GreaterThan(decimal.New(50, 0))
			return free == b.Shipping.IsZero()
		},
		genItems,
	))

	properties.Property("tax is 8 percent of subtotal", prop.ForAll(
		func(items []LineItem) bool {
			b := Compute(items)
			return b.Tax.Equal(b.Subtotal.Mul(decimal.New(8, -2)))
		},
		genItems,
	))

	properties.TestingRun(t)
}
