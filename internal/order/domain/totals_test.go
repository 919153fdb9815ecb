package domain

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func standardRates() Rates {
	return Rates{
		Tax:           decimal.RequireFromString("0.16"),
		ServiceCharge: decimal.RequireFromString("0.10"),
	}
}

func line(price string, qty int) OrderLineItem {
	unitPrice := decimal.RequireFromString(price)
	return OrderLineItem{
		UnitPrice: unitPrice,
		Quantity:  qty,
		LineTotal: LineTotal(unitPrice, qty),
		Status:    LineItemPending,
	}
}

func TestCalculateTotals_DineIn(t *testing.T) {
	lines := []OrderLineItem{
		line("10.00", 2),
		line("5.99", 1),
	}

	totals := CalculateTotals(TypeDineIn, lines, decimal.Zero, standardRates())

	assert.Equal(t, "25.99", totals.Subtotal.StringFixed(2))
	assert.Equal(t, "4.16", totals.TaxAmount.StringFixed(2))
	assert.Equal(t, "2.60", totals.ServiceCharge.StringFixed(2))
	assert.Equal(t, "32.75", totals.TotalAmount.StringFixed(2))
}

func TestCalculateTotals_NoServiceChargeOutsideDineIn(t *testing.T) {
	lines := []OrderLineItem{line("12.50", 2)}

	for _, typ := range []FulfillmentType{TypeRoomService, TypeTakeaway} {
		totals := CalculateTotals(typ, lines, decimal.Zero, standardRates())
		assert.True(t, totals.ServiceCharge.IsZero(), "type %s", typ)
		assert.Equal(t, "29.00", totals.TotalAmount.StringFixed(2))
	}
}

func TestCalculateTotals_RoundsHalfUp(t *testing.T) {
	// 20.45 * 0.10 = 2.045, the midpoint rounds away from zero.
	totals := CalculateTotals(TypeDineIn, []OrderLineItem{line("20.45", 1)}, decimal.Zero, standardRates())
	assert.Equal(t, "2.05", totals.ServiceCharge.StringFixed(2))
}

func TestCalculateTotals_DiscountDoesNotShrinkTaxBase(t *testing.T) {
	lines := []OrderLineItem{line("10.00", 2)}
	discount := decimal.RequireFromString("5.00")

	totals := CalculateTotals(TypeTakeaway, lines, discount, standardRates())

	assert.Equal(t, "20.00", totals.Subtotal.StringFixed(2))
	assert.Equal(t, "3.20", totals.TaxAmount.StringFixed(2))
	assert.Equal(t, "18.20", totals.TotalAmount.StringFixed(2))
}

func TestCalculateTotals_SkipsCancelledLines(t *testing.T) {
	cancelled := line("99.99", 3)
	cancelled.Status = LineItemCancelled
	lines := []OrderLineItem{line("10.00", 1), cancelled}

	totals := CalculateTotals(TypeTakeaway, lines, decimal.Zero, standardRates())

	assert.Equal(t, "10.00", totals.Subtotal.StringFixed(2))
}

func TestCalculateTotals_Idempotent(t *testing.T) {
	lines := []OrderLineItem{line("7.35", 3), line("1.20", 5)}

	first := CalculateTotals(TypeDineIn, lines, decimal.Zero, standardRates())
	second := CalculateTotals(TypeDineIn, lines, decimal.Zero, standardRates())

	assert.True(t, first.Equal(second))
}

func TestCalculateTotals_Invariant(t *testing.T) {
	lines := []OrderLineItem{line("3.33", 3), line("0.99", 7)}
	discount := decimal.RequireFromString("1.50")

	totals := CalculateTotals(TypeDineIn, lines, discount, standardRates())

	sum := totals.Subtotal.Add(totals.TaxAmount).Add(totals.ServiceCharge).Sub(totals.DiscountAmount)
	assert.True(t, totals.TotalAmount.Equal(sum))
}

func TestLineTotal(t *testing.T) {
	assert.Equal(t, "17.97", LineTotal(decimal.RequireFromString("5.99"), 3).StringFixed(2))
}
