package domain

import "github.com/shopspring/decimal"

// Rates carries the venue tax and service-charge policy applied to an order.
type Rates struct {
	Tax           decimal.Decimal
	ServiceCharge decimal.Decimal
}

// Totals is the monetary outcome of a recalculation.
type Totals struct {
	Subtotal       decimal.Decimal
	TaxAmount      decimal.Decimal
	ServiceCharge  decimal.Decimal
	DiscountAmount decimal.Decimal
	TotalAmount    decimal.Decimal
}

// LineTotal computes quantity x unit price, rounded to cents.
func LineTotal(unitPrice decimal.Decimal, quantity int) decimal.Decimal {
	return unitPrice.Mul(decimal.NewFromInt(int64(quantity))).Round(2)
}

// CalculateTotals recomputes an order's monetary fields from its current line
// items. It is pure and idempotent: tax is rounded half-up on the subtotal,
// the service charge applies to dine-in orders only, and
// total = subtotal + tax + service charge - discount.
func CalculateTotals(typ FulfillmentType, lines []OrderLineItem, discount decimal.Decimal, rates Rates) Totals {
	subtotal := decimal.Zero
	for _, line := range lines {
		if line.Status == LineItemCancelled {
			continue
		}
		subtotal = subtotal.Add(line.LineTotal)
	}
	subtotal = subtotal.Round(2)

	tax := subtotal.Mul(rates.Tax).Round(2)

	serviceCharge := decimal.Zero.Round(2)
	if typ == TypeDineIn {
		serviceCharge = subtotal.Mul(rates.ServiceCharge).Round(2)
	}

	discount = discount.Round(2)

	return Totals{
		Subtotal:       subtotal,
		TaxAmount:      tax,
		ServiceCharge:  serviceCharge,
		DiscountAmount: discount,
		TotalAmount:    subtotal.Add(tax).Add(serviceCharge).Sub(discount),
	}
}

// Apply writes the totals onto the order.
func (t Totals) Apply(o *Order) {
	o.Subtotal = t.Subtotal
	o.TaxAmount = t.TaxAmount
	o.ServiceCharge = t.ServiceCharge
	o.DiscountAmount = t.DiscountAmount
	o.TotalAmount = t.TotalAmount
}

// Equal reports whether two totals are monetarily identical.
func (t Totals) Equal(o Totals) bool {
	return t.Subtotal.Equal(o.Subtotal) &&
		t.TaxAmount.Equal(o.TaxAmount) &&
		t.ServiceCharge.Equal(o.ServiceCharge) &&
		t.DiscountAmount.Equal(o.DiscountAmount) &&
		t.TotalAmount.Equal(o.TotalAmount)
}
