package domain

import "github.com/shopspring/decimal"

// IsOpen checks if the order is still active (resting or matchable).
func (o *Order) IsOpen() bool {
	return o.Status == OrderStatusNew || o.Status == OrderStatusPartial
}

// IsTerminal reports whether the order can never change again.
func (o *Order) IsTerminal() bool {
	return o.Status == OrderStatusFilled || o.Status == OrderStatusCanceled
}

// Remaining returns the unfilled quantity (Quantity - Filled).
func (o *Order) Remaining() decimal.Decimal {
	return o.Quantity.Sub(o.Filled)
}

// ApplyFill adds qty to Filled and escalates Status.
// Status only ever escalates: filled >= quantity -> FILLED,
// filled > 0 -> PARTIAL, otherwise unchanged.
func (o *Order) ApplyFill(qty decimal.Decimal) {
	o.Filled = o.Filled.Add(qty)
	switch {
	case o.Filled.GreaterThanOrEqual(o.Quantity):
		o.Status = OrderStatusFilled
	case o.Filled.IsPositive():
		o.Status = OrderStatusPartial
	}
}
