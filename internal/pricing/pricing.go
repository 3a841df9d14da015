// Package pricing settles a merchandise subtotal into the amounts shown at
// checkout and on receipts. Orders persist only the merchandise total; the
// settlement is recomputed from it whenever it is displayed.
package pricing

import "github.com/shopspring/decimal"

// Policy holds the shipping and tax parameters
type Policy struct {
	ShippingFee           decimal.Decimal
	FreeShippingThreshold decimal.Decimal
	TaxRate               decimal.Decimal
}

// Settlement is a subtotal with shipping and tax applied
type Settlement struct {
	Subtotal     decimal.Decimal `json:"subtotal"`
	Shipping     decimal.Decimal `json:"shipping"`
	Tax          decimal.Decimal `json:"tax"`
	GrandTotal   decimal.Decimal `json:"grandTotal"`
	FreeShipping bool            `json:"freeShipping"`
}

// DefaultPolicy is a flat 99 shipping fee waived above 1500 and 12% GST
func DefaultPolicy() Policy {
	return Policy{
		ShippingFee:           decimal.NewFromInt(99),
		FreeShippingThreshold: decimal.NewFromInt(1500),
		TaxRate:               decimal.RequireFromString("0.12"),
	}
}

// Settle applies the policy to a merchandise subtotal. Shipping is waived only
// when the subtotal is strictly above the threshold.
func (p Policy) Settle(subtotal decimal.Decimal) Settlement {
	s := Settlement{
		Subtotal: subtotal,
		Tax:      subtotal.Mul(p.TaxRate),
		Shipping: p.ShippingFee,
	}
	if subtotal.GreaterThan(p.FreeShippingThreshold) {
		s.Shipping = decimal.Zero
		s.FreeShipping = true
	}
	s.GrandTotal = s.Subtotal.Add(s.Tax).Add(s.Shipping)
	return s
}
