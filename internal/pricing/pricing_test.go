package pricing

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestSettleBelowThresholdChargesShipping(t *testing.T) {
	s := DefaultPolicy().Settle(decimal.NewFromInt(1000))

	assert.True(t, s.Shipping.Equal(decimal.NewFromInt(99)))
	assert.True(t, s.Tax.Equal(decimal.NewFromInt(120)))
	assert.True(t, s.GrandTotal.Equal(decimal.NewFromInt(1219)))
	assert.False(t, s.FreeShipping)
}

func TestSettleAtThresholdStillChargesShipping(t *testing.T) {
	s := DefaultPolicy().Settle(decimal.NewFromInt(1500))

	assert.True(t, s.Shipping.Equal(decimal.NewFromInt(99)))
	assert.False(t, s.FreeShipping)
}

func TestSettleAboveThresholdWaivesShipping(t *testing.T) {
	s := DefaultPolicy().Settle(decimal.NewFromInt(4999))

	assert.True(t, s.Shipping.IsZero())
	assert.True(t, s.FreeShipping)
	assert.Equal(t, "599.88", s.Tax.StringFixed(2))
	assert.Equal(t, "5598.88", s.GrandTotal.StringFixed(2))
}

func TestSettleCustomPolicy(t *testing.T) {
	p := Policy{
		ShippingFee:           decimal.NewFromInt(40),
		FreeShippingThreshold: decimal.NewFromInt(500),
		TaxRate:               decimal.RequireFromString("0.05"),
	}
	s := p.Settle(decimal.NewFromInt(200))

	assert.Equal(t, "10", s.Tax.String())
	assert.Equal(t, "250", s.GrandTotal.String())
}
