package service

import (
	"time"

	"quickcart/internal/pricing"
)

// Options tunes behaviour shared by the services
type Options struct {
	// Latency is an artificial delay applied to storefront calls
	Latency time.Duration
	Pricing pricing.Policy
}

// DefaultOptions has no artificial delay and the default pricing policy
func DefaultOptions() Options {
	return Options{Pricing: pricing.DefaultPolicy()}
}
