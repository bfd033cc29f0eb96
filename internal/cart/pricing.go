package cart

import "math"

const (
	DefaultShippingThreshold = 5000
	DefaultShippingFee       = 350
)

// Pricing holds the single-breakpoint shipping rule: a flat Fee applies while
// the selected subtotal is positive and below Threshold.
type Pricing struct {
	Threshold float64
	Fee       float64
}

func DefaultPricing() Pricing {
	return Pricing{Threshold: DefaultShippingThreshold, Fee: DefaultShippingFee}
}

func (p Pricing) Shipping(subtotal float64) float64 {
	if subtotal <= 0 || subtotal >= p.Threshold {
		return 0
	}
	return p.Fee
}

// Total returns the shipping fee and the grand total for subtotal.
func (p Pricing) Total(subtotal float64) (shipping, total float64) {
	shipping = p.Shipping(subtotal)
	return shipping, roundMoney(subtotal + shipping)
}

func roundMoney(v float64) float64 {
	return math.Round(v*100) / 100
}
