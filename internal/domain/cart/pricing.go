package cart

import (
	"math"
	"sort"
)

// DiscountTier maps a minimum total cart weight (pounds) to a percentage
// discount on the subtotal.
type DiscountTier struct {
	MinimumWeight float64 `json:"minimum_weight"`
	Percent       float64 `json:"percent"`
}

type PricingPolicy struct {
	ShippingThreshold float64        `json:"shipping_threshold"`
	ShippingFee       float64        `json:"shipping_fee"`
	DiscountTiers     []DiscountTier `json:"discount_tiers"`
}

// PricingResult is derived from cart state and a policy; it is never stored.
// Amounts carry full float64 precision — rounding happens at the HTTP layer.
type PricingResult struct {
	Subtotal        float64 `json:"subtotal"`
	ShippingFee     float64 `json:"shipping_fee"`
	DiscountPercent float64 `json:"discount_percent"`
	DiscountAmount  float64 `json:"discount_amount"`
	Total           float64 `json:"total"`
	TotalItems      int     `json:"total_items"`
	TotalWeight     float64 `json:"total_weight"`
}

// Totals is a pure function of the cart's current lines and the supplied
// policy. The highest-percent tier whose minimum weight is met wins.
func (c *Cart) Totals(policy PricingPolicy) PricingResult {
	subtotal := 0.0
	weight := 0.0
	items := 0

	for _, line := range c.lines {
		subtotal += line.Subtotal()
		weight += line.Weight()
		items += line.Quantity
	}

	percent := applicableDiscount(policy.DiscountTiers, weight)
	discountAmount := subtotal * percent / 100

	shipping := policy.ShippingFee
	if subtotal >= policy.ShippingThreshold {
		shipping = 0
	}

	return PricingResult{
		Subtotal:        subtotal,
		ShippingFee:     shipping,
		DiscountPercent: percent,
		DiscountAmount:  discountAmount,
		Total:           subtotal - discountAmount + shipping,
		TotalItems:      items,
		TotalWeight:     weight,
	}
}

func applicableDiscount(tiers []DiscountTier, totalWeight float64) float64 {
	if len(tiers) == 0 {
		return 0
	}

	sorted := make([]DiscountTier, len(tiers))
	copy(sorted, tiers)
	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i].Percent > sorted[j].Percent
	})

	for _, tier := range sorted {
		if totalWeight >= tier.MinimumWeight {
			return tier.Percent
		}
	}

	return 0
}

// RoundCurrency rounds to 2 decimal places for presentation.
func RoundCurrency(amount float64) float64 {
	return math.Round(amount*100) / 100
}

func (r PricingResult) Rounded() PricingResult {
	return PricingResult{
		Subtotal:        RoundCurrency(r.Subtotal),
		ShippingFee:     RoundCurrency(r.ShippingFee),
		DiscountPercent: r.DiscountPercent,
		DiscountAmount:  RoundCurrency(r.DiscountAmount),
		Total:           RoundCurrency(r.Total),
		TotalItems:      r.TotalItems,
		TotalWeight:     r.TotalWeight,
	}
}
