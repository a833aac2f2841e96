package cart

import (
	"math"
	"testing"

	"github.com/fadedwholesale/wholesale-service/internal/domain/catalog"
)

func testPolicy() PricingPolicy {
	return PricingPolicy{
		ShippingThreshold: 1000,
		ShippingFee:       50,
		DiscountTiers: []DiscountTier{
			{MinimumWeight: 20, Percent: 5},
			{MinimumWeight: 50, Percent: 10},
			{MinimumWeight: 100, Percent: 15},
		},
	}
}

func TestTotalsNoDiscountBelowFirstTier(t *testing.T) {
	c := NewCart("buyer-1")
	if _, err := c.AddLine("flower", 19, 10, catalog.UnitPerPound, 100); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	result := c.Totals(testPolicy())
	if result.DiscountPercent != 0 {
		t.Errorf("19 lb must not qualify for a tier, got %f%%", result.DiscountPercent)
	}
}

func TestTotalsGramLineJustUnderFirstTier(t *testing.T) {
	c := NewCart("buyer-1")
	// 9071 grams is 19.998 lb; the 20 lb tier needs 9072.
	if _, err := c.AddLine("concentrate", 9071, 1, catalog.UnitPerGram, 10000); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	result := c.Totals(testPolicy())
	if result.TotalWeight >= 20 {
		t.Fatalf("expected weight under 20 lb, got %f", result.TotalWeight)
	}
	if result.DiscountPercent != 0 {
		t.Errorf("weight just under 20 lb must not qualify, got %f%%", result.DiscountPercent)
	}

	if _, err := c.AddLine("concentrate", 1, 1, catalog.UnitPerGram, 10000); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	result = c.Totals(testPolicy())
	if result.DiscountPercent != 5 {
		t.Errorf("one more gram crosses the tier, expected 5%%, got %f%%", result.DiscountPercent)
	}
}

func TestTotalsTierBoundaryInclusive(t *testing.T) {
	c := NewCart("buyer-1")
	if _, err := c.AddLine("flower", 20, 10, catalog.UnitPerPound, 100); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	result := c.Totals(testPolicy())
	if result.DiscountPercent != 5 {
		t.Errorf("exactly 20 lb qualifies for 5%%, got %f%%", result.DiscountPercent)
	}
}

func TestTotalsHighestTierWins(t *testing.T) {
	c := NewCart("buyer-1")
	if _, err := c.AddLine("flower", 120, 10, catalog.UnitPerPound, 500); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	result := c.Totals(testPolicy())
	if result.DiscountPercent != 15 {
		t.Errorf("120 lb qualifies for every tier, highest wins: expected 15%%, got %f%%", result.DiscountPercent)
	}
}

func TestTotalsUnsortedTiersStillPickHighest(t *testing.T) {
	policy := PricingPolicy{
		DiscountTiers: []DiscountTier{
			{MinimumWeight: 100, Percent: 15},
			{MinimumWeight: 20, Percent: 5},
			{MinimumWeight: 50, Percent: 10},
		},
	}

	c := NewCart("buyer-1")
	if _, err := c.AddLine("flower", 60, 10, catalog.UnitPerPound, 100); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	result := c.Totals(policy)
	if result.DiscountPercent != 10 {
		t.Errorf("expected 10%%, got %f%%", result.DiscountPercent)
	}
}

func TestTotalsShippingWaivedAtThreshold(t *testing.T) {
	policy := testPolicy()

	c := NewCart("buyer-1")
	if _, err := c.AddLine("flower", 10, 100, catalog.UnitPerPound, 100); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	result := c.Totals(policy)
	if result.Subtotal != 1000 {
		t.Fatalf("expected subtotal 1000, got %f", result.Subtotal)
	}
	if result.ShippingFee != 0 {
		t.Errorf("subtotal at the threshold waives shipping, got fee %f", result.ShippingFee)
	}
}

func TestTotalsShippingChargedBelowThreshold(t *testing.T) {
	policy := testPolicy()

	c := NewCart("buyer-1")
	if _, err := c.AddLine("flower", 1, 999.99, catalog.UnitPerPound, 100); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	result := c.Totals(policy)
	if result.ShippingFee != 50 {
		t.Errorf("subtotal below threshold pays shipping, got fee %f", result.ShippingFee)
	}
	if result.Total != 999.99-0+50 {
		t.Errorf("unexpected total %f", result.Total)
	}
}

func TestTotalsMixedUnitWeights(t *testing.T) {
	c := NewCart("buyer-1")
	if _, err := c.AddLine("flower", 30, 10, catalog.UnitPerPound, 100); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	// 4536 grams is just a hair over 10 pounds.
	if _, err := c.AddLine("concentrate", 4536, 1, catalog.UnitPerGram, 10000); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	result := c.Totals(testPolicy())
	if result.TotalWeight < 40 || result.TotalWeight > 40.01 {
		t.Fatalf("expected weight just over 40 lb, got %f", result.TotalWeight)
	}
	if result.DiscountPercent != 5 {
		t.Errorf("40 lb sits in the 5%% tier, got %f%%", result.DiscountPercent)
	}
}

func TestTotalsFloatDriftStaysSmall(t *testing.T) {
	c := NewCart("buyer-1")
	if _, err := c.AddLine("prod-1", 3, 0.10, catalog.UnitPerUnit, 10); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	result := c.Totals(PricingPolicy{})
	if math.Abs(result.Subtotal-0.30) > 1e-9 {
		t.Errorf("expected subtotal within 1e-9 of 0.30, got %.17f", result.Subtotal)
	}
}

func TestTotalsIsPure(t *testing.T) {
	c := NewCart("buyer-1")
	if _, err := c.AddLine("flower", 25, 40, catalog.UnitPerPound, 100); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	policy := testPolicy()
	first := c.Totals(policy)
	second := c.Totals(policy)
	if first != second {
		t.Errorf("repeated Totals calls must be identical: %+v vs %+v", first, second)
	}
}

func TestRounded(t *testing.T) {
	r := PricingResult{
		Subtotal:       10.006,
		DiscountAmount: 0.333333,
		Total:          9.671667,
	}

	rounded := r.Rounded()
	if rounded.Subtotal != 10.01 {
		t.Errorf("expected 10.01, got %f", rounded.Subtotal)
	}
	if rounded.DiscountAmount != 0.33 {
		t.Errorf("expected 0.33, got %f", rounded.DiscountAmount)
	}
	if rounded.Total != 9.67 {
		t.Errorf("expected 9.67, got %f", rounded.Total)
	}
}

func TestRoundCurrency(t *testing.T) {
	cases := map[float64]float64{
		10.004:  10.0,
		10.006:  10.01,
		-1.004:  -1.0,
		1234.56: 1234.56,
	}
	for in, want := range cases {
		if got := RoundCurrency(in); got != want {
			t.Errorf("RoundCurrency(%f) = %f, want %f", in, got, want)
		}
	}
}
