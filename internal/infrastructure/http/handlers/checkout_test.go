package handlers

import (
	"testing"
	"time"

	"github.com/fadedwholesale/wholesale-service/internal/domain/order"
)

func TestToOrderResponseRoundsCurrency(t *testing.T) {
	subtotal := 0.1 + 0.2 // 0.30000000000000004
	discount := subtotal * 5 / 100
	o := &order.Order{
		Code:            "ORD-1",
		Lines:           []order.Line{{ProductID: "flower-1", Quantity: 3, UnitPrice: 0.1}},
		Subtotal:        subtotal,
		ShippingFee:     50,
		DiscountPercent: 5,
		DiscountAmount:  discount,
		Total:           subtotal - discount + 50,
		CreatedAt:       time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC),
	}

	resp := toOrderResponse(o)

	if resp.Subtotal != 0.3 {
		t.Errorf("expected subtotal 0.3, got %.17f", resp.Subtotal)
	}
	if resp.DiscountAmount != 0.02 {
		t.Errorf("expected discount 0.02, got %.17f", resp.DiscountAmount)
	}
	if resp.Total != 50.29 {
		t.Errorf("expected total 50.29, got %.17f", resp.Total)
	}
	if resp.DiscountPercent != 5 {
		t.Errorf("discount percent is not a currency amount and must pass through, got %f", resp.DiscountPercent)
	}
	if resp.CreatedAt != "2025-06-01T12:00:00Z" {
		t.Errorf("unexpected created_at %q", resp.CreatedAt)
	}
}
