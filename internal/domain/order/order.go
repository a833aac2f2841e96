package order

import (
	"errors"
	"time"

	"github.com/fadedwholesale/wholesale-service/internal/domain/cart"
)

type Line struct {
	ProductID string
	Quantity  int
	UnitPrice float64
}

// Order is the persisted checkout snapshot: the cart lines plus the pricing
// result that was in effect when the buyer confirmed.
type Order struct {
	ID              string
	Code            string
	UserID          string
	Lines           []Line
	Subtotal        float64
	ShippingFee     float64
	DiscountPercent float64
	DiscountAmount  float64
	Total           float64
	CreatedAt       time.Time
}

func NewOrder(id, code, userID string, lines []cart.Line, pricing cart.PricingResult) (*Order, error) {
	if id == "" {
		return nil, errors.New("order id cannot be empty")
	}

	if code == "" {
		return nil, errors.New("order code cannot be empty")
	}

	if userID == "" {
		return nil, errors.New("user id cannot be empty")
	}

	if len(lines) == 0 {
		return nil, errors.New("order must contain at least one line")
	}

	orderLines := make([]Line, 0, len(lines))
	for _, l := range lines {
		orderLines = append(orderLines, Line{
			ProductID: l.ProductID,
			Quantity:  l.Quantity,
			UnitPrice: l.UnitPrice,
		})
	}

	return &Order{
		ID:              id,
		Code:            code,
		UserID:          userID,
		Lines:           orderLines,
		Subtotal:        pricing.Subtotal,
		ShippingFee:     pricing.ShippingFee,
		DiscountPercent: pricing.DiscountPercent,
		DiscountAmount:  pricing.DiscountAmount,
		Total:           pricing.Total,
		CreatedAt:       time.Now().UTC(),
	}, nil
}

func (o *Order) TotalItems() int {
	total := 0
	for _, l := range o.Lines {
		total += l.Quantity
	}
	return total
}
