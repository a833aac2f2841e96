package cart

import (
	"sort"
	"time"

	"github.com/fadedwholesale/wholesale-service/internal/domain/catalog"
	domainErrors "github.com/fadedwholesale/wholesale-service/internal/domain/errors"
)

// Line is one product's quantity entry within a buyer's cart. Quantity never
// exceeds StockCeiling; a line whose quantity would drop to zero is removed
// instead of stored.
type Line struct {
	ProductID    string            `json:"product_id"`
	Quantity     int               `json:"quantity"`
	UnitPrice    float64           `json:"unit_price"`
	UnitLabel    catalog.UnitLabel `json:"unit_label"`
	StockCeiling int               `json:"stock_ceiling"`
	AddedAt      time.Time         `json:"added_at"`
}

// Weight is the line's contribution toward bulk discount tiers, in pounds.
func (l *Line) Weight() float64 {
	return float64(l.Quantity) * l.UnitLabel.PoundsPerUnit()
}

func (l *Line) Subtotal() float64 {
	return float64(l.Quantity) * l.UnitPrice
}

type Cart struct {
	UserID string
	lines  map[string]*Line
}

func NewCart(userID string) *Cart {
	return &Cart{
		UserID: userID,
		lines:  make(map[string]*Line),
	}
}

// Restore rebuilds a cart from persisted lines, re-enforcing the ceiling
// invariant in case inventory shrank since the cart was saved.
func Restore(userID string, lines []Line) *Cart {
	c := NewCart(userID)
	for i := range lines {
		line := lines[i]
		if line.Quantity <= 0 {
			continue
		}
		if line.Quantity > line.StockCeiling {
			line.Quantity = line.StockCeiling
		}
		if line.Quantity == 0 {
			continue
		}
		c.lines[line.ProductID] = &line
	}
	return c
}

// AddLine merges the requested quantity into the cart, clamping at the stock
// ceiling. The returned line reflects the applied quantity; callers compare
// it against the request to surface clamps to the buyer.
func (c *Cart) AddLine(productID string, requestedQty int, unitPrice float64, unitLabel catalog.UnitLabel, stockCeiling int) (*Line, error) {
	if requestedQty <= 0 {
		return nil, domainErrors.ErrInvalidQuantity
	}

	if existing, ok := c.lines[productID]; ok {
		newQty := existing.Quantity + requestedQty
		if newQty > existing.StockCeiling {
			newQty = existing.StockCeiling
		}
		if newQty == existing.Quantity {
			return nil, domainErrors.ErrAtCapacity
		}
		existing.Quantity = newQty
		return existing, nil
	}

	if stockCeiling == 0 {
		return nil, domainErrors.ErrOutOfStock
	}

	qty := requestedQty
	if qty > stockCeiling {
		qty = stockCeiling
	}

	line := &Line{
		ProductID:    productID,
		Quantity:     qty,
		UnitPrice:    unitPrice,
		UnitLabel:    unitLabel,
		StockCeiling: stockCeiling,
		AddedAt:      time.Now().UTC(),
	}
	c.lines[productID] = line

	return line, nil
}

func (c *Cart) RemoveLine(productID string) (*Line, error) {
	line, ok := c.lines[productID]
	if !ok {
		return nil, domainErrors.ErrLineNotFound
	}

	delete(c.lines, productID)
	return line, nil
}

// SetQuantity replaces a line's quantity. Zero removes the line; a value
// above the stock ceiling is clamped down and reported via the returned line
// rather than rejected.
func (c *Cart) SetQuantity(productID string, newQty int) (*Line, error) {
	if newQty < 0 {
		return nil, domainErrors.ErrInvalidQuantity
	}

	if newQty == 0 {
		return c.RemoveLine(productID)
	}

	line, ok := c.lines[productID]
	if !ok {
		return nil, domainErrors.ErrLineNotFound
	}

	if newQty > line.StockCeiling {
		newQty = line.StockCeiling
	}
	line.Quantity = newQty

	return line, nil
}

func (c *Cart) Line(productID string) (*Line, bool) {
	line, ok := c.lines[productID]
	return line, ok
}

// Lines returns a stable snapshot ordered by product id.
func (c *Cart) Lines() []Line {
	out := make([]Line, 0, len(c.lines))
	for _, line := range c.lines {
		out = append(out, *line)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].ProductID < out[j].ProductID
	})
	return out
}

func (c *Cart) Clear() {
	c.lines = make(map[string]*Line)
}

func (c *Cart) IsEmpty() bool {
	return len(c.lines) == 0
}

func (c *Cart) TotalItems() int {
	total := 0
	for _, line := range c.lines {
		total += line.Quantity
	}
	return total
}

func (c *Cart) TotalWeight() float64 {
	weight := 0.0
	for _, line := range c.lines {
		weight += line.Weight()
	}
	return weight
}
