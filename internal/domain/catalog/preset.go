package catalog

import (
	"time"
)

type PresetLine struct {
	ProductID string
	Quantity  int
}

// Preset is a named bulk-order bundle; applying it adds every line to the
// buyer's cart with normal stock-ceiling clamping per line.
type Preset struct {
	ID          string
	Name        string
	Description string
	Lines       []PresetLine
	CreatedAt   time.Time
}

func (p *Preset) TotalItems() int {
	total := 0
	for _, l := range p.Lines {
		total += l.Quantity
	}
	return total
}
