package catalog

import (
	"time"
)

type UnitLabel string

const (
	UnitPerPound UnitLabel = "per-pound"
	UnitPerGram  UnitLabel = "per-gram"
	UnitPerCart  UnitLabel = "per-cart"
	UnitPerUnit  UnitLabel = "per-unit"
)

// GramsPerPound converts per-gram quantities into pounds for bulk discount
// eligibility.
const GramsPerPound = 453.592

// PoundsPerUnit returns the weight one unit of product contributes toward
// bulk discount tiers. Labels other than per-pound and per-gram (vape carts,
// accessories) contribute nothing, which means a cart full of them never
// qualifies for a weight tier. That is intended pricing behavior.
func (u UnitLabel) PoundsPerUnit() float64 {
	switch u {
	case UnitPerPound:
		return 1
	case UnitPerGram:
		return 1 / GramsPerPound
	default:
		return 0
	}
}

type Product struct {
	ID           string
	Name         string
	Category     string
	UnitPrice    float64
	UnitLabel    UnitLabel
	StockCeiling int
	CreatedAt    time.Time
}

func NewProduct(id, name, category string, unitPrice float64, unitLabel UnitLabel, stockCeiling int) *Product {
	return &Product{
		ID:           id,
		Name:         name,
		Category:     category,
		UnitPrice:    unitPrice,
		UnitLabel:    unitLabel,
		StockCeiling: stockCeiling,
		CreatedAt:    time.Now().UTC(),
	}
}

func (p *Product) InStock() bool {
	return p.StockCeiling > 0
}
