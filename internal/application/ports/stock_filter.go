package ports

import (
	"context"
)

// StockFilter is a probabilistic set of sold-out product ids consulted before
// catalog lookups. False positives are tolerated (the catalog read is the
// authority); false negatives never happen after MarkOutOfStock.
type StockFilter interface {
	MarkOutOfStock(ctx context.Context, productID string) error
	LikelyOutOfStock(ctx context.Context, productID string) (bool, error)
	Reset(ctx context.Context) error
}
