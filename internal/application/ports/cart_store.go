package ports

import (
	"context"

	"github.com/fadedwholesale/wholesale-service/internal/domain/cart"
)

// CartStore is the persistence provider for cart state: one record per user
// identity holding that user's lines. A missing record is an empty cart, not
// an error.
type CartStore interface {
	Get(ctx context.Context, userID string) ([]cart.Line, error)
	Set(ctx context.Context, userID string, lines []cart.Line) error
	Delete(ctx context.Context, userID string) error
}
