package ports

import (
	"context"

	"github.com/fadedwholesale/wholesale-service/internal/domain/order"
)

type OrderRepository interface {
	CreateOrder(ctx context.Context, o *order.Order) error
	GetOrderByCode(ctx context.Context, code string) (*order.Order, error)
	GetOrdersByUserID(ctx context.Context, userID string, limit, offset int) ([]*order.Order, error)

	// DecrementStock reduces a product's stock ceiling as part of order
	// capture and reports the remaining stock.
	DecrementStock(ctx context.Context, productID string, quantity int) (int, error)

	BeginTx(ctx context.Context) (OrderRepository, error)
	CommitTx(ctx context.Context) error
	RollbackTx(ctx context.Context) error
}
