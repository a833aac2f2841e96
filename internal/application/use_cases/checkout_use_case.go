package use_cases

import (
	"context"

	"github.com/fadedwholesale/wholesale-service/internal/application/bus"
	"github.com/fadedwholesale/wholesale-service/internal/application/ports"
	domainErrors "github.com/fadedwholesale/wholesale-service/internal/domain/errors"
	"github.com/fadedwholesale/wholesale-service/internal/domain/event"
	"github.com/fadedwholesale/wholesale-service/internal/domain/order"
	"github.com/fadedwholesale/wholesale-service/internal/pkg/generator"
	"github.com/fadedwholesale/wholesale-service/internal/pkg/logger"
)

// CheckoutUseCase captures the current cart as an order inside a single
// transaction, decrementing stock line by line. Products drained to zero by
// the capture are marked sold out and broadcast after commit.
type CheckoutUseCase struct {
	carts       *CartUseCase
	orders      ports.OrderRepository
	stockFilter ports.StockFilter
	syncBus     *bus.Bus
	gen         *generator.CodeGenerator
	log         *logger.Logger
}

func NewCheckoutUseCase(
	carts *CartUseCase,
	orders ports.OrderRepository,
	stockFilter ports.StockFilter,
	syncBus *bus.Bus,
	gen *generator.CodeGenerator,
	log *logger.Logger,
) *CheckoutUseCase {
	return &CheckoutUseCase{
		carts:       carts,
		orders:      orders,
		stockFilter: stockFilter,
		syncBus:     syncBus,
		gen:         gen,
		log:         log,
	}
}

func (uc *CheckoutUseCase) Execute(ctx context.Context, userID string) (*order.Order, error) {
	lines, pricing, err := uc.carts.Snapshot(ctx, userID)
	if err != nil {
		return nil, err
	}
	if len(lines) == 0 {
		return nil, domainErrors.ErrCartEmpty
	}

	code, err := uc.gen.GenerateOrderCode(userID)
	if err != nil {
		uc.log.Error("Failed to generate order code", "user_id", userID, "error", err)
		return nil, err
	}

	o, err := order.NewOrder(uc.gen.GenerateOrderID(), code, userID, lines, pricing)
	if err != nil {
		return nil, err
	}

	tx, err := uc.orders.BeginTx(ctx)
	if err != nil {
		uc.log.Error("Failed to begin checkout transaction", "user_id", userID, "error", err)
		return nil, domainErrors.ErrPersistenceFailure
	}

	if err := tx.CreateOrder(ctx, o); err != nil {
		_ = tx.RollbackTx(ctx)
		uc.log.Error("Failed to persist order", "order_code", o.Code, "error", err)
		return nil, domainErrors.ErrPersistenceFailure
	}

	var soldOut []string
	for _, line := range o.Lines {
		remaining, err := tx.DecrementStock(ctx, line.ProductID, line.Quantity)
		if err != nil {
			_ = tx.RollbackTx(ctx)
			if err == domainErrors.ErrOutOfStock {
				return nil, err
			}
			uc.log.Error("Failed to decrement stock",
				"order_code", o.Code,
				"product_id", line.ProductID,
				"error", err,
			)
			return nil, domainErrors.ErrPersistenceFailure
		}
		if remaining == 0 {
			soldOut = append(soldOut, line.ProductID)
		}
	}

	if err := tx.CommitTx(ctx); err != nil {
		_ = tx.RollbackTx(ctx)
		uc.log.Error("Failed to commit checkout transaction", "order_code", o.Code, "error", err)
		return nil, domainErrors.ErrPersistenceFailure
	}

	if err := uc.carts.Clear(ctx, userID); err != nil {
		// Order is already captured; a stuck cart is an inconvenience,
		// not a reason to fail the checkout.
		uc.log.Warn("Failed to clear cart after checkout", "user_id", userID, "error", err)
	}

	for _, productID := range soldOut {
		if uc.stockFilter != nil {
			if err := uc.stockFilter.MarkOutOfStock(ctx, productID); err != nil {
				uc.log.Warn("Failed to mark product sold out", "product_id", productID, "error", err)
			}
		}
		uc.publish(ctx, event.TypeStockChanged, map[string]interface{}{
			"product_id": productID,
			"remaining":  0,
		})
	}

	uc.publish(ctx, event.TypeCheckoutCompleted, map[string]interface{}{
		"user_id":     userID,
		"order_code":  o.Code,
		"total":       o.Total,
		"total_items": o.TotalItems(),
	})

	uc.log.Info("Checkout completed",
		"user_id", userID,
		"order_code", o.Code,
		"total", o.Total,
		"sold_out_count", len(soldOut),
	)

	return o, nil
}

func (uc *CheckoutUseCase) GetOrderByCode(ctx context.Context, code string) (*order.Order, error) {
	return uc.orders.GetOrderByCode(ctx, code)
}

func (uc *CheckoutUseCase) GetOrdersByUserID(ctx context.Context, userID string, limit, offset int) ([]*order.Order, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}
	return uc.orders.GetOrdersByUserID(ctx, userID, limit, offset)
}

func (uc *CheckoutUseCase) publish(ctx context.Context, eventType string, payload interface{}) {
	if uc.syncBus == nil {
		return
	}
	if err := uc.syncBus.Publish(ctx, eventType, payload); err != nil {
		uc.log.Warn("Failed to publish sync event", "event_type", eventType, "error", err)
	}
}
