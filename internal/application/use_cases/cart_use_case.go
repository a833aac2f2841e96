package use_cases

import (
	"context"
	"sync"

	"github.com/fadedwholesale/wholesale-service/internal/application/bus"
	"github.com/fadedwholesale/wholesale-service/internal/application/ports"
	"github.com/fadedwholesale/wholesale-service/internal/domain/cart"
	domainErrors "github.com/fadedwholesale/wholesale-service/internal/domain/errors"
	"github.com/fadedwholesale/wholesale-service/internal/domain/event"
	"github.com/fadedwholesale/wholesale-service/internal/pkg/logger"
)

// LineResult reports the outcome of a cart mutation. Clamped is set whenever
// the applied quantity differs from what the buyer asked for — that is a
// correctness-relevant fact surfaced even on success, not an error.
type LineResult struct {
	ProductID string `json:"product_id"`
	Requested int    `json:"requested"`
	Applied   int    `json:"applied"`
	Clamped   bool   `json:"clamped"`
	Persisted bool   `json:"persisted"`
	Removed   bool   `json:"removed,omitempty"`
}

type session struct {
	cart *cart.Cart

	// dirty marks a cart whose last write-through failed; the next
	// mutation's persist covers the whole cart and clears it.
	dirty bool
}

// CartUseCase owns the in-memory cart per user session with write-through to
// the cart store. Two contexts mutating the same user's cart race on the
// shared record; last writer wins. That is an accepted limitation of the
// design, not a bug.
type CartUseCase struct {
	store       ports.CartStore
	catalog     ports.CatalogProvider
	stockFilter ports.StockFilter
	syncBus     *bus.Bus
	policy      cart.PricingPolicy
	log         *logger.Logger

	// mu guards sessions only; sync events are published after release so
	// synchronous local subscribers never run under the lock.
	mu       sync.Mutex
	sessions map[string]*session
}

func NewCartUseCase(
	store ports.CartStore,
	catalog ports.CatalogProvider,
	stockFilter ports.StockFilter,
	syncBus *bus.Bus,
	policy cart.PricingPolicy,
	log *logger.Logger,
) *CartUseCase {
	return &CartUseCase{
		store:       store,
		catalog:     catalog,
		stockFilter: stockFilter,
		syncBus:     syncBus,
		policy:      policy,
		log:         log,
		sessions:    make(map[string]*session),
	}
}

func (uc *CartUseCase) AddItem(ctx context.Context, userID, productID string, quantity int) (*LineResult, error) {
	if quantity <= 0 {
		return nil, domainErrors.ErrInvalidQuantity
	}

	if uc.stockFilter != nil {
		soldOut, err := uc.stockFilter.LikelyOutOfStock(ctx, productID)
		if err != nil {
			uc.log.Error("Stock filter check failed", "error", err, "product_id", productID)
		} else if soldOut {
			return nil, domainErrors.ErrOutOfStock
		}
	}

	product, err := uc.catalog.GetProductByID(ctx, productID)
	if err != nil {
		return nil, err
	}

	uc.mu.Lock()
	sess, err := uc.sessionLocked(ctx, userID)
	if err != nil {
		uc.mu.Unlock()
		return nil, err
	}

	previousQty := 0
	if existing, ok := sess.cart.Line(productID); ok {
		previousQty = existing.Quantity
	}

	line, err := sess.cart.AddLine(productID, quantity, product.UnitPrice, product.UnitLabel, product.StockCeiling)
	if err != nil {
		uc.mu.Unlock()
		if err == domainErrors.ErrOutOfStock && uc.stockFilter != nil {
			_ = uc.stockFilter.MarkOutOfStock(ctx, productID)
		}
		return nil, err
	}

	result := &LineResult{
		ProductID: productID,
		Requested: previousQty + quantity,
		Applied:   line.Quantity,
		Clamped:   line.Quantity < previousQty+quantity,
	}
	result.Persisted = uc.persistLocked(ctx, userID, sess)
	totalItems := sess.cart.TotalItems()
	uc.mu.Unlock()

	uc.publishCartUpdated(ctx, userID, totalItems)

	return result, nil
}

func (uc *CartUseCase) RemoveItem(ctx context.Context, userID, productID string) (*LineResult, error) {
	uc.mu.Lock()
	sess, err := uc.sessionLocked(ctx, userID)
	if err != nil {
		uc.mu.Unlock()
		return nil, err
	}

	line, err := sess.cart.RemoveLine(productID)
	if err != nil {
		uc.mu.Unlock()
		return nil, err
	}

	result := &LineResult{
		ProductID: productID,
		Applied:   line.Quantity,
		Removed:   true,
	}
	result.Persisted = uc.persistLocked(ctx, userID, sess)
	totalItems := sess.cart.TotalItems()
	uc.mu.Unlock()

	uc.publishCartUpdated(ctx, userID, totalItems)

	return result, nil
}

func (uc *CartUseCase) SetQuantity(ctx context.Context, userID, productID string, quantity int) (*LineResult, error) {
	uc.mu.Lock()
	sess, err := uc.sessionLocked(ctx, userID)
	if err != nil {
		uc.mu.Unlock()
		return nil, err
	}

	line, err := sess.cart.SetQuantity(productID, quantity)
	if err != nil {
		uc.mu.Unlock()
		return nil, err
	}

	result := &LineResult{
		ProductID: productID,
		Requested: quantity,
		Applied:   line.Quantity,
		Removed:   quantity == 0,
		Clamped:   quantity > 0 && line.Quantity < quantity,
	}
	result.Persisted = uc.persistLocked(ctx, userID, sess)
	totalItems := sess.cart.TotalItems()
	uc.mu.Unlock()

	uc.publishCartUpdated(ctx, userID, totalItems)

	return result, nil
}

func (uc *CartUseCase) Clear(ctx context.Context, userID string) error {
	uc.mu.Lock()
	sess, err := uc.sessionLocked(ctx, userID)
	if err != nil {
		uc.mu.Unlock()
		return err
	}

	sess.cart.Clear()

	if err := uc.store.Delete(ctx, userID); err != nil {
		sess.dirty = true
		uc.log.Warn("Cart clear not persisted, will retry on next mutation",
			"user_id", userID,
			"error", err,
		)
	} else {
		sess.dirty = false
	}
	uc.mu.Unlock()

	uc.publish(ctx, event.TypeCartCleared, map[string]interface{}{
		"user_id": userID,
	})

	return nil
}

// Snapshot returns the cart's lines plus the derived pricing result. Totals
// is pure: calling it repeatedly without mutation yields identical results.
func (uc *CartUseCase) Snapshot(ctx context.Context, userID string) ([]cart.Line, cart.PricingResult, error) {
	uc.mu.Lock()
	defer uc.mu.Unlock()

	sess, err := uc.sessionLocked(ctx, userID)
	if err != nil {
		return nil, cart.PricingResult{}, err
	}

	return sess.cart.Lines(), sess.cart.Totals(uc.policy), nil
}

func (uc *CartUseCase) Policy() cart.PricingPolicy {
	return uc.policy
}

// InvalidateSession drops the in-memory copy so the next operation reloads
// from the store. Wired to remote cart events so contexts converge.
func (uc *CartUseCase) InvalidateSession(userID string) {
	uc.mu.Lock()
	defer uc.mu.Unlock()
	delete(uc.sessions, userID)
}

// HasDirtySessions reports whether any cart is carrying unpersisted state.
// It backs the staleness predicate handed to the sync bus.
func (uc *CartUseCase) HasDirtySessions() bool {
	uc.mu.Lock()
	defer uc.mu.Unlock()

	for _, sess := range uc.sessions {
		if sess.dirty {
			return true
		}
	}
	return false
}

func (uc *CartUseCase) sessionLocked(ctx context.Context, userID string) (*session, error) {
	if sess, ok := uc.sessions[userID]; ok {
		return sess, nil
	}

	lines, err := uc.store.Get(ctx, userID)
	if err != nil {
		uc.log.Error("Failed to load cart", "user_id", userID, "error", err)
		return nil, domainErrors.ErrPersistenceFailure
	}

	sess := &session{cart: cart.Restore(userID, lines)}
	uc.sessions[userID] = sess
	return sess, nil
}

// persistLocked writes the whole cart through to the store. On failure the
// in-memory mutation is kept (the buyer's session reflects their intent) and
// the cart stays dirty so the next mutation retries the full write.
func (uc *CartUseCase) persistLocked(ctx context.Context, userID string, sess *session) bool {
	if err := uc.store.Set(ctx, userID, sess.cart.Lines()); err != nil {
		sess.dirty = true
		uc.log.Warn("Cart mutation not persisted, keeping in-memory state",
			"user_id", userID,
			"error", err,
		)
		return false
	}

	if sess.dirty {
		uc.log.Info("Recovered previously unpersisted cart state", "user_id", userID)
	}
	sess.dirty = false
	return true
}

func (uc *CartUseCase) publishCartUpdated(ctx context.Context, userID string, totalItems int) {
	uc.publish(ctx, event.TypeCartUpdated, map[string]interface{}{
		"user_id":     userID,
		"total_items": totalItems,
	})
}

func (uc *CartUseCase) publish(ctx context.Context, eventType string, payload interface{}) {
	if uc.syncBus == nil {
		return
	}
	if err := uc.syncBus.Publish(ctx, eventType, payload); err != nil {
		uc.log.Warn("Failed to publish sync event", "event_type", eventType, "error", err)
	}
}
