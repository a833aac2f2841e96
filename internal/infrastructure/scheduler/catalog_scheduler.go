package scheduler

import (
	"context"
	"sync"
	"time"

	"github.com/fadedwholesale/wholesale-service/internal/application/ports"
	"github.com/fadedwholesale/wholesale-service/internal/infrastructure/monitoring"
	"github.com/fadedwholesale/wholesale-service/internal/pkg/clock"
	"github.com/fadedwholesale/wholesale-service/internal/pkg/logger"
)

// CatalogScheduler periodically reloads the product catalog, reseeds the
// sold-out filter from the authoritative stock counts and refreshes the
// catalog gauges.
type CatalogScheduler struct {
	catalog     ports.CatalogProvider
	stockFilter ports.StockFilter
	clk         clock.Clock
	logger      *logger.Logger
	interval    time.Duration
	stopChan    chan struct{}

	mu          sync.Mutex
	lastRefresh time.Time
}

func NewCatalogScheduler(
	catalog ports.CatalogProvider,
	stockFilter ports.StockFilter,
	clk clock.Clock,
	log *logger.Logger,
	interval time.Duration,
) *CatalogScheduler {
	return &CatalogScheduler{
		catalog:     catalog,
		stockFilter: stockFilter,
		clk:         clk,
		logger:      log,
		interval:    interval,
		stopChan:    make(chan struct{}),
	}
}

func (s *CatalogScheduler) Start(ctx context.Context) {
	s.logger.Info("Starting catalog scheduler", "interval", s.interval.String())

	if err := s.refresh(ctx); err != nil {
		s.logger.Error("Initial catalog refresh failed", "error", err)
	}

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.logger.Info("Catalog scheduler stopped")
			return
		case <-s.stopChan:
			s.logger.Info("Catalog scheduler stopped")
			return
		case <-ticker.C:
			if err := s.refresh(ctx); err != nil {
				s.logger.Error("Scheduled catalog refresh failed", "error", err)
			}
		}
	}
}

func (s *CatalogScheduler) Stop() {
	close(s.stopChan)
}

// Stale reports whether the catalog has gone more than two intervals without
// a successful refresh. It feeds the sync bus reconciliation predicate.
func (s *CatalogScheduler) Stale() bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.lastRefresh.IsZero() {
		return true
	}
	return s.clk.Since(s.lastRefresh) > 2*s.interval
}

func (s *CatalogScheduler) refresh(ctx context.Context) error {
	products, err := s.catalog.GetProducts(ctx)
	if err != nil {
		return err
	}

	// Rebuild the filter from scratch so restocked products drop out of the
	// fast path, then re-mark everything that is genuinely sold out.
	if s.stockFilter != nil {
		if err := s.stockFilter.Reset(ctx); err != nil {
			s.logger.Warn("Failed to reset stock filter during refresh", "error", err)
		} else {
			for _, p := range products {
				if !p.InStock() {
					if err := s.stockFilter.MarkOutOfStock(ctx, p.ID); err != nil {
						s.logger.Warn("Failed to mark sold-out product", "product_id", p.ID, "error", err)
					}
				}
			}
		}
	}

	monitoring.UpdateCatalogProductCount(len(products))

	s.mu.Lock()
	s.lastRefresh = s.clk.Now()
	s.mu.Unlock()

	s.logger.Info("Catalog refreshed", "products", len(products))
	return nil
}
