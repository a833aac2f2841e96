package use_cases

import (
	"context"
	"io"
	"sync"
	"time"

	"github.com/fadedwholesale/wholesale-service/internal/application/bus"
	"github.com/fadedwholesale/wholesale-service/internal/application/ports"
	"github.com/fadedwholesale/wholesale-service/internal/domain/cart"
	"github.com/fadedwholesale/wholesale-service/internal/domain/catalog"
	domainErrors "github.com/fadedwholesale/wholesale-service/internal/domain/errors"
	"github.com/fadedwholesale/wholesale-service/internal/domain/event"
	"github.com/fadedwholesale/wholesale-service/internal/domain/order"
	"github.com/fadedwholesale/wholesale-service/internal/pkg/clock"
	"github.com/fadedwholesale/wholesale-service/internal/pkg/logger"
)

type fakeCartStore struct {
	mu      sync.Mutex
	records map[string][]cart.Line
	getErr  error
	setErr  error
	delErr  error
	setN    int
}

func newFakeCartStore() *fakeCartStore {
	return &fakeCartStore{records: make(map[string][]cart.Line)}
}

func (s *fakeCartStore) Get(ctx context.Context, userID string) ([]cart.Line, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.getErr != nil {
		return nil, s.getErr
	}
	return s.records[userID], nil
}

func (s *fakeCartStore) Set(ctx context.Context, userID string, lines []cart.Line) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.setN++
	if s.setErr != nil {
		return s.setErr
	}
	s.records[userID] = lines
	return nil
}

func (s *fakeCartStore) Delete(ctx context.Context, userID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.delErr != nil {
		return s.delErr
	}
	delete(s.records, userID)
	return nil
}

func (s *fakeCartStore) stored(userID string) []cart.Line {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.records[userID]
}

type fakeCatalog struct {
	products map[string]*catalog.Product
}

func newFakeCatalog(products ...*catalog.Product) *fakeCatalog {
	f := &fakeCatalog{products: make(map[string]*catalog.Product)}
	for _, p := range products {
		f.products[p.ID] = p
	}
	return f
}

func (f *fakeCatalog) GetProducts(ctx context.Context) ([]*catalog.Product, error) {
	out := make([]*catalog.Product, 0, len(f.products))
	for _, p := range f.products {
		out = append(out, p)
	}
	return out, nil
}

func (f *fakeCatalog) GetProductByID(ctx context.Context, id string) (*catalog.Product, error) {
	p, ok := f.products[id]
	if !ok {
		return nil, domainErrors.ErrProductNotFound
	}
	return p, nil
}

type fakeStockFilter struct {
	mu      sync.Mutex
	soldOut map[string]bool
	resets  int
}

func newFakeStockFilter() *fakeStockFilter {
	return &fakeStockFilter{soldOut: make(map[string]bool)}
}

func (f *fakeStockFilter) MarkOutOfStock(ctx context.Context, productID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.soldOut[productID] = true
	return nil
}

func (f *fakeStockFilter) LikelyOutOfStock(ctx context.Context, productID string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.soldOut[productID], nil
}

func (f *fakeStockFilter) Reset(ctx context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.soldOut = make(map[string]bool)
	f.resets++
	return nil
}

func (f *fakeStockFilter) marked(productID string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.soldOut[productID]
}

type fakeOrderRepository struct {
	mu        sync.Mutex
	orders    map[string]*order.Order
	stock     map[string]int
	commits   int
	rollbacks int
	createErr error
	commitErr error
	decrement func(productID string, quantity int) (int, error)
	inTx      bool
}

func newFakeOrderRepository(stock map[string]int) *fakeOrderRepository {
	if stock == nil {
		stock = make(map[string]int)
	}
	return &fakeOrderRepository{
		orders: make(map[string]*order.Order),
		stock:  stock,
	}
}

func (r *fakeOrderRepository) CreateOrder(ctx context.Context, o *order.Order) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.createErr != nil {
		return r.createErr
	}
	r.orders[o.Code] = o
	return nil
}

func (r *fakeOrderRepository) GetOrderByCode(ctx context.Context, code string) (*order.Order, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	o, ok := r.orders[code]
	if !ok {
		return nil, domainErrors.ErrOrderNotFound
	}
	return o, nil
}

func (r *fakeOrderRepository) GetOrdersByUserID(ctx context.Context, userID string, limit, offset int) ([]*order.Order, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*order.Order, 0)
	for _, o := range r.orders {
		if o.UserID == userID {
			out = append(out, o)
		}
	}
	return out, nil
}

func (r *fakeOrderRepository) DecrementStock(ctx context.Context, productID string, quantity int) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.decrement != nil {
		return r.decrement(productID, quantity)
	}
	remaining, ok := r.stock[productID]
	if !ok || remaining < quantity {
		return 0, domainErrors.ErrOutOfStock
	}
	r.stock[productID] = remaining - quantity
	return remaining - quantity, nil
}

func (r *fakeOrderRepository) BeginTx(ctx context.Context) (ports.OrderRepository, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.inTx = true
	return r, nil
}

func (r *fakeOrderRepository) CommitTx(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.commitErr != nil {
		return r.commitErr
	}
	r.commits++
	r.inTx = false
	return nil
}

func (r *fakeOrderRepository) RollbackTx(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.rollbacks++
	r.inTx = false
	return nil
}

type nullChannel struct {
	notify chan event.Event
}

func newNullChannel() *nullChannel {
	return &nullChannel{notify: make(chan event.Event)}
}

func (c *nullChannel) Write(ctx context.Context, e event.Event) error { return nil }

func (c *nullChannel) Latest(ctx context.Context) (*event.Event, error) { return nil, nil }

func (c *nullChannel) Notifications() <-chan event.Event { return c.notify }

func (c *nullChannel) Close() error { return nil }

type eventRecorder struct {
	mu     sync.Mutex
	events []event.Event
}

func (r *eventRecorder) record(e event.Event, meta event.Metadata) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, e)
}

func (r *eventRecorder) typesSeen() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, 0, len(r.events))
	for _, e := range r.events {
		out = append(out, e.Type)
	}
	return out
}

func testLogger() *logger.Logger {
	return logger.NewLoggerWithOutput(io.Discard)
}

func testBus() (*bus.Bus, *eventRecorder) {
	b := bus.NewBus(newNullChannel(), testLogger(), clock.NewMockClock(time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)), bus.Options{
		OriginID: "origin-test",
	})
	_ = b.Start(context.Background())

	rec := &eventRecorder{}
	b.Subscribe(event.Wildcard, rec.record)
	return b, rec
}
