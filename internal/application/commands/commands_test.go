package commands

import (
	"context"
	"errors"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fadedwholesale/wholesale-service/internal/application/bus"
	"github.com/fadedwholesale/wholesale-service/internal/application/use_cases"
	"github.com/fadedwholesale/wholesale-service/internal/domain/cart"
	"github.com/fadedwholesale/wholesale-service/internal/domain/catalog"
	domainErrors "github.com/fadedwholesale/wholesale-service/internal/domain/errors"
	"github.com/fadedwholesale/wholesale-service/internal/domain/event"
	"github.com/fadedwholesale/wholesale-service/internal/domain/intake"
	"github.com/fadedwholesale/wholesale-service/internal/pkg/clock"
	"github.com/fadedwholesale/wholesale-service/internal/pkg/generator"
	"github.com/fadedwholesale/wholesale-service/internal/pkg/logger"
)

type fakePresetRepository struct {
	presets map[string]*catalog.Preset
	getErr  error
}

func (f *fakePresetRepository) GetPresets(ctx context.Context) ([]*catalog.Preset, error) {
	out := make([]*catalog.Preset, 0, len(f.presets))
	for _, p := range f.presets {
		out = append(out, p)
	}
	return out, nil
}

func (f *fakePresetRepository) GetPresetByID(ctx context.Context, id string) (*catalog.Preset, error) {
	if f.getErr != nil {
		return nil, f.getErr
	}
	p, ok := f.presets[id]
	if !ok {
		return nil, domainErrors.ErrPresetNotFound
	}
	return p, nil
}

func (f *fakePresetRepository) CreatePreset(ctx context.Context, p *catalog.Preset) error {
	f.presets[p.ID] = p
	return nil
}

type fakeApplicationRepository struct {
	mu        sync.Mutex
	byLicense map[string]*intake.Application
	createErr error
}

func newFakeApplicationRepository() *fakeApplicationRepository {
	return &fakeApplicationRepository{byLicense: make(map[string]*intake.Application)}
}

func (r *fakeApplicationRepository) CreateApplication(ctx context.Context, a *intake.Application) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.createErr != nil {
		return r.createErr
	}
	if _, exists := r.byLicense[a.LicenseNumber]; exists {
		return domainErrors.ErrDuplicateApplication
	}
	r.byLicense[a.LicenseNumber] = a
	return nil
}

func (r *fakeApplicationRepository) GetApplicationByID(ctx context.Context, id string) (*intake.Application, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, a := range r.byLicense {
		if a.ID == id {
			return a, nil
		}
	}
	return nil, domainErrors.ErrApplicationNotFound
}

func (r *fakeApplicationRepository) GetApplicationByLicense(ctx context.Context, licenseNumber string) (*intake.Application, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.byLicense[licenseNumber], nil
}

func (r *fakeApplicationRepository) UpdateStatus(ctx context.Context, id string, status intake.Status) error {
	return nil
}

type fakeCartStore struct {
	mu      sync.Mutex
	records map[string][]cart.Line
}

func newFakeCartStore() *fakeCartStore {
	return &fakeCartStore{records: make(map[string][]cart.Line)}
}

func (s *fakeCartStore) Get(ctx context.Context, userID string) ([]cart.Line, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.records[userID], nil
}

func (s *fakeCartStore) Set(ctx context.Context, userID string, lines []cart.Line) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records[userID] = lines
	return nil
}

func (s *fakeCartStore) Delete(ctx context.Context, userID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.records, userID)
	return nil
}

type fakeCatalog struct {
	products map[string]*catalog.Product
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

type nullChannel struct {
	notify chan event.Event
}

func (c *nullChannel) Write(ctx context.Context, e event.Event) error   { return nil }
func (c *nullChannel) Latest(ctx context.Context) (*event.Event, error) { return nil, nil }
func (c *nullChannel) Notifications() <-chan event.Event                { return c.notify }
func (c *nullChannel) Close() error                                     { return nil }

func testLogger() *logger.Logger {
	return logger.NewLoggerWithOutput(io.Discard)
}

func testBus(t *testing.T) *bus.Bus {
	t.Helper()
	b := bus.NewBus(&nullChannel{notify: make(chan event.Event)}, testLogger(), clock.NewMockClock(time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)), bus.Options{
		OriginID: "origin-test",
	})
	require.NoError(t, b.Start(context.Background()))
	t.Cleanup(func() { b.Close() })
	return b
}

func testCarts(t *testing.T, products ...*catalog.Product) *use_cases.CartUseCase {
	t.Helper()
	byID := make(map[string]*catalog.Product, len(products))
	for _, p := range products {
		byID[p.ID] = p
	}
	return use_cases.NewCartUseCase(
		newFakeCartStore(),
		&fakeCatalog{products: byID},
		nil,
		testBus(t),
		cart.PricingPolicy{},
		testLogger(),
	)
}

func TestApplyPresetAddsAllLines(t *testing.T) {
	carts := testCarts(t,
		catalog.NewProduct("flower-1", "OG Kush", "flower", 800, catalog.UnitPerPound, 100),
		catalog.NewProduct("carts-1", "Live Resin Cart", "vapes", 20, catalog.UnitPerCart, 500),
	)
	presets := &fakePresetRepository{presets: map[string]*catalog.Preset{
		"starter": {
			ID:   "starter",
			Name: "Starter Pack",
			Lines: []catalog.PresetLine{
				{ProductID: "flower-1", Quantity: 5},
				{ProductID: "carts-1", Quantity: 50},
			},
		},
	}}

	h := NewApplyPresetHandler(presets, carts, testLogger())

	resp, err := h.Handle(context.Background(), ApplyPresetCommand{UserID: "buyer-1", PresetID: "starter"})
	require.NoError(t, err)

	assert.Equal(t, "Starter Pack", resp.Name)
	assert.Len(t, resp.Lines, 2)
	assert.Empty(t, resp.Skipped)

	lines, _, err := carts.Snapshot(context.Background(), "buyer-1")
	require.NoError(t, err)
	assert.Len(t, lines, 2)
}

func TestApplyPresetPartialApplication(t *testing.T) {
	carts := testCarts(t,
		catalog.NewProduct("flower-1", "OG Kush", "flower", 800, catalog.UnitPerPound, 2),
	)
	presets := &fakePresetRepository{presets: map[string]*catalog.Preset{
		"starter": {
			ID:   "starter",
			Name: "Starter Pack",
			Lines: []catalog.PresetLine{
				{ProductID: "flower-1", Quantity: 5},
				{ProductID: "missing", Quantity: 1},
			},
		},
	}}

	h := NewApplyPresetHandler(presets, carts, testLogger())

	resp, err := h.Handle(context.Background(), ApplyPresetCommand{UserID: "buyer-1", PresetID: "starter"})
	require.NoError(t, err)

	// Known product clamps and applies; unknown product is skipped, not fatal.
	require.Len(t, resp.Lines, 1)
	assert.True(t, resp.Lines[0].Clamped)
	assert.Equal(t, 2, resp.Lines[0].Applied)

	require.Len(t, resp.Skipped, 1)
	assert.Equal(t, "missing", resp.Skipped[0].ProductID)
}

func TestApplyPresetNotFound(t *testing.T) {
	carts := testCarts(t)
	h := NewApplyPresetHandler(&fakePresetRepository{presets: map[string]*catalog.Preset{}}, carts, testLogger())

	_, err := h.Handle(context.Background(), ApplyPresetCommand{UserID: "buyer-1", PresetID: "missing"})
	assert.ErrorIs(t, err, domainErrors.ErrPresetNotFound)
}

func TestApplyPresetRepositoryFailure(t *testing.T) {
	carts := testCarts(t)
	h := NewApplyPresetHandler(&fakePresetRepository{getErr: errors.New("db down")}, carts, testLogger())

	_, err := h.Handle(context.Background(), ApplyPresetCommand{UserID: "buyer-1", PresetID: "starter"})
	assert.ErrorIs(t, err, domainErrors.ErrPersistenceFailure)
}

func TestSubmitApplication(t *testing.T) {
	repo := newFakeApplicationRepository()
	h := NewSubmitApplicationHandler(repo, testBus(t), generator.NewCodeGenerator(), testLogger())

	resp, err := h.Handle(context.Background(), SubmitApplicationCommand{
		BusinessName:  "Green Valley Dispensary",
		LicenseNumber: "C11-0001234-LIC",
		ContactName:   "Jordan Reyes",
		Email:         "jordan@greenvalley.example",
		Phone:         "555-0100",
	})
	require.NoError(t, err)

	assert.NotEmpty(t, resp.ApplicationID)
	assert.Equal(t, string(intake.StatusPending), resp.Status)
}

func TestSubmitApplicationDuplicateLicense(t *testing.T) {
	repo := newFakeApplicationRepository()
	h := NewSubmitApplicationHandler(repo, testBus(t), generator.NewCodeGenerator(), testLogger())

	cmd := SubmitApplicationCommand{
		BusinessName:  "Green Valley Dispensary",
		LicenseNumber: "C11-0001234-LIC",
		ContactName:   "Jordan Reyes",
		Email:         "jordan@greenvalley.example",
	}

	_, err := h.Handle(context.Background(), cmd)
	require.NoError(t, err)

	_, err = h.Handle(context.Background(), cmd)
	assert.ErrorIs(t, err, domainErrors.ErrDuplicateApplication)
}

func TestSubmitApplicationValidation(t *testing.T) {
	repo := newFakeApplicationRepository()
	h := NewSubmitApplicationHandler(repo, testBus(t), generator.NewCodeGenerator(), testLogger())

	cases := []SubmitApplicationCommand{
		{LicenseNumber: "L1", ContactName: "A", Email: "a@b.c"},
		{BusinessName: "B", ContactName: "A", Email: "a@b.c"},
		{BusinessName: "B", LicenseNumber: "L1", Email: "a@b.c"},
		{BusinessName: "B", LicenseNumber: "L1", ContactName: "A", Email: "not-an-email"},
	}

	for _, cmd := range cases {
		_, err := h.Handle(context.Background(), cmd)
		assert.ErrorIs(t, err, domainErrors.ErrInvalidApplication)
	}
}

func TestSubmitApplicationPersistenceFailure(t *testing.T) {
	repo := newFakeApplicationRepository()
	repo.createErr = errors.New("db down")
	h := NewSubmitApplicationHandler(repo, testBus(t), generator.NewCodeGenerator(), testLogger())

	_, err := h.Handle(context.Background(), SubmitApplicationCommand{
		BusinessName:  "Green Valley Dispensary",
		LicenseNumber: "C11-0001234-LIC",
		ContactName:   "Jordan Reyes",
		Email:         "jordan@greenvalley.example",
	})
	assert.ErrorIs(t, err, domainErrors.ErrPersistenceFailure)
}
