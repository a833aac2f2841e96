package bus

import (
	"context"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domainErrors "github.com/fadedwholesale/wholesale-service/internal/domain/errors"
	"github.com/fadedwholesale/wholesale-service/internal/domain/event"
	"github.com/fadedwholesale/wholesale-service/internal/pkg/clock"
	"github.com/fadedwholesale/wholesale-service/internal/pkg/logger"
)

type fakeChannel struct {
	mu       sync.Mutex
	written  []event.Event
	writeErr error
	notify   chan event.Event
	closed   bool
}

func newFakeChannel() *fakeChannel {
	return &fakeChannel{
		notify: make(chan event.Event, 64),
	}
}

func (f *fakeChannel) Write(ctx context.Context, e event.Event) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.writeErr != nil {
		return f.writeErr
	}
	f.written = append(f.written, e)
	return nil
}

func (f *fakeChannel) Latest(ctx context.Context) (*event.Event, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.written) == 0 {
		return nil, nil
	}
	e := f.written[len(f.written)-1]
	return &e, nil
}

func (f *fakeChannel) Notifications() <-chan event.Event {
	return f.notify
}

func (f *fakeChannel) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closed = true
	return nil
}

func (f *fakeChannel) writtenEvents() []event.Event {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]event.Event, len(f.written))
	copy(out, f.written)
	return out
}

// gatedChannel parks the first Write until the gate opens so a second
// publisher gets every chance to overtake it.
type gatedChannel struct {
	*fakeChannel
	gate    chan struct{}
	entered chan struct{}
	once    sync.Once
}

func newGatedChannel() *gatedChannel {
	return &gatedChannel{
		fakeChannel: newFakeChannel(),
		gate:        make(chan struct{}),
		entered:     make(chan struct{}),
	}
}

func (g *gatedChannel) Write(ctx context.Context, e event.Event) error {
	first := false
	g.once.Do(func() { first = true })
	if first {
		close(g.entered)
		<-g.gate
	}
	return g.fakeChannel.Write(ctx, e)
}

type observerCounts struct {
	mu        sync.Mutex
	published map[string]int
	failed    map[string]int
	applied   map[string]int
	discarded map[string]int
}

func newObserverCounts() *observerCounts {
	return &observerCounts{
		published: make(map[string]int),
		failed:    make(map[string]int),
		applied:   make(map[string]int),
		discarded: make(map[string]int),
	}
}

func (o *observerCounts) EventPublished(eventType string) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.published[eventType]++
}

func (o *observerCounts) PublishFailed(eventType string) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.failed[eventType]++
}

func (o *observerCounts) EventApplied(eventType string) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.applied[eventType]++
}

func (o *observerCounts) EventDiscarded(reason string) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.discarded[reason]++
}

func (o *observerCounts) discardedCount(reason string) int {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.discarded[reason]
}

func testLogger() *logger.Logger {
	return logger.NewLoggerWithOutput(io.Discard)
}

func newTestBus(t *testing.T, channel *fakeChannel, opts Options) *Bus {
	t.Helper()
	if opts.OriginID == "" {
		opts.OriginID = "origin-local"
	}
	clk := clock.NewMockClock(time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC))
	b := NewBus(channel, testLogger(), clk, opts)
	require.NoError(t, b.Start(context.Background()))
	t.Cleanup(func() { b.Close() })
	return b
}

func TestPublishDeliversLocallyBeforeReturn(t *testing.T) {
	channel := newFakeChannel()
	b := newTestBus(t, channel, Options{})

	var received []event.Event
	b.Subscribe(event.TypeCartUpdated, func(e event.Event, meta event.Metadata) {
		assert.True(t, meta.Local)
		assert.False(t, meta.Remote)
		received = append(received, e)
	})

	for i := 0; i < 3; i++ {
		require.NoError(t, b.Publish(context.Background(), event.TypeCartUpdated, map[string]string{"user_id": "u1"}))
	}

	// Local dispatch is synchronous, so all three invocations happened
	// before the last Publish returned.
	require.Len(t, received, 3)
	for i, e := range received {
		assert.Equal(t, uint64(i+1), e.Sequence)
		assert.Equal(t, "origin-local", e.OriginID)
	}
}

func TestPublishWritesToChannel(t *testing.T) {
	channel := newFakeChannel()
	b := newTestBus(t, channel, Options{})

	require.NoError(t, b.Publish(context.Background(), event.TypeStockChanged, map[string]string{"product_id": "p1"}))

	written := channel.writtenEvents()
	require.Len(t, written, 1)
	assert.Equal(t, event.TypeStockChanged, written[0].Type)
	assert.JSONEq(t, `{"product_id":"p1"}`, string(written[0].Payload))
}

func TestPublishChannelFailureStillDeliversLocally(t *testing.T) {
	channel := newFakeChannel()
	channel.writeErr = context.DeadlineExceeded
	obs := newObserverCounts()
	b := newTestBus(t, channel, Options{Observer: obs})

	delivered := 0
	b.Subscribe(event.TypeCartUpdated, func(e event.Event, meta event.Metadata) {
		delivered++
	})

	require.NoError(t, b.Publish(context.Background(), event.TypeCartUpdated, nil))

	assert.Equal(t, 1, delivered)
	obs.mu.Lock()
	assert.Equal(t, 1, obs.failed[event.TypeCartUpdated])
	assert.Equal(t, 0, obs.published[event.TypeCartUpdated])
	obs.mu.Unlock()
}

func TestConcurrentPublishesReachChannelInSequenceOrder(t *testing.T) {
	channel := newGatedChannel()
	clk := clock.NewMockClock(time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC))
	b := NewBus(channel, testLogger(), clk, Options{OriginID: "origin-local"})
	require.NoError(t, b.Start(context.Background()))
	t.Cleanup(func() { b.Close() })

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		assert.NoError(t, b.Publish(context.Background(), event.TypeCartUpdated, map[string]int{"n": 1}))
	}()

	// First publisher is parked inside the channel write; start a rival.
	<-channel.entered
	go func() {
		defer wg.Done()
		assert.NoError(t, b.Publish(context.Background(), event.TypeCartUpdated, map[string]int{"n": 2}))
	}()

	time.Sleep(20 * time.Millisecond)
	close(channel.gate)
	wg.Wait()

	written := channel.writtenEvents()
	require.Len(t, written, 2)
	assert.Equal(t, uint64(1), written[0].Sequence)
	assert.Equal(t, uint64(2), written[1].Sequence)
}

func TestConcurrentPublishSequencesNeverRegressOnChannel(t *testing.T) {
	channel := newFakeChannel()
	b := newTestBus(t, channel, Options{})

	const publishers = 25
	var wg sync.WaitGroup
	wg.Add(publishers)
	for i := 0; i < publishers; i++ {
		go func() {
			defer wg.Done()
			assert.NoError(t, b.Publish(context.Background(), event.TypeCartUpdated, nil))
		}()
	}
	wg.Wait()

	written := channel.writtenEvents()
	require.Len(t, written, publishers)
	for i := 1; i < len(written); i++ {
		assert.Greater(t, written[i].Sequence, written[i-1].Sequence)
	}
}

func TestExternalEventsDeduplicatedByOriginSequence(t *testing.T) {
	channel := newFakeChannel()
	obs := newObserverCounts()
	b := newTestBus(t, channel, Options{Observer: obs})

	var mu sync.Mutex
	var applied []uint64
	b.Subscribe(event.TypeCartUpdated, func(e event.Event, meta event.Metadata) {
		mu.Lock()
		applied = append(applied, e.Sequence)
		mu.Unlock()
	})

	remote := func(seq uint64) event.Event {
		return event.Event{
			Type:     event.TypeCartUpdated,
			OriginID: "origin-remote",
			Sequence: seq,
		}
	}

	channel.notify <- remote(1)
	channel.notify <- remote(1) // duplicate observation
	channel.notify <- remote(2)
	channel.notify <- remote(1) // stale replay

	require.Eventually(t, func() bool {
		return obs.discardedCount("stale_sequence") == 2
	}, time.Second, 5*time.Millisecond)

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []uint64{1, 2}, applied)
}

func TestExternalOwnOriginSkipped(t *testing.T) {
	channel := newFakeChannel()
	obs := newObserverCounts()
	b := newTestBus(t, channel, Options{OriginID: "origin-a", Observer: obs})

	invoked := false
	b.Subscribe(event.Wildcard, func(e event.Event, meta event.Metadata) {
		if meta.Remote {
			invoked = true
		}
	})

	channel.notify <- event.Event{Type: event.TypeCartUpdated, OriginID: "origin-a", Sequence: 99}

	require.Eventually(t, func() bool {
		return obs.discardedCount("own_origin") == 1
	}, time.Second, 5*time.Millisecond)
	assert.False(t, invoked)
}

func TestWildcardSubscription(t *testing.T) {
	channel := newFakeChannel()
	b := newTestBus(t, channel, Options{})

	var types []string
	b.Subscribe(event.Wildcard, func(e event.Event, meta event.Metadata) {
		types = append(types, e.Type)
	})

	require.NoError(t, b.Publish(context.Background(), event.TypeCartUpdated, nil))
	require.NoError(t, b.Publish(context.Background(), event.TypeStockChanged, nil))

	assert.Equal(t, []string{event.TypeCartUpdated, event.TypeStockChanged}, types)
}

func TestHandlerPanicIsolated(t *testing.T) {
	channel := newFakeChannel()
	b := newTestBus(t, channel, Options{})

	b.Subscribe(event.TypeCartUpdated, func(e event.Event, meta event.Metadata) {
		panic("handler exploded")
	})

	survived := false
	b.Subscribe(event.TypeCartUpdated, func(e event.Event, meta event.Metadata) {
		survived = true
	})

	require.NoError(t, b.Publish(context.Background(), event.TypeCartUpdated, nil))
	assert.True(t, survived, "handlers after a panicking one must still run")
}

func TestUnsubscribe(t *testing.T) {
	channel := newFakeChannel()
	b := newTestBus(t, channel, Options{})

	invoked := 0
	sub := b.Subscribe(event.TypeCartUpdated, func(e event.Event, meta event.Metadata) {
		invoked++
	})

	require.NoError(t, b.Publish(context.Background(), event.TypeCartUpdated, nil))
	b.Unsubscribe(sub)
	require.NoError(t, b.Publish(context.Background(), event.TypeCartUpdated, nil))

	assert.Equal(t, 1, invoked)
}

func TestPublishAfterClose(t *testing.T) {
	channel := newFakeChannel()
	clk := clock.NewMockClock(time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC))
	b := NewBus(channel, testLogger(), clk, Options{OriginID: "origin-local"})
	require.NoError(t, b.Start(context.Background()))

	require.NoError(t, b.Close())

	err := b.Publish(context.Background(), event.TypeCartUpdated, nil)
	assert.ErrorIs(t, err, domainErrors.ErrBusClosed)
	assert.Equal(t, StateDestroyed, b.State())
	assert.True(t, channel.closed)
}

func TestCloseIdempotent(t *testing.T) {
	channel := newFakeChannel()
	clk := clock.NewMockClock(time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC))
	b := NewBus(channel, testLogger(), clk, Options{OriginID: "origin-local"})
	require.NoError(t, b.Start(context.Background()))

	require.NoError(t, b.Close())
	require.NoError(t, b.Close())
}

func TestStartAfterCloseFails(t *testing.T) {
	channel := newFakeChannel()
	clk := clock.NewMockClock(time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC))
	b := NewBus(channel, testLogger(), clk, Options{OriginID: "origin-local"})
	require.NoError(t, b.Start(context.Background()))
	require.NoError(t, b.Close())

	assert.ErrorIs(t, b.Start(context.Background()), domainErrors.ErrBusClosed)
}

func TestHeartbeatPublishes(t *testing.T) {
	channel := newFakeChannel()
	b := newTestBus(t, channel, Options{HeartbeatInterval: 10 * time.Millisecond})
	_ = b

	require.Eventually(t, func() bool {
		for _, e := range channel.writtenEvents() {
			if e.Type == event.TypeHeartbeat {
				return true
			}
		}
		return false
	}, time.Second, 5*time.Millisecond)
}

func TestReconcilePublishesSyncRequestWhenStale(t *testing.T) {
	channel := newFakeChannel()
	b := newTestBus(t, channel, Options{
		ReconcileInterval: 10 * time.Millisecond,
		StaleCheck:        func() bool { return true },
	})
	_ = b

	require.Eventually(t, func() bool {
		for _, e := range channel.writtenEvents() {
			if e.Type == event.TypeSyncRequest {
				return true
			}
		}
		return false
	}, time.Second, 5*time.Millisecond)
}

func TestReconcileSkipsWhenFresh(t *testing.T) {
	channel := newFakeChannel()
	b := newTestBus(t, channel, Options{
		ReconcileInterval: 5 * time.Millisecond,
		StaleCheck:        func() bool { return false },
	})
	_ = b

	time.Sleep(50 * time.Millisecond)
	for _, e := range channel.writtenEvents() {
		assert.NotEqual(t, event.TypeSyncRequest, e.Type)
	}
}
