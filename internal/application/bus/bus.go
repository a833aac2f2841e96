package bus

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/fadedwholesale/wholesale-service/internal/application/ports"
	domainErrors "github.com/fadedwholesale/wholesale-service/internal/domain/errors"
	"github.com/fadedwholesale/wholesale-service/internal/domain/event"
	"github.com/fadedwholesale/wholesale-service/internal/pkg/clock"
	"github.com/fadedwholesale/wholesale-service/internal/pkg/logger"
)

type State int32

const (
	StateUninitialized State = iota
	StateActive
	StateDestroyed
)

// Observer receives bus outcomes for instrumentation. All methods are
// optional no-ops when no observer is wired.
type Observer interface {
	EventPublished(eventType string)
	PublishFailed(eventType string)
	EventApplied(eventType string)
	EventDiscarded(reason string)
}

type Options struct {
	OriginID          string
	HeartbeatInterval time.Duration
	ReconcileInterval time.Duration

	// StaleCheck is the consumer-supplied predicate behind periodic
	// reconciliation. When it reports true a single sync_request is
	// published — no retry, no backoff, no acknowledgement.
	StaleCheck func() bool

	Observer Observer
}

type Subscription struct {
	id        uint64
	eventType string
	handler   event.Handler
}

// Bus broadcasts typed events through a shared persistence channel and
// replays externally observed events to local subscribers. Delivery is best
// effort: the only guarantee is that one context never applies an event it
// has already applied from the same origin.
type Bus struct {
	channel ports.SyncChannel
	log     *logger.Logger
	clk     clock.Clock
	opts    Options

	mu          sync.Mutex
	state       State
	sequence    uint64
	nextSubID   uint64
	subs        []*Subscription
	lastApplied map[string]uint64

	// publishMu holds sequence assignment and the channel write together.
	// Without it two concurrent publishers can land on the channel out of
	// sequence order and a remote context discards the lower one as stale.
	publishMu sync.Mutex

	done chan struct{}
	wg   sync.WaitGroup
}

func NewBus(channel ports.SyncChannel, log *logger.Logger, clk clock.Clock, opts Options) *Bus {
	return &Bus{
		channel:     channel,
		log:         log.WithOrigin(opts.OriginID),
		clk:         clk,
		opts:        opts,
		state:       StateUninitialized,
		lastApplied: make(map[string]uint64),
		done:        make(chan struct{}),
	}
}

// Start wires the shared channel to local dispatch and begins the heartbeat
// and reconciliation tickers. Starting an already-active or destroyed bus is
// an error.
func (b *Bus) Start(ctx context.Context) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.state == StateDestroyed {
		return domainErrors.ErrBusClosed
	}
	if b.state == StateActive {
		return nil
	}
	b.state = StateActive

	b.wg.Add(1)
	go b.receiveLoop(ctx)

	if b.opts.HeartbeatInterval > 0 {
		b.wg.Add(1)
		go b.heartbeatLoop(ctx)
	}

	if b.opts.ReconcileInterval > 0 && b.opts.StaleCheck != nil {
		b.wg.Add(1)
		go b.reconcileLoop(ctx)
	}

	b.log.Info("Sync bus started")
	return nil
}

func (b *Bus) State() State {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.state
}

// Publish assigns the next local sequence number, writes the event to the
// shared channel and then synchronously invokes local subscribers before
// returning. Events reach the channel in sequence order even under
// concurrent publishers. A failed channel write is logged and dropped — no
// retry, no buffering — but local delivery still happens.
func (b *Bus) Publish(ctx context.Context, eventType string, payload interface{}) error {
	var raw json.RawMessage
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return err
		}
		raw = data
	}

	b.publishMu.Lock()

	b.mu.Lock()
	if b.state == StateDestroyed {
		b.mu.Unlock()
		b.publishMu.Unlock()
		return domainErrors.ErrBusClosed
	}
	b.sequence++
	seq := b.sequence
	subs := b.snapshotLocked()
	b.mu.Unlock()

	e := event.Event{
		Type:      eventType,
		Payload:   raw,
		OriginID:  b.opts.OriginID,
		Sequence:  seq,
		Timestamp: b.clk.Now(),
	}

	writeErr := b.channel.Write(ctx, e)
	b.publishMu.Unlock()

	if writeErr != nil {
		b.log.Warn("Dropping sync event, channel write failed",
			"event_type", eventType,
			"sequence", seq,
			"error", writeErr,
		)
		if b.opts.Observer != nil {
			b.opts.Observer.PublishFailed(eventType)
		}
	} else if b.opts.Observer != nil {
		b.opts.Observer.EventPublished(eventType)
	}

	b.dispatch(subs, e, event.Metadata{Local: true})

	return nil
}

func (b *Bus) Subscribe(eventType string, handler event.Handler) *Subscription {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.nextSubID++
	sub := &Subscription{
		id:        b.nextSubID,
		eventType: eventType,
		handler:   handler,
	}
	b.subs = append(b.subs, sub)

	return sub
}

func (b *Bus) Unsubscribe(sub *Subscription) {
	if sub == nil {
		return
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	for i, s := range b.subs {
		if s.id == sub.id {
			b.subs = append(b.subs[:i], b.subs[i+1:]...)
			return
		}
	}
}

// Close transitions to Destroyed, stops the tickers and detaches from the
// channel. Further publishes fail with ErrBusClosed.
func (b *Bus) Close() error {
	b.mu.Lock()
	if b.state == StateDestroyed {
		b.mu.Unlock()
		return nil
	}
	wasActive := b.state == StateActive
	b.state = StateDestroyed
	b.mu.Unlock()

	close(b.done)
	if wasActive {
		b.wg.Wait()
	}

	err := b.channel.Close()
	b.log.Info("Sync bus destroyed")
	return err
}

func (b *Bus) receiveLoop(ctx context.Context) {
	defer b.wg.Done()

	for {
		select {
		case <-ctx.Done():
			return
		case <-b.done:
			return
		case e, ok := <-b.channel.Notifications():
			if !ok {
				return
			}
			b.applyExternal(e)
		}
	}
}

// applyExternal replays an event observed on the shared channel. Events from
// this context's own origin were already delivered synchronously at publish
// time; anything not strictly newer than the last applied sequence for its
// origin is a duplicate or stale observation of the same write.
func (b *Bus) applyExternal(e event.Event) {
	b.mu.Lock()
	if b.state != StateActive {
		b.mu.Unlock()
		return
	}

	if e.OriginID == b.opts.OriginID {
		b.mu.Unlock()
		b.discard("own_origin")
		return
	}

	if e.Sequence <= b.lastApplied[e.OriginID] {
		b.mu.Unlock()
		b.discard("stale_sequence")
		return
	}

	b.lastApplied[e.OriginID] = e.Sequence
	subs := b.snapshotLocked()
	b.mu.Unlock()

	if b.opts.Observer != nil {
		b.opts.Observer.EventApplied(e.Type)
	}

	b.dispatch(subs, e, event.Metadata{Remote: true})
}

func (b *Bus) discard(reason string) {
	if b.opts.Observer != nil {
		b.opts.Observer.EventDiscarded(reason)
	}
}

func (b *Bus) heartbeatLoop(ctx context.Context) {
	defer b.wg.Done()

	ticker := time.NewTicker(b.opts.HeartbeatInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-b.done:
			return
		case <-ticker.C:
			payload := map[string]interface{}{
				"origin_id": b.opts.OriginID,
				"at":        b.clk.Now(),
			}
			if err := b.Publish(ctx, event.TypeHeartbeat, payload); err != nil {
				b.log.Warn("Heartbeat publish failed", "error", err)
			}
		}
	}
}

func (b *Bus) reconcileLoop(ctx context.Context) {
	defer b.wg.Done()

	ticker := time.NewTicker(b.opts.ReconcileInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-b.done:
			return
		case <-ticker.C:
			if !b.opts.StaleCheck() {
				continue
			}
			payload := map[string]interface{}{
				"origin_id": b.opts.OriginID,
			}
			if err := b.Publish(ctx, event.TypeSyncRequest, payload); err != nil {
				b.log.Warn("Sync request publish failed", "error", err)
			}
		}
	}
}

func (b *Bus) snapshotLocked() []*Subscription {
	subs := make([]*Subscription, len(b.subs))
	copy(subs, b.subs)
	return subs
}

// dispatch invokes matching handlers in registration order. A panicking
// handler is isolated so the remaining handlers still run.
func (b *Bus) dispatch(subs []*Subscription, e event.Event, meta event.Metadata) {
	for _, sub := range subs {
		if sub.eventType != e.Type && sub.eventType != event.Wildcard {
			continue
		}
		b.invoke(sub, e, meta)
	}
}

func (b *Bus) invoke(sub *Subscription, e event.Event, meta event.Metadata) {
	defer func() {
		if r := recover(); r != nil {
			b.log.Error("Sync event handler panicked",
				"event_type", e.Type,
				"origin_id", e.OriginID,
				"panic", r,
			)
		}
	}()

	sub.handler(e, meta)
}
