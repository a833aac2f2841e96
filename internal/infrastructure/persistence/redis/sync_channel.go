package redis

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/fadedwholesale/wholesale-service/internal/domain/event"
	"github.com/fadedwholesale/wholesale-service/internal/pkg/logger"
)

const notificationBuffer = 256

// SyncChannel is the shared latest-event record backing cross-context sync.
// Every publish overwrites one key and fires a pub/sub notification; a poll
// ticker re-reads the key so contexts that missed the notification still
// observe the write. Duplicate deliveries are expected and harmless — the
// consumer deduplicates by origin sequence.
type SyncChannel struct {
	client       *redis.Client
	logger       *logger.Logger
	key          string
	notifyName   string
	pollInterval time.Duration

	events chan event.Event
	pubsub *redis.PubSub

	cancel    context.CancelFunc
	wg        sync.WaitGroup
	closeOnce sync.Once
}

func NewSyncChannel(client *redis.Client, key string, pollInterval time.Duration, log *logger.Logger) *SyncChannel {
	ctx, cancel := context.WithCancel(context.Background())

	c := &SyncChannel{
		client:       client,
		logger:       log,
		key:          key,
		notifyName:   key + ":notify",
		pollInterval: pollInterval,
		events:       make(chan event.Event, notificationBuffer),
		pubsub:       client.Subscribe(ctx, key+":notify"),
		cancel:       cancel,
	}

	c.wg.Add(1)
	go c.listenLoop(ctx)

	if pollInterval > 0 {
		c.wg.Add(1)
		go c.pollLoop(ctx)
	}

	return c
}

// Write overwrites the latest-event record and notifies subscribers in one
// pipeline. The record carries no TTL: a fresh context reads the most recent
// event on arrival regardless of how long ago it was published.
func (c *SyncChannel) Write(ctx context.Context, e event.Event) error {
	data, err := json.Marshal(e)
	if err != nil {
		return err
	}

	pipe := c.client.Pipeline()
	pipe.Set(ctx, c.key, data, 0)
	pipe.Publish(ctx, c.notifyName, data)
	_, err = pipe.Exec(ctx)
	return err
}

func (c *SyncChannel) Latest(ctx context.Context) (*event.Event, error) {
	result, err := c.client.Get(ctx, c.key).Result()
	if err != nil {
		if err == redis.Nil {
			return nil, nil
		}
		return nil, err
	}

	var e event.Event
	if err := json.Unmarshal([]byte(result), &e); err != nil {
		return nil, err
	}

	return &e, nil
}

func (c *SyncChannel) Notifications() <-chan event.Event {
	return c.events
}

func (c *SyncChannel) Close() error {
	var err error
	c.closeOnce.Do(func() {
		c.cancel()
		err = c.pubsub.Close()
		c.wg.Wait()
		close(c.events)
	})
	return err
}

func (c *SyncChannel) listenLoop(ctx context.Context) {
	defer c.wg.Done()

	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-c.pubsub.Channel():
			if !ok {
				return
			}

			var e event.Event
			if err := json.Unmarshal([]byte(msg.Payload), &e); err != nil {
				c.logger.Error("Discarding malformed sync notification", "error", err)
				continue
			}

			c.deliver(e)
		}
	}
}

// pollLoop re-reads the latest-event record on an interval. Pub/sub delivery
// is fire-and-forget, so polling is what bounds how long a context can stay
// unaware of the most recent write.
func (c *SyncChannel) pollLoop(ctx context.Context) {
	defer c.wg.Done()

	ticker := time.NewTicker(c.pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			e, err := c.Latest(ctx)
			if err != nil {
				if ctx.Err() == nil {
					c.logger.Warn("Failed to poll latest sync event", "error", err)
				}
				continue
			}
			if e != nil {
				c.deliver(*e)
			}
		}
	}
}

// deliver is best effort: a full buffer means the consumer is behind, and
// dropping is preferable to blocking the listener.
func (c *SyncChannel) deliver(e event.Event) {
	select {
	case c.events <- e:
	default:
		c.logger.Warn("Dropping sync notification, buffer full",
			"event_type", e.Type,
			"origin_id", e.OriginID,
			"sequence", e.Sequence,
		)
	}
}
