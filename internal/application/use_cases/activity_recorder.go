package use_cases

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/fadedwholesale/wholesale-service/internal/application/bus"
	"github.com/fadedwholesale/wholesale-service/internal/application/ports"
	"github.com/fadedwholesale/wholesale-service/internal/domain/event"
	"github.com/fadedwholesale/wholesale-service/internal/pkg/logger"
	"github.com/fadedwholesale/wholesale-service/internal/pkg/serializer"
)

const recordTimeout = 5 * time.Second

// ActivityRecorder turns sync events into rows of the portal's activity feed.
// Payloads pass through the bounded serializer so an oversized or malformed
// payload never poisons the feed.
type ActivityRecorder struct {
	activity ports.ActivityLog
	ser      *serializer.Serializer
	log      *logger.Logger
}

func NewActivityRecorder(activity ports.ActivityLog, ser *serializer.Serializer, log *logger.Logger) *ActivityRecorder {
	return &ActivityRecorder{
		activity: activity,
		ser:      ser,
		log:      log,
	}
}

// Register subscribes the recorder to every event type. Heartbeats and sync
// requests are control traffic and stay out of the feed.
func (r *ActivityRecorder) Register(b *bus.Bus) *bus.Subscription {
	return b.Subscribe(event.Wildcard, r.handle)
}

func (r *ActivityRecorder) handle(e event.Event, meta event.Metadata) {
	if e.Type == event.TypeHeartbeat || e.Type == event.TypeSyncRequest {
		return
	}

	// Only the origin writes the feed row. Remote replays of the same event
	// would otherwise insert one duplicate per running instance.
	if !meta.Local {
		return
	}

	entry := ports.ActivityEntry{
		Actor:     e.OriginID,
		Action:    e.Type,
		Kind:      kindFor(e.Type),
		Message:   messageFor(e),
		Detail:    r.sanitizedDetail(e.Payload),
		CreatedAt: e.Timestamp,
	}

	ctx, cancel := context.WithTimeout(context.Background(), recordTimeout)
	defer cancel()

	if err := r.activity.Record(ctx, entry); err != nil {
		r.log.Warn("Failed to record activity entry", "event_type", e.Type, "error", err)
	}
}

func (r *ActivityRecorder) sanitizedDetail(payload json.RawMessage) []byte {
	if len(payload) == 0 {
		return nil
	}

	var decoded interface{}
	if err := json.Unmarshal(payload, &decoded); err != nil {
		r.log.Warn("Discarding malformed activity payload", "error", err)
		return nil
	}

	detail, err := r.ser.Marshal(decoded)
	if err != nil {
		r.log.Warn("Failed to serialize activity payload", "error", err)
		return nil
	}

	return detail
}

func kindFor(eventType string) string {
	switch eventType {
	case event.TypeCheckoutCompleted, event.TypeApplicationSubmitted:
		return ports.ActivityKindSuccess
	case event.TypeStockChanged:
		return ports.ActivityKindWarning
	default:
		return ports.ActivityKindInfo
	}
}

func messageFor(e event.Event) string {
	switch e.Type {
	case event.TypeCartUpdated:
		return "Cart updated"
	case event.TypeCartCleared:
		return "Cart cleared"
	case event.TypeCheckoutCompleted:
		return "Order placed"
	case event.TypeStockChanged:
		return "Product stock changed"
	case event.TypeApplicationSubmitted:
		return "Business application submitted"
	default:
		return fmt.Sprintf("Event %s", e.Type)
	}
}
