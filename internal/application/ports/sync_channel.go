package ports

import (
	"context"

	"github.com/fadedwholesale/wholesale-service/internal/domain/event"
)

// SyncChannel is the shared persistence record carrying the most recent
// published event. Write overwrites the record (it is not an append log) and
// best-effort notifies other contexts. Notifications delivers decoded events
// observed from the channel, duplicates included — deduplication is the
// bus's job, not the channel's.
type SyncChannel interface {
	Write(ctx context.Context, e event.Event) error
	Latest(ctx context.Context) (*event.Event, error)
	Notifications() <-chan event.Event
	Close() error
}
