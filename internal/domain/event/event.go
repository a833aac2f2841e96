package event

import (
	"encoding/json"
	"time"
)

// Wildcard subscribes a handler to every event type.
const Wildcard = "*"

const (
	TypeCartUpdated          = "cart_updated"
	TypeCartCleared          = "cart_cleared"
	TypeCheckoutCompleted    = "checkout_completed"
	TypeStockChanged         = "stock_changed"
	TypeApplicationSubmitted = "application_submitted"
	TypeHeartbeat            = "heartbeat"
	TypeSyncRequest          = "sync_request"
)

// Event is published once to the shared channel and observed zero or more
// times by other contexts. It is never mutated after publish. Sequence is
// only locally monotonic per origin; consumers use it as a "have I already
// applied something at least this new from this origin" filter, nothing more.
type Event struct {
	Type      string          `json:"type"`
	Payload   json.RawMessage `json:"payload,omitempty"`
	OriginID  string          `json:"origin_id"`
	Sequence  uint64          `json:"sequence"`
	Timestamp time.Time       `json:"timestamp"`
}

// Metadata tells a subscriber whether the event came from its own context
// (synchronous publish-to-self) or was replayed from another context.
type Metadata struct {
	Local  bool
	Remote bool
}

type Handler func(e Event, meta Metadata)
