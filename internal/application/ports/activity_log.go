package ports

import (
	"context"
	"time"
)

// ActivityEntry is one row of the portal's activity/notification feed. Detail
// holds an already-sanitized JSON payload.
type ActivityEntry struct {
	Actor     string
	Action    string
	Kind      string
	Message   string
	Detail    []byte
	CreatedAt time.Time
}

const (
	ActivityKindInfo    = "info"
	ActivityKindWarning = "warning"
	ActivityKindError   = "error"
	ActivityKindSuccess = "success"
)

type ActivityLog interface {
	Record(ctx context.Context, entry ActivityEntry) error
	Recent(ctx context.Context, limit int) ([]ActivityEntry, error)
}
