package monitoring

// SyncMetrics is the observer handed to the sync bus so the application layer
// stays free of prometheus imports.
type SyncMetrics struct{}

func NewSyncMetrics() *SyncMetrics {
	return &SyncMetrics{}
}

func (SyncMetrics) EventPublished(eventType string) {
	SyncEventsPublishedTotal.WithLabelValues(eventType).Inc()
}

func (SyncMetrics) PublishFailed(eventType string) {
	SyncPublishFailuresTotal.WithLabelValues(eventType).Inc()
}

func (SyncMetrics) EventApplied(eventType string) {
	SyncEventsAppliedTotal.WithLabelValues(eventType).Inc()
}

func (SyncMetrics) EventDiscarded(reason string) {
	SyncEventsDiscardedTotal.WithLabelValues(reason).Inc()
}

type CartMetrics struct {
	operation string
}

func NewCartMetrics(operation string) *CartMetrics {
	return &CartMetrics{
		operation: operation,
	}
}

func (m *CartMetrics) RecordSuccess(clamped bool) {
	RecordCartOperation(m.operation, "success")
	if clamped {
		RecordCartClamped()
	}
}

func (m *CartMetrics) RecordUnpersisted() {
	RecordCartPersistenceFailure()
}

func (m *CartMetrics) RecordFailure(reason string) {
	RecordCartOperation(m.operation, reason)
}

type CheckoutMetrics struct{}

func NewCheckoutMetrics() *CheckoutMetrics {
	return &CheckoutMetrics{}
}

func (m *CheckoutMetrics) RecordAttempt() {
	RecordCheckoutAttempt()
}

func (m *CheckoutMetrics) RecordSuccess(orderTotal float64) {
	RecordCheckoutSuccess(orderTotal)
}

func (m *CheckoutMetrics) RecordFailure(reason string) {
	RecordCheckoutFailure(reason)
}
