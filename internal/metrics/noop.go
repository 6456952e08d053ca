package metrics

// NoopRecorder implements Recorder with no-op methods.
type NoopRecorder struct{}

// NewNoop returns a Recorder that discards all metrics.
func NewNoop() Recorder {
	return &NoopRecorder{}
}

// IncPhraseServed is a no-op.
func (n *NoopRecorder) IncPhraseServed() {}

// IncPhraseMissing is a no-op.
func (n *NoopRecorder) IncPhraseMissing() {}

// IncResponseCreated is a no-op.
func (n *NoopRecorder) IncResponseCreated() {}

// IncResponseUpdated is a no-op.
func (n *NoopRecorder) IncResponseUpdated() {}

// IncCalendarFetched is a no-op.
func (n *NoopRecorder) IncCalendarFetched() {}

// IncSignIn is a no-op.
func (n *NoopRecorder) IncSignIn(status string) {}

// IncStoreError is a no-op.
func (n *NoopRecorder) IncStoreError(op string) {}

// IncRateLimited is a no-op.
func (n *NoopRecorder) IncRateLimited(scope string) {}
