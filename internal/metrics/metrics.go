// Package metrics provides lightweight hooks for instrumentation.
package metrics

// Sign-in outcomes.
const (
	SignInSuccess = "success"
	SignInDenied  = "denied"
	SignInFailed  = "failed"
)

// Recorder captures metric events for the application.
// Implementations can expose these to Prometheus, StatsD, etc.
type Recorder interface {
	// Journal metrics
	IncPhraseServed()
	IncPhraseMissing()
	IncResponseCreated()
	IncResponseUpdated()
	IncCalendarFetched()

	// Sign-in metrics
	IncSignIn(status string) // status: "success", "denied", "failed"

	// Failure metrics
	IncStoreError(op string)
	IncRateLimited(scope string)
}

// Snapshotter exposes a snapshot of current metrics.
type Snapshotter interface {
	Snapshot() Snapshot
}
