package metrics

import (
	"sort"
	"sync"
	"sync/atomic"
)

// Snapshot captures current in-memory counters.
type Snapshot struct {
	PhrasesServed    uint64
	PhrasesMissing   uint64
	ResponsesCreated uint64
	ResponsesUpdated uint64
	CalendarFetches  uint64

	SignIns     map[string]uint64
	StoreErrors map[string]uint64
	RateLimited map[string]uint64
}

// SortedKeys returns the keys of a labelled counter in stable order.
func SortedKeys(m map[string]uint64) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// InMemoryRecorder stores metrics in memory.
type InMemoryRecorder struct {
	phrasesServed    uint64
	phrasesMissing   uint64
	responsesCreated uint64
	responsesUpdated uint64
	calendarFetches  uint64

	mu          sync.Mutex
	signIns     map[string]uint64
	storeErrors map[string]uint64
	rateLimited map[string]uint64
}

// NewInMemory returns a Recorder that stores counters in memory.
func NewInMemory() *InMemoryRecorder {
	return &InMemoryRecorder{
		signIns:     make(map[string]uint64),
		storeErrors: make(map[string]uint64),
		rateLimited: make(map[string]uint64),
	}
}

// Snapshot returns a copy of the counters.
func (m *InMemoryRecorder) Snapshot() Snapshot {
	m.mu.Lock()
	defer m.mu.Unlock()

	return Snapshot{
		PhrasesServed:    atomic.LoadUint64(&m.phrasesServed),
		PhrasesMissing:   atomic.LoadUint64(&m.phrasesMissing),
		ResponsesCreated: atomic.LoadUint64(&m.responsesCreated),
		ResponsesUpdated: atomic.LoadUint64(&m.responsesUpdated),
		CalendarFetches:  atomic.LoadUint64(&m.calendarFetches),
		SignIns:          copyCounts(m.signIns),
		StoreErrors:      copyCounts(m.storeErrors),
		RateLimited:      copyCounts(m.rateLimited),
	}
}

// IncPhraseServed increments the phrase served counter.
func (m *InMemoryRecorder) IncPhraseServed() {
	atomic.AddUint64(&m.phrasesServed, 1)
}

// IncPhraseMissing increments the counter for days without a phrase.
func (m *InMemoryRecorder) IncPhraseMissing() {
	atomic.AddUint64(&m.phrasesMissing, 1)
}

// IncResponseCreated increments response created counter.
func (m *InMemoryRecorder) IncResponseCreated() {
	atomic.AddUint64(&m.responsesCreated, 1)
}

// IncResponseUpdated increments response updated counter.
func (m *InMemoryRecorder) IncResponseUpdated() {
	atomic.AddUint64(&m.responsesUpdated, 1)
}

// IncCalendarFetched increments calendar fetch counter.
func (m *InMemoryRecorder) IncCalendarFetched() {
	atomic.AddUint64(&m.calendarFetches, 1)
}

// IncSignIn increments the sign-in counter for an outcome.
func (m *InMemoryRecorder) IncSignIn(status string) {
	m.inc(m.signIns, status)
}

// IncStoreError increments the store error counter for an operation.
func (m *InMemoryRecorder) IncStoreError(op string) {
	m.inc(m.storeErrors, op)
}

// IncRateLimited increments the rejected request counter for a limiter scope.
func (m *InMemoryRecorder) IncRateLimited(scope string) {
	m.inc(m.rateLimited, scope)
}

func (m *InMemoryRecorder) inc(counts map[string]uint64, label string) {
	m.mu.Lock()
	counts[label]++
	m.mu.Unlock()
}

func copyCounts(src map[string]uint64) map[string]uint64 {
	dst := make(map[string]uint64, len(src))
	for k, v := range src {
		dst[k] = v
	}
	return dst
}
