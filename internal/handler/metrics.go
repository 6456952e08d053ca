package handler

import (
	"fmt"
	"net/http"

	"github.com/littlequestion/littlequestion/internal/metrics"
)

// MetricsHandler exposes in-memory metrics.
type MetricsHandler struct {
	snapshotter metrics.Snapshotter
}

// NewMetricsHandler creates a new MetricsHandler.
func NewMetricsHandler(snapshotter metrics.Snapshotter) *MetricsHandler {
	return &MetricsHandler{snapshotter: snapshotter}
}

// Metrics returns metrics in Prometheus exposition format.
func (h *MetricsHandler) Metrics(w http.ResponseWriter, r *http.Request) {
	if h.snapshotter == nil {
		w.WriteHeader(http.StatusServiceUnavailable)
		return
	}

	snap := h.snapshotter.Snapshot()

	w.Header().Set("Content-Type", "text/plain; version=0.0.4")

	writeMetric(w, "# TYPE lq_phrases_served_total counter\n")
	writeMetric(w, "lq_phrases_served_total %d\n", snap.PhrasesServed)
	writeMetric(w, "# TYPE lq_phrases_missing_total counter\n")
	writeMetric(w, "lq_phrases_missing_total %d\n", snap.PhrasesMissing)

	writeMetric(w, "# TYPE lq_responses_saved_total counter\n")
	writeMetric(w, "lq_responses_saved_total{result=\"created\"} %d\n", snap.ResponsesCreated)
	writeMetric(w, "lq_responses_saved_total{result=\"updated\"} %d\n", snap.ResponsesUpdated)

	writeMetric(w, "# TYPE lq_calendar_fetches_total counter\n")
	writeMetric(w, "lq_calendar_fetches_total %d\n", snap.CalendarFetches)

	writeLabelled(w, "lq_signins_total", "status", snap.SignIns)
	writeLabelled(w, "lq_store_errors_total", "op", snap.StoreErrors)
	writeLabelled(w, "lq_rate_limited_total", "scope", snap.RateLimited)
}

func writeLabelled(w http.ResponseWriter, name, label string, values map[string]uint64) {
	writeMetric(w, "# TYPE %s counter\n", name)
	for _, k := range metrics.SortedKeys(values) {
		writeMetric(w, "%s{%s=%q} %d\n", name, label, k, values[k])
	}
}

func writeMetric(w http.ResponseWriter, format string, args ...any) {
	_, _ = fmt.Fprintf(w, format, args...)
}
