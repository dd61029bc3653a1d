// Package metrics provides Prometheus collectors for the AoE target's
// per-volume queue depth, request outcomes, and backing-store I/O
// latency.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Outcome labels for request counters.
const (
	OutcomeTransmitted = "transmitted"
	OutcomeDropped     = "dropped"
	OutcomeError       = "error"
)

// Backing-store operation labels for the I/O latency histogram.
const (
	OpRead  = "read"
	OpWrite = "write"
)

// Metrics collects every gauge, counter, and histogram this package
// exposes. A nil *Metrics is safe to call any method on: every method
// guards against a nil receiver so call sites never need to branch on
// whether metrics are enabled.
type Metrics struct {
	queueDepth *prometheus.GaugeVec
	requests   *prometheus.CounterVec
	ioLatency  *prometheus.HistogramVec
}

// New creates and registers the AoE target's metrics against registry.
// If registry is nil, the collectors are created but never registered,
// which is useful for tests.
func New(registry prometheus.Registerer) *Metrics {
	m := &Metrics{
		queueDepth: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: "aoetargetd",
				Subsystem: "volume",
				Name:      "queue_depth",
				Help:      "Current number of outstanding requests queued for a volume.",
			},
			[]string{"shelf", "slot"},
		),
		requests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "aoetargetd",
				Subsystem: "volume",
				Name:      "requests_total",
				Help:      "Total number of requests processed, by outcome.",
			},
			[]string{"shelf", "slot", "outcome"},
		),
		ioLatency: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: "aoetargetd",
				Subsystem: "volume",
				Name:      "io_duration_seconds",
				Help:      "Backing-store I/O latency, by operation.",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"shelf", "slot", "op"},
		),
	}

	if registry != nil {
		registry.MustRegister(m.queueDepth, m.requests, m.ioLatency)
	}

	return m
}

// SetQueueDepth records the current queue depth for a (shelf, slot)
// volume.
func (m *Metrics) SetQueueDepth(shelf uint16, slot uint8, depth int) {
	if m == nil {
		return
	}
	m.queueDepth.WithLabelValues(shelfLabel(shelf), slotLabel(slot)).Set(float64(depth))
}

// ObserveRequest increments the request counter for a (shelf, slot)
// volume under the given outcome.
func (m *Metrics) ObserveRequest(shelf uint16, slot uint8, outcome string) {
	if m == nil {
		return
	}
	m.requests.WithLabelValues(shelfLabel(shelf), slotLabel(slot), outcome).Inc()
}

// ObserveIO records the duration of a backing-store operation for a
// (shelf, slot) volume.
func (m *Metrics) ObserveIO(shelf uint16, slot uint8, op string, d time.Duration) {
	if m == nil {
		return
	}
	m.ioLatency.WithLabelValues(shelfLabel(shelf), slotLabel(slot), op).Observe(d.Seconds())
}

// Handler returns the HTTP handler serving these metrics in the
// Prometheus exposition format, for mounting at Config.MetricsAddr.
func Handler() http.Handler {
	return promhttp.Handler()
}

func shelfLabel(shelf uint16) string {
	return strconv.FormatUint(uint64(shelf), 10)
}

func slotLabel(slot uint8) string {
	return strconv.FormatUint(uint64(slot), 10)
}
