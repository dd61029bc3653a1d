package aoe

import "time"

// A MetricsSink receives queue-depth, request-outcome, and I/O-latency
// observations from the core engine. internal/metrics.Metrics
// satisfies this interface structurally; the core package never
// imports it directly, so it stays free of any Prometheus dependency.
//
// Every method must be safe for concurrent use and must not block. A
// nil MetricsSink is never called: callers check v.metrics first.
type MetricsSink interface {
	SetQueueDepth(shelf uint16, slot uint8, depth int)
	ObserveRequest(shelf uint16, slot uint8, outcome string)
	ObserveIO(shelf uint16, slot uint8, op string, d time.Duration)
}

// Outcome labels passed to MetricsSink.ObserveRequest, matching
// internal/metrics' exported constants.
const (
	OutcomeTransmitted = "transmitted"
	OutcomeDropped     = "dropped"
	OutcomeError       = "error"
)

// Backing-store operation labels passed to MetricsSink.ObserveIO.
const (
	OpRead  = "read"
	OpWrite = "write"
)

func (v *Volume) observeQueueDepth() {
	if v.metrics == nil {
		return
	}
	v.metrics.SetQueueDepth(v.Shelf, v.Slot, v.QueueDepth())
}

func (v *Volume) observeRequest(outcome string) {
	if v.metrics == nil {
		return
	}
	v.metrics.ObserveRequest(v.Shelf, v.Slot, outcome)
}

func (v *Volume) observeIO(op string, d time.Duration) {
	if v.metrics == nil {
		return
	}
	v.metrics.ObserveIO(v.Shelf, v.Slot, op, d)
}
