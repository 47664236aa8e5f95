package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "wager_escrow"

// Recorder implements ports.MetricsRecorder and carries the HTTP collectors.
type Recorder struct {
	operations *prometheus.CounterVec
	latency    *prometheus.HistogramVec
	volume     *prometheus.CounterVec
	requests   *prometheus.CounterVec
	durations  *prometheus.HistogramVec
}

// NewRecorder creates the collectors and registers them on reg.
func NewRecorder(reg prometheus.Registerer) *Recorder {
	r := &Recorder{
		operations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "escrow",
			Name:      "operations_total",
			Help:      "Escrow operations segmented by operation and outcome (ok or error code).",
		}, []string{"op", "outcome"}),
		latency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "escrow",
			Name:      "operation_duration_seconds",
			Help:      "Latency of escrow operations including lock waits.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"op"}),
		volume: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "escrow",
			Name:      "volume_units_total",
			Help:      "Units moved by committed operations, by kind (deposited, settled, refunded).",
		}, []string{"kind"}),
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "HTTP requests by route, method and status.",
		}, []string{"route", "method", "status"}),
		durations: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "Duration of HTTP requests in seconds.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"route", "method"}),
	}
	reg.MustRegister(r.operations, r.latency, r.volume, r.requests, r.durations)
	return r
}

// ObserveOperation records one escrow operation.
func (r *Recorder) ObserveOperation(op string, outcome string, elapsed time.Duration) {
	r.operations.WithLabelValues(op, outcome).Inc()
	r.latency.WithLabelValues(op).Observe(elapsed.Seconds())
}

// AddVolume adds amount units under kind. Float precision loss above 2^53 is accepted.
func (r *Recorder) AddVolume(kind string, amount uint64) {
	r.volume.WithLabelValues(kind).Add(float64(amount))
}

// ObserveHTTP records one HTTP request.
func (r *Recorder) ObserveHTTP(route, method string, status int, elapsed time.Duration) {
	if route == "" {
		route = "unmatched"
	}
	r.requests.WithLabelValues(route, method, strconv.Itoa(status)).Inc()
	r.durations.WithLabelValues(route, method).Observe(elapsed.Seconds())
}

// Nop discards every observation.
type Nop struct{}

func (Nop) ObserveOperation(string, string, time.Duration) {}
func (Nop) AddVolume(string, uint64)                       {}
func (Nop) ObserveHTTP(string, string, int, time.Duration) {}
