package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Recorder implements domain repository.Metrics using Prometheus.
type Recorder struct {
	stored    *prometheus.CounterVec
	errors    *prometheus.CounterVec
	lastPrice *prometheus.GaugeVec
	latency   *prometheus.HistogramVec
}

// New creates a recorder and registers its collectors on reg
// (prometheus.DefaultRegisterer in the binaries).
func New(reg prometheus.Registerer) *Recorder {
	r := &Recorder{
		stored: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "certus",
				Name:      "rows_stored_total",
				Help:      "Rows written per table",
			},
			[]string{"table"},
		),
		errors: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "certus",
				Name:      "errors_total",
				Help:      "Errors by kind (upstream, storage, input_shape...)",
			},
			[]string{"kind"},
		),
		lastPrice: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: "certus",
				Name:      "last_price",
				Help:      "Latest observed price per symbol",
			},
			[]string{"symbol"},
		),
		latency: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: "certus",
				Name:      "operation_duration_seconds",
				Help:      "Duration of operations in seconds",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"operation"},
		),
	}
	reg.MustRegister(r.stored, r.errors, r.lastPrice, r.latency)
	return r
}

// RecordStored adds n rows written to table.
func (r *Recorder) RecordStored(table string, n int) {
	if n > 0 {
		r.stored.WithLabelValues(table).Add(float64(n))
	}
}

// RecordError records an error occurrence.
func (r *Recorder) RecordError(kind string) {
	r.errors.WithLabelValues(kind).Inc()
}

// RecordLastPrice records the last price for a symbol.
func (r *Recorder) RecordLastPrice(symbol string, price float64) {
	r.lastPrice.WithLabelValues(symbol).Set(price)
}

// RecordLatency records operation latency in seconds.
func (r *Recorder) RecordLatency(op string, seconds float64) {
	r.latency.WithLabelValues(op).Observe(seconds)
}

// Nop discards everything.
type Nop struct{}

func (Nop) RecordStored(string, int)        {}
func (Nop) RecordError(string)              {}
func (Nop) RecordLastPrice(string, float64) {}
func (Nop) RecordLatency(string, float64)   {}
