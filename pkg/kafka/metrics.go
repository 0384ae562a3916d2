package kafka

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds producer and consumer collectors. A nil *Metrics records nothing.
type Metrics struct {
	published  *prometheus.CounterVec
	bytes      *prometheus.CounterVec
	publishDur *prometheus.HistogramVec
	queueDepth *prometheus.GaugeVec
	handled    *prometheus.CounterVec
	handleDur  *prometheus.HistogramVec
}

// NewMetrics registers the kafka collectors on reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		published: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "certus", Subsystem: "kafka", Name: "published_messages_total",
			Help: "Messages published to Kafka",
		}, []string{"topic", "compression", "result"}),
		bytes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "certus", Subsystem: "kafka", Name: "published_bytes_total",
			Help: "Payload bytes published",
		}, []string{"topic"}),
		publishDur: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "certus", Subsystem: "kafka", Name: "publish_seconds",
			Help: "Publish latency", Buckets: prometheus.DefBuckets,
		}, []string{"topic"}),
		queueDepth: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: "certus", Subsystem: "kafka", Name: "consumer_queue_depth",
			Help: "Messages waiting in the consumer queue",
		}, []string{"topic"}),
		handled: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "certus", Subsystem: "kafka", Name: "consumed_messages_total",
			Help: "Messages handled by the consumer",
		}, []string{"topic", "result"}),
		handleDur: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "certus", Subsystem: "kafka", Name: "handle_seconds",
			Help: "Handling time per message", Buckets: prometheus.DefBuckets,
		}, []string{"topic"}),
	}
	reg.MustRegister(m.published, m.bytes, m.publishDur, m.queueDepth, m.handled, m.handleDur)
	return m
}

func result(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}

func (m *Metrics) observePublish(topic, comp string, bytes int64, n int, d time.Duration, err error) {
	if m == nil {
		return
	}
	m.published.WithLabelValues(topic, comp, result(err)).Add(float64(n))
	m.bytes.WithLabelValues(topic).Add(float64(bytes))
	m.publishDur.WithLabelValues(topic).Observe(d.Seconds())
}

func (m *Metrics) observeQueue(topic string, depth int) {
	if m == nil {
		return
	}
	m.queueDepth.WithLabelValues(topic).Set(float64(depth))
}

func (m *Metrics) observeHandle(topic string, d time.Duration, err error) {
	if m == nil {
		return
	}
	m.handled.WithLabelValues(topic, result(err)).Inc()
	m.handleDur.WithLabelValues(topic).Observe(d.Seconds())
}
