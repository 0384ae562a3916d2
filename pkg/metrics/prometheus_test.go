package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestRecorder(t *testing.T) {
	r := New(prometheus.NewRegistry())

	r.RecordStored("markets", 3)
	r.RecordStored("markets", 0)
	r.RecordError("upstream")
	r.RecordLastPrice("BTC", 64000)
	r.RecordLatency("fetch", 0.2)

	assert.Equal(t, 3.0, testutil.ToFloat64(r.stored.WithLabelValues("markets")))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.errors.WithLabelValues("upstream")))
	assert.Equal(t, 64000.0, testutil.ToFloat64(r.lastPrice.WithLabelValues("BTC")))
}
