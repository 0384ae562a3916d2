package kafka

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBackoffWithJitter(t *testing.T) {
	min, max := 100*time.Millisecond, time.Second
	for attempt := 1; attempt <= 40; attempt++ {
		d := backoffWithJitter(min, max, attempt)
		assert.LessOrEqual(t, d, max, "attempt %d", attempt)
		assert.Greater(t, d, time.Duration(0), "attempt %d", attempt)
	}
	d := backoffWithJitter(min, max, 1)
	assert.GreaterOrEqual(t, d, min/2)
}

func TestEncode(t *testing.T) {
	km, err := encode("certus.markets", Message{
		Key:     []byte("bitcoin"),
		Value:   map[string]any{"price": 1.5},
		Headers: map[string]string{HeaderRunID: "r1"},
	})
	require.NoError(t, err)
	assert.Equal(t, "certus.markets", km.Topic)
	assert.JSONEq(t, `{"price":1.5}`, string(km.Value))
	assert.Equal(t, "r1", Header(km, HeaderRunID))
	assert.Equal(t, "", Header(km, "missing"))

	raw, err := encode("t", Message{Value: []byte("x")})
	require.NoError(t, err)
	assert.Equal(t, "x", string(raw.Value))

	_, err = encode("t", Message{Value: func() {}})
	assert.Error(t, err)
}

func TestRunIDHook(t *testing.T) {
	h := RunIDHook{}
	km := kafka.Message{Headers: []kafka.Header{{Key: HeaderRunID, Value: []byte("abc")}}}
	ctx, err := h.BeforeHandle(context.Background(), km)
	require.NoError(t, err)
	assert.Equal(t, "abc", RunID(ctx))
	h.AfterHandle(ctx, km, nil)
	h.OnError(ctx, km, errors.New("x"))
}

func TestNewProducerRequiresBrokers(t *testing.T) {
	_, err := NewProducer(nil)
	assert.Error(t, err)

	p, err := NewProducer(NewMetrics(prometheus.NewRegistry()), WithBrokers([]string{"localhost:9092"}), WithCompression("zstd"))
	require.NoError(t, err)
	assert.Equal(t, kafka.Zstd, p.writer.Compression)
	require.NoError(t, p.Close())
}

func TestConsumerRequiresHandlers(t *testing.T) {
	c, err := NewConsumer(nil, nil, WithConsumerBrokers([]string{"localhost:9092"}))
	require.NoError(t, err)
	assert.Error(t, c.Start(context.Background()))
}
