package middleware

import (
	"context"
	"errors"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"Certus/internal/domain/models"
	"Certus/pkg/metrics"
)

type fakeSink struct {
	err     error
	batches [][]models.MarketObservation
}

func (s *fakeSink) Deliver(_ context.Context, obs []models.MarketObservation) (int, error) {
	if s.err != nil {
		return 0, s.err
	}
	s.batches = append(s.batches, obs)
	return len(obs), nil
}

var t0 = time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

func ob(id, sym string, ts time.Time, price float64) models.MarketObservation {
	return models.MarketObservation{AssetID: id, Symbol: sym, TS: ts, Price: price}
}

func TestFilterValidatesAndDedupes(t *testing.T) {
	p := NewSnapshotPipeline(&fakeSink{}, metrics.Nop{})
	out := p.Filter([]models.MarketObservation{
		ob("bitcoin", " btc ", t0, 100),
		ob("bitcoin", "BTC", t0, 101), // same key
		ob("", "ETH", t0, 10),
		ob("ethereum", "ETH", t0, math.NaN()),
		ob("solana", "SOL", time.Time{}, 1),
		ob("ripple", "XRP", t0, -1),
		ob("ethereum", "eth", t0.Add(time.Minute), 10),
	})
	require.Len(t, out, 2)
	assert.Equal(t, "BTC", out[0].Symbol)
	assert.Equal(t, 100.0, out[0].Price)
	assert.Equal(t, "ETH", out[1].Symbol)
}

func TestFilterMinInterval(t *testing.T) {
	p := NewSnapshotPipeline(&fakeSink{}, metrics.Nop{}, WithMinInterval(5*time.Minute))
	require.Len(t, p.Filter([]models.MarketObservation{ob("bitcoin", "BTC", t0, 1)}), 1)
	assert.Empty(t, p.Filter([]models.MarketObservation{ob("bitcoin", "BTC", t0.Add(time.Minute), 1)}))
	assert.Len(t, p.Filter([]models.MarketObservation{ob("bitcoin", "BTC", t0.Add(6*time.Minute), 1)}), 1)
}

func TestDeliverBuffersOnFailure(t *testing.T) {
	sink := &fakeSink{err: errors.New("down")}
	p := NewSnapshotPipeline(sink, metrics.Nop{}, WithBufferSize(1))

	_, err := p.Deliver(context.Background(), []models.MarketObservation{ob("bitcoin", "BTC", t0, 1)})
	require.Error(t, err)
	assert.Equal(t, 1, p.Buffered())

	sink.err = nil
	n, err := p.Deliver(context.Background(), []models.MarketObservation{ob("bitcoin", "BTC", t0.Add(time.Minute), 1)})
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	require.Len(t, sink.batches, 1)
}

func TestStartRedeliversBuffered(t *testing.T) {
	sink := &fakeSink{err: errors.New("down")}
	p := NewSnapshotPipeline(sink, metrics.Nop{})
	_, _ = p.Deliver(context.Background(), []models.MarketObservation{ob("bitcoin", "BTC", t0, 1)})
	sink.err = nil

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	p.Start(ctx)
	defer p.Stop()

	require.Eventually(t, func() bool { return p.Buffered() == 0 }, 2*time.Second, 10*time.Millisecond)
}
