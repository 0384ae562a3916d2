package usecase

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"Certus/internal/domain/models"
	domrepo "Certus/internal/domain/repository"
	mid "Certus/internal/middleware"
	"Certus/internal/service/ratelimit"
	pkghttp "Certus/pkg/http"
	"Certus/pkg/metrics"
)

func fiveAssets() [][2]string {
	return [][2]string{{"bitcoin", "btc"}, {"ethereum", "eth"}, {"solana", "sol"}, {"ripple", "xrp"}, {"cardano", "ada"}}
}

func TestCollectAllPages(t *testing.T) {
	ctx := context.Background()
	store := newStore(t)
	src := &fakeMarkets{assets: fiveAssets(), price: func(c, i int) float64 { return float64(100 + i) }}
	proc := NewSnapshotProcessor(store, nil, metrics.Nop{}, domrepo.TransportDirect)
	pipe := mid.NewSnapshotPipeline(proc, metrics.Nop{})
	c := NewSnapshotCollector(src, pipe, ratelimit.New(), CollectorConfig{Pages: 3, PerPage: 2, Workers: 3}, metrics.Nop{}, nil).
		WithClock(clock())

	rep, err := c.Collect(ctx)
	require.NoError(t, err)
	assert.False(t, rep.Incomplete())
	assert.Equal(t, 5, rep.Fetched)
	assert.Equal(t, 5, rep.Stored)
	assert.Equal(t, base, rep.Cycle)

	all, err := store.Observations(ctx, domrepo.ObservationFilter{})
	require.NoError(t, err)
	require.Len(t, all, 5)
	for _, o := range all {
		assert.Equal(t, base, o.TS)
		assert.Equal(t, "fake", o.Source)
	}
}

func TestCollectPageFailureMarksIncomplete(t *testing.T) {
	ctx := context.Background()
	store := newStore(t)
	src := &fakeMarkets{assets: fiveAssets(), price: func(c, i int) float64 { return 1 }, failing: map[int]bool{2: true}}
	proc := NewSnapshotProcessor(store, nil, metrics.Nop{}, domrepo.TransportDirect)
	c := NewSnapshotCollector(src, proc, nil, CollectorConfig{Pages: 3, PerPage: 2, Workers: 2}, metrics.Nop{}, nil).
		WithClock(clock())

	rep, err := c.Collect(ctx)
	require.NoError(t, err)
	assert.True(t, rep.Incomplete())
	require.Len(t, rep.Failed, 1)
	assert.Equal(t, 2, rep.Failed[0].Page)
	assert.Equal(t, 3, rep.Stored)
}

type failingSink struct{}

func (failingSink) Deliver(context.Context, []models.MarketObservation) (int, error) {
	return 0, errors.New("disk full")
}

func TestCollectDeliveryFailureIsReturned(t *testing.T) {
	src := &fakeMarkets{assets: fiveAssets(), price: func(c, i int) float64 { return 1 }}
	c := NewSnapshotCollector(src, failingSink{}, nil, CollectorConfig{Pages: 1, PerPage: 10, Workers: 1}, metrics.Nop{}, nil)
	_, err := c.Collect(context.Background())
	assert.Error(t, err)
}

func TestUpstreamErrorIsTyped(t *testing.T) {
	src := &fakeMarkets{assets: fiveAssets(), price: func(c, i int) float64 { return 1 }, failing: map[int]bool{1: true}}
	c := NewSnapshotCollector(src, failingSink{}, nil, CollectorConfig{Pages: 1, PerPage: 1, Workers: 1}, metrics.Nop{}, nil)
	_, err := c.fetchPage(context.Background(), 1, base)
	var ue *pkghttp.UpstreamFetchError
	require.ErrorAs(t, err, &ue)
	assert.Equal(t, 503, ue.Status)
}
