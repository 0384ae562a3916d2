package usecase

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"Certus/internal/domain/models"
	domrepo "Certus/internal/domain/repository"
	"Certus/pkg/metrics"
)

func TestIngestFeedsUpsertsById(t *testing.T) {
	ctx := context.Background()
	store := newStore(t)
	news := fakeNews{items: []models.NewsItem{
		{ID: "cp:1", Title: "BTC breaks out", Source: "cp", PublishedAt: base, Symbols: []string{"BTC"}},
		{ID: "cp:2", Title: "ETH gas falls", Source: "cp", PublishedAt: base.Add(time.Hour), Symbols: []string{"ETH"}},
	}}
	f := NewFeedIngest(news, fakeEvents{}, nil, store, metrics.Nop{}, nil)

	n, err := f.IngestFeeds(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	_, err = f.IngestFeeds(ctx)
	require.NoError(t, err)

	got, err := store.RecentNews(ctx, "", 10)
	require.NoError(t, err)
	assert.Len(t, got, 2)
	evs, err := store.RecentEvents(ctx, 10)
	require.NoError(t, err)
	assert.Len(t, evs, 1)
}

func TestIngestFeedsToleratesOneFailingProvider(t *testing.T) {
	store := newStore(t)
	f := NewFeedIngest(fakeNews{}, fakeEvents{err: errors.New("503")}, nil, store, metrics.Nop{}, nil)
	_, err := f.IngestFeeds(context.Background())
	assert.NoError(t, err)
}

func TestIngestQuotesAppendsEquityObservations(t *testing.T) {
	ctx := context.Background()
	store := newStore(t)
	feeds := []QuoteFeed{
		{Source: fakeQuotes{name: "finnhub", prices: map[string]float64{"AAPL": 190}}, Symbols: []string{"AAPL", "MSFT"}},
		{Source: fakeQuotes{name: "alphavantage", prices: map[string]float64{"AAPL": 189.5}}, Symbols: []string{"AAPL"}},
	}
	f := NewFeedIngest(nil, nil, feeds, store, metrics.Nop{}, nil)

	n, err := f.IngestQuotes(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	n, err = f.IngestQuotes(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, n)

	obs, err := store.Observations(ctx, domrepo.ObservationFilter{AssetIDs: []string{"equity:AAPL"}})
	require.NoError(t, err)
	require.Len(t, obs, 1)
	assert.Equal(t, 190.0, obs[0].Price)
	assert.Equal(t, "finnhub", obs[0].Source)
}

func TestIngestQuotesAllFailing(t *testing.T) {
	f := NewFeedIngest(nil, nil, []QuoteFeed{{Source: fakeQuotes{name: "finnhub"}, Symbols: []string{"AAPL"}}},
		newStore(t), metrics.Nop{}, nil)
	_, err := f.IngestQuotes(context.Background())
	assert.Error(t, err)
}

func TestQuoteObservations(t *testing.T) {
	obs := QuoteObservations([]models.Quote{
		{Symbol: "aapl", TS: base, Price: 1, Provider: "a"},
		{Symbol: "AAPL", TS: base, Price: 2, Provider: "b"},
		{Symbol: "MSFT", TS: base, Price: 0, Provider: "a"},
	})
	require.Len(t, obs, 1)
	assert.Equal(t, "equity:AAPL", obs[0].AssetID)
	assert.Equal(t, 1.0, obs[0].Price)
}
