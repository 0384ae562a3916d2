package usecase

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"Certus/internal/domain/models"
)

func seededQueries(t *testing.T) (*QueryUseCase, context.Context) {
	t.Helper()
	ctx := context.Background()
	store := newStore(t)
	seedCycles(t, store, 30)
	_, err := store.UpsertNews(ctx, []models.NewsItem{
		{ID: "n1", Title: "BTC rally", Source: "cp", PublishedAt: base, Symbols: []string{"BTC"}},
	})
	require.NoError(t, err)
	r := NewPipelineRunner(nil, nil, newStages(store, ModeSeries), NewTrendsRefresh(store, nil), false, nil, nil)
	_, err = r.Run(ctx, AnalyticsOnly)
	require.NoError(t, err)
	return NewQueryUseCase(store), ctx
}

func TestTrendsLimitClamp(t *testing.T) {
	q, ctx := seededQueries(t)

	rows, err := q.Trends(ctx, "", 0)
	require.NoError(t, err)
	assert.Len(t, rows, 3)

	rows, err = q.Trends(ctx, "", -5)
	require.NoError(t, err)
	assert.Len(t, rows, 1)

	rows, err = q.Trends(ctx, "btc", 1000)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	for _, r := range rows {
		assert.Equal(t, "BTC", r.Symbol)
	}
	assert.GreaterOrEqual(t, rows[0].TrendScore, rows[1].TrendScore)
}

func TestLeaderboard(t *testing.T) {
	q, ctx := seededQueries(t)

	rows, err := q.Leaderboard(ctx, 0, "")
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "BTC", rows[0].Symbol)
	assert.Equal(t, models.TierBullish, rows[0].TrendTier)
	assert.Equal(t, "rsi_neutral", rows[1].SignalTags)

	rows, err = q.Leaderboard(ctx, 10, models.TierBearish)
	require.NoError(t, err)
	assert.Empty(t, rows)
}

func TestHistory(t *testing.T) {
	q, ctx := seededQueries(t)

	rows, err := q.History(ctx, "btc", 5)
	require.NoError(t, err)
	require.Len(t, rows, 5)
	assert.Equal(t, 125.0, rows[0].Price)
	assert.Equal(t, 129.0, rows[4].Price)

	_, err = q.History(ctx, "doge", 5)
	assert.ErrorIs(t, err, ErrUnknownSymbol)
}

func TestOverview(t *testing.T) {
	q, ctx := seededQueries(t)

	ov, err := q.Overview(ctx, "btc", 5)
	require.NoError(t, err)
	assert.Nil(t, ov.Errors)
	require.NotNil(t, ov.Market)
	assert.Equal(t, 129.0, ov.Market.Price)
	assert.Equal(t, base.Add(29*time.Minute), ov.Market.TS)
	require.NotNil(t, ov.Indicator)
	require.NotNil(t, ov.Signal)
	require.NotNil(t, ov.Score)
	assert.Equal(t, models.TierBullish, ov.Score.Tier)
	require.Len(t, ov.News, 1)

	_, err = q.Overview(ctx, "doge", 5)
	assert.ErrorIs(t, err, ErrUnknownSymbol)
}
