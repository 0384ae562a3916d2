package repository

import (
	"context"
	"fmt"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	"Certus/internal/domain/models"
	domrepo "Certus/internal/domain/repository"
	pkgch "Certus/pkg/clickhouse"
)

// setupClickHouse starts a ClickHouse container and returns an initialized store.
func setupClickHouse(t *testing.T) *ClickHouseStore {
	t.Helper()

	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	ctx := context.Background()
	req := testcontainers.ContainerRequest{
		Image:        "clickhouse/clickhouse-server:24.1-alpine",
		ExposedPorts: []string{"9000/tcp"},
		WaitingFor: wait.ForAll(
			wait.ForLog("Application: Ready for connections").WithStartupTimeout(60*time.Second),
			wait.ForListeningPort("9000/tcp"),
		),
		Env: map[string]string{
			"CLICKHOUSE_DB":       "certus",
			"CLICKHOUSE_USER":     "default",
			"CLICKHOUSE_PASSWORD": "",
		},
	}
	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = container.Terminate(ctx) })

	host, err := container.Host(ctx)
	require.NoError(t, err)
	port, err := container.MappedPort(ctx, "9000")
	require.NoError(t, err)

	dsn := fmt.Sprintf("clickhouse://%s:%s/certus?mutations_sync=2", host, port.Port())
	ch, err := pkgch.NewClient(ctx, pkgch.WithDSN(dsn))
	require.NoError(t, err)
	t.Cleanup(func() { _ = ch.Close() })

	s := NewClickHouseStore(ch, nil)
	require.NoError(t, s.Init(ctx))
	return s
}

func TestClickHouseStore(t *testing.T) {
	s := setupClickHouse(t)
	ctx := context.Background()

	t.Run("append is idempotent", func(t *testing.T) {
		batch := []models.MarketObservation{obs("bitcoin", "btc", 0, 100), obs("bitcoin", "btc", 1, 101), obs("ethereum", "eth", 0, 10)}
		n, err := s.AppendObservations(ctx, batch)
		require.NoError(t, err)
		assert.Equal(t, 3, n)

		n, err = s.AppendObservations(ctx, batch)
		require.NoError(t, err)
		assert.Equal(t, 0, n)

		all, err := s.Observations(ctx, domrepo.ObservationFilter{})
		require.NoError(t, err)
		assert.Len(t, all, 3)

		latest, err := s.LatestObservations(ctx)
		require.NoError(t, err)
		require.Len(t, latest, 2)
		assert.Equal(t, 101.0, latest[0].Price)
		assert.Equal(t, "BTC", latest[0].Symbol)

		last, err := s.Observations(ctx, domrepo.ObservationFilter{Symbol: "BTC", Limit: 1})
		require.NoError(t, err)
		require.Len(t, last, 1)
		assert.True(t, last[0].TS.Equal(base.Add(time.Minute)))
	})

	t.Run("replace indicators per asset", func(t *testing.T) {
		row := func(asset string, minute int, rsi float64) models.IndicatorRow {
			return models.IndicatorRow{AssetID: asset, Symbol: asset[:3], TS: base.Add(time.Duration(minute) * time.Minute), Price: 1, RSI: rsi}
		}
		require.NoError(t, s.ReplaceIndicators(ctx, []models.IndicatorRow{row("bitcoin", 0, math.NaN()), row("ethereum", 0, 40)}))
		require.NoError(t, s.ReplaceIndicators(ctx, []models.IndicatorRow{row("bitcoin", 1, 60)}))

		rows, err := s.Indicators(ctx, nil)
		require.NoError(t, err)
		require.Len(t, rows, 2)
		assert.Equal(t, 60.0, rows[0].RSI)

		_, err = s.LatestIndicator(ctx, "doge")
		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("leaderboard", func(t *testing.T) {
		require.NoError(t, s.ReplaceScores(ctx, []models.ScoreRow{
			{AssetID: "a", Symbol: "A", TS: base, Price: 1, Score: 40, Tier: models.TierBearish},
			{AssetID: "b", Symbol: "B", TS: base, Price: 2, Score: 80, Tier: models.TierBullish, Tags: []string{"ema_bull"}},
		}))
		rows, err := s.Leaderboard(ctx, 10, "")
		require.NoError(t, err)
		require.Len(t, rows, 2)
		assert.Equal(t, "B", rows[0].Symbol)
		assert.Equal(t, []string{"ema_bull"}, rows[0].Tags)

		bear, err := s.Leaderboard(ctx, 10, models.TierBearish)
		require.NoError(t, err)
		require.Len(t, bear, 1)
		assert.Equal(t, "A", bear[0].Symbol)
	})

	t.Run("feeds", func(t *testing.T) {
		_, err := s.UpsertNews(ctx, []models.NewsItem{{ID: "1", Title: "t1", Source: "cp", PublishedAt: base, Symbols: []string{"BTC"}}})
		require.NoError(t, err)
		_, err = s.UpsertNews(ctx, []models.NewsItem{{ID: "1", Title: "t2", Source: "cp", PublishedAt: base, Symbols: []string{"BTC"}}})
		require.NoError(t, err)

		news, err := s.RecentNews(ctx, "btc", 5)
		require.NoError(t, err)
		require.Len(t, news, 1)
		assert.Equal(t, "t2", news[0].Title)

		q := models.Quote{Symbol: "AAPL", TS: base, Price: 190, Provider: "finnhub"}
		n, err := s.InsertQuotes(ctx, []models.Quote{q})
		require.NoError(t, err)
		assert.Equal(t, 1, n)
		n, err = s.InsertQuotes(ctx, []models.Quote{q})
		require.NoError(t, err)
		assert.Equal(t, 0, n)
	})

	t.Run("trends", func(t *testing.T) {
		rows := []models.TrendRow{
			{Kind: models.KindScore, SourceID: "b", TS: base, Symbol: "B", Title: "B", TrendScore: 80, Source: "scores"},
			{Kind: models.KindScore, SourceID: "a", TS: base, Symbol: "A", Title: "A", TrendScore: 40, Source: "scores"},
		}
		require.NoError(t, s.ReplaceTrends(ctx, rows))
		require.NoError(t, s.ReplaceTrends(ctx, rows))

		top, err := s.TopTrends(ctx, "", 1)
		require.NoError(t, err)
		require.Len(t, top, 1)
		assert.Equal(t, "B", top[0].Symbol)
	})
}
