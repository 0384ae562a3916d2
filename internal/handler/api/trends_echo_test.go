package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"Certus/internal/domain/models"
	"Certus/internal/repository"
	icache "Certus/internal/service/cache"
	"Certus/internal/usecase"
	pkgsqlite "Certus/pkg/sqlite"
)

var ts0 = time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

type envelope struct {
	Status int             `json:"status"`
	Data   json.RawMessage `json:"data"`
}

type list struct {
	Count   int               `json:"count"`
	Results []json.RawMessage `json:"results"`
}

func newServer(t *testing.T, opts ...HandlerOption) (*echo.Echo, *repository.SQLiteStore) {
	t.Helper()
	ctx := context.Background()
	c, err := pkgsqlite.Open(ctx, filepath.Join(t.TempDir(), "api.db"), time.Second)
	require.NoError(t, err)
	store := repository.NewSQLiteStore(c, nil)
	require.NoError(t, store.Init(ctx))
	t.Cleanup(func() { _ = store.Close() })

	_, err = store.AppendObservations(ctx, []models.MarketObservation{
		{TS: ts0, AssetID: "bitcoin", Symbol: "BTC", Price: 100},
		{TS: ts0.Add(time.Minute), AssetID: "bitcoin", Symbol: "BTC", Price: 101},
		{TS: ts0, AssetID: "ethereum", Symbol: "ETH", Price: 10},
	})
	require.NoError(t, err)
	require.NoError(t, store.ReplaceScores(ctx, []models.ScoreRow{
		{AssetID: "bitcoin", Symbol: "BTC", TS: ts0.Add(time.Minute), Price: 101, Score: 72, Tier: models.TierBullish, Tags: []string{"ema_bull", "macd_positive"}},
		{AssetID: "ethereum", Symbol: "ETH", TS: ts0, Price: 10, Score: 38, Tier: models.TierBearish},
	}))
	require.NoError(t, store.ReplaceTrends(ctx, []models.TrendRow{
		{Kind: models.KindScore, SourceID: "bitcoin", TS: ts0, Symbol: "BTC", Title: "BTC bullish", TrendScore: 72, Source: "coingecko"},
		{Kind: models.KindNews, SourceID: "n1", TS: ts0, Symbol: "ETH", Title: "ETH news", TrendScore: 38, Source: "cp"},
	}))

	h := NewTrendsEchoHandler(nil, usecase.NewQueryUseCase(store), store, opts...)
	e := echo.New()
	h.RegisterRoutes(e)
	return e, store
}

func get(t *testing.T, e *echo.Echo, path string) (*httptest.ResponseRecorder, envelope) {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	req.RemoteAddr = "10.0.0.1:1234"
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	var env envelope
	_ = json.Unmarshal(rec.Body.Bytes(), &env)
	return rec, env
}

func TestHealth(t *testing.T) {
	e, _ := newServer(t)
	rec, _ := get(t, e, "/health")
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestTrendsEndpoint(t *testing.T) {
	e, _ := newServer(t)

	rec, env := get(t, e, "/api/trends")
	require.Equal(t, http.StatusOK, rec.Code)
	var l list
	require.NoError(t, json.Unmarshal(env.Data, &l))
	require.Equal(t, 2, l.Count)

	var first map[string]interface{}
	require.NoError(t, json.Unmarshal(l.Results[0], &first))
	assert.Equal(t, "score", first["kind"])
	assert.Equal(t, "BTC", first["symbol"])
	for _, k := range []string{"ts", "title", "trend_score", "last_price", "source"} {
		assert.Contains(t, first, k)
	}

	rec, env = get(t, e, "/api/trends?symbol=eth&limit=5")
	require.Equal(t, http.StatusOK, rec.Code)
	require.NoError(t, json.Unmarshal(env.Data, &l))
	assert.Equal(t, 1, l.Count)
}

func TestLeaderboardEndpoint(t *testing.T) {
	e, _ := newServer(t)

	rec, env := get(t, e, "/api/leaderboard?limit=10")
	require.Equal(t, http.StatusOK, rec.Code)
	var l list
	require.NoError(t, json.Unmarshal(env.Data, &l))
	require.Equal(t, 2, l.Count)
	var row models.LeaderboardRow
	require.NoError(t, json.Unmarshal(l.Results[0], &row))
	assert.Equal(t, "BTC", row.Symbol)
	assert.Equal(t, "ema_bull,macd_positive", row.SignalTags)

	rec, env = get(t, e, "/api/leaderboard?tier=bearish")
	require.Equal(t, http.StatusOK, rec.Code)
	require.NoError(t, json.Unmarshal(env.Data, &l))
	require.Equal(t, 1, l.Count)

	rec, _ = get(t, e, "/api/leaderboard?tier=sideways")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	rec, _ = get(t, e, "/api/leaderboard?limit=9999")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestAssetEndpoints(t *testing.T) {
	e, _ := newServer(t)

	rec, env := get(t, e, "/api/assets/btc")
	require.Equal(t, http.StatusOK, rec.Code)
	var ov models.AssetOverview
	require.NoError(t, json.Unmarshal(env.Data, &ov))
	assert.Equal(t, "BTC", ov.Symbol)
	require.NotNil(t, ov.Market)
	assert.Equal(t, 101.0, ov.Market.Price)
	require.NotNil(t, ov.Score)
	assert.Equal(t, models.TierBullish, ov.Score.Tier)

	rec, env = get(t, e, "/api/assets/btc/history?limit=1")
	require.Equal(t, http.StatusOK, rec.Code)
	var l list
	require.NoError(t, json.Unmarshal(env.Data, &l))
	assert.Equal(t, 1, l.Count)

	rec, _ = get(t, e, "/api/assets/doge")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	rec, _ = get(t, e, "/api/assets/doge/history")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestTrendsCache(t *testing.T) {
	cache := icache.NewTTLCache()
	e, store := newServer(t, WithCache(cache, time.Minute))

	rec, _ := get(t, e, "/api/trends")
	assert.Equal(t, "MISS", rec.Header().Get("X-Cache"))

	require.NoError(t, store.ReplaceTrends(context.Background(), nil))
	rec, env := get(t, e, "/api/trends")
	assert.Equal(t, "HIT", rec.Header().Get("X-Cache"))
	var l list
	require.NoError(t, json.Unmarshal(env.Data, &l))
	assert.Equal(t, 2, l.Count)
}

func TestRateLimit(t *testing.T) {
	e, _ := newServer(t, WithRateLimit(0.001, 2))
	for i := 0; i < 2; i++ {
		rec, _ := get(t, e, "/api/trends")
		require.Equal(t, http.StatusOK, rec.Code)
	}
	rec, _ := get(t, e, "/api/trends")
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)

	rec, _ = get(t, e, "/health")
	assert.Equal(t, http.StatusOK, rec.Code)
}
