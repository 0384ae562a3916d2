package api

import (
	"context"
	"encoding/json"
	"net/http"
	"path/filepath"
	"sort"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"Certus/internal/domain/models"
	"Certus/internal/repository"
	"Certus/internal/services/analytics"
	"Certus/internal/usecase"
	"Certus/pkg/metrics"
	pkgsqlite "Certus/pkg/sqlite"
)

// symbols returns the distinct symbols of a list endpoint.
func symbols(t *testing.T, e *echo.Echo, path string) []string {
	t.Helper()
	rec, env := get(t, e, path)
	require.Equal(t, http.StatusOK, rec.Code)
	var l list
	require.NoError(t, json.Unmarshal(env.Data, &l))

	seen := map[string]bool{}
	var out []string
	for _, raw := range l.Results {
		var row struct {
			Symbol string `json:"symbol"`
		}
		require.NoError(t, json.Unmarshal(raw, &row))
		if !seen[row.Symbol] {
			seen[row.Symbol] = true
			out = append(out, row.Symbol)
		}
	}
	sort.Strings(out)
	return out
}

func TestLeaderboardAndTrendsShareSymbolCasing(t *testing.T) {
	ctx := context.Background()
	c, err := pkgsqlite.Open(ctx, filepath.Join(t.TempDir(), "casing.db"), time.Second)
	require.NoError(t, err)
	store := repository.NewSQLiteStore(c, nil)
	require.NoError(t, store.Init(ctx))
	t.Cleanup(func() { _ = store.Close() })

	// writers that skip the snapshot pipeline may send lower case symbols
	var batch []models.MarketObservation
	for i := 0; i < 30; i++ {
		ts := ts0.Add(time.Duration(i) * time.Minute)
		batch = append(batch,
			models.MarketObservation{TS: ts, AssetID: "bitcoin", Symbol: "btc", Price: 100 + float64(i)},
			models.MarketObservation{TS: ts, AssetID: "ethereum", Symbol: " eth", Price: 100},
		)
	}
	_, err = store.AppendObservations(ctx, batch)
	require.NoError(t, err)

	stages := usecase.NewAnalyticsStages(store, nil,
		analytics.NewIndicatorEngine(analytics.DefaultIndicatorParams()),
		analytics.NewScoreComposer(analytics.DefaultTierCuts()),
		usecase.ModeSeries, 0, metrics.Nop{}, nil)
	for _, run := range []func(context.Context) (int, error){stages.Indicators, stages.Signals, stages.Scores} {
		_, err := run(ctx)
		require.NoError(t, err)
	}
	_, err = usecase.NewTrendsRefresh(store, nil).Refresh(ctx)
	require.NoError(t, err)

	h := NewTrendsEchoHandler(nil, usecase.NewQueryUseCase(store), store)
	e := echo.New()
	h.RegisterRoutes(e)

	board := symbols(t, e, "/api/leaderboard")
	assert.Equal(t, []string{"BTC", "ETH"}, board)
	assert.Equal(t, board, symbols(t, e, "/api/trends"))

	rec, _ := get(t, e, "/api/assets/eth")
	assert.Equal(t, http.StatusOK, rec.Code)
}
