package usecase

import (
	"context"
	"errors"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"Certus/internal/domain/models"
	domrepo "Certus/internal/domain/repository"
	"Certus/internal/repository"
	svcmetrics "Certus/internal/service/metrics"
	"Certus/internal/services/analytics"
	"Certus/pkg/metrics"
	"Certus/pkg/util"
)

// seedCycles runs n collection cycles: bitcoin rises by 1 per cycle,
// ethereum stays flat.
func seedCycles(t *testing.T, store *repository.SQLiteStore, n int) {
	t.Helper()
	src := &fakeMarkets{
		assets: [][2]string{{"bitcoin", "btc"}, {"ethereum", "eth"}},
		price: func(cycle, i int) float64 {
			if i == 0 {
				return 100 + float64(cycle)
			}
			return 100
		},
	}
	proc := NewSnapshotProcessor(store, nil, metrics.Nop{}, domrepo.TransportDirect)
	c := NewSnapshotCollector(src, proc, nil, CollectorConfig{Pages: 1, PerPage: 10, Workers: 1}, metrics.Nop{}, nil).
		WithClock(clock())
	for i := 0; i < n; i++ {
		_, err := c.Collect(context.Background())
		require.NoError(t, err)
	}
}

func TestRunnerAnalyticsEndToEnd(t *testing.T) {
	ctx := context.Background()
	store := newStore(t)
	seedCycles(t, store, 30)

	r := NewPipelineRunner(nil, nil, newStages(store, ModeSeries), NewTrendsRefresh(store, nil), false,
		svcmetrics.NewPipeline(prometheus.NewRegistry()), nil)
	rep, err := r.Run(ctx, AnalyticsOnly)
	require.NoError(t, err)
	assert.NotEmpty(t, rep.RunID)
	require.Len(t, rep.Stages, 4)
	assert.Equal(t, 60, rep.Stages[0].Rows)
	assert.Equal(t, 2, rep.Stages[1].Rows)
	assert.Equal(t, 2, rep.Stages[2].Rows)

	btc, err := store.LatestScore(ctx, "BTC")
	require.NoError(t, err)
	assert.Equal(t, models.TierBullish, btc.Tier)
	assert.Contains(t, btc.Tags, analytics.TagRSIOverbought)

	eth, err := store.LatestScore(ctx, "ETH")
	require.NoError(t, err)
	assert.Equal(t, models.TierNeutral, eth.Tier)
	assert.InDelta(t, 50, eth.Score, 1e-9)

	sig, err := store.LatestSignal(ctx, "ETH")
	require.NoError(t, err)
	assert.Equal(t, "rsi_neutral", sig.TagString())

	trends, err := store.TopTrends(ctx, "", 10)
	require.NoError(t, err)
	require.Len(t, trends, 2)
	assert.Equal(t, "BTC", trends[0].Symbol)
	require.NotNil(t, trends[0].LastPrice)
	assert.Equal(t, 129.0, *trends[0].LastPrice)
}

func TestRunnerRerunIsStable(t *testing.T) {
	ctx := context.Background()
	store := newStore(t)
	seedCycles(t, store, 20)
	r := NewPipelineRunner(nil, nil, newStages(store, ModeSeries), nil, false, nil, nil)

	_, err := r.Run(ctx, AnalyticsOnly)
	require.NoError(t, err)
	first, err := store.Scores(ctx)
	require.NoError(t, err)

	_, err = r.Run(ctx, AnalyticsOnly)
	require.NoError(t, err)
	second, err := store.Scores(ctx)
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestRunnerLatestMode(t *testing.T) {
	ctx := context.Background()
	store := newStore(t)
	seedCycles(t, store, 30)
	r := NewPipelineRunner(nil, nil, newStages(store, ModeLatest), nil, false, nil, nil)

	rep, err := r.Run(ctx, []string{StageIndicators, StageSignals, StageScores})
	require.NoError(t, err)
	assert.Equal(t, 2, rep.Stages[0].Rows)

	sig, err := store.LatestSignal(ctx, "BTC")
	require.NoError(t, err)
	assert.NotContains(t, sig.Tags, analytics.TagEMABullCross)
}

func TestRunnerPaused(t *testing.T) {
	called := false
	r := NewPipelineRunner(nil, nil, nil, nil, true, nil, nil)
	r.Register(StageMarkets, func(context.Context) (int, error) { called = true; return 0, nil })

	rep, err := r.Run(context.Background(), nil)
	assert.ErrorIs(t, err, ErrPaused)
	assert.Empty(t, rep.Stages)
	assert.False(t, called)
}

func TestRunnerStopsAtFailingStage(t *testing.T) {
	var ran []string
	r := NewPipelineRunner(nil, nil, nil, nil, false, nil, nil)
	r.Register(StageIndicators, func(context.Context) (int, error) { ran = append(ran, "i"); return 1, nil })
	r.Register(StageSignals, func(context.Context) (int, error) {
		return 0, &analytics.MissingColumnError{Stage: "signals", Column: "asset_id"}
	})
	r.Register(StageScores, func(context.Context) (int, error) { ran = append(ran, "s"); return 1, nil })

	rep, err := r.Run(context.Background(), []string{StageIndicators, StageSignals, StageScores})
	require.Error(t, err)
	var mc *analytics.MissingColumnError
	assert.True(t, errors.As(err, &mc))
	assert.Equal(t, []string{"i"}, ran)
	require.Len(t, rep.Stages, 2)
	assert.NotEmpty(t, rep.Stages[1].Err)
}

func TestRunnerMarksIncompleteCycle(t *testing.T) {
	store := newStore(t)
	src := &fakeMarkets{assets: fiveAssets(), price: func(c, i int) float64 { return 1 }, failing: map[int]bool{1: true}}
	proc := NewSnapshotProcessor(store, nil, metrics.Nop{}, domrepo.TransportDirect)
	c := NewSnapshotCollector(src, proc, nil, CollectorConfig{Pages: 2, PerPage: 3, Workers: 2}, metrics.Nop{}, nil)
	r := NewPipelineRunner(c, nil, nil, nil, false, nil, nil)

	rep, err := r.Run(context.Background(), []string{StageMarkets})
	require.NoError(t, err)
	assert.True(t, rep.Incomplete)
	assert.Equal(t, 2, rep.Stages[0].Rows)
}

func TestRunIDReachesStages(t *testing.T) {
	var got string
	r := NewPipelineRunner(nil, nil, nil, nil, false, nil, nil)
	r.newID = func() string { return "run-1" }
	r.Register(StageTrends, func(ctx context.Context) (int, error) { got = util.RunID(ctx); return 0, nil })
	_, err := r.Run(context.Background(), []string{StageTrends})
	require.NoError(t, err)
	assert.Equal(t, "run-1", got)
}

func TestParseStages(t *testing.T) {
	got, err := ParseStages("")
	require.NoError(t, err)
	assert.Equal(t, DefaultStages, got)

	got, err = ParseStages("analytics")
	require.NoError(t, err)
	assert.Equal(t, AnalyticsOnly, got)

	got, err = ParseStages("markets, scores")
	require.NoError(t, err)
	assert.Equal(t, []string{"markets", "scores"}, got)

	_, err = ParseStages("markets,bogus")
	assert.Error(t, err)
}
