package analytics

import (
	"math"
	"testing"
	"time"

	"Certus/internal/domain/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTrendScoreNeutralInputs(t *testing.T) {
	assert.Equal(t, ScoreBaseline, TrendScore(models.IndicatorRow{
		Price:    math.NaN(),
		EMAFast:  math.NaN(),
		EMASlow:  math.NaN(),
		MACDHist: math.NaN(),
		RSI:      math.NaN(),
	}))
	assert.Equal(t, ScoreBaseline, TrendScore(row(100, 100, 0, 50)))
}

func TestTrendScoreZeroIsAReading(t *testing.T) {
	// RSI 0 is an extreme oversold value, not a missing one
	zero := TrendScore(models.IndicatorRow{})
	assert.InDelta(t, ScoreBaseline-rsiCap, zero, 1e-9)
	assert.Equal(t, models.TierBearish, DefaultTierCuts().Tier(zero))
}

func TestTrendScoreComponents(t *testing.T) {
	r := models.IndicatorRow{Price: 100, EMAFast: 101, EMASlow: 100, MACDHist: 0.5, RSI: 60}
	// 50 + 15 (rsi) + 20 (order) + 1 (distance) + 5 (macd)
	assert.InDelta(t, 91.0, TrendScore(r), 1e-9)

	r = models.IndicatorRow{Price: 100, EMAFast: 99, EMASlow: 100, MACDHist: -0.5, RSI: 40}
	assert.InDelta(t, 9.0, TrendScore(r), 1e-9)
}

func TestTrendScoreIsClamped(t *testing.T) {
	hot := models.IndicatorRow{Price: 10, EMAFast: 20, EMASlow: 10, MACDHist: 5, RSI: 100}
	cold := models.IndicatorRow{Price: 10, EMAFast: 5, EMASlow: 10, MACDHist: -5, RSI: 0}
	assert.Equal(t, ScoreMax, TrendScore(hot))
	assert.Equal(t, ScoreMin, TrendScore(cold))
}

func TestTierCuts(t *testing.T) {
	cuts := DefaultTierCuts()
	tests := []struct {
		score float64
		want  models.TrendTier
	}{
		{100, models.TierBullish},
		{65, models.TierBullish},
		{64.99, models.TierNeutral},
		{50, models.TierNeutral},
		{40.01, models.TierNeutral},
		{40, models.TierBearish},
		{0, models.TierBearish},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, cuts.Tier(tt.score), "score %v", tt.score)
	}

	custom := TierCuts{Bullish: 80, Bearish: 20}
	assert.Equal(t, models.TierNeutral, custom.Tier(70))
	assert.Equal(t, models.TierBearish, custom.Tier(20))
}

func TestComposeKeepsLatestRowAndAttachesTags(t *testing.T) {
	old := models.IndicatorRow{AssetID: "bitcoin", Symbol: "BTC", TS: t0, Price: 90, EMAFast: 80, EMASlow: 100, RSI: 10}
	cur := models.IndicatorRow{AssetID: "bitcoin", Symbol: "BTC", TS: t0.Add(time.Hour), Price: 100, EMAFast: 100, EMASlow: 100, RSI: 50}
	eth := models.IndicatorRow{AssetID: "ethereum", Symbol: "ETH", TS: t0, Price: 10, EMAFast: 10, EMASlow: 10, RSI: 50}
	sigs := []models.SignalRow{{AssetID: "bitcoin", Tags: []string{TagRSINeutral}}}

	out, err := NewScoreComposer(DefaultTierCuts()).Compose([]models.IndicatorRow{cur, eth, old}, sigs)
	require.NoError(t, err)
	require.Len(t, out, 2)

	assert.Equal(t, "bitcoin", out[0].AssetID)
	assert.Equal(t, cur.TS, out[0].TS)
	assert.Equal(t, 100.0, out[0].Price)
	assert.Equal(t, ScoreBaseline, out[0].Score)
	assert.Equal(t, models.TierNeutral, out[0].Tier)
	assert.Equal(t, []string{TagRSINeutral}, out[0].Tags)

	assert.Equal(t, "ethereum", out[1].AssetID)
	assert.Nil(t, out[1].Tags)
}

func TestComposeSeries(t *testing.T) {
	rows, err := NewIndicatorEngine(DefaultIndicatorParams()).Compute(series("bitcoin", "BTC", linearPrices(30, 100, 130)...))
	require.NoError(t, err)

	scored, err := NewScoreComposer(DefaultTierCuts()).ComposeSeries(rows)
	require.NoError(t, err)
	require.Len(t, scored, 30)
	for i := range scored {
		assert.Equal(t, rows[i].TS, scored[i].TS)
		assert.Equal(t, TrendScore(rows[i]), scored[i].Score)
	}
}

func TestComposeIsDeterministic(t *testing.T) {
	rows, err := NewIndicatorEngine(DefaultIndicatorParams()).Compute(series("bitcoin", "BTC", zigzag(45)...))
	require.NoError(t, err)

	c := NewScoreComposer(DefaultTierCuts())
	a, err := c.Compose(rows, nil)
	require.NoError(t, err)
	b, err := c.Compose(rows, nil)
	require.NoError(t, err)
	assert.Equal(t, a, b)
}
