package features

import (
	"math"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func linear(n int, from, to float64) []float64 {
	out := make([]float64, n)
	step := (to - from) / float64(n-1)
	for i := range out {
		out[i] = from + step*float64(i)
	}
	return out
}

func flat(n int, v float64) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = v
	}
	return out
}

func randomWalk(n int, seed int64) []float64 {
	r := rand.New(rand.NewSource(seed))
	out := make([]float64, n)
	out[0] = 100
	for i := 1; i < n; i++ {
		out[i] = out[i-1] * (1 + (r.Float64()-0.5)*0.04)
	}
	return out
}

func TestEMAFollowsRecurrence(t *testing.T) {
	prices := randomWalk(60, 1)
	for _, span := range []int{9, 12, 20, 26} {
		ema := EMA(prices, span)
		alpha := 2.0 / float64(span+1)
		require.Len(t, ema, len(prices))
		assert.Equal(t, prices[0], ema[0])
		for i := 1; i < len(prices); i++ {
			want := prices[i]*alpha + ema[i-1]*(1-alpha)
			assert.InDelta(t, want, ema[i], 1e-12, "span=%d i=%d", span, i)
		}
	}
}

func TestEMAStaysWithinPriceRange(t *testing.T) {
	prices := randomWalk(200, 7)
	ema := EMA(prices, 20)
	lo, hi := prices[0], prices[0]
	for i, p := range prices {
		lo = math.Min(lo, p)
		hi = math.Max(hi, p)
		assert.GreaterOrEqual(t, ema[i], lo-1e-9)
		assert.LessOrEqual(t, ema[i], hi+1e-9)
	}
}

func TestEMAEmpty(t *testing.T) {
	assert.Empty(t, EMA(nil, 9))
}

func TestRSIWarmup(t *testing.T) {
	rsi := RSI(randomWalk(20, 3), 14)
	for i := 0; i < 14; i++ {
		assert.True(t, math.IsNaN(rsi[i]), "index %d should be NaN", i)
	}
	for i := 14; i < 20; i++ {
		assert.False(t, math.IsNaN(rsi[i]), "index %d should be defined", i)
	}
}

func TestRSIShortSeriesIsAllNaN(t *testing.T) {
	for _, n := range []int{0, 1, 14} {
		for _, v := range RSI(flat(n, 100), 14) {
			assert.True(t, math.IsNaN(v))
		}
	}
}

func TestRSIBounded(t *testing.T) {
	for seed := int64(1); seed <= 20; seed++ {
		for _, v := range RSI(randomWalk(120, seed), 14) {
			if math.IsNaN(v) {
				continue
			}
			assert.GreaterOrEqual(t, v, 0.0)
			assert.LessOrEqual(t, v, 100.0)
		}
	}
}

func TestRSISentinels(t *testing.T) {
	tests := []struct {
		name   string
		prices []float64
		want   float64
	}{
		{"flat", flat(30, 100), 50},
		{"only gains", linear(30, 100, 130), 100},
		{"only losses", linear(30, 130, 100), 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rsi := RSI(tt.prices, 14)
			assert.InDelta(t, tt.want, rsi[len(rsi)-1], 1e-9)
		})
	}
}

func TestRSIWilderValue(t *testing.T) {
	// up 1, down 1 alternating: equal averages at the seed point
	prices := []float64{10, 11, 10, 11, 10}
	rsi := RSI(prices, 4)
	assert.InDelta(t, 50, rsi[4], 1e-9)
}

func TestMACDFlatIsZero(t *testing.T) {
	m := MACD(flat(30, 100), 12, 26, 9)
	for i := range m.Line {
		assert.InDelta(t, 0, m.Line[i], 1e-12)
		assert.InDelta(t, 0, m.Signal[i], 1e-12)
		assert.InDelta(t, 0, m.Hist[i], 1e-12)
	}
}

func TestMACDRisingTrend(t *testing.T) {
	m := MACD(linear(30, 100, 130), 12, 26, 9)
	last := len(m.Line) - 1
	assert.Greater(t, m.Line[last], 0.0)
	assert.Greater(t, m.Hist[last], 0.0)
	assert.InDelta(t, m.Line[last]-m.Signal[last], m.Hist[last], 1e-12)
}

// wilderRSI is the textbook recurrence, used as a reference.
func wilderRSI(prices []float64, period int) []float64 {
	out := make([]float64, len(prices))
	for i := range out {
		out[i] = math.NaN()
	}
	var g, l float64
	for i := 1; i <= period; i++ {
		if d := prices[i] - prices[i-1]; d > 0 {
			g += d
		} else {
			l -= d
		}
	}
	g /= float64(period)
	l /= float64(period)
	value := func() float64 {
		if l == 0 {
			if g == 0 {
				return NeutralRSI
			}
			return 100
		}
		return 100 - 100/(1+g/l)
	}
	out[period] = value()
	n := float64(period)
	for i := period + 1; i < len(prices); i++ {
		d := prices[i] - prices[i-1]
		gain, loss := math.Max(d, 0), math.Max(-d, 0)
		g = (g*(n-1) + gain) / n
		l = (l*(n-1) + loss) / n
		out[i] = value()
	}
	return out
}

func TestRSIMatchesWilderRecurrence(t *testing.T) {
	for seed := int64(1); seed <= 10; seed++ {
		prices := randomWalk(80, seed)
		want := wilderRSI(prices, 14)
		got := RSI(prices, 14)
		for i := range want {
			if math.IsNaN(want[i]) {
				assert.True(t, math.IsNaN(got[i]), "seed %d index %d", seed, i)
				continue
			}
			assert.InDelta(t, want[i], got[i], 1e-9, "seed %d index %d", seed, i)
		}
	}
}

func TestRSIFlatStartThenMove(t *testing.T) {
	prices := append(flat(20, 100), 101, 102)
	rsi := RSI(prices, 14)
	for i := 14; i < 20; i++ {
		assert.Equal(t, NeutralRSI, rsi[i], "index %d", i)
	}
	assert.InDelta(t, 100, rsi[20], 1e-9)
	assert.InDelta(t, 100, rsi[21], 1e-9)
}

func TestRSIPeriodBelowTwoIsNaN(t *testing.T) {
	for _, v := range RSI(linear(10, 1, 10), 1) {
		assert.True(t, math.IsNaN(v))
	}
}
