package features

import (
	"math"

	"github.com/markcheno/go-talib"
)

// NeutralRSI is reported while there has been no price movement at all.
const NeutralRSI = 50.0

// RSI returns Wilder's relative strength index over prices.
//
// Values come from talib.Rsi: average gain and loss are seeded with the simple
// mean of the first period deltas and then smoothed with alpha = 1/period.
// Entries before index period are NaN (warm-up), where talib reports 0. RS is
// undefined when the average loss is zero: a window with only gains is 100,
// and a series that has not moved yet is NeutralRSI, where talib reports 0.
// period must be at least 2; smaller periods give an all-NaN series.
func RSI(prices []float64, period int) []float64 {
	out := make([]float64, len(prices))
	for i := range out {
		out[i] = math.NaN()
	}
	if period < 2 || len(prices) <= period {
		return out
	}

	values := talib.Rsi(prices, period)
	moved := false
	for i := 1; i < len(prices); i++ {
		if prices[i] != prices[i-1] {
			moved = true
		}
		if i < period {
			continue
		}
		if !moved {
			out[i] = NeutralRSI
			continue
		}
		out[i] = values[i]
	}
	return out
}
