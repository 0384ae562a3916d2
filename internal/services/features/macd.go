package features

// MACDSeries holds the MACD line, its signal line and the histogram.
type MACDSeries struct {
	Line   []float64
	Signal []float64
	Hist   []float64
}

// MACD computes EMA(fast) - EMA(slow), its EMA(signal) and the difference of the two.
func MACD(prices []float64, fast, slow, signal int) MACDSeries {
	ef := EMA(prices, fast)
	es := EMA(prices, slow)

	line := make([]float64, len(prices))
	for i := range prices {
		line[i] = ef[i] - es[i]
	}
	sig := EMA(line, signal)

	hist := make([]float64, len(prices))
	for i := range line {
		hist[i] = line[i] - sig[i]
	}
	return MACDSeries{Line: line, Signal: sig, Hist: hist}
}
