package analytics

import (
	"time"

	"Certus/internal/domain/models"
)

var t0 = time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)

func series(assetID, symbol string, prices ...float64) []models.MarketObservation {
	out := make([]models.MarketObservation, len(prices))
	for i, p := range prices {
		out[i] = models.MarketObservation{
			TS:      t0.Add(time.Duration(i) * time.Hour),
			AssetID: assetID,
			Symbol:  symbol,
			Price:   p,
			Seq:     int64(i + 1),
		}
	}
	return out
}

func linearPrices(n int, from, to float64) []float64 {
	out := make([]float64, n)
	step := (to - from) / float64(n-1)
	for i := range out {
		out[i] = from + step*float64(i)
	}
	return out
}

func flatPrices(n int, v float64) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = v
	}
	return out
}

func zigzag(n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		switch {
		case i < n/3:
			out[i] = 100 + float64(i)
		case i < 2*n/3:
			out[i] = 100 + float64(n/3) - 2*float64(i-n/3)
		default:
			out[i] = out[2*n/3-1] + 1.5*float64(i-2*n/3+1)
		}
	}
	return out
}
