package analytics

import (
	"math"

	"Certus/internal/domain/models"
)

// Signal tags in emission order.
const (
	TagEMABullCross  = "ema_bull_cross"
	TagEMABearCross  = "ema_bear_cross"
	TagMACDAboveZero = "macd_above_zero"
	TagMACDBelowZero = "macd_below_zero"
	TagEMABull       = "ema_bull"
	TagEMABear       = "ema_bear"
	TagMACDPositive  = "macd_positive"
	TagMACDNegative  = "macd_negative"
	TagRSIOversold   = "rsi_oversold"
	TagRSIOverbought = "rsi_overbought"
	TagRSINeutral    = "rsi_neutral"
)

// RSI bucket bounds.
const (
	RSIOversold   = 30.0
	RSIOverbought = 70.0
)

// Signal strength weights.
const (
	weightEMAOrder = 0.35
	weightMACDSign = 0.20
	weightRSIEdge  = 0.10
	weightRSIBand  = 0.10
)

// SignalDeriver classifies the latest indicator row of every asset.
type SignalDeriver struct{}

func NewSignalDeriver() *SignalDeriver { return &SignalDeriver{} }

// Derive returns one signal row per asset, built from the asset's latest
// indicator row and the row immediately preceding it.
func (d *SignalDeriver) Derive(rows []models.IndicatorRow) ([]models.SignalRow, error) {
	if err := ValidateIndicators("signals", rows); err != nil {
		return nil, err
	}
	keys, groups := GroupIndicators(rows)
	out := make([]models.SignalRow, 0, len(keys))
	for _, k := range keys {
		g := groups[k]
		cur := g[len(g)-1]
		var prev *models.IndicatorRow
		if len(g) > 1 {
			prev = &g[len(g)-2]
		}
		out = append(out, Classify(cur, prev))
	}
	return out, nil
}

// Classify builds the signal row of cur. Event tags need prev; without it only
// state tags are emitted.
func Classify(cur models.IndicatorRow, prev *models.IndicatorRow) models.SignalRow {
	tags := make([]string, 0, 5)

	if prev != nil {
		switch {
		case prev.EMAFast <= prev.EMASlow && cur.EMAFast > cur.EMASlow:
			tags = append(tags, TagEMABullCross)
		case prev.EMAFast >= prev.EMASlow && cur.EMAFast < cur.EMASlow:
			tags = append(tags, TagEMABearCross)
		}
		switch {
		case prev.MACD <= 0 && cur.MACD > 0:
			tags = append(tags, TagMACDAboveZero)
		case prev.MACD >= 0 && cur.MACD < 0:
			tags = append(tags, TagMACDBelowZero)
		}
	}

	switch {
	case cur.EMAFast > cur.EMASlow:
		tags = append(tags, TagEMABull)
	case cur.EMAFast < cur.EMASlow:
		tags = append(tags, TagEMABear)
	}
	switch {
	case cur.MACD > 0:
		tags = append(tags, TagMACDPositive)
	case cur.MACD < 0:
		tags = append(tags, TagMACDNegative)
	}
	if b := rsiBucket(cur.RSI); b != "" {
		tags = append(tags, b)
	}

	return models.SignalRow{
		AssetID:  cur.AssetID,
		Symbol:   cur.Symbol,
		TS:       cur.TS,
		Price:    cur.Price,
		RSI:      cur.RSI,
		EMAFast:  cur.EMAFast,
		EMASlow:  cur.EMASlow,
		MACD:     cur.MACD,
		Tags:     tags,
		Strength: Strength(cur),
	}
}

func rsiBucket(rsi float64) string {
	switch {
	case math.IsNaN(rsi):
		return ""
	case rsi < RSIOversold:
		return TagRSIOversold
	case rsi > RSIOverbought:
		return TagRSIOverbought
	default:
		return TagRSINeutral
	}
}

// Strength is the weighted directional strength of a row, clamped to [-1, 1].
func Strength(r models.IndicatorRow) float64 {
	s := 0.0
	switch {
	case r.EMAFast > r.EMASlow:
		s += weightEMAOrder
	case r.EMAFast < r.EMASlow:
		s -= weightEMAOrder
	}
	switch {
	case r.MACD > 0:
		s += weightMACDSign
	case r.MACD < 0:
		s -= weightMACDSign
	}
	if !math.IsNaN(r.RSI) {
		switch {
		case r.RSI < RSIOversold:
			s += weightRSIEdge
		case r.RSI > RSIOverbought:
			s -= weightRSIEdge
		case r.RSI >= 50 && r.RSI <= 60:
			s += weightRSIBand
		}
	}
	return clamp(s, -1, 1)
}

// ValidateIndicators fails on the first row missing a required field.
func ValidateIndicators(stage string, rows []models.IndicatorRow) error {
	for i, r := range rows {
		switch {
		case r.AssetID == "":
			return missing(stage, "asset_id", i)
		case r.Symbol == "":
			return missing(stage, "symbol", i)
		case r.TS.IsZero():
			return missing(stage, "ts", i)
		}
	}
	return nil
}
