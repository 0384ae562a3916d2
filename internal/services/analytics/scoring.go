package analytics

import (
	"math"

	"Certus/internal/domain/models"
)

// Score range and component caps. The score is baseline plus the sum of the
// components, clamped to [ScoreMin, ScoreMax].
const (
	ScoreMin      = 0.0
	ScoreMax      = 100.0
	ScoreBaseline = 50.0

	rsiGain       = 1.5
	rsiCap        = 30.0
	emaOrderBonus = 20.0
	emaDistGain   = 100.0
	emaDistCap    = 15.0
	macdGain      = 1000.0
	macdCap       = 15.0
)

// TierCuts are the score thresholds of the trend tiers. They need not be
// symmetric around the baseline.
type TierCuts struct {
	Bullish float64
	Bearish float64
}

// DefaultTierCuts returns bullish >= 65, bearish <= 40.
func DefaultTierCuts() TierCuts {
	return TierCuts{Bullish: 65, Bearish: 40}
}

// Tier buckets a score.
func (c TierCuts) Tier(score float64) models.TrendTier {
	switch {
	case score >= c.Bullish:
		return models.TierBullish
	case score <= c.Bearish:
		return models.TierBearish
	default:
		return models.TierNeutral
	}
}

// TrendScore combines RSI deviation, EMA ordering and distance, and the
// price-normalised MACD histogram. Missing inputs are NaN and contribute
// nothing, so a row without usable values scores ScoreBaseline. A zero is a
// real reading: a zero-value row has RSI 0 and scores bearish.
func TrendScore(r models.IndicatorRow) float64 {
	score := ScoreBaseline

	if finite(r.RSI) {
		score += clamp((r.RSI-50)*rsiGain, -rsiCap, rsiCap)
	}

	if finite(r.EMAFast) && finite(r.EMASlow) {
		switch {
		case r.EMAFast > r.EMASlow:
			score += emaOrderBonus
		case r.EMAFast < r.EMASlow:
			score -= emaOrderBonus
		}
		if r.EMASlow != 0 {
			dist := (r.EMAFast - r.EMASlow) / r.EMASlow
			score += clamp(dist*emaDistGain, -emaDistCap, emaDistCap)
		}
	}

	if finite(r.MACDHist) && finite(r.Price) && r.Price > 0 {
		score += clamp(r.MACDHist/r.Price*macdGain, -macdCap, macdCap)
	}

	return clamp(score, ScoreMin, ScoreMax)
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

// ScoreComposer reduces indicator state into trend scores and tiers.
type ScoreComposer struct {
	cuts TierCuts
}

func NewScoreComposer(cuts TierCuts) *ScoreComposer {
	return &ScoreComposer{cuts: cuts}
}

// Cuts returns the tier thresholds in use.
func (c *ScoreComposer) Cuts() TierCuts { return c.cuts }

// Score scores a single row.
func (c *ScoreComposer) Score(r models.IndicatorRow, tags []string) models.ScoreRow {
	s := TrendScore(r)
	return models.ScoreRow{
		AssetID: r.AssetID,
		Symbol:  r.Symbol,
		TS:      r.TS,
		Price:   r.Price,
		Score:   s,
		Tier:    c.cuts.Tier(s),
		Tags:    tags,
	}
}

// Compose scores the latest indicator row of every asset. Signal tags of the
// same asset are attached when available.
func (c *ScoreComposer) Compose(rows []models.IndicatorRow, signals []models.SignalRow) ([]models.ScoreRow, error) {
	if err := ValidateIndicators("scores", rows); err != nil {
		return nil, err
	}
	tags := make(map[string][]string, len(signals))
	for _, s := range signals {
		tags[s.AssetID] = s.Tags
	}

	latest := LatestIndicators(rows)
	out := make([]models.ScoreRow, 0, len(latest))
	for _, r := range latest {
		out = append(out, c.Score(r, tags[r.AssetID]))
	}
	return out, nil
}

// ComposeSeries scores every indicator row, producing a scored time series.
func (c *ScoreComposer) ComposeSeries(rows []models.IndicatorRow) ([]models.ScoreRow, error) {
	if err := ValidateIndicators("scores", rows); err != nil {
		return nil, err
	}
	keys, groups := GroupIndicators(rows)
	out := make([]models.ScoreRow, 0, len(rows))
	for _, k := range keys {
		for _, r := range groups[k] {
			out = append(out, c.Score(r, nil))
		}
	}
	return out, nil
}
