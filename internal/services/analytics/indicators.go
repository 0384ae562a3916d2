package analytics

import (
	"math"

	"Certus/internal/domain/models"
	"Certus/internal/services/features"
)

// IndicatorParams are the window lengths used by the indicator engine.
type IndicatorParams struct {
	EMAFast    int
	EMASlow    int
	RSIPeriod  int
	MACDFast   int
	MACDSlow   int
	MACDSignal int
}

// DefaultIndicatorParams returns EMA 9/20, RSI 14 and MACD 12/26/9.
func DefaultIndicatorParams() IndicatorParams {
	return IndicatorParams{
		EMAFast:    9,
		EMASlow:    20,
		RSIPeriod:  14,
		MACDFast:   12,
		MACDSlow:   26,
		MACDSignal: 9,
	}
}

func (p IndicatorParams) withDefaults() IndicatorParams {
	d := DefaultIndicatorParams()
	if p.EMAFast <= 0 {
		p.EMAFast = d.EMAFast
	}
	if p.EMASlow <= 0 {
		p.EMASlow = d.EMASlow
	}
	if p.RSIPeriod < 2 {
		p.RSIPeriod = d.RSIPeriod
	}
	if p.MACDFast <= 0 {
		p.MACDFast = d.MACDFast
	}
	if p.MACDSlow <= 0 {
		p.MACDSlow = d.MACDSlow
	}
	if p.MACDSignal <= 0 {
		p.MACDSignal = d.MACDSignal
	}
	return p
}

// IndicatorEngine turns per-asset price series into indicator rows.
type IndicatorEngine struct {
	params IndicatorParams
}

func NewIndicatorEngine(p IndicatorParams) *IndicatorEngine {
	return &IndicatorEngine{params: p.withDefaults()}
}

// Params returns the effective window lengths.
func (e *IndicatorEngine) Params() IndicatorParams { return e.params }

// Compute returns one indicator row per observation, grouped by asset id and
// ordered by time inside each asset.
func (e *IndicatorEngine) Compute(obs []models.MarketObservation) ([]models.IndicatorRow, error) {
	if err := ValidateObservations(obs); err != nil {
		return nil, err
	}
	keys, groups := GroupObservations(obs)
	out := make([]models.IndicatorRow, 0, len(obs))
	for _, k := range keys {
		out = append(out, e.computeAsset(groups[k])...)
	}
	return out, nil
}

// ComputeLatest returns only the most recent indicator row per asset.
func (e *IndicatorEngine) ComputeLatest(obs []models.MarketObservation) ([]models.IndicatorRow, error) {
	if err := ValidateObservations(obs); err != nil {
		return nil, err
	}
	keys, groups := GroupObservations(obs)
	out := make([]models.IndicatorRow, 0, len(keys))
	for _, k := range keys {
		rows := e.computeAsset(groups[k])
		out = append(out, rows[len(rows)-1])
	}
	return out, nil
}

// computeAsset expects one time-ordered, non-empty group.
func (e *IndicatorEngine) computeAsset(group []models.MarketObservation) []models.IndicatorRow {
	prices := make([]float64, len(group))
	for i, o := range group {
		prices[i] = o.Price
	}

	fast := features.EMA(prices, e.params.EMAFast)
	slow := features.EMA(prices, e.params.EMASlow)
	rsi := features.RSI(prices, e.params.RSIPeriod)
	macd := features.MACD(prices, e.params.MACDFast, e.params.MACDSlow, e.params.MACDSignal)

	rows := make([]models.IndicatorRow, len(group))
	for i, o := range group {
		rows[i] = models.IndicatorRow{
			AssetID:    o.AssetID,
			Symbol:     o.Symbol,
			TS:         o.TS,
			Seq:        o.Seq,
			Price:      o.Price,
			EMAFast:    fast[i],
			EMASlow:    slow[i],
			MACD:       macd.Line[i],
			MACDSignal: macd.Signal[i],
			MACDHist:   macd.Hist[i],
			RSI:        rsi[i],
		}
	}
	return rows
}

// ValidateObservations fails on the first row missing a required field.
func ValidateObservations(obs []models.MarketObservation) error {
	const stage = "indicators"
	for i, o := range obs {
		switch {
		case o.AssetID == "":
			return missing(stage, "asset_id", i)
		case o.Symbol == "":
			return missing(stage, "symbol", i)
		case o.TS.IsZero():
			return missing(stage, "ts", i)
		case math.IsNaN(o.Price):
			return missing(stage, "price", i)
		}
	}
	return nil
}
