package models

import "time"

// MarketObservation is one price snapshot of one asset taken in one fetch cycle.
// (AssetID, TS) is unique in the markets table.
type MarketObservation struct {
	Seq       int64     `json:"seq,omitempty"`
	TS        time.Time `json:"ts"`
	AssetID   string    `json:"asset_id"`
	Symbol    string    `json:"symbol"`
	Price     float64   `json:"price"`
	MarketCap *float64  `json:"market_cap,omitempty"`
	Volume24h *float64  `json:"volume_24h,omitempty"`
	Source    string    `json:"source,omitempty"`
}

// Key returns the idempotency key of the observation.
func (o MarketObservation) Key() string {
	return o.AssetID + "|" + o.TS.UTC().Format(time.RFC3339Nano)
}

// MarketSnapshot is a single row of a paged market listing as returned by a market source.
type MarketSnapshot struct {
	ID           string
	Symbol       string
	Name         string
	CurrentPrice float64
	MarketCap    *float64
	TotalVolume  *float64
	Change1h     *float64
	Change24h    *float64
	Change7d     *float64
	LastUpdated  time.Time
}

// Observation converts a snapshot into a market observation stamped with the fetch cycle time.
func (s MarketSnapshot) Observation(ts time.Time, source string) MarketObservation {
	return MarketObservation{
		TS:        ts,
		AssetID:   s.ID,
		Symbol:    s.Symbol,
		Price:     s.CurrentPrice,
		MarketCap: s.MarketCap,
		Volume24h: s.TotalVolume,
		Source:    source,
	}
}

// ChartPoint is one sample of a historical chart series.
type ChartPoint struct {
	TS    time.Time
	Value float64
}

// ChartSeries holds the three parallel series of a historical chart range.
type ChartSeries struct {
	AssetID    string
	Prices     []ChartPoint
	MarketCaps []ChartPoint
	Volumes    []ChartPoint
}

// Observations zips the chart series by timestamp. Market cap and volume are
// attached when a sample with the same timestamp exists.
func (c ChartSeries) Observations(symbol, source string) []MarketObservation {
	caps := make(map[int64]float64, len(c.MarketCaps))
	for _, p := range c.MarketCaps {
		caps[p.TS.UnixMilli()] = p.Value
	}
	vols := make(map[int64]float64, len(c.Volumes))
	for _, p := range c.Volumes {
		vols[p.TS.UnixMilli()] = p.Value
	}

	out := make([]MarketObservation, 0, len(c.Prices))
	for _, p := range c.Prices {
		o := MarketObservation{
			TS:      p.TS.UTC(),
			AssetID: c.AssetID,
			Symbol:  symbol,
			Price:   p.Value,
			Source:  source,
		}
		if v, ok := caps[p.TS.UnixMilli()]; ok {
			o.MarketCap = &v
		}
		if v, ok := vols[p.TS.UnixMilli()]; ok {
			o.Volume24h = &v
		}
		out = append(out, o)
	}
	return out
}
