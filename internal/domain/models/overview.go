package models

import "time"

// AssetOverview gathers the latest derived state of one symbol. Parts that
// failed to load are reported in Errors; parts that do not exist are nil.
type AssetOverview struct {
	Symbol    string             `json:"symbol"`
	Timestamp time.Time          `json:"timestamp"`
	Market    *MarketObservation `json:"market,omitempty"`
	Indicator *IndicatorRow      `json:"indicator,omitempty"`
	Signal    *SignalRow         `json:"signal,omitempty"`
	Score     *ScoreRow          `json:"score,omitempty"`
	News      []NewsItem         `json:"news,omitempty"`
	Errors    map[string]string  `json:"errors,omitempty"`
}

// Empty reports whether nothing is known about the symbol.
func (o *AssetOverview) Empty() bool {
	return o.Market == nil && o.Indicator == nil && o.Signal == nil && o.Score == nil && len(o.News) == 0
}
