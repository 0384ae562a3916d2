package models

import (
	"encoding/json"
	"math"
	"strings"
	"time"
)

// NeutralTag is rendered in place of an empty tag set.
const NeutralTag = "neutral"

// IndicatorRow holds the indicator values of one asset at one observation.
// RSI is NaN until the warm-up window is filled.
type IndicatorRow struct {
	AssetID    string    `json:"asset_id"`
	Symbol     string    `json:"symbol"`
	TS         time.Time `json:"ts"`
	Seq        int64     `json:"-"`
	Price      float64   `json:"price"`
	EMAFast    float64   `json:"ema_fast"`
	EMASlow    float64   `json:"ema_slow"`
	MACD       float64   `json:"macd"`
	MACDSignal float64   `json:"macd_signal"`
	MACDHist   float64   `json:"macd_hist"`
	RSI        float64   `json:"rsi"`
}

// MarshalJSON renders NaN sentinels as null.
func (r IndicatorRow) MarshalJSON() ([]byte, error) {
	type alias IndicatorRow
	return json.Marshal(struct {
		alias
		RSI *float64 `json:"rsi"`
	}{alias: alias(r), RSI: NullableFloat(r.RSI)})
}

// SignalRow is the classified state of an asset at its latest observation.
type SignalRow struct {
	AssetID  string    `json:"asset_id"`
	Symbol   string    `json:"symbol"`
	TS       time.Time `json:"ts"`
	Price    float64   `json:"price"`
	RSI      float64   `json:"rsi"`
	EMAFast  float64   `json:"ema_fast"`
	EMASlow  float64   `json:"ema_slow"`
	MACD     float64   `json:"macd"`
	Tags     []string  `json:"-"`
	Strength float64   `json:"signal_strength"`
}

// TagString renders the tag set, "neutral" when empty.
func (s SignalRow) TagString() string {
	return JoinTags(s.Tags)
}

func (s SignalRow) MarshalJSON() ([]byte, error) {
	type alias SignalRow
	return json.Marshal(struct {
		alias
		RSI  *float64 `json:"rsi"`
		Tags string   `json:"signal_tags"`
	}{alias: alias(s), RSI: NullableFloat(s.RSI), Tags: s.TagString()})
}

// JoinTags renders an ordered tag set as a comma separated string.
func JoinTags(tags []string) string {
	if len(tags) == 0 {
		return NeutralTag
	}
	return strings.Join(tags, ",")
}

// ParseTags is the inverse of JoinTags.
func ParseTags(s string) []string {
	s = strings.TrimSpace(s)
	if s == "" || s == NeutralTag {
		return nil
	}
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// NullableFloat maps NaN and Inf to nil.
func NullableFloat(v float64) *float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return nil
	}
	return &v
}

// FloatOrNaN maps nil to NaN.
func FloatOrNaN(v *float64) float64 {
	if v == nil {
		return math.NaN()
	}
	return *v
}
