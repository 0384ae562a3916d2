package models

import (
	"encoding/json"
	"time"
)

// TrendTier is the discrete classification of a trend score.
type TrendTier string

const (
	TierBullish TrendTier = "bullish"
	TierNeutral TrendTier = "neutral"
	TierBearish TrendTier = "bearish"
)

// ScoreRow is the scored snapshot of one asset.
type ScoreRow struct {
	AssetID string    `json:"asset_id"`
	Symbol  string    `json:"symbol"`
	TS      time.Time `json:"ts"`
	Price   float64   `json:"price"`
	Score   float64   `json:"trend_score"`
	Tier    TrendTier `json:"trend_tier"`
	Tags    []string  `json:"-"`
}

func (s ScoreRow) MarshalJSON() ([]byte, error) {
	type alias ScoreRow
	return json.Marshal(struct {
		alias
		Tags string `json:"signal_tags"`
	}{alias: alias(s), Tags: JoinTags(s.Tags)})
}

// LeaderboardRow is one entry of the latest scored leaderboard.
type LeaderboardRow struct {
	Symbol     string    `json:"symbol"`
	Price      float64   `json:"price"`
	TrendScore float64   `json:"trend_score"`
	TrendTier  TrendTier `json:"trend_tier"`
	SignalTags string    `json:"signal_tags"`
}

// Leaderboard projects a score row into a leaderboard row.
func (s ScoreRow) Leaderboard() LeaderboardRow {
	return LeaderboardRow{
		Symbol:     s.Symbol,
		Price:      s.Price,
		TrendScore: s.Score,
		TrendTier:  s.Tier,
		SignalTags: JoinTags(s.Tags),
	}
}
