package models

import "time"

// Trend feed kinds.
const (
	KindScore = "score"
	KindNews  = "news"
	KindEvent = "event"
)

// NewsItem is a news post linked to zero or more asset symbols.
type NewsItem struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	URL         string    `json:"url,omitempty"`
	Source      string    `json:"source"`
	PublishedAt time.Time `json:"published_at"`
	Symbols     []string  `json:"symbols,omitempty"`
}

// EventItem is a scheduled market event (listing, upgrade, unlock...).
type EventItem struct {
	ID       string    `json:"id"`
	Title    string    `json:"title"`
	Date     time.Time `json:"date"`
	Source   string    `json:"source"`
	Category string    `json:"category,omitempty"`
	Symbols  []string  `json:"symbols,omitempty"`
}

// Quote is a point-in-time equity quote.
type Quote struct {
	Symbol    string    `json:"symbol"`
	TS        time.Time `json:"ts"`
	Price     float64   `json:"price"`
	Open      float64   `json:"open"`
	High      float64   `json:"high"`
	Low       float64   `json:"low"`
	PrevClose float64   `json:"prev_close"`
	Provider  string    `json:"provider"`
}

// TrendRow is one row of the trend feed served to the presentation layer.
type TrendRow struct {
	Kind       string    `json:"kind"`
	SourceID   string    `json:"-"`
	TS         time.Time `json:"ts"`
	Symbol     string    `json:"symbol"`
	Title      string    `json:"title"`
	TrendScore float64   `json:"trend_score"`
	LastPrice  *float64  `json:"last_price"`
	Source     string    `json:"source"`
}
