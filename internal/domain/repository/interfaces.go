package repository

import (
	"context"
	"time"

	"Certus/internal/domain/models"
)

// ObservationFilter narrows market observation reads. Zero values mean no filter.
type ObservationFilter struct {
	AssetIDs []string
	Symbol   string
	Since    time.Time
	Limit    int
}

// MarketStore is the append-only markets table.
type MarketStore interface {
	// AppendObservations inserts rows whose (asset_id, ts) is not stored yet and
	// returns the number of inserted rows.
	AppendObservations(ctx context.Context, obs []models.MarketObservation) (int, error)
	Observations(ctx context.Context, f ObservationFilter) ([]models.MarketObservation, error)
	LatestObservations(ctx context.Context) ([]models.MarketObservation, error)
}

// IndicatorStore is owned by the indicator stage.
type IndicatorStore interface {
	// ReplaceIndicators deletes the stored rows of every asset present in rows,
	// then inserts rows.
	ReplaceIndicators(ctx context.Context, rows []models.IndicatorRow) error
	Indicators(ctx context.Context, assetIDs []string) ([]models.IndicatorRow, error)
	LatestIndicator(ctx context.Context, symbol string) (*models.IndicatorRow, error)
}

// SignalStore is owned by the signal stage.
type SignalStore interface {
	ReplaceSignals(ctx context.Context, rows []models.SignalRow) error
	Signals(ctx context.Context) ([]models.SignalRow, error)
	LatestSignal(ctx context.Context, symbol string) (*models.SignalRow, error)
}

// ScoreStore is owned by the score stage.
type ScoreStore interface {
	ReplaceScores(ctx context.Context, rows []models.ScoreRow) error
	Scores(ctx context.Context) ([]models.ScoreRow, error)
	// Leaderboard returns scores ordered by score desc then ts desc.
	Leaderboard(ctx context.Context, limit int, tier models.TrendTier) ([]models.ScoreRow, error)
	LatestScore(ctx context.Context, symbol string) (*models.ScoreRow, error)
}

// FeedStore holds news, events, quotes and the trend feed.
type FeedStore interface {
	UpsertNews(ctx context.Context, items []models.NewsItem) (int, error)
	UpsertEvents(ctx context.Context, items []models.EventItem) (int, error)
	// InsertQuotes ignores quotes already stored for (symbol, ts, provider).
	InsertQuotes(ctx context.Context, quotes []models.Quote) (int, error)
	RecentNews(ctx context.Context, symbol string, limit int) ([]models.NewsItem, error)
	RecentEvents(ctx context.Context, limit int) ([]models.EventItem, error)
	ReplaceTrends(ctx context.Context, rows []models.TrendRow) error
	// TopTrends returns rows ordered by trend score desc then ts desc.
	TopTrends(ctx context.Context, symbol string, limit int) ([]models.TrendRow, error)
}

// Store is the persistent analytical store.
type Store interface {
	MarketStore
	IndicatorStore
	SignalStore
	ScoreStore
	FeedStore
	Init(ctx context.Context) error // ensure tables
	// Reset drops and recreates the derived tables (indicators, signals,
	// scores, trends). Markets and feeds are kept.
	Reset(ctx context.Context) error
	Health(ctx context.Context) error
	Close() error
}

// Publisher forwards pipeline rows to the message bus.
type Publisher interface {
	PublishObservations(ctx context.Context, obs []models.MarketObservation) error
	PublishScores(ctx context.Context, scores []models.ScoreRow) error
	Close() error
}

type Metrics interface {
	RecordStored(table string, n int)
	RecordError(kind string)
	RecordLastPrice(symbol string, price float64)
	RecordLatency(op string, seconds float64)
}
