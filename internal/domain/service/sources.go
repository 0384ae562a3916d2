package service

import (
	"context"
	"time"

	"Certus/internal/domain/models"
)

// MarketSource returns paged market listings ordered by market cap.
type MarketSource interface {
	Name() string
	FetchMarkets(ctx context.Context, page, perPage int) ([]models.MarketSnapshot, error)
}

// ChartSource returns historical price, market cap and volume series.
type ChartSource interface {
	FetchChartRange(ctx context.Context, assetID string, from, to time.Time) (models.ChartSeries, error)
}

// NewsSource returns the latest news items.
type NewsSource interface {
	FetchNews(ctx context.Context, limit int) ([]models.NewsItem, error)
}

// EventSource returns upcoming market events.
type EventSource interface {
	FetchEvents(ctx context.Context, limit int) ([]models.EventItem, error)
}

// QuoteSource returns a current equity quote.
type QuoteSource interface {
	Name() string
	FetchQuote(ctx context.Context, symbol string) (models.Quote, error)
}
