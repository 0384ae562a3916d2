package usecase

import (
	"context"
	"fmt"

	"Certus/internal/domain/models"
	drepo "Certus/internal/domain/repository"
	domsvc "Certus/internal/domain/service"
	applogger "Certus/pkg/logger"
	"Certus/pkg/util"
)

// EquityAssetPrefix prefixes the asset id of quote-derived observations.
const EquityAssetPrefix = "equity:"

// QuoteFeed binds a quote source to the symbols it serves.
type QuoteFeed struct {
	Source  domsvc.QuoteSource
	Symbols []string
}

// FeedIngest ingests news, events and equity quotes.
type FeedIngest struct {
	news       domsvc.NewsSource
	events     domsvc.EventSource
	quotes     []QuoteFeed
	store      drepo.Store
	metrics    drepo.Metrics
	l          *applogger.Logger
	newsLimit  int
	eventLimit int
}

// NewFeedIngest creates a FeedIngest. news and events may be nil when the
// provider is not configured.
func NewFeedIngest(news domsvc.NewsSource, events domsvc.EventSource, quotes []QuoteFeed, store drepo.Store, metrics drepo.Metrics, l *applogger.Logger) *FeedIngest {
	if l == nil {
		l = applogger.Nop()
	}
	return &FeedIngest{
		news: news, events: events, quotes: quotes, store: store, metrics: metrics,
		l:         l.With(applogger.String("component", "feed_ingest")),
		newsLimit: 50, eventLimit: 50,
	}
}

// WithLimits sets how many news and events are requested per run.
func (f *FeedIngest) WithLimits(news, events int) *FeedIngest {
	if news > 0 {
		f.newsLimit = news
	}
	if events > 0 {
		f.eventLimit = events
	}
	return f
}

// IngestNews upserts the latest news by id.
func (f *FeedIngest) IngestNews(ctx context.Context) (int, error) {
	if f.news == nil {
		return 0, nil
	}
	items, err := f.news.FetchNews(ctx, f.newsLimit)
	if err != nil {
		f.metrics.RecordError("upstream_news")
		return 0, fmt.Errorf("fetch news: %w", err)
	}
	n, err := f.store.UpsertNews(ctx, items)
	if err != nil {
		return 0, fmt.Errorf("store news: %w", err)
	}
	f.metrics.RecordStored("news", n)
	return n, nil
}

// IngestEvents upserts upcoming events by id.
func (f *FeedIngest) IngestEvents(ctx context.Context) (int, error) {
	if f.events == nil {
		return 0, nil
	}
	items, err := f.events.FetchEvents(ctx, f.eventLimit)
	if err != nil {
		f.metrics.RecordError("upstream_events")
		return 0, fmt.Errorf("fetch events: %w", err)
	}
	n, err := f.store.UpsertEvents(ctx, items)
	if err != nil {
		return 0, fmt.Errorf("store events: %w", err)
	}
	f.metrics.RecordStored("events", n)
	return n, nil
}

// IngestFeeds runs news then events. A failing provider does not stop the other.
func (f *FeedIngest) IngestFeeds(ctx context.Context) (int, error) {
	n1, err1 := f.IngestNews(ctx)
	if err1 != nil {
		f.l.Warn("news ingest failed", applogger.Error(err1))
	}
	n2, err2 := f.IngestEvents(ctx)
	if err2 != nil {
		f.l.Warn("events ingest failed", applogger.Error(err2))
	}
	if err1 != nil && err2 != nil {
		return 0, fmt.Errorf("feeds: %w; %w", err1, err2)
	}
	return n1 + n2, nil
}

// IngestQuotes fetches a quote per configured symbol. Quotes are stored in
// the quotes table and also appended to markets under "equity:<SYMBOL>" so
// the analytics stages score equities like any other asset. Symbols that
// fail are logged and skipped.
func (f *FeedIngest) IngestQuotes(ctx context.Context) (int, error) {
	var (
		quotes []models.Quote
		failed int
		asked  int
	)
	for _, qf := range f.quotes {
		for _, sym := range qf.Symbols {
			asked++
			q, err := qf.Source.FetchQuote(ctx, sym)
			if err != nil {
				failed++
				f.metrics.RecordError("upstream_" + qf.Source.Name())
				f.l.Warn("quote fetch failed",
					applogger.String("provider", qf.Source.Name()),
					applogger.String("symbol", sym),
					applogger.Error(err),
				)
				continue
			}
			quotes = append(quotes, q)
		}
	}
	if asked > 0 && failed == asked {
		return 0, fmt.Errorf("quotes: all %d requests failed", asked)
	}
	if len(quotes) == 0 {
		return 0, nil
	}

	n, err := f.store.InsertQuotes(ctx, quotes)
	if err != nil {
		return 0, fmt.Errorf("store quotes: %w", err)
	}
	f.metrics.RecordStored("quotes", n)

	if _, err := f.store.AppendObservations(ctx, QuoteObservations(quotes)); err != nil {
		return n, fmt.Errorf("append quote observations: %w", err)
	}
	return n, nil
}

// QuoteObservations maps quotes to market observations. When two providers
// quote the same symbol at the same time the first one wins.
func QuoteObservations(quotes []models.Quote) []models.MarketObservation {
	seen := make(map[string]struct{}, len(quotes))
	out := make([]models.MarketObservation, 0, len(quotes))
	for _, q := range quotes {
		if q.Price <= 0 || q.TS.IsZero() {
			continue
		}
		sym := util.NormalizeSymbol(q.Symbol)
		o := models.MarketObservation{
			TS:      q.TS.UTC(),
			AssetID: EquityAssetPrefix + sym,
			Symbol:  sym,
			Price:   q.Price,
			Source:  q.Provider,
		}
		if _, dup := seen[o.Key()]; dup {
			continue
		}
		seen[o.Key()] = struct{}{}
		out = append(out, o)
	}
	return out
}
