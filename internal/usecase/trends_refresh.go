package usecase

import (
	"context"
	"fmt"
	"sort"

	"Certus/internal/domain/models"
	drepo "Certus/internal/domain/repository"
	"Certus/internal/services/analytics"
	applogger "Certus/pkg/logger"
	"Certus/pkg/util"
)

// TrendsRefresh rebuilds the trend feed from the latest scores, news and
// events. Feed items are exploded per linked symbol; items without a symbol
// are not part of the feed.
type TrendsRefresh struct {
	store     drepo.Store
	feedLimit int
	l         *applogger.Logger
}

func NewTrendsRefresh(store drepo.Store, l *applogger.Logger) *TrendsRefresh {
	if l == nil {
		l = applogger.Nop()
	}
	return &TrendsRefresh{store: store, feedLimit: 500, l: l}
}

// Refresh replaces the trends table and returns the number of rows written.
func (t *TrendsRefresh) Refresh(ctx context.Context) (int, error) {
	scores, err := t.store.Scores(ctx)
	if err != nil {
		return 0, fmt.Errorf("read scores: %w", err)
	}
	latest, err := t.store.LatestObservations(ctx)
	if err != nil {
		return 0, fmt.Errorf("read markets: %w", err)
	}
	news, err := t.store.RecentNews(ctx, "", t.feedLimit)
	if err != nil {
		return 0, fmt.Errorf("read news: %w", err)
	}
	events, err := t.store.RecentEvents(ctx, t.feedLimit)
	if err != nil {
		return 0, fmt.Errorf("read events: %w", err)
	}

	rows := BuildTrends(scores, latest, news, events)
	if err := t.store.ReplaceTrends(ctx, rows); err != nil {
		return 0, fmt.Errorf("write trends: %w", err)
	}
	return len(rows), nil
}

// BuildTrends assembles trend rows. A feed row carries the trend score of the
// asset its symbol resolves to, or the neutral baseline when that asset is
// unscored. last_price comes from the latest market row of the symbol.
func BuildTrends(scores []models.ScoreRow, latest []models.MarketObservation, news []models.NewsItem, events []models.EventItem) []models.TrendRow {
	scoreBySym := make(map[string]models.ScoreRow, len(scores))
	for _, s := range scores {
		sym := util.NormalizeSymbol(s.Symbol)
		// several assets may share a ticker; the most recent score wins
		if cur, ok := scoreBySym[sym]; !ok || s.TS.After(cur.TS) {
			scoreBySym[sym] = s
		}
	}
	priceBySym := make(map[string]models.MarketObservation, len(latest))
	for _, o := range latest {
		sym := util.NormalizeSymbol(o.Symbol)
		if cur, ok := priceBySym[sym]; !ok || o.TS.After(cur.TS) {
			priceBySym[sym] = o
		}
	}
	lastPrice := func(sym string) (*float64, string) {
		if o, ok := priceBySym[sym]; ok {
			p := o.Price
			return &p, o.Source
		}
		return nil, ""
	}
	scoreOf := func(sym string) float64 {
		if s, ok := scoreBySym[sym]; ok {
			return s.Score
		}
		return analytics.ScoreBaseline
	}

	out := make([]models.TrendRow, 0, len(scores)+len(news)+len(events))
	for _, s := range scores {
		sym := util.NormalizeSymbol(s.Symbol)
		price, src := lastPrice(sym)
		if price == nil {
			p := s.Price
			price = &p
		}
		out = append(out, models.TrendRow{
			Kind:       models.KindScore,
			SourceID:   s.AssetID,
			TS:         s.TS,
			Symbol:     sym,
			Title:      fmt.Sprintf("%s %s (%s)", sym, s.Tier, models.JoinTags(s.Tags)),
			TrendScore: s.Score,
			LastPrice:  price,
			Source:     src,
		})
	}
	for _, n := range news {
		for _, sym := range uniqueSymbols(n.Symbols) {
			price, _ := lastPrice(sym)
			out = append(out, models.TrendRow{
				Kind: models.KindNews, SourceID: n.ID, TS: n.PublishedAt, Symbol: sym,
				Title: n.Title, TrendScore: scoreOf(sym), LastPrice: price, Source: n.Source,
			})
		}
	}
	for _, e := range events {
		for _, sym := range uniqueSymbols(e.Symbols) {
			price, _ := lastPrice(sym)
			out = append(out, models.TrendRow{
				Kind: models.KindEvent, SourceID: e.ID, TS: e.Date, Symbol: sym,
				Title: e.Title, TrendScore: scoreOf(sym), LastPrice: price, Source: e.Source,
			})
		}
	}

	sort.SliceStable(out, func(i, j int) bool {
		if out[i].TrendScore != out[j].TrendScore {
			return out[i].TrendScore > out[j].TrendScore
		}
		return out[i].TS.After(out[j].TS)
	})
	return out
}

func uniqueSymbols(in []string) []string {
	seen := make(map[string]struct{}, len(in))
	out := make([]string, 0, len(in))
	for _, s := range in {
		s = util.NormalizeSymbol(s)
		if s == "" {
			continue
		}
		if _, ok := seen[s]; ok {
			continue
		}
		seen[s] = struct{}{}
		out = append(out, s)
	}
	return out
}
