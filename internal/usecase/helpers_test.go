package usecase

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"Certus/internal/domain/models"
	"Certus/internal/repository"
	"Certus/internal/services/analytics"
	pkghttp "Certus/pkg/http"
	"Certus/pkg/metrics"
	pkgsqlite "Certus/pkg/sqlite"
)

var base = time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

func newStore(t *testing.T) *repository.SQLiteStore {
	t.Helper()
	ctx := context.Background()
	c, err := pkgsqlite.Open(ctx, filepath.Join(t.TempDir(), "certus.db"), time.Second)
	require.NoError(t, err)
	s := repository.NewSQLiteStore(c, nil)
	require.NoError(t, s.Init(ctx))
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func newStages(store *repository.SQLiteStore, mode IndicatorMode) *AnalyticsStages {
	return NewAnalyticsStages(store, nil,
		analytics.NewIndicatorEngine(analytics.DefaultIndicatorParams()),
		analytics.NewScoreComposer(analytics.DefaultTierCuts()),
		mode, 0, metrics.Nop{}, nil)
}

// fakeMarkets serves pages of fixed assets; price is a function of the call
// count so consecutive cycles see a moving market.
type fakeMarkets struct {
	mu      sync.Mutex
	assets  [][2]string // id, symbol
	price   func(cycle int, asset int) float64
	failing map[int]bool
	calls   map[int]int
}

func (f *fakeMarkets) Name() string { return "fake" }

func (f *fakeMarkets) FetchMarkets(_ context.Context, page, perPage int) ([]models.MarketSnapshot, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.calls == nil {
		f.calls = map[int]int{}
	}
	cycle := f.calls[page]
	f.calls[page]++
	if f.failing[page] {
		return nil, &pkghttp.UpstreamFetchError{Source: "fake", Endpoint: "/markets", Status: 503, Attempts: 3}
	}
	var out []models.MarketSnapshot
	for i := (page - 1) * perPage; i < page*perPage && i < len(f.assets); i++ {
		out = append(out, models.MarketSnapshot{
			ID:           f.assets[i][0],
			Symbol:       f.assets[i][1],
			CurrentPrice: f.price(cycle, i),
		})
	}
	return out, nil
}

type fakeNews struct{ items []models.NewsItem }

func (f fakeNews) FetchNews(_ context.Context, limit int) ([]models.NewsItem, error) {
	if len(f.items) > limit {
		return f.items[:limit], nil
	}
	return f.items, nil
}

type fakeEvents struct{ err error }

func (f fakeEvents) FetchEvents(context.Context, int) ([]models.EventItem, error) {
	if f.err != nil {
		return nil, f.err
	}
	return []models.EventItem{{ID: "cal:1", Title: "Mainnet upgrade", Date: base.Add(48 * time.Hour), Source: "cal", Symbols: []string{"ETH"}}}, nil
}

type fakeQuotes struct {
	name   string
	prices map[string]float64
}

func (f fakeQuotes) Name() string { return f.name }

func (f fakeQuotes) FetchQuote(_ context.Context, symbol string) (models.Quote, error) {
	p, ok := f.prices[symbol]
	if !ok {
		return models.Quote{}, errors.New("no quote")
	}
	return models.Quote{Symbol: symbol, TS: base, Price: p, Provider: f.name}, nil
}

// clock returns a func advancing one minute per call.
func clock() func() time.Time {
	var mu sync.Mutex
	i := 0
	return func() time.Time {
		mu.Lock()
		defer mu.Unlock()
		t := base.Add(time.Duration(i) * time.Minute)
		i++
		return t
	}
}
