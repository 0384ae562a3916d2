package usecase

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"Certus/internal/domain/models"
	drepo "Certus/internal/domain/repository"
	"Certus/internal/repository"
	"Certus/pkg/util"
)

const (
	DefaultTrendsLimit = 20
	MaxTrendsLimit     = 200
	DefaultBoardLimit  = 50
	MaxBoardLimit      = 500
)

// ErrUnknownSymbol is returned when nothing is stored for a symbol.
var ErrUnknownSymbol = errors.New("unknown symbol")

// QueryUseCase serves the read side of the API.
type QueryUseCase struct {
	store   drepo.Store
	timeout time.Duration
}

func NewQueryUseCase(store drepo.Store) *QueryUseCase {
	return &QueryUseCase{store: store, timeout: 10 * time.Second}
}

// Trends returns the top trend rows, optionally for one symbol. limit is
// clamped to 1..200; 0 selects the default of 20.
func (q *QueryUseCase) Trends(ctx context.Context, symbol string, limit int) ([]models.TrendRow, error) {
	if limit == 0 {
		limit = DefaultTrendsLimit
	}
	limit = util.ClampInt(limit, 1, MaxTrendsLimit)
	return q.store.TopTrends(ctx, util.NormalizeSymbol(symbol), limit)
}

// Leaderboard returns the latest scored assets ordered by score.
func (q *QueryUseCase) Leaderboard(ctx context.Context, limit int, tier models.TrendTier) ([]models.LeaderboardRow, error) {
	if limit == 0 {
		limit = DefaultBoardLimit
	}
	limit = util.ClampInt(limit, 1, MaxBoardLimit)
	rows, err := q.store.Leaderboard(ctx, limit, tier)
	if err != nil {
		return nil, err
	}
	out := make([]models.LeaderboardRow, len(rows))
	for i, r := range rows {
		out[i] = r.Leaderboard()
	}
	return out, nil
}

// History returns the most recent observations of a symbol, oldest first.
func (q *QueryUseCase) History(ctx context.Context, symbol string, limit int) ([]models.MarketObservation, error) {
	symbol = util.NormalizeSymbol(symbol)
	if symbol == "" {
		return nil, fmt.Errorf("symbol required")
	}
	rows, err := q.store.Observations(ctx, drepo.ObservationFilter{Symbol: symbol, Limit: limit})
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, ErrUnknownSymbol
	}
	return rows, nil
}

// Overview loads the latest market row, indicator, signal, score and recent
// news of a symbol concurrently.
func (q *QueryUseCase) Overview(ctx context.Context, symbol string, news int) (*models.AssetOverview, error) {
	symbol = util.NormalizeSymbol(symbol)
	if symbol == "" {
		return nil, fmt.Errorf("symbol required")
	}

	ctx, cancel := context.WithTimeout(ctx, q.timeout)
	defer cancel()

	res := &models.AssetOverview{
		Symbol:    symbol,
		Timestamp: time.Now().UTC(),
		Errors:    map[string]string{},
	}

	type item struct {
		name string
		val  interface{}
		err  error
	}
	ch := make(chan item, 5)
	var wg sync.WaitGroup
	spawn := func(name string, fn func() (interface{}, error)) {
		wg.Add(1)
		go func() {
			defer wg.Done()
			v, err := fn()
			ch <- item{name, v, err}
		}()
	}

	spawn("market", func() (interface{}, error) {
		rows, err := q.store.Observations(ctx, drepo.ObservationFilter{Symbol: symbol, Limit: 1})
		if err != nil || len(rows) == 0 {
			return nil, err
		}
		latest := rows[len(rows)-1]
		for _, r := range rows {
			if r.TS.After(latest.TS) {
				latest = r
			}
		}
		return &latest, nil
	})
	spawn("indicator", func() (interface{}, error) { return q.store.LatestIndicator(ctx, symbol) })
	spawn("signal", func() (interface{}, error) { return q.store.LatestSignal(ctx, symbol) })
	spawn("score", func() (interface{}, error) { return q.store.LatestScore(ctx, symbol) })
	if news > 0 {
		spawn("news", func() (interface{}, error) { return q.store.RecentNews(ctx, symbol, news) })
	}

	go func() { wg.Wait(); close(ch) }()

	for it := range ch {
		if it.err != nil {
			if !repository.IsNotFound(it.err) {
				res.Errors[it.name] = it.err.Error()
			}
			continue
		}
		switch v := it.val.(type) {
		case *models.MarketObservation:
			res.Market = v
		case *models.IndicatorRow:
			res.Indicator = v
		case *models.SignalRow:
			res.Signal = v
		case *models.ScoreRow:
			res.Score = v
		case []models.NewsItem:
			res.News = v
		}
	}

	if len(res.Errors) == 0 {
		res.Errors = nil
		if res.Empty() {
			return nil, ErrUnknownSymbol
		}
	}
	return res, nil
}
