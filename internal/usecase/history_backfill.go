package usecase

import (
	"context"
	"fmt"
	"time"

	drepo "Certus/internal/domain/repository"
	domsvc "Certus/internal/domain/service"
	applogger "Certus/pkg/logger"
	"Certus/pkg/util"
)

// BackfillTarget names one asset to backfill.
type BackfillTarget struct {
	AssetID string
	Symbol  string
}

// HistoryBackfill loads historical chart ranges into the markets table.
type HistoryBackfill struct {
	chart  domsvc.ChartSource
	source string
	store  drepo.MarketStore
	l      *applogger.Logger
}

func NewHistoryBackfill(chart domsvc.ChartSource, source string, store drepo.MarketStore, l *applogger.Logger) *HistoryBackfill {
	if l == nil {
		l = applogger.Nop()
	}
	return &HistoryBackfill{chart: chart, source: source, store: store, l: l}
}

// Backfill fetches [from, to] for every target and appends the samples.
// Already stored (asset_id, ts) pairs are skipped, so reruns are safe.
// It returns the number of inserted rows.
func (b *HistoryBackfill) Backfill(ctx context.Context, targets []BackfillTarget, from, to time.Time) (int, error) {
	if !from.Before(to) {
		return 0, fmt.Errorf("backfill: from %s is not before to %s", from.Format(time.RFC3339), to.Format(time.RFC3339))
	}
	total := 0
	for _, t := range targets {
		series, err := b.chart.FetchChartRange(ctx, t.AssetID, from, to)
		if err != nil {
			return total, fmt.Errorf("backfill %s: %w", t.AssetID, err)
		}
		obs := series.Observations(util.NormalizeSymbol(t.Symbol), b.source)
		n, err := b.store.AppendObservations(ctx, obs)
		if err != nil {
			return total, fmt.Errorf("backfill %s: %w", t.AssetID, err)
		}
		total += n
		b.l.Info("backfilled",
			applogger.String("asset_id", t.AssetID),
			applogger.Int("points", len(obs)),
			applogger.Int("inserted", n),
		)
	}
	return total, nil
}

// Targets returns the latest known assets as backfill targets.
func (b *HistoryBackfill) Targets(ctx context.Context, limit int) ([]BackfillTarget, error) {
	latest, err := b.store.LatestObservations(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]BackfillTarget, 0, len(latest))
	for _, o := range latest {
		if limit > 0 && len(out) >= limit {
			break
		}
		out = append(out, BackfillTarget{AssetID: o.AssetID, Symbol: o.Symbol})
	}
	return out, nil
}
