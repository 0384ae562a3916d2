package usecase

import (
	"context"
	"fmt"

	"Certus/internal/domain/models"
	drepo "Certus/internal/domain/repository"
	"Certus/internal/services/analytics"
	applogger "Certus/pkg/logger"
)

// IndicatorMode selects the representation written by the indicator stage.
type IndicatorMode string

const (
	ModeSeries IndicatorMode = "series" // one row per observation
	ModeLatest IndicatorMode = "latest" // one row per asset
)

// AnalyticsStages runs the derived stages: indicators, signals and scores.
// Each stage reads its upstream table, computes every new row in memory and
// only then replaces its own table.
type AnalyticsStages struct {
	store    drepo.Store
	pub      drepo.Publisher
	engine   *analytics.IndicatorEngine
	deriver  *analytics.SignalDeriver
	composer *analytics.ScoreComposer
	mode     IndicatorMode
	lookback int
	metrics  drepo.Metrics
	l        *applogger.Logger
}

// NewAnalyticsStages creates the stage set. pub may be nil; when set, fresh
// scores are published after they are stored.
func NewAnalyticsStages(
	store drepo.Store,
	pub drepo.Publisher,
	engine *analytics.IndicatorEngine,
	composer *analytics.ScoreComposer,
	mode IndicatorMode,
	lookback int,
	metrics drepo.Metrics,
	l *applogger.Logger,
) *AnalyticsStages {
	if mode != ModeLatest {
		mode = ModeSeries
	}
	if l == nil {
		l = applogger.Nop()
	}
	return &AnalyticsStages{
		store: store, pub: pub, engine: engine, deriver: analytics.NewSignalDeriver(),
		composer: composer, mode: mode, lookback: lookback, metrics: metrics,
		l: l.With(applogger.String("component", "analytics")),
	}
}

// Indicators recomputes indicator rows from the most recent lookback
// observations of every asset.
func (s *AnalyticsStages) Indicators(ctx context.Context) (int, error) {
	obs, err := s.store.Observations(ctx, drepo.ObservationFilter{Limit: s.lookback})
	if err != nil {
		return 0, fmt.Errorf("read markets: %w", err)
	}
	if len(obs) == 0 {
		s.l.Info("no observations, indicators unchanged")
		return 0, nil
	}

	var rows []models.IndicatorRow
	if s.mode == ModeLatest {
		rows, err = s.engine.ComputeLatest(obs)
	} else {
		rows, err = s.engine.Compute(obs)
	}
	if err != nil {
		return 0, err
	}
	if err := s.store.ReplaceIndicators(ctx, rows); err != nil {
		return 0, fmt.Errorf("write indicators: %w", err)
	}
	s.metrics.RecordStored("indicators", len(rows))
	return len(rows), nil
}

// Signals derives one signal row per asset from the stored indicators.
func (s *AnalyticsStages) Signals(ctx context.Context) (int, error) {
	ind, err := s.store.Indicators(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("read indicators: %w", err)
	}
	if len(ind) == 0 {
		s.l.Info("no indicators, signals unchanged")
		return 0, nil
	}
	rows, err := s.deriver.Derive(ind)
	if err != nil {
		return 0, err
	}
	if err := s.store.ReplaceSignals(ctx, rows); err != nil {
		return 0, fmt.Errorf("write signals: %w", err)
	}
	s.metrics.RecordStored("signals", len(rows))
	return len(rows), nil
}

// Scores scores the latest indicator row of every asset and attaches the
// asset's signal tags.
func (s *AnalyticsStages) Scores(ctx context.Context) (int, error) {
	ind, err := s.store.Indicators(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("read indicators: %w", err)
	}
	if len(ind) == 0 {
		s.l.Info("no indicators, scores unchanged")
		return 0, nil
	}
	sig, err := s.store.Signals(ctx)
	if err != nil {
		return 0, fmt.Errorf("read signals: %w", err)
	}
	rows, err := s.composer.Compose(ind, sig)
	if err != nil {
		return 0, err
	}
	if err := s.store.ReplaceScores(ctx, rows); err != nil {
		return 0, fmt.Errorf("write scores: %w", err)
	}
	s.metrics.RecordStored("scores", len(rows))

	if s.pub != nil {
		if err := s.pub.PublishScores(ctx, rows); err != nil {
			// scores are already stored; publish failures are logged only
			s.metrics.RecordError("publish_scores")
			s.l.Warn("publish scores failed", applogger.Error(err))
		}
	}
	return len(rows), nil
}

// ScoreSeries returns the scored history of one asset without persisting it.
func (s *AnalyticsStages) ScoreSeries(ctx context.Context, assetID string) ([]models.ScoreRow, error) {
	ind, err := s.store.Indicators(ctx, []string{assetID})
	if err != nil {
		return nil, fmt.Errorf("read indicators: %w", err)
	}
	return s.composer.ComposeSeries(ind)
}
