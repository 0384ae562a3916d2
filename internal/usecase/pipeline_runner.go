package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"Certus/internal/service/metrics"
	applogger "Certus/pkg/logger"
	"Certus/pkg/util"
)

// Stage names, in pipeline order.
const (
	StageMarkets    = "markets"
	StageFeeds      = "feeds"
	StageQuotes     = "quotes"
	StageIndicators = "indicators"
	StageSignals    = "signals"
	StageScores     = "scores"
	StageTrends     = "trends"
)

// DefaultStages is the full run.
var DefaultStages = []string{StageMarkets, StageFeeds, StageQuotes, StageIndicators, StageSignals, StageScores, StageTrends}

// AnalyticsOnly recomputes derived tables from what is already stored.
var AnalyticsOnly = []string{StageIndicators, StageSignals, StageScores, StageTrends}

// ErrPaused is returned by Run when the pipeline is paused.
var ErrPaused = errors.New("pipeline paused")

// StageFunc runs one stage and returns the number of rows it produced.
type StageFunc func(ctx context.Context) (int, error)

// StageResult is the outcome of one stage of a run.
type StageResult struct {
	Stage    string        `json:"stage"`
	Rows     int           `json:"rows"`
	Duration time.Duration `json:"duration"`
	Err      string        `json:"error,omitempty"`
}

// RunReport summarizes a pipeline run.
type RunReport struct {
	RunID      string        `json:"run_id"`
	Started    time.Time     `json:"started"`
	Stages     []StageResult `json:"stages"`
	Incomplete bool          `json:"incomplete"`
}

// PipelineRunner sequences the stages. The pause flag is checked once, at the
// start of a run. The first failing stage aborts the run; tables written by
// earlier stages are kept.
type PipelineRunner struct {
	stages  map[string]StageFunc
	paused  bool
	metrics *metrics.Pipeline
	l       *applogger.Logger
	newID   func() string
}

// NewPipelineRunner wires the stage functions. Any of the use cases may be nil,
// in which case its stages are skipped.
func NewPipelineRunner(
	collector *SnapshotCollector,
	feeds *FeedIngest,
	stages *AnalyticsStages,
	trends *TrendsRefresh,
	paused bool,
	m *metrics.Pipeline,
	l *applogger.Logger,
) *PipelineRunner {
	if l == nil {
		l = applogger.Nop()
	}
	r := &PipelineRunner{
		stages:  make(map[string]StageFunc),
		paused:  paused,
		metrics: m,
		l:       l.With(applogger.String("component", "pipeline")),
		newID:   func() string { return uuid.NewString() },
	}
	if collector != nil {
		r.stages[StageMarkets] = func(ctx context.Context) (int, error) {
			rep, err := collector.Collect(ctx)
			if rep.Incomplete() {
				markIncomplete(ctx)
				r.metrics.Incomplete()
				r.l.Warn("market cycle incomplete",
					applogger.String("run_id", util.RunID(ctx)),
					applogger.Int("failed_pages", len(rep.Failed)),
					applogger.Int("pages", rep.Pages),
				)
			}
			return rep.Stored, err
		}
	}
	if feeds != nil {
		r.stages[StageFeeds] = feeds.IngestFeeds
		r.stages[StageQuotes] = feeds.IngestQuotes
	}
	if stages != nil {
		r.stages[StageIndicators] = stages.Indicators
		r.stages[StageSignals] = stages.Signals
		r.stages[StageScores] = stages.Scores
	}
	if trends != nil {
		r.stages[StageTrends] = trends.Refresh
	}
	return r
}

// Register adds or replaces a stage.
func (r *PipelineRunner) Register(name string, fn StageFunc) { r.stages[name] = fn }

// ParseStages turns a comma separated list into stage names, in the given
// order. "all" or "" selects DefaultStages.
func ParseStages(s string) ([]string, error) {
	s = strings.TrimSpace(strings.ToLower(s))
	if s == "" || s == "all" {
		return DefaultStages, nil
	}
	if s == "analytics" {
		return AnalyticsOnly, nil
	}
	known := make(map[string]bool, len(DefaultStages))
	for _, st := range DefaultStages {
		known[st] = true
	}
	out := util.SplitCSV(s)
	for _, st := range out {
		if !known[st] {
			return nil, fmt.Errorf("unknown stage %q", st)
		}
	}
	return out, nil
}

type runStateKey struct{}

type runState struct{ incomplete bool }

// markIncomplete flags the current run as having missed upstream data.
func markIncomplete(ctx context.Context) {
	if st, ok := ctx.Value(runStateKey{}).(*runState); ok {
		st.incomplete = true
	}
}

// Run executes the named stages in order.
func (r *PipelineRunner) Run(ctx context.Context, names []string) (rep RunReport, err error) {
	if len(names) == 0 {
		names = DefaultStages
	}
	rep = RunReport{RunID: r.newID(), Started: time.Now().UTC()}
	l := r.l.With(applogger.String("run_id", rep.RunID))

	if r.paused {
		for _, n := range names {
			r.metrics.Skipped(n)
		}
		l.Warn("pipeline paused, skipping run")
		return rep, ErrPaused
	}

	state := &runState{}
	ctx = context.WithValue(util.WithRunID(ctx, rep.RunID), runStateKey{}, state)
	defer func() { rep.Incomplete = state.incomplete }()
	l.Info("pipeline run started", applogger.Strings("stages", names))
	for _, name := range names {
		fn, ok := r.stages[name]
		if !ok {
			r.metrics.Skipped(name)
			l.Debug("stage not configured", applogger.String("stage", name))
			continue
		}

		sl := l.With(applogger.String("stage", name))
		sl.Info("stage started")
		start := time.Now()
		rows, err := fn(ctx)
		d := time.Since(start)
		r.metrics.ObserveStage(name, rows, d, err)

		res := StageResult{Stage: name, Rows: rows, Duration: d}
		if err != nil {
			res.Err = err.Error()
			rep.Stages = append(rep.Stages, res)
			sl.Error("stage failed", applogger.Error(err), applogger.Duration("duration_ms", d))
			return rep, fmt.Errorf("stage %s: %w", name, err)
		}
		rep.Stages = append(rep.Stages, res)
		sl.Info("stage finished", applogger.Int("rows", rows), applogger.Duration("duration_ms", d))
	}
	l.Info("pipeline run finished", applogger.Duration("duration_ms", time.Since(rep.Started)))
	return rep, nil
}
