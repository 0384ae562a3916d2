package usecase

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"Certus/internal/domain/models"
	drepo "Certus/internal/domain/repository"
	domsvc "Certus/internal/domain/service"
	mid "Certus/internal/middleware"
	applogger "Certus/pkg/logger"
	"Certus/pkg/util"
)

// Pacer spaces out upstream calls sharing one key.
type Pacer interface {
	Wait(ctx context.Context, key string, capacity, refillPerSec float64) error
}

// CollectorConfig controls how many pages one cycle fetches.
type CollectorConfig struct {
	Pages       int
	PerPage     int
	Workers     int
	PagesPerSec float64 // <= 0 disables pacing
}

// PageError records a page that could not be fetched in a cycle.
type PageError struct {
	Page int    `json:"page"`
	Err  string `json:"error"`
}

// CollectReport summarizes one fetch cycle.
type CollectReport struct {
	Cycle    time.Time   `json:"cycle"`
	Pages    int         `json:"pages"`
	Fetched  int         `json:"fetched"`
	Stored   int         `json:"stored"`
	Failed   []PageError `json:"failed,omitempty"`
	Duration time.Duration
}

// Incomplete reports whether any page of the cycle failed.
func (r CollectReport) Incomplete() bool { return len(r.Failed) > 0 }

// SnapshotCollector fetches one market snapshot cycle with a bounded worker
// pool over pages and delivers all rows stamped with the cycle time.
type SnapshotCollector struct {
	src     domsvc.MarketSource
	sink    mid.Sink
	pacer   Pacer
	cfg     CollectorConfig
	metrics drepo.Metrics
	l       *applogger.Logger
	now     func() time.Time
}

// NewSnapshotCollector creates a new SnapshotCollector. pacer may be nil.
func NewSnapshotCollector(src domsvc.MarketSource, sink mid.Sink, pacer Pacer, cfg CollectorConfig, metrics drepo.Metrics, l *applogger.Logger) *SnapshotCollector {
	if cfg.Pages < 1 {
		cfg.Pages = 1
	}
	if cfg.PerPage < 1 {
		cfg.PerPage = 250
	}
	cfg.Workers = util.ClampInt(cfg.Workers, 1, 20)
	if l == nil {
		l = applogger.Nop()
	}
	return &SnapshotCollector{
		src: src, sink: sink, pacer: pacer, cfg: cfg, metrics: metrics,
		l:   l.With(applogger.String("component", "snapshot_collector"), applogger.String("source", src.Name())),
		now: time.Now,
	}
}

// WithClock overrides the cycle clock.
func (c *SnapshotCollector) WithClock(now func() time.Time) *SnapshotCollector {
	c.now = now
	return c
}

type pageResult struct {
	page int
	obs  []models.MarketObservation
	err  error
}

// Collect runs one cycle. Page failures do not fail the cycle: they are
// logged and listed in the report. A delivery failure is returned.
func (c *SnapshotCollector) Collect(ctx context.Context) (CollectReport, error) {
	start := time.Now()
	cycle := util.CycleTime(c.now(), time.Second)
	rep := CollectReport{Cycle: cycle, Pages: c.cfg.Pages}

	jobs := make(chan int)
	results := make(chan pageResult, c.cfg.Pages)
	var wg sync.WaitGroup
	for w := 0; w < c.cfg.Workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for page := range jobs {
				obs, err := c.fetchPage(ctx, page, cycle)
				results <- pageResult{page: page, obs: obs, err: err}
			}
		}()
	}

	go func() {
		defer close(jobs)
		for page := 1; page <= c.cfg.Pages; page++ {
			select {
			case jobs <- page:
			case <-ctx.Done():
				return
			}
		}
	}()
	go func() { wg.Wait(); close(results) }()

	byPage := make(map[int][]models.MarketObservation, c.cfg.Pages)
	done := make(map[int]bool, c.cfg.Pages)
	for r := range results {
		done[r.page] = true
		if r.err != nil {
			c.metrics.RecordError("upstream_" + c.src.Name())
			c.l.Warn("page fetch failed", applogger.Int("page", r.page), applogger.Error(r.err))
			rep.Failed = append(rep.Failed, PageError{Page: r.page, Err: r.err.Error()})
			continue
		}
		byPage[r.page] = r.obs
	}
	// pages never dispatched because ctx ended
	for page := 1; page <= c.cfg.Pages; page++ {
		if !done[page] {
			msg := "not fetched"
			if err := ctx.Err(); err != nil {
				msg = err.Error()
			}
			rep.Failed = append(rep.Failed, PageError{Page: page, Err: msg})
		}
	}
	sort.Slice(rep.Failed, func(i, j int) bool { return rep.Failed[i].Page < rep.Failed[j].Page })

	var all []models.MarketObservation
	for page := 1; page <= c.cfg.Pages; page++ {
		all = append(all, byPage[page]...)
	}
	rep.Fetched = len(all)

	if len(all) > 0 {
		n, err := c.sink.Deliver(ctx, all)
		if err != nil {
			rep.Duration = time.Since(start)
			return rep, fmt.Errorf("deliver cycle %s: %w", cycle.Format(time.RFC3339), err)
		}
		rep.Stored = n
	}
	rep.Duration = time.Since(start)
	c.metrics.RecordLatency("collect_cycle", rep.Duration.Seconds())
	return rep, nil
}

func (c *SnapshotCollector) fetchPage(ctx context.Context, page int, cycle time.Time) ([]models.MarketObservation, error) {
	if c.pacer != nil && c.cfg.PagesPerSec > 0 {
		if err := c.pacer.Wait(ctx, "markets:"+c.src.Name(), 1, c.cfg.PagesPerSec); err != nil {
			return nil, err
		}
	}
	snaps, err := c.src.FetchMarkets(ctx, page, c.cfg.PerPage)
	if err != nil {
		return nil, fmt.Errorf("page %d: %w", page, err)
	}
	obs := make([]models.MarketObservation, 0, len(snaps))
	for _, s := range snaps {
		obs = append(obs, s.Observation(cycle, c.src.Name()))
	}
	return obs, nil
}
