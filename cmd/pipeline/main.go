package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"Certus/internal/di"
	"Certus/internal/usecase"
	"Certus/pkg/config"
	applogger "Certus/pkg/logger"
)

func main() {
	configPath := flag.String("config", "config/config.yaml", "config file path")
	stages := flag.String("stages", "all", "comma separated stages, 'all' or 'analytics'")
	reset := flag.Bool("reset", false, "drop and recreate derived tables before running")
	backfillDays := flag.Int("backfill-days", 0, "backfill this many days of chart history first")
	backfillLimit := flag.Int("backfill-limit", 50, "number of assets to backfill")
	flag.Parse()

	cfg, err := config.LoadWithEnv(*configPath)
	if err != nil {
		log.Fatalf("config load failed: %v", err)
	}

	names, err := usecase.ParseStages(*stages)
	if err != nil {
		log.Fatalf("invalid -stages: %v", err)
	}

	p, cleanup, err := di.InitializePipeline(cfg)
	if err != nil {
		log.Fatalf("pipeline initialization failed: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := run(ctx, p, names, *reset, *backfillDays, *backfillLimit)
	stop()
	cleanup()
	os.Exit(code)
}

func run(ctx context.Context, p *di.Pipeline, names []string, reset bool, backfillDays, backfillLimit int) int {
	l := p.Logger

	if reset {
		if err := p.Store.Reset(ctx); err != nil {
			l.Error("reset failed", applogger.Error(err))
			return 1
		}
		l.Info("derived tables reset")
	}

	if backfillDays > 0 {
		targets, err := p.Backfill.Targets(ctx, backfillLimit)
		if err != nil {
			l.Error("backfill targets", applogger.Error(err))
			return 1
		}
		to := time.Now().UTC()
		n, err := p.Backfill.Backfill(ctx, targets, to.AddDate(0, 0, -backfillDays), to)
		if err != nil {
			l.Error("backfill failed", applogger.Error(err))
			return 1
		}
		l.Info("backfill done", applogger.Int("assets", len(targets)), applogger.Int("observations", n))
	}

	rep, err := p.Runner.Run(ctx, names)
	if errors.Is(err, usecase.ErrPaused) {
		l.Warn("pipeline paused, nothing to do")
		return 0
	}
	if err != nil {
		l.Error("pipeline run failed", applogger.String("run_id", rep.RunID), applogger.Error(err))
		return 1
	}
	for _, s := range rep.Stages {
		l.Info("stage",
			applogger.String("stage", s.Stage),
			applogger.Int("rows", s.Rows),
			applogger.Duration("duration", s.Duration),
		)
	}
	if rep.Incomplete {
		// partial market cycle, rows that were fetched are stored
		return 2
	}
	return 0
}
