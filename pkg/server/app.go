package server

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	domrepo "Certus/internal/domain/repository"
	mid "Certus/internal/middleware"
	"Certus/internal/scheduler"
	"Certus/internal/usecase"
	"Certus/pkg/config"
	xhttp "Certus/pkg/http"
	pkgkafka "Certus/pkg/kafka"
	applogger "Certus/pkg/logger"
)

// App encapsulates the entire application lifecycle: the query API, the
// stage scheduler, the snapshot redelivery loop and, with the kafka
// transport, the snapshot consumer.
type App struct {
	cfg        *config.Config
	l          *applogger.Logger
	store      domrepo.Store
	httpServer *xhttp.Server
	scheduler  *scheduler.Scheduler
	pipe       *mid.SnapshotPipeline
	consumer   *pkgkafka.Consumer
	handler    *usecase.SnapshotHandler
}

// New creates a new App instance with all dependencies. consumer and handler
// may be nil.
func New(
	cfg *config.Config,
	l *applogger.Logger,
	store domrepo.Store,
	httpServer *xhttp.Server,
	sched *scheduler.Scheduler,
	pipe *mid.SnapshotPipeline,
	consumer *pkgkafka.Consumer,
	handler *usecase.SnapshotHandler,
) *App {
	if l == nil {
		l = applogger.Nop()
	}
	return &App{
		cfg:        cfg,
		l:          l,
		store:      store,
		httpServer: httpServer,
		scheduler:  sched,
		pipe:       pipe,
		consumer:   consumer,
		handler:    handler,
	}
}

// Run starts the application and blocks until interrupted.
func (a *App) Run() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return a.RunContext(ctx)
}

// RunContext starts all components and blocks until ctx is done.
func (a *App) RunContext(ctx context.Context) error {
	bg, cancel := context.WithCancel(context.Background())
	defer cancel()

	hctx, hcancel := context.WithTimeout(ctx, 5*time.Second)
	err := a.store.Health(hctx)
	hcancel()
	if err != nil {
		a.l.Error("store health check failed", applogger.Error(err))
		return err
	}

	if a.pipe != nil {
		a.pipe.Start(bg)
	}

	if a.consumer != nil && a.handler != nil {
		a.consumer.WithHook(pkgkafka.RunIDHook{L: a.l, Slow: 2 * time.Second})
		a.consumer.RegisterHandler(a.handler)
		if err := a.consumer.Start(bg); err != nil {
			a.l.Error("kafka consumer start error", applogger.Error(err))
			return err
		}
		a.l.Info("kafka consumer started", applogger.String("topic", a.handler.Topic()))
	}

	if a.scheduler != nil && a.cfg.Scheduler.Enabled {
		a.scheduler.Start()
	}

	if err := a.httpServer.Start(); err != nil {
		a.l.Error("http server start error", applogger.Error(err))
		return err
	}
	if a.cfg.Paused {
		a.l.Warn("pipeline is paused, scheduled runs will be skipped")
	}

	<-ctx.Done()
	a.l.Info("shutdown signal received")
	return a.shutdown()
}

// shutdown gracefully stops all services.
func (a *App) shutdown() error {
	ctx, cancel := context.WithTimeout(context.Background(), a.cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := a.httpServer.Stop(ctx); err != nil {
		a.l.Error("http shutdown error", applogger.Error(err))
	}
	if a.scheduler != nil {
		a.scheduler.Stop(ctx)
	}
	if a.consumer != nil {
		if err := a.consumer.Stop(ctx); err != nil {
			a.l.Warn("kafka consumer stop error", applogger.Error(err))
		}
	}
	if a.pipe != nil {
		a.pipe.Stop()
		if n := a.pipe.Buffered(); n > 0 {
			a.l.Warn("dropping undelivered snapshot batches", applogger.Int("batches", n))
		}
	}

	a.l.Info("shutdown complete")
	return nil
}
