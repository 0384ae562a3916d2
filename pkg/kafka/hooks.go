package kafka

import (
	"context"
	"time"

	"github.com/segmentio/kafka-go"

	applogger "Certus/pkg/logger"
	"Certus/pkg/util"
)

// ConsumerHook wraps message handling. A non-nil error from BeforeHandle
// skips the handler and counts as a failed attempt.
type ConsumerHook interface {
	BeforeHandle(ctx context.Context, km kafka.Message) (context.Context, error)
	AfterHandle(ctx context.Context, km kafka.Message, err error)
	OnError(ctx context.Context, km kafka.Message, err error)
}

type NoopHook struct{}

func (NoopHook) BeforeHandle(ctx context.Context, _ kafka.Message) (context.Context, error) {
	return ctx, nil
}

func (NoopHook) AfterHandle(context.Context, kafka.Message, error) {}

func (NoopHook) OnError(context.Context, kafka.Message, error) {}

type ctxKey string

const ctxStartTime ctxKey = "kafka_start_time"

// RunID returns the run id stored by RunIDHook, or "".
func RunID(ctx context.Context) string { return util.RunID(ctx) }

// RunIDHook copies the run_id header into the context and logs slow or
// failed messages.
type RunIDHook struct {
	L    *applogger.Logger
	Slow time.Duration
}

func (h RunIDHook) BeforeHandle(ctx context.Context, km kafka.Message) (context.Context, error) {
	ctx = context.WithValue(ctx, ctxStartTime, time.Now())
	return util.WithRunID(ctx, Header(km, HeaderRunID)), nil
}

func (h RunIDHook) AfterHandle(ctx context.Context, km kafka.Message, err error) {
	if h.L == nil || err != nil {
		return
	}
	start, ok := ctx.Value(ctxStartTime).(time.Time)
	if !ok || h.Slow <= 0 {
		return
	}
	if d := time.Since(start); d > h.Slow {
		h.L.Warn("slow message",
			applogger.String("topic", km.Topic),
			applogger.String("run_id", RunID(ctx)),
			applogger.Duration("duration_ms", d),
		)
	}
}

func (h RunIDHook) OnError(ctx context.Context, km kafka.Message, err error) {
	if h.L == nil {
		return
	}
	h.L.Warn("message attempt failed",
		applogger.String("topic", km.Topic),
		applogger.String("run_id", RunID(ctx)),
		applogger.Error(err),
	)
}
