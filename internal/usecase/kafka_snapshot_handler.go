package usecase

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/segmentio/kafka-go"

	"Certus/internal/domain/models"
	domrepo "Certus/internal/domain/repository"
	pkgkafka "Certus/pkg/kafka"
	applogger "Certus/pkg/logger"
)

// SnapshotHandler consumes market observations from Kafka and appends them
// to the store. Appends are idempotent so redelivered messages are harmless.
type SnapshotHandler struct {
	topic   string
	store   domrepo.MarketStore
	metrics domrepo.Metrics
	l       *applogger.Logger
}

func NewSnapshotHandler(topic string, store domrepo.MarketStore, metrics domrepo.Metrics, l *applogger.Logger) *SnapshotHandler {
	if l == nil {
		l = applogger.Nop()
	}
	return &SnapshotHandler{topic: topic, store: store, metrics: metrics, l: l}
}

func (h *SnapshotHandler) Topic() string { return h.topic }

func (h *SnapshotHandler) Handle(ctx context.Context, km kafka.Message) error {
	var o models.MarketObservation
	if err := json.Unmarshal(km.Value, &o); err != nil {
		h.metrics.RecordError("consumer_unmarshal")
		return fmt.Errorf("decode observation: %w", err)
	}
	if !o.TS.IsZero() {
		h.metrics.RecordLatency("ingest_e2e_seconds", time.Since(o.TS).Seconds())
	}

	start := time.Now()
	n, err := h.store.AppendObservations(ctx, []models.MarketObservation{o})
	h.metrics.RecordLatency("store_append_seconds", time.Since(start).Seconds())
	if err != nil {
		h.metrics.RecordError("consumer_store")
		return err
	}
	h.metrics.RecordStored("markets", n)
	if n == 0 {
		h.l.Debug("duplicate observation skipped",
			applogger.String("asset_id", o.AssetID),
			applogger.String("run_id", pkgkafka.RunID(ctx)),
		)
	}
	return nil
}

var _ pkgkafka.MessageHandler = (*SnapshotHandler)(nil)
