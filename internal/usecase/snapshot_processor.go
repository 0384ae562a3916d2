package usecase

import (
	"context"
	"fmt"
	"time"

	"Certus/internal/domain/models"
	drepo "Certus/internal/domain/repository"
)

// SnapshotProcessor routes accepted market observations to the configured
// transport: straight into the store, or onto the markets topic where
// SnapshotHandler picks them up.
type SnapshotProcessor struct {
	store     drepo.MarketStore
	pub       drepo.Publisher
	metrics   drepo.Metrics
	transport drepo.Transport
}

// NewSnapshotProcessor creates a new SnapshotProcessor. pub may be nil for
// the direct transport.
func NewSnapshotProcessor(store drepo.MarketStore, pub drepo.Publisher, metrics drepo.Metrics, transport drepo.Transport) *SnapshotProcessor {
	return &SnapshotProcessor{store: store, pub: pub, metrics: metrics, transport: transport}
}

// Deliver stores or publishes obs and returns the number of rows handed over.
// For the direct transport this is the number of newly inserted rows.
func (p *SnapshotProcessor) Deliver(ctx context.Context, obs []models.MarketObservation) (int, error) {
	if len(obs) == 0 {
		return 0, nil
	}
	start := time.Now()

	var (
		n   int
		err error
	)
	switch p.transport {
	case drepo.TransportKafka:
		if p.pub == nil {
			return 0, fmt.Errorf("kafka transport without publisher")
		}
		err = p.pub.PublishObservations(ctx, obs)
		n = len(obs)
	case drepo.TransportDirect, "":
		n, err = p.store.AppendObservations(ctx, obs)
		if err == nil {
			p.metrics.RecordStored("markets", n)
		}
	default:
		err = fmt.Errorf("unknown transport: %s", p.transport)
	}
	if err != nil {
		p.metrics.RecordError("process")
		return 0, fmt.Errorf("process snapshots: %w", err)
	}

	for _, o := range obs {
		p.metrics.RecordLastPrice(o.Symbol, o.Price)
	}
	p.metrics.RecordLatency("process_batch", time.Since(start).Seconds())
	return n, nil
}
