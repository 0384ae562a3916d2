package middleware

import (
	"context"
	"fmt"
	"math"
	"sync"
	"time"

	"Certus/internal/domain/models"
	domrepo "Certus/internal/domain/repository"
	"Certus/pkg/util"
)

// Sink is the downstream the pipeline forwards accepted snapshots to.
type Sink interface {
	Deliver(ctx context.Context, obs []models.MarketObservation) (int, error)
}

// SnapshotPipeline sits between the market fetcher and the store (or bus).
// It validates and normalizes observations, drops in-batch duplicates and
// assets refreshed more often than the minimum interval, and buffers batches
// the downstream rejected so that Start can redeliver them.
type SnapshotPipeline struct {
	sink     Sink
	metrics  domrepo.Metrics
	minGap   time.Duration
	bufSize  int
	bufCh    chan []models.MarketObservation
	stopCh   chan struct{}
	started  bool
	mu       sync.Mutex
	lastSeen map[string]time.Time // per-asset last accepted cycle
}

type PipelineOption func(*SnapshotPipeline)

// WithMinInterval drops observations of an asset whose previous accepted
// observation is less than d older.
func WithMinInterval(d time.Duration) PipelineOption {
	return func(p *SnapshotPipeline) {
		if d > 0 {
			p.minGap = d
		}
	}
}

// WithBufferSize sets how many rejected batches are kept for redelivery.
func WithBufferSize(n int) PipelineOption {
	return func(p *SnapshotPipeline) {
		if n > 0 {
			p.bufSize = n
		}
	}
}

// NewSnapshotPipeline creates a new pipeline.
func NewSnapshotPipeline(sink Sink, metrics domrepo.Metrics, opts ...PipelineOption) *SnapshotPipeline {
	p := &SnapshotPipeline{
		sink:     sink,
		metrics:  metrics,
		bufSize:  16,
		stopCh:   make(chan struct{}),
		lastSeen: make(map[string]time.Time),
	}
	for _, opt := range opts {
		opt(p)
	}
	p.bufCh = make(chan []models.MarketObservation, p.bufSize)
	return p
}

// Start launches background redelivery of buffered batches.
func (p *SnapshotPipeline) Start(ctx context.Context) {
	p.mu.Lock()
	if p.started {
		p.mu.Unlock()
		return
	}
	p.started = true
	p.mu.Unlock()

	go func() {
		backoff := 100 * time.Millisecond
		for {
			select {
			case <-ctx.Done():
				return
			case <-p.stopCh:
				return
			case batch := <-p.bufCh:
				if _, err := p.sink.Deliver(ctx, batch); err != nil {
					if backoff < 5*time.Second {
						backoff *= 2
					}
					p.metrics.RecordError("pipeline_redeliver")
					select {
					case <-time.After(backoff):
					case <-ctx.Done():
						return
					}
					select {
					case p.bufCh <- batch:
					default:
						p.metrics.RecordError("pipeline_buffer_drop")
					}
				} else {
					backoff = 100 * time.Millisecond
				}
			}
		}
	}()
}

// Stop stops the background redelivery.
func (p *SnapshotPipeline) Stop() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.started {
		return
	}
	p.started = false
	close(p.stopCh)
}

// Buffered returns the number of batches waiting for redelivery.
func (p *SnapshotPipeline) Buffered() int { return len(p.bufCh) }

// Deliver filters obs and forwards the survivors downstream. A downstream
// failure buffers the filtered batch and is returned to the caller.
func (p *SnapshotPipeline) Deliver(ctx context.Context, obs []models.MarketObservation) (int, error) {
	start := time.Now()
	batch := p.Filter(obs)
	if len(batch) == 0 {
		return 0, nil
	}

	n, err := p.sink.Deliver(ctx, batch)
	if err != nil {
		p.metrics.RecordError("pipeline_deliver")
		select {
		case p.bufCh <- batch:
		default:
			p.metrics.RecordError("pipeline_buffer_full")
		}
		return 0, fmt.Errorf("pipeline downstream: %w", err)
	}
	p.metrics.RecordLatency("pipeline_deliver", time.Since(start).Seconds())
	return n, nil
}

// Filter validates, normalizes and dedupes a batch. The input is not modified.
func (p *SnapshotPipeline) Filter(obs []models.MarketObservation) []models.MarketObservation {
	p.mu.Lock()
	defer p.mu.Unlock()

	out := make([]models.MarketObservation, 0, len(obs))
	seen := make(map[string]struct{}, len(obs))
	for _, o := range obs {
		o.Symbol = util.NormalizeSymbol(o.Symbol)
		o.TS = o.TS.UTC()
		if err := validateObservation(o); err != nil {
			p.metrics.RecordError("pipeline_validate")
			continue
		}
		if _, dup := seen[o.Key()]; dup {
			continue
		}
		if !p.allow(o.AssetID, o.TS) {
			p.metrics.RecordError("pipeline_throttle")
			continue
		}
		seen[o.Key()] = struct{}{}
		out = append(out, o)
	}
	return out
}

func validateObservation(o models.MarketObservation) error {
	if o.AssetID == "" {
		return fmt.Errorf("asset id empty")
	}
	if o.Symbol == "" {
		return fmt.Errorf("symbol empty")
	}
	if o.TS.IsZero() {
		return fmt.Errorf("timestamp invalid")
	}
	if math.IsNaN(o.Price) || math.IsInf(o.Price, 0) || o.Price <= 0 {
		return fmt.Errorf("price invalid")
	}
	return nil
}

func (p *SnapshotPipeline) allow(assetID string, ts time.Time) bool {
	if p.minGap <= 0 {
		return true
	}
	last, ok := p.lastSeen[assetID]
	if ok && ts.After(last) && ts.Sub(last) < p.minGap {
		return false
	}
	if !ok || ts.After(last) {
		p.lastSeen[assetID] = ts
	}
	return true
}
