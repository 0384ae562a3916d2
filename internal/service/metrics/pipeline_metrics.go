package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Pipeline holds per-stage run metrics. A nil *Pipeline records nothing.
type Pipeline struct {
	runs       *prometheus.CounterVec
	stageDur   *prometheus.HistogramVec
	stageRows  *prometheus.GaugeVec
	incomplete prometheus.Counter
	lastRun    *prometheus.GaugeVec
}

func NewPipeline(reg prometheus.Registerer) *Pipeline {
	p := &Pipeline{
		runs: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "certus",
			Subsystem: "pipeline",
			Name:      "stage_runs_total",
			Help:      "Stage runs by result (ok, error, skipped)",
		}, []string{"stage", "result"}),
		stageDur: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "certus",
			Subsystem: "pipeline",
			Name:      "stage_duration_seconds",
			Help:      "Stage wall time",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60, 120},
		}, []string{"stage"}),
		stageRows: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: "certus",
			Subsystem: "pipeline",
			Name:      "stage_rows",
			Help:      "Rows written by the last run of a stage",
		}, []string{"stage"}),
		incomplete: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "certus",
			Subsystem: "pipeline",
			Name:      "incomplete_cycles_total",
			Help:      "Fetch cycles with at least one failed page",
		}),
		lastRun: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: "certus",
			Subsystem: "pipeline",
			Name:      "last_success_timestamp_seconds",
			Help:      "Unix time of the last successful stage run",
		}, []string{"stage"}),
	}
	reg.MustRegister(p.runs, p.stageDur, p.stageRows, p.incomplete, p.lastRun)
	return p
}

// ObserveStage records one stage run.
func (p *Pipeline) ObserveStage(stage string, rows int, d time.Duration, err error) {
	if p == nil {
		return
	}
	p.stageDur.WithLabelValues(stage).Observe(d.Seconds())
	if err != nil {
		p.runs.WithLabelValues(stage, "error").Inc()
		return
	}
	p.runs.WithLabelValues(stage, "ok").Inc()
	p.stageRows.WithLabelValues(stage).Set(float64(rows))
	p.lastRun.WithLabelValues(stage).Set(float64(time.Now().Unix()))
}

// Skipped records a run short-circuited by the pause flag.
func (p *Pipeline) Skipped(stage string) {
	if p == nil {
		return
	}
	p.runs.WithLabelValues(stage, "skipped").Inc()
}

func (p *Pipeline) Incomplete() {
	if p == nil {
		return
	}
	p.incomplete.Inc()
}
