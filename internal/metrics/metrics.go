package metrics

import (
	"context"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/push"

	"github.com/Armin-kho/fx-crossrates/internal/crossrate"
	"github.com/Armin-kho/fx-crossrates/internal/currency"
)

const jobName = "fx_crossrates"

// RunMetrics collects per-run metrics for the batch job. A nil *RunMetrics is a no-op.
type RunMetrics struct {
	registry *prometheus.Registry
	pushURL  string

	RunsTotal   *prometheus.CounterVec
	LastSuccess prometheus.Gauge
	RunDuration prometheus.Histogram
	Rate        *prometheus.GaugeVec
}

// New builds the metrics on a private registry. pushURL may be empty, in
// which case Push does nothing.
func New(pushURL string) *RunMetrics {
	reg := prometheus.NewRegistry()
	f := promauto.With(reg)
	return &RunMetrics{
		registry: reg,
		pushURL:  pushURL,

		RunsTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "fxrates_runs_total",
				Help: "Exchange rate runs by outcome",
			},
			[]string{"status"},
		),
		LastSuccess: f.NewGauge(prometheus.GaugeOpts{
			Name: "fxrates_last_success_timestamp_seconds",
			Help: "Unix time of the last successfully stored bundle",
		}),
		RunDuration: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "fxrates_run_duration_seconds",
			Help:    "Wall time of a run from fetch to notification",
			Buckets: []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60},
		}),
		Rate: f.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "fxrates_rate",
				Help: "Amount of quote per 1 unit of base (display precision)",
			},
			[]string{"base", "quote"},
		),
	}
}

func (m *RunMetrics) ObserveRun(status string, took time.Duration, at time.Time) {
	if m == nil {
		return
	}
	m.RunsTotal.WithLabelValues(status).Inc()
	m.RunDuration.Observe(took.Seconds())
	if status == "success" {
		m.LastSuccess.Set(float64(at.Unix()))
	}
}

func (m *RunMetrics) ObserveBundle(b crossrate.Bundle) {
	if m == nil {
		return
	}
	for _, base := range currency.All {
		for _, quote := range currency.All {
			m.Rate.WithLabelValues(base.String(), quote.String()).Set(b.Rate(base, quote).InexactFloat64())
		}
	}
}

func (m *RunMetrics) Gatherer() prometheus.Gatherer {
	return m.registry
}

// Push replaces this job's group on the Pushgateway.
func (m *RunMetrics) Push(ctx context.Context) error {
	if m == nil || m.pushURL == "" {
		return nil
	}
	return push.New(m.pushURL, jobName).Gatherer(m.registry).PushContext(ctx)
}
