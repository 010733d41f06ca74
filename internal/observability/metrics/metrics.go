// Package metrics exposes run and delivery counters over a Prometheus
// endpoint.
package metrics

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"leetdrip/internal/delivery"
	logx "leetdrip/pkg/logx"
)

type Metrics struct {
	registry *prometheus.Registry

	runs        *prometheus.CounterVec
	deliveries  *prometheus.CounterVec
	runDuration prometheus.Histogram
}

func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		runs: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "leetdrip_runs_total",
			Help: "Coordinator runs by result.",
		}, []string{"result"}),
		deliveries: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "leetdrip_deliveries_total",
			Help: "Per-subscriber outcomes across all runs.",
		}, []string{"outcome"}),
		runDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "leetdrip_run_duration_seconds",
			Help:    "Wall-clock duration of coordinator runs.",
			Buckets: prometheus.ExponentialBuckets(0.1, 2, 12),
		}),
	}
	m.registry.MustRegister(m.runs, m.deliveries, m.runDuration)
	return m
}

// ObserveRun records one finished (or systemically failed) run.
func (m *Metrics) ObserveRun(report *delivery.RunReport, err error) {
	if m == nil {
		return
	}
	if err != nil {
		m.runs.WithLabelValues("error").Inc()
		return
	}
	m.runs.WithLabelValues("ok").Inc()
	m.runDuration.Observe(report.Duration().Seconds())
	for _, e := range report.Entries {
		m.deliveries.WithLabelValues(string(e.Outcome)).Inc()
	}
}

// Serve runs the /metrics endpoint until ctx is cancelled.
func (m *Metrics) Serve(ctx context.Context, addr string, log logx.Logger) error {
	if log.IsZero() {
		log = logx.Nop()
	}
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{}))

	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	errCh := make(chan error, 1)
	go func() { errCh <- srv.ListenAndServe() }()
	log.Info("metrics listening", logx.String("addr", addr))

	select {
	case <-ctx.Done():
		sctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer cancel()
		_ = srv.Shutdown(sctx)
		return nil
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}
