// Package metrics exposes agent health over a prometheus endpoint.
package metrics

import (
	"context"
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the agent's instrumentation.
type Metrics struct {
	registry *prometheus.Registry

	Cycles        prometheus.Counter
	Failures      prometheus.Counter
	PersistErrors prometheus.Counter
	Online        prometheus.Gauge
	FetchSeconds  prometheus.Histogram
}

// New registers the agent collectors on a fresh registry.
func New() *Metrics {
	cycles := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "weather_poll_cycles_total",
		Help: "Total poll cycles attempted.",
	})
	failures := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "weather_poll_failures_total",
		Help: "Poll cycles that failed at any pipeline stage.",
	})
	persistErrors := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "weather_persist_failures_total",
		Help: "Failed round robin database updates.",
	})
	online := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "weather_station_online",
		Help: "1 while the station is considered online.",
	})
	fetchSeconds := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "weather_fetch_duration_seconds",
		Help:    "Duration of station HTTP fetches including retries.",
		Buckets: prometheus.ExponentialBuckets(0.01, 2, 12),
	})

	reg := prometheus.NewRegistry()
	reg.MustRegister(cycles, failures, persistErrors, online, fetchSeconds)
	online.Set(1)

	return &Metrics{
		registry:      reg,
		Cycles:        cycles,
		Failures:      failures,
		PersistErrors: persistErrors,
		Online:        online,
		FetchSeconds:  fetchSeconds,
	}
}

// Serve exposes /metrics on addr until ctx is cancelled.
func (m *Metrics) Serve(ctx context.Context, addr string) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{}))
	srv := &http.Server{Addr: addr, Handler: mux}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Printf("metrics listener: %v", err)
	}
}
