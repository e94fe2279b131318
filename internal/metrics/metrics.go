// Package metrics exposes bridge-internal counters on an optional
// localhost HTTP endpoint (FL_METRICS_ADDR), independent of the stdio
// JSON-RPC transport the Outer Server speaks to its client. Grounded on
// flowpbx's metrics.Collector: a small set of named prometheus instruments
// updated directly by the components that own the underlying state, not a
// generic auto-instrumentation layer.
package metrics

import (
	"context"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics bundles every instrument the bridge reports. The correlator
// records RequestLatency, InFlightRequests and Timeouts; the Outer Server's
// MIDI disconnect callback increments Disconnects; its list_renders tool
// sets RenderedFiles, and its pitch_shift_sample tool increments
// SamplePipelineRuns.
type Metrics struct {
	RequestLatency     *prometheus.HistogramVec
	InFlightRequests   prometheus.Gauge
	Timeouts           *prometheus.CounterVec
	Disconnects        prometheus.Counter
	RenderedFiles      prometheus.Gauge
	SamplePipelineRuns *prometheus.CounterVec

	registry *prometheus.Registry
}

// New constructs and registers every instrument on a fresh registry (never
// the global default, so tests can construct more than one Metrics without
// a "duplicate metrics collector registration" panic).
func New() *Metrics {
	reg := prometheus.NewRegistry()

	m := &Metrics{
		registry: reg,
		RequestLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "flbridge",
			Name:      "request_duration_seconds",
			Help:      "Correlator round-trip latency by action.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"action"}),
		InFlightRequests: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "flbridge",
			Name:      "in_flight_requests",
			Help:      "Number of correlator requests currently awaiting a response.",
		}),
		Timeouts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "flbridge",
			Name:      "request_timeouts_total",
			Help:      "Requests that timed out waiting for a response, by action.",
		}, []string{"action"}),
		Disconnects: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "flbridge",
			Name:      "midi_disconnects_total",
			Help:      "Number of times the MIDI link was observed disconnected.",
		}),
		RenderedFiles: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "flbridge",
			Name:      "rendered_files",
			Help:      "Number of files currently in the render registry.",
		}),
		SamplePipelineRuns: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "flbridge",
			Name:      "sample_pipeline_runs_total",
			Help:      "Sample-pipeline invocations by outcome (ok/error).",
		}, []string{"outcome"}),
	}

	reg.MustRegister(m.RequestLatency, m.InFlightRequests, m.Timeouts, m.Disconnects, m.RenderedFiles, m.SamplePipelineRuns)
	return m
}

// ObserveRequest records one completed correlator call's latency.
func (m *Metrics) ObserveRequest(action string, d time.Duration) {
	m.RequestLatency.WithLabelValues(action).Observe(d.Seconds())
}

// Serve starts an HTTP server exposing /metrics on addr. It returns once
// the server stops (on Shutdown via ctx, or on a listen error). A blank
// addr means metrics are disabled; Serve returns nil immediately.
func (m *Metrics) Serve(ctx context.Context, addr string) error {
	if addr == "" {
		return nil
	}
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{}))
	srv := &http.Server{Addr: addr, Handler: mux}

	errCh := make(chan error, 1)
	go func() { errCh <- srv.ListenAndServe() }()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	case err := <-errCh:
		if err == http.ErrServerClosed {
			return nil
		}
		return err
	}
}
