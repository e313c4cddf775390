// Package telemetry tracks pipeline and retrieval metrics.
package telemetry

import (
	"log"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"docint/config"
)

// Telemetry provides monitoring for the analysis pipeline and the query path.
// Metrics live on a private registry so multiple instances can coexist.
type Telemetry struct {
	config   config.TelemetryConfig
	logger   *log.Logger
	registry *prometheus.Registry

	runsTotal     *prometheus.CounterVec
	stageDuration *prometheus.HistogramVec
	stageDegraded *prometheus.CounterVec
	chunksIndexed prometheus.Counter
	queriesTotal  prometheus.Counter
	queryLatency  prometheus.Histogram
}

// NewTelemetry creates a new telemetry instance
func NewTelemetry(cfg config.TelemetryConfig) *Telemetry {
	reg := prometheus.NewRegistry()
	t := &Telemetry{
		config:   cfg,
		logger:   log.New(log.Writer(), "[TELEMETRY] ", log.LstdFlags),
		registry: reg,
		runsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "docint_pipeline_runs_total",
			Help: "Completed analysis pipeline runs by outcome.",
		}, []string{"outcome"}),
		stageDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "docint_stage_duration_seconds",
			Help:    "Wall-clock duration of each pipeline stage.",
			Buckets: prometheus.DefBuckets,
		}, []string{"stage"}),
		stageDegraded: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "docint_stage_degraded_total",
			Help: "Stage executions that produced a degraded output.",
		}, []string{"stage"}),
		chunksIndexed: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "docint_chunks_indexed_total",
			Help: "Chunks added to the retrieval index.",
		}),
		queriesTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "docint_queries_total",
			Help: "Answered retrieval queries.",
		}),
		queryLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "docint_query_duration_seconds",
			Help:    "End-to-end query answering latency.",
			Buckets: prometheus.DefBuckets,
		}),
	}
	reg.MustRegister(t.runsTotal, t.stageDuration, t.stageDegraded, t.chunksIndexed, t.queriesTotal, t.queryLatency)
	return t
}

// Handler exposes the metrics registry for mounting on the HTTP server.
func (t *Telemetry) Handler() http.Handler {
	return promhttp.HandlerFor(t.registry, promhttp.HandlerOpts{})
}

// RecordRun records a completed pipeline run.
func (t *Telemetry) RecordRun(success bool, duration time.Duration) {
	if !t.config.Enabled {
		return
	}
	outcome := "ok"
	if !success {
		outcome = "error"
	}
	t.runsTotal.WithLabelValues(outcome).Inc()
	t.logger.Printf("pipeline run finished outcome=%s duration=%s", outcome, duration)
}

// ObserveStage records the duration of one stage execution.
func (t *Telemetry) ObserveStage(stage string, duration time.Duration, degraded bool) {
	if !t.config.Enabled {
		return
	}
	t.stageDuration.WithLabelValues(stage).Observe(duration.Seconds())
	if degraded {
		t.stageDegraded.WithLabelValues(stage).Inc()
	}
}

// AddChunks counts chunks written to the retrieval index.
func (t *Telemetry) AddChunks(n int) {
	if !t.config.Enabled {
		return
	}
	t.chunksIndexed.Add(float64(n))
}

// RecordQuery records one answered query.
func (t *Telemetry) RecordQuery(duration time.Duration) {
	if !t.config.Enabled {
		return
	}
	t.queriesTotal.Inc()
	t.queryLatency.Observe(duration.Seconds())
}
