package telemetry

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Pipeline metrics
	StageDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "solatlas_pipeline_stage_duration_seconds",
		Help:    "Duration of each pipeline stage",
		Buckets: prometheus.ExponentialBuckets(0.01, 4, 10),
	}, []string{"stage"})

	ZonesAggregated = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "solatlas_zones_aggregated_total",
		Help: "Zones processed by the aggregator",
	}, []string{"status"})

	PipelineRunsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "solatlas_pipeline_runs_total",
		Help: "Completed pipeline runs",
	}, []string{"status"})

	// API metrics
	EstimateRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "solatlas_estimate_requests_total",
		Help: "Home estimate requests served",
	}, []string{"status"})

	EstimateLatency = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "solatlas_estimate_latency_seconds",
		Help:    "Latency of home estimate requests",
		Buckets: prometheus.DefBuckets,
	})

	CacheRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "solatlas_cache_requests_total",
		Help: "Cache lookups in front of interactive queries",
	}, []string{"result"})

	ArtifactReloadsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "solatlas_artifact_reloads_total",
		Help: "Times the scored artifact was reloaded into memory",
	})
)
