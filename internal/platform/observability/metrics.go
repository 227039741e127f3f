package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	JobsProcessed = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "reviewradar_jobs_processed_total",
		Help: "The total number of jobs processed, by final status",
	}, []string{"status"})

	JobBacklog = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "reviewradar_job_backlog_size",
		Help: "Number of pending jobs waiting for a worker",
	})

	ReviewsScraped = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "reviewradar_reviews_scraped_total",
		Help: "The total number of reviews scraped, by platform",
	}, []string{"platform"})

	ReviewsPersisted = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "reviewradar_reviews_persisted_total",
		Help: "Reviews persisted or skipped as duplicates",
	}, []string{"outcome"})

	PipelineStageDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "reviewradar_pipeline_stage_duration_seconds",
		Help:    "Duration of each pipeline stage",
		Buckets: prometheus.DefBuckets,
	}, []string{"stage"})

	PlatformFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "reviewradar_platform_failures_total",
		Help: "Per-platform soft failures during scraping",
	}, []string{"platform"})

	VectorIndexFailures = promauto.NewCounter(prometheus.CounterOpts{
		Name: "reviewradar_vector_index_failures_total",
		Help: "Reviews that were persisted but could not be indexed",
	})

	ModelRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "reviewradar_model_request_duration_seconds",
		Help:    "Duration of model inference requests",
		Buckets: prometheus.DefBuckets,
	}, []string{"model"})
)
