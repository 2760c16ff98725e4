package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Recorder implements domain repository.Metrics using Prometheus.
type Recorder struct {
	activitiesInserted *prometheus.CounterVec
	activitiesSkipped  *prometheus.CounterVec
	errorsTotal        *prometheus.CounterVec
	lastSync           *prometheus.GaugeVec
	latency            *prometheus.HistogramVec
}

// New creates a new Prometheus metrics recorder.
func New() *Recorder {
	return &Recorder{
		activitiesInserted: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "brokersync_activities_inserted_total",
				Help: "Activities persisted per platform",
			},
			[]string{"platform"},
		),
		activitiesSkipped: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "brokersync_activities_skipped_total",
				Help: "Activities skipped during normalization per platform",
			},
			[]string{"platform"},
		),
		errorsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "brokersync_errors_total",
				Help: "Total number of errors encountered",
			},
			[]string{"type"},
		),
		lastSync: promauto.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "brokersync_last_sync_timestamp_seconds",
				Help: "Unix time of the last successful sync per platform",
			},
			[]string{"platform"},
		),
		latency: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "brokersync_operation_duration_seconds",
				Help:    "Duration of operations in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"operation"},
		),
	}
}

// RecordActivities records inserted and skipped counts for a platform.
func (r *Recorder) RecordActivities(platform string, inserted, skipped int64) {
	r.activitiesInserted.WithLabelValues(platform).Add(float64(inserted))
	r.activitiesSkipped.WithLabelValues(platform).Add(float64(skipped))
}

// RecordError records an error occurrence.
func (r *Recorder) RecordError(kind string) {
	r.errorsTotal.WithLabelValues(kind).Inc()
}

// RecordLatency records operation latency in seconds.
func (r *Recorder) RecordLatency(op string, seconds float64) {
	r.latency.WithLabelValues(op).Observe(seconds)
}

// RecordLastSync records the completion time of a successful sync.
func (r *Recorder) RecordLastSync(platform string, t time.Time) {
	r.lastSync.WithLabelValues(platform).Set(float64(t.Unix()))
}
