package core

import (
	"context"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// PrometheusMetricsRecorder exports operation durations and outcomes as
// Prometheus collectors.
type PrometheusMetricsRecorder struct {
	durations  *prometheus.HistogramVec
	results    *prometheus.CounterVec
	items      *prometheus.CounterVec
	skipped    *prometheus.CounterVec
	violations *prometheus.CounterVec
}

// NewPrometheusMetricsRecorder registers the recorder collectors with reg.
// A nil reg uses the default registerer.
func NewPrometheusMetricsRecorder(reg prometheus.Registerer) (*PrometheusMetricsRecorder, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	rec := &PrometheusMetricsRecorder{
		durations: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "legfed",
			Name:      "operation_duration_seconds",
			Help:      "Duration of load passes and post-processing steps.",
			Buckets:   prometheus.ExponentialBuckets(0.01, 4, 8),
		}, []string{"operation"}),
		results: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "legfed",
			Name:      "operations_total",
			Help:      "Load passes and post-processing steps by outcome.",
		}, []string{"operation", "status"}),
		items: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "legfed",
			Name:      "items_emitted_total",
			Help:      "Items emitted by committed passes.",
		}, []string{"source", "type"}),
		skipped: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "legfed",
			Name:      "rows_skipped_total",
			Help:      "Input rows skipped because a referenced entity was missing or malformed.",
		}, []string{"source", "type"}),
		violations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "legfed",
			Name:      "rule_violations_total",
			Help:      "Rule violations reported when passes commit.",
		}, []string{"rule", "severity"}),
	}
	for _, c := range []prometheus.Collector{rec.durations, rec.results, rec.items, rec.skipped, rec.violations} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return rec, nil
}

// Observe implements MetricsRecorder.
func (r *PrometheusMetricsRecorder) Observe(_ context.Context, operation string, success bool, duration time.Duration) {
	if operation == "" {
		return
	}
	status := "error"
	if success {
		status = "success"
	}
	r.durations.WithLabelValues(operation).Observe(duration.Seconds())
	r.results.WithLabelValues(operation, status).Inc()
}

// RecordPass implements PassRecorder.
func (r *PrometheusMetricsRecorder) RecordPass(_ context.Context, rep SourceReport) {
	if rep.Err == nil {
		r.items.WithLabelValues(rep.Source, rep.Type).Add(float64(rep.Items))
	}
	r.skipped.WithLabelValues(rep.Source, rep.Type).Add(float64(rep.Skipped))
	for _, v := range rep.Result.Violations {
		r.violations.WithLabelValues(v.Rule, string(v.Severity)).Inc()
	}
}
