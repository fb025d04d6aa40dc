// Package metrics defines the Prometheus collectors for taskdash.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "taskdash"

// Fetch outcomes.
const (
	OutcomeSuccess = "success"
	OutcomeError   = "error"
)

// Cache lookup results.
const (
	CacheHit  = "hit"
	CacheMiss = "miss"
)

// Recorder holds the collectors. A nil *Recorder records nothing.
type Recorder struct {
	FetchTotal       *prometheus.CounterVec
	FetchDuration    prometheus.Histogram
	CacheLookups     *prometheus.CounterVec
	RenderDuration   prometheus.Histogram
	LastRenderTasks  prometheus.Gauge
	LastUnclassified prometheus.Gauge
}

// New registers the collectors with reg.
// Pass prometheus.NewRegistry() in tests to avoid clashes with the default registry.
func New(reg prometheus.Registerer) *Recorder {
	factory := promauto.With(reg)
	return &Recorder{
		FetchTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "asana_fetch_total",
				Help:      "Number of Asana task listings by outcome",
			},
			[]string{"outcome"},
		),
		FetchDuration: factory.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "asana_fetch_duration_seconds",
				Help:      "Duration of Asana task listings",
				Buckets:   prometheus.DefBuckets,
			},
		),
		CacheLookups: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "fetch_cache_lookups_total",
				Help:      "Fetch cache lookups by result",
			},
			[]string{"result"},
		),
		RenderDuration: factory.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "render_duration_seconds",
				Help:      "Duration of one dashboard render",
				Buckets:   prometheus.DefBuckets,
			},
		),
		LastRenderTasks: factory.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "last_render_tasks",
				Help:      "Task count of the most recent render",
			},
		),
		LastUnclassified: factory.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "last_render_unclassified_tasks",
				Help:      "Tasks outside the known departments in the most recent render",
			},
		),
	}
}

// ObserveFetch records one source call.
func (r *Recorder) ObserveFetch(outcome string, d time.Duration) {
	if r == nil {
		return
	}
	r.FetchTotal.WithLabelValues(outcome).Inc()
	r.FetchDuration.Observe(d.Seconds())
}

// ObserveCache records one cache lookup.
func (r *Recorder) ObserveCache(result string) {
	if r == nil {
		return
	}
	r.CacheLookups.WithLabelValues(result).Inc()
}

// ObserveRender records one dashboard render.
func (r *Recorder) ObserveRender(d time.Duration, tasks, unclassified int) {
	if r == nil {
		return
	}
	r.RenderDuration.Observe(d.Seconds())
	r.LastRenderTasks.Set(float64(tasks))
	r.LastUnclassified.Set(float64(unclassified))
}
