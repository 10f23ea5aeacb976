// Package obsmetrics holds the aggregator's prometheus instrumentation.
// It consolidates what the teacher split across two packages (metrics
// and monitoring) with overlapping counters into one cohesive set.
package obsmetrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds every counter/histogram the aggregator exports.
type Metrics struct {
	TicksCompleted   prometheus.Counter
	TicksAborted     prometheus.Counter
	UpstreamErrors   *prometheus.CounterVec
	TokensPublished  prometheus.Gauge
	EventsEmitted    *prometheus.CounterVec
	FetchDuration    *prometheus.HistogramVec
	CachePutDuration prometheus.Histogram
	CacheGetDuration prometheus.Histogram
}

// New registers and returns the aggregator's metrics against the
// default prometheus registry.
func New() *Metrics {
	return NewWithRegisterer(prometheus.DefaultRegisterer)
}

// NewWithRegisterer registers against reg instead of the global default
// registry — tests construct their own registry so repeated Metrics
// instances in the same process don't collide on duplicate registration.
func NewWithRegisterer(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		TicksCompleted: factory.NewCounter(prometheus.CounterOpts{
			Name: "aggregator_ticks_completed_total",
			Help: "Number of scheduler ticks that produced a snapshot.",
		}),
		TicksAborted: factory.NewCounter(prometheus.CounterOpts{
			Name: "aggregator_ticks_aborted_total",
			Help: "Number of scheduler ticks aborted (all upstreams failed).",
		}),
		UpstreamErrors: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "aggregator_upstream_errors_total",
			Help: "Upstream adapter failures by tag.",
		}, []string{"tag"}),
		TokensPublished: factory.NewGauge(prometheus.GaugeOpts{
			Name: "aggregator_tokens_published",
			Help: "Number of tokens in the most recent snapshot.",
		}),
		EventsEmitted: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "aggregator_events_emitted_total",
			Help: "Change-detector events emitted by kind.",
		}, []string{"kind"}),
		FetchDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "aggregator_upstream_fetch_duration_seconds",
			Help:    "Upstream adapter fetch latency by tag.",
			Buckets: prometheus.DefBuckets,
		}, []string{"tag"}),
		CachePutDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "aggregator_cache_put_duration_seconds",
			Help:    "Snapshot store put latency.",
			Buckets: prometheus.DefBuckets,
		}),
		CacheGetDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "aggregator_cache_get_duration_seconds",
			Help:    "Snapshot store get latency.",
			Buckets: prometheus.DefBuckets,
		}),
	}
}

// ObserveFetch records the duration of an upstream fetch for tag.
func (m *Metrics) ObserveFetch(tag string, d time.Duration) {
	m.FetchDuration.WithLabelValues(tag).Observe(d.Seconds())
}

// Handler returns the /metrics HTTP handler.
func Handler() http.Handler {
	return promhttp.Handler()
}
