package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the bot's Prometheus collectors on a private registry.
// All methods are safe on a nil receiver.
type Metrics struct {
	registry      *prometheus.Registry
	fetchDuration *prometheus.HistogramVec
	fetchFailures *prometheus.CounterVec
	cacheHits     prometheus.Counter
	cacheMisses   prometheus.Counter
	transitions   *prometheus.CounterVec
	rejections    *prometheus.CounterVec
}

func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		fetchDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "schedule_fetch_duration_seconds",
			Help:    "Duration of requests to the schedule site",
			Buckets: prometheus.DefBuckets,
		}, []string{"kind"}),
		fetchFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "schedule_fetch_failures_total",
			Help: "Requests to the schedule site that failed",
		}, []string{"kind"}),
		cacheHits: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "place_cache_hits_total",
			Help: "Faculty list lookups served from cache",
		}),
		cacheMisses: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "place_cache_misses_total",
			Help: "Faculty list lookups that went to the site",
		}),
		transitions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "conversation_transitions_total",
			Help: "Committed conversation state transitions",
		}, []string{"from", "to"}),
		rejections: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "conversation_rejections_total",
			Help: "Inputs that left the conversation state unchanged",
		}, []string{"state", "reason"}),
	}

	m.registry.MustRegister(
		m.fetchDuration,
		m.fetchFailures,
		m.cacheHits,
		m.cacheMisses,
		m.transitions,
		m.rejections,
		collectors.NewGoCollector(),
	)
	return m
}

// Handler exposes the registry for scraping.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return promhttp.Handler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *Metrics) ObserveFetch(kind string, d time.Duration, err error) {
	if m == nil {
		return
	}
	m.fetchDuration.WithLabelValues(kind).Observe(d.Seconds())
	if err != nil {
		m.fetchFailures.WithLabelValues(kind).Inc()
	}
}

func (m *Metrics) RecordCacheLookup(hit bool) {
	if m == nil {
		return
	}
	if hit {
		m.cacheHits.Inc()
		return
	}
	m.cacheMisses.Inc()
}

func (m *Metrics) RecordTransition(from, to string) {
	if m == nil {
		return
	}
	m.transitions.WithLabelValues(from, to).Inc()
}

func (m *Metrics) RecordRejection(state, reason string) {
	if m == nil {
		return
	}
	m.rejections.WithLabelValues(state, reason).Inc()
}
