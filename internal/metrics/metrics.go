// Package metrics exposes Prometheus instruments for the aggregation engine,
// the change consumer, the promo notifier and the HTTP layer.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/freshtally/freshtally/internal/aggregation"
)

const namespace = "freshtally"

// Metrics holds every instrument. It satisfies aggregation.Recorder.
type Metrics struct {
	gatherer prometheus.Gatherer

	recomputesTotal   *prometheus.CounterVec
	recomputeDuration *prometheus.HistogramVec
	fanoutStores      *prometheus.HistogramVec
	skipsTotal        *prometheus.CounterVec

	messagesConsumedTotal *prometheus.CounterVec
	notificationsTotal    *prometheus.CounterVec

	httpRequestsTotal   *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec
}

var _ aggregation.Recorder = (*Metrics)(nil)

// New registers the instruments with reg. Passing a fresh prometheus.NewRegistry
// keeps tests isolated from the default registry.
func New(reg *prometheus.Registry) *Metrics {
	if reg == nil {
		panic("metrics: registry is required")
	}
	factory := promauto.With(reg)

	return &Metrics{
		gatherer: reg,

		recomputesTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "recomputes_total",
				Help:      "Aggregate recomputations by trigger and outcome.",
			},
			[]string{"trigger", "outcome"},
		),
		recomputeDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "recompute_duration_seconds",
				Help:      "Time spent handling one change, including fan-out.",
				Buckets:   []float64{0.005, 0.01, 0.05, 0.1, 0.5, 1, 5, 30},
			},
			[]string{"trigger"},
		),
		fanoutStores: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "fanout_stores",
				Help:      "Number of stores a single change fanned out to.",
				Buckets:   []float64{0, 1, 2, 5, 10, 25, 50, 100, 250},
			},
			[]string{"trigger"},
		),
		skipsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "skips_total",
				Help:      "Changes that were skipped, by reason.",
			},
			[]string{"trigger", "reason"},
		),

		messagesConsumedTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "messages_consumed_total",
				Help:      "Change messages consumed from the broker.",
			},
			[]string{"routing_key", "result"},
		),
		notificationsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "notifications_total",
				Help:      "Notifications produced, by type and result.",
			},
			[]string{"type", "result"},
		),

		httpRequestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "http_requests_total",
				Help:      "HTTP requests served.",
			},
			[]string{"method", "path", "status"},
		),
		httpRequestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "http_request_duration_seconds",
				Help:      "HTTP request latency.",
				Buckets:   []float64{0.001, 0.01, 0.1, 0.5, 1, 5, 10},
			},
			[]string{"method", "path"},
		),
	}
}

func (m *Metrics) RecordRecompute(trigger aggregation.Trigger, outcome aggregation.Outcome, elapsed time.Duration) {
	m.recomputesTotal.WithLabelValues(string(trigger), string(outcome)).Inc()
	m.recomputeDuration.WithLabelValues(string(trigger)).Observe(elapsed.Seconds())
}

func (m *Metrics) RecordFanout(trigger aggregation.Trigger, stores int) {
	m.fanoutStores.WithLabelValues(string(trigger)).Observe(float64(stores))
}

func (m *Metrics) RecordSkip(trigger aggregation.Trigger, reason string) {
	m.skipsTotal.WithLabelValues(string(trigger), reason).Inc()
}

// RecordMessage counts one broker delivery. result is "ok", "failed" or "rejected".
func (m *Metrics) RecordMessage(routingKey, result string) {
	m.messagesConsumedTotal.WithLabelValues(routingKey, result).Inc()
}

// RecordNotification counts one notification attempt. result is "created" or "duplicate".
func (m *Metrics) RecordNotification(notificationType, result string) {
	m.notificationsTotal.WithLabelValues(notificationType, result).Inc()
}

// Middleware records request counts and latency per route template.
func (m *Metrics) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		path := c.FullPath()
		if path == "" {
			path = "unmatched"
		}
		m.httpRequestsTotal.WithLabelValues(c.Request.Method, path, strconv.Itoa(c.Writer.Status())).Inc()
		m.httpRequestDuration.WithLabelValues(c.Request.Method, path).Observe(time.Since(start).Seconds())
	}
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.gatherer, promhttp.HandlerOpts{})
}
