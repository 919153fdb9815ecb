package metrics

import (
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics carries the domain-level counters exported at /metrics.
type Metrics struct {
	ordersCreated      *prometheus.CounterVec
	statusTransitions  *prometheus.CounterVec
	paymentsCompleted  *prometheus.CounterVec
	refundsCreated     prometheus.Counter
	receiptsGenerated  prometheus.Counter
	sequenceCollisions prometheus.Counter
}

func NewRegistry() *prometheus.Registry {
	reg := prometheus.NewRegistry()
	reg.MustRegister(prometheus.NewGoCollector())
	return reg
}

func New(reg *prometheus.Registry) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		ordersCreated: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "pos_orders_created_total",
			Help: "Orders created, by fulfillment type.",
		}, []string{"type"}),
		statusTransitions: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "pos_order_status_transitions_total",
			Help: "Order status transitions, by resulting status.",
		}, []string{"status"}),
		paymentsCompleted: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "pos_payments_completed_total",
			Help: "Payments completed, by method.",
		}, []string{"method"}),
		refundsCreated: factory.NewCounter(prometheus.CounterOpts{
			Name: "pos_refunds_total",
			Help: "Refunds recorded.",
		}),
		receiptsGenerated: factory.NewCounter(prometheus.CounterOpts{
			Name: "pos_receipts_generated_total",
			Help: "Receipts generated.",
		}),
		sequenceCollisions: factory.NewCounter(prometheus.CounterOpts{
			Name: "pos_sequence_collisions_total",
			Help: "Document number collisions retried internally.",
		}),
	}
}

func (m *Metrics) RecordOrderCreated(fulfillmentType string) {
	m.ordersCreated.WithLabelValues(fulfillmentType).Inc()
}

func (m *Metrics) RecordStatusTransition(status string) {
	m.statusTransitions.WithLabelValues(status).Inc()
}

func (m *Metrics) RecordPaymentCompleted(method string) {
	m.paymentsCompleted.WithLabelValues(method).Inc()
}

func (m *Metrics) RecordRefund() {
	m.refundsCreated.Inc()
}

func (m *Metrics) RecordReceiptGenerated() {
	m.receiptsGenerated.Inc()
}

func (m *Metrics) RecordSequenceCollision() {
	m.sequenceCollisions.Inc()
}

// HTTPMetrics tracks request counts and latency per route.
type HTTPMetrics struct {
	requests *prometheus.CounterVec
	duration *prometheus.HistogramVec
}

func NewHTTPMetrics(reg *prometheus.Registry) *HTTPMetrics {
	factory := promauto.With(reg)
	return &HTTPMetrics{
		requests: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "pos_http_requests_total",
			Help: "HTTP requests, by route, method and status.",
		}, []string{"route", "method", "status"}),
		duration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "pos_http_request_duration_seconds",
			Help:    "HTTP request latency.",
			Buckets: prometheus.DefBuckets,
		}, []string{"route", "method"}),
	}
}

// GinMiddleware records request metrics for every handled route.
func GinMiddleware(m *HTTPMetrics) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if strings.TrimSpace(route) == "" {
			route = "unknown"
		}
		m.requests.WithLabelValues(route, c.Request.Method, strconv.Itoa(c.Writer.Status())).Inc()
		m.duration.WithLabelValues(route, c.Request.Method).Observe(time.Since(start).Seconds())
	}
}
