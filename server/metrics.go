package server

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// metrics uses its own registry so several servers can live in one process.
type metrics struct {
	reg *prometheus.Registry

	httpRequestsTotal   *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec

	dealsCreated *prometheus.CounterVec
	transitions  *prometheus.CounterVec
	submissions  *prometheus.CounterVec
	reviews      *prometheus.CounterVec
}

func newMetrics() *metrics {
	m := &metrics{
		reg: prometheus.NewRegistry(),

		httpRequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"handler", "method", "status"},
		),
		httpRequestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "http_request_duration_seconds",
				Help:    "HTTP request duration in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"handler", "method"},
		),

		dealsCreated: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "deals_created_total",
				Help: "Deals created, by deal type",
			},
			[]string{"deal_type"},
		),
		transitions: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "deal_transitions_total",
				Help: "Requested deal transitions, by target status and result kind",
			},
			[]string{"to", "result"},
		),
		submissions: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "deal_content_submissions_total",
				Help: "Content submissions, by result kind",
			},
			[]string{"result"},
		),
		reviews: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "deal_content_reviews_total",
				Help: "Content review actions, by action and result kind",
			},
			[]string{"action", "result"},
		),
	}

	m.reg.MustRegister(
		m.httpRequestsTotal,
		m.httpRequestDuration,
		m.dealsCreated,
		m.transitions,
		m.submissions,
		m.reviews,
	)
	return m
}

func (m *metrics) handler() gin.HandlerFunc {
	return gin.WrapH(promhttp.HandlerFor(m.reg, promhttp.HandlerOpts{}))
}

// instrument records every routed request. Unrouted paths are grouped so
// scanners can't blow up the label cardinality.
func (m *metrics) instrument() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		handler := c.FullPath()
		if handler == "" {
			handler = "unmatched"
		}
		method := c.Request.Method

		m.httpRequestsTotal.WithLabelValues(handler, method, strconv.Itoa(c.Writer.Status())).Inc()
		m.httpRequestDuration.WithLabelValues(handler, method).Observe(time.Since(start).Seconds())
	}
}
