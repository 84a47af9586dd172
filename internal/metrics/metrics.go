// Package metrics holds the Prometheus collectors of the back office: the
// standard HTTP series plus domain counters for the stock ledger and the
// invoice / purchase workflows. Everything is registered on Registry, which
// /metrics exposes.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "backoffice"

var (
	RequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "Duration of HTTP requests in seconds.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"method", "route", "status"},
	)

	RequestTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total number of HTTP requests.",
		},
		[]string{"method", "route", "status"},
	)

	RequestInFlight = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Subsystem: "http",
		Name:      "requests_in_flight",
		Help:      "Number of HTTP requests currently being served.",
	})

	// StockMovements counts ledger writes by type and reference type. Writes
	// later rolled back by the enclosing transaction are counted too.
	StockMovements = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "stock",
			Name:      "movements_total",
			Help:      "Stock movements written by the ledger.",
		},
		[]string{"type", "reference_type"},
	)

	InsufficientStock = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "stock",
		Name:      "insufficient_total",
		Help:      "Stock deltas rejected because stock would go negative.",
	})

	InvoiceEvents = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "invoice",
			Name:      "events_total",
			Help:      "Invoice workflow events.",
		},
		[]string{"event"}, // created | payment | cancelled
	)

	PurchaseEvents = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "purchase",
			Name:      "events_total",
			Help:      "Purchase workflow events.",
		},
		[]string{"event"}, // created | received | cancelled
	)

	PermissionDenied = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "auth",
			Name:      "permission_denied_total",
			Help:      "Requests rejected by the permission guard.",
		},
		[]string{"module", "action"},
	)

	QueueJobs = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "queue",
			Name:      "jobs_processed_total",
			Help:      "Background jobs processed.",
		},
		[]string{"type", "status"}, // status: success | failed | dead
	)
)

// Registry is the registry exposed on /metrics.
var Registry = prometheus.NewRegistry()

func init() {
	Registry.MustRegister(collectors.NewGoCollector())
	Registry.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	Registry.MustRegister(
		RequestDuration,
		RequestTotal,
		RequestInFlight,
		StockMovements,
		InsufficientStock,
		InvoiceEvents,
		PurchaseEvents,
		PermissionDenied,
		QueueJobs,
	)
}

// Middleware records duration, count and in-flight requests. The route label
// is the gin route template so ids do not blow up cardinality.
func Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		RequestInFlight.Inc()
		defer RequestInFlight.Dec()

		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		status := strconv.Itoa(c.Writer.Status())
		RequestDuration.WithLabelValues(c.Request.Method, route, status).Observe(time.Since(start).Seconds())
		RequestTotal.WithLabelValues(c.Request.Method, route, status).Inc()
	}
}

// Handler exposes Registry in the Prometheus text and OpenMetrics formats.
func Handler() gin.HandlerFunc {
	h := promhttp.HandlerFor(Registry, promhttp.HandlerOpts{EnableOpenMetrics: true})
	return gin.WrapH(h)
}

// ServeHTTP lets the registry be mounted outside gin (used by tests).
func ServeHTTP(w http.ResponseWriter, r *http.Request) {
	promhttp.HandlerFor(Registry, promhttp.HandlerOpts{}).ServeHTTP(w, r)
}
