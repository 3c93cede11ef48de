// Package metrics exposes Prometheus collectors for HTTP traffic, billing
// events and host memory.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/shopspring/decimal"
)

// Metrics owns a private registry so tests can build independent instances.
type Metrics struct {
	registry *prometheus.Registry

	httpRequests    *prometheus.CounterVec
	httpDuration    *prometheus.HistogramVec
	httpInFlight    prometheus.Gauge
	consultsCreated prometheus.Counter
	consultsPaid    prometheus.Counter
	revenue         prometheus.Counter
	roomTransitions *prometheus.CounterVec
	medicineUnits   *prometheus.CounterVec
}

func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		}, []string{"method", "route", "status"}),
		httpDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Duration of HTTP requests in seconds",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "route"}),
		httpInFlight: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "http_requests_in_flight",
			Help: "Number of HTTP requests being served",
		}),
		consultsCreated: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "billing_consults_created_total",
			Help: "Consults opened",
		}),
		consultsPaid: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "billing_consults_paid_total",
			Help: "Consults settled",
		}),
		revenue: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "billing_revenue_total",
			Help: "Sum of frozen consult totals at payment",
		}),
		roomTransitions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "billing_room_status_transitions_total",
			Help: "Room status changes",
		}, []string{"from", "to"}),
		medicineUnits: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "billing_medicine_units_sold_total",
			Help: "Medicine units sold",
		}, []string{"channel"}),
	}

	m.registry.MustRegister(
		m.httpRequests,
		m.httpDuration,
		m.httpInFlight,
		m.consultsCreated,
		m.consultsPaid,
		m.revenue,
		m.roomTransitions,
		m.medicineUnits,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		newSystemCollector(),
	)
	return m
}

// Registry exposes the underlying registry for tests and extra collectors.
func (m *Metrics) Registry() *prometheus.Registry { return m.registry }

// Handler serves the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// Middleware records count and latency per route template, so path ids do
// not explode label cardinality.
func (m *Metrics) Middleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			m.httpInFlight.Inc()
			defer m.httpInFlight.Dec()

			err := next(c)

			status := c.Response().Status
			if he, ok := err.(*echo.HTTPError); ok {
				status = he.Code
			}
			route := c.Path()
			if route == "" {
				route = "unmatched"
			}
			method := c.Request().Method
			m.httpRequests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
			m.httpDuration.WithLabelValues(method, route).Observe(time.Since(start).Seconds())
			return err
		}
	}
}

func (m *Metrics) ConsultCreated() { m.consultsCreated.Inc() }

func (m *Metrics) ConsultPaid(total decimal.Decimal) {
	m.consultsPaid.Inc()
	m.revenue.Add(total.InexactFloat64())
}

func (m *Metrics) RoomStatusChanged(from, to string) {
	m.roomTransitions.WithLabelValues(from, to).Inc()
}

// MedicineSold records units sold; channel is "consult" or "counter".
func (m *Metrics) MedicineSold(channel string, quantity int) {
	m.medicineUnits.WithLabelValues(channel).Add(float64(quantity))
}
