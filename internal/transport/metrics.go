package transport

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/roach88/shelf/internal/events"
)

const namespace = "shelf"

// Gauges is what the metrics read from the shop at scrape time.
type Gauges interface {
	Balance() uint64
	Count() (int, error)
}

// Metrics holds the Prometheus collectors for the HTTP layer and the
// committed-event stream.
type Metrics struct {
	registry *prometheus.Registry

	requests *prometheus.CounterVec
	duration *prometheus.HistogramVec
	inFlight prometheus.Gauge

	events    *prometheus.CounterVec
	revenue   prometheus.Counter
	refunded  prometheus.Counter
	withdrawn prometheus.Counter
}

// NewMetrics builds a private registry so tests and multiple servers never
// collide on global registration.
func NewMetrics(g Gauges) *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total number of HTTP requests.",
		}, []string{"method", "route", "status"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "Duration of HTTP requests in seconds.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route"}),
		inFlight: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "requests_in_flight",
			Help:      "Number of HTTP requests currently being served.",
		}),
		events: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "events_total",
			Help:      "Committed events by type.",
		}, []string{"type"}),
		revenue: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "sales_revenue_total",
			Help:      "Sum of settled sale prices, in smallest units.",
		}),
		refunded: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "refunded_total",
			Help:      "Sum of overpayment refunds, in smallest units.",
		}),
		withdrawn: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "withdrawn_total",
			Help:      "Sum of admin withdrawals, in smallest units.",
		}),
	}

	m.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.requests, m.duration, m.inFlight,
		m.events, m.revenue, m.refunded, m.withdrawn,
	)
	if g != nil {
		m.registry.MustRegister(
			prometheus.NewGaugeFunc(prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "custodied_balance",
				Help:      "Funds held pending withdrawal, in smallest units.",
			}, func() float64 { return float64(g.Balance()) }),
			prometheus.NewGaugeFunc(prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "products_live",
				Help:      "Number of products in the catalog.",
			}, func() float64 {
				n, _ := g.Count()
				return float64(n)
			}),
		)
	}
	return m
}

// Registry exposes the registry for tests and custom collectors.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the metrics page.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{EnableOpenMetrics: true})
}

// Middleware records request metrics labelled by route template, which
// keeps cardinality bounded.
func (m *Metrics) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		route := "unmatched"
		if cur := mux.CurrentRoute(r); cur != nil {
			if tpl, err := cur.GetPathTemplate(); err == nil {
				route = tpl
			}
		}

		m.inFlight.Inc()
		defer m.inFlight.Dec()

		sr := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(sr, r)

		m.requests.WithLabelValues(r.Method, route, strconv.Itoa(sr.status)).Inc()
		m.duration.WithLabelValues(r.Method, route).Observe(time.Since(start).Seconds())
	})
}

// Subscriber updates the event counters from the bus.
func (m *Metrics) Subscriber() events.Handler {
	return func(_ context.Context, ev events.Event) error {
		m.events.WithLabelValues(ev.Type()).Inc()
		switch e := ev.(type) {
		case *events.ProductPurchased:
			m.revenue.Add(float64(e.Price))
		case *events.RefundSent:
			m.refunded.Add(float64(e.Amount))
		case *events.FundsWithdrawn:
			m.withdrawn.Add(float64(e.Amount))
		}
		return nil
	}
}
