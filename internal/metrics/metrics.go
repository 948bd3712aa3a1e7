// Package metrics provides Prometheus instrumentation for the deals engine.
package metrics

import (
	"bufio"
	"errors"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// DealsCreated counts deals created, partitioned by listing type.
	DealsCreated = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "vouchify_deals_created_total",
		Help: "Total number of deals created",
	}, []string{"listing_type"})

	// DealsUpdated counts merchant edits to existing deals.
	DealsUpdated = promauto.NewCounter(prometheus.CounterOpts{
		Name: "vouchify_deals_updated_total",
		Help: "Total number of deal edits",
	})

	// BookingsTotal counts completed checkouts, partitioned by listing type.
	BookingsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "vouchify_bookings_total",
		Help: "Total number of bookings",
	}, []string{"listing_type"})

	// BookedUnits counts units sold across all bookings.
	BookedUnits = promauto.NewCounter(prometheus.CounterOpts{
		Name: "vouchify_booked_units_total",
		Help: "Total units booked",
	})

	// CheckoutRejections counts checkouts refused, by reason.
	CheckoutRejections = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "vouchify_checkout_rejections_total",
		Help: "Checkouts rejected before booking",
	}, []string{"reason"})

	// VouchersRedeemed counts vouchers redeemed at merchants.
	VouchersRedeemed = promauto.NewCounter(prometheus.CounterOpts{
		Name: "vouchify_vouchers_redeemed_total",
		Help: "Total vouchers redeemed",
	})

	// WaitlistSignups counts waitlist sign-ups by role.
	WaitlistSignups = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "vouchify_waitlist_signups_total",
		Help: "Total waitlist sign-ups",
	}, []string{"role"})

	// WebSocketClients tracks connected WebSocket clients.
	WebSocketClients = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "vouchify_websocket_clients",
		Help: "Number of connected WebSocket clients",
	})

	// HTTPRequestsTotal counts HTTP requests by method, route, and status.
	HTTPRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "vouchify_http_requests_total",
		Help: "Total HTTP requests",
	}, []string{"method", "path", "status"})

	// HTTPRequestDuration tracks request duration by method and route.
	HTTPRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "vouchify_http_request_duration_seconds",
		Help:    "HTTP request duration in seconds",
		Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0},
	}, []string{"method", "path"})
)

// Handler returns the Prometheus metrics HTTP handler.
func Handler() http.Handler {
	return promhttp.Handler()
}

// Middleware returns an HTTP middleware that records request metrics.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		wrapped := &statusWriter{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(wrapped, r)
		duration := time.Since(start).Seconds()

		path := routePattern(r)
		HTTPRequestsTotal.WithLabelValues(r.Method, path, strconv.Itoa(wrapped.status)).Inc()
		HTTPRequestDuration.WithLabelValues(r.Method, path).Observe(duration)
	})
}

// routePattern uses the chi route pattern ("/api/v1/deals/{dealID}") as
// the path label to keep cardinality bounded. Unmatched requests share
// one label.
func routePattern(r *http.Request) string {
	if rctx := chi.RouteContext(r.Context()); rctx != nil {
		if p := rctx.RoutePattern(); p != "" {
			return p
		}
	}
	return "unmatched"
}

// statusWriter wraps http.ResponseWriter to capture the status code.
type statusWriter struct {
	http.ResponseWriter
	status int
}

func (w *statusWriter) WriteHeader(code int) {
	w.status = code
	w.ResponseWriter.WriteHeader(code)
}

// Hijack lets WebSocket upgrades pass through the middleware.
func (w *statusWriter) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	h, ok := w.ResponseWriter.(http.Hijacker)
	if !ok {
		return nil, nil, errors.New("metrics: response writer does not support hijacking")
	}
	return h.Hijack()
}
