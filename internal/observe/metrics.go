// internal/observe/metrics.go
package observe

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	requestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "customer_publisher_requests_total",
		Help: "Requests answered by the router, by route and status code",
	}, []string{"route", "code"})
	requestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "customer_publisher_request_duration_seconds",
		Help:    "Time spent answering a request, by route",
		Buckets: prometheus.DefBuckets,
	}, []string{"route"})

	forwardedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "customer_publisher_forwarded_total",
		Help: "Customer records handed to the publish queue, by outcome",
	}, []string{"outcome"})
	storedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "customer_publisher_stored_total",
		Help: "Customer records written by the worker, by outcome",
	}, []string{"outcome"})
)

const (
	OutcomeOK       = "ok"
	OutcomeError    = "error"
	OutcomeRejected = "rejected"
)

// RouteFunc names the route a request belongs to; it keeps label cardinality bounded.
type RouteFunc func(method, path string) string

// Middleware records request count and latency for every request passing through.
func Middleware(route RouteFunc) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			start := time.Now()

			next.ServeHTTP(ww, r)

			name := route(r.Method, r.URL.Path)
			status := ww.Status()
			if status == 0 {
				status = http.StatusOK
			}
			requestsTotal.WithLabelValues(name, strconv.Itoa(status)).Inc()
			requestDuration.WithLabelValues(name).Observe(time.Since(start).Seconds())
		})
	}
}

func CountForwarded(outcome string) {
	forwardedTotal.WithLabelValues(outcome).Inc()
}

func CountStored(outcome string) {
	storedTotal.WithLabelValues(outcome).Inc()
}
