package metrics

import (
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "itemd"

var (
	once sync.Once

	httpRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "HTTP requests by method, route and status code.",
		},
		[]string{"method", "route", "code"},
	)

	httpDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latencies by method and route.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"method", "route"},
	)

	httpInFlight = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "http_requests_in_flight",
			Help:      "HTTP requests currently being served.",
		},
	)

	expiredItems = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "expired_items_total",
			Help:      "Items removed after their retention period.",
		},
	)
)

// Register registers Prometheus metrics. Safe to call multiple times.
func Register() {
	once.Do(func() {
		prometheus.MustRegister(httpRequests, httpDuration, httpInFlight, expiredItems)
	})
}

// Handler returns the HTTP handler exposing the registered metrics.
func Handler() http.Handler {
	return promhttp.Handler()
}

// ObserveHTTP records a served request.
func ObserveHTTP(method, route string, code int, elapsed time.Duration) {
	httpRequests.WithLabelValues(method, route, strconv.Itoa(code)).Inc()
	httpDuration.WithLabelValues(method, route).Observe(elapsed.Seconds())
}

// IncInFlight increments the in-flight requests gauge.
func IncInFlight() {
	httpInFlight.Inc()
}

// DecInFlight decrements the in-flight requests gauge.
func DecInFlight() {
	httpInFlight.Dec()
}

// AddExpired adds n to the expired items counter.
func AddExpired(n int) {
	expiredItems.Add(float64(n))
}
