package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	APIRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "my_api_requests_total",
		Help: "Total API dispatches by method and response status.",
	}, []string{"method", "status"})

	APIRequestDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "my_api_request_duration_seconds",
		Help:    "Time from request receipt to serialized response.",
		Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
	})

	LoginsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "my_web_logins_total",
		Help: "Web UI login attempts by outcome.",
	}, []string{"outcome"})

	UsersTotal = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "my_users_total",
		Help: "Total number of registered users in the database.",
	})
)

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

// APIMiddleware records a counter and duration sample for every API
// dispatch.
func APIMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}

		next.ServeHTTP(rec, r)

		APIRequestsTotal.WithLabelValues(r.Method, strconv.Itoa(rec.status)).Inc()
		APIRequestDuration.Observe(time.Since(start).Seconds())
	})
}
