// Package metrics exposes Prometheus instrumentation for the HTTP surface
// and the auth/patient services.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type Collector struct {
	httpRequests    *prometheus.CounterVec
	httpLatency     prometheus.Histogram
	loginSuccess    prometheus.Counter
	loginFailure    prometheus.Counter
	registrations   prometheus.Counter
	patientsCreated prometheus.Counter
}

// NewCollector registers all metrics on the given registry.
func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "hospital_http_requests_total",
			Help: "HTTP requests by method and status code",
		}, []string{"method", "status"}),
		httpLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "hospital_http_request_duration_seconds",
			Help:    "HTTP request latency in seconds",
			Buckets: prometheus.DefBuckets,
		}),
		loginSuccess: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "hospital_login_success_total",
			Help: "Successful logins",
		}),
		loginFailure: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "hospital_login_failure_total",
			Help: "Failed logins (bad credentials or deactivated account)",
		}),
		registrations: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "hospital_registrations_total",
			Help: "Accounts registered",
		}),
		patientsCreated: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "hospital_patients_created_total",
			Help: "Patient records created",
		}),
	}

	reg.MustRegister(
		c.httpRequests,
		c.httpLatency,
		c.loginSuccess,
		c.loginFailure,
		c.registrations,
		c.patientsCreated,
	)

	return c
}

func (c *Collector) RecordLoginSuccess()   { c.loginSuccess.Inc() }
func (c *Collector) RecordLoginFailure()   { c.loginFailure.Inc() }
func (c *Collector) RecordRegistration()   { c.registrations.Inc() }
func (c *Collector) RecordPatientCreated() { c.patientsCreated.Inc() }

// HTTPMiddleware records request counts and latency. Labels stay at
// method+status to keep cardinality bounded.
func (c *Collector) HTTPMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		started := time.Now()
		wrapped := &statusWriter{ResponseWriter: w, status: http.StatusOK}

		next.ServeHTTP(wrapped, r)

		c.httpRequests.WithLabelValues(r.Method, strconv.Itoa(wrapped.status)).Inc()
		c.httpLatency.Observe(time.Since(started).Seconds())
	})
}

// Handler returns the /metrics scrape endpoint.
func Handler(gatherer prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}

type statusWriter struct {
	http.ResponseWriter
	status      int
	wroteHeader bool
}

func (sw *statusWriter) WriteHeader(statusCode int) {
	if sw.wroteHeader {
		return
	}
	sw.status = statusCode
	sw.wroteHeader = true
	sw.ResponseWriter.WriteHeader(statusCode)
}
