package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Collector owns its registry so several servers (and tests) can coexist in
// one process. A nil *Collector is valid and records nothing.
type Collector struct {
	registry *prometheus.Registry

	RequestsTotal   *prometheus.CounterVec
	RequestDuration *prometheus.HistogramVec
	InFlightGauge   prometheus.Gauge

	PatientsRegisteredTotal prometheus.Counter
	PatientsUpdatedTotal    prometheus.Counter
	StaffStatusChanges      *prometheus.CounterVec
	LoginsTotal             *prometheus.CounterVec
	ResetEmailsTotal        *prometheus.CounterVec
	BlobFallbacksTotal      prometheus.Counter
	ResetTokensSwept        prometheus.Counter
}

func NewCollector(serviceName string) *Collector {
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	f := promauto.With(reg)

	return &Collector{
		registry: reg,

		RequestsTotal: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: serviceName,
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total number of HTTP requests by method, route, and status code.",
		}, []string{"method", "path", "status"}),

		RequestDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: serviceName,
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request latency distribution.",
			Buckets:   []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0, 2.5, 5.0},
		}, []string{"method", "path", "status"}),

		InFlightGauge: f.NewGauge(prometheus.GaugeOpts{
			Namespace: serviceName,
			Subsystem: "http",
			Name:      "in_flight_requests",
			Help:      "Current number of in-flight HTTP requests.",
		}),

		PatientsRegisteredTotal: f.NewCounter(prometheus.CounterOpts{
			Namespace: serviceName,
			Subsystem: "registration",
			Name:      "patients_registered_total",
			Help:      "Total number of patient records created.",
		}),

		PatientsUpdatedTotal: f.NewCounter(prometheus.CounterOpts{
			Namespace: serviceName,
			Subsystem: "registration",
			Name:      "patients_updated_total",
			Help:      "Total number of patient record updates.",
		}),

		StaffStatusChanges: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: serviceName,
			Subsystem: "staff",
			Name:      "status_changes_total",
			Help:      "Staff status transitions by target status.",
		}, []string{"status"}),

		LoginsTotal: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: serviceName,
			Subsystem: "auth",
			Name:      "logins_total",
			Help:      "Login attempts by role and outcome.",
		}, []string{"role", "outcome"}),

		ResetEmailsTotal: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: serviceName,
			Subsystem: "auth",
			Name:      "reset_emails_total",
			Help:      "Password reset emails by outcome.",
		}, []string{"outcome"}),

		BlobFallbacksTotal: f.NewCounter(prometheus.CounterOpts{
			Namespace: serviceName,
			Subsystem: "storage",
			Name:      "placeholder_urls_total",
			Help:      "Uploads that failed and were stored as placeholder URLs. Alert if non-zero.",
		}),

		ResetTokensSwept: f.NewCounter(prometheus.CounterOpts{
			Namespace: serviceName,
			Subsystem: "jobs",
			Name:      "reset_tokens_swept_total",
			Help:      "Expired reset tokens cleared by the sweep job.",
		}),
	}
}

func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{})
}

func (c *Collector) PatientRegistered() {
	if c != nil {
		c.PatientsRegisteredTotal.Inc()
	}
}

func (c *Collector) PatientUpdated() {
	if c != nil {
		c.PatientsUpdatedTotal.Inc()
	}
}

func (c *Collector) StaffStatusChanged(status string) {
	if c != nil {
		c.StaffStatusChanges.WithLabelValues(status).Inc()
	}
}

func (c *Collector) Login(role, outcome string) {
	if c != nil {
		c.LoginsTotal.WithLabelValues(role, outcome).Inc()
	}
}

func (c *Collector) ResetEmail(outcome string) {
	if c != nil {
		c.ResetEmailsTotal.WithLabelValues(outcome).Inc()
	}
}

func (c *Collector) BlobFallback() {
	if c != nil {
		c.BlobFallbacksTotal.Inc()
	}
}

func (c *Collector) TokensSwept(n int64) {
	if c != nil && n > 0 {
		c.ResetTokensSwept.Add(float64(n))
	}
}
