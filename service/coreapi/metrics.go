package coreapi

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics counts provider calls and token refreshes. A nil *Metrics records nothing.
type Metrics struct {
	requests       *prometheus.CounterVec
	latency        *prometheus.HistogramVec
	tokenRefreshes *prometheus.CounterVec
}

func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "momo",
			Name:      "requests_total",
			Help:      "Provider requests by operation and http status.",
		}, []string{"operation", "status"}),
		latency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "momo",
			Name:      "request_duration_seconds",
			Help:      "Provider request latency by operation.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"operation"}),
		tokenRefreshes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "momo",
			Name:      "token_refreshes_total",
			Help:      "Bearer token refreshes by product and outcome.",
		}, []string{"product", "outcome"}),
	}
	if reg != nil {
		reg.MustRegister(m.requests, m.latency, m.tokenRefreshes)
	}
	return m
}

func (m *Metrics) observeRequest(op string, statusCode int, took time.Duration) {
	if m == nil {
		return
	}
	label := "error"
	if statusCode > 0 {
		label = strconv.Itoa(statusCode)
	}
	m.requests.WithLabelValues(op, label).Inc()
	m.latency.WithLabelValues(op).Observe(took.Seconds())
}

func (m *Metrics) observeRefresh(product Product, err error) {
	if m == nil {
		return
	}
	outcome := "success"
	if err != nil {
		outcome = "failure"
	}
	m.tokenRefreshes.WithLabelValues(string(product), outcome).Inc()
}

// TokenRefreshes exposes the refresh counter, mostly for tests and dashboards.
func (m *Metrics) TokenRefreshes() *prometheus.CounterVec {
	return m.tokenRefreshes
}
