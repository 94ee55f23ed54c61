// Package metrics defines the Prometheus collectors exported on /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Expense creation sources.
const (
	SourceManual = "manual"
	SourceAI     = "ai"
)

// AI extraction outcomes.
const (
	OutcomeSuccess = "success"
	OutcomeError   = "error"
)

// Metrics groups the application collectors.
type Metrics struct {
	HTTPRequests    *prometheus.CounterVec
	HTTPDuration    *prometheus.HistogramVec
	AIRequests      *prometheus.CounterVec
	AIDuration      prometheus.Histogram
	ExpensesCreated *prometheus.CounterVec
}

// New creates the collectors and registers them with reg.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		HTTPRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "HTTP requests by method, route pattern and status code.",
		}, []string{"method", "route", "status"}),
		HTTPDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request latency by method and route pattern.",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "route"}),
		AIRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "ai_extract_requests_total",
			Help: "Calls to the AI extraction service by outcome.",
		}, []string{"outcome"}),
		AIDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "ai_extract_duration_seconds",
			Help:    "Latency of calls to the AI extraction service.",
			Buckets: []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60},
		}),
		ExpensesCreated: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "expenses_created_total",
			Help: "Persisted expenses by source.",
		}, []string{"source"}),
	}
	reg.MustRegister(m.HTTPRequests, m.HTTPDuration, m.AIRequests, m.AIDuration, m.ExpensesCreated)
	return m
}

// NewUnregistered returns collectors attached to a private registry.
func NewUnregistered() *Metrics {
	return New(prometheus.NewRegistry())
}
