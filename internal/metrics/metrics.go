// Package metrics exposes internal security diagnostics. Callers see only
// collapsed error outcomes; the specific failure reasons surface here and in
// logs instead.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type Metrics struct {
	registry *prometheus.Registry

	loginOutcomes    *prometheus.CounterVec
	lockouts         prometheus.Counter
	rateLimit        *prometheus.CounterVec
	tokenFailures    *prometheus.CounterVec
	verifications    *prometheus.CounterVec
	cleanupDeletions prometheus.Counter
}

func New() *Metrics {
	registry := prometheus.NewRegistry()

	m := &Metrics{
		registry: registry,
		loginOutcomes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "auth_login_attempts_total",
			Help: "Login attempts by outcome.",
		}, []string{"outcome"}),
		lockouts: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "auth_lockouts_total",
			Help: "Accounts locked after repeated failed logins.",
		}),
		rateLimit: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "auth_rate_limit_decisions_total",
			Help: "Rate limiter decisions by endpoint category.",
		}, []string{"category", "decision"}),
		tokenFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "auth_token_validation_failures_total",
			Help: "Token validation failures by internal reason.",
		}, []string{"reason"}),
		verifications: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "auth_verification_tokens_total",
			Help: "Verification token lifecycle events.",
		}, []string{"event"}),
		cleanupDeletions: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "auth_verification_cleanup_deleted_total",
			Help: "Expired verification tokens removed by the cleanup job.",
		}),
	}

	registry.MustRegister(
		collectors.NewGoCollector(),
		m.loginOutcomes,
		m.lockouts,
		m.rateLimit,
		m.tokenFailures,
		m.verifications,
		m.cleanupDeletions,
	)

	return m
}

func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// The observers are nil-safe so tests can wire services without metrics.

func (m *Metrics) ObserveLogin(outcome string) {
	if m == nil {
		return
	}
	m.loginOutcomes.WithLabelValues(outcome).Inc()
}

func (m *Metrics) ObserveLockout() {
	if m == nil {
		return
	}
	m.lockouts.Inc()
}

func (m *Metrics) ObserveRateLimit(category string, decision string) {
	if m == nil {
		return
	}
	m.rateLimit.WithLabelValues(category, decision).Inc()
}

func (m *Metrics) ObserveTokenFailure(reason string) {
	if m == nil {
		return
	}
	m.tokenFailures.WithLabelValues(reason).Inc()
}

func (m *Metrics) ObserveVerification(event string) {
	if m == nil {
		return
	}
	m.verifications.WithLabelValues(event).Inc()
}

func (m *Metrics) ObserveCleanup(deleted int64) {
	if m == nil || deleted <= 0 {
		return
	}
	m.cleanupDeletions.Add(float64(deleted))
}
