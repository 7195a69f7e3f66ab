// Package metrics defines the Prometheus collectors of the user admin service.
// Collectors register with the default registry on package init.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "useradmin"

// LoginAttemptsTotal counts login attempts.
// Labels:
//   - channel: "form" or "api"
//   - result: "success", "invalid_credentials", "no_known_role" or "error"
var LoginAttemptsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "login_attempts_total",
		Help:      "Total number of login attempts by channel and result.",
	},
	[]string{"channel", "result"},
)

// AuthorizationDecisionsTotal counts route policy outcomes.
var AuthorizationDecisionsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "authorization_decisions_total",
		Help:      "Total number of route authorization decisions by outcome.",
	},
	[]string{"decision"},
)

// UserWritesTotal counts user store writes.
// Labels:
//   - op: "create", "edit", "update" or "delete"
//   - result: "ok" or the failure kind
var UserWritesTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "user_writes_total",
		Help:      "Total number of user writes by operation and result.",
	},
	[]string{"op", "result"},
)

// HTTPRequestsTotal counts handled requests by route template.
var HTTPRequestsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "http_requests_total",
		Help:      "Total number of HTTP requests by method, route and status.",
	},
	[]string{"method", "route", "status"},
)

// HTTPRequestDuration measures handler latency.
var HTTPRequestDuration = promauto.NewHistogramVec(
	prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "http_request_duration_seconds",
		Help:      "Duration of HTTP requests by method and route.",
		Buckets:   prometheus.DefBuckets,
	},
	[]string{"method", "route"},
)
