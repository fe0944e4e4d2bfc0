// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 KeyFort Contributors

package auth

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Status constants for authentication metrics.
const (
	StatusSuccess            = "success"
	StatusInvalidCredentials = "invalid_credentials"
	StatusError              = "error"
)

// Authentications counts authentication attempts by outcome.
// Use RegisterMetrics to register this with a Prometheus registry.
var Authentications = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "keyfort_authentications_total",
		Help: "Total number of authentication attempts by status",
	},
	[]string{"status"},
)

// Registrations counts account registration attempts by outcome.
// Use RegisterMetrics to register this with a Prometheus registry.
var Registrations = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "keyfort_registrations_total",
		Help: "Total number of account registrations by status",
	},
	[]string{"status"},
)

var sessionsIssued = prometheus.NewCounter(
	prometheus.CounterOpts{
		Name: "keyfort_sessions_issued_total",
		Help: "Total number of sessions issued",
	},
)

var sessionsRevoked = prometheus.NewCounter(
	prometheus.CounterOpts{
		Name: "keyfort_sessions_revoked_total",
		Help: "Total number of sessions revoked",
	},
)

var sessionsExpired = prometheus.NewCounter(
	prometheus.CounterOpts{
		Name: "keyfort_sessions_expired_total",
		Help: "Total number of expired sessions purged",
	},
)

var sessionCollisions = prometheus.NewCounter(
	prometheus.CounterOpts{
		Name: "keyfort_session_token_collisions_total",
		Help: "Total number of session token collisions retried",
	},
)

// RegisterMetrics registers auth package metrics with the given Prometheus
// registry. This must be called at startup to make metrics available on
// /metrics. Panics if registration fails (following prometheus convention).
func RegisterMetrics(reg prometheus.Registerer) {
	reg.MustRegister(Authentications)
	reg.MustRegister(Registrations)
	reg.MustRegister(sessionsIssued)
	reg.MustRegister(sessionsRevoked)
	reg.MustRegister(sessionsExpired)
	reg.MustRegister(sessionCollisions)
}
