// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Warden Contributors

package auth

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Login outcome labels.
const (
	OutcomeSuccess            = "success"
	OutcomeInvalidCredentials = "invalid_credentials"
	OutcomeIdentityBanned     = "identity_banned"
	OutcomeOriginBanned       = "origin_banned"
	OutcomeInactive           = "inactive"
	OutcomeError              = "error"
)

// LoginAttempts counts login attempts by outcome.
// Use RegisterMetrics to register this with a Prometheus registry.
var LoginAttempts = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "warden_login_attempts_total",
		Help: "Total number of login attempts by outcome",
	},
	[]string{"outcome"},
)

// RememberResolutions counts remember-me cookie resolutions by result.
var RememberResolutions = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "warden_remember_resolutions_total",
		Help: "Total number of remember-me cookie resolutions by result",
	},
	[]string{"result"},
)

// TokensIssued counts issued tokens by kind.
var TokensIssued = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "warden_tokens_issued_total",
		Help: "Total number of issued tokens by kind",
	},
	[]string{"kind"},
)

// RegisterMetrics registers auth package metrics with the given Prometheus registry.
// Panics if registration fails (following prometheus convention).
func RegisterMetrics(reg prometheus.Registerer) {
	reg.MustRegister(LoginAttempts)
	reg.MustRegister(RememberResolutions)
	reg.MustRegister(TokensIssued)
}

// RecordLoginAttempt increments the login counter for outcome.
func RecordLoginAttempt(outcome string) {
	LoginAttempts.WithLabelValues(outcome).Inc()
}

func recordRememberResolution(result string) {
	RememberResolutions.WithLabelValues(result).Inc()
}

func recordTokenIssued(kind TokenKind) {
	TokensIssued.WithLabelValues(string(kind)).Inc()
}
