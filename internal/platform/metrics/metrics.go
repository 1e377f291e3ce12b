// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

// Package metrics exposes Prometheus counters for authentication outcomes.
//
// Collectors are registered on an explicit [prometheus.Registerer] so tests can
// use an isolated registry and the server can serve it on /metrics.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "socialite"

// Result label values.
const (
	ResultSuccess = "success"
	ResultFailure = "failure"
	ResultReuse   = "reuse"
)

// Login method label values.
const (
	MethodPassword = "password"
	MethodGitHub   = "github"
	MethodGoogle   = "google"
)

// Auth groups the counters recorded by the session manager.
//
// A nil *Auth is valid and records nothing.
type Auth struct {
	logins        *prometheus.CounterVec
	refreshes     *prometheus.CounterVec
	logouts       *prometheus.CounterVec
	reuseDetected prometheus.Counter
}

// NewAuth creates the auth counters and registers them on registerer.
func NewAuth(registerer prometheus.Registerer) *Auth {
	auth := &Auth{
		logins: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "auth",
			Name:      "login_total",
			Help:      "Login attempts by method and result.",
		}, []string{"method", "result"}),
		refreshes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "auth",
			Name:      "refresh_total",
			Help:      "Refresh-token rotations by result.",
		}, []string{"result"}),
		logouts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "auth",
			Name:      "logout_total",
			Help:      "Logouts by result.",
		}, []string{"result"}),
		reuseDetected: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "auth",
			Name:      "reuse_detected_total",
			Help:      "Refresh tokens presented after rotation or revocation; each one wiped an identity's sessions.",
		}),
	}

	registerer.MustRegister(auth.logins, auth.refreshes, auth.logouts, auth.reuseDetected)
	return auth
}

// Login records a login attempt.
func (a *Auth) Login(method, result string) {
	if a == nil {
		return
	}
	a.logins.WithLabelValues(method, result).Inc()
}

// Refresh records a refresh attempt.
func (a *Auth) Refresh(result string) {
	if a == nil {
		return
	}
	a.refreshes.WithLabelValues(result).Inc()
}

// Logout records a logout attempt.
func (a *Auth) Logout(result string) {
	if a == nil {
		return
	}
	a.logouts.WithLabelValues(result).Inc()
}

// ReuseDetected records a session-family wipe.
func (a *Auth) ReuseDetected() {
	if a == nil {
		return
	}
	a.reuseDetected.Inc()
}

// Handler serves the given gatherer in the Prometheus text format.
func Handler(gatherer prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}
