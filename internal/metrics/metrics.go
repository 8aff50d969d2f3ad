// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package metrics provides Prometheus metrics instrumentation.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// RequestDuration tracks HTTP request duration.
	RequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "eventbot_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5},
		},
		[]string{"method", "route", "status"},
	)

	// UpdatesTotal counts handled user updates by kind and outcome.
	UpdatesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "eventbot_updates_total",
			Help: "User updates handled, by kind (command, dialogue, callback) and outcome",
		},
		[]string{"kind", "outcome"},
	)

	// DialoguesTotal counts dialogue transitions by flow and result.
	DialoguesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "eventbot_dialogues_total",
			Help: "Dialogue lifecycle events, by flow and result (started, completed, cancelled, denied, invalid, failed)",
		},
		[]string{"flow", "result"},
	)

	// ActiveSessions is the number of open dialogues.
	ActiveSessions = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "eventbot_dialogue_sessions_active",
			Help: "Number of open dialogue sessions",
		},
	)

	// EventsCreated counts events stored through the create flow.
	EventsCreated = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "eventbot_events_created_total",
			Help: "Events created",
		},
	)

	// EventsDeleted counts events removed, by reason (command, expired).
	EventsDeleted = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "eventbot_events_deleted_total",
			Help: "Events deleted, by reason",
		},
		[]string{"reason"},
	)

	// SweepRuns counts expiry sweeps by status.
	SweepRuns = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "eventbot_sweep_runs_total",
			Help: "Expiry sweeper runs, by status (ok, error)",
		},
		[]string{"status"},
	)

	// SnapshotLookups counts browse snapshot loads by result (hit, expired, error).
	SnapshotLookups = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "eventbot_snapshot_lookups_total",
			Help: "Browse snapshot lookups, by result",
		},
		[]string{"result"},
	)

	// RateLimited counts updates refused by the per-user limiter.
	RateLimited = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "eventbot_rate_limited_total",
			Help: "Updates refused by the per-user rate limiter",
		},
	)
)
