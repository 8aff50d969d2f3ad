// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestCollectorsRegistered(t *testing.T) {
	collectors := map[string]prometheus.Collector{
		"RequestDuration": RequestDuration,
		"UpdatesTotal":    UpdatesTotal,
		"DialoguesTotal":  DialoguesTotal,
		"ActiveSessions":  ActiveSessions,
		"EventsCreated":   EventsCreated,
		"EventsDeleted":   EventsDeleted,
		"SweepRuns":       SweepRuns,
		"SnapshotLookups": SnapshotLookups,
		"RateLimited":     RateLimited,
	}

	for name, c := range collectors {
		if err := prometheus.DefaultRegisterer.Register(c); err == nil {
			t.Errorf("%s was not registered by promauto", name)
		}
	}
}

func TestCounterIncrements(t *testing.T) {
	before := testutil.ToFloat64(SweepRuns.WithLabelValues("ok"))
	SweepRuns.WithLabelValues("ok").Inc()
	if got := testutil.ToFloat64(SweepRuns.WithLabelValues("ok")); got != before+1 {
		t.Errorf("SweepRuns{ok} = %v, want %v", got, before+1)
	}
}
