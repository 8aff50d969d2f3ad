// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package scheduler

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/olegiv/eventbot/internal/store"
	"github.com/olegiv/eventbot/internal/testutil"
)

type fakeDeleter struct {
	mu    sync.Mutex
	calls []time.Time
	n     int64
	err   error
	panic bool
}

func (f *fakeDeleter) DeleteExpiredEvents(_ context.Context, now time.Time) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, now)
	if f.panic {
		panic("boom")
	}
	return f.n, f.err
}

func (f *fakeDeleter) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

type fakeSessions struct {
	evicted atomic.Int32
	ttl     time.Duration
}

func (f *fakeSessions) EvictIdle(_ time.Time, ttl time.Duration) int {
	f.ttl = ttl
	f.evicted.Add(1)
	return 2
}

func (f *fakeSessions) Len() int { return 0 }

var testNow = time.Date(2026, 6, 1, 12, 0, 0, 0, time.UTC)

func TestNew(t *testing.T) {
	logger := testutil.TestLogger()

	s := New(&fakeDeleter{}, nil, logger, Options{SweepInterval: time.Hour})
	if s == nil {
		t.Fatal("New() returned nil")
	}
	if s.cron == nil {
		t.Error("New() scheduler has nil cron")
	}
	if s.logger != logger {
		t.Error("New() scheduler has wrong logger")
	}
	if s.opts.EvictInterval != defaultEvictInterval {
		t.Errorf("EvictInterval = %s, want %s", s.opts.EvictInterval, defaultEvictInterval)
	}
}

func TestScheduler_StartStop(t *testing.T) {
	s := New(&fakeDeleter{}, &fakeSessions{}, testutil.TestLogger(), Options{
		SweepInterval:  24 * time.Hour,
		SessionIdleTTL: time.Hour,
	})

	require.NoError(t, s.Start())
	assert.Error(t, s.Start(), "second Start fails")

	jobs := s.Jobs()
	require.Len(t, jobs, 2)
	assert.Equal(t, JobEvictIdle, jobs[0].Name)
	assert.Equal(t, "@every 10m0s", jobs[0].Schedule)
	assert.Equal(t, JobSweepExpired, jobs[1].Name)
	assert.Equal(t, "@every 24h0m0s", jobs[1].Schedule)
	assert.False(t, jobs[1].NextRun.IsZero())

	s.Stop()
	s.Stop() // no-op
}

func TestScheduler_EvictionDisabled(t *testing.T) {
	s := New(&fakeDeleter{}, &fakeSessions{}, testutil.TestLogger(), Options{SweepInterval: time.Hour})
	require.NoError(t, s.Start())
	defer s.Stop()

	jobs := s.Jobs()
	require.Len(t, jobs, 1)
	assert.Equal(t, JobSweepExpired, jobs[0].Name)
}

func TestScheduler_StartInvalidInterval(t *testing.T) {
	s := New(&fakeDeleter{}, nil, testutil.TestLogger(), Options{})
	assert.Error(t, s.Start())
}

func TestSweepNow(t *testing.T) {
	d := &fakeDeleter{n: 3}
	s := New(d, nil, testutil.TestLogger(), Options{
		SweepInterval: time.Hour,
		Now:           func() time.Time { return testNow },
	})

	n, err := s.SweepNow(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(3), n)
	require.Len(t, d.calls, 1)
	assert.Equal(t, testNow, d.calls[0])
}

func TestSweepNow_Error(t *testing.T) {
	d := &fakeDeleter{err: errors.New("database is locked")}
	s := New(d, nil, testutil.TestLogger(), Options{SweepInterval: time.Hour})

	_, err := s.SweepNow(context.Background())
	assert.ErrorIs(t, err, d.err)
}

func TestEvictNow(t *testing.T) {
	sessions := &fakeSessions{}
	s := New(&fakeDeleter{}, sessions, testutil.TestLogger(), Options{
		SweepInterval:  time.Hour,
		SessionIdleTTL: 30 * time.Minute,
	})

	assert.Equal(t, 2, s.EvictNow())
	assert.Equal(t, 30*time.Minute, sessions.ttl)

	none := New(&fakeDeleter{}, nil, testutil.TestLogger(), Options{SweepInterval: time.Hour})
	assert.Equal(t, 0, none.EvictNow())
}

// A failing or panicking sweep must not stop later runs.
func TestScheduler_JobKeepsRunning(t *testing.T) {
	tests := []struct {
		name string
		d    *fakeDeleter
	}{
		{"error", &fakeDeleter{err: errors.New("disk I/O error")}},
		{"panic", &fakeDeleter{panic: true}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := New(tt.d, nil, testutil.DiscardLogger(), Options{SweepInterval: time.Second})
			require.NoError(t, s.Start())
			defer s.Stop()

			assert.Eventually(t, func() bool { return tt.d.callCount() >= 2 },
				5*time.Second, 50*time.Millisecond)
		})
	}
}

func TestSweepNow_Database(t *testing.T) {
	db := testutil.TestDB(t)
	q := store.New(db)
	ctx := context.Background()

	for _, at := range []time.Time{testNow.Add(-time.Hour), testNow, testNow.Add(time.Hour)} {
		_, err := q.CreateEvent(ctx, store.CreateEventParams{Name: "e", City: "Riga", ScheduledAt: at})
		require.NoError(t, err)
	}

	s := New(q, nil, testutil.TestLogger(), Options{
		SweepInterval: time.Hour,
		Now:           func() time.Time { return testNow },
	})

	n, err := s.SweepNow(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	count, err := q.CountEvents(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(2), count)
}
