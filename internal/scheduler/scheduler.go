// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package scheduler runs the background jobs of the bot: the expiry sweep
// that purges past events and the eviction of idle dialogue sessions.
package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/olegiv/eventbot/internal/metrics"
	"github.com/olegiv/eventbot/internal/model"
)

// Job names.
const (
	JobSweepExpired = "sweep_expired_events"
	JobEvictIdle    = "evict_idle_sessions"
)

const (
	defaultEvictInterval = 10 * time.Minute
	sweepTimeout         = 30 * time.Second
)

// ExpiredDeleter removes events scheduled before now.
type ExpiredDeleter interface {
	DeleteExpiredEvents(ctx context.Context, now time.Time) (int64, error)
}

// SessionEvictor drops dialogue sessions idle for longer than ttl.
type SessionEvictor interface {
	EvictIdle(now time.Time, ttl time.Duration) int
	Len() int
}

// Options configures the scheduler.
type Options struct {
	SweepInterval  time.Duration // required, > 0
	SessionIdleTTL time.Duration // 0 disables eviction
	EvictInterval  time.Duration // default 10m
	Now            func() time.Time
}

// JobInfo is the public view of a registered job.
type JobInfo struct {
	Name     string    `json:"name"`
	Schedule string    `json:"schedule"`
	LastRun  time.Time `json:"last_run"`
	NextRun  time.Time `json:"next_run"`
}

// Scheduler owns the cron instance running the background jobs.
type Scheduler struct {
	events   ExpiredDeleter
	sessions SessionEvictor
	cron     *cron.Cron
	logger   *slog.Logger
	opts     Options

	mu      sync.Mutex
	entries map[string]registeredJob
	started bool
}

type registeredJob struct {
	id       cron.EntryID
	schedule string
}

// New creates a scheduler. sessions may be nil when eviction is not wanted.
func New(events ExpiredDeleter, sessions SessionEvictor, logger *slog.Logger, opts Options) *Scheduler {
	if logger == nil {
		logger = slog.Default()
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.EvictInterval <= 0 {
		opts.EvictInterval = defaultEvictInterval
	}

	cronLog := cronLogger{logger: logger}
	return &Scheduler{
		events:   events,
		sessions: sessions,
		cron:     cron.New(cron.WithChain(cron.Recover(cronLog)), cron.WithLogger(cronLog)),
		logger:   logger,
		opts:     opts,
		entries:  make(map[string]registeredJob),
	}
}

// Start registers the jobs and starts the cron loop.
// The sweep runs every SweepInterval with constant delay; missed runs are
// not caught up.
func (s *Scheduler) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return fmt.Errorf("scheduler already started")
	}
	if s.opts.SweepInterval <= 0 {
		return fmt.Errorf("sweep interval must be positive, got %s", s.opts.SweepInterval)
	}

	s.addJob(JobSweepExpired, s.opts.SweepInterval, s.runSweep)
	if s.sessions != nil && s.opts.SessionIdleTTL > 0 {
		s.addJob(JobEvictIdle, s.opts.EvictInterval, s.runEvict)
	}

	s.cron.Start()
	s.started = true
	s.logger.Info("scheduler started",
		"jobs", len(s.cron.Entries()),
		"sweep_interval", s.opts.SweepInterval,
		"session_idle_ttl", s.opts.SessionIdleTTL,
	)
	return nil
}

// addJob schedules fn every interval. cron rounds intervals below one
// second up to one second.
func (s *Scheduler) addJob(name string, every time.Duration, fn func()) {
	id := s.cron.Schedule(cron.Every(every), cron.FuncJob(fn))
	s.entries[name] = registeredJob{id: id, schedule: "@every " + every.String()}
}

// Stop stops the cron loop and waits for running jobs to finish.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	started := s.started
	s.started = false
	s.mu.Unlock()

	if !started {
		return
	}
	ctx := s.cron.Stop()
	<-ctx.Done()
	s.logger.Info("scheduler stopped")
}

// SweepNow deletes every event scheduled before the current time and
// returns how many were removed.
func (s *Scheduler) SweepNow(ctx context.Context) (int64, error) {
	now := s.opts.Now()
	n, err := s.events.DeleteExpiredEvents(ctx, now)
	if err != nil {
		metrics.SweepRuns.WithLabelValues("error").Inc()
		return 0, fmt.Errorf("deleting expired events: %w", err)
	}

	metrics.SweepRuns.WithLabelValues("ok").Inc()
	if n > 0 {
		metrics.EventsDeleted.WithLabelValues("expired").Add(float64(n))
		s.logger.Info("expired events removed", "category", model.LogCategorySweeper, "count", n, "before", now.UTC())
	}
	return n, nil
}

// EvictNow drops idle sessions and returns how many were removed.
func (s *Scheduler) EvictNow() int {
	if s.sessions == nil {
		return 0
	}
	n := s.sessions.EvictIdle(s.opts.Now(), s.opts.SessionIdleTTL)
	metrics.ActiveSessions.Set(float64(s.sessions.Len()))
	if n > 0 {
		s.logger.Info("idle sessions evicted", "category", model.LogCategoryDialogue, "count", n)
	}
	return n
}

func (s *Scheduler) runSweep() {
	ctx, cancel := context.WithTimeout(context.Background(), sweepTimeout)
	defer cancel()

	if _, err := s.SweepNow(ctx); err != nil {
		s.logger.Error("expiry sweep failed", "category", model.LogCategorySweeper, "error", err)
	}
}

func (s *Scheduler) runEvict() {
	s.EvictNow()
}

// Jobs lists the registered jobs sorted by name.
func (s *Scheduler) Jobs() []JobInfo {
	s.mu.Lock()
	defer s.mu.Unlock()

	jobs := make([]JobInfo, 0, len(s.entries))
	for name, job := range s.entries {
		entry := s.cron.Entry(job.id)
		jobs = append(jobs, JobInfo{
			Name:     name,
			Schedule: job.schedule,
			LastRun:  entry.Prev,
			NextRun:  entry.Next,
		})
	}
	sort.Slice(jobs, func(i, j int) bool { return jobs[i].Name < jobs[j].Name })
	return jobs
}

// cronLogger adapts slog to cron.Logger.
type cronLogger struct {
	logger *slog.Logger
}

func (l cronLogger) Info(msg string, keysAndValues ...any) {
	l.logger.Debug("cron: "+msg, keysAndValues...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...any) {
	args := append([]any{"category", model.LogCategorySweeper, "error", err}, keysAndValues...)
	l.logger.Error("cron: "+msg, args...)
}
