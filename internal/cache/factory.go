// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package cache

import (
	"context"
	"net/url"
	"time"
)

// Config holds configuration for cache creation.
type Config struct {
	// RedisURL selects the Redis backend when set; otherwise memory is used.
	RedisURL string

	// Prefix is the key prefix for Redis.
	Prefix string

	DefaultTTL time.Duration

	// CleanupInterval is the expired entry sweep interval for memory caches.
	CleanupInterval time.Duration
}

// Backend names reported by New.
const (
	BackendMemory = "memory"
	BackendRedis  = "redis"
)

// New creates a cache based on cfg and reports which backend was chosen.
// A configured but unreachable Redis is an error, not a fallback to memory.
func New(ctx context.Context, cfg Config) (Cache, string, error) {
	if cfg.RedisURL == "" {
		interval := cfg.CleanupInterval
		if interval == 0 {
			interval = time.Minute
		}
		return NewMemoryCache(MemoryCacheOptions{
			DefaultTTL:      cfg.DefaultTTL,
			CleanupInterval: interval,
		}), BackendMemory, nil
	}

	opts := DefaultRedisCacheOptions()
	opts.URL = cfg.RedisURL
	if cfg.Prefix != "" {
		opts.Prefix = cfg.Prefix
	}
	if cfg.DefaultTTL > 0 {
		opts.DefaultTTL = cfg.DefaultTTL
	}

	c, err := NewRedisCache(ctx, opts)
	if err != nil {
		return nil, "", err
	}
	return c, BackendRedis, nil
}

// MaskRedisURL hides the password of a Redis URL for logging.
func MaskRedisURL(raw string) string {
	u, err := url.Parse(raw)
	if err != nil {
		return "redis://***"
	}
	if _, ok := u.User.Password(); ok {
		u.User = url.UserPassword(u.User.Username(), "***")
	}
	return u.String()
}
