// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"

	"github.com/olegiv/eventbot/internal/i18n"
)

// Config holds the application configuration loaded from environment variables.
type Config struct {
	DBPath     string `env:"EVENTBOT_DB_PATH" envDefault:"./data/eventbot.db"`
	ServerHost string `env:"EVENTBOT_SERVER_HOST" envDefault:"localhost"`
	ServerPort int    `env:"EVENTBOT_SERVER_PORT" envDefault:"8080"`
	Env        string `env:"EVENTBOT_ENV" envDefault:"development"`
	LogLevel   string `env:"EVENTBOT_LOG_LEVEL" envDefault:"info"`
	UploadsDir string `env:"EVENTBOT_UPLOADS_DIR" envDefault:"./uploads"`

	// Privileged users
	AdminIDs  []int64 `env:"EVENTBOT_ADMIN_IDS" envSeparator:","`
	PosterIDs []int64 `env:"EVENTBOT_POSTER_IDS" envSeparator:","`

	// Event dates typed by posters are interpreted in this zone
	Timezone string `env:"EVENTBOT_TIMEZONE" envDefault:"Local"`

	// Background jobs
	SweepInterval  time.Duration `env:"EVENTBOT_SWEEP_INTERVAL" envDefault:"24h"`
	SessionIdleTTL time.Duration `env:"EVENTBOT_SESSION_IDLE_TTL" envDefault:"24h"` // 0 disables eviction

	// Browse snapshot cache
	SnapshotTTL time.Duration `env:"EVENTBOT_SNAPSHOT_TTL" envDefault:"1h"`
	RedisURL    string        `env:"EVENTBOT_REDIS_URL"`                         // Optional Redis URL for shared snapshots
	CachePrefix string        `env:"EVENTBOT_CACHE_PREFIX" envDefault:"eventbot:"` // Redis key prefix

	// Per-user inbound rate limit
	UserRate  float64 `env:"EVENTBOT_USER_RATE" envDefault:"2"`
	UserBurst int     `env:"EVENTBOT_USER_BURST" envDefault:"5"`

	// Per-IP limit on the API routes; 0 disables it
	IPRateLimit  int           `env:"EVENTBOT_IP_RATE_LIMIT" envDefault:"120"`
	IPRateWindow time.Duration `env:"EVENTBOT_IP_RATE_WINDOW" envDefault:"1m"`

	DefaultLanguage string `env:"EVENTBOT_DEFAULT_LANGUAGE" envDefault:"ru"`

	// Seeding configuration
	DoSeed bool `env:"EVENTBOT_DO_SEED" envDefault:"false"` // Create demo events in an empty database

	location *time.Location
}

// IsDevelopment returns true if the application is running in development mode.
func (c Config) IsDevelopment() bool {
	return c.Env == "development"
}

// ServerAddr returns the full server address in host:port format.
func (c Config) ServerAddr() string {
	return fmt.Sprintf("%s:%d", c.ServerHost, c.ServerPort)
}

// UseRedisCache returns true if Redis caching is configured.
func (c Config) UseRedisCache() bool {
	return c.RedisURL != ""
}

// Location returns the parsed time zone, falling back to time.Local.
func (c Config) Location() *time.Location {
	if c.location == nil {
		return time.Local
	}
	return c.location
}

// Load parses environment variables and returns a Config struct.
func Load() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}

	loc, err := time.LoadLocation(cfg.Timezone)
	if err != nil {
		return nil, fmt.Errorf("EVENTBOT_TIMEZONE %q is not a known time zone: %w", cfg.Timezone, err)
	}
	cfg.location = loc

	if cfg.SweepInterval <= 0 {
		return nil, fmt.Errorf("EVENTBOT_SWEEP_INTERVAL must be positive, got %s", cfg.SweepInterval)
	}
	if cfg.SnapshotTTL <= 0 {
		return nil, fmt.Errorf("EVENTBOT_SNAPSHOT_TTL must be positive, got %s", cfg.SnapshotTTL)
	}
	if cfg.SessionIdleTTL < 0 {
		return nil, fmt.Errorf("EVENTBOT_SESSION_IDLE_TTL must not be negative, got %s", cfg.SessionIdleTTL)
	}
	if cfg.UserRate <= 0 || cfg.UserBurst <= 0 {
		return nil, fmt.Errorf("EVENTBOT_USER_RATE and EVENTBOT_USER_BURST must be positive")
	}

	if cfg.IPRateLimit < 0 || (cfg.IPRateLimit > 0 && cfg.IPRateWindow <= 0) {
		return nil, fmt.Errorf("EVENTBOT_IP_RATE_LIMIT must not be negative and needs a positive EVENTBOT_IP_RATE_WINDOW")
	}

	cfg.DefaultLanguage = strings.ToLower(cfg.DefaultLanguage)
	if !i18n.IsSupported(cfg.DefaultLanguage) {
		return nil, fmt.Errorf("EVENTBOT_DEFAULT_LANGUAGE %q is not supported (want one of %s)",
			cfg.DefaultLanguage, strings.Join(i18n.SupportedLanguages, ", "))
	}

	return cfg, nil
}
