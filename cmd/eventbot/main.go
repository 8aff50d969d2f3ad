// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package main

import (
	"context"
	"database/sql"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/olegiv/eventbot/internal/auth"
	"github.com/olegiv/eventbot/internal/bot"
	"github.com/olegiv/eventbot/internal/browser"
	"github.com/olegiv/eventbot/internal/cache"
	"github.com/olegiv/eventbot/internal/config"
	"github.com/olegiv/eventbot/internal/dialogue"
	"github.com/olegiv/eventbot/internal/handler"
	"github.com/olegiv/eventbot/internal/i18n"
	"github.com/olegiv/eventbot/internal/imaging"
	"github.com/olegiv/eventbot/internal/logging"
	"github.com/olegiv/eventbot/internal/middleware"
	"github.com/olegiv/eventbot/internal/model"
	"github.com/olegiv/eventbot/internal/scheduler"
	"github.com/olegiv/eventbot/internal/store"
	"github.com/olegiv/eventbot/internal/util"
	"github.com/olegiv/eventbot/internal/version"
)

// Version information - injected at build time via ldflags
var (
	appVersion   = "dev"
	appGitCommit = "unknown"
	appBuildTime = "unknown"
)

func main() {
	// Parse CLI flags
	showVersion := flag.Bool("version", false, "Show version information")
	flag.BoolVar(showVersion, "v", false, "Show version information (shorthand)")
	showHelp := flag.Bool("help", false, "Show help information")
	flag.BoolVar(showHelp, "h", false, "Show help information (shorthand)")

	flag.Usage = func() {
		_, _ = fmt.Fprintf(os.Stderr, "eventbot - conversational event board\n\n")
		_, _ = fmt.Fprintf(os.Stderr, "Usage: %s [options]\n\n", os.Args[0])
		_, _ = fmt.Fprintf(os.Stderr, "Options:\n")
		flag.PrintDefaults()
		_, _ = fmt.Fprintf(os.Stderr, "\nEnvironment Variables:\n")
		_, _ = fmt.Fprintf(os.Stderr, "  EVENTBOT_DB_PATH           SQLite database path (default: ./data/eventbot.db)\n")
		_, _ = fmt.Fprintf(os.Stderr, "  EVENTBOT_SERVER_PORT       Server port (default: 8080)\n")
		_, _ = fmt.Fprintf(os.Stderr, "  EVENTBOT_ADMIN_IDS         Comma-separated admin user ids\n")
		_, _ = fmt.Fprintf(os.Stderr, "  EVENTBOT_POSTER_IDS        Comma-separated poster user ids\n")
		_, _ = fmt.Fprintf(os.Stderr, "  EVENTBOT_TIMEZONE          Zone event dates are entered in (default: Local)\n")
		_, _ = fmt.Fprintf(os.Stderr, "  EVENTBOT_SWEEP_INTERVAL    Expired event purge interval (default: 24h)\n")
		_, _ = fmt.Fprintf(os.Stderr, "  EVENTBOT_REDIS_URL         Redis URL for shared browse snapshots (optional)\n")
		_, _ = fmt.Fprintf(os.Stderr, "  EVENTBOT_DEFAULT_LANGUAGE  en|ru (default: ru)\n")
	}

	flag.Parse()

	if *showHelp {
		flag.Usage()
		os.Exit(0)
	}

	versionInfo := version.Info{
		Version:   appVersion,
		GitCommit: appGitCommit,
		BuildTime: appBuildTime,
	}
	if *showVersion {
		_, _ = fmt.Println(versionInfo.String())
		os.Exit(0)
	}

	if err := run(versionInfo); err != nil {
		slog.Error("application error", "error", err)
		os.Exit(1)
	}
}

func parseLogLevel(s string) slog.Level {
	switch s {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func run(versionInfo version.Info) error {
	// Load .env file if present (development)
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	logLevel := parseLogLevel(cfg.LogLevel)
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: logLevel}))
	slog.SetDefault(logger)

	// Ensure data directory exists
	if err := os.MkdirAll(filepath.Dir(cfg.DBPath), 0755); err != nil {
		return fmt.Errorf("creating data directory: %w", err)
	}

	slog.Info("initializing database", "path", cfg.DBPath)
	db, err := store.NewDB(cfg.DBPath)
	if err != nil {
		return fmt.Errorf("initializing database: %w", err)
	}
	defer func(db *sql.DB) {
		if err := db.Close(); err != nil {
			slog.Error("error closing database connection", "error", err)
		}
	}(db)

	slog.Info("running database migrations")
	if err := store.Migrate(db); err != nil {
		return fmt.Errorf("running migrations: %w", err)
	}
	slog.Info("database ready")

	// Upgrade logger to also write WARN and ERROR records to log_entries
	textHandler := slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: logLevel})
	logger = slog.New(logging.NewDBHandler(textHandler, db))
	slog.SetDefault(logger)

	ctx := context.Background()
	if err := store.Seed(ctx, db, cfg.DoSeed, time.Now()); err != nil {
		return fmt.Errorf("seeding database: %w", err)
	}

	msgs, err := i18n.New(cfg.DefaultLanguage, logger)
	if err != nil {
		return fmt.Errorf("initializing i18n: %w", err)
	}

	snapshotCache, backend, err := cache.New(ctx, cache.Config{
		RedisURL:   cfg.RedisURL,
		Prefix:     cfg.CachePrefix,
		DefaultTTL: cfg.SnapshotTTL,
	})
	if err != nil {
		return fmt.Errorf("connecting to redis %s: %w", cache.MaskRedisURL(cfg.RedisURL), err)
	}
	defer func() { _ = snapshotCache.Close() }()
	if backend == cache.BackendRedis {
		slog.Info("snapshot cache ready", "backend", backend, "url", cache.MaskRedisURL(cfg.RedisURL))
	} else {
		slog.Info("snapshot cache ready", "backend", backend)
	}

	queries := store.New(db)
	roles := auth.NewRoles(cfg.AdminIDs, cfg.PosterIDs)
	slog.Info("roles loaded", "admins", len(cfg.AdminIDs), "posters", len(cfg.PosterIDs))

	engine := dialogue.NewEngine(queries, queries, roles, dialogue.Options{
		Location: cfg.Location(),
		Sanitize: util.SanitizeText,
		Logger:   logger,
	})

	svc := bot.NewService(bot.Config{
		Events:    queries,
		Cities:    queries,
		Engine:    engine,
		Snapshots: browser.NewSnapshots(snapshotCache, cfg.SnapshotTTL),
		Roles:     roles,
		Messages:  msgs,
		Location:  cfg.Location(),
		Logger:    logger,
	})

	sched := scheduler.New(queries, engine, logger, scheduler.Options{
		SweepInterval:  cfg.SweepInterval,
		SessionIdleTTL: cfg.SessionIdleTTL,
	})
	// Purge what expired while the bot was down, then keep purging.
	if _, err := sched.SweepNow(ctx); err != nil {
		slog.Error("initial sweep failed", "category", model.LogCategorySweeper, "error", err)
	}
	if err := sched.Start(); err != nil {
		return fmt.Errorf("starting scheduler: %w", err)
	}
	defer sched.Stop()

	router := handler.NewRouter(handler.RouterConfig{
		Updates: handler.NewUpdatesHandler(svc, middleware.NewUserLimiter(cfg.UserRate, cfg.UserBurst), logger),
		Photos:  handler.NewPhotosHandler(imaging.NewProcessor(cfg.UploadsDir), logger),
		Health: handler.NewHealthHandler(handler.HealthConfig{
			DB:           db,
			Cache:        snapshotCache,
			CacheBackend: backend,
			Sessions:     engine,
			Jobs:         sched,
			UploadsDir:   cfg.UploadsDir,
			Version:      versionInfo.Version,
		}),
		UploadsDir:    cfg.UploadsDir,
		IPRequests:    cfg.IPRateLimit,
		IPWindow:      cfg.IPRateWindow,
		IsDevelopment: cfg.IsDevelopment(),
		Logger:        logger,
	})

	srv := &http.Server{
		Addr:              cfg.ServerAddr(),
		Handler:           router,
		ReadTimeout:       15 * time.Second,
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      60 * time.Second, // Photo uploads
		IdleTimeout:       60 * time.Second,
		MaxHeaderBytes:    1 << 20,
	}

	serverErr := make(chan error, 1)
	go func() {
		slog.Info("starting server", "addr", cfg.ServerAddr(), "env", cfg.Env, "version", versionInfo.Version)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	select {
	case <-quit:
	case err := <-serverErr:
		return fmt.Errorf("server: %w", err)
	}

	slog.Info("shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}

	slog.Info("server stopped")
	return nil
}
