// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package handler

import (
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/olegiv/eventbot/internal/middleware"
)

// RouterConfig wires the HTTP routes.
type RouterConfig struct {
	Updates *UpdatesHandler
	Photos  *PhotosHandler
	Health  *HealthHandler

	// UploadsDir is served under /uploads when set.
	UploadsDir string

	// IPRequests per IPWindow are allowed per client on the API routes.
	// Zero disables the limit.
	IPRequests int
	IPWindow   time.Duration

	// RequestTimeout bounds request handling (default 30s).
	RequestTimeout time.Duration

	IsDevelopment bool
	Logger        *slog.Logger
}

// NewRouter builds the chi router serving the bot API.
func NewRouter(cfg RouterConfig) http.Handler {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	timeout := cfg.RequestTimeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	r := chi.NewRouter()

	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(middleware.RequestLogger(logger))
	r.Use(chimw.Recoverer)
	r.Use(chimw.Timeout(timeout))
	r.Use(middleware.SecurityHeaders(middleware.DefaultSecurityHeadersConfig(cfg.IsDevelopment)))

	if cfg.Health != nil {
		r.Get(RouteHealth, cfg.Health.Health)
		r.Get(RouteLive, cfg.Health.Liveness)
	}
	r.Handle(RouteMetrics, promhttp.Handler())

	r.Group(func(r chi.Router) {
		if cfg.IPRequests > 0 && cfg.IPWindow > 0 {
			r.Use(middleware.IPRateLimit(cfg.IPRequests, cfg.IPWindow))
		}
		if cfg.Updates != nil {
			r.Post(RouteUpdates, cfg.Updates.Post)
		}
		if cfg.Photos != nil {
			r.Post(RoutePhotos, cfg.Photos.Upload)
		}
	})

	if cfg.UploadsDir != "" {
		r.Get(RouteUploads+"/*", uploadsHandler(cfg.UploadsDir))
	}

	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		writeJSONError(w, http.StatusNotFound, "not_found", "Not Found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, _ *http.Request) {
		writeJSONError(w, http.StatusMethodNotAllowed, "method_not_allowed", "Method Not Allowed")
	})

	return r
}

// uploadsHandler serves stored photos without directory listings.
func uploadsHandler(dir string) http.HandlerFunc {
	fs := http.StripPrefix(RouteUploads+"/", http.FileServer(http.Dir(dir)))
	return func(w http.ResponseWriter, r *http.Request) {
		if strings.HasSuffix(r.URL.Path, "/") {
			writeJSONError(w, http.StatusNotFound, "not_found", "Not Found")
			return
		}
		fs.ServeHTTP(w, r)
	}
}
