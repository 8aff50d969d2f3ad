// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package handler provides the HTTP transport of the bot: update and photo
// intake, processed photo serving, health and metrics.
package handler

// Route paths
const (
	RouteUpdates = "/api/v1/updates"
	RoutePhotos  = "/api/v1/photos"
	RouteUploads = "/uploads"
	RouteHealth  = "/health"
	RouteLive    = "/health/live"
	RouteMetrics = "/metrics"
)

// Request body limits
const (
	maxUpdateBytes = 64 << 10
	maxPhotoBytes  = 10 << 20
)
