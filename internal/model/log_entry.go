// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package model

import "time"

// Log entry levels
const (
	LogLevelInfo    = "info"
	LogLevelWarning = "warning"
	LogLevelError   = "error"
)

// Log entry categories
const (
	LogCategoryDialogue = "dialogue"
	LogCategoryStore    = "store"
	LogCategorySweeper  = "sweeper"
	LogCategoryGateway  = "gateway"
	LogCategorySystem   = "system"
)

// LogEntry is a persisted WARN or ERROR log record.
type LogEntry struct {
	ID        int64
	Level     string
	Category  string
	Message   string
	Metadata  string // JSON string
	CreatedAt time.Time
}
