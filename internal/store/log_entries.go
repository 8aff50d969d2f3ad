// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package store

import (
	"context"
	"fmt"
	"time"

	"github.com/olegiv/eventbot/internal/model"
)

// CreateLogEntryParams holds the fields of a persisted log record.
type CreateLogEntryParams struct {
	Level     string
	Category  string
	Message   string
	Metadata  string
	CreatedAt time.Time
}

const createLogEntry = `
INSERT INTO log_entries (level, category, message, metadata, created_at)
VALUES (?, ?, ?, ?, ?)
`

// CreateLogEntry stores a log record.
func (q *Queries) CreateLogEntry(ctx context.Context, arg CreateLogEntryParams) error {
	_, err := q.db.ExecContext(ctx, createLogEntry,
		arg.Level, arg.Category, arg.Message, arg.Metadata, formatTime(arg.CreatedAt))
	if err != nil {
		return fmt.Errorf("inserting log entry: %w", err)
	}
	return nil
}

const listRecentLogEntries = `
SELECT id, level, category, message, metadata, created_at
FROM log_entries
ORDER BY id DESC
LIMIT ?
`

// ListRecentLogEntries returns up to limit log records, newest first.
func (q *Queries) ListRecentLogEntries(ctx context.Context, limit int) ([]model.LogEntry, error) {
	rows, err := q.db.QueryContext(ctx, listRecentLogEntries, limit)
	if err != nil {
		return nil, fmt.Errorf("listing log entries: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var entries []model.LogEntry
	for rows.Next() {
		var (
			e         model.LogEntry
			createdAt string
		)
		if err := rows.Scan(&e.ID, &e.Level, &e.Category, &e.Message, &e.Metadata, &createdAt); err != nil {
			return nil, fmt.Errorf("scanning log entry: %w", err)
		}
		if e.CreatedAt, err = parseTime(createdAt); err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}
