// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package logging provides a slog handler that mirrors WARN and ERROR
// records into the log_entries table.
package logging

import (
	"context"
	"database/sql"
	"encoding/json"
	"log/slog"
	"strings"

	"github.com/olegiv/eventbot/internal/model"
	"github.com/olegiv/eventbot/internal/store"
)

// LogWriter persists log records.
type LogWriter interface {
	CreateLogEntry(ctx context.Context, arg store.CreateLogEntryParams) error
}

// DBHandler is a slog.Handler that wraps another handler and also writes
// records at or above its level to the database.
type DBHandler struct {
	inner  slog.Handler
	writer LogWriter
	level  slog.Level // Minimum level to persist (default: WARN)
	attrs  []slog.Attr
}

// NewDBHandler creates a DBHandler that wraps the given handler.
// Records at WARN and above are written to both the wrapped handler and db.
func NewDBHandler(inner slog.Handler, db *sql.DB) *DBHandler {
	return NewDBHandlerWithLevel(inner, store.New(db), slog.LevelWarn)
}

// NewDBHandlerWithLevel creates a DBHandler with a custom writer and minimum level.
func NewDBHandlerWithLevel(inner slog.Handler, writer LogWriter, level slog.Level) *DBHandler {
	return &DBHandler{
		inner:  inner,
		writer: writer,
		level:  level,
	}
}

// Enabled implements slog.Handler.
func (h *DBHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.inner.Enabled(ctx, level)
}

// Handle implements slog.Handler.
func (h *DBHandler) Handle(ctx context.Context, r slog.Record) error {
	if err := h.inner.Handle(ctx, r); err != nil {
		return err
	}

	if r.Level >= h.level {
		h.persist(r)
	}

	return nil
}

// WithAttrs implements slog.Handler.
func (h *DBHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &DBHandler{
		inner:  h.inner.WithAttrs(attrs),
		writer: h.writer,
		level:  h.level,
		attrs:  append(append([]slog.Attr(nil), h.attrs...), attrs...),
	}
}

// WithGroup implements slog.Handler. Grouped attributes are stored flat.
func (h *DBHandler) WithGroup(name string) slog.Handler {
	return &DBHandler{
		inner:  h.inner.WithGroup(name),
		writer: h.writer,
		level:  h.level,
		attrs:  h.attrs,
	}
}

// persist writes r to the database. Failures are dropped: logging them
// would recurse into this handler.
func (h *DBHandler) persist(r slog.Record) {
	attrs := make([]slog.Attr, 0, len(h.attrs)+r.NumAttrs())
	attrs = append(attrs, h.attrs...)
	r.Attrs(func(a slog.Attr) bool {
		attrs = append(attrs, a)
		return true
	})

	// Background context so the entry survives a cancelled request.
	_ = h.writer.CreateLogEntry(context.Background(), store.CreateLogEntryParams{
		Level:     levelName(r.Level),
		Category:  category(r.Message, attrs),
		Message:   r.Message,
		Metadata:  metadata(attrs),
		CreatedAt: r.Time,
	})
}

func levelName(level slog.Level) string {
	switch {
	case level >= slog.LevelError:
		return model.LogLevelError
	case level >= slog.LevelWarn:
		return model.LogLevelWarning
	default:
		return model.LogLevelInfo
	}
}

// category returns the "category" attribute, or infers one from msg.
func category(msg string, attrs []slog.Attr) string {
	for i := len(attrs) - 1; i >= 0; i-- {
		if attrs[i].Key == "category" {
			if c := attrs[i].Value.String(); c != "" {
				return c
			}
		}
	}

	msg = strings.ToLower(msg)
	switch {
	case strings.Contains(msg, "sweep") || strings.Contains(msg, "expired"):
		return model.LogCategorySweeper
	case strings.Contains(msg, "dialogue") || strings.Contains(msg, "session"):
		return model.LogCategoryDialogue
	case strings.Contains(msg, "gateway") || strings.Contains(msg, "send") || strings.Contains(msg, "reply"):
		return model.LogCategoryGateway
	case strings.Contains(msg, "database") || strings.Contains(msg, "storage") || strings.Contains(msg, "store") ||
		strings.Contains(msg, "query") || strings.Contains(msg, "migration"):
		return model.LogCategoryStore
	default:
		return model.LogCategorySystem
	}
}

// metadata renders attrs, minus category, as a flat JSON object.
func metadata(attrs []slog.Attr) string {
	m := make(map[string]string, len(attrs))
	for _, a := range attrs {
		addAttr(m, "", a)
	}
	if len(m) == 0 {
		return "{}"
	}
	b, err := json.Marshal(m)
	if err != nil {
		return "{}"
	}
	return string(b)
}

func addAttr(m map[string]string, prefix string, a slog.Attr) {
	if a.Key == "category" && prefix == "" {
		return
	}
	key := a.Key
	if prefix != "" {
		key = prefix + "." + a.Key
	}

	v := a.Value.Resolve()
	if v.Kind() == slog.KindGroup {
		for _, ga := range v.Group() {
			addAttr(m, key, ga)
		}
		return
	}
	m[key] = v.String()
}
