// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package logging

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"testing"

	"github.com/olegiv/eventbot/internal/model"
	"github.com/olegiv/eventbot/internal/store"
	"github.com/olegiv/eventbot/internal/testutil"
)

// discardHandler is a slog.Handler that discards all logs.
type discardHandler struct{}

func (h discardHandler) Enabled(context.Context, slog.Level) bool  { return true }
func (h discardHandler) Handle(context.Context, slog.Record) error { return nil }
func (h discardHandler) WithAttrs([]slog.Attr) slog.Handler        { return h }
func (h discardHandler) WithGroup(string) slog.Handler             { return h }

// failingWriter rejects every entry.
type failingWriter struct{ calls int }

func (w *failingWriter) CreateLogEntry(context.Context, store.CreateLogEntryParams) error {
	w.calls++
	return errors.New("disk full")
}

func entries(t *testing.T, q *store.Queries) []model.LogEntry {
	t.Helper()
	got, err := q.ListRecentLogEntries(context.Background(), 10)
	if err != nil {
		t.Fatalf("ListRecentLogEntries: %v", err)
	}
	return got
}

func TestDBHandler_Levels(t *testing.T) {
	tests := []struct {
		name      string
		log       func(*slog.Logger)
		wantCount int
		wantLevel string
	}{
		{"error", func(l *slog.Logger) { l.Error("database connection failed", "path", "/tmp/x.db") }, 1, model.LogLevelError},
		{"warn", func(l *slog.Logger) { l.Warn("slow query detected", "duration_ms", 5000) }, 1, model.LogLevelWarning},
		{"info not captured", func(l *slog.Logger) { l.Info("server started", "port", 8080) }, 0, ""},
		{"debug not captured", func(l *slog.Logger) { l.Debug("processing update", "user_id", 1) }, 0, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			db := testutil.TestDB(t)
			tt.log(slog.New(NewDBHandler(discardHandler{}, db)))

			got := entries(t, store.New(db))
			if len(got) != tt.wantCount {
				t.Fatalf("expected %d entries, got %d", tt.wantCount, len(got))
			}
			if tt.wantCount == 1 && got[0].Level != tt.wantLevel {
				t.Errorf("Level = %q, want %q", got[0].Level, tt.wantLevel)
			}
		})
	}
}

func TestDBHandler_CustomLevel(t *testing.T) {
	db := testutil.TestDB(t)
	q := store.New(db)

	logger := slog.New(NewDBHandlerWithLevel(discardHandler{}, q, slog.LevelInfo))
	logger.Info("server started", "port", 8080)

	got := entries(t, q)
	if len(got) != 1 {
		t.Fatalf("expected 1 entry with INFO threshold, got %d", len(got))
	}
	if got[0].Level != model.LogLevelInfo {
		t.Errorf("Level = %q", got[0].Level)
	}
}

func TestDBHandler_ExplicitCategory(t *testing.T) {
	db := testutil.TestDB(t)
	logger := slog.New(NewDBHandler(discardHandler{}, db))

	logger.Error("listing events", "category", model.LogCategoryStore, "city", "Riga")

	got := entries(t, store.New(db))
	if len(got) != 1 {
		t.Fatalf("expected 1 entry, got %d", len(got))
	}
	if got[0].Category != model.LogCategoryStore {
		t.Errorf("Category = %q, want %q", got[0].Category, model.LogCategoryStore)
	}

	var meta map[string]string
	if err := json.Unmarshal([]byte(got[0].Metadata), &meta); err != nil {
		t.Fatalf("metadata is not JSON: %v (%s)", err, got[0].Metadata)
	}
	if meta["city"] != "Riga" {
		t.Errorf("metadata city = %q", meta["city"])
	}
	if _, ok := meta["category"]; ok {
		t.Error("category should not be repeated in metadata")
	}
}

func TestDBHandler_CategoryFromWithAttrs(t *testing.T) {
	db := testutil.TestDB(t)
	logger := slog.New(NewDBHandler(discardHandler{}, db)).With("category", model.LogCategoryGateway)

	logger.Warn("something odd")

	got := entries(t, store.New(db))
	if len(got) != 1 || got[0].Category != model.LogCategoryGateway {
		t.Fatalf("entries = %+v", got)
	}
}

func TestCategoryInference(t *testing.T) {
	tests := []struct {
		msg  string
		want string
	}{
		{"sweep failed", model.LogCategorySweeper},
		{"deleting expired events", model.LogCategorySweeper},
		{"dialogue persist failed", model.LogCategoryDialogue},
		{"session replaced", model.LogCategoryDialogue},
		{"gateway send failed", model.LogCategoryGateway},
		{"database is locked", model.LogCategoryStore},
		{"storage failure", model.LogCategoryStore},
		{"shutting down", model.LogCategorySystem},
	}
	for _, tt := range tests {
		if got := category(tt.msg, nil); got != tt.want {
			t.Errorf("category(%q) = %q, want %q", tt.msg, got, tt.want)
		}
	}
}

func TestMetadata(t *testing.T) {
	tests := []struct {
		name  string
		attrs []slog.Attr
		want  map[string]string
	}{
		{"empty", nil, map[string]string{}},
		{
			"escaping",
			[]slog.Attr{slog.String("text", "say \"hi\"\n")},
			map[string]string{"text": "say \"hi\"\n"},
		},
		{
			"groups flattened",
			[]slog.Attr{slog.Group("req", slog.Int("status", 500), slog.String("path", "/x"))},
			map[string]string{"req.status": "500", "req.path": "/x"},
		},
		{
			"category skipped",
			[]slog.Attr{slog.String("category", "store"), slog.Int64("user_id", 7)},
			map[string]string{"user_id": "7"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got map[string]string
			if err := json.Unmarshal([]byte(metadata(tt.attrs)), &got); err != nil {
				t.Fatalf("invalid JSON: %v", err)
			}
			if len(got) != len(tt.want) {
				t.Fatalf("metadata = %v, want %v", got, tt.want)
			}
			for k, v := range tt.want {
				if got[k] != v {
					t.Errorf("%s = %q, want %q", k, got[k], v)
				}
			}
		})
	}
}

func TestDBHandler_WriterFailureIgnored(t *testing.T) {
	w := &failingWriter{}
	logger := slog.New(NewDBHandlerWithLevel(discardHandler{}, w, slog.LevelWarn))

	logger.Error("boom")

	if w.calls != 1 {
		t.Errorf("writer calls = %d, want 1", w.calls)
	}
}

func TestDBHandler_Enabled(t *testing.T) {
	inner := slog.NewTextHandler(nil, &slog.HandlerOptions{Level: slog.LevelWarn})
	h := NewDBHandlerWithLevel(inner, &failingWriter{}, slog.LevelWarn)

	if h.Enabled(context.Background(), slog.LevelInfo) {
		t.Error("Enabled should follow the inner handler")
	}
	if !h.Enabled(context.Background(), slog.LevelError) {
		t.Error("expected ERROR enabled")
	}
}
