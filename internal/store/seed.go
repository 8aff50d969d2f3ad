// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package store

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"
)

// DemoCity is the city the demo events are created in.
const DemoCity = "Riga"

// Seed creates demo events in an empty database when enabled.
func Seed(ctx context.Context, db *sql.DB, enabled bool, now time.Time) error {
	if !enabled {
		return nil
	}

	queries := New(db)

	count, err := queries.CountEvents(ctx)
	if err != nil {
		return fmt.Errorf("checking for events: %w", err)
	}
	if count > 0 {
		slog.Info("events already exist, skipping seed", "count", count)
		return nil
	}

	day := now.Truncate(time.Hour)
	demo := []CreateEventParams{
		{
			Name:        "Open mic night",
			Description: "Bring a song, a poem or a joke. Five minutes each.",
			Author:      "Community team",
			ScheduledAt: day.Add(48 * time.Hour),
			City:        DemoCity,
		},
		{
			Name:        "Board game evening",
			Description: "Tables, tea and a shelf of games. Beginners welcome.",
			Author:      "Community team",
			ScheduledAt: day.Add(72 * time.Hour),
			City:        DemoCity,
		},
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("starting seed transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	qtx := queries.WithTx(tx)
	for _, e := range demo {
		id, err := qtx.CreateEvent(ctx, e)
		if err != nil {
			return fmt.Errorf("creating demo event %q: %w", e.Name, err)
		}
		slog.Info("created demo event", "id", id, "name", e.Name, "city", e.City)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing seed: %w", err)
	}
	return nil
}
