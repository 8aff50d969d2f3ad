// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/olegiv/eventbot/internal/model"
)

const eventColumns = `id, name, description, photo_reference, author, scheduled_at, city, tags`

// CreateEventParams holds the fields of a new event.
type CreateEventParams struct {
	Name           string
	Description    string
	PhotoReference string
	Author         string
	ScheduledAt    time.Time
	City           string
	Tags           []string
}

const createEvent = `
INSERT INTO events (name, description, photo_reference, author, scheduled_at, city, tags)
VALUES (?, ?, ?, ?, ?, ?, ?)
`

// CreateEvent inserts an event and returns its new id.
func (q *Queries) CreateEvent(ctx context.Context, arg CreateEventParams) (int64, error) {
	res, err := q.db.ExecContext(ctx, createEvent,
		arg.Name,
		arg.Description,
		arg.PhotoReference,
		arg.Author,
		formatTime(arg.ScheduledAt),
		arg.City,
		model.TagsToJSON(arg.Tags),
	)
	if err != nil {
		return 0, fmt.Errorf("inserting event: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("reading event id: %w", err)
	}
	return id, nil
}

const getEvent = `SELECT ` + eventColumns + ` FROM events WHERE id = ?`

// GetEvent returns a single event. Returns sql.ErrNoRows if it does not exist.
func (q *Queries) GetEvent(ctx context.Context, id int64) (model.Event, error) {
	row := q.db.QueryRowContext(ctx, getEvent, id)
	return scanEvent(row)
}

const listActiveEventsByCity = `
SELECT ` + eventColumns + `
FROM events
WHERE city = ? AND scheduled_at >= ?
ORDER BY id
`

// ListActiveEventsByCity returns the events in city scheduled at or after now,
// in insertion order. No match yields an empty slice.
func (q *Queries) ListActiveEventsByCity(ctx context.Context, city string, now time.Time) ([]model.Event, error) {
	rows, err := q.db.QueryContext(ctx, listActiveEventsByCity, city, formatTime(now))
	if err != nil {
		return nil, fmt.Errorf("listing events for %q: %w", city, err)
	}
	defer func() { _ = rows.Close() }()

	events := []model.Event{}
	for rows.Next() {
		e, err := scanEvent(rows)
		if err != nil {
			return nil, err
		}
		events = append(events, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("listing events for %q: %w", city, err)
	}
	return events, nil
}

const deleteEventsByName = `DELETE FROM events WHERE name = ?`

// DeleteEventsByName removes every event whose name equals name exactly and
// returns how many were removed.
func (q *Queries) DeleteEventsByName(ctx context.Context, name string) (int64, error) {
	res, err := q.db.ExecContext(ctx, deleteEventsByName, name)
	if err != nil {
		return 0, fmt.Errorf("deleting events named %q: %w", name, err)
	}
	return res.RowsAffected()
}

const deleteExpiredEvents = `DELETE FROM events WHERE scheduled_at < ?`

// DeleteExpiredEvents removes every event scheduled before now and returns
// how many were removed.
func (q *Queries) DeleteExpiredEvents(ctx context.Context, now time.Time) (int64, error) {
	res, err := q.db.ExecContext(ctx, deleteExpiredEvents, formatTime(now))
	if err != nil {
		return 0, fmt.Errorf("deleting expired events: %w", err)
	}
	return res.RowsAffected()
}

const countEvents = `SELECT COUNT(*) FROM events`

// CountEvents returns the number of stored events, active or not.
func (q *Queries) CountEvents(ctx context.Context) (int64, error) {
	var n int64
	if err := q.db.QueryRowContext(ctx, countEvents).Scan(&n); err != nil {
		return 0, fmt.Errorf("counting events: %w", err)
	}
	return n, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanEvent(s scanner) (model.Event, error) {
	var (
		e           model.Event
		scheduledAt string
		tags        string
	)
	err := s.Scan(
		&e.ID,
		&e.Name,
		&e.Description,
		&e.PhotoReference,
		&e.Author,
		&scheduledAt,
		&e.City,
		&tags,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Event{}, err
	}
	if err != nil {
		return model.Event{}, fmt.Errorf("scanning event: %w", err)
	}
	if e.ScheduledAt, err = parseTime(scheduledAt); err != nil {
		return model.Event{}, err
	}
	e.Tags = model.TagsFromJSON(tags)
	return e, nil
}
