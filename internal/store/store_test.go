// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package store

import (
	"context"
	"database/sql"
	"errors"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// testDB creates a temporary test database.
func testDB(t *testing.T) (*sql.DB, func()) {
	t.Helper()

	f, err := os.CreateTemp(t.TempDir(), "eventbot-test-*.db")
	if err != nil {
		t.Fatalf("creating temp file: %v", err)
	}
	dbPath := f.Name()
	_ = f.Close()

	db, err := NewDB(dbPath)
	if err != nil {
		t.Fatalf("NewDB: %v", err)
	}

	if err := Migrate(db); err != nil {
		_ = db.Close()
		t.Fatalf("Migrate: %v", err)
	}

	return db, func() {
		_ = db.Close()
	}
}

var testNow = time.Date(2026, 6, 1, 12, 0, 0, 0, time.UTC)

func eventParams(name, city string, at time.Time) CreateEventParams {
	return CreateEventParams{
		Name:           name,
		Description:    name + " description",
		PhotoReference: "photo-" + name,
		Author:         "Author of " + name,
		ScheduledAt:    at,
		City:           city,
	}
}

func TestMigrate_Version(t *testing.T) {
	db, cleanup := testDB(t)
	defer cleanup()

	v, err := MigrationVersion(db)
	require.NoError(t, err)
	assert.Equal(t, int64(3), v)

	// Running again is a no-op
	require.NoError(t, Migrate(db))
}

func TestCreateEvent_AssignsIDs(t *testing.T) {
	db, cleanup := testDB(t)
	defer cleanup()

	ctx := context.Background()
	q := New(db)

	id1, err := q.CreateEvent(ctx, eventParams("E1", "Riga", testNow.Add(time.Hour)))
	require.NoError(t, err)
	id2, err := q.CreateEvent(ctx, eventParams("E2", "Riga", testNow.Add(time.Hour)))
	require.NoError(t, err)

	assert.NotZero(t, id1)
	assert.Greater(t, id2, id1)

	got, err := q.GetEvent(ctx, id1)
	require.NoError(t, err)
	assert.Equal(t, "E1", got.Name)
	assert.Equal(t, "E1 description", got.Description)
	assert.Equal(t, "photo-E1", got.PhotoReference)
	assert.Equal(t, "Author of E1", got.Author)
	assert.Equal(t, "Riga", got.City)
	assert.True(t, got.ScheduledAt.Equal(testNow.Add(time.Hour)), "ScheduledAt = %v", got.ScheduledAt)
	assert.Equal(t, []string{}, got.Tags)
}

func TestCreateEvent_StoresUTC(t *testing.T) {
	db, cleanup := testDB(t)
	defer cleanup()

	ctx := context.Background()
	q := New(db)

	riga, err := time.LoadLocation("Europe/Riga")
	require.NoError(t, err)
	local := time.Date(2026, 6, 2, 19, 30, 0, 0, riga)

	id, err := q.CreateEvent(ctx, eventParams("Concert", "Riga", local))
	require.NoError(t, err)

	var raw string
	require.NoError(t, db.QueryRow("SELECT scheduled_at FROM events WHERE id = ?", id).Scan(&raw))
	assert.Equal(t, "2026-06-02 16:30:00", raw)

	got, err := q.GetEvent(ctx, id)
	require.NoError(t, err)
	assert.True(t, got.ScheduledAt.Equal(local))
}

func TestGetEvent_NotFound(t *testing.T) {
	db, cleanup := testDB(t)
	defer cleanup()

	_, err := New(db).GetEvent(context.Background(), 999)
	if !errors.Is(err, sql.ErrNoRows) {
		t.Errorf("GetEvent() error = %v, want sql.ErrNoRows", err)
	}
}

func TestListActiveEventsByCity(t *testing.T) {
	db, cleanup := testDB(t)
	defer cleanup()

	ctx := context.Background()
	q := New(db)

	tomorrow := testNow.Add(24 * time.Hour)
	yesterday := testNow.Add(-24 * time.Hour)

	e1, err := q.CreateEvent(ctx, eventParams("E1", "Riga", tomorrow))
	require.NoError(t, err)
	_, err = q.CreateEvent(ctx, eventParams("E2", "Oslo", tomorrow))
	require.NoError(t, err)
	_, err = q.CreateEvent(ctx, eventParams("E3", "Riga", yesterday))
	require.NoError(t, err)

	got, err := q.ListActiveEventsByCity(ctx, "Riga", testNow)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, e1, got[0].ID)
	assert.Equal(t, "E1", got[0].Name)
}

func TestListActiveEventsByCity_BoundaryAndCase(t *testing.T) {
	db, cleanup := testDB(t)
	defer cleanup()

	ctx := context.Background()
	q := New(db)

	_, err := q.CreateEvent(ctx, eventParams("Now", "Riga", testNow))
	require.NoError(t, err)
	_, err = q.CreateEvent(ctx, eventParams("Lower", "riga", testNow.Add(time.Hour)))
	require.NoError(t, err)

	got, err := q.ListActiveEventsByCity(ctx, "Riga", testNow)
	require.NoError(t, err)
	require.Len(t, got, 1, "event at exactly now is active, city match is case-sensitive")
	assert.Equal(t, "Now", got[0].Name)
}

func TestListActiveEventsByCity_InsertionOrder(t *testing.T) {
	db, cleanup := testDB(t)
	defer cleanup()

	ctx := context.Background()
	q := New(db)

	// Later-scheduled first: order follows insertion, not the date
	for _, p := range []CreateEventParams{
		eventParams("A", "Riga", testNow.Add(72*time.Hour)),
		eventParams("B", "Riga", testNow.Add(24*time.Hour)),
		eventParams("C", "Riga", testNow.Add(48*time.Hour)),
	} {
		_, err := q.CreateEvent(ctx, p)
		require.NoError(t, err)
	}

	got, err := q.ListActiveEventsByCity(ctx, "Riga", testNow)
	require.NoError(t, err)
	require.Len(t, got, 3)
	assert.Equal(t, []string{"A", "B", "C"}, []string{got[0].Name, got[1].Name, got[2].Name})
}

func TestListActiveEventsByCity_Empty(t *testing.T) {
	db, cleanup := testDB(t)
	defer cleanup()

	got, err := New(db).ListActiveEventsByCity(context.Background(), "Nowhere", testNow)
	require.NoError(t, err)
	assert.NotNil(t, got)
	assert.Empty(t, got)
}

func TestInsertThenListAppearsOnce(t *testing.T) {
	db, cleanup := testDB(t)
	defer cleanup()

	ctx := context.Background()
	q := New(db)

	for i := 1; i <= 5; i++ {
		id, err := q.CreateEvent(ctx, eventParams("Repeat", "Tartu", testNow.Add(time.Duration(i)*time.Hour)))
		require.NoError(t, err)

		got, err := q.ListActiveEventsByCity(ctx, "Tartu", testNow)
		require.NoError(t, err)

		seen := 0
		for _, e := range got {
			if e.ID == id {
				seen++
			}
		}
		assert.Equal(t, 1, seen, "event %d should appear exactly once", id)
		assert.Len(t, got, i)
	}
}

func TestDeleteEventsByName(t *testing.T) {
	db, cleanup := testDB(t)
	defer cleanup()

	ctx := context.Background()
	q := New(db)
	at := testNow.Add(time.Hour)

	_, err := q.CreateEvent(ctx, eventParams("Jazz", "Riga", at))
	require.NoError(t, err)
	_, err = q.CreateEvent(ctx, eventParams("Jazz", "Oslo", at))
	require.NoError(t, err)
	_, err = q.CreateEvent(ctx, eventParams("Jazz night", "Riga", at))
	require.NoError(t, err)

	n, err := q.DeleteEventsByName(ctx, "Jazz")
	require.NoError(t, err)
	assert.Equal(t, int64(2), n, "all exact matches are removed")

	n, err = q.DeleteEventsByName(ctx, "Jazz")
	require.NoError(t, err)
	assert.Equal(t, int64(0), n)

	count, err := q.CountEvents(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)
}

func TestDeleteExpiredEvents(t *testing.T) {
	offsets := []time.Duration{-48 * time.Hour, -time.Minute, 0, time.Minute, 48 * time.Hour}

	for _, now := range []time.Time{testNow, testNow.Add(-time.Hour), testNow.Add(30 * time.Hour)} {
		t.Run(now.Format(time.RFC3339), func(t *testing.T) {
			db, cleanup := testDB(t)
			defer cleanup()

			ctx := context.Background()
			q := New(db)

			wantKept := map[int64]bool{}
			for _, off := range offsets {
				at := testNow.Add(off)
				id, err := q.CreateEvent(ctx, eventParams("E", "Riga", at))
				require.NoError(t, err)
				wantKept[id] = !at.Before(now)
			}

			removed, err := q.DeleteExpiredEvents(ctx, now)
			require.NoError(t, err)

			var wantRemoved int64
			for id, kept := range wantKept {
				_, err := q.GetEvent(ctx, id)
				if kept {
					assert.NoError(t, err, "event %d should be kept", id)
				} else {
					wantRemoved++
					assert.ErrorIs(t, err, sql.ErrNoRows, "event %d should be removed", id)
				}
			}
			assert.Equal(t, wantRemoved, removed)
		})
	}
}

func TestUserCity(t *testing.T) {
	db, cleanup := testDB(t)
	defer cleanup()

	ctx := context.Background()
	q := New(db)

	_, err := q.GetUserCity(ctx, 1)
	assert.ErrorIs(t, err, sql.ErrNoRows)

	require.NoError(t, q.UpsertUserCity(ctx, UpsertUserCityParams{UserID: 1, City: "Riga"}))
	require.NoError(t, q.UpsertUserCity(ctx, UpsertUserCityParams{UserID: 2, City: "Oslo"}))

	city, err := q.GetUserCity(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, "Riga", city, "another user's write must not touch user 1")

	require.NoError(t, q.UpsertUserCity(ctx, UpsertUserCityParams{UserID: 1, City: "Tallinn"}))
	city, err = q.GetUserCity(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, "Tallinn", city)

	var rows int
	require.NoError(t, db.QueryRow("SELECT COUNT(*) FROM user_cities").Scan(&rows))
	assert.Equal(t, 2, rows)
}

func TestLogEntries(t *testing.T) {
	db, cleanup := testDB(t)
	defer cleanup()

	ctx := context.Background()
	q := New(db)

	require.NoError(t, q.CreateLogEntry(ctx, CreateLogEntryParams{
		Level: "warning", Category: "sweeper", Message: "first", Metadata: "{}", CreatedAt: testNow,
	}))
	require.NoError(t, q.CreateLogEntry(ctx, CreateLogEntryParams{
		Level: "error", Category: "store", Message: "second", Metadata: `{"k":"v"}`, CreatedAt: testNow.Add(time.Second),
	}))

	entries, err := q.ListRecentLogEntries(ctx, 10)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, "second", entries[0].Message)
	assert.Equal(t, "store", entries[0].Category)
	assert.Equal(t, `{"k":"v"}`, entries[0].Metadata)
	assert.Equal(t, "first", entries[1].Message)
}

func TestSeed(t *testing.T) {
	db, cleanup := testDB(t)
	defer cleanup()

	ctx := context.Background()
	q := New(db)

	require.NoError(t, Seed(ctx, db, false, testNow))
	count, err := q.CountEvents(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(0), count, "disabled seed creates nothing")

	require.NoError(t, Seed(ctx, db, true, testNow))
	active, err := q.ListActiveEventsByCity(ctx, DemoCity, testNow)
	require.NoError(t, err)
	assert.Len(t, active, 2)

	require.NoError(t, Seed(ctx, db, true, testNow))
	count, err = q.CountEvents(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(2), count, "seed is skipped when events exist")
}
