// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package browser

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/olegiv/eventbot/internal/cache"
	"github.com/olegiv/eventbot/internal/model"
)

// ErrSnapshotExpired is returned by Load once a snapshot left the cache.
var ErrSnapshotExpired = errors.New("browser: snapshot expired")

const (
	snapshotKeyPrefix = "snapshot:"
	latestKeyPrefix   = "snapshot-user:" // id of the user's current snapshot
)

// Snapshot is the event list captured when a user started browsing.
type Snapshot struct {
	ID     uuid.UUID     `json:"id"`
	City   string        `json:"city"`
	Events []model.Event `json:"events"`
}

// Snapshots keeps captured lists in a byte cache.
type Snapshots struct {
	cache cache.Cache
	ttl   time.Duration
}

// NewSnapshots stores snapshots in c for ttl.
func NewSnapshots(c cache.Cache, ttl time.Duration) *Snapshots {
	return &Snapshots{cache: c, ttl: ttl}
}

// Save captures events for userID under a fresh id. The snapshot the user
// browsed before is dropped, so its buttons fall back to a fresh listing.
func (s *Snapshots) Save(ctx context.Context, userID int64, city string, events []model.Event) (Snapshot, error) {
	snap := Snapshot{ID: uuid.New(), City: city, Events: events}

	data, err := json.Marshal(snap)
	if err != nil {
		return Snapshot{}, fmt.Errorf("encoding snapshot: %w", err)
	}

	latestKey := latestKeyPrefix + strconv.FormatInt(userID, 10)
	if prev, err := s.cache.Get(ctx, latestKey); err == nil {
		// Left to expire if the delete fails.
		_ = s.cache.Delete(ctx, snapshotKeyPrefix+string(prev))
	}

	if err := s.cache.Set(ctx, snapshotKeyPrefix+snap.ID.String(), data, s.ttl); err != nil {
		return Snapshot{}, fmt.Errorf("storing snapshot: %w", err)
	}
	if err := s.cache.Set(ctx, latestKey, []byte(snap.ID.String()), s.ttl); err != nil {
		return Snapshot{}, fmt.Errorf("storing snapshot owner: %w", err)
	}
	return snap, nil
}

// Load returns the snapshot saved under id, or ErrSnapshotExpired.
func (s *Snapshots) Load(ctx context.Context, id uuid.UUID) (Snapshot, error) {
	data, err := s.cache.Get(ctx, snapshotKeyPrefix+id.String())
	if errors.Is(err, cache.ErrCacheMiss) {
		return Snapshot{}, ErrSnapshotExpired
	}
	if err != nil {
		return Snapshot{}, fmt.Errorf("loading snapshot: %w", err)
	}

	var snap Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return Snapshot{}, fmt.Errorf("decoding snapshot: %w", err)
	}
	return snap, nil
}
