// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package auth decides which users may manage events.
package auth

// Roles is a static membership list of privileged users.
type Roles struct {
	admins  map[int64]struct{}
	posters map[int64]struct{}
}

// NewRoles builds a Roles from configured id lists.
func NewRoles(adminIDs, posterIDs []int64) *Roles {
	r := &Roles{
		admins:  make(map[int64]struct{}, len(adminIDs)),
		posters: make(map[int64]struct{}, len(posterIDs)),
	}
	for _, id := range adminIDs {
		r.admins[id] = struct{}{}
	}
	for _, id := range posterIDs {
		r.posters[id] = struct{}{}
	}
	return r
}

// IsAdmin reports whether userID is in the admin list.
func (r *Roles) IsAdmin(userID int64) bool {
	_, ok := r.admins[userID]
	return ok
}

// IsPoster reports whether userID is in the poster list.
func (r *Roles) IsPoster(userID int64) bool {
	_, ok := r.posters[userID]
	return ok
}

// CanManageEvents reports whether userID may create or delete events.
func (r *Roles) CanManageEvents(userID int64) bool {
	return r.IsPoster(userID) || r.IsAdmin(userID)
}
