// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package model defines the domain types shared by the store, the dialogue
// engine and the event browser.
package model

import (
	"encoding/json"
	"time"
)

// DateLayout is the format posters type event dates in and the format used
// when an event date is shown back to users.
const DateLayout = "2006-01-02 15:04"

// Event is a scheduled happening in a city.
type Event struct {
	ID             int64     `json:"id"`
	Name           string    `json:"name"`
	Description    string    `json:"description"`
	PhotoReference string    `json:"photo_reference"`
	Author         string    `json:"author"`
	ScheduledAt    time.Time `json:"scheduled_at"`
	City           string    `json:"city"`
	Tags           []string  `json:"tags"`
}

// IsActive reports whether the event has not started yet relative to now.
func (e *Event) IsActive(now time.Time) bool {
	return !e.ScheduledAt.Before(now)
}

// TagsToJSON encodes tags for storage. Nil and empty slices become "[]".
func TagsToJSON(tags []string) string {
	if len(tags) == 0 {
		return "[]"
	}
	data, _ := json.Marshal(tags)
	return string(data)
}

// TagsFromJSON decodes stored tags. Empty or malformed input yields an empty slice.
func TagsFromJSON(s string) []string {
	tags := []string{}
	if s == "" || s == "[]" {
		return tags
	}
	if err := json.Unmarshal([]byte(s), &tags); err != nil {
		return []string{}
	}
	return tags
}
