// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package browser pages through a captured list of events one at a time.
package browser

import (
	"errors"
	"fmt"

	"github.com/olegiv/eventbot/internal/model"
)

var (
	// ErrOutOfRange is returned by View for an index outside the snapshot.
	ErrOutOfRange = errors.New("browser: index out of range")
	// ErrNoMoreEvents is returned by Navigate at either end of the snapshot.
	ErrNoMoreEvents = errors.New("browser: no more events")
)

// Direction is a navigation step.
type Direction int

const (
	Previous Direction = iota + 1
	Next
)

func (d Direction) String() string {
	switch d {
	case Previous:
		return "prev"
	case Next:
		return "next"
	default:
		return fmt.Sprintf("Direction(%d)", int(d))
	}
}

// ParseDirection is the inverse of Direction.String.
func ParseDirection(s string) (Direction, error) {
	switch s {
	case "prev":
		return Previous, nil
	case "next":
		return Next, nil
	default:
		return 0, fmt.Errorf("browser: unknown direction %q", s)
	}
}

// Page is one displayed event with its navigation flags.
type Page struct {
	Event       model.Event
	Index       int
	Total       int
	HasPrevious bool
	HasNext     bool
}

// View returns the page at index.
func View(snapshot []model.Event, index int) (Page, error) {
	if index < 0 || index >= len(snapshot) {
		return Page{}, fmt.Errorf("%w: %d of %d", ErrOutOfRange, index, len(snapshot))
	}
	return Page{
		Event:       snapshot[index],
		Index:       index,
		Total:       len(snapshot),
		HasPrevious: index > 0,
		HasNext:     index < len(snapshot)-1,
	}, nil
}

// Navigate returns the index one step from index in dir. Stepping past
// either end yields ErrNoMoreEvents.
func Navigate(snapshot []model.Event, index int, dir Direction) (int, error) {
	var to int
	switch dir {
	case Previous:
		to = index - 1
	case Next:
		to = index + 1
	default:
		return index, fmt.Errorf("browser: invalid direction %d", int(dir))
	}
	if to < 0 || to >= len(snapshot) {
		return index, ErrNoMoreEvents
	}
	return to, nil
}
