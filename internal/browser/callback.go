// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package browser

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/google/uuid"
)

// CallbackPrefix marks button payloads owned by the browser.
const CallbackPrefix = "ev:"

// MaxCallbackLen is the largest payload a messaging button may carry.
const MaxCallbackLen = 64

// ErrBadCallback is returned for payloads that are not browser callbacks.
var ErrBadCallback = errors.New("browser: malformed callback")

// Callback is a navigation button press: move dir from Index within the
// snapshot identified by SnapshotID.
type Callback struct {
	Direction  Direction
	SnapshotID uuid.UUID
	Index      int
}

// Encode renders c as "ev:<dir>:<snapshot>:<index>".
func (c Callback) Encode() string {
	return CallbackPrefix + c.Direction.String() + ":" + c.SnapshotID.String() + ":" + strconv.Itoa(c.Index)
}

// IsCallback reports whether data carries the browser prefix.
func IsCallback(data string) bool {
	return strings.HasPrefix(data, CallbackPrefix)
}

// DecodeCallback parses a payload produced by Callback.Encode.
func DecodeCallback(data string) (Callback, error) {
	if len(data) > MaxCallbackLen || !IsCallback(data) {
		return Callback{}, ErrBadCallback
	}

	parts := strings.Split(strings.TrimPrefix(data, CallbackPrefix), ":")
	if len(parts) != 3 {
		return Callback{}, ErrBadCallback
	}

	dir, err := ParseDirection(parts[0])
	if err != nil {
		return Callback{}, fmt.Errorf("%w: %v", ErrBadCallback, err)
	}
	id, err := uuid.Parse(parts[1])
	if err != nil {
		return Callback{}, fmt.Errorf("%w: %v", ErrBadCallback, err)
	}
	index, err := strconv.Atoi(parts[2])
	if err != nil || index < 0 {
		return Callback{}, fmt.Errorf("%w: bad index %q", ErrBadCallback, parts[2])
	}

	return Callback{Direction: dir, SnapshotID: id, Index: index}, nil
}
