// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package model

// UserCity is a user's chosen city. Writes overwrite, nothing is kept.
type UserCity struct {
	UserID int64
	City   string
}
