// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package store

import (
	"context"
	"fmt"
)

const getUserCity = `SELECT city FROM user_cities WHERE user_id = ?`

// GetUserCity returns the stored city of a user. Returns sql.ErrNoRows if
// the user never chose one.
func (q *Queries) GetUserCity(ctx context.Context, userID int64) (string, error) {
	var city string
	err := q.db.QueryRowContext(ctx, getUserCity, userID).Scan(&city)
	return city, err
}

// UpsertUserCityParams holds the arguments of UpsertUserCity.
type UpsertUserCityParams struct {
	UserID int64
	City   string
}

const upsertUserCity = `
INSERT INTO user_cities (user_id, city) VALUES (?, ?)
ON CONFLICT(user_id) DO UPDATE SET city = excluded.city
`

// UpsertUserCity records the city of a user, overwriting any previous value.
func (q *Queries) UpsertUserCity(ctx context.Context, arg UpsertUserCityParams) error {
	if _, err := q.db.ExecContext(ctx, upsertUserCity, arg.UserID, arg.City); err != nil {
		return fmt.Errorf("saving city of user %d: %w", arg.UserID, err)
	}
	return nil
}
