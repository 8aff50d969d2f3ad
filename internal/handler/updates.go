// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package handler

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/olegiv/eventbot/internal/bot"
	"github.com/olegiv/eventbot/internal/gateway"
	"github.com/olegiv/eventbot/internal/model"
)

// UpdateProcessor handles one bot update, replying through gw.
type UpdateProcessor interface {
	Handle(ctx context.Context, gw gateway.Gateway, u gateway.Update) error
}

// Limiter decides whether a user may send another update.
type Limiter interface {
	Allow(userID int64) bool
}

// UpdatesHandler accepts bot updates over HTTP.
type UpdatesHandler struct {
	bot     UpdateProcessor
	limiter Limiter
	logger  *slog.Logger
}

// NewUpdatesHandler creates an updates handler. limiter may be nil.
func NewUpdatesHandler(b UpdateProcessor, limiter Limiter, logger *slog.Logger) *UpdatesHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &UpdatesHandler{bot: b, limiter: limiter, logger: logger}
}

// UpdatesResponse lists the replies produced for an update, in order.
type UpdatesResponse struct {
	Replies []gateway.Reply `json:"replies"`
}

// Post handles POST /api/v1/updates.
func (h *UpdatesHandler) Post(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxUpdateBytes)

	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()

	var u gateway.Update
	if err := dec.Decode(&u); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeJSONError(w, http.StatusRequestEntityTooLarge, "too_large", "Update body is too large")
			return
		}
		writeJSONError(w, http.StatusBadRequest, "invalid_update", "Malformed update body")
		return
	}
	if u.UserID == 0 {
		writeJSONError(w, http.StatusBadRequest, "invalid_update", "user_id is required")
		return
	}

	if h.limiter != nil && !h.limiter.Allow(u.UserID) {
		w.Header().Set("Retry-After", "1")
		writeJSONError(w, http.StatusTooManyRequests, "rate_limit_exceeded", "Too many updates. Please slow down.")
		return
	}

	rec := gateway.NewRecorder()
	if err := h.bot.Handle(r.Context(), rec, u); err != nil {
		if errors.Is(err, bot.ErrInvalidUpdate) {
			writeJSONError(w, http.StatusBadRequest, "invalid_update", "Update must carry text, photo or callback")
			return
		}
		h.logger.Error("handling update failed",
			"category", model.LogCategoryGateway,
			"user_id", u.UserID,
			"error", err,
		)
		writeInternalError(w)
		return
	}

	writeJSON(w, http.StatusOK, UpdatesResponse{Replies: rec.Replies()})
}
