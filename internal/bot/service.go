// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package bot routes user updates to the dialogue engine, the event
// browser and the stores, and replies through a messaging gateway.
package bot

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/olegiv/eventbot/internal/browser"
	"github.com/olegiv/eventbot/internal/dialogue"
	"github.com/olegiv/eventbot/internal/gateway"
	"github.com/olegiv/eventbot/internal/i18n"
	"github.com/olegiv/eventbot/internal/metrics"
	"github.com/olegiv/eventbot/internal/model"
)

// ErrInvalidUpdate is returned for updates without a user or content.
var ErrInvalidUpdate = errors.New("bot: invalid update")

// EventStore is the event persistence used by the router.
type EventStore interface {
	ListActiveEventsByCity(ctx context.Context, city string, now time.Time) ([]model.Event, error)
	DeleteEventsByName(ctx context.Context, name string) (int64, error)
}

// CityStore reads the preferred city of a user.
type CityStore interface {
	GetUserCity(ctx context.Context, userID int64) (string, error)
}

// Authorizer decides who may create and delete events.
type Authorizer interface {
	CanManageEvents(userID int64) bool
}

// Config wires a Service.
type Config struct {
	Events    EventStore
	Cities    CityStore
	Engine    *dialogue.Engine
	Snapshots *browser.Snapshots
	Roles     Authorizer
	Messages  *i18n.Catalog
	Location  *time.Location   // zone event dates are shown in (default time.Local)
	Now       func() time.Time // default time.Now
	Logger    *slog.Logger
}

// Service handles updates. It is safe for concurrent use; updates of the
// same user are processed one at a time.
type Service struct {
	events    EventStore
	cities    CityStore
	engine    *dialogue.Engine
	snapshots *browser.Snapshots
	roles     Authorizer
	msgs      *i18n.Catalog
	loc       *time.Location
	now       func() time.Time
	logger    *slog.Logger
	locks     *userLocks
}

// NewService creates a router from cfg.
func NewService(cfg Config) *Service {
	s := &Service{
		events:    cfg.Events,
		cities:    cfg.Cities,
		engine:    cfg.Engine,
		snapshots: cfg.Snapshots,
		roles:     cfg.Roles,
		msgs:      cfg.Messages,
		loc:       cfg.Location,
		now:       cfg.Now,
		logger:    cfg.Logger,
		locks:     newUserLocks(),
	}
	if s.loc == nil {
		s.loc = time.Local
	}
	if s.now == nil {
		s.now = time.Now
	}
	if s.logger == nil {
		s.logger = slog.Default()
	}
	return s
}

// request carries per-update context through the handlers.
type request struct {
	gw     gateway.Gateway
	userID int64
	lang   string
}

// Handle processes one update and sends the replies through gw.
//
// Storage failures are logged and answered with a generic message; they do
// not make Handle fail. An error is returned for malformed updates and for
// replies the gateway could not deliver.
func (s *Service) Handle(ctx context.Context, gw gateway.Gateway, u gateway.Update) error {
	if u.UserID == 0 {
		return fmt.Errorf("%w: missing user id", ErrInvalidUpdate)
	}
	if u.Text == "" && u.PhotoRef == "" && u.Callback == "" {
		return fmt.Errorf("%w: empty update", ErrInvalidUpdate)
	}

	unlock := s.locks.lock(u.UserID)
	defer unlock()

	req := request{gw: gw, userID: u.UserID, lang: s.msgs.Match(u.LanguageCode)}

	var (
		kind string
		err  error
	)
	switch {
	case u.Callback != "":
		kind = "callback"
		err = s.handleCallback(ctx, req, u.Callback)
	case u.PhotoRef != "":
		kind = "dialogue"
		err = s.handleInput(ctx, req, dialogue.PhotoInput(u.PhotoRef))
	default:
		cmd, arg, ok := s.parseCommand(u.Text)
		if ok {
			kind = "command"
			err = s.handleCommand(ctx, req, cmd, arg)
		} else {
			kind = "dialogue"
			err = s.handleInput(ctx, req, dialogue.TextInput(u.Text))
		}
	}

	metrics.ActiveSessions.Set(float64(s.engine.Len()))
	if err != nil {
		metrics.UpdatesTotal.WithLabelValues(kind, "error").Inc()
		s.logger.Error("failed to deliver reply",
			"category", model.LogCategoryGateway,
			"user_id", u.UserID,
			"error", err,
		)
		return err
	}
	metrics.UpdatesTotal.WithLabelValues(kind, "ok").Inc()
	return nil
}

// storageFailure logs err and tells the user something went wrong.
func (s *Service) storageFailure(ctx context.Context, req request, op string, err error) error {
	s.logger.Error(op+" failed",
		"category", model.LogCategoryStore,
		"user_id", req.userID,
		"error", err,
	)
	return s.sendText(ctx, req, s.msgs.T(req.lang, "bot.error"), nil)
}

func (s *Service) sendText(ctx context.Context, req request, text string, kb gateway.Keyboard) error {
	if err := req.gw.SendText(ctx, req.userID, text, kb); err != nil {
		return fmt.Errorf("sending text: %w", err)
	}
	return nil
}

// handleInput feeds free text or a photo to the open dialogue.
func (s *Service) handleInput(ctx context.Context, req request, in dialogue.Input) error {
	sess, open := s.engine.Session(req.userID)
	if !open {
		return s.sendText(ctx, req, s.msgs.T(req.lang, "bot.unknown"), s.mainMenu(req.lang, req.userID))
	}
	flow := sess.Kind.String()

	step, err := s.engine.Feed(ctx, req.userID, in)
	var verr *dialogue.ValidationError
	switch {
	case errors.As(err, &verr):
		metrics.DialoguesTotal.WithLabelValues(flow, "invalid").Inc()
		return s.sendText(ctx, req, s.msgs.T(req.lang, verr.Prompt), s.cancelMenu(req.lang))
	case errors.Is(err, dialogue.ErrNoSession):
		return s.sendText(ctx, req, s.msgs.T(req.lang, "bot.unknown"), s.mainMenu(req.lang, req.userID))
	case err != nil:
		metrics.DialoguesTotal.WithLabelValues(flow, "failed").Inc()
		return s.storageFailure(ctx, req, "dialogue save", err)
	}

	if !step.Done {
		return s.sendText(ctx, req, s.msgs.T(req.lang, step.Prompt), s.cancelMenu(req.lang))
	}

	metrics.DialoguesTotal.WithLabelValues(flow, "completed").Inc()
	text := s.msgs.T(req.lang, step.Prompt)
	switch sess.Kind {
	case dialogue.KindCreateEvent:
		metrics.EventsCreated.Inc()
	case dialogue.KindChangeCity:
		text = s.msgs.T(req.lang, step.Prompt, step.City)
	}
	return s.sendText(ctx, req, text, s.mainMenu(req.lang, req.userID))
}

// handleCallback navigates a browse snapshot.
func (s *Service) handleCallback(ctx context.Context, req request, data string) error {
	cb, err := browser.DecodeCallback(data)
	if err != nil {
		s.logger.Debug("ignoring callback", "user_id", req.userID, "data", data, "error", err)
		return s.alert(ctx, req, "bot.unknown")
	}

	snap, err := s.loadSnapshot(ctx, req, cb)
	if err != nil {
		return s.storageFailure(ctx, req, "list events", err)
	}
	if snap == nil {
		return s.sendText(ctx, req, s.msgs.T(req.lang, "bot.city_required"), s.mainMenu(req.lang, req.userID))
	}

	index, err := browser.Navigate(snap.Events, cb.Index, cb.Direction)
	if err != nil {
		return s.alert(ctx, req, "bot.no_more_events")
	}
	return s.showPage(ctx, req, *snap, index)
}

// loadSnapshot returns the snapshot a callback refers to. An expired
// snapshot is replaced by a fresh listing for the user's city; nil means
// the user has no city.
func (s *Service) loadSnapshot(ctx context.Context, req request, cb browser.Callback) (*browser.Snapshot, error) {
	snap, err := s.snapshots.Load(ctx, cb.SnapshotID)
	if err == nil {
		metrics.SnapshotLookups.WithLabelValues("hit").Inc()
		return &snap, nil
	}

	if errors.Is(err, browser.ErrSnapshotExpired) {
		metrics.SnapshotLookups.WithLabelValues("expired").Inc()
	} else {
		metrics.SnapshotLookups.WithLabelValues("error").Inc()
		s.logger.Warn("snapshot lookup failed, listing again", "user_id", req.userID, "error", err)
	}

	city, err := s.cities.GetUserCity(ctx, req.userID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return s.capture(ctx, req, city)
}

// capture lists the active events of city and saves them as a snapshot.
// A cache failure still yields a usable, unsaved snapshot.
func (s *Service) capture(ctx context.Context, req request, city string) (*browser.Snapshot, error) {
	events, err := s.events.ListActiveEventsByCity(ctx, city, s.now())
	if err != nil {
		return nil, err
	}

	snap, err := s.snapshots.Save(ctx, req.userID, city, events)
	if err != nil {
		s.logger.Warn("snapshot not cached", "user_id", req.userID, "error", err)
		snap = browser.Snapshot{City: city, Events: events}
	}
	return &snap, nil
}

// showPage renders the event at index of snap.
func (s *Service) showPage(ctx context.Context, req request, snap browser.Snapshot, index int) error {
	page, err := browser.View(snap.Events, index)
	if err != nil {
		return s.alert(ctx, req, "bot.no_more_events")
	}

	if err := req.gw.SendPhoto(ctx, req.userID, page.Event.PhotoReference, s.caption(req.lang, page.Event), navButtons(snap.ID, page)); err != nil {
		return fmt.Errorf("sending event: %w", err)
	}
	return nil
}

func (s *Service) alert(ctx context.Context, req request, key string) error {
	if err := req.gw.Alert(ctx, req.userID, s.msgs.T(req.lang, key)); err != nil {
		return fmt.Errorf("sending alert: %w", err)
	}
	return nil
}
