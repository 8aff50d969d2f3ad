// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package dialogue implements the per-user multi-step conversations used to
// create events and change the preferred city.
package dialogue

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/olegiv/eventbot/internal/model"
	"github.com/olegiv/eventbot/internal/store"
)

var (
	// ErrForbidden is returned when a user may not start the requested flow.
	ErrForbidden = errors.New("dialogue: not allowed")
	// ErrNoSession is returned when input arrives for a user without an open session.
	ErrNoSession = errors.New("dialogue: no active session")
	// ErrInvalidDate is wrapped by a ValidationError for malformed dates.
	ErrInvalidDate = errors.New("dialogue: invalid date")
	// ErrUnexpectedInput is wrapped by a ValidationError when a text arrives
	// where a photo is expected or the other way round.
	ErrUnexpectedInput = errors.New("dialogue: unexpected input")
)

// ValidationError reports input the current state cannot accept. The
// session is left untouched; Prompt is the corrective message key.
type ValidationError struct {
	State  State
	Prompt string
	Err    error
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %v", e.State, e.Err)
}

func (e *ValidationError) Unwrap() error {
	return e.Err
}

// EventCreator persists a completed event draft.
type EventCreator interface {
	CreateEvent(ctx context.Context, arg store.CreateEventParams) (int64, error)
}

// CitySaver persists a completed city change.
type CitySaver interface {
	UpsertUserCity(ctx context.Context, arg store.UpsertUserCityParams) error
}

// Authorizer gates the event creation flow.
type Authorizer interface {
	CanManageEvents(userID int64) bool
}

// Input is one message from the user. A non-empty PhotoRef marks a photo.
type Input struct {
	Text     string
	PhotoRef string
}

// TextInput wraps a text message.
func TextInput(text string) Input {
	return Input{Text: text}
}

// PhotoInput wraps an uploaded photo reference.
func PhotoInput(ref string) Input {
	return Input{PhotoRef: ref}
}

func (in Input) isPhoto() bool {
	return in.PhotoRef != ""
}

// Draft accumulates the fields collected so far.
type Draft struct {
	Name        string
	Description string
	City        string
	PhotoRef    string
	ScheduledAt time.Time
	Author      string
}

// Session is the state of one user's open dialogue.
type Session struct {
	UserID    int64
	Kind      Kind
	State     State
	Draft     Draft
	StartedAt time.Time
	UpdatedAt time.Time

	gen uint64
}

// Step describes the outcome of Start or Feed.
type Step struct {
	State   State  // state after the input was applied
	Prompt  string // message key to send next
	Done    bool   // the session completed and was removed
	EventID int64  // id of the created event when a create flow completes
	City    string // saved city when a change-city flow completes
}

// Options configures an Engine.
type Options struct {
	// Location is the zone typed dates are interpreted in (default time.Local).
	Location *time.Location
	// Now returns the current time (default time.Now).
	Now func() time.Time
	// Sanitize is applied to name, description and author (default identity).
	Sanitize func(string) string
	Logger   *slog.Logger
}

// Engine owns the sessions of all users.
type Engine struct {
	events EventCreator
	cities CitySaver
	auth   Authorizer

	loc      *time.Location
	now      func() time.Time
	sanitize func(string) string
	logger   *slog.Logger

	mu       sync.Mutex
	sessions map[int64]*Session
	gen      uint64
}

// NewEngine creates an engine persisting through events and cities.
func NewEngine(events EventCreator, cities CitySaver, auth Authorizer, opts Options) *Engine {
	e := &Engine{
		events:   events,
		cities:   cities,
		auth:     auth,
		loc:      opts.Location,
		now:      opts.Now,
		sanitize: opts.Sanitize,
		logger:   opts.Logger,
		sessions: make(map[int64]*Session),
	}
	if e.loc == nil {
		e.loc = time.Local
	}
	if e.now == nil {
		e.now = time.Now
	}
	if e.sanitize == nil {
		e.sanitize = func(s string) string { return s }
	}
	if e.logger == nil {
		e.logger = slog.Default()
	}
	return e
}

// Start opens a session of kind for userID, replacing any open one.
// The create flow requires CanManageEvents; otherwise ErrForbidden is
// returned and no session is created.
func (e *Engine) Start(userID int64, kind Kind) (Step, error) {
	flow, ok := flows[kind]
	if !ok {
		return Step{}, fmt.Errorf("dialogue: unknown kind %d", kind)
	}
	if kind == KindCreateEvent && (e.auth == nil || !e.auth.CanManageEvents(userID)) {
		return Step{}, ErrForbidden
	}

	now := e.now()
	first := flow[0]

	e.mu.Lock()
	e.gen++
	_, replaced := e.sessions[userID]
	e.sessions[userID] = &Session{
		UserID:    userID,
		Kind:      kind,
		State:     first,
		StartedAt: now,
		UpdatedAt: now,
		gen:       e.gen,
	}
	e.mu.Unlock()

	e.logger.Debug("dialogue started", "user_id", userID, "kind", kind, "replaced", replaced)
	return Step{State: first, Prompt: promptFor(kind, first)}, nil
}

// Feed applies one input to the user's open session.
//
// Valid input is stored and the session advances. Input the current state
// cannot accept yields a *ValidationError and leaves the session unchanged.
// When the final input arrives the draft is persisted and the session is
// removed; if persisting fails the session stays where it was so the user
// can resend the last answer.
func (e *Engine) Feed(ctx context.Context, userID int64, in Input) (Step, error) {
	e.mu.Lock()
	cur, ok := e.sessions[userID]
	if !ok {
		e.mu.Unlock()
		return Step{}, ErrNoSession
	}
	s := *cur
	e.mu.Unlock()

	nextState, err := e.apply(&s, in)
	if err != nil {
		return Step{State: s.State, Prompt: promptOf(err)}, err
	}

	if nextState != StateComplete {
		s.State = nextState
		s.UpdatedAt = e.now()
		if !e.commit(&s) {
			return Step{}, fmt.Errorf("%w: session replaced", ErrNoSession)
		}
		return Step{State: nextState, Prompt: promptFor(s.Kind, nextState)}, nil
	}

	step, err := e.complete(ctx, &s)
	if err != nil {
		return Step{State: s.State}, err
	}

	e.mu.Lock()
	if live, ok := e.sessions[userID]; ok && live.gen == s.gen {
		delete(e.sessions, userID)
	}
	e.mu.Unlock()

	return step, nil
}

// commit stores s if it is still the user's live session.
func (e *Engine) commit(s *Session) bool {
	e.mu.Lock()
	defer e.mu.Unlock()

	live, ok := e.sessions[s.UserID]
	if !ok || live.gen != s.gen {
		return false
	}
	e.sessions[s.UserID] = s
	return true
}

// apply validates in against the state of s, stores the field into s.Draft
// and returns the state to move to.
func (e *Engine) apply(s *Session, in Input) (State, error) {
	if s.State == StateAwaitingPhoto {
		if !in.isPhoto() {
			return s.State, &ValidationError{State: s.State, Prompt: PromptPhotoExpected, Err: ErrUnexpectedInput}
		}
		s.Draft.PhotoRef = in.PhotoRef
		return next(s.Kind, s.State), nil
	}

	if in.isPhoto() {
		return s.State, &ValidationError{State: s.State, Prompt: PromptTextExpected, Err: ErrUnexpectedInput}
	}

	switch s.State {
	case StateAwaitingName:
		s.Draft.Name = e.sanitize(in.Text)
	case StateAwaitingDescription:
		s.Draft.Description = e.sanitize(in.Text)
	case StateAwaitingCity:
		s.Draft.City = strings.TrimSpace(in.Text)
	case StateAwaitingDate:
		at, err := time.ParseInLocation(model.DateLayout, strings.TrimSpace(in.Text), e.loc)
		if err != nil {
			return s.State, &ValidationError{State: s.State, Prompt: PromptDateInvalid, Err: fmt.Errorf("%w: %v", ErrInvalidDate, err)}
		}
		s.Draft.ScheduledAt = at
	case StateAwaitingAuthor:
		s.Draft.Author = e.sanitize(in.Text)
	default:
		return s.State, fmt.Errorf("dialogue: state %s accepts no input", s.State)
	}

	return next(s.Kind, s.State), nil
}

// complete persists the finished draft of s.
func (e *Engine) complete(ctx context.Context, s *Session) (Step, error) {
	step := Step{State: StateComplete, Prompt: promptFor(s.Kind, StateComplete), Done: true}

	switch s.Kind {
	case KindCreateEvent:
		id, err := e.events.CreateEvent(ctx, store.CreateEventParams{
			Name:           s.Draft.Name,
			Description:    s.Draft.Description,
			PhotoReference: s.Draft.PhotoRef,
			Author:         s.Draft.Author,
			ScheduledAt:    s.Draft.ScheduledAt,
			City:           s.Draft.City,
			Tags:           []string{},
		})
		if err != nil {
			return Step{}, fmt.Errorf("saving event: %w", err)
		}
		step.EventID = id
		e.logger.Info("event created",
			"category", model.LogCategoryDialogue,
			"event_id", id,
			"user_id", s.UserID,
			"city", s.Draft.City,
		)
	case KindChangeCity:
		if err := e.cities.UpsertUserCity(ctx, store.UpsertUserCityParams{UserID: s.UserID, City: s.Draft.City}); err != nil {
			return Step{}, fmt.Errorf("saving city: %w", err)
		}
		step.City = s.Draft.City
		e.logger.Info("city changed", "category", model.LogCategoryDialogue, "user_id", s.UserID, "city", s.Draft.City)
	}

	return step, nil
}

// Cancel discards the user's open session. Reports whether one existed.
func (e *Engine) Cancel(userID int64) bool {
	e.mu.Lock()
	defer e.mu.Unlock()

	if _, ok := e.sessions[userID]; !ok {
		return false
	}
	delete(e.sessions, userID)
	return true
}

// Session returns a copy of the user's open session.
func (e *Engine) Session(userID int64) (Session, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()

	s, ok := e.sessions[userID]
	if !ok {
		return Session{}, false
	}
	return *s, true
}

// Len returns the number of open sessions.
func (e *Engine) Len() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.sessions)
}

// EvictIdle removes sessions not updated within ttl of now and returns how
// many were removed. A non-positive ttl removes nothing.
func (e *Engine) EvictIdle(now time.Time, ttl time.Duration) int {
	if ttl <= 0 {
		return 0
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	evicted := 0
	for id, s := range e.sessions {
		if now.Sub(s.UpdatedAt) > ttl {
			delete(e.sessions, id)
			evicted++
		}
	}
	return evicted
}

func promptOf(err error) string {
	var verr *ValidationError
	if errors.As(err, &verr) {
		return verr.Prompt
	}
	return ""
}
