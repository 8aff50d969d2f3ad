// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package gateway defines the messaging surface the bot talks to users
// through, and a Recorder implementation used by the HTTP transport.
package gateway

import (
	"context"
	"sync"
)

// Update is one inbound interaction from a user. Exactly one of Text,
// PhotoRef or Callback is set.
type Update struct {
	UserID       int64  `json:"user_id"`
	LanguageCode string `json:"language_code,omitempty"`
	Text         string `json:"text,omitempty"`
	PhotoRef     string `json:"photo,omitempty"`
	Callback     string `json:"callback,omitempty"`
}

// Button is an inline button attached to a photo message.
type Button struct {
	Text string `json:"text"`
	Data string `json:"data"`
}

// Keyboard is a reply keyboard: rows of button labels. A nil keyboard leaves
// the client's current keyboard in place.
type Keyboard [][]string

// Reply kinds.
const (
	KindText  = "text"
	KindPhoto = "photo"
	KindAlert = "alert"
)

// Reply is one outbound message.
type Reply struct {
	Kind     string   `json:"kind"`
	UserID   int64    `json:"user_id"`
	Text     string   `json:"text,omitempty"`
	PhotoRef string   `json:"photo,omitempty"`
	Caption  string   `json:"caption,omitempty"`
	Keyboard Keyboard `json:"keyboard,omitempty"`
	Buttons  []Button `json:"buttons,omitempty"`
}

// Gateway delivers messages to users. Text and alerts are plain text;
// only photo captions are HTML.
type Gateway interface {
	SendText(ctx context.Context, userID int64, text string, keyboard Keyboard) error
	SendPhoto(ctx context.Context, userID int64, photoRef, caption string, buttons []Button) error
	// Alert answers a button press with a transient notice.
	Alert(ctx context.Context, userID int64, text string) error
}

// Recorder collects replies in the order they were sent.
type Recorder struct {
	mu      sync.Mutex
	replies []Reply
}

// NewRecorder returns an empty recorder.
func NewRecorder() *Recorder {
	return &Recorder{}
}

func (r *Recorder) add(reply Reply) {
	r.mu.Lock()
	r.replies = append(r.replies, reply)
	r.mu.Unlock()
}

func (r *Recorder) SendText(_ context.Context, userID int64, text string, keyboard Keyboard) error {
	r.add(Reply{Kind: KindText, UserID: userID, Text: text, Keyboard: keyboard})
	return nil
}

func (r *Recorder) SendPhoto(_ context.Context, userID int64, photoRef, caption string, buttons []Button) error {
	r.add(Reply{Kind: KindPhoto, UserID: userID, PhotoRef: photoRef, Caption: caption, Buttons: buttons})
	return nil
}

func (r *Recorder) Alert(_ context.Context, userID int64, text string) error {
	r.add(Reply{Kind: KindAlert, UserID: userID, Text: text})
	return nil
}

// Replies returns a copy of everything recorded so far. Never nil.
func (r *Recorder) Replies() []Reply {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Reply, len(r.replies))
	copy(out, r.replies)
	return out
}

// Reset drops recorded replies.
func (r *Recorder) Reset() {
	r.mu.Lock()
	r.replies = nil
	r.mu.Unlock()
}

var _ Gateway = (*Recorder)(nil)
