// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package bot

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/olegiv/eventbot/internal/dialogue"
	"github.com/olegiv/eventbot/internal/metrics"
	"github.com/olegiv/eventbot/internal/model"
	"github.com/olegiv/eventbot/internal/util"
)

// Commands understood by the router.
const (
	CmdStart    = "start"
	CmdEvents   = "events"
	CmdSettings = "settings"
	CmdInfo     = "info"
	CmdBack     = "back"
	CmdCity     = "city"
	CmdCreate   = "create"
	CmdDelete   = "delete"
	CmdCancel   = "cancel"
	CmdGroups   = "groups"
	CmdContacts = "contacts"
	CmdContact  = "contact"
	CmdDevelop  = "developer"
)

// menuLabels maps menu button message keys to commands.
var menuLabels = []struct {
	key string
	cmd string
}{
	{"menu.events", CmdEvents},
	{"menu.settings", CmdSettings},
	{"menu.info", CmdInfo},
	{"menu.back", CmdBack},
	{"menu.change_city", CmdCity},
	{"menu.create", CmdCreate},
	{"menu.cancel", CmdCancel},
	{"menu.groups", CmdGroups},
	{"menu.contacts", CmdContacts},
	{"menu.developer", CmdDevelop},
}

// contactCategories lists the contact buttons in keyboard order. Each label
// key "contacts.x" is answered with "bot.contacts.x".
var contactCategories = []string{
	"contacts.curators",
	"contacts.mentors",
	"contacts.leaders",
	"contacts.alumni",
	"contacts.members",
}

var slashCommands = map[string]bool{
	CmdStart: true, CmdEvents: true, CmdSettings: true, CmdInfo: true, CmdBack: true,
	CmdCity: true, CmdCreate: true, CmdDelete: true, CmdCancel: true,
	CmdGroups: true, CmdContacts: true, CmdDevelop: true,
}

// parseCommand recognizes "/cmd [arg]" and localized menu labels.
// "Delete event <name>" carries the name as argument.
func (s *Service) parseCommand(text string) (cmd, arg string, ok bool) {
	text = strings.TrimSpace(text)

	if rest, found := strings.CutPrefix(text, "/"); found {
		name, arg, _ := strings.Cut(rest, " ")
		name, _, _ = strings.Cut(name, "@") // "/events@eventbot"
		name = strings.ToLower(name)
		if slashCommands[name] {
			return name, strings.TrimSpace(arg), true
		}
		return "", "", false
	}

	for _, l := range menuLabels {
		if s.msgs.Is(l.key, text) {
			return l.cmd, "", true
		}
	}
	for _, key := range contactCategories {
		if s.msgs.Is(key, text) {
			return CmdContact, key, true
		}
	}
	if name, found := s.msgs.TrimLabel("menu.delete", text); found {
		return CmdDelete, name, true
	}
	return "", "", false
}

func (s *Service) handleCommand(ctx context.Context, req request, cmd, arg string) error {
	s.logger.Debug("command", "user_id", req.userID, "command", cmd)

	switch cmd {
	case CmdStart:
		return s.cmdStart(ctx, req)
	case CmdEvents:
		return s.cmdEvents(ctx, req)
	case CmdSettings:
		return s.sendText(ctx, req, s.msgs.T(req.lang, "bot.settings"), s.settingsMenu(req.lang))
	case CmdInfo:
		return s.sendText(ctx, req, s.msgs.T(req.lang, "bot.info"), s.infoMenu(req.lang))
	case CmdContacts:
		return s.sendText(ctx, req, s.msgs.T(req.lang, "bot.contacts"), s.contactsMenu(req.lang))
	case CmdContact:
		return s.sendText(ctx, req, s.msgs.T(req.lang, "bot."+arg), s.contactsMenu(req.lang))
	case CmdGroups:
		return s.sendText(ctx, req, s.msgs.T(req.lang, "bot.groups"), s.mainMenu(req.lang, req.userID))
	case CmdDevelop:
		return s.sendText(ctx, req, s.msgs.T(req.lang, "bot.developer"), s.settingsMenu(req.lang))
	case CmdBack:
		return s.sendText(ctx, req, s.msgs.T(req.lang, "bot.main_menu"), s.mainMenu(req.lang, req.userID))
	case CmdCity:
		return s.startDialogue(ctx, req, dialogue.KindChangeCity)
	case CmdCreate:
		return s.startDialogue(ctx, req, dialogue.KindCreateEvent)
	case CmdDelete:
		return s.cmdDelete(ctx, req, arg)
	case CmdCancel:
		return s.cmdCancel(ctx, req)
	default:
		return s.sendText(ctx, req, s.msgs.T(req.lang, "bot.unknown"), s.mainMenu(req.lang, req.userID))
	}
}

// cmdStart greets the user. Without a saved city the change-city dialogue
// starts right away.
func (s *Service) cmdStart(ctx context.Context, req request) error {
	city, err := s.cities.GetUserCity(ctx, req.userID)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return s.storageFailure(ctx, req, "get user city", err)
	}

	if err := s.sendText(ctx, req, s.msgs.T(req.lang, "bot.greeting"), s.mainMenu(req.lang, req.userID)); err != nil {
		return err
	}
	if city != "" {
		return s.sendText(ctx, req, s.msgs.T(req.lang, "bot.greeting_city", city), nil)
	}
	return s.startDialogue(ctx, req, dialogue.KindChangeCity)
}

// cmdEvents captures the active events of the user's city and shows the first.
func (s *Service) cmdEvents(ctx context.Context, req request) error {
	city, err := s.cities.GetUserCity(ctx, req.userID)
	if errors.Is(err, sql.ErrNoRows) {
		return s.sendText(ctx, req, s.msgs.T(req.lang, "bot.city_required"), s.mainMenu(req.lang, req.userID))
	}
	if err != nil {
		return s.storageFailure(ctx, req, "get user city", err)
	}

	snap, err := s.capture(ctx, req, city)
	if err != nil {
		return s.storageFailure(ctx, req, "list events", err)
	}
	if len(snap.Events) == 0 {
		return s.sendText(ctx, req, s.msgs.T(req.lang, "bot.no_events"), s.mainMenu(req.lang, req.userID))
	}
	return s.showPage(ctx, req, *snap, 0)
}

func (s *Service) startDialogue(ctx context.Context, req request, kind dialogue.Kind) error {
	step, err := s.engine.Start(req.userID, kind)
	if errors.Is(err, dialogue.ErrForbidden) {
		metrics.DialoguesTotal.WithLabelValues(kind.String(), "denied").Inc()
		s.logger.Info("dialogue denied", "category", model.LogCategoryDialogue, "user_id", req.userID, "kind", kind)
		return s.sendText(ctx, req, s.msgs.T(req.lang, "bot.create_denied"), s.mainMenu(req.lang, req.userID))
	}
	if err != nil {
		return err
	}

	metrics.DialoguesTotal.WithLabelValues(kind.String(), "started").Inc()
	return s.sendText(ctx, req, s.msgs.T(req.lang, step.Prompt), s.cancelMenu(req.lang))
}

// cmdDelete removes every event with the given name. The name is
// sanitized the same way as at insert so stored names match; replies
// quote it as typed.
func (s *Service) cmdDelete(ctx context.Context, req request, arg string) error {
	if !s.roles.CanManageEvents(req.userID) {
		return s.sendText(ctx, req, s.msgs.T(req.lang, "bot.delete_denied"), nil)
	}

	name := util.SanitizeText(arg)
	if name == "" {
		return s.sendText(ctx, req, s.msgs.T(req.lang, "bot.delete_usage"), nil)
	}

	n, err := s.events.DeleteEventsByName(ctx, name)
	if err != nil {
		return s.storageFailure(ctx, req, "delete events", err)
	}
	typed := util.PlainText(name)
	if n == 0 {
		return s.sendText(ctx, req, s.msgs.T(req.lang, "bot.not_found", typed), nil)
	}

	metrics.EventsDeleted.WithLabelValues("command").Add(float64(n))
	s.logger.Info("events deleted", "category", model.LogCategoryStore, "user_id", req.userID, "name", typed, "count", n)
	return s.sendText(ctx, req, s.msgs.T(req.lang, "bot.deleted", typed), nil)
}

func (s *Service) cmdCancel(ctx context.Context, req request) error {
	if sess, open := s.engine.Session(req.userID); open && s.engine.Cancel(req.userID) {
		metrics.DialoguesTotal.WithLabelValues(sess.Kind.String(), "cancelled").Inc()
	}
	return s.sendText(ctx, req, s.msgs.T(req.lang, "bot.cancelled"), s.mainMenu(req.lang, req.userID))
}
