// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package bot

import (
	"fmt"

	"github.com/google/uuid"

	"github.com/olegiv/eventbot/internal/browser"
	"github.com/olegiv/eventbot/internal/gateway"
	"github.com/olegiv/eventbot/internal/model"
	"github.com/olegiv/eventbot/internal/util"
)

// Navigation button labels.
const (
	labelPrevious = "⬅️"
	labelNext     = "➡️"
)

// mainMenu is the top-level keyboard. Users who may manage events also get
// the create button.
func (s *Service) mainMenu(lang string, userID int64) gateway.Keyboard {
	kb := gateway.Keyboard{
		{s.msgs.T(lang, "menu.events")},
		{s.msgs.T(lang, "menu.info"), s.msgs.T(lang, "menu.groups")},
		{s.msgs.T(lang, "menu.settings")},
	}
	if s.roles.CanManageEvents(userID) {
		kb = append(kb, []string{s.msgs.T(lang, "menu.create")})
	}
	return kb
}

func (s *Service) settingsMenu(lang string) gateway.Keyboard {
	return gateway.Keyboard{
		{s.msgs.T(lang, "menu.change_city")},
		{s.msgs.T(lang, "menu.developer"), s.msgs.T(lang, "menu.back")},
	}
}

func (s *Service) infoMenu(lang string) gateway.Keyboard {
	return gateway.Keyboard{
		{s.msgs.T(lang, "menu.contacts")},
		{s.msgs.T(lang, "menu.back")},
	}
}

// contactsMenu shows the contact categories three per row, then Back.
func (s *Service) contactsMenu(lang string) gateway.Keyboard {
	var kb gateway.Keyboard
	row := []string{}
	for _, key := range contactCategories {
		row = append(row, s.msgs.T(lang, key))
		if len(row) == 3 {
			kb = append(kb, row)
			row = []string{}
		}
	}
	row = append(row, s.msgs.T(lang, "menu.back"))
	return append(kb, row)
}

func (s *Service) cancelMenu(lang string) gateway.Keyboard {
	return gateway.Keyboard{{s.msgs.T(lang, "menu.cancel")}}
}

// caption renders an event as the HTML photo caption. Text fields were
// escaped when the event was stored.
func (s *Service) caption(lang string, e model.Event) string {
	return util.CaptionHTML(fmt.Sprintf("<b>%s</b>\n\n<i>%s:</i> %s\n<i>%s:</i> %s\n\n%s",
		e.Name,
		s.msgs.T(lang, "event.author"), e.Author,
		s.msgs.T(lang, "event.date"), e.ScheduledAt.In(s.loc).Format(model.DateLayout),
		e.Description,
	))
}

// navButtons returns the previous/next buttons for page within snapshot id.
func navButtons(id uuid.UUID, page browser.Page) []gateway.Button {
	var buttons []gateway.Button
	if page.HasPrevious {
		buttons = append(buttons, gateway.Button{
			Text: labelPrevious,
			Data: browser.Callback{Direction: browser.Previous, SnapshotID: id, Index: page.Index}.Encode(),
		})
	}
	if page.HasNext {
		buttons = append(buttons, gateway.Button{
			Text: labelNext,
			Data: browser.Callback{Direction: browser.Next, SnapshotID: id, Index: page.Index}.Encode(),
		})
	}
	return buttons
}
