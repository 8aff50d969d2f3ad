// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package dialogue

// Kind selects which flow a session runs.
type Kind int

// Dialogue kinds
const (
	KindChangeCity Kind = iota + 1
	KindCreateEvent
)

func (k Kind) String() string {
	switch k {
	case KindChangeCity:
		return "change_city"
	case KindCreateEvent:
		return "create_event"
	default:
		return "unknown"
	}
}

// State is a step of a flow.
type State int

// Dialogue states
const (
	StateAwaitingName State = iota + 1
	StateAwaitingDescription
	StateAwaitingCity
	StateAwaitingPhoto
	StateAwaitingDate
	StateAwaitingAuthor
	StateComplete
)

func (s State) String() string {
	switch s {
	case StateAwaitingName:
		return "awaiting_name"
	case StateAwaitingDescription:
		return "awaiting_description"
	case StateAwaitingCity:
		return "awaiting_city"
	case StateAwaitingPhoto:
		return "awaiting_photo"
	case StateAwaitingDate:
		return "awaiting_date"
	case StateAwaitingAuthor:
		return "awaiting_author"
	case StateComplete:
		return "complete"
	default:
		return "unknown"
	}
}

// flows lists the states of each kind in order. Every flow ends in StateComplete.
var flows = map[Kind][]State{
	KindCreateEvent: {
		StateAwaitingName,
		StateAwaitingDescription,
		StateAwaitingCity,
		StateAwaitingPhoto,
		StateAwaitingDate,
		StateAwaitingAuthor,
		StateComplete,
	},
	KindChangeCity: {
		StateAwaitingCity,
		StateComplete,
	},
}

// States returns the ordered states of kind, ending with StateComplete.
func States(kind Kind) []State {
	return append([]State(nil), flows[kind]...)
}

// next returns the state after s in kind's flow.
func next(kind Kind, s State) State {
	flow := flows[kind]
	for i, st := range flow {
		if st == s && i+1 < len(flow) {
			return flow[i+1]
		}
	}
	return StateComplete
}

// Message keys emitted by the engine. The router resolves them through the
// i18n catalog.
const (
	PromptName          = "dialogue.prompt.name"
	PromptDescription   = "dialogue.prompt.description"
	PromptEventCity     = "dialogue.prompt.event_city"
	PromptNewCity       = "dialogue.prompt.new_city"
	PromptPhoto         = "dialogue.prompt.photo"
	PromptDate          = "dialogue.prompt.date"
	PromptAuthor        = "dialogue.prompt.author"
	PromptDateInvalid   = "dialogue.error.date_format"
	PromptPhotoExpected = "dialogue.error.photo_expected"
	PromptTextExpected  = "dialogue.error.text_expected"
	PromptEventCreated  = "dialogue.done.event_created"
	PromptCityChanged   = "dialogue.done.city_changed"
)

// promptFor returns the key asking for the input of state s.
func promptFor(kind Kind, s State) string {
	switch s {
	case StateAwaitingName:
		return PromptName
	case StateAwaitingDescription:
		return PromptDescription
	case StateAwaitingCity:
		if kind == KindChangeCity {
			return PromptNewCity
		}
		return PromptEventCity
	case StateAwaitingPhoto:
		return PromptPhoto
	case StateAwaitingDate:
		return PromptDate
	case StateAwaitingAuthor:
		return PromptAuthor
	case StateComplete:
		if kind == KindChangeCity {
			return PromptCityChanged
		}
		return PromptEventCreated
	default:
		return ""
	}
}
