// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package util provides text helpers for user-supplied event fields.
package util

import (
	"html"
	"strings"

	"github.com/microcosm-cc/bluemonday"
	"golang.org/x/text/unicode/norm"
)

// captionPolicy allows only the formatting used by event captions.
var captionPolicy = bluemonday.NewPolicy().AllowElements("b", "i")

// SanitizeText normalizes s to NFC and escapes HTML special characters.
// Nothing is removed: "a<b" is stored as "a&lt;b". Surrounding whitespace
// is trimmed.
func SanitizeText(s string) string {
	s = norm.NFC.String(strings.TrimSpace(s))
	return html.EscapeString(s)
}

// PlainText reverses SanitizeText for replies that are not rendered as HTML.
func PlainText(s string) string {
	return html.UnescapeString(s)
}

// CaptionHTML drops every element except <b> and <i> from a rendered
// caption. Escaped text passes through unchanged.
func CaptionHTML(s string) string {
	return captionPolicy.Sanitize(s)
}
