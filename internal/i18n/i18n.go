// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package i18n provides the bot's message catalogs and language matching.
package i18n

import (
	"embed"
	"encoding/json"
	"fmt"
	"log/slog"
	"slices"
	"strings"

	"golang.org/x/text/language"
)

//go:embed locales
var localesFS embed.FS

// Message represents a single translatable message.
type Message struct {
	ID          string `json:"id"`
	Message     string `json:"message"`
	Translation string `json:"translation"`
}

// MessageFile represents the structure of a messages JSON file.
type MessageFile struct {
	Language string    `json:"language"`
	Messages []Message `json:"messages"`
}

// SupportedLanguages lists the languages shipped with the bot.
var SupportedLanguages = []string{"en", "ru"}

// Catalog holds all translations for all supported languages.
// It is read-only after New and safe for concurrent use.
type Catalog struct {
	translations map[string]map[string]string // lang -> key -> translation
	matcher      language.Matcher
	supported    []language.Tag
	defaultLang  string
	logger       *slog.Logger
}

// New loads the embedded catalogs. defaultLang is used for unmatched
// language codes and for keys missing in a language.
func New(defaultLang string, logger *slog.Logger) (*Catalog, error) {
	if !IsSupported(defaultLang) {
		return nil, fmt.Errorf("default language %q is not supported", defaultLang)
	}
	if logger == nil {
		logger = slog.Default()
	}

	c := &Catalog{
		translations: make(map[string]map[string]string),
		defaultLang:  strings.ToLower(defaultLang),
		logger:       logger,
	}

	// The default goes first so the matcher falls back to it.
	ordered := []string{c.defaultLang}
	for _, lang := range SupportedLanguages {
		if lang != c.defaultLang {
			ordered = append(ordered, lang)
		}
	}
	for _, lang := range ordered {
		c.supported = append(c.supported, language.MustParse(lang))
	}
	c.matcher = language.NewMatcher(c.supported)

	for _, lang := range SupportedLanguages {
		if err := c.loadLanguage(lang); err != nil {
			return nil, fmt.Errorf("failed to load language %s: %w", lang, err)
		}
	}

	logger.Info("i18n initialized", "languages", SupportedLanguages, "default", c.defaultLang)
	return c, nil
}

func (c *Catalog) loadLanguage(lang string) error {
	path := fmt.Sprintf("locales/%s/messages.json", lang)
	data, err := localesFS.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", path, err)
	}

	var msgFile MessageFile
	if err := json.Unmarshal(data, &msgFile); err != nil {
		return fmt.Errorf("failed to parse %s: %w", path, err)
	}

	c.translations[lang] = make(map[string]string, len(msgFile.Messages))
	for _, msg := range msgFile.Messages {
		c.translations[lang][msg.ID] = msg.Translation
	}

	c.logger.Debug("loaded translations", "language", lang, "count", len(msgFile.Messages))
	return nil
}

// T translates a message key to the specified language.
// If the key is not found, it returns the key itself.
// Supports optional arguments for string formatting.
func (c *Catalog) T(lang, key string, args ...any) string {
	translation, ok := c.translations[lang][key]
	if !ok {
		translation, ok = c.translations[c.defaultLang][key]
		if !ok {
			return key
		}
		if _, known := c.translations[lang]; known {
			c.logger.Debug("missing translation, using default", "key", key, "lang", lang)
		}
	}

	if len(args) > 0 {
		return fmt.Sprintf(translation, args...)
	}
	return translation
}

// Match finds the best supported language for a client language code or
// an Accept-Language style list. Unknown input yields the default language.
func (c *Catalog) Match(code string) string {
	code = strings.TrimSpace(code)
	if code == "" {
		return c.defaultLang
	}

	tags, _, err := language.ParseAcceptLanguage(code)
	if err != nil || len(tags) == 0 {
		tag, err := language.Parse(code)
		if err != nil {
			return c.defaultLang
		}
		tags = []language.Tag{tag}
	}

	_, idx, conf := c.matcher.Match(tags...)
	if conf == language.No || idx < 0 || idx >= len(c.supported) {
		return c.defaultLang
	}
	return c.supported[idx].String()
}

// Is reports whether text equals the translation of key in any language.
// Menu buttons are matched this way regardless of the sender's language.
func (c *Catalog) Is(key, text string) bool {
	for _, lang := range SupportedLanguages {
		if t, ok := c.translations[lang][key]; ok && t == text {
			return true
		}
	}
	return false
}

// TrimLabel strips a leading translation of key (in any language) from
// text and reports whether one was found. "Delete event Jazz" with key
// menu.delete yields "Jazz".
func (c *Catalog) TrimLabel(key, text string) (string, bool) {
	for _, lang := range SupportedLanguages {
		label, ok := c.translations[lang][key]
		if !ok || label == "" {
			continue
		}
		if rest, found := strings.CutPrefix(text, label); found {
			if rest != "" && !strings.HasPrefix(rest, " ") {
				continue
			}
			return strings.TrimSpace(rest), true
		}
	}
	return "", false
}

// DefaultLanguage returns the fallback language code.
func (c *Catalog) DefaultLanguage() string {
	return c.defaultLang
}

// TranslationCount returns the number of translations loaded for a language.
func (c *Catalog) TranslationCount(lang string) int {
	return len(c.translations[lang])
}

// IsSupported checks if a language code has a catalog.
func IsSupported(lang string) bool {
	return slices.Contains(SupportedLanguages, strings.ToLower(lang))
}
