package chat

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/Vilin97/TelegramAIbot/internal/models"
	"github.com/Vilin97/TelegramAIbot/internal/store"
)

// Setting names recognized by the bot. The store itself is name-agnostic;
// each name has exactly one decode function here and nowhere else.
const (
	SettingHistory  = "history"  // positive integer, window size in messages
	SettingModel    = "model"    // opaque model identifier
	SettingLanguage = "language" // natural-language name for the reply constraint
)

// Settings is the typed accessor over the per-chat settings store. Reads
// fall back to the process-wide defaults map; writes validate once at this
// boundary and store plain strings.
type Settings struct {
	store    store.SettingsStore
	defaults map[string]string
}

// NewSettings wraps a settings store with a defaults map. The defaults map
// must carry every recognized setting name.
func NewSettings(st store.SettingsStore, defaults map[string]string) *Settings {
	return &Settings{store: st, defaults: defaults}
}

// History returns the chat's window size in messages.
func (s *Settings) History(ctx context.Context, chatID string) (int, error) {
	raw, err := s.store.GetSetting(ctx, chatID, SettingHistory, s.defaults)
	if err != nil {
		return 0, err
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n <= 0 {
		return 0, &models.ValidationError{Reason: fmt.Sprintf("history must be a positive integer, got %q", raw)}
	}
	return n, nil
}

// Model returns the chat's completion model identifier.
func (s *Settings) Model(ctx context.Context, chatID string) (string, error) {
	return s.store.GetSetting(ctx, chatID, SettingModel, s.defaults)
}

// Language returns the language the bot must reply in.
func (s *Settings) Language(ctx context.Context, chatID string) (string, error) {
	return s.store.GetSetting(ctx, chatID, SettingLanguage, s.defaults)
}

// All returns the chat's effective settings, overrides over defaults.
func (s *Settings) All(ctx context.Context, chatID string) (map[string]string, error) {
	out := make(map[string]string, len(s.defaults))
	for name := range s.defaults {
		value, err := s.store.GetSetting(ctx, chatID, name, s.defaults)
		if err != nil {
			return nil, err
		}
		out[name] = value
	}
	return out, nil
}

// Update validates and stores one override. Unknown names and values that
// fail the per-name decode are rejected without mutating state.
func (s *Settings) Update(ctx context.Context, chatID, name, value string) error {
	if _, ok := s.defaults[name]; !ok {
		return &models.ValidationError{Reason: fmt.Sprintf("unknown setting %q", name)}
	}

	switch name {
	case SettingHistory:
		n, err := strconv.Atoi(value)
		if err != nil || n <= 0 {
			return &models.ValidationError{Reason: fmt.Sprintf("history must be a positive integer, got %q", value)}
		}
	case SettingModel, SettingLanguage:
		if value == "" {
			return &models.ValidationError{Reason: name + " must not be empty"}
		}
	}

	return s.store.UpdateSetting(ctx, chatID, name, value)
}

// ParseSettingCommand splits a "key=value" settings command. Malformed
// input (no "=", several "=", empty key or value) is rejected.
func ParseSettingCommand(text string) (name, value string, err error) {
	if strings.Count(text, "=") != 1 {
		return "", "", &models.ValidationError{Reason: "use the format key=value"}
	}
	name, value, _ = strings.Cut(text, "=")
	name = strings.TrimSpace(name)
	value = strings.TrimSpace(value)
	if name == "" || value == "" {
		return "", "", &models.ValidationError{Reason: "use the format key=value"}
	}
	return name, value, nil
}
