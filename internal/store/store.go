package store

import (
	"context"

	"github.com/Vilin97/TelegramAIbot/internal/models"
)

// MessageStore is the durable append-only log of chat messages.
//
// History and MessagesWithProperty return messages in timestamp-ascending
// order, the total order used everywhere history is read. SetProperties and
// DeleteMessage on a (chatID, messageID) pair that does not exist are silent
// no-ops in every implementation.
type MessageStore interface {
	// Append persists one message and returns its message ID. A zero
	// MessageID is filled with a fresh ULID, a zero Timestamp with the
	// current time. Invalid roles are rejected with a ValidationError
	// before anything is written.
	Append(ctx context.Context, msg models.Message) (string, error)

	// SetProperties replaces the whole property map of a message.
	SetProperties(ctx context.Context, chatID, messageID string, properties map[string]string) error

	// History returns every message of a chat, oldest first.
	History(ctx context.Context, chatID string) ([]models.Message, error)

	// MessagesWithProperty returns the chat's messages whose property map
	// has exactly properties[key] == value, oldest first.
	MessagesWithProperty(ctx context.Context, chatID, key, value string) ([]models.Message, error)

	// DeleteMessage removes one message. Deleting a missing ID is not an error.
	DeleteMessage(ctx context.Context, chatID, messageID string) error

	// ResetHistory removes every message of the chat. Settings are untouched.
	ResetHistory(ctx context.Context, chatID string) error
}

// SettingsStore is the per-chat key/value configuration.
type SettingsStore interface {
	// GetSetting returns the stored override for (chatID, name), falling
	// back to defaults[name]. A name absent from defaults entirely is a
	// programming error and yields an UnknownSettingError.
	GetSetting(ctx context.Context, chatID, name string, defaults map[string]string) (string, error)

	// UpdateSetting stores the override, replacing any prior value. The
	// first write for a chat implicitly creates its settings record.
	UpdateSetting(ctx context.Context, chatID, name, value string) error
}

// ChatStore is the full storage contract the bot wires at startup.
// PostgresStore, SQLiteStore and MemoryStore implement it.
type ChatStore interface {
	MessageStore
	SettingsStore

	Close()
	Ping(ctx context.Context) error
}
