package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/oklog/ulid/v2"

	"github.com/Vilin97/TelegramAIbot/internal/models"
)

// SQLiteStore persists chat history and settings in SQLite. It implements
// the same contract as PostgresStore and is the single-node default when
// no DATABASE_URL is configured.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore creates a SQLite-backed store.
// If dbPath is empty, defaults to "./data/bot.db".
func NewSQLiteStore(ctx context.Context, dbPath string) (*SQLiteStore, error) {
	if dbPath == "" {
		dbPath = "./data/bot.db"
	}

	// Ensure directory exists
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, err
	}

	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_foreign_keys=on")
	if err != nil {
		return nil, err
	}

	if err := db.PingContext(ctx); err != nil {
		return nil, err
	}

	s := &SQLiteStore{db: db}
	if err := s.initSchema(ctx); err != nil {
		return nil, err
	}

	return s, nil
}

// initSchema creates tables if they don't exist.
func (s *SQLiteStore) initSchema(ctx context.Context) error {
	schema := `
	CREATE TABLE IF NOT EXISTS chat_history (
		chat_id    TEXT NOT NULL,
		message_id TEXT NOT NULL,
		user_id    TEXT NOT NULL DEFAULT '',
		user_name  TEXT NOT NULL DEFAULT '',
		message    TEXT NOT NULL,
		role       TEXT NOT NULL,
		properties TEXT NOT NULL DEFAULT '{}',
		timestamp  INTEGER NOT NULL,
		PRIMARY KEY (chat_id, message_id)
	);

	CREATE INDEX IF NOT EXISTS idx_chat_history_chat_time
		ON chat_history (chat_id, timestamp);

	CREATE TABLE IF NOT EXISTS chat_settings (
		chat_id  TEXT PRIMARY KEY,
		settings TEXT NOT NULL DEFAULT '{}'
	);
	`

	_, err := s.db.ExecContext(ctx, schema)
	return err
}

// Close closes the database connection.
func (s *SQLiteStore) Close() {
	s.db.Close()
}

// Ping checks the database connection.
func (s *SQLiteStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Append persists one message.
func (s *SQLiteStore) Append(ctx context.Context, msg models.Message) (string, error) {
	if !msg.Role.Valid() {
		return "", &models.ValidationError{Reason: "invalid role " + string(msg.Role)}
	}
	if msg.MessageID == "" {
		msg.MessageID = ulid.Make().String()
	}
	if msg.Timestamp.IsZero() {
		msg.Timestamp = time.Now().UTC()
	}
	if msg.Properties == nil {
		msg.Properties = map[string]string{}
	}

	props, err := json.Marshal(msg.Properties)
	if err != nil {
		return "", storageErr("append", err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO chat_history (chat_id, message_id, user_id, user_name, message, role, properties, timestamp)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`, msg.ChatID, msg.MessageID, msg.AuthorID, msg.AuthorName, msg.Content, string(msg.Role), string(props), msg.Timestamp.UnixMilli())
	if err != nil {
		return "", storageErr("append", err)
	}
	return msg.MessageID, nil
}

// SetProperties replaces the property map of a message. A missing target
// is a silent no-op.
func (s *SQLiteStore) SetProperties(ctx context.Context, chatID, messageID string, properties map[string]string) error {
	if properties == nil {
		properties = map[string]string{}
	}
	props, err := json.Marshal(properties)
	if err != nil {
		return storageErr("set properties", err)
	}

	_, err = s.db.ExecContext(ctx, `
		UPDATE chat_history
		SET properties = ?
		WHERE chat_id = ? AND message_id = ?
	`, string(props), chatID, messageID)
	return storageErr("set properties", err)
}

// History returns every message of a chat, oldest first.
func (s *SQLiteStore) History(ctx context.Context, chatID string) ([]models.Message, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT chat_id, message_id, user_id, user_name, message, role, properties, timestamp
		FROM chat_history
		WHERE chat_id = ?
		ORDER BY timestamp ASC, message_id ASC
	`, chatID)
	if err != nil {
		return nil, storageErr("history", err)
	}
	defer rows.Close()

	return scanSQLiteMessages(rows, "history")
}

// MessagesWithProperty returns the chat's messages with an exact property
// match, oldest first.
func (s *SQLiteStore) MessagesWithProperty(ctx context.Context, chatID, key, value string) ([]models.Message, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT chat_id, message_id, user_id, user_name, message, role, properties, timestamp
		FROM chat_history
		WHERE chat_id = ? AND json_extract(properties, '$.' || ?) = ?
		ORDER BY timestamp ASC, message_id ASC
	`, chatID, key, value)
	if err != nil {
		return nil, storageErr("messages with property", err)
	}
	defer rows.Close()

	return scanSQLiteMessages(rows, "messages with property")
}

// DeleteMessage removes one message. Deleting a missing ID is not an error.
func (s *SQLiteStore) DeleteMessage(ctx context.Context, chatID, messageID string) error {
	_, err := s.db.ExecContext(ctx, `
		DELETE FROM chat_history
		WHERE chat_id = ? AND message_id = ?
	`, chatID, messageID)
	return storageErr("delete message", err)
}

// ResetHistory removes every message of the chat.
func (s *SQLiteStore) ResetHistory(ctx context.Context, chatID string) error {
	_, err := s.db.ExecContext(ctx, `
		DELETE FROM chat_history WHERE chat_id = ?
	`, chatID)
	return storageErr("reset history", err)
}

// GetSetting returns the stored override or the default for name.
func (s *SQLiteStore) GetSetting(ctx context.Context, chatID, name string, defaults map[string]string) (string, error) {
	var raw string
	err := s.db.QueryRowContext(ctx, `
		SELECT settings FROM chat_settings WHERE chat_id = ?
	`, chatID).Scan(&raw)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return "", storageErr("get setting", err)
	}

	if err == nil {
		var settings map[string]string
		if err := json.Unmarshal([]byte(raw), &settings); err != nil {
			return "", storageErr("get setting", err)
		}
		if value, ok := settings[name]; ok {
			return value, nil
		}
	}

	def, ok := defaults[name]
	if !ok {
		return "", &UnknownSettingError{Name: name}
	}
	return def, nil
}

// UpdateSetting stores the override inside a transaction: the settings
// blob is read, mutated and written back atomically.
func (s *SQLiteStore) UpdateSetting(ctx context.Context, chatID, name, value string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return storageErr("update setting", err)
	}
	defer tx.Rollback()

	var raw string
	err = tx.QueryRowContext(ctx, `
		SELECT settings FROM chat_settings WHERE chat_id = ?
	`, chatID).Scan(&raw)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return storageErr("update setting", err)
	}

	settings := map[string]string{}
	if err == nil {
		if err := json.Unmarshal([]byte(raw), &settings); err != nil {
			return storageErr("update setting", err)
		}
	}
	settings[name] = value

	blob, err := json.Marshal(settings)
	if err != nil {
		return storageErr("update setting", err)
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO chat_settings (chat_id, settings) VALUES (?, ?)
		ON CONFLICT (chat_id) DO UPDATE SET settings = excluded.settings
	`, chatID, string(blob))
	if err != nil {
		return storageErr("update setting", err)
	}

	return storageErr("update setting", tx.Commit())
}

// scanSQLiteMessages drains a row set into messages.
func scanSQLiteMessages(rows *sql.Rows, op string) ([]models.Message, error) {
	var messages []models.Message
	for rows.Next() {
		var msg models.Message
		var role, props string
		var ts int64

		err := rows.Scan(
			&msg.ChatID,
			&msg.MessageID,
			&msg.AuthorID,
			&msg.AuthorName,
			&msg.Content,
			&role,
			&props,
			&ts,
		)
		if err != nil {
			return nil, storageErr(op, err)
		}

		msg.Role = models.Role(role)
		msg.Timestamp = time.UnixMilli(ts).UTC()
		if props != "" {
			if err := json.Unmarshal([]byte(props), &msg.Properties); err != nil {
				return nil, storageErr(op, err)
			}
		}
		messages = append(messages, msg)
	}
	if err := rows.Err(); err != nil {
		return nil, storageErr(op, err)
	}
	return messages, nil
}
