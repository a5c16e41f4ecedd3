package store

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/oklog/ulid/v2"

	"github.com/Vilin97/TelegramAIbot/internal/models"
)

// PostgresStore persists chat history and settings in PostgreSQL.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore creates a PostgreSQL-backed store with a connection pool
// and bootstraps the schema.
func NewPostgresStore(ctx context.Context, databaseURL string) (*PostgresStore, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, err
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, err
	}

	s := &PostgresStore{pool: pool}
	if err := s.initSchema(ctx); err != nil {
		pool.Close()
		return nil, err
	}

	return s, nil
}

// initSchema creates tables if they don't exist.
func (s *PostgresStore) initSchema(ctx context.Context) error {
	schema := `
	CREATE TABLE IF NOT EXISTS chat_history (
		chat_id    TEXT NOT NULL,
		message_id TEXT NOT NULL,
		user_id    TEXT NOT NULL DEFAULT '',
		user_name  TEXT NOT NULL DEFAULT '',
		message    TEXT NOT NULL,
		role       TEXT NOT NULL,
		properties JSONB NOT NULL DEFAULT '{}',
		timestamp  TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		PRIMARY KEY (chat_id, message_id)
	);

	CREATE INDEX IF NOT EXISTS idx_chat_history_chat_time
		ON chat_history (chat_id, timestamp);

	CREATE TABLE IF NOT EXISTS chat_settings (
		chat_id  TEXT PRIMARY KEY,
		settings JSONB NOT NULL DEFAULT '{}'
	);
	`

	_, err := s.pool.Exec(ctx, schema)
	return err
}

// Close closes the database connection pool.
func (s *PostgresStore) Close() {
	s.pool.Close()
}

// Ping checks the database connection.
func (s *PostgresStore) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

// Append persists one message.
func (s *PostgresStore) Append(ctx context.Context, msg models.Message) (string, error) {
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

	_, err = s.pool.Exec(ctx, `
		INSERT INTO chat_history (chat_id, message_id, user_id, user_name, message, role, properties, timestamp)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`, msg.ChatID, msg.MessageID, msg.AuthorID, msg.AuthorName, msg.Content, string(msg.Role), props, msg.Timestamp)
	if err != nil {
		return "", storageErr("append", err)
	}
	return msg.MessageID, nil
}

// SetProperties replaces the property map of a message. A missing target
// is a silent no-op.
func (s *PostgresStore) SetProperties(ctx context.Context, chatID, messageID string, properties map[string]string) error {
	if properties == nil {
		properties = map[string]string{}
	}
	props, err := json.Marshal(properties)
	if err != nil {
		return storageErr("set properties", err)
	}

	_, err = s.pool.Exec(ctx, `
		UPDATE chat_history
		SET properties = $1
		WHERE chat_id = $2 AND message_id = $3
	`, props, chatID, messageID)
	return storageErr("set properties", err)
}

// History returns every message of a chat, oldest first.
func (s *PostgresStore) History(ctx context.Context, chatID string) ([]models.Message, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT chat_id, message_id, user_id, user_name, message, role, properties, timestamp
		FROM chat_history
		WHERE chat_id = $1
		ORDER BY timestamp ASC, message_id ASC
	`, chatID)
	if err != nil {
		return nil, storageErr("history", err)
	}
	defer rows.Close()

	return scanMessages(rows, "history")
}

// MessagesWithProperty returns the chat's messages with an exact property
// match, oldest first.
func (s *PostgresStore) MessagesWithProperty(ctx context.Context, chatID, key, value string) ([]models.Message, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT chat_id, message_id, user_id, user_name, message, role, properties, timestamp
		FROM chat_history
		WHERE chat_id = $1 AND properties->>$2 = $3
		ORDER BY timestamp ASC, message_id ASC
	`, chatID, key, value)
	if err != nil {
		return nil, storageErr("messages with property", err)
	}
	defer rows.Close()

	return scanMessages(rows, "messages with property")
}

// DeleteMessage removes one message. Deleting a missing ID is not an error.
func (s *PostgresStore) DeleteMessage(ctx context.Context, chatID, messageID string) error {
	_, err := s.pool.Exec(ctx, `
		DELETE FROM chat_history
		WHERE chat_id = $1 AND message_id = $2
	`, chatID, messageID)
	return storageErr("delete message", err)
}

// ResetHistory removes every message of the chat.
func (s *PostgresStore) ResetHistory(ctx context.Context, chatID string) error {
	_, err := s.pool.Exec(ctx, `
		DELETE FROM chat_history WHERE chat_id = $1
	`, chatID)
	return storageErr("reset history", err)
}

// GetSetting returns the stored override or the default for name.
func (s *PostgresStore) GetSetting(ctx context.Context, chatID, name string, defaults map[string]string) (string, error) {
	var value *string
	err := s.pool.QueryRow(ctx, `
		SELECT settings->>$2
		FROM chat_settings
		WHERE chat_id = $1
	`, chatID, name).Scan(&value)
	if err != nil && !errors.Is(err, pgx.ErrNoRows) {
		return "", storageErr("get setting", err)
	}

	if value != nil {
		return *value, nil
	}
	def, ok := defaults[name]
	if !ok {
		return "", &UnknownSettingError{Name: name}
	}
	return def, nil
}

// UpdateSetting stores the override, creating the chat's settings record
// on first write.
func (s *PostgresStore) UpdateSetting(ctx context.Context, chatID, name, value string) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO chat_settings (chat_id, settings)
		VALUES ($1, jsonb_build_object($2::text, $3::text))
		ON CONFLICT (chat_id)
		DO UPDATE SET settings = jsonb_set(chat_settings.settings, ARRAY[$2::text], to_jsonb($3::text))
	`, chatID, name, value)
	return storageErr("update setting", err)
}

// scanMessages drains a pgx row set into messages.
func scanMessages(rows pgx.Rows, op string) ([]models.Message, error) {
	var messages []models.Message
	for rows.Next() {
		var msg models.Message
		var role string
		var props []byte

		err := rows.Scan(
			&msg.ChatID,
			&msg.MessageID,
			&msg.AuthorID,
			&msg.AuthorName,
			&msg.Content,
			&role,
			&props,
			&msg.Timestamp,
		)
		if err != nil {
			return nil, storageErr(op, err)
		}

		msg.Role = models.Role(role)
		if len(props) > 0 {
			if err := json.Unmarshal(props, &msg.Properties); err != nil {
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
