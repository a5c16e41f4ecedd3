package store

import (
	"context"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/Vilin97/TelegramAIbot/internal/models"
)

// MemoryStore is an in-process ChatStore used in tests and local
// experiments. It honors the same ordering and no-op semantics as the
// durable stores but loses everything on restart.
type MemoryStore struct {
	mu       sync.RWMutex
	messages map[string][]models.Message
	settings map[string]map[string]string
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		messages: make(map[string][]models.Message),
		settings: make(map[string]map[string]string),
	}
}

// Close is a no-op.
func (s *MemoryStore) Close() {}

// Ping always succeeds.
func (s *MemoryStore) Ping(ctx context.Context) error { return nil }

// Append persists one message.
func (s *MemoryStore) Append(ctx context.Context, msg models.Message) (string, error) {
	if !msg.Role.Valid() {
		return "", &models.ValidationError{Reason: "invalid role " + string(msg.Role)}
	}
	if msg.MessageID == "" {
		msg.MessageID = ulid.Make().String()
	}
	if msg.Timestamp.IsZero() {
		msg.Timestamp = time.Now().UTC()
	}

	props := make(map[string]string, len(msg.Properties))
	for k, v := range msg.Properties {
		props[k] = v
	}
	msg.Properties = props

	s.mu.Lock()
	defer s.mu.Unlock()
	s.messages[msg.ChatID] = append(s.messages[msg.ChatID], msg)
	return msg.MessageID, nil
}

// SetProperties replaces the property map of a message. A missing target
// is a silent no-op.
func (s *MemoryStore) SetProperties(ctx context.Context, chatID, messageID string, properties map[string]string) error {
	props := make(map[string]string, len(properties))
	for k, v := range properties {
		props[k] = v
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	msgs := s.messages[chatID]
	for i := range msgs {
		if msgs[i].MessageID == messageID {
			msgs[i].Properties = props
			return nil
		}
	}
	return nil
}

// History returns every message of a chat, oldest first.
func (s *MemoryStore) History(ctx context.Context, chatID string) ([]models.Message, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	msgs := s.messages[chatID]
	out := make([]models.Message, len(msgs))
	copy(out, msgs)
	return out, nil
}

// MessagesWithProperty returns the chat's messages with an exact property
// match, oldest first.
func (s *MemoryStore) MessagesWithProperty(ctx context.Context, chatID, key, value string) ([]models.Message, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []models.Message
	for _, msg := range s.messages[chatID] {
		if msg.Properties[key] == value {
			out = append(out, msg)
		}
	}
	return out, nil
}

// DeleteMessage removes one message. Deleting a missing ID is not an error.
func (s *MemoryStore) DeleteMessage(ctx context.Context, chatID, messageID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	msgs := s.messages[chatID]
	for i := range msgs {
		if msgs[i].MessageID == messageID {
			s.messages[chatID] = append(msgs[:i:i], msgs[i+1:]...)
			return nil
		}
	}
	return nil
}

// ResetHistory removes every message of the chat.
func (s *MemoryStore) ResetHistory(ctx context.Context, chatID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.messages, chatID)
	return nil
}

// GetSetting returns the stored override or the default for name.
func (s *MemoryStore) GetSetting(ctx context.Context, chatID, name string, defaults map[string]string) (string, error) {
	s.mu.RLock()
	value, ok := s.settings[chatID][name]
	s.mu.RUnlock()

	if ok {
		return value, nil
	}
	def, ok := defaults[name]
	if !ok {
		return "", &UnknownSettingError{Name: name}
	}
	return def, nil
}

// UpdateSetting stores the override, replacing any prior value.
func (s *MemoryStore) UpdateSetting(ctx context.Context, chatID, name, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.settings[chatID] == nil {
		s.settings[chatID] = make(map[string]string)
	}
	s.settings[chatID][name] = value
	return nil
}
