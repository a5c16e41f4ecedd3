package models

import "time"

// Role identifies the author kind of a chat message. The set is closed:
// the stores reject anything that isn't one of the three constants.
type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Valid reports whether r is one of the recognized roles.
func (r Role) Valid() bool {
	switch r {
	case RoleSystem, RoleUser, RoleAssistant:
		return true
	}
	return false
}

// Message is one turn of a conversation as persisted in chat_history.
// Content is immutable after append; Properties may be replaced later
// (e.g. marking a message pinned).
type Message struct {
	ChatID     string            `json:"chat_id"`
	MessageID  string            `json:"message_id"`
	AuthorID   string            `json:"author_id,omitempty"`
	AuthorName string            `json:"author_name,omitempty"`
	Role       Role              `json:"role"`
	Content    string            `json:"content"`
	Properties map[string]string `json:"properties,omitempty"`
	Timestamp  time.Time         `json:"timestamp"`
}

// PropPinned marks a message for inclusion in every prompt regardless of
// window truncation.
const (
	PropPinned      = "pinned"
	PropPinnedValue = "true"
)

// Pinned reports whether the message carries the pinned property.
func (m *Message) Pinned() bool {
	return m.Properties[PropPinned] == PropPinnedValue
}
