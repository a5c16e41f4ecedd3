package handlers

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/Vilin97/TelegramAIbot/internal/models"
)

// HistoryMessage is one stored message in the admin history view.
type HistoryMessage struct {
	MessageID  string            `json:"message_id"`
	AuthorID   string            `json:"author_id,omitempty"`
	AuthorName string            `json:"author_name,omitempty"`
	Role       string            `json:"role"`
	Content    string            `json:"content"`
	Properties map[string]string `json:"properties,omitempty"`
	Pinned     bool              `json:"pinned,omitempty"`
	Timestamp  time.Time         `json:"timestamp"`
}

// HistoryResponse is the admin history view of one chat.
type HistoryResponse struct {
	ChatID   string           `json:"chat_id"`
	Messages []HistoryMessage `json:"messages"`
}

// GetHistory returns a chat's full ordered history.
func (h *Handler) GetHistory(w http.ResponseWriter, r *http.Request) {
	chatID := chi.URLParam(r, "chatID")

	history, err := h.store.History(r.Context(), chatID)
	if err != nil {
		h.logger.Error().Err(err).Str("chat_id", chatID).Msg("failed to read history")
		h.Error(w, http.StatusInternalServerError, "failed to read history")
		return
	}

	messages := make([]HistoryMessage, len(history))
	for i, msg := range history {
		messages[i] = HistoryMessage{
			MessageID:  msg.MessageID,
			AuthorID:   msg.AuthorID,
			AuthorName: msg.AuthorName,
			Role:       string(msg.Role),
			Content:    msg.Content,
			Properties: msg.Properties,
			Pinned:     msg.Pinned(),
			Timestamp:  msg.Timestamp,
		}
	}

	h.JSON(w, http.StatusOK, HistoryResponse{ChatID: chatID, Messages: messages})
}

// PinMessage marks a message as pinned so it survives window truncation
// in every future prompt. Pinning an unknown message ID is a no-op.
func (h *Handler) PinMessage(w http.ResponseWriter, r *http.Request) {
	chatID := chi.URLParam(r, "chatID")
	messageID := chi.URLParam(r, "messageID")

	if err := h.builder.PinMessage(r.Context(), chatID, messageID); err != nil {
		h.logger.Error().Err(err).Str("chat_id", chatID).Str("message_id", messageID).Msg("failed to pin message")
		h.Error(w, http.StatusInternalServerError, "failed to pin message")
		return
	}

	h.JSON(w, http.StatusOK, map[string]string{
		"status": "pinned",
		models.PropPinned: models.PropPinnedValue,
	})
}

// DeleteMessage removes one message from history. Deleting an unknown
// message ID succeeds silently.
func (h *Handler) DeleteMessage(w http.ResponseWriter, r *http.Request) {
	chatID := chi.URLParam(r, "chatID")
	messageID := chi.URLParam(r, "messageID")

	if err := h.store.DeleteMessage(r.Context(), chatID, messageID); err != nil {
		h.logger.Error().Err(err).Str("chat_id", chatID).Str("message_id", messageID).Msg("failed to delete message")
		h.Error(w, http.StatusInternalServerError, "failed to delete message")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// ResetChat erases a chat's history from the admin surface.
func (h *Handler) ResetChat(w http.ResponseWriter, r *http.Request) {
	chatID := chi.URLParam(r, "chatID")

	if err := h.builder.Reset(r.Context(), chatID); err != nil {
		h.logger.Error().Err(err).Str("chat_id", chatID).Msg("failed to reset history")
		h.Error(w, http.StatusInternalServerError, "failed to reset history")
		return
	}

	h.JSON(w, http.StatusOK, map[string]string{"status": "reset"})
}
