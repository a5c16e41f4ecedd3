package handlers

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/rs/zerolog"

	"github.com/Vilin97/TelegramAIbot/internal/chat"
	"github.com/Vilin97/TelegramAIbot/internal/llm"
	"github.com/Vilin97/TelegramAIbot/internal/store"
)

// ImageGenerator is the slice of the completion service used for
// /imagine requests.
type ImageGenerator interface {
	GenerateImage(ctx context.Context, prompt string) (*llm.Image, error)
}

// Handler contains shared dependencies for all HTTP handlers.
type Handler struct {
	store    store.ChatStore
	redis    *store.RedisStore
	builder  *chat.Builder
	settings *chat.Settings
	reworder *chat.Reworder
	images   ImageGenerator
	logger   zerolog.Logger
}

// NewHandler creates a new Handler with the given dependencies. redis and
// images may be nil; the features backed by them degrade gracefully.
func NewHandler(st store.ChatStore, redis *store.RedisStore, builder *chat.Builder, settings *chat.Settings, reworder *chat.Reworder, images ImageGenerator, logger zerolog.Logger) *Handler {
	return &Handler{
		store:    st,
		redis:    redis,
		builder:  builder,
		settings: settings,
		reworder: reworder,
		images:   images,
		logger:   logger,
	}
}

// JSON sends a JSON response with the given status code.
func (h *Handler) JSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

// Error sends a JSON error response with the given status code.
func (h *Handler) Error(w http.ResponseWriter, status int, message string) {
	h.JSON(w, status, map[string]string{"error": message})
}
