package handlers

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/Vilin97/TelegramAIbot/internal/chat"
	"github.com/Vilin97/TelegramAIbot/internal/llm"
	"github.com/Vilin97/TelegramAIbot/internal/metrics"
	"github.com/Vilin97/TelegramAIbot/internal/models"
)

// How long a delivered update ID is remembered for duplicate suppression.
const updateDedupTTL = 24 * time.Hour

const helpText = "/help - Show available commands and their descriptions\n" +
	"/imagine <prompt> - Generate an image based on prompt\n" +
	"/settings key=value - Update model, history length or language (e.g. /settings history=30). /settings without arguments prints the current settings.\n" +
	"/reset - Reset the conversation history\n" +
	"/roll XdY - Roll X dice with Y sides (e.g. /roll 2d6)\n" +
	"Anything else starts a conversation with the bot."

// UpdateRequest is one incoming transport update: a new message in a chat.
type UpdateRequest struct {
	MessageID  string `json:"message_id,omitempty"`
	AuthorID   string `json:"author_id"`
	AuthorName string `json:"author_name,omitempty"`
	Text       string `json:"text"`
}

// UpdateResponse carries the bot's reply for the transport to deliver.
type UpdateResponse struct {
	Reply      string `json:"reply,omitempty"`
	MessageID  string `json:"message_id,omitempty"`
	TokensUsed int    `json:"tokens_used,omitempty"`
	ImageURL   string `json:"image_url,omitempty"`
	Caption    string `json:"caption,omitempty"`
	Duplicate  bool   `json:"duplicate,omitempty"`
}

// HandleUpdate processes one chat update: commands are dispatched, plain
// text becomes a conversational turn.
func (h *Handler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	chatID := chi.URLParam(r, "chatID")
	if chatID == "" {
		h.Error(w, http.StatusBadRequest, "chat ID is required")
		return
	}

	var req UpdateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.Error(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	text := strings.TrimSpace(req.Text)
	if text == "" {
		h.Error(w, http.StatusBadRequest, "text is required")
		return
	}

	// Transports redeliver; drop updates we've already processed.
	if h.redis != nil && req.MessageID != "" {
		seen, err := h.redis.SeenUpdate(r.Context(), chatID, req.MessageID, updateDedupTTL)
		if err != nil {
			h.logger.Warn().Err(err).Str("chat_id", chatID).Msg("update dedup check failed")
		} else if seen {
			h.JSON(w, http.StatusOK, UpdateResponse{Duplicate: true})
			return
		}
	}

	command, args := splitCommand(text)
	switch command {
	case "/help":
		metrics.CommandsTotal.WithLabelValues("help").Inc()
		h.JSON(w, http.StatusOK, UpdateResponse{Reply: helpText})
	case "/settings":
		metrics.CommandsTotal.WithLabelValues("settings").Inc()
		h.handleSettings(w, r, chatID, args)
	case "/reset":
		metrics.CommandsTotal.WithLabelValues("reset").Inc()
		h.handleReset(w, r, chatID)
	case "/roll":
		metrics.CommandsTotal.WithLabelValues("roll").Inc()
		h.JSON(w, http.StatusOK, UpdateResponse{Reply: Roll(args)})
	case "/imagine":
		metrics.CommandsTotal.WithLabelValues("imagine").Inc()
		h.handleImagine(w, r, chatID, args)
	default:
		h.handleTurn(w, r, chatID, &req, text)
	}
}

// splitCommand separates a leading "/command" from its arguments. Plain
// text yields an empty command.
func splitCommand(text string) (command, args string) {
	if !strings.HasPrefix(text, "/") {
		return "", text
	}
	command, args, _ = strings.Cut(text, " ")
	// Strip the "@botname" suffix group chats attach to commands.
	if at := strings.IndexByte(command, '@'); at > 0 {
		command = command[:at]
	}
	return command, strings.TrimSpace(args)
}

// handleTurn runs one conversational exchange. The user message is
// persisted before the completion call and stays persisted whatever
// happens after; the reply is persisted separately once generated.
func (h *Handler) handleTurn(w http.ResponseWriter, r *http.Request, chatID string, req *UpdateRequest, text string) {
	ctx := r.Context()
	logger := h.logger.With().
		Str("turn_id", uuid.NewString()).
		Str("chat_id", chatID).
		Logger()

	if _, err := h.builder.RecordUserMessage(ctx, chatID, req.MessageID, req.AuthorID, req.AuthorName, text); err != nil {
		logger.Error().Err(err).Msg("failed to store user message")
		metrics.TurnsTotal.WithLabelValues("error").Inc()
		h.Error(w, http.StatusInternalServerError, "failed to store message")
		return
	}

	start := time.Now()
	reply, tokens, err := h.builder.Respond(ctx, chatID)
	metrics.CompletionLatency.WithLabelValues("turn").Observe(time.Since(start).Seconds())
	if err != nil {
		// No rollback: the user message above stays in history.
		logger.Error().Err(err).Msg("failed to generate reply")
		metrics.TurnsTotal.WithLabelValues("error").Inc()
		if models.IsValidation(err) {
			h.Error(w, http.StatusBadRequest, err.Error())
			return
		}
		if llm.IsGeneration(err) {
			h.Error(w, http.StatusBadGateway, "failed to generate a reply")
			return
		}
		h.Error(w, http.StatusInternalServerError, "failed to generate a reply")
		return
	}

	replyID, err := h.builder.RecordReply(ctx, chatID, reply)
	if err != nil {
		logger.Error().Err(err).Msg("failed to store reply")
		metrics.TurnsTotal.WithLabelValues("error").Inc()
		h.Error(w, http.StatusInternalServerError, "failed to store reply")
		return
	}

	metrics.TurnsTotal.WithLabelValues("ok").Inc()
	metrics.TokensUsedTotal.Add(float64(tokens))
	logger.Info().Int("tokens", tokens).Msg("turn completed")

	h.JSON(w, http.StatusOK, UpdateResponse{
		Reply:      reply,
		MessageID:  replyID,
		TokensUsed: tokens,
	})
}

// handleSettings shows or updates per-chat settings.
func (h *Handler) handleSettings(w http.ResponseWriter, r *http.Request, chatID, args string) {
	ctx := r.Context()

	if args == "" {
		settings, err := h.settings.All(ctx, chatID)
		if err != nil {
			h.logger.Error().Err(err).Str("chat_id", chatID).Msg("failed to read settings")
			h.Error(w, http.StatusInternalServerError, "failed to read settings")
			return
		}
		var b strings.Builder
		b.WriteString("Current settings:")
		for _, name := range []string{"model", "history", "language"} {
			b.WriteString("\n" + name + "=" + settings[name])
		}
		h.JSON(w, http.StatusOK, UpdateResponse{Reply: b.String()})
		return
	}

	name, value, err := chat.ParseSettingCommand(args)
	if err != nil {
		h.Error(w, http.StatusBadRequest, "Invalid settings command. Use the format /settings key=value.")
		return
	}

	if err := h.settings.Update(ctx, chatID, name, value); err != nil {
		if models.IsValidation(err) {
			h.Error(w, http.StatusBadRequest, err.Error())
			return
		}
		h.logger.Error().Err(err).Str("chat_id", chatID).Msg("failed to update setting")
		h.Error(w, http.StatusInternalServerError, "failed to update setting")
		return
	}

	h.JSON(w, http.StatusOK, UpdateResponse{Reply: name + " has been updated to " + value})
}

// handleReset erases the chat's history. Settings survive a reset.
func (h *Handler) handleReset(w http.ResponseWriter, r *http.Request, chatID string) {
	if err := h.builder.Reset(r.Context(), chatID); err != nil {
		h.logger.Error().Err(err).Str("chat_id", chatID).Msg("failed to reset history")
		h.Error(w, http.StatusInternalServerError, "failed to reset history")
		return
	}
	h.JSON(w, http.StatusOK, UpdateResponse{Reply: "Conversation history has been reset."})
}

// handleImagine rewords the prompt and generates an image. Image turns
// are not recorded in chat history.
func (h *Handler) handleImagine(w http.ResponseWriter, r *http.Request, chatID, args string) {
	if args == "" {
		h.Error(w, http.StatusBadRequest, "usage: /imagine <prompt>")
		return
	}
	if h.images == nil {
		h.Error(w, http.StatusNotImplemented, "image generation is not configured")
		return
	}

	ctx := r.Context()

	start := time.Now()
	prompt, err := h.reworder.Reword(ctx, args)
	metrics.CompletionLatency.WithLabelValues("reword").Observe(time.Since(start).Seconds())
	if err != nil {
		h.logger.Error().Err(err).Str("chat_id", chatID).Msg("failed to reword image prompt")
		h.Error(w, http.StatusBadGateway, "I couldn't generate an image.")
		return
	}

	start = time.Now()
	img, err := h.images.GenerateImage(ctx, prompt)
	metrics.CompletionLatency.WithLabelValues("image").Observe(time.Since(start).Seconds())
	if err != nil {
		h.logger.Error().Err(err).Str("chat_id", chatID).Msg("failed to generate image")
		h.Error(w, http.StatusBadGateway, "I couldn't generate an image.")
		return
	}

	metrics.ImagesGenerated.Inc()
	h.JSON(w, http.StatusOK, UpdateResponse{
		ImageURL: img.URL,
		Caption:  img.RevisedPrompt,
	})
}
