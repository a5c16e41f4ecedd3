// Package chat assembles the bounded, ordered context sent to the
// completion service on every turn and persists new turns back into the
// message store. Nothing in this package caches across turns: every read
// goes to the authoritative store, so concurrent writers and process
// restarts never leave a stale view behind.
package chat

import (
	"context"

	"github.com/Vilin97/TelegramAIbot/internal/llm"
	"github.com/Vilin97/TelegramAIbot/internal/models"
	"github.com/Vilin97/TelegramAIbot/internal/store"
)

// BotIdentity is the fixed author recorded on assistant messages.
type BotIdentity struct {
	ID   string
	Name string
}

// Builder is the orchestrating core: it reads history and settings,
// decides whether to summarize, and produces the exact ordered message
// list for the completion call.
type Builder struct {
	messages     store.MessageStore
	settings     *Settings
	summarizer   *Summarizer
	completer    Completer
	systemPrompt string
	bot          BotIdentity
}

// NewBuilder wires the context builder.
func NewBuilder(messages store.MessageStore, settings *Settings, summarizer *Summarizer, completer Completer, systemPrompt string, bot BotIdentity) *Builder {
	return &Builder{
		messages:     messages,
		settings:     settings,
		summarizer:   summarizer,
		completer:    completer,
		systemPrompt: systemPrompt,
		bot:          bot,
	}
}

// BuildPrompt assembles the prompt for one chat:
//
//	[system] + [pinned not in window] + [summary if overflow] + [window]
//
// System constraints come first, durable pinned facts next, compressed
// history next, and the freshest exchange last, closest to the generation
// point. Truncation is by message count only; token-budget safety is the
// window size setting's job.
func (b *Builder) BuildPrompt(ctx context.Context, chatID string) ([]llm.Message, error) {
	history, err := b.messages.History(ctx, chatID)
	if err != nil {
		return nil, err
	}

	windowSize, err := b.settings.History(ctx, chatID)
	if err != nil {
		return nil, err
	}
	language, err := b.settings.Language(ctx, chatID)
	if err != nil {
		return nil, err
	}

	window := history
	if len(history) > windowSize {
		window = history[len(history)-windowSize:]
	}

	prompt := []llm.Message{{
		Role:    string(models.RoleSystem),
		Content: b.systemPrompt + "\nYou MUST respond in " + language + ".",
	}}

	pinned, err := b.messages.MessagesWithProperty(ctx, chatID, models.PropPinned, models.PropPinnedValue)
	if err != nil {
		return nil, err
	}
	for _, msg := range pinned {
		if !containsMessage(window, msg) {
			prompt = append(prompt, toPromptMessage(msg))
		}
	}

	if len(history) > windowSize {
		overflow := history[:len(history)-windowSize]
		summary, err := b.summarizer.Summarize(ctx, overflow)
		if err != nil {
			return nil, err
		}
		prompt = append(prompt, llm.Message{Role: string(models.RoleAssistant), Content: summary})
	}

	for _, msg := range window {
		prompt = append(prompt, toPromptMessage(msg))
	}

	return prompt, nil
}

// Respond builds the prompt and issues the main completion call with the
// chat's configured model. It does not persist anything: the caller
// records the user message before calling and the reply after, as two
// independent operations with no transactional envelope between them.
func (b *Builder) Respond(ctx context.Context, chatID string) (string, int, error) {
	model, err := b.settings.Model(ctx, chatID)
	if err != nil {
		return "", 0, err
	}

	prompt, err := b.BuildPrompt(ctx, chatID)
	if err != nil {
		return "", 0, err
	}

	resp, err := b.completer.ChatCompletion(ctx, llm.Request{Model: model, Messages: prompt})
	if err != nil {
		return "", 0, err
	}
	return resp.Content, resp.TokensUsed, nil
}

// RecordUserMessage persists the incoming user message. Called before the
// completion call; a later failure leaves this write in place.
func (b *Builder) RecordUserMessage(ctx context.Context, chatID, messageID, authorID, authorName, text string) (string, error) {
	return b.messages.Append(ctx, models.Message{
		ChatID:     chatID,
		MessageID:  messageID,
		AuthorID:   authorID,
		AuthorName: authorName,
		Role:       models.RoleUser,
		Content:    text,
	})
}

// RecordReply persists the assistant's reply under the bot identity.
func (b *Builder) RecordReply(ctx context.Context, chatID, text string) (string, error) {
	return b.messages.Append(ctx, models.Message{
		ChatID:     chatID,
		AuthorID:   b.bot.ID,
		AuthorName: b.bot.Name,
		Role:       models.RoleAssistant,
		Content:    text,
	})
}

// PinMessage marks a message for inclusion in every future prompt.
func (b *Builder) PinMessage(ctx context.Context, chatID, messageID string) error {
	return b.messages.SetProperties(ctx, chatID, messageID, map[string]string{
		models.PropPinned: models.PropPinnedValue,
	})
}

// Reset erases the chat's history. Settings survive.
func (b *Builder) Reset(ctx context.Context, chatID string) error {
	return b.messages.ResetHistory(ctx, chatID)
}

// containsMessage reports whether msgs holds a message with the same role
// and content. Pinned messages already inside the window are matched this
// way so they are not inserted twice.
func containsMessage(msgs []models.Message, target models.Message) bool {
	for _, m := range msgs {
		if m.Role == target.Role && m.Content == target.Content {
			return true
		}
	}
	return false
}

func toPromptMessage(m models.Message) llm.Message {
	return llm.Message{Role: string(m.Role), Content: m.Content}
}
