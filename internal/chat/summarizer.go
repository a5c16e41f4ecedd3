package chat

import (
	"context"
	"strings"
	"time"

	"github.com/Vilin97/TelegramAIbot/internal/llm"
	"github.com/Vilin97/TelegramAIbot/internal/metrics"
	"github.com/Vilin97/TelegramAIbot/internal/models"
)

// Completer is the slice of the completion service the conversational
// core consumes.
type Completer interface {
	ChatCompletion(ctx context.Context, req llm.Request) (*llm.Response, error)
}

// Summarizer condenses overflow history into one synthetic message. It
// runs on every turn once history exceeds the window, so it must use a
// materially cheaper model than the main conversational call.
type Summarizer struct {
	completer Completer
	prompt    string // condensation instruction, distinct from the system prompt
	model     string
}

// NewSummarizer creates a summarizer with its condensation prompt and
// cheap model profile.
func NewSummarizer(completer Completer, prompt, model string) *Summarizer {
	return &Summarizer{completer: completer, prompt: prompt, model: model}
}

// Summarize issues exactly one completion call over the verbatim
// concatenation of the given messages, assistant lines prefixed "Bot: ".
// Failures propagate; retry policy belongs to the caller.
func (s *Summarizer) Summarize(ctx context.Context, msgs []models.Message) (string, error) {
	var b strings.Builder
	for i, m := range msgs {
		if i > 0 {
			b.WriteByte('\n')
		}
		if m.Role == models.RoleAssistant {
			b.WriteString("Bot: ")
		}
		b.WriteString(m.Content)
	}

	start := time.Now()
	resp, err := s.completer.ChatCompletion(ctx, llm.Request{
		Model: s.model,
		Messages: []llm.Message{
			{Role: "system", Content: s.prompt},
			{Role: "user", Content: b.String()},
		},
	})
	metrics.CompletionLatency.WithLabelValues("summary").Observe(time.Since(start).Seconds())
	if err != nil {
		return "", err
	}

	metrics.SummariesTotal.Inc()
	return resp.Content, nil
}
