package chat

import (
	"context"

	"github.com/Vilin97/TelegramAIbot/internal/llm"
)

// Reworder rewrites a user's image prompt into a richer one via a
// dedicated rewording instruction.
type Reworder struct {
	completer Completer
	prompt    string
	model     string
}

// NewReworder creates a reworder with its instruction and model.
func NewReworder(completer Completer, prompt, model string) *Reworder {
	return &Reworder{completer: completer, prompt: prompt, model: model}
}

// Reword returns the rewritten prompt. The result is prefixed with an
// instruction that stops the image backend from rewording it again, which
// would drift from the original meaning.
func (r *Reworder) Reword(ctx context.Context, text string) (string, error) {
	resp, err := r.completer.ChatCompletion(ctx, llm.Request{
		Model: r.model,
		Messages: []llm.Message{
			{Role: "system", Content: r.prompt},
			{Role: "user", Content: text},
		},
	})
	if err != nil {
		return "", err
	}
	return "DO NOT add any detail, just use this prompt AS-IS: " + resp.Content, nil
}
