package chat

import (
	"context"
	"errors"
	"testing"

	"github.com/Vilin97/TelegramAIbot/internal/llm"
	"github.com/Vilin97/TelegramAIbot/internal/models"
)

func TestSummarizePrefixesBotLines(t *testing.T) {
	completer := &fakeCompleter{
		reply: func(req llm.Request) (*llm.Response, error) {
			return &llm.Response{Content: "condensed"}, nil
		},
	}
	s := NewSummarizer(completer, "Condense this.", "cheap-model")

	summary, err := s.Summarize(context.Background(), []models.Message{
		{Role: models.RoleUser, Content: "hello"},
		{Role: models.RoleAssistant, Content: "hi there"},
		{Role: models.RoleUser, Content: "how are you"},
	})
	if err != nil {
		t.Fatalf("Summarize: %v", err)
	}
	if summary != "condensed" {
		t.Fatalf("summary = %q", summary)
	}

	if len(completer.requests) != 1 {
		t.Fatalf("expected exactly one completion call, got %d", len(completer.requests))
	}
	req := completer.requests[0]
	if req.Model != "cheap-model" {
		t.Errorf("model = %q, want cheap-model", req.Model)
	}
	if req.Messages[0].Role != "system" || req.Messages[0].Content != "Condense this." {
		t.Errorf("system message = %+v", req.Messages[0])
	}
	if got := req.Messages[1].Content; got != "hello\nBot: hi there\nhow are you" {
		t.Errorf("summary input = %q", got)
	}
}

func TestSummarizePropagatesErrors(t *testing.T) {
	cause := errors.New("model unavailable")
	completer := &fakeCompleter{
		reply: func(req llm.Request) (*llm.Response, error) {
			return nil, &llm.GenerationError{Op: "chat completion", Err: cause}
		},
	}
	s := NewSummarizer(completer, "Condense this.", "cheap-model")

	_, err := s.Summarize(context.Background(), []models.Message{
		{Role: models.RoleUser, Content: "hello"},
	})
	if !llm.IsGeneration(err) {
		t.Fatalf("expected GenerationError, got %v", err)
	}
	if !errors.Is(err, cause) {
		t.Fatalf("raw cause must be preserved, got %v", err)
	}
}

func TestRewordPrefixesResult(t *testing.T) {
	completer := &fakeCompleter{
		reply: func(req llm.Request) (*llm.Response, error) {
			return &llm.Response{Content: "a majestic cat in oil paint"}, nil
		},
	}
	r := NewReworder(completer, "Reword this prompt.", "gpt-4o")

	prompt, err := r.Reword(context.Background(), "cat")
	if err != nil {
		t.Fatalf("Reword: %v", err)
	}
	want := "DO NOT add any detail, just use this prompt AS-IS: a majestic cat in oil paint"
	if prompt != want {
		t.Fatalf("Reword = %q, want %q", prompt, want)
	}
}
