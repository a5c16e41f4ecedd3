package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/Vilin97/TelegramAIbot/internal/chat"
	"github.com/Vilin97/TelegramAIbot/internal/llm"
	"github.com/Vilin97/TelegramAIbot/internal/models"
	"github.com/Vilin97/TelegramAIbot/internal/store"
)

type fakeCompleter struct {
	requests []llm.Request
	reply    func(req llm.Request) (*llm.Response, error)
}

func (f *fakeCompleter) ChatCompletion(ctx context.Context, req llm.Request) (*llm.Response, error) {
	f.requests = append(f.requests, req)
	if f.reply != nil {
		return f.reply(req)
	}
	return &llm.Response{Content: "bot reply", TokensUsed: 7}, nil
}

type fakeImages struct {
	prompts []string
	img     *llm.Image
	err     error
}

func (f *fakeImages) GenerateImage(ctx context.Context, prompt string) (*llm.Image, error) {
	f.prompts = append(f.prompts, prompt)
	if f.err != nil {
		return nil, f.err
	}
	return f.img, nil
}

func newTestRouter(t *testing.T, completer *fakeCompleter, images ImageGenerator) (*chi.Mux, *store.MemoryStore) {
	t.Helper()
	st := store.NewMemoryStore()
	settings := chat.NewSettings(st, map[string]string{
		chat.SettingHistory:  "30",
		chat.SettingModel:    "gpt-4o",
		chat.SettingLanguage: "English",
	})
	summarizer := chat.NewSummarizer(completer, "Condense.", "gpt-4o-mini")
	reworder := chat.NewReworder(completer, "Reword.", "gpt-4o")
	builder := chat.NewBuilder(st, settings, summarizer, completer, "You are a bot.", chat.BotIdentity{ID: "bot", Name: "Bot"})
	h := NewHandler(st, nil, builder, settings, reworder, images, zerolog.Nop())

	r := chi.NewRouter()
	r.Post("/v1/chats/{chatID}/messages", h.HandleUpdate)
	return r, st
}

func postUpdate(t *testing.T, r http.Handler, chatID, text string) (*httptest.ResponseRecorder, UpdateResponse) {
	t.Helper()
	body, _ := json.Marshal(UpdateRequest{AuthorID: "u1", AuthorName: "Alice", Text: text})
	req := httptest.NewRequest(http.MethodPost, "/v1/chats/"+chatID+"/messages", strings.NewReader(string(body)))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	var resp UpdateResponse
	if rec.Code == http.StatusOK {
		if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
			t.Fatalf("decode response: %v", err)
		}
	}
	return rec, resp
}

func TestHandleUpdateTurn(t *testing.T) {
	completer := &fakeCompleter{}
	r, st := newTestRouter(t, completer, nil)

	rec, resp := postUpdate(t, r, "c1", "hello bot")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}
	if resp.Reply != "bot reply" || resp.TokensUsed != 7 {
		t.Fatalf("response = %+v", resp)
	}
	if resp.MessageID == "" {
		t.Fatal("expected the reply's minted message ID")
	}

	history, _ := st.History(context.Background(), "c1")
	if len(history) != 2 {
		t.Fatalf("expected user message and reply in history, got %d", len(history))
	}
	if history[0].Role != models.RoleUser || history[0].Content != "hello bot" {
		t.Errorf("history[0] = %+v", history[0])
	}
	if history[1].Role != models.RoleAssistant || history[1].Content != "bot reply" {
		t.Errorf("history[1] = %+v", history[1])
	}
}

func TestHandleUpdateTurnGenerationFailure(t *testing.T) {
	completer := &fakeCompleter{
		reply: func(req llm.Request) (*llm.Response, error) {
			return nil, &llm.GenerationError{Op: "chat completion", Err: errors.New("upstream down")}
		},
	}
	r, st := newTestRouter(t, completer, nil)

	rec, _ := postUpdate(t, r, "c1", "hello bot")
	if rec.Code != http.StatusBadGateway {
		t.Fatalf("status = %d, want 502", rec.Code)
	}

	// The user message stays; there is no rollback.
	history, _ := st.History(context.Background(), "c1")
	if len(history) != 1 || history[0].Content != "hello bot" {
		t.Fatalf("expected the user message to survive the failure, got %+v", history)
	}
}

func TestHandleUpdateHelp(t *testing.T) {
	r, _ := newTestRouter(t, &fakeCompleter{}, nil)

	rec, resp := postUpdate(t, r, "c1", "/help")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if !strings.Contains(resp.Reply, "/imagine") || !strings.Contains(resp.Reply, "/settings") {
		t.Fatalf("help text = %q", resp.Reply)
	}
}

func TestHandleUpdateSettingsShow(t *testing.T) {
	r, _ := newTestRouter(t, &fakeCompleter{}, nil)

	rec, resp := postUpdate(t, r, "c1", "/settings")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	for _, want := range []string{"model=gpt-4o", "history=30", "language=English"} {
		if !strings.Contains(resp.Reply, want) {
			t.Errorf("settings display %q missing %q", resp.Reply, want)
		}
	}
}

func TestHandleUpdateSettingsUpdate(t *testing.T) {
	r, st := newTestRouter(t, &fakeCompleter{}, nil)

	rec, resp := postUpdate(t, r, "c1", "/settings history=5")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}
	if resp.Reply != "history has been updated to 5" {
		t.Fatalf("reply = %q", resp.Reply)
	}

	value, err := st.GetSetting(context.Background(), "c1", "history", map[string]string{"history": "30"})
	if err != nil {
		t.Fatalf("GetSetting: %v", err)
	}
	if value != "5" {
		t.Fatalf("stored history = %q, want 5", value)
	}
}

func TestHandleUpdateSettingsMalformed(t *testing.T) {
	r, _ := newTestRouter(t, &fakeCompleter{}, nil)

	for _, text := range []string{"/settings history", "/settings history=", "/settings =5", "/settings a=b=c"} {
		rec, _ := postUpdate(t, r, "c1", text)
		if rec.Code != http.StatusBadRequest {
			t.Errorf("%q: status = %d, want 400", text, rec.Code)
		}
	}
}

func TestHandleUpdateSettingsUnknownName(t *testing.T) {
	r, _ := newTestRouter(t, &fakeCompleter{}, nil)

	rec, _ := postUpdate(t, r, "c1", "/settings temperature=0.7")
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
}

func TestHandleUpdateReset(t *testing.T) {
	completer := &fakeCompleter{}
	r, st := newTestRouter(t, completer, nil)
	ctx := context.Background()

	postUpdate(t, r, "c1", "hello")
	if _, err := st.Append(ctx, models.Message{ChatID: "c1", Role: models.RoleUser, Content: "more"}); err != nil {
		t.Fatalf("Append: %v", err)
	}

	rec, resp := postUpdate(t, r, "c1", "/reset")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if resp.Reply != "Conversation history has been reset." {
		t.Fatalf("reply = %q", resp.Reply)
	}

	history, _ := st.History(ctx, "c1")
	if len(history) != 0 {
		t.Fatalf("expected empty history, got %d messages", len(history))
	}
}

func TestHandleUpdateRoll(t *testing.T) {
	r, st := newTestRouter(t, &fakeCompleter{}, nil)

	rec, resp := postUpdate(t, r, "c1", "/roll 1d6")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if !strings.HasPrefix(resp.Reply, "Rolled: ") {
		t.Fatalf("reply = %q", resp.Reply)
	}

	// Dice are chatter; they never enter the conversation history.
	history, _ := st.History(context.Background(), "c1")
	if len(history) != 0 {
		t.Fatalf("dice rolls must not be recorded, got %d messages", len(history))
	}
}

func TestHandleUpdateImagine(t *testing.T) {
	completer := &fakeCompleter{
		reply: func(req llm.Request) (*llm.Response, error) {
			return &llm.Response{Content: "a majestic cat"}, nil
		},
	}
	images := &fakeImages{img: &llm.Image{URL: "https://img.example/cat.png", RevisedPrompt: "a cat"}}
	r, st := newTestRouter(t, completer, images)

	rec, resp := postUpdate(t, r, "c1", "/imagine cat")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}
	if resp.ImageURL != "https://img.example/cat.png" || resp.Caption != "a cat" {
		t.Fatalf("response = %+v", resp)
	}

	if len(images.prompts) != 1 {
		t.Fatalf("expected one image call, got %d", len(images.prompts))
	}
	if !strings.HasPrefix(images.prompts[0], "DO NOT add any detail") {
		t.Fatalf("image prompt must carry the as-is instruction, got %q", images.prompts[0])
	}

	// Image turns are not part of the conversation.
	history, _ := st.History(context.Background(), "c1")
	if len(history) != 0 {
		t.Fatalf("imagine must not be recorded, got %d messages", len(history))
	}
}

func TestHandleUpdateImagineUnconfigured(t *testing.T) {
	r, _ := newTestRouter(t, &fakeCompleter{}, nil)

	rec, _ := postUpdate(t, r, "c1", "/imagine cat")
	if rec.Code != http.StatusNotImplemented {
		t.Fatalf("status = %d, want 501", rec.Code)
	}
}

func TestHandleUpdateImagineFailure(t *testing.T) {
	completer := &fakeCompleter{}
	images := &fakeImages{err: &llm.GenerationError{Op: "image generation", Err: errors.New("boom")}}
	r, _ := newTestRouter(t, completer, images)

	rec, _ := postUpdate(t, r, "c1", "/imagine cat")
	if rec.Code != http.StatusBadGateway {
		t.Fatalf("status = %d, want 502", rec.Code)
	}
}

func TestHandleUpdateEmptyText(t *testing.T) {
	r, _ := newTestRouter(t, &fakeCompleter{}, nil)

	rec, _ := postUpdate(t, r, "c1", "   ")
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
}

func TestSplitCommand(t *testing.T) {
	tests := []struct {
		in      string
		command string
		args    string
	}{
		{"/help", "/help", ""},
		{"/roll 2d6", "/roll", "2d6"},
		{"/settings@kompukter_bot history=5", "/settings", "history=5"},
		{"hello there", "", "hello there"},
		{"/imagine  a cat ", "/imagine", "a cat"},
	}

	for _, tc := range tests {
		command, args := splitCommand(tc.in)
		if command != tc.command || args != tc.args {
			t.Errorf("splitCommand(%q) = (%q, %q), want (%q, %q)", tc.in, command, args, tc.command, tc.args)
		}
	}
}
