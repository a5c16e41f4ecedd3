package store

import (
	"context"
	"testing"

	"github.com/Vilin97/TelegramAIbot/internal/models"
)

func appendMsg(t *testing.T, s *MemoryStore, chatID string, role models.Role, content string) string {
	t.Helper()
	id, err := s.Append(context.Background(), models.Message{
		ChatID:  chatID,
		Role:    role,
		Content: content,
	})
	if err != nil {
		t.Fatalf("Append(%q): %v", content, err)
	}
	return id
}

func TestAppendOrdering(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	appendMsg(t, s, "c1", models.RoleUser, "first")
	appendMsg(t, s, "c1", models.RoleAssistant, "second")
	appendMsg(t, s, "c1", models.RoleUser, "third")
	appendMsg(t, s, "c2", models.RoleUser, "other chat")

	history, err := s.History(ctx, "c1")
	if err != nil {
		t.Fatalf("History: %v", err)
	}
	if len(history) != 3 {
		t.Fatalf("expected 3 messages, got %d", len(history))
	}
	for i, want := range []string{"first", "second", "third"} {
		if history[i].Content != want {
			t.Errorf("history[%d] = %q, want %q", i, history[i].Content, want)
		}
	}
}

func TestAppendMintsMessageID(t *testing.T) {
	s := NewMemoryStore()

	id1 := appendMsg(t, s, "c1", models.RoleUser, "a")
	id2 := appendMsg(t, s, "c1", models.RoleUser, "b")

	if id1 == "" || id2 == "" {
		t.Fatal("expected minted message IDs")
	}
	if id1 == id2 {
		t.Fatalf("message IDs must be unique, got %q twice", id1)
	}
}

func TestAppendRejectsInvalidRole(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	_, err := s.Append(ctx, models.Message{ChatID: "c1", Role: "moderator", Content: "x"})
	if !models.IsValidation(err) {
		t.Fatalf("expected ValidationError, got %v", err)
	}

	history, err := s.History(ctx, "c1")
	if err != nil {
		t.Fatalf("History: %v", err)
	}
	if len(history) != 0 {
		t.Fatalf("rejected append must not mutate history, got %d messages", len(history))
	}
}

func TestMessagesWithProperty(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	pinnedID := appendMsg(t, s, "c1", models.RoleUser, "pin me")
	appendMsg(t, s, "c1", models.RoleUser, "plain")

	if err := s.SetProperties(ctx, "c1", pinnedID, map[string]string{models.PropPinned: models.PropPinnedValue}); err != nil {
		t.Fatalf("SetProperties: %v", err)
	}

	pinned, err := s.MessagesWithProperty(ctx, "c1", models.PropPinned, models.PropPinnedValue)
	if err != nil {
		t.Fatalf("MessagesWithProperty: %v", err)
	}
	if len(pinned) != 1 || pinned[0].Content != "pin me" {
		t.Fatalf("expected exactly the pinned message, got %+v", pinned)
	}
}

func TestSetPropertiesMissingTargetIsNoOp(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	if err := s.SetProperties(ctx, "c1", "no-such-id", map[string]string{"k": "v"}); err != nil {
		t.Fatalf("SetProperties on missing target must succeed, got %v", err)
	}
}

func TestDeleteMessageIdempotent(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	id := appendMsg(t, s, "c1", models.RoleUser, "doomed")
	appendMsg(t, s, "c1", models.RoleUser, "survivor")

	if err := s.DeleteMessage(ctx, "c1", id); err != nil {
		t.Fatalf("DeleteMessage: %v", err)
	}
	if err := s.DeleteMessage(ctx, "c1", id); err != nil {
		t.Fatalf("second DeleteMessage must succeed, got %v", err)
	}

	history, _ := s.History(ctx, "c1")
	if len(history) != 1 || history[0].Content != "survivor" {
		t.Fatalf("expected only the survivor, got %+v", history)
	}
}

func TestResetHistoryLeavesSettings(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()
	defaults := map[string]string{"history": "30"}

	appendMsg(t, s, "c1", models.RoleUser, "hello")
	if err := s.UpdateSetting(ctx, "c1", "history", "5"); err != nil {
		t.Fatalf("UpdateSetting: %v", err)
	}

	if err := s.ResetHistory(ctx, "c1"); err != nil {
		t.Fatalf("ResetHistory: %v", err)
	}

	history, _ := s.History(ctx, "c1")
	if len(history) != 0 {
		t.Fatalf("expected empty history after reset, got %d messages", len(history))
	}

	value, err := s.GetSetting(ctx, "c1", "history", defaults)
	if err != nil {
		t.Fatalf("GetSetting: %v", err)
	}
	if value != "5" {
		t.Fatalf("settings must survive a reset, got history=%q", value)
	}
}

func TestGetSettingFallsBackToDefault(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()
	defaults := map[string]string{"model": "gpt-4o"}

	value, err := s.GetSetting(ctx, "c1", "model", defaults)
	if err != nil {
		t.Fatalf("GetSetting: %v", err)
	}
	if value != "gpt-4o" {
		t.Fatalf("expected default, got %q", value)
	}

	if err := s.UpdateSetting(ctx, "c1", "model", "gpt-4o-mini"); err != nil {
		t.Fatalf("UpdateSetting: %v", err)
	}
	value, err = s.GetSetting(ctx, "c1", "model", defaults)
	if err != nil {
		t.Fatalf("GetSetting: %v", err)
	}
	if value != "gpt-4o-mini" {
		t.Fatalf("expected override, got %q", value)
	}
}

func TestGetSettingUnknownName(t *testing.T) {
	s := NewMemoryStore()

	_, err := s.GetSetting(context.Background(), "c1", "temperature", map[string]string{"model": "gpt-4o"})
	if !IsUnknownSetting(err) {
		t.Fatalf("expected UnknownSettingError, got %v", err)
	}
}
