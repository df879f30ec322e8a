package chat

import (
	"testing"

	"darkchat/internal/models"
)

func TestWindowDefaults(t *testing.T) {
	w := NewWindow("", 0, 0)
	if w.MaxTurns() != DefaultMaxTurns {
		t.Fatalf("expected default of %d turns, got %d", DefaultMaxTurns, w.MaxTurns())
	}
	msgs := []*models.Message{{Content: "a"}, {Content: "b"}}
	if got := w.Trim(msgs); len(got) != 2 {
		t.Fatalf("no token budget should keep all messages, got %d", len(got))
	}
}

func TestWindowTrimsOldestFirst(t *testing.T) {
	w := &Window{maxTurns: DefaultMaxTurns, tokenBudget: 10, count: func(s string) int { return len(s) }}
	msgs := []*models.Message{
		{Content: "oldestoldest"}, // 12
		{Content: "middle"},       // 6
		{Content: "new"},          // 3
	}
	got := w.Trim(msgs)
	if len(got) != 2 {
		t.Fatalf("expected the oldest message dropped, kept %d", len(got))
	}
	if got[0].Content != "middle" || got[1].Content != "new" {
		t.Fatalf("trim must preserve oldest-first ordering of the tail: %q, %q", got[0].Content, got[1].Content)
	}
}

func TestWindowKeepsNewestWhenOverBudget(t *testing.T) {
	w := &Window{maxTurns: DefaultMaxTurns, tokenBudget: 2, count: func(s string) int { return len(s) }}
	msgs := []*models.Message{{Content: "aaaa"}, {Content: "bbbb"}}
	if got := w.Trim(msgs); len(got) != 0 {
		t.Fatalf("messages over budget are dropped entirely, kept %d", len(got))
	}
}
