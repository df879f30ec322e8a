package chat

import (
	"github.com/pkoukk/tiktoken-go"

	"darkchat/internal/models"
)

// DefaultMaxTurns bounds how many prior turns are loaded for context.
const DefaultMaxTurns = 20

// Window is the context truncation policy: a fixed turn count plus an
// optional token budget measured with the model's tokenizer.
type Window struct {
	maxTurns    int
	tokenBudget int
	count       func(string) int
}

// NewWindow builds a window for the given model. tokenBudget <= 0 disables
// token-based trimming. When no tokenizer is available for the model the
// count falls back to a rune/4 approximation.
func NewWindow(model string, maxTurns, tokenBudget int) *Window {
	if maxTurns <= 0 {
		maxTurns = DefaultMaxTurns
	}
	w := &Window{maxTurns: maxTurns, tokenBudget: tokenBudget, count: approxTokens}
	if tokenBudget > 0 {
		if enc := loadEncoding(model); enc != nil {
			w.count = func(text string) int {
				return len(enc.Encode(text, nil, nil))
			}
		}
	}
	return w
}

func loadEncoding(model string) *tiktoken.Tiktoken {
	if model != "" {
		if enc, err := tiktoken.EncodingForModel(model); err == nil {
			return enc
		}
	}
	enc, err := tiktoken.GetEncoding("cl100k_base")
	if err != nil {
		return nil
	}
	return enc
}

// MaxTurns reports the fixed turn bound.
func (w *Window) MaxTurns() int {
	return w.maxTurns
}

// Trim drops the oldest messages until the remainder fits the token budget.
// Input and output are ordered oldest-first.
func (w *Window) Trim(msgs []*models.Message) []*models.Message {
	if w.tokenBudget <= 0 || len(msgs) == 0 {
		return msgs
	}
	used := 0
	keepFrom := len(msgs)
	for i := len(msgs) - 1; i >= 0; i-- {
		cost := w.count(msgs[i].Content)
		if used+cost > w.tokenBudget {
			break
		}
		used += cost
		keepFrom = i
	}
	return msgs[keepFrom:]
}

func approxTokens(text string) int {
	runes := []rune(text)
	return (len(runes) + 3) / 4
}
