package chat

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/cloudwego/eino/schema"

	"darkchat/internal/models"
	"darkchat/internal/provider"
)

// ErrSessionNotFound reports a session that does not exist or is owned by
// another user. Callers must not learn which of the two it was.
var ErrSessionNotFound = errors.New("session not found")

// systemPreamble opens every provider conversation.
const systemPreamble = "You are Mr.Dark AI Agent, a helpful assistant that can execute code, browse the web, analyze data, and more. Be concise and helpful."

// Store is the slice of the record store the pipeline needs.
type Store interface {
	GetSession(ctx context.Context, userID, sessionID int64) (*models.Session, error)
	ListRecentMessages(ctx context.Context, sessionID int64, limit int) ([]*models.Message, error)
	AddMessage(ctx context.Context, msg models.Message) (*models.Message, error)
}

// Provider opens a token stream for an assembled conversation.
type Provider interface {
	Stream(ctx context.Context, opts provider.Options, msgs []*schema.Message) (*schema.StreamReader[*schema.Message], error)
}

// Config tunes the pipeline.
type Config struct {
	// Window bounds the history sent to the provider. Nil means the default
	// window of 20 turns with no token budget.
	Window *Window
	// SerializeSessions allows at most one in-flight completion per session.
	// Off by default: concurrent completions interleave by store insertion
	// order.
	SerializeSessions bool
}

// Service is the streaming completion pipeline: it verifies ownership,
// assembles context, relays provider tokens to the caller, and records the
// exchange.
type Service struct {
	store     Store
	provider  Provider
	window    *Window
	serialize bool
	gates     sync.Map // sessionID -> *sync.Mutex
}

// NewService builds the pipeline.
func NewService(store Store, prov Provider, cfg Config) *Service {
	window := cfg.Window
	if window == nil {
		window = NewWindow("", 0, 0)
	}
	return &Service{
		store:     store,
		provider:  prov,
		window:    window,
		serialize: cfg.SerializeSessions,
	}
}

// Respond runs one completion for the session. Each provider chunk is handed
// to onChunk in arrival order before the next is consumed; the returned
// assistant message content is the exact concatenation of every relayed
// chunk. The user turn is persisted before the provider call is opened, so
// input survives provider failures. On a mid-stream error the partial
// assistant text is discarded and the error returned; the caller is expected
// to surface it in-band.
func (s *Service) Respond(ctx context.Context, userID, sessionID int64, text string, onChunk func(string) error) (*models.Message, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, errors.New("message cannot be empty")
	}

	session, err := s.store.GetSession(ctx, userID, sessionID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrSessionNotFound
		}
		return nil, err
	}

	if s.serialize {
		gate := s.sessionGate(sessionID)
		gate.Lock()
		defer gate.Unlock()
	}

	history, err := s.store.ListRecentMessages(ctx, sessionID, s.window.MaxTurns())
	if err != nil {
		return nil, err
	}
	history = s.window.Trim(history)

	msgs := make([]*schema.Message, 0, len(history)+2)
	msgs = append(msgs, &schema.Message{Role: schema.System, Content: systemPreamble})
	for _, m := range history {
		msgs = append(msgs, &schema.Message{Role: toSchemaRole(m.Role), Content: m.Content})
	}
	msgs = append(msgs, &schema.Message{Role: schema.User, Content: text})

	// The user's turn is durable before any provider traffic.
	if _, err := s.store.AddMessage(ctx, models.Message{
		SessionID: sessionID,
		Role:      models.RoleUser,
		Content:   text,
	}); err != nil {
		return nil, fmt.Errorf("persist user message: %w", err)
	}

	opts := provider.Options{
		Model:       session.Model,
		Temperature: session.Temperature,
		MaxTokens:   session.MaxTokens,
	}
	sr, err := s.provider.Stream(ctx, opts, msgs)
	if err != nil {
		return nil, err
	}
	defer sr.Close()

	var full strings.Builder
	for {
		chunk, err := sr.Recv()
		if err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return nil, err
		}
		if chunk.Content == "" {
			continue
		}
		if onChunk != nil {
			if err := onChunk(chunk.Content); err != nil {
				return nil, err
			}
		}
		full.WriteString(chunk.Content)
	}

	assistant, err := s.store.AddMessage(ctx, models.Message{
		SessionID: sessionID,
		Role:      models.RoleAssistant,
		Content:   full.String(),
		Model:     opts.ModelValue(),
	})
	if err != nil {
		return nil, fmt.Errorf("persist assistant message: %w", err)
	}
	return assistant, nil
}

func (s *Service) sessionGate(sessionID int64) *sync.Mutex {
	if g, ok := s.gates.Load(sessionID); ok {
		return g.(*sync.Mutex)
	}
	g, _ := s.gates.LoadOrStore(sessionID, &sync.Mutex{})
	return g.(*sync.Mutex)
}

func toSchemaRole(role models.Role) schema.RoleType {
	switch role {
	case models.RoleAssistant:
		return schema.Assistant
	case models.RoleSystem:
		return schema.System
	default:
		return schema.User
	}
}
