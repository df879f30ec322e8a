package provider

import (
	"context"
	"fmt"
	"strings"

	"github.com/cloudwego/eino-ext/components/model/claude"
	"github.com/cloudwego/eino-ext/components/model/gemini"
	"github.com/cloudwego/eino-ext/components/model/openai"
	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
	"google.golang.org/genai"

	"darkchat/internal/config"
)

// Service opens streaming completions against the configured model
// providers. The provider is resolved from the model identifier; requests for
// unrecognized models go to the default provider.
type Service struct {
	defaultName string
	providers   map[string]config.ProviderConfig
}

// New builds a provider service from config. At least one provider must be
// configured.
func New(cfg *config.Config) (*Service, error) {
	if len(cfg.Providers) == 0 {
		return nil, fmt.Errorf("no providers configured")
	}
	name := cfg.BasicConfig.DefaultProvider
	if name == "" {
		if _, ok := cfg.Providers["openai"]; ok {
			name = "openai"
		} else {
			for k := range cfg.Providers {
				name = k
				break
			}
		}
	}
	if _, ok := cfg.Providers[name]; !ok {
		return nil, fmt.Errorf("default provider %s not configured", name)
	}
	return &Service{defaultName: name, providers: cfg.Providers}, nil
}

// Stream opens a token stream for the given messages. The returned reader
// yields chunks in provider order until io.EOF; the context cancels the
// upstream call when the caller goes away.
func (s *Service) Stream(ctx context.Context, opts Options, msgs []*schema.Message) (*schema.StreamReader[*schema.Message], error) {
	chatModel, err := s.buildModel(ctx, opts)
	if err != nil {
		return nil, err
	}
	sr, err := chatModel.Stream(ctx, msgs)
	if err != nil {
		return nil, fmt.Errorf("open completion stream: %w", err)
	}
	return sr, nil
}

func (s *Service) buildModel(ctx context.Context, opts Options) (model.BaseChatModel, error) {
	name := s.resolveProvider(opts.ModelValue())
	provCfg, ok := s.providers[name]
	if !ok {
		return nil, fmt.Errorf("provider %s not configured", name)
	}
	modelName := opts.ModelValue()
	temperature := opts.TemperatureValue()
	maxTokens := opts.MaxTokensValue()

	switch name {
	case "openai":
		return openai.NewChatModel(ctx, &openai.ChatModelConfig{
			BaseURL:     provCfg.BaseURL,
			Model:       modelName,
			APIKey:      provCfg.APIKey,
			Temperature: &temperature,
			MaxTokens:   &maxTokens,
		})
	case "claude":
		var baseURLPtr *string
		if provCfg.BaseURL != "" {
			baseURLPtr = &provCfg.BaseURL
		}
		return claude.NewChatModel(ctx, &claude.Config{
			APIKey:      provCfg.APIKey,
			Model:       modelName,
			BaseURL:     baseURLPtr,
			MaxTokens:   maxTokens,
			Temperature: &temperature,
		})
	case "gemini":
		client, err := genai.NewClient(ctx, &genai.ClientConfig{
			APIKey: provCfg.APIKey,
		})
		if err != nil {
			return nil, fmt.Errorf("gemini client: %w", err)
		}
		return gemini.NewChatModel(ctx, &gemini.Config{
			Client: client,
			Model:  modelName,
		})
	default:
		return nil, fmt.Errorf("invalid provider: %s", name)
	}
}

// resolveProvider picks a configured provider for the model identifier.
func (s *Service) resolveProvider(modelName string) string {
	lower := strings.ToLower(modelName)
	switch {
	case strings.HasPrefix(lower, "gpt") || strings.HasPrefix(lower, "o1") || strings.HasPrefix(lower, "o3") || strings.HasPrefix(lower, "o4"):
		if _, ok := s.providers["openai"]; ok {
			return "openai"
		}
	case strings.HasPrefix(lower, "claude"):
		if _, ok := s.providers["claude"]; ok {
			return "claude"
		}
	case strings.HasPrefix(lower, "gemini"):
		if _, ok := s.providers["gemini"]; ok {
			return "gemini"
		}
	}
	return s.defaultName
}
