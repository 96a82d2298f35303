package llm

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"hservice/internal/config"

	"github.com/cloudwego/eino-ext/components/model/claude"
	"github.com/cloudwego/eino-ext/components/model/gemini"
	"github.com/cloudwego/eino-ext/components/model/openai"
	"github.com/cloudwego/eino/components/model"
	"google.golang.org/genai"
)

const (
	MistralBaseURL = "https://api.mistral.ai/v1"

	defaultGeminiModel  = "gemini-1.5-flash"
	defaultMistralModel = "mistral-large-latest"
	defaultOpenAIModel  = "gpt-4o-mini"
	defaultClaudeModel  = "claude-3-5-haiku-latest"
	claudeMaxTokens     = 1024
)

// NewChatModel builds the eino chat model for a configured provider. Mistral
// speaks the OpenAI wire protocol and goes through the openai component.
func NewChatModel(ctx context.Context, provider string, cfg config.ProviderConfig) (model.BaseChatModel, error) {
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, fmt.Errorf("provider %s: api_key is required", provider)
	}

	provider = strings.ToLower(provider)
	switch provider {
	case "gemini":
		client, err := genai.NewClient(ctx, &genai.ClientConfig{
			APIKey:  cfg.APIKey,
			Backend: genai.BackendGeminiAPI,
		})
		if err != nil {
			return nil, fmt.Errorf("create gemini client: %w", err)
		}
		cm, err := gemini.NewChatModel(ctx, &gemini.Config{
			Client: client,
			Model:  orDefault(cfg.Model, defaultGeminiModel),
		})
		if err != nil {
			return nil, fmt.Errorf("create gemini model: %w", err)
		}
		return cm, nil
	case "mistral", "openai":
		baseURL, modelName := cfg.BaseURL, cfg.Model
		if provider == "mistral" {
			baseURL = orDefault(baseURL, MistralBaseURL)
			modelName = orDefault(modelName, defaultMistralModel)
		} else {
			modelName = orDefault(modelName, defaultOpenAIModel)
		}
		cm, err := openai.NewChatModel(ctx, &openai.ChatModelConfig{
			BaseURL: baseURL,
			Model:   modelName,
			APIKey:  cfg.APIKey,
		})
		if err != nil {
			return nil, fmt.Errorf("create %s model: %w", provider, err)
		}
		return cm, nil
	case "claude":
		var baseURLPtr *string
		if cfg.BaseURL != "" {
			baseURLPtr = &cfg.BaseURL
		}
		cm, err := claude.NewChatModel(ctx, &claude.Config{
			APIKey:    cfg.APIKey,
			Model:     orDefault(cfg.Model, defaultClaudeModel),
			BaseURL:   baseURLPtr,
			MaxTokens: claudeMaxTokens,
		})
		if err != nil {
			return nil, fmt.Errorf("create claude model: %w", err)
		}
		return cm, nil
	default:
		return nil, fmt.Errorf("invalid provider: %s", provider)
	}
}

// FromConfig resolves basic_config.provider against the providers section.
func FromConfig(ctx context.Context, cfg *config.Config) (model.BaseChatModel, error) {
	if cfg == nil {
		return nil, errors.New("config required")
	}
	name := strings.ToLower(cfg.BasicConfig.Provider)
	provCfg, ok := cfg.Providers[name]
	if !ok {
		return nil, fmt.Errorf("provider %s not configured", name)
	}
	return NewChatModel(ctx, name, provCfg)
}

func orDefault(v, def string) string {
	if strings.TrimSpace(v) == "" {
		return def
	}
	return v
}
