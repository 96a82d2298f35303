package llm

import (
	"context"
	"testing"

	"hservice/internal/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewChatModelOpenAICompatible(t *testing.T) {
	for _, name := range []string{"mistral", "openai"} {
		m, err := NewChatModel(context.Background(), name, config.ProviderConfig{APIKey: "test-key"})
		require.NoError(t, err, name)
		assert.NotNil(t, m)
	}
}

func TestNewChatModelRejects(t *testing.T) {
	_, err := NewChatModel(context.Background(), "mistral", config.ProviderConfig{})
	assert.ErrorContains(t, err, "api_key")

	_, err = NewChatModel(context.Background(), "llama", config.ProviderConfig{APIKey: "k"})
	assert.ErrorContains(t, err, "invalid provider")
}

func TestFromConfigRequiresProviderEntry(t *testing.T) {
	cfg := &config.Config{BasicConfig: config.BasicConfig{Provider: "gemini"}}
	_, err := FromConfig(context.Background(), cfg)
	assert.ErrorContains(t, err, "not configured")
}
