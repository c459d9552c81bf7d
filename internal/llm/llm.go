package llm

import (
	"github.com/sashabaranov/go-openai"

	"github.com/growthmate/agent-server/internal/config"
)

// NewClient creates a new OpenAI-compatible client for the configured
// generation provider.
func NewClient(cfg config.LLMConfig) *openai.Client {
	clientConfig := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientConfig.BaseURL = cfg.BaseURL
	}
	return openai.NewClientWithConfig(clientConfig)
}

// KeyConfigured reports whether a generation provider credential is set.
func KeyConfigured(cfg config.LLMConfig) bool {
	return cfg.APIKey != ""
}
