package nli

import (
	"fmt"
	"strings"

	"github.com/veridex/veridex/internal/model"
)

// NewProvider creates a model provider from configuration. An empty
// provider name returns nil: the engine then runs with the relevance gate
// failed open and all stance results degraded, which is still a valid
// (maximally abstaining) mode.
func NewProvider(config Config) (Provider, error) {
	switch strings.ToLower(config.Provider) {
	case "openai":
		return NewOpenAIProvider(config)
	case "ollama":
		return NewOllamaProvider(config)
	case "":
		return nil, nil
	default:
		return nil, fmt.Errorf("unknown NLI provider: %s (supported: openai, ollama)", config.Provider)
	}
}

// ConfigFromModel converts model.NLIConfig to nli.Config
func ConfigFromModel(cfg model.NLIConfig, proxy model.ProxyConfig) Config {
	return Config{
		Provider:       cfg.Provider,
		Model:          cfg.Model,
		EmbeddingModel: cfg.EmbeddingModel,
		APIKey:         cfg.APIKey,
		BaseURL:        cfg.BaseURL,
		Timeout:        cfg.Timeout,
		HTTPProxy:      proxy.HTTPProxy,
		HTTPSProxy:     proxy.HTTPSProxy,
		NoProxy:        proxy.NoProxy,
	}
}
