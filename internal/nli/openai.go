package nli

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	openai "github.com/sashabaranov/go-openai"

	"github.com/veridex/veridex/internal/util"
)

// OpenAIProvider implements Provider on OpenAI chat and embedding models
type OpenAIProvider struct {
	client         *openai.Client
	model          string
	embeddingModel string
	timeout        time.Duration
}

// NewOpenAIProvider creates an OpenAI-backed provider
func NewOpenAIProvider(config Config) (*OpenAIProvider, error) {
	if config.APIKey == "" {
		return nil, fmt.Errorf("OpenAI API key is required")
	}

	clientConfig := openai.DefaultConfig(config.APIKey)
	if config.BaseURL != "" {
		clientConfig.BaseURL = config.BaseURL
	}
	clientConfig.HTTPClient = &http.Client{
		Transport: &http.Transport{
			Proxy: util.NewProxyFunc(config.HTTPProxy, config.HTTPSProxy, config.NoProxy),
		},
	}

	timeout := time.Duration(config.Timeout) * time.Second
	if timeout == 0 {
		timeout = 30 * time.Second
	}

	model := config.Model
	if model == "" {
		model = openai.GPT4oMini
	}
	embeddingModel := config.EmbeddingModel
	if embeddingModel == "" {
		embeddingModel = string(openai.SmallEmbedding3)
	}

	return &OpenAIProvider{
		client:         openai.NewClientWithConfig(clientConfig),
		model:          model,
		embeddingModel: embeddingModel,
		timeout:        timeout,
	}, nil
}

// Name returns the provider name
func (p *OpenAIProvider) Name() string {
	return "openai"
}

// IsAvailable checks whether the API is reachable with the configured key
func (p *OpenAIProvider) IsAvailable(ctx context.Context) bool {
	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()
	_, err := p.client.ListModels(ctx)
	return err == nil
}

// ClassifyStance scores the premise/hypothesis relationship via a chat
// completion with a strict JSON contract.
func (p *OpenAIProvider) ClassifyStance(ctx context.Context, premise, hypothesis string) (StanceScores, error) {
	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	resp, err := p.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: p.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: stancePrompt},
			{Role: openai.ChatMessageRoleUser, Content: stanceUserPrompt(premise, hypothesis)},
		},
		MaxTokens:   200,
		Temperature: 0, // classification, not generation
	})
	if err != nil {
		return StanceScores{}, fmt.Errorf("openai stance call: %w", err)
	}
	if len(resp.Choices) == 0 {
		return StanceScores{}, fmt.Errorf("openai stance call: empty response")
	}

	return parseStanceJSON(strings.TrimSpace(resp.Choices[0].Message.Content))
}

// Similarity embeds both texts in one request and returns their cosine
// similarity mapped into [0,1].
func (p *OpenAIProvider) Similarity(ctx context.Context, a, b string) (float64, error) {
	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	resp, err := p.client.CreateEmbeddings(ctx, openai.EmbeddingRequest{
		Model: openai.EmbeddingModel(p.embeddingModel),
		Input: []string{a, b},
	})
	if err != nil {
		return 0, fmt.Errorf("openai embeddings call: %w", err)
	}
	if len(resp.Data) != 2 {
		return 0, fmt.Errorf("openai embeddings call: expected 2 vectors, got %d", len(resp.Data))
	}

	return Cosine(resp.Data[0].Embedding, resp.Data[1].Embedding)
}
