package nli

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/veridex/veridex/internal/util"
)

// OllamaProvider implements Provider on a local Ollama endpoint
type OllamaProvider struct {
	baseURL        string
	httpClient     *http.Client
	model          string
	embeddingModel string
}

type ollamaGenerateRequest struct {
	Model   string        `json:"model"`
	Prompt  string        `json:"prompt"`
	System  string        `json:"system,omitempty"`
	Stream  bool          `json:"stream"`
	Options ollamaOptions `json:"options,omitempty"`
}

type ollamaOptions struct {
	Temperature float64 `json:"temperature"`
	NumPredict  int     `json:"num_predict,omitempty"`
}

type ollamaGenerateResponse struct {
	Response string `json:"response"`
	Done     bool   `json:"done"`
}

type ollamaEmbedRequest struct {
	Model string `json:"model"`
	Input any    `json:"input"`
}

type ollamaEmbedResponse struct {
	Embeddings [][]float32 `json:"embeddings"`
}

type ollamaError struct {
	Error string `json:"error"`
}

// NewOllamaProvider creates a provider against a local Ollama server
func NewOllamaProvider(config Config) (*OllamaProvider, error) {
	baseURL := config.BaseURL
	if baseURL == "" {
		baseURL = "http://localhost:11434"
	}

	timeout := time.Duration(config.Timeout) * time.Second
	if timeout == 0 {
		timeout = 60 * time.Second // local models can be slow
	}

	model := config.Model
	if model == "" {
		return nil, fmt.Errorf("ollama provider requires a model name")
	}
	embeddingModel := config.EmbeddingModel
	if embeddingModel == "" {
		embeddingModel = "nomic-embed-text"
	}

	return &OllamaProvider{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: timeout,
			Transport: &http.Transport{
				Proxy: util.NewProxyFunc(config.HTTPProxy, config.HTTPSProxy, config.NoProxy),
			},
		},
		model:          model,
		embeddingModel: embeddingModel,
	}, nil
}

// Name returns the provider name
func (p *OllamaProvider) Name() string {
	return "ollama"
}

// IsAvailable checks whether the Ollama server is running
func (p *OllamaProvider) IsAvailable(ctx context.Context) bool {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.baseURL+"/api/tags", nil)
	if err != nil {
		return false
	}
	resp, err := p.httpClient.Do(req)
	if err != nil {
		return false
	}
	defer func() { _ = resp.Body.Close() }()
	return resp.StatusCode == http.StatusOK
}

// ClassifyStance scores the premise/hypothesis relationship via /api/generate
func (p *OllamaProvider) ClassifyStance(ctx context.Context, premise, hypothesis string) (StanceScores, error) {
	body, err := p.post(ctx, "/api/generate", ollamaGenerateRequest{
		Model:   p.model,
		System:  stancePrompt,
		Prompt:  stanceUserPrompt(premise, hypothesis),
		Stream:  false,
		Options: ollamaOptions{Temperature: 0, NumPredict: 200},
	})
	if err != nil {
		return StanceScores{}, fmt.Errorf("ollama stance call: %w", err)
	}

	var gen ollamaGenerateResponse
	if err := json.Unmarshal(body, &gen); err != nil {
		return StanceScores{}, fmt.Errorf("ollama stance call: decode: %w", err)
	}

	return parseStanceJSON(gen.Response)
}

// Similarity embeds both texts via /api/embed and returns their cosine
// similarity mapped into [0,1].
func (p *OllamaProvider) Similarity(ctx context.Context, a, b string) (float64, error) {
	body, err := p.post(ctx, "/api/embed", ollamaEmbedRequest{
		Model: p.embeddingModel,
		Input: []string{a, b},
	})
	if err != nil {
		return 0, fmt.Errorf("ollama embeddings call: %w", err)
	}

	var embed ollamaEmbedResponse
	if err := json.Unmarshal(body, &embed); err != nil {
		return 0, fmt.Errorf("ollama embeddings call: decode: %w", err)
	}
	if len(embed.Embeddings) != 2 {
		return 0, fmt.Errorf("ollama embeddings call: expected 2 vectors, got %d", len(embed.Embeddings))
	}

	return Cosine(embed.Embeddings[0], embed.Embeddings[1])
}

func (p *OllamaProvider) post(ctx context.Context, path string, payload any) ([]byte, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.baseURL+path, bytes.NewReader(raw))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		var apiErr ollamaError
		if json.Unmarshal(body, &apiErr) == nil && apiErr.Error != "" {
			return nil, fmt.Errorf("status %d: %s", resp.StatusCode, apiErr.Error)
		}
		return nil, fmt.Errorf("status %d", resp.StatusCode)
	}

	return body, nil
}
