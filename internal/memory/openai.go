package memory

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/tradingagents/core/internal/domain"
)

const defaultOpenAIEmbeddingModel = "text-embedding-3-small"

// OpenAIEmbedder calls an OpenAI-compatible /v1/embeddings endpoint. It
// also serves custom endpoints and Ollama's OpenAI compatibility layer.
type OpenAIEmbedder struct {
	endpoint string
	apiKey   string
	model    string
	client   *http.Client
}

// NewOpenAIEmbedder builds an embedder against endpoint. An empty endpoint
// targets api.openai.com; an empty model uses text-embedding-3-small.
func NewOpenAIEmbedder(endpoint, apiKey, model string) *OpenAIEmbedder {
	if endpoint == "" {
		endpoint = "https://api.openai.com"
	}
	if model == "" {
		model = defaultOpenAIEmbeddingModel
	}

	return &OpenAIEmbedder{
		endpoint: strings.TrimSuffix(strings.TrimRight(endpoint, "/"), "/v1"),
		apiKey:   apiKey,
		model:    model,
		client: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

type openAIEmbedRequest struct {
	Model string   `json:"model"`
	Input []string `json:"input"`
}

type openAIEmbedResponse struct {
	Data []struct {
		Embedding []float32 `json:"embedding"`
	} `json:"data"`
}

func (e *OpenAIEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	body, err := json.Marshal(openAIEmbedRequest{
		Model: e.model,
		Input: []string{text},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal embeddings request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, e.endpoint+"/v1/embeddings", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create embeddings request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if e.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+e.apiKey)
	}

	resp, err := e.client.Do(req)
	if err != nil {
		return nil, domain.NewError(domain.KindProviderTransport, "embeddings request failed", "check network connectivity and endpoint", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("embeddings endpoint returned status %d: %s", resp.StatusCode, string(respBody))
	}

	var result openAIEmbedResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, domain.NewError(domain.KindProviderMalformed, "failed to decode embeddings response", "", err)
	}
	if len(result.Data) == 0 {
		return nil, domain.NewError(domain.KindProviderMalformed, "embeddings response contained no vectors", "", nil)
	}

	return result.Data[0].Embedding, nil
}

// Dimensions reports the vector size of text-embedding-3-small and
// compatible defaults.
func (e *OpenAIEmbedder) Dimensions() int {
	return 1536
}

func (e *OpenAIEmbedder) Name() string {
	return fmt.Sprintf("openai:%s", e.model)
}
