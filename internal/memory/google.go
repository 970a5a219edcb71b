package memory

import (
	"context"
	"fmt"

	"google.golang.org/genai"
)

const defaultGoogleEmbeddingModel = "gemini-embedding-001"

// GoogleEmbedder generates embeddings through the Gemini API.
type GoogleEmbedder struct {
	client *genai.Client
	model  string
}

// NewGoogleEmbedder builds a Gemini embedder. An empty model uses
// gemini-embedding-001.
func NewGoogleEmbedder(ctx context.Context, apiKey, model string) (*GoogleEmbedder, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("google api key is required")
	}
	if model == "" {
		model = defaultGoogleEmbeddingModel
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{APIKey: apiKey})
	if err != nil {
		return nil, fmt.Errorf("failed to create genai client: %w", err)
	}

	return &GoogleEmbedder{client: client, model: model}, nil
}

func (e *GoogleEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	contents := []*genai.Content{
		genai.NewContentFromText(text, genai.RoleUser),
	}

	result, err := e.client.Models.EmbedContent(ctx, e.model, contents, &genai.EmbedContentConfig{
		TaskType: "SEMANTIC_SIMILARITY",
	})
	if err != nil {
		return nil, fmt.Errorf("genai embed failed: %w", err)
	}
	if len(result.Embeddings) == 0 {
		return nil, fmt.Errorf("genai returned no embeddings")
	}

	return result.Embeddings[0].Values, nil
}

// Dimensions reports the vector size of gemini-embedding-001.
func (e *GoogleEmbedder) Dimensions() int {
	return 768
}

func (e *GoogleEmbedder) Name() string {
	return fmt.Sprintf("google:%s", e.model)
}
