package embeddings

import (
	"context"
	"fmt"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"
)

// Embedder turns texts into vectors, one per text, in input order
type Embedder interface {
	Embed(ctx context.Context, texts []string) ([][]float64, error)
	// Model returns the embedding model name recorded in the plan
	Model() string
	// Close releases any resources held by the embedder
	Close() error
}

// NewClient creates an embedder based on configuration
func NewClient(ctx context.Context, config *Config, apiKey string) (Embedder, error) {
	if config == nil {
		config = DefaultConfig()
	}

	switch config.Provider {
	case ProviderGemini:
		return NewGeminiEmbedder(ctx, config, apiKey)
	default:
		return nil, fmt.Errorf("unsupported embedding provider %q", config.Provider)
	}
}

// GeminiEmbedder implements Embedder for Google Gemini
type GeminiEmbedder struct {
	client *genai.Client
	config *Config
}

// NewGeminiEmbedder creates a new Gemini embedder
func NewGeminiEmbedder(ctx context.Context, config *Config, apiKey string) (*GeminiEmbedder, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("API key is required")
	}

	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}

	return &GeminiEmbedder{
		client: client,
		config: config,
	}, nil
}

// Embed embeds texts in batches of at most config.BatchSize
func (e *GeminiEmbedder) Embed(ctx context.Context, texts []string) ([][]float64, error) {
	model := e.client.EmbeddingModel(e.config.Model)
	model.TaskType = genai.TaskTypeSemanticSimilarity

	out := make([][]float64, 0, len(texts))
	for _, chunk := range chunks(texts, e.config.batchSize()) {
		batch := model.NewBatch()
		for _, text := range chunk {
			batch.AddContent(genai.Text(text))
		}

		resp, err := model.BatchEmbedContents(ctx, batch)
		if err != nil {
			return nil, fmt.Errorf("failed to embed batch: %w", err)
		}
		if len(resp.Embeddings) != len(chunk) {
			return nil, fmt.Errorf("expected %d embeddings, got %d", len(chunk), len(resp.Embeddings))
		}
		for _, emb := range resp.Embeddings {
			if emb == nil {
				return nil, fmt.Errorf("empty embedding in response")
			}
			out = append(out, toFloat64(emb.Values))
		}
	}
	return out, nil
}

// Model returns the configured model name
func (e *GeminiEmbedder) Model() string {
	return e.config.Model
}

// Close releases resources held by the client
func (e *GeminiEmbedder) Close() error {
	if e.client != nil {
		return e.client.Close()
	}
	return nil
}

func toFloat64(values []float32) []float64 {
	out := make([]float64, len(values))
	for i, v := range values {
		out[i] = float64(v)
	}
	return out
}

func chunks(texts []string, size int) [][]string {
	var out [][]string
	for start := 0; start < len(texts); start += size {
		end := min(start+size, len(texts))
		out = append(out, texts[start:end])
	}
	return out
}
