// Package embeddings computes bullet embeddings used for redundancy checks.
// Gemini is the only provider; the Embedder interface keeps callers provider agnostic.
package embeddings

// Provider represents an embedding provider
type Provider string

// ProviderGemini is the Google Gemini provider
const ProviderGemini Provider = "gemini"

// DefaultModel is the Gemini embedding model used when none is configured
const DefaultModel = "text-embedding-004"

// maxBatchSize is the most texts Gemini accepts in one batch request
const maxBatchSize = 100

// Config holds the embedding model configuration
type Config struct {
	Provider  Provider
	Model     string
	BatchSize int
}

// DefaultConfig returns the default Gemini configuration
func DefaultConfig() *Config {
	return &Config{
		Provider:  ProviderGemini,
		Model:     DefaultModel,
		BatchSize: maxBatchSize,
	}
}

// WithModel returns a copy of the config using model, or the same settings when model is empty
func (c *Config) WithModel(model string) *Config {
	out := *c
	if model != "" {
		out.Model = model
	}
	return &out
}

func (c *Config) batchSize() int {
	if c.BatchSize <= 0 || c.BatchSize > maxBatchSize {
		return maxBatchSize
	}
	return c.BatchSize
}
