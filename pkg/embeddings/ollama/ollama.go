// Package ollama implements pkg/embeddings' Embedder on top of Ollama's
// embed endpoint.
package ollama

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/ollama/ollama/api"

	"github.com/papercomputeco/tales/pkg/embeddings"
	"github.com/papercomputeco/tales/pkg/vector"
)

const (
	DefaultEmbeddingModel = "embeddinggemma"
	DefaultBaseURL        = "http://localhost:11434"

	requestTimeout = 120 * time.Second
)

// Embedder embeds memory records and commands with a local Ollama model.
type Embedder struct {
	client *api.Client
	model  string
}

// EmbedderConfig selects the Ollama server and model. Empty fields fall back
// to DefaultBaseURL and DefaultEmbeddingModel.
type EmbedderConfig struct {
	BaseURL string
	Model   string
}

// NewEmbedder returns an Embedder for cfg. No request is made until Embed.
func NewEmbedder(cfg EmbedderConfig) (*Embedder, error) {
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	base, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("parsing ollama URL %q: %w", baseURL, err)
	}

	model := cfg.Model
	if model == "" {
		model = DefaultEmbeddingModel
	}

	return &Embedder{
		client: api.NewClient(base, &http.Client{Timeout: requestTimeout}),
		model:  model,
	}, nil
}

// Embed returns the first embedding Ollama produces for text.
func (e *Embedder) Embed(ctx context.Context, text string) ([]float32, error) {
	resp, err := e.client.Embed(ctx, &api.EmbedRequest{
		Model: e.model,
		Input: text,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: ollama: %w", vector.ErrEmbedding, err)
	}
	if len(resp.Embeddings) == 0 {
		return nil, fmt.Errorf("%w: no embeddings returned", vector.ErrEmbedding)
	}
	return resp.Embeddings[0], nil
}

func (e *Embedder) Close() error {
	return nil
}

var _ embeddings.Embedder = (*Embedder)(nil)
