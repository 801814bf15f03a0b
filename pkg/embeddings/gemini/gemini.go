// Package gemini implements pkg/embeddings' Embedder with the Gemini API.
package gemini

import (
	"context"
	"errors"
	"fmt"

	"google.golang.org/genai"

	"github.com/papercomputeco/tales/pkg/embeddings"
	"github.com/papercomputeco/tales/pkg/vector"
)

const (
	// DefaultEmbeddingModel is the default Gemini embedding model.
	DefaultEmbeddingModel = "gemini-embedding-001"

	// Records and commands are compared with each other, never against a
	// separate query corpus.
	taskType = "SEMANTIC_SIMILARITY"
)

// EmbedderConfig holds configuration for the Gemini embedder.
type EmbedderConfig struct {
	APIKey string

	// Model defaults to DefaultEmbeddingModel.
	Model string

	// Dimensions truncates the output vector when non-zero.
	Dimensions uint

	// BaseURL overrides the API endpoint.
	BaseURL string
}

// Embedder wraps the genai Models service.
type Embedder struct {
	client     *genai.Client
	model      string
	dimensions int32
}

// NewEmbedder creates a Gemini embedder.
func NewEmbedder(ctx context.Context, cfg EmbedderConfig) (*Embedder, error) {
	if cfg.APIKey == "" {
		return nil, errors.New("gemini API key is required")
	}

	model := cfg.Model
	if model == "" {
		model = DefaultEmbeddingModel
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:      cfg.APIKey,
		Backend:     genai.BackendGeminiAPI,
		HTTPOptions: genai.HTTPOptions{BaseURL: cfg.BaseURL},
	})
	if err != nil {
		return nil, fmt.Errorf("creating genai client: %w", err)
	}

	return &Embedder{
		client:     client,
		model:      model,
		dimensions: int32(cfg.Dimensions),
	}, nil
}

// Embed converts text into a vector embedding.
func (e *Embedder) Embed(ctx context.Context, text string) ([]float32, error) {
	config := &genai.EmbedContentConfig{TaskType: taskType}
	if e.dimensions > 0 {
		dims := e.dimensions
		config.OutputDimensionality = &dims
	}

	result, err := e.client.Models.EmbedContent(ctx, e.model,
		[]*genai.Content{genai.NewContentFromText(text, genai.RoleUser)},
		config,
	)
	if err != nil {
		return nil, fmt.Errorf("%w: gemini: %w", vector.ErrEmbedding, err)
	}
	if len(result.Embeddings) == 0 {
		return nil, fmt.Errorf("%w: no embeddings returned", vector.ErrEmbedding)
	}
	return result.Embeddings[0].Values, nil
}

// Close releases resources held by the embedder.
func (e *Embedder) Close() error {
	return nil
}

var _ embeddings.Embedder = (*Embedder)(nil)
