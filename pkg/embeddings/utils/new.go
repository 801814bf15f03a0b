// Package embeddingutils is the embeddings utility package
package embeddingutils

import (
	"context"
	"fmt"

	"github.com/papercomputeco/tales/pkg/embeddings"
	"github.com/papercomputeco/tales/pkg/embeddings/gemini"
	"github.com/papercomputeco/tales/pkg/embeddings/ollama"
)

// Supported embedding providers.
const (
	ProviderOllama = "ollama"
	ProviderGemini = "gemini"
)

type NewEmbedderOpts struct {
	ProviderType string
	TargetURL    string
	Model        string
	APIKey       string
	Dimensions   uint
}

func NewEmbedder(ctx context.Context, o *NewEmbedderOpts) (embeddings.Embedder, error) {
	switch o.ProviderType {
	case ProviderOllama:
		return ollama.NewEmbedder(ollama.EmbedderConfig{
			BaseURL: o.TargetURL,
			Model:   o.Model,
		})
	case ProviderGemini:
		return gemini.NewEmbedder(ctx, gemini.EmbedderConfig{
			APIKey:     o.APIKey,
			Model:      o.Model,
			Dimensions: o.Dimensions,
			BaseURL:    o.TargetURL,
		})
	default:
		return nil, fmt.Errorf("unsupported embedding provider: %s", o.ProviderType)
	}
}
