// Package ollama narrates turns with a local Ollama chat model.
package ollama

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/ollama/ollama/api"

	"github.com/papercomputeco/tales/pkg/llm"
)

const (
	DefaultModel   = "llama3.2"
	DefaultBaseURL = "http://localhost:11434"
)

// Config for the Ollama generator.
type Config struct {
	BaseURL     string
	Model       string
	Temperature *float32
}

// Generator calls /api/chat with streaming disabled and JSON output.
type Generator struct {
	client  *api.Client
	model   string
	options map[string]any
}

func New(cfg Config) (*Generator, error) {
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
		model = DefaultModel
	}

	g := &Generator{
		client: api.NewClient(base, http.DefaultClient),
		model:  model,
	}
	if cfg.Temperature != nil {
		g.options = map[string]any{"temperature": *cfg.Temperature}
	}
	return g, nil
}

func (g *Generator) Generate(ctx context.Context, prompt string) (string, error) {
	stream := false
	req := &api.ChatRequest{
		Model:    g.model,
		Messages: []api.Message{{Role: "user", Content: prompt}},
		Stream:   &stream,
		Format:   json.RawMessage(`"json"`),
		Options:  g.options,
	}

	var out strings.Builder
	err := g.client.Chat(ctx, req, func(resp api.ChatResponse) error {
		out.WriteString(resp.Message.Content)
		return nil
	})
	if err != nil {
		return "", fmt.Errorf("%w: ollama: %w", llm.ErrGeneration, err)
	}
	return out.String(), nil
}

var _ llm.Generator = (*Generator)(nil)
