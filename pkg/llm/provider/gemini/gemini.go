// Package gemini narrates turns with the Gemini API.
package gemini

import (
	"context"
	"errors"
	"fmt"

	"google.golang.org/genai"

	"github.com/papercomputeco/tales/pkg/llm"
)

const DefaultModel = "gemini-2.5-flash"

type Config struct {
	APIKey      string
	Model       string
	BaseURL     string
	Temperature *float32
}

// Generator asks Gemini for an application/json reply.
type Generator struct {
	client *genai.Client
	model  string
	config *genai.GenerateContentConfig
}

func New(ctx context.Context, cfg Config) (*Generator, error) {
	if cfg.APIKey == "" {
		return nil, errors.New("gemini API key is required")
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:      cfg.APIKey,
		Backend:     genai.BackendGeminiAPI,
		HTTPOptions: genai.HTTPOptions{BaseURL: cfg.BaseURL},
	})
	if err != nil {
		return nil, fmt.Errorf("creating genai client: %w", err)
	}

	model := cfg.Model
	if model == "" {
		model = DefaultModel
	}
	return &Generator{
		client: client,
		model:  model,
		config: &genai.GenerateContentConfig{
			Temperature:      cfg.Temperature,
			ResponseMIMEType: "application/json",
		},
	}, nil
}

func (g *Generator) Generate(ctx context.Context, prompt string) (string, error) {
	resp, err := g.client.Models.GenerateContent(ctx, g.model, genai.Text(prompt), g.config)
	if err != nil {
		return "", fmt.Errorf("%w: gemini: %w", llm.ErrGeneration, err)
	}
	return resp.Text(), nil
}

var _ llm.Generator = (*Generator)(nil)
