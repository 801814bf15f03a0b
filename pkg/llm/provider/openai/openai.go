// Package openai narrates turns with an OpenAI-compatible chat completion API.
package openai

import (
	"context"
	"errors"
	"fmt"

	goopenai "github.com/sashabaranov/go-openai"

	"github.com/papercomputeco/tales/pkg/llm"
)

const DefaultModel = "gpt-4o-mini"

// Config for the OpenAI generator.
type Config struct {
	APIKey string
	Model  string

	// BaseURL points at any compatible endpoint, e.g. a local gateway.
	BaseURL     string
	Temperature *float32
}

type Generator struct {
	client      *goopenai.Client
	model       string
	temperature *float32
}

func New(cfg Config) (*Generator, error) {
	if cfg.APIKey == "" {
		return nil, errors.New("openai API key is required")
	}
	clientCfg := goopenai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientCfg.BaseURL = cfg.BaseURL
	}

	model := cfg.Model
	if model == "" {
		model = DefaultModel
	}
	return &Generator{
		client:      goopenai.NewClientWithConfig(clientCfg),
		model:       model,
		temperature: cfg.Temperature,
	}, nil
}

func (g *Generator) Generate(ctx context.Context, prompt string) (string, error) {
	req := goopenai.ChatCompletionRequest{
		Model: g.model,
		Messages: []goopenai.ChatCompletionMessage{
			{Role: goopenai.ChatMessageRoleUser, Content: prompt},
		},
		ResponseFormat: &goopenai.ChatCompletionResponseFormat{
			Type: goopenai.ChatCompletionResponseFormatTypeJSONObject,
		},
	}
	if g.temperature != nil {
		req.Temperature = *g.temperature
	}

	resp, err := g.client.CreateChatCompletion(ctx, req)
	if err != nil {
		return "", fmt.Errorf("%w: openai: %w", llm.ErrGeneration, err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("%w: openai returned no choices", llm.ErrGeneration)
	}
	return resp.Choices[0].Message.Content, nil
}

var _ llm.Generator = (*Generator)(nil)
