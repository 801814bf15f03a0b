// Package anthropic narrates turns with the Anthropic Messages API.
package anthropic

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/papercomputeco/tales/pkg/llm"
)

const (
	DefaultModel   = "claude-haiku-4-5-20251001"
	DefaultBaseURL = "https://api.anthropic.com"

	apiVersion = "2023-06-01"
	maxTokens  = 1024
)

type Config struct {
	APIKey      string
	Model       string
	BaseURL     string
	Temperature *float32
}

type Generator struct {
	apiKey      string
	model       string
	baseURL     string
	temperature *float32
	client      *http.Client
}

func New(cfg Config) (*Generator, error) {
	if cfg.APIKey == "" {
		return nil, errors.New("anthropic API key is required")
	}
	g := &Generator{
		apiKey:      cfg.APIKey,
		model:       cfg.Model,
		baseURL:     strings.TrimSuffix(cfg.BaseURL, "/"),
		temperature: cfg.Temperature,
		client:      http.DefaultClient,
	}
	if g.model == "" {
		g.model = DefaultModel
	}
	if g.baseURL == "" {
		g.baseURL = DefaultBaseURL
	}
	return g, nil
}

type request struct {
	Model       string    `json:"model"`
	MaxTokens   int       `json:"max_tokens"`
	Temperature *float32  `json:"temperature,omitempty"`
	Messages    []message `json:"messages"`
}

type message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type response struct {
	Content []struct {
		Type string `json:"type"`
		Text string `json:"text"`
	} `json:"content"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

func (g *Generator) Generate(ctx context.Context, prompt string) (string, error) {
	data, err := json.Marshal(request{
		Model:       g.model,
		MaxTokens:   maxTokens,
		Temperature: g.temperature,
		Messages: []message{
			{Role: "user", Content: prompt + "\n\nReturn ONLY valid JSON, no markdown or extra text."},
		},
	})
	if err != nil {
		return "", fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.baseURL+"/v1/messages", bytes.NewReader(data))
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-api-key", g.apiKey)
	req.Header.Set("anthropic-version", apiVersion)

	resp, err := g.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: anthropic request: %w", llm.ErrGeneration, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("%w: read response: %w", llm.ErrGeneration, err)
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("%w: anthropic API error (status %d): %s", llm.ErrGeneration, resp.StatusCode, string(body))
	}

	var result response
	if err := json.Unmarshal(body, &result); err != nil {
		return "", fmt.Errorf("%w: unmarshal response: %w", llm.ErrGeneration, err)
	}
	if result.Error != nil {
		return "", fmt.Errorf("%w: anthropic error: %s", llm.ErrGeneration, result.Error.Message)
	}

	var out strings.Builder
	for _, block := range result.Content {
		if block.Type == "text" {
			out.WriteString(block.Text)
		}
	}
	return out.String(), nil
}

var _ llm.Generator = (*Generator)(nil)
