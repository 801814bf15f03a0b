// Package provider builds the configured llm.Generator.
package provider

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/papercomputeco/tales/pkg/llm"
	"github.com/papercomputeco/tales/pkg/llm/provider/anthropic"
	"github.com/papercomputeco/tales/pkg/llm/provider/gemini"
	"github.com/papercomputeco/tales/pkg/llm/provider/ollama"
	"github.com/papercomputeco/tales/pkg/llm/provider/openai"
)

const (
	Gemini    = "gemini"
	OpenAI    = "openai"
	Anthropic = "anthropic"
	Ollama    = "ollama"
)

// SupportedProviders returns the provider names accepted by New.
func SupportedProviders() []string {
	return []string{Gemini, OpenAI, Anthropic, Ollama}
}

// Config selects and configures a narrator backend.
type Config struct {
	Provider string
	Model    string

	// APIKey wins over the provider's environment variable.
	APIKey      string
	BaseURL     string
	Temperature *float32
}

// New creates the generator for cfg.Provider, instrumented with metrics.
// A hosted provider with no resolvable key falls back to local Ollama.
func New(ctx context.Context, cfg Config, logger *slog.Logger) (llm.Generator, error) {
	name := strings.ToLower(cfg.Provider)
	apiKey := cfg.APIKey
	if apiKey == "" {
		apiKey = APIKeyFromEnv(name)
	}

	if apiKey == "" && name != Ollama {
		logger.Warn("no API key found, falling back to ollama", "provider", name)
		name = Ollama
		cfg.Model = ""
		cfg.BaseURL = ""
	}

	var (
		g   llm.Generator
		err error
	)
	switch name {
	case Gemini:
		g, err = gemini.New(ctx, gemini.Config{
			APIKey:      apiKey,
			Model:       cfg.Model,
			BaseURL:     cfg.BaseURL,
			Temperature: cfg.Temperature,
		})
	case OpenAI:
		g, err = openai.New(openai.Config{
			APIKey:      apiKey,
			Model:       cfg.Model,
			BaseURL:     cfg.BaseURL,
			Temperature: cfg.Temperature,
		})
	case Anthropic:
		g, err = anthropic.New(anthropic.Config{
			APIKey:      apiKey,
			Model:       cfg.Model,
			BaseURL:     cfg.BaseURL,
			Temperature: cfg.Temperature,
		})
	case Ollama:
		g, err = ollama.New(ollama.Config{
			Model:       cfg.Model,
			BaseURL:     cfg.BaseURL,
			Temperature: cfg.Temperature,
		})
	default:
		return nil, fmt.Errorf("unsupported provider: %s", cfg.Provider)
	}
	if err != nil {
		return nil, err
	}
	return llm.Instrument(name, g), nil
}

// APIKeyFromEnv reads the conventional environment variable for provider.
func APIKeyFromEnv(provider string) string {
	switch provider {
	case Gemini:
		if key := os.Getenv("GEMINI_API_KEY"); key != "" {
			return key
		}
		return os.Getenv("GOOGLE_API_KEY")
	case OpenAI:
		return os.Getenv("OPENAI_API_KEY")
	case Anthropic:
		return os.Getenv("ANTHROPIC_API_KEY")
	default:
		return ""
	}
}
