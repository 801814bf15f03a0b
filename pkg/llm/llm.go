// Package llm is the boundary to the generative text model that narrates
// each turn. A Generator takes a fully rendered prompt and returns the raw
// reply text; everything about parsing that reply lives elsewhere.
package llm

import (
	"context"
	"errors"
)

// ErrGeneration wraps every failure returned by a Generator.
var ErrGeneration = errors.New("text generation failed")

// Generator produces a raw reply for a prompt.
type Generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// GeneratorFunc adapts a plain function to Generator.
type GeneratorFunc func(ctx context.Context, prompt string) (string, error)

func (f GeneratorFunc) Generate(ctx context.Context, prompt string) (string, error) {
	return f(ctx, prompt)
}
