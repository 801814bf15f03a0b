// Package intent maps a free-text command onto a closed set of intents by
// finding the nearest labelled example in a similarity index.
package intent

import (
	"context"
	_ "embed"
	"fmt"
	"log/slog"
	"strings"

	"github.com/BurntSushi/toml"

	"github.com/papercomputeco/tales/pkg/embeddings"
	"github.com/papercomputeco/tales/pkg/vector"
)

// Intent is the classified purpose of a command.
type Intent string

const (
	Exploration Intent = "EXPLORATION"
	Combat      Intent = "COMBAT"
	Dialogue    Intent = "DIALOGUE"
	Unknown     Intent = "UNKNOWN"
)

// Intents lists every label an example may carry.
var Intents = []Intent{Exploration, Combat, Dialogue}

func (i Intent) String() string {
	return string(i)
}

// Valid reports whether i is a known label, UNKNOWN excluded.
func (i Intent) Valid() bool {
	for _, known := range Intents {
		if i == known {
			return true
		}
	}
	return false
}

const tagIntent = "intent"

//go:embed intents.toml
var defaultExamples []byte

// Example is one labelled command.
type Example struct {
	Text   string `toml:"text"`
	Intent Intent `toml:"intent"`
}

type exampleFile struct {
	Examples []Example `toml:"example"`
}

// DefaultExamples returns the labelled examples bundled with tales.
func DefaultExamples() ([]Example, error) {
	return ParseExamples(string(defaultExamples))
}

// ParseExamples decodes [[example]] tables from TOML and validates labels.
func ParseExamples(data string) ([]Example, error) {
	var f exampleFile
	if _, err := toml.Decode(data, &f); err != nil {
		return nil, fmt.Errorf("parsing intent examples: %w", err)
	}
	for i, ex := range f.Examples {
		if !ex.Intent.Valid() {
			return nil, fmt.Errorf("intent example %d (%q) has unknown label %q", i, ex.Text, ex.Intent)
		}
		if strings.TrimSpace(ex.Text) == "" {
			return nil, fmt.Errorf("intent example %d has no text", i)
		}
	}
	return f.Examples, nil
}

// Classifier recognizes intents. The index is fixed once built.
type Classifier struct {
	embedder embeddings.Embedder
	driver   vector.Driver
	logger   *slog.Logger
}

// NewClassifier embeds every example into driver, which should be empty
// and dedicated to the classifier.
func NewClassifier(ctx context.Context, embedder embeddings.Embedder, driver vector.Driver, examples []Example, logger *slog.Logger) (*Classifier, error) {
	docs := make([]vector.Document, 0, len(examples))
	for i, ex := range examples {
		emb, err := embedder.Embed(ctx, ex.Text)
		if err != nil {
			return nil, fmt.Errorf("embedding intent example %q: %w", ex.Text, err)
		}
		docs = append(docs, vector.Document{
			ID:        fmt.Sprintf("intent_%d", i),
			Text:      ex.Text,
			Tags:      map[string]string{tagIntent: string(ex.Intent)},
			Embedding: emb,
		})
	}
	if err := driver.Add(ctx, docs); err != nil {
		return nil, fmt.Errorf("indexing intent examples: %w", err)
	}

	logger.Info("intent index loaded", "examples", len(docs))

	return &Classifier{
		embedder: embedder,
		driver:   driver,
		logger:   logger,
	}, nil
}

// Recognize returns the label of the nearest example. It never fails:
// an empty index, a backend error or an unexpected label all yield Unknown.
func (c *Classifier) Recognize(ctx context.Context, command string) Intent {
	emb, err := c.embedder.Embed(ctx, command)
	if err != nil {
		c.logger.Warn("intent embedding failed", "command", command, "error", err)
		return Unknown
	}

	results, err := c.driver.Query(ctx, emb, 1, nil)
	if err != nil {
		c.logger.Warn("intent lookup failed", "command", command, "error", err)
		return Unknown
	}
	if len(results) == 0 {
		return Unknown
	}

	label := Intent(results[0].Tags[tagIntent])
	if !label.Valid() {
		c.logger.Warn("intent example carries unknown label", "id", results[0].ID, "label", label)
		return Unknown
	}

	c.logger.Debug("intent recognized",
		"command", command,
		"intent", label,
		"example", results[0].Text,
		"score", results[0].Score,
	)
	return label
}
