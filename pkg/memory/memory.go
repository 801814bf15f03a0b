// Package memory is the long-term world memory: short text records tagged
// with flat metadata and recalled by similarity.
//
// A Store owns the filter-then-rank protocol. Embedding and nearest-neighbour
// search are delegated to an embeddings.Embedder and a vector.Driver, so the
// same store runs over SQLite, Chroma, Qdrant or a process-local index.
// One Store serves every session of a world; it is safe for concurrent use
// as long as its driver is.
//
// Records are append-only:
//
//	store.Add(ctx, "the gate is sealed", "lore_001", memory.Tags{memory.TagKind: memory.KindLore})
//	store.Query(ctx, "who sealed the gate", 1, memory.Tags{memory.TagKind: memory.KindLore})
package memory

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"maps"

	"github.com/papercomputeco/tales/pkg/embeddings"
	"github.com/papercomputeco/tales/pkg/utils"
	"github.com/papercomputeco/tales/pkg/vector"
)

// Tag keys and values used across the engine.
const (
	TagKind     = "kind"
	TagLocation = "location"

	KindEvent = "event"
	KindLore  = "lore"
)

// ErrDuplicateID is returned by Add when the record ID is already stored.
var ErrDuplicateID = vector.ErrDuplicateID

// Tags are flat string key/value metadata attached to a record.
type Tags map[string]string

// FilterFor builds a query filter for a kind and location. Empty values are
// left out.
func FilterFor(kind, location string) Tags {
	filter := Tags{}
	if kind != "" {
		filter[TagKind] = kind
	}
	if location != "" {
		filter[TagLocation] = location
	}
	return filter
}

// Record is one stored memory.
type Record struct {
	ID   string `json:"id" yaml:"id"`
	Text string `json:"text" yaml:"text"`
	Tags Tags   `json:"tags" yaml:"tags"`
}

// Store persists records and answers similarity queries.
type Store struct {
	embedder embeddings.Embedder
	driver   vector.Driver
	logger   *slog.Logger
}

// NewStore creates a Store over the given embedder and driver.
func NewStore(embedder embeddings.Embedder, driver vector.Driver, logger *slog.Logger) *Store {
	return &Store{
		embedder: embedder,
		driver:   driver,
		logger:   logger,
	}
}

// Add inserts one record. It fails with ErrDuplicateID if id is present.
func (s *Store) Add(ctx context.Context, text, id string, tags Tags) error {
	if id == "" {
		return errors.New("memory record id is required")
	}

	existing, err := s.driver.Get(ctx, []string{id})
	if err != nil {
		return fmt.Errorf("checking record %s: %w", id, err)
	}
	if len(existing) > 0 {
		return fmt.Errorf("%w: %s", ErrDuplicateID, id)
	}

	embedding, err := s.embedder.Embed(ctx, text)
	if err != nil {
		return fmt.Errorf("embedding record %s: %w", id, err)
	}

	if err := s.driver.Add(ctx, []vector.Document{{
		ID:        id,
		Text:      text,
		Tags:      maps.Clone(tags),
		Embedding: embedding,
	}}); err != nil {
		return fmt.Errorf("storing record %s: %w", id, err)
	}

	s.logger.Debug("memory recorded", "id", id, "tags", tags)
	return nil
}

// Query returns the texts of up to limit records most similar to text, best
// first. A non-empty filter restricts candidates to records carrying every
// given tag value. No match and a zero limit both yield an empty slice.
func (s *Store) Query(ctx context.Context, text string, limit int, filter Tags) ([]string, error) {
	if limit <= 0 {
		return []string{}, nil
	}

	embedding, err := s.embedder.Embed(ctx, text)
	if err != nil {
		return nil, fmt.Errorf("embedding query: %w", err)
	}

	results, err := s.driver.Query(ctx, embedding, limit, vector.Filter(filter))
	if err != nil {
		return nil, fmt.Errorf("querying memory: %w", err)
	}

	texts := make([]string, 0, len(results))
	for _, r := range results {
		texts = append(texts, r.Text)
	}

	s.logger.Debug("memory queried",
		"query", utils.Truncate(text, 60),
		"filter", filter,
		"limit", limit,
		"results", len(texts),
	)
	return texts, nil
}

// Close closes the underlying embedder and driver.
func (s *Store) Close() error {
	return errors.Join(s.embedder.Close(), s.driver.Close())
}
