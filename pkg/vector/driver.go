// Package vector defines the similarity index that backs the world memory.
//
// A Driver stores documents (text, tags and an embedding) and answers
// nearest-neighbour queries, optionally narrowed by tag equality. Drivers are
// append-only from the caller's point of view: there is no update or delete.
package vector

import (
	"context"
	"maps"
	"slices"
)

// Document is a stored record with its embedding and tag metadata.
type Document struct {
	// ID is the caller supplied unique identifier.
	ID string

	// Text is the raw record text handed back on query.
	Text string

	// Tags are flat string key/value metadata, e.g. kind=event, location=...
	Tags map[string]string

	// Embedding is the vector representation of Text.
	Embedding []float32
}

// QueryResult is a document paired with its similarity score.
type QueryResult struct {
	Document

	// Score represents the similarity (higher = more similar).
	Score float32
}

// Filter is a conjunction of tag equalities. An empty filter matches all.
type Filter map[string]string

// Matches reports whether tags satisfy every equality in f.
func (f Filter) Matches(tags map[string]string) bool {
	for k, v := range f {
		if got, ok := tags[k]; !ok || got != v {
			return false
		}
	}
	return true
}

// Keys returns the filter keys in a stable order so drivers build
// deterministic queries.
func (f Filter) Keys() []string {
	return slices.Sorted(maps.Keys(f))
}

// Driver handles storage and retrieval of embedded documents.
type Driver interface {
	// Add stores documents. Adding an ID that already exists fails with
	// ErrDuplicateID and leaves the stored document untouched.
	Add(ctx context.Context, docs []Document) error

	// Query returns up to topK documents most similar to embedding, best
	// first, considering only documents whose tags match filter.
	Query(ctx context.Context, embedding []float32, topK int, filter Filter) ([]QueryResult, error)

	// Get retrieves documents by their IDs. Missing IDs are skipped.
	Get(ctx context.Context, ids []string) ([]Document, error)

	// Close releases any resources held by the driver.
	Close() error
}
