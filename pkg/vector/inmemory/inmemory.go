// Package inmemory provides a process-local vector.Driver that ranks by
// cosine similarity over every stored document.
//
// It backs the intent classifier index and the "memory" vector store
// provider, where the world lives only as long as the process.
package inmemory

import (
	"context"
	"fmt"
	"log/slog"
	"maps"
	"math"
	"slices"
	"sync"

	"github.com/papercomputeco/tales/pkg/vector"
)

// Driver implements vector.Driver over a slice guarded by a RWMutex.
type Driver struct {
	mu     sync.RWMutex
	docs   []vector.Document
	index  map[string]int
	logger *slog.Logger
}

// NewDriver creates an empty in-memory driver.
func NewDriver(logger *slog.Logger) *Driver {
	return &Driver{
		index:  make(map[string]int),
		logger: logger,
	}
}

// Add stores docs in insertion order. The whole batch is rejected if any ID
// is already present or repeated within the batch.
func (d *Driver) Add(_ context.Context, docs []vector.Document) error {
	if len(docs) == 0 {
		return nil
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	seen := make(map[string]struct{}, len(docs))
	for _, doc := range docs {
		if _, ok := d.index[doc.ID]; ok {
			return fmt.Errorf("%w: %s", vector.ErrDuplicateID, doc.ID)
		}
		if _, ok := seen[doc.ID]; ok {
			return fmt.Errorf("%w: %s", vector.ErrDuplicateID, doc.ID)
		}
		seen[doc.ID] = struct{}{}
	}

	for _, doc := range docs {
		d.index[doc.ID] = len(d.docs)
		d.docs = append(d.docs, clone(doc))
	}

	d.logger.Debug("added documents to memory index", "count", len(docs))
	return nil
}

// Query scores every document matching filter and returns the topK best.
// Equal scores keep insertion order.
func (d *Driver) Query(_ context.Context, embedding []float32, topK int, filter vector.Filter) ([]vector.QueryResult, error) {
	if topK <= 0 {
		return []vector.QueryResult{}, nil
	}

	d.mu.RLock()
	defer d.mu.RUnlock()

	results := make([]vector.QueryResult, 0, len(d.docs))
	for _, doc := range d.docs {
		if !filter.Matches(doc.Tags) {
			continue
		}
		if len(doc.Embedding) != len(embedding) {
			return nil, fmt.Errorf("%w: document %s has %d, query has %d",
				vector.ErrDimensions, doc.ID, len(doc.Embedding), len(embedding))
		}
		results = append(results, vector.QueryResult{
			Document: clone(doc),
			Score:    cosine(embedding, doc.Embedding),
		})
	}

	slices.SortStableFunc(results, func(a, b vector.QueryResult) int {
		switch {
		case a.Score > b.Score:
			return -1
		case a.Score < b.Score:
			return 1
		default:
			return 0
		}
	})

	if len(results) > topK {
		results = results[:topK]
	}
	return results, nil
}

// Get retrieves documents by their IDs.
func (d *Driver) Get(_ context.Context, ids []string) ([]vector.Document, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	docs := make([]vector.Document, 0, len(ids))
	for _, id := range ids {
		if i, ok := d.index[id]; ok {
			docs = append(docs, clone(d.docs[i]))
		}
	}
	return docs, nil
}

// Len reports how many documents are stored.
func (d *Driver) Len() int {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return len(d.docs)
}

// Close is a no-op.
func (d *Driver) Close() error {
	return nil
}

func clone(doc vector.Document) vector.Document {
	doc.Tags = maps.Clone(doc.Tags)
	doc.Embedding = slices.Clone(doc.Embedding)
	return doc
}

func cosine(a, b []float32) float32 {
	var dot, na, nb float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		na += float64(a[i]) * float64(a[i])
		nb += float64(b[i]) * float64(b[i])
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return float32(dot / (math.Sqrt(na) * math.Sqrt(nb)))
}
