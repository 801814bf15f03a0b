package testutils

import (
	"context"
	"fmt"
	"hash/fnv"
	"strings"
)

// MockEmbedder is a test embedder that returns predictable embeddings.
// Texts listed in Embeddings get that vector; anything else gets a
// deterministic bag-of-words vector so similar wording lands close together.
type MockEmbedder struct {
	Embeddings map[string][]float32

	// FailOn causes Embed to return an error when the input text matches
	FailOn string

	// Calls counts Embed invocations.
	Calls int
}

// MockDimensions is the size of the vectors MockEmbedder produces.
const MockDimensions = 16

func NewMockEmbedder() *MockEmbedder {
	return &MockEmbedder{
		Embeddings: make(map[string][]float32),
	}
}

func (m *MockEmbedder) Embed(_ context.Context, text string) ([]float32, error) {
	m.Calls++
	if m.FailOn != "" && text == m.FailOn {
		return nil, fmt.Errorf("mock embedding failure for: %s", text)
	}

	if emb, ok := m.Embeddings[text]; ok {
		return emb, nil
	}

	return BagOfWords(text), nil
}

func (m *MockEmbedder) Close() error {
	return nil
}

// BagOfWords hashes each lowercased word into one of MockDimensions buckets.
func BagOfWords(text string) []float32 {
	v := make([]float32, MockDimensions)
	for _, w := range strings.Fields(strings.ToLower(text)) {
		w = strings.Trim(w, ".,!?;:\"'")
		if w == "" {
			continue
		}
		h := fnv.New32a()
		h.Write([]byte(w))
		v[h.Sum32()%MockDimensions]++
	}
	// keep the vector non-zero so cosine similarity stays defined
	v[0] += 0.01
	return v
}
