package testutils

import (
	"context"
	"fmt"

	"github.com/papercomputeco/tales/pkg/logger"
	"github.com/papercomputeco/tales/pkg/vector"
	"github.com/papercomputeco/tales/pkg/vector/inmemory"
)

// MockVectorDriver wraps the in-memory driver and can simulate a backend
// that is down.
type MockVectorDriver struct {
	*inmemory.Driver

	// FailQuery makes Query return vector.ErrConnection.
	FailQuery bool

	// FailAdd makes Add return vector.ErrConnection.
	FailAdd bool

	// Queries records the filters Query was called with.
	Queries []vector.Filter
}

func NewMockVectorDriver() *MockVectorDriver {
	return &MockVectorDriver{Driver: inmemory.NewDriver(logger.Nop())}
}

func (m *MockVectorDriver) Add(ctx context.Context, docs []vector.Document) error {
	if m.FailAdd {
		return fmt.Errorf("%w: mock add failure", vector.ErrConnection)
	}
	return m.Driver.Add(ctx, docs)
}

func (m *MockVectorDriver) Query(ctx context.Context, embedding []float32, topK int, filter vector.Filter) ([]vector.QueryResult, error) {
	m.Queries = append(m.Queries, filter)
	if m.FailQuery {
		return nil, fmt.Errorf("%w: mock query failure", vector.ErrConnection)
	}
	return m.Driver.Query(ctx, embedding, topK, filter)
}
