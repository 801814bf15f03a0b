// Package inmemory keeps trace records in process memory.
package inmemory

import (
	"context"
	"sync"

	"github.com/papercomputeco/tales/pkg/storage"
	"github.com/papercomputeco/tales/pkg/trace"
)

// Driver implements storage.Driver over a per-session slice.
type Driver struct {
	mu sync.RWMutex

	// records maps a session ID to its records in append order
	records map[string][]*trace.Record
}

// NewDriver creates an empty in-memory driver.
func NewDriver() *Driver {
	return &Driver{
		records: make(map[string][]*trace.Record),
	}
}

func (d *Driver) Append(_ context.Context, rec *trace.Record) error {
	if rec == nil {
		return trace.ErrNilRecord
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	c := *rec
	d.records[rec.SessionID] = append(d.records[rec.SessionID], &c)
	return nil
}

func (d *Driver) List(_ context.Context, sessionID string, limit int) ([]*trace.Record, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	all := d.records[sessionID]
	if limit > 0 && len(all) > limit {
		all = all[len(all)-limit:]
	}

	out := make([]*trace.Record, len(all))
	for i, rec := range all {
		c := *rec
		out[i] = &c
	}
	return out, nil
}

func (d *Driver) Close() error {
	return nil
}

var _ storage.Driver = (*Driver)(nil)
