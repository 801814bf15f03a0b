// Package storage persists turn trace records in a database so they can be
// listed per session after the fact.
package storage

import (
	"context"

	"github.com/papercomputeco/tales/pkg/trace"
)

// Driver is a trace.Sink that can also read records back.
type Driver interface {
	trace.Sink

	// List returns the most recent records for a session, oldest first.
	// A limit of zero or less returns every record.
	List(ctx context.Context, sessionID string, limit int) ([]*trace.Record, error)
}
