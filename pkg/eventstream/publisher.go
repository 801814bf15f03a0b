package eventstream

import (
	"context"

	"github.com/papercomputeco/tales/pkg/trace"
)

// Publisher publishes turn events to an event stream backend.
type Publisher interface {
	PublishTurn(ctx context.Context, event *TurnEvent) error
	Close() error
}

// Sink adapts a Publisher to a trace.Sink.
type Sink struct {
	publisher Publisher
	source    EventSource
}

// NewSink publishes every trace record as a TurnEvent from source.
func NewSink(p Publisher, source EventSource) *Sink {
	return &Sink{publisher: p, source: source}
}

func (s *Sink) Append(ctx context.Context, rec *trace.Record) error {
	if rec == nil {
		return trace.ErrNilRecord
	}
	return s.publisher.PublishTurn(ctx, NewTurnEvent(s.source, rec))
}

func (s *Sink) Close() error {
	return s.publisher.Close()
}
