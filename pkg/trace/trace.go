// Package trace is the diagnostic record of every narrator call: the prompt
// sent, the raw reply and how the turn resolved. Traces are write-only from
// the engine's point of view.
package trace

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"
)

var (
	// ErrNilRecord is returned by sinks given a nil record.
	ErrNilRecord = errors.New("nil trace record")

	// ErrQueueFull is returned by AsyncSink when a record was dropped.
	ErrQueueFull = errors.New("trace queue full, record dropped")

	// ErrSinkClosed is returned by AsyncSink after Close.
	ErrSinkClosed = errors.New("trace sink closed")
)

// Record is one narrator call.
type Record struct {
	ID        string    `json:"id"`
	Time      time.Time `json:"time"`
	SessionID string    `json:"session_id"`
	Template  string    `json:"template"`
	Phase     string    `json:"phase"`
	Intent    string    `json:"intent,omitempty"`
	Prompt    string    `json:"prompt"`
	Response  string    `json:"response"`
	Output    string    `json:"output,omitempty"`
	Error     string    `json:"error,omitempty"`
}

// Sink stores records.
type Sink interface {
	Append(ctx context.Context, rec *Record) error
	Close() error
}

// Recorder fans records out to every sink. A failing sink is logged and
// never fails the turn.
type Recorder struct {
	sinks  []Sink
	logger *slog.Logger
}

// NewRecorder creates a Recorder. With no sinks it only discards.
func NewRecorder(logger *slog.Logger, sinks ...Sink) *Recorder {
	return &Recorder{sinks: sinks, logger: logger}
}

// Record appends rec to every sink.
func (r *Recorder) Record(ctx context.Context, rec *Record) {
	if rec.Time.IsZero() {
		rec.Time = time.Now().UTC()
	}
	for _, s := range r.sinks {
		if err := s.Append(ctx, rec); err != nil {
			r.logger.Warn("could not write trace record",
				"id", rec.ID,
				"sink", fmt.Sprintf("%T", s),
				"error", err,
			)
		}
	}
}

// Close closes every sink.
func (r *Recorder) Close() error {
	errs := make([]error, 0, len(r.sinks))
	for _, s := range r.sinks {
		errs = append(errs, s.Close())
	}
	return errors.Join(errs...)
}
