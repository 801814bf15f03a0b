package trace

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"sync"

	"github.com/papercomputeco/tales/pkg/metrics"
)

var (
	defaultNumWorkers uint = 2
	defaultQueueSize  uint = 256
)

// AsyncConfig configures an AsyncSink.
type AsyncConfig struct {
	// Sink receives every record taken off the queue.
	Sink Sink

	// Name labels log lines and the dropped-records metric.
	Name string

	// NumWorkers is the number of goroutines draining the queue (defaults to 2).
	NumWorkers uint

	// QueueSize is the capacity of the buffered queue (defaults to 256).
	QueueSize uint

	Logger *slog.Logger
}

// AsyncSink moves writes to a slow sink, such as a remote broker, off the
// turn path. Append never blocks: when the queue is full the record is
// dropped and counted.
type AsyncSink struct {
	config *AsyncConfig
	queue  chan *Record
	wg     sync.WaitGroup
	logger *slog.Logger

	mu     sync.RWMutex
	closed bool
}

// NewAsyncSink starts the workers of an AsyncSink.
func NewAsyncSink(c *AsyncConfig) (*AsyncSink, error) {
	if c.Sink == nil {
		return nil, errors.New("async sink requires a sink")
	}
	if c.Logger == nil {
		return nil, errors.New("async sink requires a logger")
	}
	if c.NumWorkers == 0 {
		c.NumWorkers = defaultNumWorkers
	}
	if c.QueueSize == 0 {
		c.QueueSize = defaultQueueSize
	}
	if c.NumWorkers > uint(math.MaxInt) {
		return nil, fmt.Errorf("NumWorkers %d exceeds max int", c.NumWorkers)
	}
	if c.Name == "" {
		c.Name = fmt.Sprintf("%T", c.Sink)
	}

	s := &AsyncSink{
		config: c,
		queue:  make(chan *Record, c.QueueSize),
		logger: c.Logger.With("sink", c.Name),
	}

	s.wg.Add(int(c.NumWorkers)) //nolint:gosec // bounded above
	for i := range c.NumWorkers {
		go s.worker(i)
	}

	return s, nil
}

// Append queues rec. It returns ErrQueueFull when the record was dropped.
func (s *AsyncSink) Append(_ context.Context, rec *Record) error {
	if rec == nil {
		return ErrNilRecord
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return ErrSinkClosed
	}

	select {
	case s.queue <- rec:
		return nil
	default:
		metrics.TraceRecordsDropped.WithLabelValues(s.config.Name).Inc()
		return ErrQueueFull
	}
}

// Close stops accepting records, drains the queue and closes the wrapped sink.
func (s *AsyncSink) Close() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	close(s.queue)
	s.mu.Unlock()

	s.wg.Wait()
	return s.config.Sink.Close()
}

func (s *AsyncSink) worker(id uint) {
	defer s.wg.Done()
	s.logger.Debug("trace worker started", "worker_id", id)

	for rec := range s.queue {
		// The turn that produced rec may be long gone, so its context is not
		// carried over.
		if err := s.config.Sink.Append(context.Background(), rec); err != nil {
			s.logger.Warn("async trace write failed", "id", rec.ID, "error", err)
		}
	}

	s.logger.Debug("trace worker stopped", "worker_id", id)
}
