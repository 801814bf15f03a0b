package kafka

import (
	"context"
	"log/slog"

	kafkago "github.com/segmentio/kafka-go"
)

type WriterFunc func(ctx context.Context, msgs ...kafkago.Message) error

func (f WriterFunc) WriteMessages(ctx context.Context, msgs ...kafkago.Message) error {
	return f(ctx, msgs...)
}

func (f WriterFunc) Close() error { return nil }

func NewPublisherWithWriter(w WriterFunc, logger *slog.Logger) *Publisher {
	return newPublisher(w, logger)
}
