package llm

import (
	"context"
	"strings"
	"time"

	"github.com/papercomputeco/tales/pkg/metrics"
)

type instrumented struct {
	next     Generator
	provider string
}

// Instrument records request counts and latency for g under provider.
func Instrument(provider string, g Generator) Generator {
	return &instrumented{next: g, provider: provider}
}

func (i *instrumented) Generate(ctx context.Context, prompt string) (string, error) {
	start := time.Now()
	out, err := i.next.Generate(ctx, prompt)
	metrics.ModelRequestDuration.WithLabelValues(i.provider).Observe(time.Since(start).Seconds())

	switch {
	case err != nil:
		metrics.ModelRequests.WithLabelValues(i.provider, metrics.StatusError).Inc()
	case strings.TrimSpace(out) == "":
		metrics.ModelRequests.WithLabelValues(i.provider, metrics.StatusEmpty).Inc()
	default:
		metrics.ModelRequests.WithLabelValues(i.provider, metrics.StatusSuccess).Inc()
	}
	return out, err
}
