// Package bootstrap turns a resolved tales configuration into a running world:
// memory, intent classifier, prompts, narrator, trace sinks and the session
// factory that the CLI and API server share.
package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	"github.com/papercomputeco/tales/pkg/config"
	"github.com/papercomputeco/tales/pkg/director"
	"github.com/papercomputeco/tales/pkg/dotdir"
	"github.com/papercomputeco/tales/pkg/embeddings"
	embeddingutils "github.com/papercomputeco/tales/pkg/embeddings/utils"
	"github.com/papercomputeco/tales/pkg/engine"
	"github.com/papercomputeco/tales/pkg/eventstream"
	"github.com/papercomputeco/tales/pkg/eventstream/kafka"
	"github.com/papercomputeco/tales/pkg/intent"
	"github.com/papercomputeco/tales/pkg/llm"
	"github.com/papercomputeco/tales/pkg/llm/provider"
	"github.com/papercomputeco/tales/pkg/memory"
	"github.com/papercomputeco/tales/pkg/prompt"
	"github.com/papercomputeco/tales/pkg/recall"
	"github.com/papercomputeco/tales/pkg/resolve"
	"github.com/papercomputeco/tales/pkg/storage"
	storageinmemory "github.com/papercomputeco/tales/pkg/storage/inmemory"
	"github.com/papercomputeco/tales/pkg/storage/postgres"
	"github.com/papercomputeco/tales/pkg/storage/sqlite"
	"github.com/papercomputeco/tales/pkg/trace"
	"github.com/papercomputeco/tales/pkg/vector"
	vectorinmemory "github.com/papercomputeco/tales/pkg/vector/inmemory"
	vectorutils "github.com/papercomputeco/tales/pkg/vector/utils"
	"github.com/papercomputeco/tales/pkg/world"
)

const (
	// Trace store driver names.
	TraceDriverNone     = "none"
	TraceDriverMemory   = "memory"
	TraceDriverSQLite   = "sqlite"
	TraceDriverPostgres = "postgres"

	memoryDBName = "memory.db"
	traceDBName  = "traces.db"

	narratorBackoff   = 500 * time.Millisecond
	kafkaWriteTimeout = 10 * time.Second
)

// Options configures Open.
type Options struct {
	Config *config.Config

	// ConfigDir overrides the .tales directory used for default database
	// paths.
	ConfigDir string

	Logger *slog.Logger

	// Embedder and Narrator replace the configured providers when set.
	Embedder embeddings.Embedder
	Narrator llm.Generator

	// MemoryDriver replaces the configured world memory index when set.
	MemoryDriver vector.Driver

	// Seed fixes location generation; zero seeds from the clock.
	Seed uint64
}

// Runtime is a fully wired world. Close releases every resource it opened.
type Runtime struct {
	Memory   *memory.Store
	Prompts  *prompt.Library
	Narrator llm.Generator
	Tables   world.Tables
	Recorder *trace.Recorder
	Factory  *engine.Factory

	// Traces is the queryable trace store, nil when the driver is "none".
	Traces storage.Driver

	cfg    *config.Config
	logger *slog.Logger

	classifierDriver vector.Driver
}

// Open builds a Runtime from opts.
func Open(ctx context.Context, opts Options) (*Runtime, error) {
	if opts.Config == nil {
		return nil, errors.New("bootstrap: config is required")
	}
	if opts.Logger == nil {
		return nil, errors.New("bootstrap: logger is required")
	}
	cfg := opts.Config
	logger := opts.Logger

	dir, err := dotdir.NewManager().Target(opts.ConfigDir)
	if err != nil {
		return nil, err
	}

	rt := &Runtime{cfg: cfg, logger: logger}
	ok := false
	defer func() {
		if !ok {
			_ = rt.Close()
		}
	}()

	embedder := opts.Embedder
	if embedder == nil {
		embedder, err = NewEmbedder(ctx, cfg.Embedding)
		if err != nil {
			return nil, err
		}
	}

	memDriver := opts.MemoryDriver
	if memDriver == nil {
		memDriver, err = NewMemoryDriver(ctx, cfg, dir, logger)
		if err != nil {
			_ = embedder.Close()
			return nil, err
		}
	}
	rt.Memory = memory.NewStore(embedder, memDriver, logger)

	examples, err := intent.DefaultExamples()
	if err != nil {
		return nil, err
	}
	// The intent index is process-local and rebuilt on every start.
	rt.classifierDriver = vectorinmemory.NewDriver(logger)
	classifier, err := intent.NewClassifier(ctx, embedder, rt.classifierDriver, examples, logger)
	if err != nil {
		return nil, fmt.Errorf("building intent classifier: %w", err)
	}

	rt.Prompts, err = prompt.NewLibrary(logger)
	if err != nil {
		return nil, err
	}
	if cfg.Game.PromptDir != "" {
		if err := rt.Prompts.LoadDir(cfg.Game.PromptDir); err != nil {
			return nil, fmt.Errorf("loading prompts from %s: %w", cfg.Game.PromptDir, err)
		}
	}

	rt.Narrator = opts.Narrator
	if rt.Narrator == nil {
		rt.Narrator, err = NewNarrator(ctx, cfg.Narrator, logger)
		if err != nil {
			return nil, err
		}
	}

	rt.Tables, err = loadTables(cfg.Game.TablesFile)
	if err != nil {
		return nil, err
	}

	var sinks []trace.Sink
	rt.Traces, err = NewTraceStore(ctx, cfg.Trace, dir)
	if err != nil {
		return nil, err
	}
	if rt.Traces != nil {
		sinks = append(sinks, rt.Traces)
	}
	extra, err := newStreamSinks(cfg, logger)
	if err != nil {
		return nil, err
	}
	sinks = append(sinks, extra...)
	rt.Recorder = trace.NewRecorder(logger, sinks...)

	d := director.New(director.Config{
		Classifier: classifier,
		Assembler:  recall.NewAssembler(rt.Memory, logger),
		Prompts:    rt.Prompts,
		Narrator:   rt.Narrator,
		Logger:     logger,
	})

	rt.Factory = engine.NewFactory(engine.FactoryConfig{
		Director: d,
		Resolver: resolve.NewResolver(rt.Memory, logger),
		Recorder: rt.Recorder,
		World:    world.NewDescriber(rt.Memory, rt.Prompts, rt.Narrator, logger),
		Tables:   rt.Tables,
		Seed:     opts.Seed,
		Logger:   logger,
	})

	logger.Debug("runtime ready",
		"dir", dir,
		"narrator", cfg.Narrator.Provider,
		"vector_store", cfg.VectorStore.Provider,
		"trace_driver", cfg.Trace.Driver,
		"sinks", len(sinks),
	)

	ok = true
	return rt, nil
}

// SeedLore loads the configured lore, or the embedded lore when no file is
// set, into world memory. Records already present are skipped.
func (rt *Runtime) SeedLore(ctx context.Context) (memory.SeedResult, error) {
	records, err := LoadLore(rt.cfg.Game.LoreFile)
	if err != nil {
		return memory.SeedResult{}, err
	}
	return rt.Memory.Seed(ctx, records)
}

// WatchPrompts reloads prompt overrides as they change until ctx is done. It
// returns immediately when no prompt directory is configured.
func (rt *Runtime) WatchPrompts(ctx context.Context) error {
	if rt.cfg.Game.PromptDir == "" {
		return nil
	}
	return rt.Prompts.Watch(ctx, rt.cfg.Game.PromptDir)
}

// Close releases the trace sinks and world memory.
func (rt *Runtime) Close() error {
	var errs []error
	if rt.Recorder != nil {
		errs = append(errs, rt.Recorder.Close())
	} else if rt.Traces != nil {
		errs = append(errs, rt.Traces.Close())
	}
	if rt.classifierDriver != nil {
		errs = append(errs, rt.classifierDriver.Close())
	}
	if rt.Memory != nil {
		errs = append(errs, rt.Memory.Close())
	}
	return errors.Join(errs...)
}

// LoadLore reads lore records from path, or the embedded lore when path is
// empty.
func LoadLore(path string) ([]memory.Record, error) {
	if path == "" {
		return memory.DefaultLore()
	}
	return memory.LoadLore(path)
}

func loadTables(path string) (world.Tables, error) {
	if path == "" {
		return world.DefaultTables()
	}
	return world.LoadTables(path)
}

// NewEmbedder creates the configured embedding provider.
func NewEmbedder(ctx context.Context, cfg config.EmbeddingConfig) (embeddings.Embedder, error) {
	e, err := embeddingutils.NewEmbedder(ctx, &embeddingutils.NewEmbedderOpts{
		ProviderType: cfg.Provider,
		TargetURL:    cfg.Target,
		Model:        cfg.Model,
		APIKey:       provider.APIKeyFromEnv(cfg.Provider),
		Dimensions:   cfg.Dimensions,
	})
	if err != nil {
		return nil, fmt.Errorf("creating embedder: %w", err)
	}
	return e, nil
}

// NewMemoryDriver creates the world memory index. An empty sqlite target
// resolves to memory.db inside dir.
func NewMemoryDriver(ctx context.Context, cfg *config.Config, dir string, logger *slog.Logger) (vector.Driver, error) {
	target := cfg.VectorStore.Target
	if target == "" && cfg.VectorStore.Provider == vectorutils.ProviderSQLite {
		target = filepath.Join(dir, memoryDBName)
	}

	d, err := vectorutils.NewVectorDriver(ctx, &vectorutils.NewVectorDriverOpts{
		ProviderType: cfg.VectorStore.Provider,
		Target:       target,
		Collection:   cfg.VectorStore.Collection,
		Dimensions:   cfg.Embedding.Dimensions,
		Logger:       logger,
	})
	if err != nil {
		return nil, fmt.Errorf("creating vector driver: %w", err)
	}
	return d, nil
}

// NewNarrator creates the configured narrator wrapped with timeout and retry.
func NewNarrator(ctx context.Context, cfg config.NarratorConfig, logger *slog.Logger) (llm.Generator, error) {
	timeout, err := cfg.TimeoutDuration()
	if err != nil {
		return nil, err
	}

	pc := provider.Config{
		Provider: cfg.Provider,
		Model:    cfg.Model,
		BaseURL:  cfg.BaseURL,
	}
	if cfg.Temperature > 0 {
		t := float32(cfg.Temperature)
		pc.Temperature = &t
	}

	g, err := provider.New(ctx, pc, logger)
	if err != nil {
		return nil, fmt.Errorf("creating narrator: %w", err)
	}

	return llm.WithRetry(g, llm.RetryConfig{
		Timeout: timeout,
		Retries: int(cfg.Retries), //nolint:gosec // small config value
		Backoff: narratorBackoff,
	}, logger), nil
}

// NewTraceStore creates the queryable trace store named by cfg.Driver. It
// returns nil for "none". An empty sqlite target resolves to traces.db inside
// dir.
func NewTraceStore(ctx context.Context, cfg config.TraceConfig, dir string) (storage.Driver, error) {
	switch cfg.Driver {
	case "", TraceDriverNone:
		return nil, nil
	case TraceDriverMemory:
		return storageinmemory.NewDriver(), nil
	case TraceDriverSQLite:
		path := cfg.Target
		if path == "" {
			path = filepath.Join(dir, traceDBName)
		}
		d, err := sqlite.NewDriver(path)
		if err != nil {
			return nil, fmt.Errorf("opening trace database: %w", err)
		}
		return d, nil
	case TraceDriverPostgres:
		if cfg.Target == "" {
			return nil, errors.New("trace.target is required for the postgres trace driver")
		}
		d, err := postgres.NewDriver(ctx, cfg.Target)
		if err != nil {
			return nil, fmt.Errorf("connecting to trace database: %w", err)
		}
		return d, nil
	default:
		return nil, storage.UnsupportedDriverError{Name: cfg.Driver}
	}
}

// newStreamSinks returns the append-only trace sinks: a JSON lines file and a
// Kafka topic, each enabled by its own setting.
func newStreamSinks(cfg *config.Config, logger *slog.Logger) ([]trace.Sink, error) {
	var sinks []trace.Sink
	closeAll := func() {
		for _, s := range sinks {
			_ = s.Close()
		}
	}

	if cfg.Trace.File != "" {
		fs, err := trace.NewFileSink(cfg.Trace.File)
		if err != nil {
			return nil, fmt.Errorf("opening trace file: %w", err)
		}
		sinks = append(sinks, fs)
	}

	if brokers := SplitBrokers(cfg.Trace.KafkaBrokers); len(brokers) > 0 {
		pub, err := kafka.NewPublisher(kafka.Config{
			Brokers:      brokers,
			Topic:        cfg.Trace.KafkaTopic,
			WriteTimeout: kafkaWriteTimeout,
		}, logger)
		if err != nil {
			closeAll()
			return nil, fmt.Errorf("creating kafka publisher: %w", err)
		}
		async, err := trace.NewAsyncSink(&trace.AsyncConfig{
			Sink: eventstream.NewSink(pub, eventstream.EventSource{
				World:    cfg.VectorStore.Collection,
				Provider: cfg.Narrator.Provider,
			}),
			Name:   "kafka",
			Logger: logger,
		})
		if err != nil {
			_ = pub.Close()
			closeAll()
			return nil, err
		}
		sinks = append(sinks, async)
	}

	return sinks, nil
}

// SplitBrokers parses a comma separated broker list, dropping blanks.
func SplitBrokers(s string) []string {
	var out []string
	for _, b := range strings.Split(s, ",") {
		if b = strings.TrimSpace(b); b != "" {
			out = append(out, b)
		}
	}
	return out
}

var _ io.Closer = (*Runtime)(nil)
