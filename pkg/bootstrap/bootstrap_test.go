package bootstrap_test

import (
	"context"
	"os"
	"path/filepath"
	"strings"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/papercomputeco/tales/pkg/bootstrap"
	"github.com/papercomputeco/tales/pkg/config"
	"github.com/papercomputeco/tales/pkg/game"
	"github.com/papercomputeco/tales/pkg/llm"
	"github.com/papercomputeco/tales/pkg/logger"
	"github.com/papercomputeco/tales/pkg/storage"
	testutils "github.com/papercomputeco/tales/pkg/utils/test"
	"github.com/papercomputeco/tales/pkg/vector/inmemory"
)

const reply = `{"description": "A cold hall of broken pillars.", "narrative": "Dust settles around you.", "state_changes": {}}`

var _ = Describe("Open", func() {
	var (
		ctx context.Context
		dir string
		cfg *config.Config
	)

	BeforeEach(func() {
		ctx = context.Background()
		dir = GinkgoT().TempDir()
		cfg = config.NewDefaultConfig()
		cfg.Trace.Driver = bootstrap.TraceDriverMemory
	})

	open := func() *bootstrap.Runtime {
		rt, err := bootstrap.Open(ctx, bootstrap.Options{
			Config:       cfg,
			ConfigDir:    dir,
			Logger:       logger.Nop(),
			Embedder:     testutils.NewMockEmbedder(),
			MemoryDriver: inmemory.NewDriver(logger.Nop()),
			Narrator: llm.GeneratorFunc(func(context.Context, string) (string, error) {
				return reply, nil
			}),
			Seed: 7,
		})
		Expect(err).NotTo(HaveOccurred())
		DeferCleanup(rt.Close)
		return rt
	}

	It("requires a config and a logger", func() {
		_, err := bootstrap.Open(ctx, bootstrap.Options{Logger: logger.Nop()})
		Expect(err).To(HaveOccurred())

		_, err = bootstrap.Open(ctx, bootstrap.Options{Config: cfg})
		Expect(err).To(HaveOccurred())
	})

	It("wires a world that plays turns and records traces", func() {
		rt := open()

		eng := rt.Factory.NewGame(ctx, "Wren")
		snap := eng.Snapshot()
		Expect(snap.Player.Name).To(Equal("Wren"))
		Expect(snap.Location.Description).To(Equal("A cold hall of broken pillars."))

		res, err := eng.Process(ctx, "look around the hall")
		Expect(err).NotTo(HaveOccurred())
		Expect(res.Text).NotTo(BeEmpty())
		Expect(res.Phase).To(Equal(game.PhaseExploration))

		Expect(rt.Traces).NotTo(BeNil())
		records, err := rt.Traces.List(ctx, snap.ID, 0)
		Expect(err).NotTo(HaveOccurred())
		Expect(records).To(HaveLen(1))
		Expect(records[0].SessionID).To(Equal(snap.ID))
		Expect(records[0].Output).To(Equal(res.Text))
	})

	It("seeds the embedded lore once", func() {
		rt := open()

		first, err := rt.SeedLore(ctx)
		Expect(err).NotTo(HaveOccurred())
		Expect(first.Added).To(BeNumerically(">", 0))
		Expect(first.Skipped).To(Equal(0))

		second, err := rt.SeedLore(ctx)
		Expect(err).NotTo(HaveOccurred())
		Expect(second.Added).To(Equal(0))
		Expect(second.Skipped).To(Equal(first.Added))
	})

	It("appends traces to a JSON lines file when configured", func() {
		path := filepath.Join(dir, "turns.jsonl")
		cfg.Trace.Driver = bootstrap.TraceDriverNone
		cfg.Trace.File = path
		rt := open()
		Expect(rt.Traces).To(BeNil())

		eng := rt.Factory.NewGame(ctx, "Wren")
		_, err := eng.Process(ctx, "listen")
		Expect(err).NotTo(HaveOccurred())

		data, err := os.ReadFile(path)
		Expect(err).NotTo(HaveOccurred())
		Expect(strings.Count(string(data), "\n")).To(Equal(1))
	})

	It("fails on a missing tables file", func() {
		cfg.Game.TablesFile = filepath.Join(dir, "missing.yaml")
		_, err := bootstrap.Open(ctx, bootstrap.Options{
			Config:       cfg,
			ConfigDir:    dir,
			Logger:       logger.Nop(),
			Embedder:     testutils.NewMockEmbedder(),
			MemoryDriver: inmemory.NewDriver(logger.Nop()),
			Narrator:     llm.GeneratorFunc(func(context.Context, string) (string, error) { return reply, nil }),
		})
		Expect(err).To(HaveOccurred())
	})
})

var _ = Describe("NewTraceStore", func() {
	ctx := context.Background()

	It("returns no store for none", func() {
		d, err := bootstrap.NewTraceStore(ctx, config.TraceConfig{Driver: bootstrap.TraceDriverNone}, "")
		Expect(err).NotTo(HaveOccurred())
		Expect(d).To(BeNil())
	})

	It("defaults the sqlite database into the tales directory", func() {
		dir := GinkgoT().TempDir()
		d, err := bootstrap.NewTraceStore(ctx, config.TraceConfig{Driver: bootstrap.TraceDriverSQLite}, dir)
		Expect(err).NotTo(HaveOccurred())
		DeferCleanup(d.Close)

		_, err = os.Stat(filepath.Join(dir, "traces.db"))
		Expect(err).NotTo(HaveOccurred())
	})

	It("requires a target for postgres", func() {
		_, err := bootstrap.NewTraceStore(ctx, config.TraceConfig{Driver: bootstrap.TraceDriverPostgres}, "")
		Expect(err).To(MatchError(ContainSubstring("trace.target")))
	})

	It("rejects unknown drivers", func() {
		_, err := bootstrap.NewTraceStore(ctx, config.TraceConfig{Driver: "mongo"}, "")
		Expect(err).To(MatchError(storage.UnsupportedDriverError{Name: "mongo"}))
	})
})

var _ = Describe("SplitBrokers", func() {
	It("drops blanks and whitespace", func() {
		Expect(bootstrap.SplitBrokers(" a:9092, ,b:9092,")).To(Equal([]string{"a:9092", "b:9092"}))
		Expect(bootstrap.SplitBrokers("")).To(BeEmpty())
	})
})
