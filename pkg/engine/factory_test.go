package engine_test

import (
	"context"
	"math/rand/v2"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/papercomputeco/tales/pkg/engine"
	"github.com/papercomputeco/tales/pkg/game"
	"github.com/papercomputeco/tales/pkg/logger"
	"github.com/papercomputeco/tales/pkg/world"
)

type fakeWorld struct {
	entered int
}

func (w *fakeWorld) Enter(_ context.Context, t world.Tables, r *rand.Rand) game.Location {
	w.entered++
	loc := t.Generate(r)
	loc.Description = "Damp walls."
	return loc
}

var _ = Describe("Factory", func() {
	var (
		w       *fakeWorld
		factory *engine.Factory
	)

	BeforeEach(func() {
		tables, err := world.DefaultTables()
		Expect(err).NotTo(HaveOccurred())

		w = &fakeWorld{}
		factory = engine.NewFactory(engine.FactoryConfig{
			World:  w,
			Tables: tables,
			Seed:   42,
			Logger: logger.Nop(),
		})
	})

	It("starts a new exploring player in a described location", func() {
		eng := factory.NewGame(context.Background(), "  Wren ")
		snap := eng.Snapshot()

		Expect(w.entered).To(Equal(1))
		Expect(snap.ID).NotTo(BeEmpty())
		Expect(snap.Player.Name).To(Equal("Wren"))
		Expect(snap.Player.HP).To(Equal(20))
		Expect(snap.Phase).To(Equal(game.PhaseExploration))
		Expect(snap.Log).To(BeEmpty())
		Expect(snap.Location.Description).To(Equal("Damp walls."))
		Expect(snap.Location.Tags).To(HaveLen(3))
	})

	It("names anonymous players", func() {
		Expect(factory.NewGame(context.Background(), "").Snapshot().Player.Name).To(Equal(engine.DefaultPlayerName))
	})

	It("gives every session its own id", func() {
		a := factory.NewGame(context.Background(), "a").Snapshot()
		b := factory.NewGame(context.Background(), "b").Snapshot()
		Expect(a.ID).NotTo(Equal(b.ID))
	})

	It("resumes a saved session", func() {
		snap := factory.NewGame(context.Background(), "Wren").Snapshot()
		snap.Player.HP = 4

		eng, err := factory.Resume(snap)
		Expect(err).NotTo(HaveOccurred())
		Expect(eng.Snapshot().Player.HP).To(Equal(4))
		Expect(eng.Snapshot().ID).To(Equal(snap.ID))
	})

	It("refuses a snapshot without a player", func() {
		_, err := factory.Resume(game.Snapshot{ID: "x", Phase: game.PhaseExploration})
		Expect(err).To(HaveOccurred())
	})
})
