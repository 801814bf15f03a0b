package game_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/papercomputeco/tales/pkg/game"
)

var _ = Describe("Session", func() {
	var s *game.Session

	BeforeEach(func() {
		s = game.NewSession("s1", game.NewPlayer("Hero"), game.Location{Name: "Cave", Tags: []string{"cave", "slimes"}})
	})

	It("starts in exploration with an empty log", func() {
		Expect(s.Phase()).To(Equal(game.PhaseExploration))
		Expect(s.Log()).To(BeEmpty())
	})

	Describe("Transition", func() {
		It("seeds the log with exactly one entry when combat starts", func() {
			Expect(s.Transition(game.PhaseCombat)).To(BeTrue())
			Expect(s.Phase()).To(Equal(game.PhaseCombat))
			Expect(s.Log()).To(Equal([]string{"combat started in location Cave"}))
		})

		It("clears the log when combat ends", func() {
			s.Transition(game.PhaseCombat)
			s.Record("player: swing", "result: miss")

			Expect(s.Transition(game.PhaseExploration)).To(BeTrue())
			Expect(s.Log()).To(BeEmpty())
		})

		It("does nothing when already in the target phase", func() {
			s.Transition(game.PhaseCombat)
			s.Record("player: swing")

			Expect(s.Transition(game.PhaseCombat)).To(BeFalse())
			Expect(s.Log()).To(HaveLen(2))
		})
	})

	Describe("Record", func() {
		It("ignores entries outside combat", func() {
			s.Record("player: look")
			Expect(s.Log()).To(BeEmpty())
		})
	})

	Describe("Log", func() {
		It("returns a copy", func() {
			s.Transition(game.PhaseCombat)
			log := s.Log()
			log[0] = "tampered"
			Expect(s.Log()[0]).To(Equal("combat started in location Cave"))
		})
	})

	Describe("Snapshot and Restore", func() {
		It("round trips a combat session", func() {
			s.Transition(game.PhaseCombat)
			s.Record("player: swing")
			s.Player.TakeDamage(4)

			restored, err := game.Restore(s.Snapshot())
			Expect(err).NotTo(HaveOccurred())
			Expect(restored.Phase()).To(Equal(game.PhaseCombat))
			Expect(restored.Log()).To(Equal(s.Log()))
			Expect(restored.Player.HP).To(Equal(16))
		})

		It("drops a stray log outside combat", func() {
			snap := s.Snapshot()
			snap.Log = []string{"leftover"}

			restored, err := game.Restore(snap)
			Expect(err).NotTo(HaveOccurred())
			Expect(restored.Log()).To(BeEmpty())
		})

		It("rejects an unknown phase", func() {
			snap := s.Snapshot()
			snap.Phase = "DIALOGUE"
			_, err := game.Restore(snap)
			Expect(err).To(HaveOccurred())
		})
	})
})
