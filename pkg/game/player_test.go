package game_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/papercomputeco/tales/pkg/game"
)

var _ = Describe("Player", func() {
	var p *game.Player

	BeforeEach(func() {
		p = game.NewPlayer("Hero")
	})

	It("starts at full health with the starting kit", func() {
		Expect(p.HP).To(Equal(game.DefaultMaxHP))
		Expect(p.ItemNames()).To(Equal([]string{"Healing Potion", "Old Sword"}))
		Expect(p.StatLine()).To(Equal("strength: 10, dexterity: 10, intellect: 10"))
	})

	DescribeTable("TakeDamage clamps health at zero",
		func(hp, dmg, want int) {
			p.HP = hp
			p.TakeDamage(dmg)
			Expect(p.HP).To(Equal(want))
		},
		Entry("ordinary hit", 20, 5, 15),
		Entry("overkill", 3, 5, 0),
		Entry("zero damage", 7, 0, 7),
		Entry("negative damage", 7, -3, 7),
	)

	It("is dead at zero health", func() {
		p.TakeDamage(100)
		Expect(p.IsDead()).To(BeTrue())
	})

	It("lists unknown stats after the known ones", func() {
		p.Stats["luck"] = 3
		Expect(p.StatLine()).To(HaveSuffix("intellect: 10, luck: 3"))
	})

	It("clones deeply", func() {
		c := p.Clone()
		c.Stats["strength"] = 1
		c.AddItem(game.Item{Name: "Rope"})
		Expect(p.Stats["strength"]).To(Equal(10))
		Expect(p.Inventory).To(HaveLen(2))
	})
})

var _ = Describe("ParsePhase", func() {
	It("accepts any case", func() {
		Expect(game.ParsePhase("combat")).To(Equal(game.PhaseCombat))
		Expect(game.ParsePhase(" Exploration ")).To(Equal(game.PhaseExploration))
	})

	It("rejects other names", func() {
		_, err := game.ParsePhase("dialogue")
		Expect(err).To(HaveOccurred())
	})
})
