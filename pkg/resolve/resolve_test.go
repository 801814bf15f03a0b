package resolve_test

import (
	"context"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/papercomputeco/tales/pkg/game"
	"github.com/papercomputeco/tales/pkg/logger"
	"github.com/papercomputeco/tales/pkg/memory"
	"github.com/papercomputeco/tales/pkg/resolve"
	testutils "github.com/papercomputeco/tales/pkg/utils/test"
)

var _ = Describe("Resolver", func() {
	var (
		ctx      context.Context
		driver   *testutils.MockVectorDriver
		store    *memory.Store
		resolver *resolve.Resolver
		sess     *game.Session
	)

	cave := game.Location{Name: "Cave | Slime | Pool", Tags: []string{"cave", "slime", "pool"}}

	BeforeEach(func() {
		ctx = context.Background()
		driver = testutils.NewMockVectorDriver()
		store = memory.NewStore(testutils.NewMockEmbedder(), driver, logger.Nop())
		resolver = resolve.NewResolver(store, logger.Nop())
		sess = game.NewSession("s1", game.NewPlayer("Ash"), cave)
	})

	Context("when the reply carries no usable payload", func() {
		It("returns text without braces unchanged", func() {
			raw := "The wind howls and nothing else happens."
			out := resolver.Apply(ctx, sess, raw, "wait")

			Expect(out.Text).To(Equal(raw))
			Expect(out.Parsed).To(BeFalse())
			Expect(sess.Player.Inventory).To(HaveLen(2))
		})

		It("returns malformed JSON unchanged", func() {
			out := resolver.Apply(ctx, sess, "{not json", "look")
			Expect(out.Text).To(Equal("{not json"))
			Expect(out.Parsed).To(BeFalse())
		})

		It("returns text whose closing brace precedes the opening one unchanged", func() {
			raw := "} oops {"
			Expect(resolver.Apply(ctx, sess, raw, "look").Text).To(Equal(raw))
		})

		It("does not touch the combat log", func() {
			sess.Transition(game.PhaseCombat)
			resolver.Apply(ctx, sess, "{broken", "swing")
			Expect(sess.Log()).To(HaveLen(1))
		})
	})

	It("returns a narrative-only payload exactly", func() {
		out := resolver.Apply(ctx, sess, `{"narrative": "Mist rolls in."}`, "look")
		Expect(out.Text).To(Equal("Mist rolls in."))
		Expect(out.Feedback).To(BeEmpty())
		Expect(sess.Player.HP).To(Equal(20))
		Expect(driver.Len()).To(BeZero())
	})

	It("defaults a missing narrative", func() {
		out := resolver.Apply(ctx, sess, `{"state_changes": {}}`, "look")
		Expect(out.Text).To(Equal(resolve.DefaultNarrative))
	})

	It("extracts the payload from surrounding prose and adds the item", func() {
		raw := `Sure! {"narrative": "You find a key.", "state_changes": {"add_item": "Bronze Key"}} Hope that helps!`
		out := resolver.Apply(ctx, sess, raw, "search the pool")

		Expect(out.Text).To(Equal("You find a key.\n(Added to inventory: Bronze Key)"))
		Expect(sess.Player.ItemNames()).To(Equal([]string{"Healing Potion", "Old Sword", "Bronze Key"}))
	})

	Describe("damage", func() {
		It("clamps health at zero", func() {
			sess.Transition(game.PhaseCombat)
			sess.Player.HP = 3

			out := resolver.Apply(ctx, sess, `{"narrative": "The slime engulfs you.", "state_changes": {"damage_player": 5}}`, "hug the slime")
			Expect(sess.Player.HP).To(Equal(0))
			Expect(sess.Player.IsDead()).To(BeTrue())
			Expect(out.Feedback).To(Equal([]string{"(You take 5 damage. Health: 0/20)"}))
		})

		It("is a no-op at zero", func() {
			out := resolver.Apply(ctx, sess, `{"narrative": "A near miss.", "state_changes": {"damage_player": 0}}`, "dodge")
			Expect(out.Text).To(Equal("A near miss."))
			Expect(sess.Player.HP).To(Equal(20))
		})

		It("ignores negative amounts", func() {
			resolver.Apply(ctx, sess, `{"narrative": "x", "state_changes": {"damage_player": -4}}`, "pray")
			Expect(sess.Player.HP).To(Equal(20))
		})

		It("accepts numeric strings", func() {
			resolver.Apply(ctx, sess, `{"narrative": "x", "state_changes": {"damage_player": "2"}}`, "trip")
			Expect(sess.Player.HP).To(Equal(18))
		})

		It("kills the player on an enormous amount instead of overflowing", func() {
			out := resolver.Apply(ctx, sess, `{"narrative": "crushed", "state_changes": {"damage_player": 1e20}}`, "stand under the boulder")
			Expect(sess.Player.HP).To(Equal(0))
			Expect(out.Feedback).To(HaveLen(1))
			Expect(out.Feedback[0]).To(HavePrefix("(You take "))
			Expect(out.Feedback[0]).To(HaveSuffix("Health: 0/20)"))
		})

		It("clamps enormous numeric strings too", func() {
			resolver.Apply(ctx, sess, `{"narrative": "crushed", "state_changes": {"damage_player": "99999999999999999999"}}`, "stand under the boulder")
			Expect(sess.Player.HP).To(Equal(0))
		})

		DescribeTable("rounds fractions the same for numbers and strings",
			func(amount string, hp int) {
				resolver.Apply(ctx, sess, `{"narrative": "x", "state_changes": {"damage_player": `+amount+`}}`, "stumble")
				Expect(sess.Player.HP).To(Equal(hp))
			},
			Entry("number", `2.5`, 17),
			Entry("string", `"2.5"`, 17),
			Entry("padded string", `" 1.4 "`, 19),
		)

		It("ignores values that are not numbers", func() {
			resolver.Apply(ctx, sess, `{"narrative": "x", "state_changes": {"damage_player": "lots"}}`, "stumble")
			Expect(sess.Player.HP).To(Equal(20))
		})
	})

	It("lists feedback for items before damage", func() {
		raw := `{"narrative": "A trap!", "state_changes": {"damage_player": 1, "add_item": "Rusty Nail"}}`
		out := resolver.Apply(ctx, sess, raw, "open chest")
		Expect(out.Text).To(Equal("A trap!\n(Added to inventory: Rusty Nail)\n(You take 1 damage. Health: 19/20)"))
	})

	Context("when a field has the wrong type", func() {
		It("keeps the effects of a non-string narrative", func() {
			out := resolver.Apply(ctx, sess, `{"narrative": 42, "state_changes": {"add_item": "Bronze Key"}}`, "search")
			Expect(out.Parsed).To(BeTrue())
			Expect(out.Narrative).To(Equal(resolve.DefaultNarrative))
			Expect(out.Text).To(Equal(resolve.DefaultNarrative + "\n(Added to inventory: Bronze Key)"))
			Expect(sess.Player.ItemNames()).To(ContainElement("Bronze Key"))
		})

		It("keeps the narrative when state_changes is not an object", func() {
			out := resolver.Apply(ctx, sess, `{"narrative": "The cave is quiet.", "state_changes": ["add_item"]}`, "listen")
			Expect(out.Parsed).To(BeTrue())
			Expect(out.Text).To(Equal("The cave is quiet."))
			Expect(sess.Player.Inventory).To(HaveLen(2))
		})

		It("treats a null narrative as missing", func() {
			out := resolver.Apply(ctx, sess, `{"narrative": null, "state_changes": null}`, "wait")
			Expect(out.Text).To(Equal(resolve.DefaultNarrative))
		})
	})

	It("ignores unknown keys", func() {
		out := resolver.Apply(ctx, sess, `{"narrative": "Calm.", "state_changes": {"summon_dragon": true}}`, "wait")
		Expect(out.Text).To(Equal("Calm."))
	})

	Describe("new events", func() {
		It("stores the event tagged with the current location", func() {
			resolver = resolve.NewResolver(store, logger.Nop(), resolve.WithIDGenerator(func() string { return "evt-1" }))
			resolver.Apply(ctx, sess, `{"narrative": "x", "state_changes": {"new_event": "The pool turned red."}}`, "bleed")

			docs, err := driver.Get(ctx, []string{"evt-1"})
			Expect(err).NotTo(HaveOccurred())
			Expect(docs).To(HaveLen(1))
			Expect(docs[0].Text).To(Equal("The pool turned red."))
			Expect(docs[0].Tags).To(Equal(map[string]string{
				memory.TagKind:     memory.KindEvent,
				memory.TagLocation: cave.Name,
			}))
		})

		It("drops a duplicate id without failing the turn", func() {
			resolver = resolve.NewResolver(store, logger.Nop(), resolve.WithIDGenerator(func() string { return "evt-1" }))
			raw := `{"narrative": "Again.", "state_changes": {"new_event": "Something happened."}}`
			resolver.Apply(ctx, sess, raw, "wait")

			out := resolver.Apply(ctx, sess, raw, "wait")
			Expect(out.Text).To(Equal("Again."))
			Expect(driver.Len()).To(Equal(1))
		})

		It("survives a backend failure", func() {
			driver.FailAdd = true
			out := resolver.Apply(ctx, sess, `{"narrative": "ok", "state_changes": {"new_event": "lost"}}`, "wait")
			Expect(out.Text).To(Equal("ok"))
		})
	})

	Describe("combat continuity and phase changes", func() {
		It("records the exchange while in combat", func() {
			sess.Transition(game.PhaseCombat)
			resolver.Apply(ctx, sess, `{"narrative": "You cut it in two."}`, "slash")

			Expect(sess.Log()).To(Equal([]string{
				"combat started in location " + cave.Name,
				"player: slash",
				"result: You cut it in two.",
			}))
		})

		It("does not log outside combat", func() {
			resolver.Apply(ctx, sess, `{"narrative": "Quiet."}`, "listen")
			Expect(sess.Log()).To(BeEmpty())
		})

		It("ends combat on request and clears the log", func() {
			sess.Transition(game.PhaseCombat)
			out := resolver.Apply(ctx, sess, `{"narrative": "The slime dies.", "state_changes": {"new_game_state": "EXPLORATION"}}`, "finish it")

			Expect(out.Transition).To(Equal(game.PhaseExploration))
			Expect(sess.Phase()).To(Equal(game.PhaseExploration))
			Expect(sess.Log()).To(BeEmpty())
		})

		It("starts combat on request with a single log entry", func() {
			out := resolver.Apply(ctx, sess, `{"narrative": "Ambush!", "state_changes": {"new_game_state": "combat"}}`, "walk")

			Expect(out.Transition).To(Equal(game.PhaseCombat))
			Expect(sess.Log()).To(Equal([]string{"combat started in location " + cave.Name}))
		})

		It("ignores a request for the current phase", func() {
			sess.Transition(game.PhaseCombat)
			out := resolver.Apply(ctx, sess, `{"narrative": "Still fighting.", "state_changes": {"new_game_state": "COMBAT"}}`, "parry")

			Expect(out.Transition).To(BeEmpty())
			Expect(sess.Log()).To(HaveLen(3))
		})

		It("ignores unknown phase labels", func() {
			out := resolver.Apply(ctx, sess, `{"narrative": "?", "state_changes": {"new_game_state": "DIALOGUE"}}`, "talk")
			Expect(out.Transition).To(BeEmpty())
			Expect(sess.Phase()).To(Equal(game.PhaseExploration))
		})
	})
})
