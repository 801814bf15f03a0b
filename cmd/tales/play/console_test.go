package playcmder

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/papercomputeco/tales/pkg/engine"
	"github.com/papercomputeco/tales/pkg/game"
	"github.com/papercomputeco/tales/pkg/logger"
)

type fakeGame struct {
	snap     game.Snapshot
	commands []string
	damage   int
	fail     error
}

func newFakeGame() *fakeGame {
	return &fakeGame{snap: game.Snapshot{
		ID:     "s1",
		Player: game.NewPlayer("Wren"),
		Location: game.Location{
			Name:        "Swamp | Goblins | Bridge",
			Description: "Mist curls over black water.",
		},
		Phase: game.PhaseExploration,
	}}
}

func (f *fakeGame) Process(_ context.Context, command string) (engine.Result, error) {
	if f.snap.Player.IsDead() {
		return engine.Result{}, engine.ErrGameOver
	}
	if f.fail != nil {
		return engine.Result{}, f.fail
	}
	f.commands = append(f.commands, command)
	f.snap.Player.TakeDamage(f.damage)
	return engine.Result{
		Text:     "You " + command + ".",
		Phase:    f.snap.Phase,
		GameOver: f.snap.Player.IsDead(),
	}, nil
}

func (f *fakeGame) Snapshot() game.Snapshot {
	snap := f.snap
	snap.Player = f.snap.Player.Clone()
	return snap
}

func (f *fakeGame) Restore(snap game.Snapshot) error {
	f.snap = snap
	return nil
}

var _ = Describe("console", func() {
	var (
		g   *fakeGame
		out *bytes.Buffer
		dir string
	)

	play := func(lines ...string) error {
		in := strings.NewReader(strings.Join(lines, "\n") + "\n")
		c := newConsole(g, in, out, dir, logger.Nop())
		return c.run(context.Background())
	}

	BeforeEach(func() {
		g = newFakeGame()
		out = &bytes.Buffer{}
		dir = GinkgoT().TempDir()
	})

	It("prints the starting location", func() {
		c := newConsole(g, strings.NewReader(""), out, dir, logger.Nop())
		c.intro()
		Expect(out.String()).To(ContainSubstring("Swamp | Goblins | Bridge"))
		Expect(out.String()).To(ContainSubstring("Mist curls over black water."))
	})

	It("plays turns until a quit word", func() {
		Expect(play("look around", "", "  open the gate ", "quit", "never sent")).To(Succeed())
		Expect(g.commands).To(Equal([]string{"look around", "open the gate"}))
		Expect(out.String()).To(ContainSubstring("You look around."))
		Expect(out.String()).To(ContainSubstring("HP 20/20"))
		Expect(out.String()).To(ContainSubstring("Farewell"))
	})

	DescribeTable("quit words",
		func(word string) {
			Expect(play(word, "look")).To(Succeed())
			Expect(g.commands).To(BeEmpty())
		},
		Entry("exit", "exit"),
		Entry("quit", "QUIT"),
		Entry("slash exit", "/exit"),
	)

	It("stops at end of input", func() {
		Expect(play("look")).To(Succeed())
		Expect(g.commands).To(Equal([]string{"look"}))
	})

	It("ends the game when the player dies", func() {
		g.damage = 25
		Expect(play("attack the troll", "look")).To(Succeed())
		Expect(g.commands).To(Equal([]string{"attack the troll"}))
		Expect(out.String()).To(ContainSubstring("HP 0/20"))
		Expect(out.String()).To(ContainSubstring("You have fallen"))
	})

	It("reports turn errors and keeps playing", func() {
		g.fail = errors.New("boom")
		Expect(play("look", "exit")).To(Succeed())
		Expect(out.String()).To(ContainSubstring("boom"))
	})

	It("saves and loads a slot", func() {
		g.damage = 5
		Expect(play("attack", "/save camp", "attack", "/load camp", "/saves", "exit")).To(Succeed())

		_, err := os.Stat(filepath.Join(dir, "saves", "camp.json"))
		Expect(err).NotTo(HaveOccurred())
		Expect(g.snap.Player.HP).To(Equal(15))
		Expect(out.String()).To(ContainSubstring("Saved to"))
		Expect(out.String()).To(ContainSubstring("Loaded"))
		Expect(out.String()).To(ContainSubstring("camp"))
	})

	It("uses the quicksave slot by default", func() {
		Expect(play("/save", "exit")).To(Succeed())
		_, err := os.Stat(filepath.Join(dir, "saves", "quicksave.json"))
		Expect(err).NotTo(HaveOccurred())
	})

	It("deletes a slot", func() {
		Expect(play("/save camp", "/delete camp", "/saves", "exit")).To(Succeed())
		_, err := os.Stat(filepath.Join(dir, "saves", "camp.json"))
		Expect(os.IsNotExist(err)).To(BeTrue())
		Expect(out.String()).To(ContainSubstring("Deleted"))
		Expect(out.String()).To(ContainSubstring("No saved games."))
	})

	It("reports missing and invalid slots", func() {
		Expect(play("/load nothing", "/save ../escape", "exit")).To(Succeed())
		Expect(out.String()).To(ContainSubstring("No save named"))
		Expect(out.String()).To(ContainSubstring("invalid save slot"))
	})

	It("shows the character sheet and help", func() {
		Expect(play("/status", "/help", "/dance", "exit")).To(Succeed())
		Expect(out.String()).To(ContainSubstring("Healing Potion"))
		Expect(out.String()).To(ContainSubstring("strength: 10"))
		Expect(out.String()).To(ContainSubstring("/save [slot]"))
		Expect(out.String()).To(ContainSubstring("Unknown command /dance"))
	})

	It("stops when the context is done", func() {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		c := newConsole(g, strings.NewReader("look\n"), out, dir, logger.Nop())
		Expect(c.run(ctx)).To(Succeed())
		Expect(g.commands).To(BeEmpty())
	})
})
