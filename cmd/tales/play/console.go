package playcmder

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/papercomputeco/tales/pkg/cliui"
	"github.com/papercomputeco/tales/pkg/dotdir"
	"github.com/papercomputeco/tales/pkg/engine"
	"github.com/papercomputeco/tales/pkg/game"
)

const inputPrompt = "> "

const helpText = `Type what your character does, e.g. "look around" or "attack the spider".

  /save [slot]   save the game (default slot: quicksave)
  /load [slot]   load a saved game
  /saves         list save slots
  /delete [slot] delete a save slot
  /status        show health, stats and inventory
  /help          show this help
  exit, quit     leave the game`

// Game is the running session the console drives.
type Game interface {
	Process(ctx context.Context, command string) (engine.Result, error)
	Snapshot() game.Snapshot
	Restore(snap game.Snapshot) error
}

// console is the line-oriented play loop.
type console struct {
	game   Game
	in     *bufio.Scanner
	out    io.Writer
	saves  *dotdir.Manager
	dir    string
	logger *slog.Logger
}

func newConsole(g Game, in io.Reader, out io.Writer, dir string, logger *slog.Logger) *console {
	return &console{
		game:   g,
		in:     bufio.NewScanner(in),
		out:    out,
		saves:  dotdir.NewManager(),
		dir:    dir,
		logger: logger,
	}
}

// intro prints the starting location.
func (c *console) intro() {
	snap := c.game.Snapshot()
	fmt.Fprintf(c.out, "\n  %s %s\n\n",
		cliui.KeyStyle.Render("Location:"),
		cliui.NameStyle.Render(snap.Location.Name),
	)
	cliui.Narrate(c.out, snap.Location.Description)
	fmt.Fprintf(c.out, "\n  %s\n\n", cliui.DimStyle.Render("Type /help for commands. exit or Ctrl+D to quit."))
}

// run reads commands until the player quits, input ends, the player dies or
// ctx is done.
func (c *console) run(ctx context.Context) error {
	for {
		if err := ctx.Err(); err != nil {
			return nil
		}

		fmt.Fprint(c.out, cliui.PromptStyle.Render(inputPrompt))
		if !c.in.Scan() {
			fmt.Fprintln(c.out)
			return c.in.Err()
		}

		input := strings.TrimSpace(c.in.Text())
		if input == "" {
			continue
		}
		if isQuit(input) {
			fmt.Fprintf(c.out, "  %s\n", cliui.DimStyle.Render("Farewell, traveler."))
			return nil
		}

		if strings.HasPrefix(input, "/") {
			c.command(input)
			continue
		}

		res, err := c.game.Process(ctx, input)
		if errors.Is(err, engine.ErrGameOver) {
			c.gameOver()
			return nil
		}
		if err != nil {
			fmt.Fprintf(c.out, "  %s %v\n", cliui.FailMark, err)
			continue
		}

		fmt.Fprintln(c.out)
		cliui.Narrate(c.out, res.Text)
		if res.Degraded != "" {
			c.logger.Debug("turn degraded", "reason", res.Degraded)
		}
		c.status(res)

		if res.GameOver {
			c.gameOver()
			return nil
		}
	}
}

func (c *console) command(input string) {
	fields := strings.Fields(input)
	name, slot := fields[0], dotdir.DefaultSlot
	if len(fields) > 1 {
		slot = fields[1]
	}

	switch name {
	case "/save":
		if err := c.saves.SaveGame(slot, c.game.Snapshot(), c.dir); err != nil {
			fmt.Fprintf(c.out, "  %s %v\n", cliui.FailMark, err)
			return
		}
		fmt.Fprintf(c.out, "  %s Saved to %s\n", cliui.SuccessMark, cliui.NameStyle.Render(slot))

	case "/load":
		snap, err := c.saves.LoadGame(slot, c.dir)
		if err != nil {
			fmt.Fprintf(c.out, "  %s %v\n", cliui.FailMark, err)
			return
		}
		if snap == nil {
			fmt.Fprintf(c.out, "  %s No save named %s\n", cliui.FailMark, cliui.NameStyle.Render(slot))
			return
		}
		if err := c.game.Restore(*snap); err != nil {
			fmt.Fprintf(c.out, "  %s %v\n", cliui.FailMark, err)
			return
		}
		fmt.Fprintf(c.out, "  %s Loaded %s\n", cliui.SuccessMark, cliui.NameStyle.Render(slot))
		c.intro()

	case "/saves":
		slots, err := c.saves.ListSaves(c.dir)
		if err != nil {
			fmt.Fprintf(c.out, "  %s %v\n", cliui.FailMark, err)
			return
		}
		if len(slots) == 0 {
			fmt.Fprintf(c.out, "  %s\n", cliui.DimStyle.Render("No saved games."))
			return
		}
		for _, s := range slots {
			fmt.Fprintf(c.out, "  %s\n", cliui.NameStyle.Render(s))
		}

	case "/delete":
		if err := c.saves.DeleteSave(slot, c.dir); err != nil {
			fmt.Fprintf(c.out, "  %s %v\n", cliui.FailMark, err)
			return
		}
		fmt.Fprintf(c.out, "  %s Deleted %s\n", cliui.SuccessMark, cliui.NameStyle.Render(slot))

	case "/status":
		c.sheet()

	case "/help":
		fmt.Fprintln(c.out, helpText)

	default:
		fmt.Fprintf(c.out, "  %s Unknown command %s, try /help\n", cliui.FailMark, name)
	}
}

// status prints the one-line summary after a turn.
func (c *console) status(res engine.Result) {
	snap := c.game.Snapshot()
	phase := cliui.DimStyle.Render(res.Phase.String())
	if res.Phase == game.PhaseCombat {
		phase = cliui.CombatStyle.Render(res.Phase.String())
	}
	hp := fmt.Sprintf("HP %d/%d", snap.Player.HP, snap.Player.MaxHP)
	if snap.Player.HP*4 <= snap.Player.MaxHP {
		hp = cliui.WarnStyle.Render(hp)
	}

	fmt.Fprintf(c.out, "\n  %s %s %s %s\n\n",
		hp,
		cliui.DimStyle.Render("·"),
		phase,
		cliui.DimStyle.Render("· "+snap.Location.Name),
	)
}

// sheet prints the full character sheet.
func (c *console) sheet() {
	p := c.game.Snapshot().Player
	fmt.Fprintf(c.out, "  %s %s\n", cliui.KeyStyle.Render("Name:"), cliui.NameStyle.Render(p.Name))
	fmt.Fprintf(c.out, "  %s %d/%d\n", cliui.KeyStyle.Render("Health:"), p.HP, p.MaxHP)
	fmt.Fprintf(c.out, "  %s %s\n", cliui.KeyStyle.Render("Stats:"), cliui.ValueStyle.Render(p.StatLine()))
	fmt.Fprintf(c.out, "  %s %s\n", cliui.KeyStyle.Render("Inventory:"), cliui.ValueStyle.Render(strings.Join(p.ItemNames(), ", ")))
}

func (c *console) gameOver() {
	fmt.Fprintf(c.out, "\n  %s\n\n", cliui.CombatStyle.Render("You have fallen. Your tale ends here."))
}

func isQuit(input string) bool {
	switch strings.ToLower(input) {
	case "exit", "quit", "/exit", "/quit":
		return true
	}
	return false
}
