// Package recall assembles the evidence a turn is narrated from.
//
// Exploration draws on long-term memory: recent events at the current
// location plus one piece of world lore. Combat favours continuity: the
// whole short-term log of the fight plus one piece of lore about how to win
// it.
package recall

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/papercomputeco/tales/pkg/game"
	"github.com/papercomputeco/tales/pkg/memory"
)

const (
	// NoMemories stands in for an empty evidence list.
	NoMemories = "no notable memories"

	eventLimit = 2
	loreLimit  = 1
)

// Memory is the slice of memory.Store the assembler reads from.
type Memory interface {
	Query(ctx context.Context, text string, limit int, filter memory.Tags) ([]string, error)
}

// Evidence is what a prompt template is filled with.
type Evidence struct {
	Memories []string
	Snapshot string
}

// Assembler builds Evidence for either phase.
type Assembler struct {
	memory Memory
	logger *slog.Logger
}

// NewAssembler creates an Assembler reading from m.
func NewAssembler(m Memory, logger *slog.Logger) *Assembler {
	return &Assembler{memory: m, logger: logger}
}

// Exploration gathers up to two events recorded at the current location and
// the closest lore record, deduplicated in first-seen order.
func (a *Assembler) Exploration(ctx context.Context, sess *game.Session, command string) Evidence {
	query := strings.TrimSpace(sess.Location.TagLine() + " " + command)

	events := a.layer(ctx, "events", query, eventLimit, memory.Tags{
		memory.TagKind:     memory.KindEvent,
		memory.TagLocation: sess.Location.Name,
	})
	lore := a.layer(ctx, "lore", query, loreLimit, memory.Tags{
		memory.TagKind: memory.KindLore,
	})

	return Evidence{
		Memories: orPlaceholder(dedupe(append(events, lore...))),
		Snapshot: Snapshot(sess),
	}
}

// Combat returns the full combat log followed by the closest lore record
// on fighting whatever is at this location.
func (a *Assembler) Combat(ctx context.Context, sess *game.Session) Evidence {
	query := "vulnerabilities or tactics against " + sess.Location.TagLine()
	lore := a.layer(ctx, "lore", query, loreLimit, memory.Tags{
		memory.TagKind: memory.KindLore,
	})

	return Evidence{
		Memories: orPlaceholder(append(sess.Log(), lore...)),
		Snapshot: Snapshot(sess),
	}
}

// layer runs one retrieval. A failing backend leaves the layer empty.
func (a *Assembler) layer(ctx context.Context, name, query string, limit int, filter memory.Tags) []string {
	texts, err := a.memory.Query(ctx, query, limit, filter)
	if err != nil {
		a.logger.Warn("memory layer unavailable",
			"layer", name,
			"error", err,
		)
		return nil
	}
	return texts
}

// Snapshot formats the player and location state for a prompt.
func Snapshot(sess *game.Session) string {
	p := sess.Player
	inventory := "empty"
	if names := p.ItemNames(); len(names) > 0 {
		inventory = strings.Join(names, ", ")
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Player: %s\n", p.Name)
	fmt.Fprintf(&b, "Health: %d/%d\n", p.HP, p.MaxHP)
	fmt.Fprintf(&b, "Stats: %s\n", p.StatLine())
	fmt.Fprintf(&b, "Inventory: %s\n", inventory)
	fmt.Fprintf(&b, "Location: %s\n", sess.Location.Name)
	fmt.Fprintf(&b, "Location tags: %s", strings.Join(sess.Location.Tags, ", "))
	return b.String()
}

func dedupe(in []string) []string {
	seen := make(map[string]struct{}, len(in))
	out := make([]string, 0, len(in))
	for _, s := range in {
		if _, ok := seen[s]; ok {
			continue
		}
		seen[s] = struct{}{}
		out = append(out, s)
	}
	return out
}

func orPlaceholder(in []string) []string {
	if len(in) == 0 {
		return []string{NoMemories}
	}
	return in
}
