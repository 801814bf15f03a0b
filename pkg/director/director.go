// Package director is the per-turn state machine. It classifies the
// player's command, enters combat when the command calls for it, then
// dispatches on the session's phase to gather evidence, render the
// matching prompt and ask the narrator for a reply.
//
// Only entry into combat is intent driven. Leaving combat is the
// narrator's call and happens when the reply is resolved.
package director

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/papercomputeco/tales/pkg/game"
	"github.com/papercomputeco/tales/pkg/intent"
	"github.com/papercomputeco/tales/pkg/llm"
	"github.com/papercomputeco/tales/pkg/metrics"
	"github.com/papercomputeco/tales/pkg/prompt"
	"github.com/papercomputeco/tales/pkg/recall"
)

// DegradedPayload stands in for the narrator's reply when it could not be
// produced.
const DegradedPayload = `{"narrative": "a disturbance in reality…", "state_changes": {}}`

// Degraded turn reasons.
const (
	ReasonTemplate   = "template"
	ReasonGeneration = "generation"
)

// Classifier recognizes the intent of a command.
type Classifier interface {
	Recognize(ctx context.Context, command string) intent.Intent
}

// Renderer renders a named prompt template.
type Renderer interface {
	Render(name string, vars map[string]any) (string, error)
}

// TurnRequest is what was (or would have been) sent to the narrator.
type TurnRequest struct {
	Prompt   string
	Phase    game.Phase
	Template string
}

// Turn is the director's half of a turn: the request and the raw reply.
type Turn struct {
	Request TurnRequest
	Intent  intent.Intent
	Raw     string

	// Err is the template or generation failure that degraded the turn.
	Err error

	// Degraded is the reason Raw is DegradedPayload, if it is.
	Degraded string
}

// handler gathers evidence for one phase and names the template to render.
type handler func(ctx context.Context, sess *game.Session, command string) (string, map[string]any)

// Config wires a Director.
type Config struct {
	Classifier Classifier
	Assembler  *recall.Assembler
	Prompts    Renderer
	Narrator   llm.Generator
	Logger     *slog.Logger
}

// Director runs the turn state machine.
type Director struct {
	classifier Classifier
	assembler  *recall.Assembler
	prompts    Renderer
	narrator   llm.Generator
	logger     *slog.Logger
	handlers   map[game.Phase]handler
}

// New creates a Director.
func New(cfg Config) *Director {
	d := &Director{
		classifier: cfg.Classifier,
		assembler:  cfg.Assembler,
		prompts:    cfg.Prompts,
		narrator:   cfg.Narrator,
		logger:     cfg.Logger,
	}
	d.handlers = map[game.Phase]handler{
		game.PhaseExploration: d.explore,
		game.PhaseCombat:      d.fight,
	}
	return d
}

// Direct runs one turn up to the narrator's raw reply. It never fails: a
// broken template or an unreachable narrator yields DegradedPayload.
func (d *Director) Direct(ctx context.Context, sess *game.Session, command string) Turn {
	it := d.classifier.Recognize(ctx, command)
	switch it {
	case intent.Unknown:
		d.logger.Info("intent not recognized, treating as exploration", "command", command)
	case intent.Combat:
		if sess.Transition(game.PhaseCombat) {
			metrics.PhaseTransitions.WithLabelValues(game.PhaseCombat.String()).Inc()
			d.logger.Info("combat started", "session", sess.ID, "location", sess.Location.Name)
		}
	}

	phase := sess.Phase()
	h, ok := d.handlers[phase]
	if !ok {
		h = d.explore
	}
	name, vars := h(ctx, sess, command)

	turn := Turn{
		Request: TurnRequest{Phase: phase, Template: name},
		Intent:  it,
	}
	metrics.Turns.WithLabelValues(phase.String(), it.String()).Inc()

	rendered, err := d.prompts.Render(name, vars)
	if err != nil {
		d.logger.Error("could not render prompt", "template", name, "error", err)
		turn.Request.Prompt = fmt.Sprintf("[prompt unavailable: %v]", err)
		return d.degrade(turn, ReasonTemplate, err)
	}
	turn.Request.Prompt = rendered

	raw, err := d.narrator.Generate(ctx, rendered)
	if err != nil {
		d.logger.Error("narrator unavailable", "template", name, "error", err)
		return d.degrade(turn, ReasonGeneration, err)
	}
	turn.Raw = raw
	return turn
}

func (d *Director) degrade(turn Turn, reason string, err error) Turn {
	metrics.DegradedTurns.WithLabelValues(reason).Inc()
	turn.Raw = DegradedPayload
	turn.Err = err
	turn.Degraded = reason
	return turn
}

func (d *Director) explore(ctx context.Context, sess *game.Session, command string) (string, map[string]any) {
	ev := d.assembler.Exploration(ctx, sess, command)
	return prompt.Exploration, map[string]any{
		"snapshot": ev.Snapshot,
		"memories": ev.Memories,
		"command":  command,
	}
}

func (d *Director) fight(ctx context.Context, sess *game.Session, command string) (string, map[string]any) {
	ev := d.assembler.Combat(ctx, sess)
	return prompt.Combat, map[string]any{
		"snapshot": ev.Snapshot,
		"memories": ev.Memories,
		"command":  command,
	}
}
