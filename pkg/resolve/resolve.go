// Package resolve turns the narrator's raw reply into what the player sees
// and applies the mechanical effects it carries to the session.
//
// The reply is expected to hold a JSON object somewhere in it:
//
//	{"narrative": "...", "state_changes": {"add_item": "...", "damage_player": 3}}
//
// Anything that cannot be read that way is shown to the player verbatim
// and changes nothing.
package resolve

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"strconv"
	"strings"

	"github.com/google/uuid"

	"github.com/papercomputeco/tales/pkg/game"
	"github.com/papercomputeco/tales/pkg/memory"
	"github.com/papercomputeco/tales/pkg/metrics"
	"github.com/papercomputeco/tales/pkg/utils"
)

// DefaultNarrative is used when the payload has no narrative field.
const DefaultNarrative = "the world falls silent…"

// Recognized state_changes keys.
const (
	KeyAddItem      = "add_item"
	KeyDamagePlayer = "damage_player"
	KeyNewEvent     = "new_event"
	KeyNewGameState = "new_game_state"
)

// maxEffectAmount caps numeric effects so huge values cannot overflow int.
const maxEffectAmount = math.MaxInt32

// Fallback reasons reported to metrics and logs.
const (
	reasonNoPayload   = "no_payload"
	reasonInvalidJSON = "invalid_json"
)

// Memory is where new events are written.
type Memory interface {
	Add(ctx context.Context, text, id string, tags memory.Tags) error
}

// Outcome is the result of applying one reply.
type Outcome struct {
	// Text is shown to the player: the narrative followed by feedback lines.
	Text string

	Narrative string
	Feedback  []string

	// Parsed is false when the reply was shown verbatim.
	Parsed bool

	// Transition is the phase entered this turn, if any.
	Transition game.Phase
}

// payload fields stay raw so a wrong-typed field spoils only itself.
type payload struct {
	Narrative    json.RawMessage `json:"narrative"`
	StateChanges json.RawMessage `json:"state_changes"`
}

// Resolver applies replies to sessions.
type Resolver struct {
	memory Memory
	logger *slog.Logger
	newID  func() string
}

// Option configures a Resolver.
type Option func(*Resolver)

// WithIDGenerator replaces the UUID generator used for new event records.
func WithIDGenerator(fn func() string) Option {
	return func(r *Resolver) {
		r.newID = fn
	}
}

// NewResolver creates a Resolver that records new events in m.
func NewResolver(m Memory, logger *slog.Logger, opts ...Option) *Resolver {
	r := &Resolver{
		memory: m,
		logger: logger,
		newID:  uuid.NewString,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Apply parses raw and mutates sess accordingly. Effects are applied in a
// fixed order: combat log, item, damage, event, phase change.
func (r *Resolver) Apply(ctx context.Context, sess *game.Session, raw, command string) Outcome {
	p, ok := r.extract(raw)
	if !ok {
		return Outcome{Text: raw}
	}

	out := Outcome{Parsed: true, Narrative: r.narrative(p.Narrative)}
	changes := r.stateChanges(p.StateChanges)

	if sess.Phase() == game.PhaseCombat {
		sess.Record("player: "+command, "result: "+out.Narrative)
	}

	if item, ok := r.stringValue(changes, KeyAddItem); ok {
		sess.Player.AddItem(game.Item{Name: item})
		out.Feedback = append(out.Feedback, fmt.Sprintf("(Added to inventory: %s)", item))
	}

	if dmg, ok := r.intValue(changes, KeyDamagePlayer); ok && dmg > 0 {
		sess.Player.TakeDamage(dmg)
		out.Feedback = append(out.Feedback, fmt.Sprintf("(You take %d damage. Health: %d/%d)",
			dmg, sess.Player.HP, sess.Player.MaxHP))
	}

	if event, ok := r.stringValue(changes, KeyNewEvent); ok {
		r.recordEvent(ctx, sess, event)
	}

	if label, ok := r.stringValue(changes, KeyNewGameState); ok {
		out.Transition = r.transition(sess, label)
	}

	out.Text = out.Narrative
	if len(out.Feedback) > 0 {
		out.Text += "\n" + strings.Join(out.Feedback, "\n")
	}
	return out
}

// extract finds the outermost brace pair and decodes it.
func (r *Resolver) extract(raw string) (payload, bool) {
	var p payload

	start := strings.Index(raw, "{")
	end := strings.LastIndex(raw, "}")
	if start < 0 || end < start {
		r.logger.Warn("narrator reply has no structured payload",
			"reply", utils.Truncate(raw, 120),
		)
		metrics.ParseFallbacks.WithLabelValues(reasonNoPayload).Inc()
		return p, false
	}

	candidate := raw[start : end+1]
	if err := json.Unmarshal([]byte(candidate), &p); err != nil {
		r.logger.Warn("narrator reply payload is malformed",
			"payload", utils.Truncate(candidate, 240),
			"error", err,
		)
		metrics.ParseFallbacks.WithLabelValues(reasonInvalidJSON).Inc()
		return p, false
	}
	return p, true
}

func (r *Resolver) recordEvent(ctx context.Context, sess *game.Session, text string) {
	id := r.newID()
	err := r.memory.Add(ctx, text, id, memory.Tags{
		memory.TagKind:     memory.KindEvent,
		memory.TagLocation: sess.Location.Name,
	})
	switch {
	case errors.Is(err, memory.ErrDuplicateID):
		r.logger.Warn("event id already recorded, dropping event", "id", id)
	case err != nil:
		r.logger.Error("could not record event", "id", id, "error", err)
	default:
		metrics.MemoryRecords.WithLabelValues(memory.KindEvent).Inc()
	}
}

func (r *Resolver) transition(sess *game.Session, label string) game.Phase {
	to, err := game.ParsePhase(label)
	if err != nil {
		r.logger.Warn("ignoring unknown game state", "state", label)
		return ""
	}
	if !sess.Transition(to) {
		return ""
	}
	metrics.PhaseTransitions.WithLabelValues(to.String()).Inc()
	r.logger.Info("phase changed by narrator", "session", sess.ID, "phase", to)
	return to
}

// narrative decodes the narrative field, falling back to DefaultNarrative
// when it is absent, null or not a string.
func (r *Resolver) narrative(raw json.RawMessage) string {
	if isNull(raw) {
		return DefaultNarrative
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		r.logger.Warn("ignoring non-string narrative", "value", utils.Truncate(string(raw), 120))
		return DefaultNarrative
	}
	return s
}

// stateChanges decodes the effect map. Anything but an object yields no
// effects.
func (r *Resolver) stateChanges(raw json.RawMessage) map[string]json.RawMessage {
	if isNull(raw) {
		return nil
	}
	var changes map[string]json.RawMessage
	if err := json.Unmarshal(raw, &changes); err != nil {
		r.logger.Warn("ignoring malformed state_changes", "value", utils.Truncate(string(raw), 120))
		return nil
	}
	return changes
}

func isNull(raw json.RawMessage) bool {
	return len(raw) == 0 || string(raw) == "null"
}

// stringValue reads a non-empty string effect. Other JSON types are ignored.
func (r *Resolver) stringValue(changes map[string]json.RawMessage, key string) (string, bool) {
	raw, ok := changes[key]
	if !ok {
		return "", false
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		r.logger.Warn("ignoring non-string effect", "key", key, "value", string(raw))
		return "", false
	}
	s = strings.TrimSpace(s)
	return s, s != ""
}

// intValue reads an integer effect given as a JSON number or numeric string.
// Fractions round half away from zero; magnitudes beyond maxEffectAmount are
// clamped to it.
func (r *Resolver) intValue(changes map[string]json.RawMessage, key string) (int, bool) {
	raw, ok := changes[key]
	if !ok {
		return 0, false
	}

	var f float64
	if err := json.Unmarshal(raw, &f); err != nil {
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			r.logger.Warn("ignoring non-numeric effect", "key", key, "value", string(raw))
			return 0, false
		}
		f, err = strconv.ParseFloat(strings.TrimSpace(s), 64)
		if err != nil || math.IsNaN(f) {
			r.logger.Warn("ignoring non-numeric effect", "key", key, "value", string(raw))
			return 0, false
		}
	}

	switch {
	case f >= maxEffectAmount:
		return maxEffectAmount, true
	case f <= -maxEffectAmount:
		return -maxEffectAmount, true
	}
	return int(math.Round(f)), true
}
