// Package engine runs turns for one game session: director, narrator,
// resolver and trace, one command at a time.
package engine

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/papercomputeco/tales/pkg/director"
	"github.com/papercomputeco/tales/pkg/game"
	"github.com/papercomputeco/tales/pkg/intent"
	"github.com/papercomputeco/tales/pkg/resolve"
	"github.com/papercomputeco/tales/pkg/trace"
	"github.com/papercomputeco/tales/pkg/utils"
)

var (
	// ErrEmptyCommand is returned for a blank command.
	ErrEmptyCommand = errors.New("empty command")

	// ErrGameOver is returned once the player has died.
	ErrGameOver = errors.New("game over")
)

// Result is what one turn produced.
type Result struct {
	Text       string        `json:"text"`
	Phase      game.Phase    `json:"phase"`
	Intent     intent.Intent `json:"intent"`
	Transition game.Phase    `json:"transition,omitempty"`
	Degraded   string        `json:"degraded,omitempty"`
	GameOver   bool          `json:"game_over"`
}

// Engine owns a session and serializes its turns.
type Engine struct {
	mu       sync.Mutex
	session  *game.Session
	director *director.Director
	resolver *resolve.Resolver
	recorder *trace.Recorder
	logger   *slog.Logger
}

// New creates an Engine for sess.
func New(sess *game.Session, d *director.Director, r *resolve.Resolver, rec *trace.Recorder, logger *slog.Logger) *Engine {
	return &Engine{
		session:  sess,
		director: d,
		resolver: r,
		recorder: rec,
		logger:   logger,
	}
}

// Process runs one full turn. Narrator and memory failures degrade the
// turn instead of failing it.
func (e *Engine) Process(ctx context.Context, command string) (Result, error) {
	command = strings.TrimSpace(command)
	if command == "" {
		return Result{}, ErrEmptyCommand
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	sess := e.session
	if sess.Player.IsDead() {
		return Result{}, ErrGameOver
	}

	e.logger.Info("player input",
		"session", sess.ID,
		"phase", sess.Phase(),
		"command", utils.Truncate(command, 80),
	)

	turn := e.director.Direct(ctx, sess, command)
	out := e.resolver.Apply(ctx, sess, turn.Raw, command)

	rec := &trace.Record{
		ID:        uuid.NewString(),
		SessionID: sess.ID,
		Template:  turn.Request.Template,
		Phase:     turn.Request.Phase.String(),
		Intent:    turn.Intent.String(),
		Prompt:    turn.Request.Prompt,
		Response:  turn.Raw,
		Output:    out.Text,
	}
	if turn.Err != nil {
		rec.Error = turn.Err.Error()
	}
	e.recorder.Record(ctx, rec)

	return Result{
		Text:       out.Text,
		Phase:      sess.Phase(),
		Intent:     turn.Intent,
		Transition: out.Transition,
		Degraded:   turn.Degraded,
		GameOver:   sess.Player.IsDead(),
	}, nil
}

// Snapshot copies the session state.
func (e *Engine) Snapshot() game.Snapshot {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.session.Snapshot()
}

// Restore replaces the session with snap, e.g. after loading a save.
func (e *Engine) Restore(snap game.Snapshot) error {
	sess, err := game.Restore(snap)
	if err != nil {
		return err
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	e.session = sess
	return nil
}
