package engine

import (
	"context"
	"log/slog"
	"math/rand/v2"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/papercomputeco/tales/pkg/director"
	"github.com/papercomputeco/tales/pkg/game"
	"github.com/papercomputeco/tales/pkg/resolve"
	"github.com/papercomputeco/tales/pkg/trace"
	"github.com/papercomputeco/tales/pkg/world"
)

// DefaultPlayerName names a player who did not pick a name.
const DefaultPlayerName = "Adventurer"

// World places a new player somewhere.
type World interface {
	Enter(ctx context.Context, t world.Tables, r *rand.Rand) game.Location
}

// FactoryConfig holds the pieces shared by every session of one world.
type FactoryConfig struct {
	Director *director.Director
	Resolver *resolve.Resolver
	Recorder *trace.Recorder
	World    World
	Tables   world.Tables

	// Seed fixes location generation; zero seeds from the clock.
	Seed uint64

	Logger *slog.Logger
}

// Factory starts and resumes sessions of one world.
type Factory struct {
	cfg FactoryConfig

	mu  sync.Mutex
	rng *rand.Rand
}

// NewFactory creates a Factory.
func NewFactory(cfg FactoryConfig) *Factory {
	seed := cfg.Seed
	if seed == 0 {
		seed = uint64(time.Now().UnixNano()) //nolint:gosec // clock is non-negative
	}
	return &Factory{
		cfg: cfg,
		rng: rand.New(rand.NewPCG(seed, seed>>1|1)), //nolint:gosec // game randomness
	}
}

// NewGame creates a player, places them in a freshly described location and
// returns an engine for the new session.
func (f *Factory) NewGame(ctx context.Context, playerName string) *Engine {
	playerName = strings.TrimSpace(playerName)
	if playerName == "" {
		playerName = DefaultPlayerName
	}

	// Each session draws from its own stream so descriptions can run
	// concurrently.
	f.mu.Lock()
	r := rand.New(rand.NewPCG(f.rng.Uint64(), f.rng.Uint64())) //nolint:gosec // game randomness
	f.mu.Unlock()

	loc := f.cfg.World.Enter(ctx, f.cfg.Tables, r)
	sess := game.NewSession(uuid.NewString(), game.NewPlayer(playerName), loc)

	f.cfg.Logger.Info("session started",
		"session", sess.ID,
		"player", playerName,
		"location", loc.Name,
	)

	return f.engine(sess)
}

// Resume returns an engine for a saved session.
func (f *Factory) Resume(snap game.Snapshot) (*Engine, error) {
	sess, err := game.Restore(snap)
	if err != nil {
		return nil, err
	}
	return f.engine(sess), nil
}

func (f *Factory) engine(sess *game.Session) *Engine {
	return New(sess, f.cfg.Director, f.cfg.Resolver, f.cfg.Recorder, f.cfg.Logger)
}
