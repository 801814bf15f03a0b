// Package game holds the mutable state of one adventure: the player, where
// they are, the phase and the combat log.
//
// The phase and log only change through Session.Transition so the log is
// cleared exactly when the phase boundary is crossed.
package game

import (
	"fmt"
	"slices"
)

// Session is one player's game. It is not safe for concurrent use; the
// engine runs one turn at a time.
type Session struct {
	ID       string
	Player   *Player
	Location Location

	phase Phase
	log   []string
}

// NewSession starts in exploration with an empty log.
func NewSession(id string, player *Player, location Location) *Session {
	return &Session{
		ID:       id,
		Player:   player,
		Location: location,
		phase:    PhaseExploration,
	}
}

// Phase returns the current phase.
func (s *Session) Phase() Phase {
	return s.phase
}

// Log returns a copy of the short-term combat log.
func (s *Session) Log() []string {
	return slices.Clone(s.log)
}

// Transition moves to phase to and clears the log. Entering combat seeds
// the log with the location it started in. Transitioning to the current
// phase is a no-op and reports false.
func (s *Session) Transition(to Phase) bool {
	if to == s.phase {
		return false
	}
	s.phase = to
	s.log = nil
	if to == PhaseCombat {
		s.log = append(s.log, fmt.Sprintf("combat started in location %s", s.Location.Name))
	}
	return true
}

// Record appends an entry to the combat log. Outside combat it does nothing.
func (s *Session) Record(entries ...string) {
	if s.phase != PhaseCombat {
		return
	}
	s.log = append(s.log, entries...)
}

// Snapshot is the serializable form of a session.
type Snapshot struct {
	ID       string   `json:"id"`
	Player   *Player  `json:"player"`
	Location Location `json:"location"`
	Phase    Phase    `json:"phase"`
	Log      []string `json:"log,omitempty"`
}

// Snapshot copies the session state.
func (s *Session) Snapshot() Snapshot {
	return Snapshot{
		ID:       s.ID,
		Player:   s.Player.Clone(),
		Location: s.Location,
		Phase:    s.phase,
		Log:      s.Log(),
	}
}

// Restore rebuilds a session from a snapshot. The log is kept only in
// combat.
func Restore(snap Snapshot) (*Session, error) {
	if snap.Player == nil {
		return nil, fmt.Errorf("snapshot %s has no player", snap.ID)
	}
	phase, err := ParsePhase(string(snap.Phase))
	if err != nil {
		return nil, err
	}

	s := NewSession(snap.ID, snap.Player.Clone(), snap.Location)
	s.phase = phase
	if phase == PhaseCombat {
		s.log = slices.Clone(snap.Log)
	}
	return s, nil
}
