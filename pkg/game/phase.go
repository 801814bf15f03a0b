package game

import (
	"fmt"
	"strings"
)

// Phase is the mode a session is in. It selects how the director gathers
// context and which prompt it renders.
type Phase string

const (
	PhaseExploration Phase = "EXPLORATION"
	PhaseCombat      Phase = "COMBAT"
)

func (p Phase) String() string {
	return string(p)
}

// ParsePhase accepts a phase name in any case.
func ParsePhase(s string) (Phase, error) {
	switch Phase(strings.ToUpper(strings.TrimSpace(s))) {
	case PhaseExploration:
		return PhaseExploration, nil
	case PhaseCombat:
		return PhaseCombat, nil
	default:
		return "", fmt.Errorf("unknown game phase %q", s)
	}
}
