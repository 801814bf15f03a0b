package eventstream

import (
	"time"

	"github.com/papercomputeco/tales/pkg/trace"
)

const (
	// SchemaVersionV1 is the first version of the event payload schema.
	SchemaVersionV1 = 1

	// EventTypeTurnResolved is emitted after a turn has been narrated and
	// applied.
	EventTypeTurnResolved = "tales.turn.resolved"
)

// TurnEvent is a transport-neutral event payload for a resolved turn.
type TurnEvent struct {
	SchemaVersion int          `json:"schema_version"`
	EventType     string       `json:"event_type"`
	EventID       string       `json:"event_id"`
	EmittedAt     time.Time    `json:"emitted_at"`
	Source        EventSource  `json:"source"`
	Turn          trace.Record `json:"turn"`
}

// EventSource identifies the world and narrator that produced the turn.
type EventSource struct {
	World    string `json:"world,omitempty"`
	Provider string `json:"provider"`
}

// NewTurnEvent wraps a trace record in a v1 event.
func NewTurnEvent(source EventSource, rec *trace.Record) *TurnEvent {
	return &TurnEvent{
		SchemaVersion: SchemaVersionV1,
		EventType:     EventTypeTurnResolved,
		EventID:       "evt_" + rec.ID,
		EmittedAt:     time.Now().UTC(),
		Source:        source,
		Turn:          *rec,
	}
}
