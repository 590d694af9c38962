package models

import "time"

// Event types.
const (
	EventStatusChange = "STATUS_CHANGE"
	EventFirstSeen    = "FIRST_SEEN"
)

// SpotEvent is a single log entry.
type SpotEvent struct {
	EventID     string    `json:"event_id"`
	SpotID      string    `json:"spot_id"`
	OccurredAt  time.Time `json:"occurred_at"`
	Type        string    `json:"type"`        // FIRST_SEEN | STATUS_CHANGE
	Description string    `json:"description"` // human-readable
	Metadata    any       `json:"metadata,omitempty"`
}

// EventFilter narrows an event listing; zero fields are ignored.
type EventFilter struct {
	From   time.Time
	To     time.Time
	Type   string
	SpotID string
}
