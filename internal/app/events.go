package app

import (
	"encoding/json"

	"whobible-live/internal/domain"
)

// EventKind labels session state-change events.
type EventKind string

const (
	// EventRoster fires when a player joins the lobby.
	EventRoster EventKind = "roster"
	// EventStarted fires once, when the host starts the quiz.
	EventStarted EventKind = "started"
	// EventQuestion fires when a question opens.
	EventQuestion EventKind = "question"
	// EventResults fires when a question closes and has been scored.
	EventResults EventKind = "results"
	// EventLeaderboard fires when the host advances to the leaderboard.
	EventLeaderboard EventKind = "leaderboard"
	// EventFinished fires once, with the final summary.
	EventFinished EventKind = "finished"
)

// Event is one state change of a session. Any listener (websocket client,
// test harness, bot player) consumes the same stream; rendering decisions
// stay with the consumer.
type Event struct {
	Kind      EventKind               `json:"kind"`
	Room      domain.Room             `json:"room"`
	Shortfall int                     `json:"shortfall,omitempty"` // on started
	Awards    map[string]domain.Award `json:"awards,omitempty"`    // on results
	Standings []domain.Standing       `json:"standings,omitempty"` // on results/leaderboard
	Summary   *domain.Summary         `json:"summary,omitempty"`   // on finished
}

// DecodeValue converts a store notification value into a typed target via a
// JSON round trip, so in-memory structs and backend-deserialized maps decode
// the same way.
func DecodeValue(value any, target any) error {
	data, err := json.Marshal(value)
	if err != nil {
		return err
	}
	return json.Unmarshal(data, target)
}
