package game

import "github.com/lox/hokm/internal/deck"

// EventType names a transition
type EventType string

const (
	EventMatchStarted EventType = "match_started"
	EventRedeal       EventType = "redeal"
	EventProposal     EventType = "proposal"
	EventPass         EventType = "pass"
	EventLeaderChosen EventType = "leader_chosen"
	EventExchange     EventType = "exchange"
	EventModeSelected EventType = "mode_selected"
	EventCardPlayed   EventType = "card_played"
	EventTrickWon     EventType = "trick_won"
	EventMatchEnded   EventType = "match_ended"
	EventGameOver     EventType = "game_over"
	EventReset        EventType = "reset"
)

// Event describes one public transition. Fields not meaningful for a
// type are left zero.
type Event struct {
	Type    EventType    `json:"type"`
	Seat    int          `json:"seat"`
	Team    int          `json:"team,omitempty"`
	Value   int          `json:"value,omitempty"`
	Bonus   int          `json:"bonus,omitempty"`
	Number  int          `json:"number,omitempty"`
	Success bool         `json:"success,omitempty"`
	Mode    deck.Mode    `json:"mode,omitempty"`
	Suit    *deck.Suit   `json:"suit,omitempty"`
	Card    *deck.Card   `json:"card,omitempty"`
	Record  *MatchRecord `json:"record,omitempty"`
}

// HasEvent reports whether events contains an event of type t
func HasEvent(events []Event, t EventType) bool {
	for _, e := range events {
		if e.Type == t {
			return true
		}
	}
	return false
}
