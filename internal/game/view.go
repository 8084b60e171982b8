package game

import (
	"slices"

	"github.com/lox/hokm/internal/deck"
	"github.com/lox/hokm/internal/rules"
)

// SeatView is the state visible to one seat: its own hand plus public
// information. Other seats' hands appear only as counts.
type SeatView struct {
	Code        string          `json:"code"`
	Seat        int             `json:"seat"`
	Phase       Phase           `json:"phase"`
	Players     []PlayerInfo    `json:"players"`
	Hand        []deck.Card     `json:"hand"`
	HandCounts  [SeatCount]int  `json:"handCounts"`
	CenterCount int             `json:"centerCount"`
	Center      []deck.Card     `json:"center,omitempty"`
	Turn        int             `json:"turn"`
	Leader      int             `json:"leader"`
	Opener      int             `json:"opener"`
	Contract    int             `json:"contract"`
	Mode        deck.Mode       `json:"mode"`
	MasterSuit  *deck.Suit      `json:"masterSuit,omitempty"`
	Trick       []rules.Slot    `json:"trick"`
	LastTrick   []rules.Slot    `json:"lastTrick,omitempty"`
	RoundPoints [2]int          `json:"roundPoints"`
	Totals      [2]int          `json:"totals"`
	ScoreLimit  int             `json:"scoreLimit"`
	Passed      [SeatCount]bool `json:"passed"`
	Proposals   []Proposal      `json:"proposals"`
	History     []MatchRecord   `json:"history,omitempty"`
	Winner      int             `json:"winner"`
	HasPassword bool            `json:"hasPassword"`
	RemainingMs int64           `json:"remainingMs"`
}

// ViewForSeat returns the redacted view for seat. Seats outside the table
// see only public information.
func (m *Match) ViewForSeat(seat int) SeatView {
	v := SeatView{
		Code:        m.Code,
		Seat:        seat,
		Phase:       m.Phase,
		Players:     m.PlayerList(),
		CenterCount: len(m.Center),
		Turn:        m.Turn,
		Leader:      m.Leader,
		Opener:      m.Opener,
		Contract:    m.Contract,
		Mode:        m.Mode,
		MasterSuit:  m.MasterSuit,
		Trick:       slices.Clone(m.Trick),
		LastTrick:   slices.Clone(m.LastTrick),
		RoundPoints: m.RoundPoints,
		Totals:      m.Totals,
		ScoreLimit:  m.ScoreLimit,
		Passed:      m.Passed,
		Proposals:   slices.Clone(m.Proposals),
		History:     slices.Clone(m.History),
		Winner:      m.Winner,
		HasPassword: m.Password != "",
	}
	for s, h := range m.Hands {
		v.HandCounts[s] = len(h)
	}
	if seat >= 0 && seat < SeatCount {
		v.Hand = slices.Clone(m.Hands[seat])
	}
	if m.centerVisible(seat) {
		v.Center = slices.Clone(m.Center)
	}
	return v
}

// centerVisible reports whether seat may see the center stack. The leader
// knows its own discards; everyone sees the stack once the match is over.
func (m *Match) centerVisible(seat int) bool {
	switch m.Phase {
	case PhaseSelectMode, PhasePlaying:
		return seat >= 0 && seat == m.Leader
	case PhaseFinished, PhaseGameOver:
		return true
	}
	return false
}
