package game

import (
	"github.com/lox/hokm/internal/bot"
	"github.com/lox/hokm/internal/deck"
	"github.com/lox/hokm/internal/rules"
)

// ActionKind names a seat decision
type ActionKind string

const (
	ActionPropose    ActionKind = "propose"
	ActionPass       ActionKind = "pass"
	ActionExchange   ActionKind = "exchange"
	ActionSelectMode ActionKind = "select_mode"
	ActionPlayCard   ActionKind = "play_card"
)

// Action is a decision submitted by, or on behalf of, the seat on turn
type Action struct {
	Kind    ActionKind `json:"kind"`
	Value   int        `json:"value,omitempty"`
	Indices []int      `json:"indices,omitempty"`
	Mode    deck.Mode  `json:"mode,omitempty"`
	Suit    *deck.Suit `json:"suit,omitempty"`
	Index   int        `json:"index,omitempty"`
}

// Apply performs a seat action and then every automatic step that
// follows from it: advancing the bidding, resolving a full trick and
// settling the match after the final trick. A rejected action leaves the
// match unchanged.
func (m *Match) Apply(seat int, a Action) ([]Event, error) {
	var (
		events []Event
		err    error
	)
	switch a.Kind {
	case ActionPropose:
		events, err = m.Propose(seat, a.Value)
	case ActionPass:
		events, err = m.Pass(seat)
	case ActionExchange:
		events, err = m.Exchange(seat, a.Indices)
	case ActionSelectMode:
		events, err = m.SelectMode(seat, a.Mode, a.Suit)
	case ActionPlayCard:
		events, err = m.PlayCard(seat, a.Index)
	default:
		return nil, ErrInvalidAction
	}
	if err != nil {
		return nil, err
	}
	more, err := m.progress()
	return append(events, more...), err
}

func (m *Match) progress() ([]Event, error) {
	switch m.Phase {
	case PhasePropose:
		return m.AdvanceProposal()
	case PhasePlaying:
		if len(m.Trick) < rules.TrickSize {
			return nil, nil
		}
		events, err := m.ResolveTrick()
		if err != nil || !m.Final {
			return events, err
		}
		ended, err := m.EndMatch()
		return append(events, ended...), err
	}
	return nil, nil
}

// AutoAction returns the decision engine's choice for the seat on turn.
// ok is false when the match is not waiting on a decision.
func AutoAction(m *Match) (seat int, a Action, ok bool) {
	if !m.Phase.Awaiting() {
		return -1, Action{}, false
	}
	a, ok = decide(m.Phase, m.Hands[m.Turn], m.Contract, m.Leader, m.Trick, m.Mode, m.MasterSuit, m.Turn)
	if !ok {
		return -1, Action{}, false
	}
	return m.Turn, a, true
}

// ViewAction returns the decision engine's choice from a seat's own view.
// It uses only what that seat can see, so a remote client reaches the
// same decision the room would make on its behalf.
func ViewAction(v SeatView) (Action, bool) {
	if !v.Phase.Awaiting() || v.Turn != v.Seat {
		return Action{}, false
	}
	return decide(v.Phase, v.Hand, v.Contract, v.Leader, v.Trick, v.Mode, v.MasterSuit, v.Seat)
}

func decide(phase Phase, hand []deck.Card, contract, leader int, trick []rules.Slot, mode deck.Mode, master *deck.Suit, seat int) (Action, bool) {
	switch phase {
	case PhasePropose:
		bid := bot.ChooseBid(hand, contract, leader >= 0)
		if bid.Pass {
			return Action{Kind: ActionPass}, true
		}
		return Action{Kind: ActionPropose, Value: bid.Value}, true
	case PhaseExchange:
		return Action{Kind: ActionExchange, Indices: bot.ChooseDiscards(hand)}, true
	case PhaseSelectMode:
		choice := bot.ChooseMode(hand)
		return Action{Kind: ActionSelectMode, Mode: choice.Mode, Suit: choice.Suit}, true
	case PhasePlaying:
		idx := bot.ChooseCard(hand, bot.PlayContext{
			Trick:      trick,
			Mode:       mode,
			MasterSuit: master,
			Seat:       seat,
			Leader:     leader,
		})
		return Action{Kind: ActionPlayCard, Index: idx}, true
	}
	return Action{}, false
}
