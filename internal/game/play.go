package game

import (
	"slices"

	"github.com/lox/hokm/internal/bot"
	"github.com/lox/hokm/internal/deck"
	"github.com/lox/hokm/internal/rules"
)

func sortDefault(hand []deck.Card) {
	deck.SortHand(hand, deck.DefaultMode)
}

// Exchange discards four cards from the leader's merged hand into the center.
func (m *Match) Exchange(seat int, indices []int) ([]Event, error) {
	if err := m.checkTurn(PhaseExchange, seat); err != nil {
		return nil, err
	}
	if seat != m.Leader {
		return nil, ErrNotLeader
	}
	hand := m.Hands[seat]
	if len(indices) != bot.DiscardCount {
		return nil, ErrDiscardCount
	}
	sorted := slices.Clone(indices)
	slices.Sort(sorted)
	for i, idx := range sorted {
		if idx < 0 || idx >= len(hand) {
			return nil, ErrCardIndex
		}
		if i > 0 && sorted[i-1] == idx {
			return nil, ErrDiscardCount
		}
	}

	discards := make([]deck.Card, 0, len(sorted))
	for _, idx := range sorted {
		discards = append(discards, hand[idx])
	}
	kept := slices.Clone(hand)
	for i := len(sorted) - 1; i >= 0; i-- {
		kept = slices.Delete(kept, sorted[i], sorted[i]+1)
	}
	sortDefault(kept)
	m.Hands[seat] = kept
	m.Center = discards
	m.Phase = PhaseSelectMode
	m.Point++
	return []Event{{Type: EventExchange, Seat: seat}}, nil
}

// SelectMode fixes the rank order and trump suit for the match. suit is
// ignored for sars and required otherwise.
func (m *Match) SelectMode(seat int, mode deck.Mode, suit *deck.Suit) ([]Event, error) {
	if err := m.checkTurn(PhaseSelectMode, seat); err != nil {
		return nil, err
	}
	if seat != m.Leader {
		return nil, ErrNotLeader
	}
	if _, err := deck.ParseMode(string(mode)); err != nil {
		return nil, ErrInvalidMode
	}
	var master *deck.Suit
	if mode.HasTrump() {
		if suit == nil || !suit.Valid() {
			return nil, ErrInvalidSuit
		}
		s := *suit
		master = &s
	}
	m.Mode = mode
	m.MasterSuit = master
	for s := range m.Hands {
		deck.SortHand(m.Hands[s], mode)
	}
	m.Phase = PhasePlaying
	m.Turn = m.Leader
	m.Trick = nil
	m.Point++
	return []Event{{Type: EventModeSelected, Seat: seat, Mode: mode, Suit: master}}, nil
}

// LeadSuit returns the suit led in the current trick
func (m *Match) LeadSuit() (deck.Suit, bool) {
	if len(m.Trick) == 0 {
		return 0, false
	}
	return m.Trick[0].Card.Suit, true
}

// CanPlay reports whether the card at index is a legal play for seat
func (m *Match) CanPlay(seat, index int) error {
	if err := m.checkTurn(PhasePlaying, seat); err != nil {
		return err
	}
	if len(m.Trick) >= rules.TrickSize {
		return ErrTrickComplete
	}
	hand := m.Hands[seat]
	if index < 0 || index >= len(hand) {
		return ErrCardIndex
	}
	if lead, ok := m.LeadSuit(); ok && hand[index].Suit != lead && deck.HasSuit(hand, lead) {
		return ErrMustFollowSuit
	}
	return nil
}

// PlayCard plays the card at index from the seat's hand into the trick
func (m *Match) PlayCard(seat, index int) ([]Event, error) {
	if err := m.CanPlay(seat, index); err != nil {
		return nil, err
	}
	card := m.Hands[seat][index]
	m.Hands[seat] = slices.Delete(slices.Clone(m.Hands[seat]), index, index+1)
	m.Trick = append(m.Trick, rules.Slot{Seat: seat, Card: card})
	m.PlayLog = append(m.PlayLog, Play{Trick: m.TrickNo, Seat: seat, Card: card})
	m.Turn = (m.Turn + 1) % SeatCount
	m.Point++
	c := card
	return []Event{{Type: EventCardPlayed, Seat: seat, Card: &c}}, nil
}

// ResolveTrick scores a complete trick and hands the lead to its winner.
// The last trick of the match also takes the center stack.
func (m *Match) ResolveTrick() ([]Event, error) {
	if m.Phase != PhasePlaying {
		return nil, ErrWrongPhase
	}
	if len(m.Trick) != rules.TrickSize {
		return nil, ErrTrickIncomplete
	}
	winner, err := rules.TrickWinner(m.Trick, m.Mode, m.MasterSuit)
	if err != nil {
		return nil, err
	}
	cards := rules.Cards(m.Trick)
	team := TeamOf(winner)
	points := rules.ScoreCards(cards)
	m.RoundPoints[team] += points
	m.Collected[team] = append(m.Collected[team], cards...)
	m.LastTrick = m.Trick
	m.Trick = nil
	m.TrickNo++
	m.Turn = winner

	events := []Event{{Type: EventTrickWon, Seat: winner, Team: team, Value: points}}
	if m.handsEmpty() {
		bonus := rules.ScoreCards(m.Center)
		m.RoundPoints[team] += bonus
		m.Final = true
		events[0].Bonus = bonus
	}
	m.Point++
	return events, nil
}

func (m *Match) handsEmpty() bool {
	for _, h := range m.Hands {
		if len(h) > 0 {
			return false
		}
	}
	return true
}

// EndMatch settles the contract after the final trick and decides whether
// the game continues.
func (m *Match) EndMatch() ([]Event, error) {
	if m.Phase != PhasePlaying {
		return nil, ErrWrongPhase
	}
	if !m.Final || len(m.Trick) > 0 {
		return nil, ErrRoundNotOver
	}
	leaderTeam := TeamOf(m.Leader)
	otherTeam := 1 - leaderTeam
	success := m.RoundPoints[leaderTeam] >= m.Contract

	var delta [2]int
	if success {
		delta[leaderTeam] = m.RoundPoints[leaderTeam]
	} else {
		delta[leaderTeam] = -m.Contract
	}
	delta[otherTeam] = m.RoundPoints[otherTeam]
	m.Totals[0] += delta[0]
	m.Totals[1] += delta[1]

	record := MatchRecord{
		Number:      len(m.History) + 1,
		Leader:      m.Leader,
		Contract:    m.Contract,
		Mode:        m.Mode,
		MasterSuit:  m.MasterSuit,
		RoundPoints: m.RoundPoints,
		Success:     success,
		Delta:       delta,
		Totals:      m.Totals,
	}
	m.History = append(m.History, record)
	m.Opener = (m.Opener + 1) % SeatCount
	m.Point++

	events := []Event{{
		Type:    EventMatchEnded,
		Seat:    m.Leader,
		Team:    leaderTeam,
		Value:   m.Contract,
		Success: success,
		Record:  &record,
	}}
	if winner, over := m.gameWinner(leaderTeam); over {
		m.Phase = PhaseGameOver
		m.Winner = winner
		events = append(events, Event{Type: EventGameOver, Team: winner, Seat: -1})
		return events, nil
	}
	m.Phase = PhaseFinished
	m.clearReady()
	return events, nil
}

// gameWinner returns the team whose total reached the limit. When both
// did, the higher total wins and a tie goes to the contract team.
func (m *Match) gameWinner(leaderTeam int) (int, bool) {
	a, b := m.Totals[0] >= m.ScoreLimit, m.Totals[1] >= m.ScoreLimit
	switch {
	case a && b:
		if m.Totals[0] == m.Totals[1] {
			return leaderTeam, true
		}
		if m.Totals[0] > m.Totals[1] {
			return 0, true
		}
		return 1, true
	case a:
		return 0, true
	case b:
		return 1, true
	}
	return -1, false
}
