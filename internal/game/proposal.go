package game

import "github.com/lox/hokm/internal/bot"

// ValidBid reports whether value is an acceptable proposal given the
// current contract.
func ValidBid(value, contract int, hasLeader bool) bool {
	if value%bot.BidStep != 0 || value < bot.MinBid || value > bot.MaxBid {
		return false
	}
	if hasLeader {
		return value >= contract+bot.BidStep
	}
	return true
}

// Propose records a bid from the seat on turn
func (m *Match) Propose(seat, value int) ([]Event, error) {
	if err := m.checkTurn(PhasePropose, seat); err != nil {
		return nil, err
	}
	if m.Passed[seat] {
		return nil, ErrNotYourTurn
	}
	if !ValidBid(value, m.Contract, m.Leader >= 0) {
		return nil, ErrInvalidBid
	}
	m.Contract = value
	m.Leader = seat
	m.Proposals = append(m.Proposals, Proposal{Seat: seat, Value: value})
	m.Point++
	return []Event{{Type: EventProposal, Seat: seat, Value: value}}, nil
}

// Pass withdraws the seat on turn from the bidding
func (m *Match) Pass(seat int) ([]Event, error) {
	if err := m.checkTurn(PhasePropose, seat); err != nil {
		return nil, err
	}
	if m.Passed[seat] {
		return nil, ErrNotYourTurn
	}
	m.Passed[seat] = true
	m.Proposals = append(m.Proposals, Proposal{Seat: seat, Pass: true})
	m.Point++
	return []Event{{Type: EventPass, Seat: seat}}, nil
}

// ActiveProposers counts seats that have not passed this round
func (m *Match) ActiveProposers() int {
	n := 0
	for _, p := range m.Passed {
		if !p {
			n++
		}
	}
	return n
}

// AdvanceProposal moves the bidding on after a proposal or pass. It
// redeals when nobody holds a contract, closes the bidding when one seat
// remains, and otherwise passes the turn to the next active seat.
func (m *Match) AdvanceProposal() ([]Event, error) {
	if m.Phase != PhasePropose {
		return nil, ErrWrongPhase
	}
	active := m.ActiveProposers()
	if active == 0 || (active == 1 && m.Leader < 0) {
		m.deal()
		return []Event{{Type: EventRedeal, Seat: m.Turn}}, nil
	}
	if active == 1 {
		for s, passed := range m.Passed {
			if !passed {
				m.Leader = s
				break
			}
		}
		hand := append(m.Hands[m.Leader], m.Center...)
		sortDefault(hand)
		m.Hands[m.Leader] = hand
		m.Center = nil
		m.Phase = PhaseExchange
		m.Turn = m.Leader
		m.Point++
		return []Event{{Type: EventLeaderChosen, Seat: m.Leader, Value: m.Contract}}, nil
	}
	for i := 1; i <= SeatCount; i++ {
		next := (m.Turn + i) % SeatCount
		if !m.Passed[next] {
			m.Turn = next
			break
		}
	}
	m.Point++
	return nil, nil
}
