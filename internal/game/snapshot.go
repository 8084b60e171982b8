package game

import (
	"encoding/json"
	"fmt"
	rand "math/rand/v2"

	"github.com/lox/hokm/internal/bot"
	"github.com/lox/hokm/internal/deck"
	"github.com/lox/hokm/internal/randutil"
	"github.com/lox/hokm/internal/rules"
)

// Restore rebuilds a Match from a snapshot produced by Room.Snapshot or the
// OnChange hook. The result carries no timer; the owner re-arms it.
func Restore(data []byte, rng *rand.Rand) (*Match, error) {
	var m Match
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidSnapshot, err)
	}
	if err := m.validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidSnapshot, err)
	}
	if rng == nil {
		rng = randutil.New(randutil.Seed(nil))
	}
	m.rng = rng
	return &m, nil
}

func (m *Match) validate() error {
	if m.Code == "" {
		return fmt.Errorf("missing room code")
	}
	if len(m.Players) == 0 || len(m.Players) > SeatCount {
		return fmt.Errorf("bad player count %d", len(m.Players))
	}
	if !ValidScoreLimit(m.ScoreLimit) {
		return fmt.Errorf("bad score limit %d", m.ScoreLimit)
	}
	switch m.Phase {
	case PhaseWait, PhasePropose, PhaseExchange, PhaseSelectMode, PhasePlaying, PhaseFinished, PhaseGameOver:
	default:
		return fmt.Errorf("unknown phase %q", m.Phase)
	}
	if _, err := deck.ParseMode(string(m.Mode)); err != nil {
		return err
	}
	if m.Contract < bot.MinBid || m.Contract > bot.MaxBid {
		return fmt.Errorf("contract %d out of range", m.Contract)
	}
	if m.Winner < -1 || m.Winner > 1 {
		return fmt.Errorf("bad winner %d", m.Winner)
	}
	if !inSeat(m.Opener) {
		return fmt.Errorf("bad opener %d", m.Opener)
	}
	if !m.Phase.Awaiting() {
		return nil
	}

	if len(m.Players) != SeatCount {
		return fmt.Errorf("phase %s needs four players", m.Phase)
	}
	if !inSeat(m.Turn) {
		return fmt.Errorf("bad turn %d", m.Turn)
	}
	if m.Leader < -1 || m.Leader >= SeatCount || (m.Phase != PhasePropose && m.Leader < 0) {
		return fmt.Errorf("bad leader %d", m.Leader)
	}
	if m.Phase == PhasePlaying && m.Mode.HasTrump() && m.MasterSuit == nil {
		return fmt.Errorf("mode %s without trump suit", m.Mode)
	}
	if len(m.Trick) > rules.TrickSize {
		return fmt.Errorf("trick holds %d cards", len(m.Trick))
	}
	for _, s := range m.Trick {
		if !inSeat(s.Seat) {
			return fmt.Errorf("bad trick seat %d", s.Seat)
		}
	}
	return m.checkPartition()
}

// checkPartition verifies that hands, trick, collected piles and the center
// stack hold every card of the deck exactly once.
func (m *Match) checkPartition() error {
	seen := make(map[deck.Card]bool, deck.DeckSize)
	add := func(cards []deck.Card) error {
		for _, c := range cards {
			if !c.Suit.Valid() || !c.Rank.Valid() {
				return fmt.Errorf("invalid card %v", c)
			}
			if seen[c] {
				return fmt.Errorf("duplicate card %s", c)
			}
			seen[c] = true
		}
		return nil
	}
	for _, h := range m.Hands {
		if err := add(h); err != nil {
			return err
		}
	}
	for _, pile := range m.Collected {
		if err := add(pile); err != nil {
			return err
		}
	}
	if err := add(rules.Cards(m.Trick)); err != nil {
		return err
	}
	if err := add(m.Center); err != nil {
		return err
	}
	if len(seen) != deck.DeckSize {
		return fmt.Errorf("snapshot holds %d cards", len(seen))
	}
	return nil
}

func inSeat(seat int) bool {
	return seat >= 0 && seat < SeatCount
}
