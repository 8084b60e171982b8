// Package rules resolves tricks and scores collected cards.
package rules

import (
	"errors"

	"github.com/lox/hokm/internal/deck"
)

// TrickSize is the number of cards in a complete trick
const TrickSize = 4

// ErrIncompleteTrick is returned when resolving a trick without exactly four slots
var ErrIncompleteTrick = errors.New("trick must contain exactly 4 cards")

// Slot is one card played into a trick
type Slot struct {
	Seat int       `json:"seat"`
	Card deck.Card `json:"card"`
}

// Trump returns the effective trump suit: nil when the mode is played
// without trump or no master suit is set.
func Trump(mode deck.Mode, masterSuit *deck.Suit) *deck.Suit {
	if !mode.HasTrump() || masterSuit == nil {
		return nil
	}
	return masterSuit
}

// Beats reports whether challenger takes the trick from best, given the
// suit that was led and the effective trump (nil for none).
func Beats(challenger, best deck.Card, lead deck.Suit, mode deck.Mode, trump *deck.Suit) bool {
	order := mode.Order()
	if trump != nil {
		ct, bt := challenger.Suit == *trump, best.Suit == *trump
		switch {
		case ct && !bt:
			return true
		case ct && bt:
			return order.Beats(challenger.Rank, best.Rank)
		case bt:
			return false
		}
	}
	if challenger.Suit != lead || best.Suit != lead {
		return false
	}
	return order.Beats(challenger.Rank, best.Rank)
}

// Leading returns the index of the slot currently winning a partial or
// complete trick. It returns -1 for an empty trick.
func Leading(trick []Slot, mode deck.Mode, masterSuit *deck.Suit) int {
	if len(trick) == 0 {
		return -1
	}
	lead := trick[0].Card.Suit
	trump := Trump(mode, masterSuit)
	best := 0
	for i := 1; i < len(trick); i++ {
		if Beats(trick[i].Card, trick[best].Card, lead, mode, trump) {
			best = i
		}
	}
	return best
}

// TrickWinner returns the seat that wins a complete trick.
func TrickWinner(trick []Slot, mode deck.Mode, masterSuit *deck.Suit) (int, error) {
	if len(trick) != TrickSize {
		return -1, ErrIncompleteTrick
	}
	return trick[Leading(trick, mode, masterSuit)].Seat, nil
}

// Point values
const (
	TrickBonus = 5
	AcePoints  = 10
	TenPoints  = 10
	FivePoints = 5

	// TotalPoints is what one full deal is worth: 13 groups of four plus
	// the honor cards.
	TotalPoints = 165
)

// ScoreCards returns 5 per completed group of four cards plus 10 per Ace,
// 10 per Ten and 5 per Five.
func ScoreCards(cards []deck.Card) int {
	score := TrickBonus * (len(cards) / TrickSize)
	for _, c := range cards {
		score += CardPoints(c)
	}
	return score
}

// CardPoints returns the face value of a single card
func CardPoints(c deck.Card) int {
	switch c.Rank {
	case deck.Ace:
		return AcePoints
	case deck.Ten:
		return TenPoints
	case deck.Five:
		return FivePoints
	default:
		return 0
	}
}

// Cards extracts the played cards from trick slots
func Cards(trick []Slot) []deck.Card {
	cards := make([]deck.Card, len(trick))
	for i, s := range trick {
		cards[i] = s.Card
	}
	return cards
}
