package deck

import (
	rand "math/rand/v2"
	"sort"
)

// DeckSize is the number of cards in a standard deck
const DeckSize = 52

// NewDeck returns the 52 cards in canonical (suit, ascending rank) order
func NewDeck() []Card {
	cards := make([]Card, 0, DeckSize)
	for _, suit := range Suits {
		for rank := Two; rank <= Ace; rank++ {
			cards = append(cards, NewCard(suit, rank))
		}
	}
	return cards
}

// ShuffledDeck returns a fresh deck in uniformly random order using a
// Fisher-Yates shuffle driven by rng.
func ShuffledDeck(rng *rand.Rand) []Card {
	cards := NewDeck()
	for i := len(cards) - 1; i > 0; i-- {
		j := rng.IntN(i + 1)
		cards[i], cards[j] = cards[j], cards[i]
	}
	return cards
}

// SortHand stable-sorts hand in place by canonical suit order, then by
// descending strength under the mode's rank order.
func SortHand(hand []Card, mode Mode) {
	order := mode.Order()
	sort.SliceStable(hand, func(i, j int) bool {
		if hand[i].Suit != hand[j].Suit {
			return hand[i].Suit < hand[j].Suit
		}
		return order.Strength(hand[i].Rank) > order.Strength(hand[j].Rank)
	})
}

// CountSuit returns how many cards of suit the hand holds
func CountSuit(hand []Card, suit Suit) int {
	n := 0
	for _, c := range hand {
		if c.Suit == suit {
			n++
		}
	}
	return n
}

// HasSuit reports whether any card in hand is of suit
func HasSuit(hand []Card, suit Suit) bool {
	for _, c := range hand {
		if c.Suit == suit {
			return true
		}
	}
	return false
}
