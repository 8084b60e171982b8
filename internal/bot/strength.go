// Package bot holds the automated player: pure heuristics that choose a
// bid, discards, a mode or a card from what one seat can see. Nothing here
// keeps state, so the functions are safe to call from any number of rooms.
package bot

import (
	"math"

	"github.com/lox/hokm/internal/deck"
)

// HandStrength scores a hand from 0 to 100. Honors count A=4, K=3, Q=2,
// J=1; a suit of four or more adds 2 and every card past the fourth adds 2.
func HandStrength(hand []deck.Card) float64 {
	raw := 0
	for _, c := range hand {
		raw += honorPoints(c.Rank)
	}
	for _, suit := range deck.Suits {
		n := deck.CountSuit(hand, suit)
		if n >= 5 {
			raw += (n - 4) * 2
		}
		if n >= 4 {
			raw += 2
		}
	}
	return math.Min(100, 2.5*float64(raw))
}

func honorPoints(r deck.Rank) int {
	switch {
	case r == deck.Ace:
		return 4
	case r == deck.King:
		return 3
	case r == deck.Queen:
		return 2
	case r == deck.Jack:
		return 1
	default:
		return 0
	}
}

// suitStrength sums honor points of the hand's cards in suit
func suitStrength(hand []deck.Card, suit deck.Suit) int {
	total := 0
	for _, c := range hand {
		if c.Suit == suit {
			total += honorPoints(c.Rank)
		}
	}
	return total
}

// indicesOfSuit returns hand positions holding suit, in hand order
func indicesOfSuit(hand []deck.Card, suit deck.Suit) []int {
	var out []int
	for i, c := range hand {
		if c.Suit == suit {
			out = append(out, i)
		}
	}
	return out
}

// weakestOf returns the index among candidates with the lowest strength
// under order; ties keep the earliest candidate. Returns -1 if empty.
func weakestOf(hand []deck.Card, candidates []int, order deck.RankOrder) int {
	best := -1
	for _, i := range candidates {
		if best == -1 || order.Strength(hand[i].Rank) < order.Strength(hand[best].Rank) {
			best = i
		}
	}
	return best
}

// strongestOf mirrors weakestOf
func strongestOf(hand []deck.Card, candidates []int, order deck.RankOrder) int {
	best := -1
	for _, i := range candidates {
		if best == -1 || order.Strength(hand[i].Rank) > order.Strength(hand[best].Rank) {
			best = i
		}
	}
	return best
}

// pointPenalty pushes point cards behind every plain card when picking a discard.
const pointPenalty = 20

// weakestDiscard picks the cheapest card to throw away among candidates:
// lowest rank strength, with point cards penalized.
func weakestDiscard(hand []deck.Card, candidates []int, order deck.RankOrder) int {
	best, bestScore := -1, 0
	for _, i := range candidates {
		score := order.Strength(hand[i].Rank)
		if hand[i].IsPoint() {
			score += pointPenalty
		}
		if best == -1 || score < bestScore {
			best, bestScore = i, score
		}
	}
	return best
}

func allIndices(hand []deck.Card) []int {
	out := make([]int, len(hand))
	for i := range hand {
		out[i] = i
	}
	return out
}
