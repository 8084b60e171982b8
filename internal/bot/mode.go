package bot

import "github.com/lox/hokm/internal/deck"

// ModeChoice is the outcome of ChooseMode. Suit is nil for sars.
type ModeChoice struct {
	Mode deck.Mode
	Suit *deck.Suit
}

// trumpCandidate picks the suit maximizing length*10 + honor strength.
// Ties resolve to the earliest suit in canonical order.
func trumpCandidate(hand []deck.Card) (deck.Suit, int) {
	best, bestScore, bestLen := deck.Spades, -1, 0
	for _, suit := range deck.Suits {
		n := deck.CountSuit(hand, suit)
		score := n*10 + suitStrength(hand, suit)
		if score > bestScore {
			best, bestScore, bestLen = suit, score, n
		}
	}
	return best, bestLen
}

// ChooseMode decides between a hokm contract on the best suit and a
// no-trump sars game for very weak hands.
func ChooseMode(hand []deck.Card) ModeChoice {
	suit, length := trumpCandidate(hand)
	strength := HandStrength(hand)

	hokm := ModeChoice{Mode: deck.Hokm, Suit: &suit}
	switch {
	case strength > 50:
		return hokm
	case strength > 30 && length >= 4:
		return hokm
	case strength < 20:
		return ModeChoice{Mode: deck.Sars}
	default:
		// Mid-range hands with a short candidate suit still take hokm.
		return hokm
	}
}
