package bot

import "github.com/lox/hokm/internal/deck"

// Contract bounds shared with the room's legality checks
const (
	MinBid  = 100
	MaxBid  = 165
	BidStep = 5
)

// Bid is the outcome of ChooseBid
type Bid struct {
	Pass  bool
	Value int
}

// bidCeiling maps hand strength to the highest contract the bot is willing
// to hold. ok is false when the hand is too weak to bid at all.
func bidCeiling(strength float64) (ceiling int, ok bool) {
	switch {
	case strength < 20:
		return 0, false
	case strength < 40:
		return 110, true
	case strength < 60:
		return 125, true
	case strength < 80:
		return 145, true
	default:
		return 165, true
	}
}

// ChooseBid raises by the smallest legal increment while the hand's ceiling
// allows it, and passes otherwise.
func ChooseBid(hand []deck.Card, currentContract int, hasLeader bool) Bid {
	minimum := MinBid
	if hasLeader {
		minimum = currentContract + BidStep
	}
	ceiling, ok := bidCeiling(HandStrength(hand))
	if !ok || ceiling < minimum || minimum > MaxBid {
		return Bid{Pass: true}
	}
	return Bid{Value: minimum}
}
