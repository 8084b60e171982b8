package bot

import (
	"github.com/lox/hokm/internal/deck"
	"github.com/lox/hokm/internal/rules"
)

// PlayContext is the public trick state seen by the seat choosing a card.
type PlayContext struct {
	Trick      []rules.Slot
	Mode       deck.Mode
	MasterSuit *deck.Suit
	Seat       int
	Leader     int
}

// Partner returns the teammate of seat
func Partner(seat int) int {
	return (seat + 2) % 4
}

// ChooseCard returns the index of the card to play from hand. The choice
// always follows suit when the hand can.
func ChooseCard(hand []deck.Card, pc PlayContext) int {
	if len(hand) == 0 {
		return -1
	}
	trump := rules.Trump(pc.Mode, pc.MasterSuit)
	if len(pc.Trick) == 0 {
		return chooseLead(hand, pc.Mode, trump)
	}
	return chooseFollow(hand, pc, trump)
}

func chooseLead(hand []deck.Card, mode deck.Mode, trump *deck.Suit) int {
	order := mode.Order()

	if trump != nil {
		trumps := indicesOfSuit(hand, *trump)
		if len(trumps) >= 3 {
			// First qualifying trump in hand order, not necessarily the highest.
			for _, i := range trumps {
				if order.Strength(hand[i].Rank) >= order.Strength(deck.Queen) {
					return i
				}
			}
		}
	}

	bestSuit, bestStrength := -1, -1
	for _, suit := range deck.Suits {
		if isTrump(suit, trump) || !deck.HasSuit(hand, suit) {
			continue
		}
		if s := suitStrength(hand, suit); s > bestStrength {
			bestSuit, bestStrength = int(suit), s
		}
	}
	if bestSuit >= 0 {
		top := strongestOf(hand, indicesOfSuit(hand, deck.Suit(bestSuit)), order)
		if order.Strength(hand[top].Rank) >= order.Strength(deck.King) {
			return top
		}
	}

	var shortest []int
	for _, suit := range deck.Suits {
		if isTrump(suit, trump) {
			continue
		}
		idx := indicesOfSuit(hand, suit)
		if len(idx) > 0 && (shortest == nil || len(idx) < len(shortest)) {
			shortest = idx
		}
	}
	if shortest != nil {
		return weakestOf(hand, shortest, order)
	}

	return 0
}

func chooseFollow(hand []deck.Card, pc PlayContext, trump *deck.Suit) int {
	order := pc.Mode.Order()
	lead := pc.Trick[0].Card.Suit

	bestSeat, bestCard := -1, deck.Card{}
	for _, s := range pc.Trick {
		if s.Card.Suit != lead {
			continue
		}
		if bestSeat == -1 || order.Beats(s.Card.Rank, bestCard.Rank) {
			bestSeat, bestCard = s.Seat, s.Card
		}
	}
	partnerWinning := bestSeat == Partner(pc.Seat) && len(pc.Trick) >= 2

	if following := indicesOfSuit(hand, lead); len(following) > 0 {
		if partnerWinning {
			return weakestOf(hand, following, order)
		}
		var beaters []int
		for _, i := range following {
			if order.Beats(hand[i].Rank, bestCard.Rank) {
				beaters = append(beaters, i)
			}
		}
		if len(beaters) > 0 {
			return weakestOf(hand, beaters, order)
		}
		return weakestOf(hand, following, order)
	}

	if trump != nil {
		if trumps := indicesOfSuit(hand, *trump); len(trumps) > 0 {
			withhold := func() int { return weakestNonTrump(hand, *trump, order) }

			if partnerWinning {
				return withhold()
			}
			pointsOnTable := rules.ScoreCards(rules.Cards(pc.Trick))
			if pointsOnTable < 10 && len(pc.Trick) < 3 {
				return withhold()
			}

			bestTrump, trumped := deck.Card{}, false
			for _, s := range pc.Trick {
				if s.Card.Suit != *trump {
					continue
				}
				if !trumped || order.Beats(s.Card.Rank, bestTrump.Rank) {
					bestTrump, trumped = s.Card, true
				}
			}
			if !trumped {
				return weakestOf(hand, trumps, order)
			}
			var over []int
			for _, i := range trumps {
				if order.Beats(hand[i].Rank, bestTrump.Rank) {
					over = append(over, i)
				}
			}
			if len(over) > 0 {
				return weakestOf(hand, over, order)
			}
			return withhold()
		}
	}

	return weakestDiscard(hand, allIndices(hand), order)
}

// weakestNonTrump discards the cheapest non-trump card, falling back to the
// whole hand when only trumps remain.
func weakestNonTrump(hand []deck.Card, trump deck.Suit, order deck.RankOrder) int {
	var rest []int
	for i, c := range hand {
		if c.Suit != trump {
			rest = append(rest, i)
		}
	}
	if len(rest) == 0 {
		return weakestDiscard(hand, allIndices(hand), order)
	}
	return weakestDiscard(hand, rest, order)
}

func isTrump(suit deck.Suit, trump *deck.Suit) bool {
	return trump != nil && suit == *trump
}
