package bot

import (
	"sort"

	"github.com/lox/hokm/internal/deck"
)

// DiscardCount is how many cards the leader returns to the center
const DiscardCount = 4

// ChooseDiscards picks four hand indices to return to the center. Short
// suits without an Ace are voided first, shortest first; the rest is filled
// with the weakest plain cards under the default rank order.
func ChooseDiscards(hand []deck.Card) []int {
	chosen := make([]int, 0, DiscardCount)
	taken := make(map[int]bool, DiscardCount)

	type shortSuit struct {
		suit    deck.Suit
		indices []int
	}
	var shorts []shortSuit
	for _, suit := range deck.Suits {
		idx := indicesOfSuit(hand, suit)
		if len(idx) == 0 || len(idx) > 2 || hasRank(hand, idx, deck.Ace) {
			continue
		}
		shorts = append(shorts, shortSuit{suit: suit, indices: idx})
	}
	sort.SliceStable(shorts, func(i, j int) bool {
		return len(shorts[i].indices) < len(shorts[j].indices)
	})

voiding:
	for _, s := range shorts {
		for _, i := range s.indices {
			if len(chosen) == DiscardCount {
				break voiding
			}
			chosen = append(chosen, i)
			taken[i] = true
		}
	}

	if len(chosen) < DiscardCount {
		order := deck.DefaultMode.Order()
		rest := make([]int, 0, len(hand))
		for i := range hand {
			if !taken[i] {
				rest = append(rest, i)
			}
		}
		sort.SliceStable(rest, func(a, b int) bool {
			ca, cb := hand[rest[a]], hand[rest[b]]
			if ca.IsPoint() != cb.IsPoint() {
				return !ca.IsPoint()
			}
			return order.Strength(ca.Rank) < order.Strength(cb.Rank)
		})
		for _, i := range rest {
			if len(chosen) == DiscardCount {
				break
			}
			chosen = append(chosen, i)
		}
	}

	sort.Ints(chosen)
	return chosen
}

func hasRank(hand []deck.Card, indices []int, rank deck.Rank) bool {
	for _, i := range indices {
		if hand[i].Rank == rank {
			return true
		}
	}
	return false
}
