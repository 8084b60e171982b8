package deck

import "fmt"

// Mode is the game mode chosen by the contract leader. Each mode carries
// its own rank order.
type Mode string

const (
	// Hokm is a trump game with standard ascending ranks.
	Hokm Mode = "hokm"
	// Nars is a trump game with fully reversed ranks (Ace weakest, 2 strongest).
	Nars Mode = "nars"
	// AsNars demotes only the King: K weakest, then 2..Q, Ace strongest.
	AsNars Mode = "asNars"
	// Sars is played without trump using standard ascending ranks.
	Sars Mode = "sars"
)

// Modes lists every mode
var Modes = []Mode{Hokm, Nars, AsNars, Sars}

// DefaultMode is the rank order used before a mode has been selected
const DefaultMode = Hokm

// ParseMode validates a mode name
func ParseMode(s string) (Mode, error) {
	for _, m := range Modes {
		if string(m) == s {
			return m, nil
		}
	}
	return "", fmt.Errorf("invalid mode: %q", s)
}

// HasTrump reports whether the mode allows a trump suit
func (m Mode) HasTrump() bool {
	return m != Sars
}

// String returns the mode name
func (m Mode) String() string {
	return string(m)
}

// RankOrder lists the thirteen ranks from weakest to strongest.
type RankOrder struct {
	name     string
	ranks    [13]Rank
	strength [Ace + 1]int
}

func newRankOrder(name string, ranks [13]Rank) RankOrder {
	o := RankOrder{name: name, ranks: ranks}
	for i, r := range ranks {
		o.strength[r] = i
	}
	return o
}

var (
	ascendingOrder = newRankOrder("ascending", [13]Rank{
		Two, Three, Four, Five, Six, Seven, Eight, Nine, Ten, Jack, Queen, King, Ace,
	})
	reversedOrder = newRankOrder("reversed", [13]Rank{
		Ace, King, Queen, Jack, Ten, Nine, Eight, Seven, Six, Five, Four, Three, Two,
	})
	kingLowOrder = newRankOrder("king-low", [13]Rank{
		King, Two, Three, Four, Five, Six, Seven, Eight, Nine, Ten, Jack, Queen, Ace,
	})
)

// Order returns the rank order for the mode. Unknown modes use the
// standard ascending order.
func (m Mode) Order() RankOrder {
	switch m {
	case Nars:
		return reversedOrder
	case AsNars:
		return kingLowOrder
	default:
		return ascendingOrder
	}
}

// Strength returns 0 for the weakest rank up to 12 for the strongest.
func (o RankOrder) Strength(r Rank) int {
	if !r.Valid() {
		return -1
	}
	return o.strength[r]
}

// Beats reports whether rank a is stronger than rank b
func (o RankOrder) Beats(a, b Rank) bool {
	return o.Strength(a) > o.Strength(b)
}

// Ranks returns the ranks from weakest to strongest
func (o RankOrder) Ranks() [13]Rank {
	return o.ranks
}

func (o RankOrder) String() string {
	return o.name
}
