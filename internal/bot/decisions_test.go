package bot

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lox/hokm/internal/deck"
	"github.com/lox/hokm/internal/randutil"
	"github.com/lox/hokm/internal/rules"
)

var (
	weakHand   = deck.MustParseCards("2♠ 3♠ 4♠ 2♥ 3♥ 4♥ 2♦ 3♦ 4♦ 2♣ 3♣ 5♣")
	middleHand = deck.MustParseCards("A♠ K♠ Q♠ J♠ 2♠ 3♥ 4♥ 5♥ 6♦ 7♦ 8♣ 9♣")
	strongHand = deck.MustParseCards("A♠ K♠ Q♠ J♠ 10♠ 9♠ A♥ K♥ A♦ K♦ A♣ K♣")
)

func suitPtr(s deck.Suit) *deck.Suit { return &s }

func TestHandStrength(t *testing.T) {
	assert.Equal(t, 0.0, HandStrength(weakHand))
	assert.Equal(t, 35.0, HandStrength(middleHand))
	assert.Equal(t, 92.5, HandStrength(strongHand))

	// Clamped at 100.
	all := deck.NewDeck()
	assert.Equal(t, 100.0, HandStrength(all))
}

func TestChooseBid(t *testing.T) {
	tests := []struct {
		name      string
		hand      []deck.Card
		contract  int
		hasLeader bool
		want      Bid
	}{
		{"weak hand passes", weakHand, 100, false, Bid{Pass: true}},
		{"opening bid is the minimum", middleHand, 100, false, Bid{Value: 100}},
		{"raises by one step", middleHand, 105, true, Bid{Value: 110}},
		{"stops at ceiling", middleHand, 110, true, Bid{Pass: true}},
		{"strong hand reaches 165", strongHand, 160, true, Bid{Value: 165}},
		{"nothing above 165", strongHand, 165, true, Bid{Pass: true}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ChooseBid(tt.hand, tt.contract, tt.hasLeader)
			assert.Equal(t, tt.want, got)
			if !got.Pass {
				assert.Zero(t, got.Value%BidStep)
				assert.GreaterOrEqual(t, got.Value, MinBid)
				assert.LessOrEqual(t, got.Value, MaxBid)
			}
		})
	}
}

func TestChooseDiscards(t *testing.T) {
	tests := []struct {
		name string
		hand string
		want []int
	}{
		{
			name: "voids aceless doubleton then weakest plain cards",
			hand: "A♠ K♠ Q♠ J♠ 9♠ A♥ K♥ Q♥ J♥ 9♥ 2♦ 3♦ 4♣ A♣ 7♥ 8♥",
			want: []int{10, 11, 12, 14},
		},
		{
			name: "doubletons in suit order",
			hand: "A♠ K♠ Q♠ J♠ 10♠ 9♠ 8♠ 7♠ 6♠ 5♠ 2♦ 3♦ 4♣ 6♣ 7♥ 8♥",
			want: []int{10, 11, 14, 15},
		},
		{
			name: "singleton before doubletons",
			hand: "A♠ K♠ Q♠ J♠ 10♠ 9♠ 8♠ 7♠ 6♠ 5♠ 4♠ 2♥ 3♥ 2♦ 3♦ 4♣",
			want: []int{11, 12, 13, 15},
		},
		{
			name: "point cards kept when possible",
			hand: "A♠ 5♠ 10♠ 2♠ A♥ 5♥ 10♥ 2♥ A♦ 5♦ 10♦ 3♦ A♣ 5♣ 10♣ 4♣",
			want: []int{3, 7, 11, 15},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			hand := deck.MustParseCards(tt.hand)
			require.Len(t, hand, 16)
			assert.Equal(t, tt.want, ChooseDiscards(hand))
		})
	}
}

func TestChooseMode(t *testing.T) {
	got := ChooseMode(strongHand)
	require.NotNil(t, got.Suit)
	assert.Equal(t, deck.Hokm, got.Mode)
	assert.Equal(t, deck.Spades, *got.Suit)

	assert.Equal(t, ModeChoice{Mode: deck.Sars}, ChooseMode(weakHand))

	// 30 < strength <= 50 with a short candidate suit still falls back to hokm.
	balanced := deck.MustParseCards("A♠ K♠ 2♠ A♥ 2♥ 3♥ A♦ 3♦ 4♦ 5♣ 6♣ 7♣")
	require.Equal(t, 37.5, HandStrength(balanced))
	got = ChooseMode(balanced)
	require.NotNil(t, got.Suit)
	assert.Equal(t, deck.Hokm, got.Mode)
	assert.Equal(t, deck.Spades, *got.Suit)
}

func TestChooseCardLead(t *testing.T) {
	hearts := suitPtr(deck.Hearts)
	tests := []struct {
		name   string
		hand   string
		mode   deck.Mode
		master *deck.Suit
		want   int
	}{
		{"first qualifying trump in hand order", "2♥ Q♥ A♥ 3♥ K♠ 4♣", deck.Hokm, hearts, 1},
		{"top of strongest side suit", "2♥ 3♥ K♠ 4♠ Q♣ J♣ 5♦", deck.Hokm, hearts, 2},
		{"weakest of shortest side suit", "2♥ 3♥ Q♠ 4♠ 9♣ 8♣ 5♣ 6♦", deck.Hokm, hearts, 7},
		{"only trumps left", "2♥ 3♥", deck.Hokm, hearts, 0},
		{"sars has no trump", "2♠ A♣", deck.Sars, hearts, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			hand := deck.MustParseCards(tt.hand)
			got := ChooseCard(hand, PlayContext{Mode: tt.mode, MasterSuit: tt.master, Seat: 0, Leader: 0})
			assert.Equal(t, tt.want, got)
		})
	}
}

func slots(t *testing.T, seats []int, cards string) []rules.Slot {
	t.Helper()
	parsed := deck.MustParseCards(cards)
	require.Len(t, parsed, len(seats))
	out := make([]rules.Slot, len(seats))
	for i := range seats {
		out[i] = rules.Slot{Seat: seats[i], Card: parsed[i]}
	}
	return out
}

func TestChooseCardFollow(t *testing.T) {
	hearts := suitPtr(deck.Hearts)
	tests := []struct {
		name  string
		hand  string
		seats []int
		trick string
		mode  deck.Mode
		seat  int
		want  int
	}{
		{"partner winning plays low", "A♠ 4♠ 9♦", []int{0, 1}, "K♠ 3♠", deck.Hokm, 2, 1},
		{"overtakes when possible", "Q♠ 4♠ A♠", []int{0}, "K♠", deck.Hokm, 1, 2},
		{"minimal overtake", "A♠ 10♠ K♠ 2♠", []int{0}, "9♠", deck.Hokm, 1, 1},
		{"cannot beat plays low", "Q♠ 4♠", []int{0}, "K♠", deck.Hokm, 1, 1},
		{"withholds trump on cheap trick", "2♥ 7♥ 3♦ A♣", []int{0}, "9♠", deck.Hokm, 1, 2},
		{"trumps a valuable trick low", "K♥ 7♥ 3♦", []int{0, 1, 2}, "A♠ 10♠ 3♠", deck.Hokm, 3, 1},
		{"overtrumps minimally", "K♥ 7♥ 10♥ 3♦", []int{0, 1, 2}, "A♠ 2♠ 9♥", deck.Hokm, 3, 2},
		{"cannot overtrump withholds", "7♥ 8♥ 3♦ A♣", []int{0, 1, 2}, "A♠ 2♠ 9♥", deck.Hokm, 3, 2},
		{"void everywhere protects points", "A♥ 2♦ 5♣ 10♦", []int{0}, "9♠", deck.Sars, 1, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			hand := deck.MustParseCards(tt.hand)
			pc := PlayContext{
				Trick:      slots(t, tt.seats, tt.trick),
				Mode:       tt.mode,
				MasterSuit: hearts,
				Seat:       tt.seat,
				Leader:     tt.seats[0],
			}
			assert.Equal(t, tt.want, ChooseCard(hand, pc))
		})
	}
}

func TestChooseCardEmptyHand(t *testing.T) {
	assert.Equal(t, -1, ChooseCard(nil, PlayContext{Mode: deck.Hokm}))
}

// Every choice is deterministic and follows suit when the hand can.
func TestChooseCardDeterministicAndLegal(t *testing.T) {
	rng := randutil.New(11)
	for i := 0; i < 500; i++ {
		cards := deck.ShuffledDeck(rng)
		hand := cards[:12]
		played := 1 + rng.IntN(3)
		trick := make([]rules.Slot, played)
		for s := 0; s < played; s++ {
			trick[s] = rules.Slot{Seat: s, Card: cards[12+s]}
		}
		master := deck.Suits[rng.IntN(4)]
		mode := deck.Modes[rng.IntN(len(deck.Modes))]
		pc := PlayContext{Trick: trick, Mode: mode, MasterSuit: &master, Seat: played, Leader: 0}

		a := ChooseCard(hand, pc)
		b := ChooseCard(hand, pc)
		require.Equal(t, a, b)
		require.GreaterOrEqual(t, a, 0)
		require.Less(t, a, len(hand))

		lead := trick[0].Card.Suit
		if deck.HasSuit(hand, lead) {
			require.Equal(t, lead, hand[a].Suit, "hand=%v trick=%v", hand, trick)
		}

		d := ChooseDiscards(append(append([]deck.Card{}, hand...), cards[40:44]...))
		require.Len(t, d, DiscardCount)
		seen := map[int]bool{}
		for _, idx := range d {
			require.False(t, seen[idx])
			require.Less(t, idx, 16)
			seen[idx] = true
		}
	}
}
