package deck

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/lox/hokm/internal/randutil"
)

func TestShuffledDeckIsPermutation(t *testing.T) {
	rng := randutil.New(42)
	for round := 0; round < 20; round++ {
		cards := ShuffledDeck(rng)
		assert.Len(t, cards, DeckSize)

		seen := make(map[Card]bool, DeckSize)
		for _, c := range cards {
			assert.False(t, seen[c], "duplicate card %s", c)
			seen[c] = true
		}
	}
}

func TestShuffledDeckDeterministicForSeed(t *testing.T) {
	a := ShuffledDeck(randutil.New(7))
	b := ShuffledDeck(randutil.New(7))
	c := ShuffledDeck(randutil.New(8))

	assert.Equal(t, a, b)
	assert.NotEqual(t, a, c)
}

func TestRankOrders(t *testing.T) {
	tests := []struct {
		mode      Mode
		weakest   Rank
		strongest Rank
		stronger  Rank
		weaker    Rank
	}{
		{Hokm, Two, Ace, King, Queen},
		{Sars, Two, Ace, Ten, Nine},
		{Nars, Ace, Two, Three, Four},
		{AsNars, King, Ace, Two, King},
	}

	for _, tt := range tests {
		t.Run(string(tt.mode), func(t *testing.T) {
			order := tt.mode.Order()
			assert.Equal(t, 0, order.Strength(tt.weakest))
			assert.Equal(t, 12, order.Strength(tt.strongest))
			assert.True(t, order.Beats(tt.stronger, tt.weaker))
			assert.False(t, order.Beats(tt.weaker, tt.stronger))
		})
	}

	// As-nars keeps Queen just below Ace.
	assert.Equal(t, 11, AsNars.Order().Strength(Queen))
}

func TestSortHand(t *testing.T) {
	hand := MustParseCards("2♣ A♥ K♠ 3♠ A♠ 10♥")

	SortHand(hand, Hokm)
	assert.Equal(t, MustParseCards("A♠ K♠ 3♠ A♥ 10♥ 2♣"), hand)

	SortHand(hand, Nars)
	assert.Equal(t, MustParseCards("3♠ K♠ A♠ 10♥ A♥ 2♣"), hand)

	SortHand(hand, AsNars)
	assert.Equal(t, MustParseCards("A♠ 3♠ K♠ A♥ 10♥ 2♣"), hand)
}

func TestParseMode(t *testing.T) {
	for _, m := range Modes {
		got, err := ParseMode(string(m))
		assert.NoError(t, err)
		assert.Equal(t, m, got)
	}
	_, err := ParseMode("trump")
	assert.Error(t, err)
	assert.False(t, Sars.HasTrump())
	assert.True(t, Nars.HasTrump())
}
