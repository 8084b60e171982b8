package deck

import (
	"fmt"
	"strings"
)

// Suit represents a card suit. The declaration order is the canonical
// display order used when sorting hands.
type Suit int

const (
	Spades Suit = iota
	Hearts
	Diamonds
	Clubs
)

// Suits lists every suit in canonical order.
var Suits = [4]Suit{Spades, Hearts, Diamonds, Clubs}

// String returns the symbol for a suit
func (s Suit) String() string {
	switch s {
	case Spades:
		return "♠"
	case Hearts:
		return "♥"
	case Diamonds:
		return "♦"
	case Clubs:
		return "♣"
	default:
		return "?"
	}
}

// IsRed returns true if the suit is red (Hearts or Diamonds)
func (s Suit) IsRed() bool {
	return s == Hearts || s == Diamonds
}

// Valid reports whether s is one of the four suits
func (s Suit) Valid() bool {
	return s >= Spades && s <= Clubs
}

// ParseSuit accepts a suit symbol, a single letter (s/h/d/c) or the suit name.
func ParseSuit(s string) (Suit, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "♠", "s", "spades":
		return Spades, nil
	case "♥", "h", "hearts":
		return Hearts, nil
	case "♦", "d", "diamonds":
		return Diamonds, nil
	case "♣", "c", "clubs":
		return Clubs, nil
	}
	return 0, fmt.Errorf("invalid suit: %q", s)
}

func (s Suit) MarshalText() ([]byte, error) {
	if !s.Valid() {
		return nil, fmt.Errorf("invalid suit: %d", int(s))
	}
	return []byte(s.String()), nil
}

func (s *Suit) UnmarshalText(b []byte) error {
	parsed, err := ParseSuit(string(b))
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}

// Rank represents a card rank
type Rank int

const (
	Two Rank = iota + 2
	Three
	Four
	Five
	Six
	Seven
	Eight
	Nine
	Ten
	Jack
	Queen
	King
	Ace
)

// String returns the string representation of a rank
func (r Rank) String() string {
	switch r {
	case Two, Three, Four, Five, Six, Seven, Eight, Nine, Ten:
		return fmt.Sprintf("%d", int(r))
	case Jack:
		return "J"
	case Queen:
		return "Q"
	case King:
		return "K"
	case Ace:
		return "A"
	default:
		return "?"
	}
}

// Valid reports whether r is one of the thirteen ranks
func (r Rank) Valid() bool {
	return r >= Two && r <= Ace
}

// ParseRank parses "2".."10", "T" and the face letters.
func ParseRank(s string) (Rank, error) {
	switch strings.ToUpper(s) {
	case "J":
		return Jack, nil
	case "Q":
		return Queen, nil
	case "K":
		return King, nil
	case "A":
		return Ace, nil
	case "T", "10":
		return Ten, nil
	}
	if len(s) == 1 && s[0] >= '2' && s[0] <= '9' {
		return Rank(s[0] - '0'), nil
	}
	return 0, fmt.Errorf("invalid rank: %q", s)
}

// Card represents a playing card
type Card struct {
	Suit Suit
	Rank Rank
}

// NewCard creates a new card
func NewCard(suit Suit, rank Rank) Card {
	return Card{Suit: suit, Rank: rank}
}

// String returns the string representation of a card (e.g., "A♠", "10♥")
func (c Card) String() string {
	return c.Rank.String() + c.Suit.String()
}

// IsPoint reports whether the card carries point value (Ace, Ten or Five)
func (c Card) IsPoint() bool {
	return c.Rank == Ace || c.Rank == Ten || c.Rank == Five
}

// ParseCard parses strings like "A♠", "As", "10h" or "Td".
func ParseCard(s string) (Card, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Card{}, fmt.Errorf("invalid card string: %q", s)
	}
	// The suit is the final rune; symbols are multi-byte.
	runes := []rune(s)
	if len(runes) < 2 {
		return Card{}, fmt.Errorf("invalid card string: %q", s)
	}
	rank, err := ParseRank(string(runes[:len(runes)-1]))
	if err != nil {
		return Card{}, err
	}
	suit, err := ParseSuit(string(runes[len(runes)-1]))
	if err != nil {
		return Card{}, err
	}
	return NewCard(suit, rank), nil
}

// ParseCards parses a whitespace or comma separated list of cards.
func ParseCards(s string) ([]Card, error) {
	fields := strings.FieldsFunc(s, func(r rune) bool {
		return r == ' ' || r == ',' || r == '\t' || r == '\n'
	})
	cards := make([]Card, 0, len(fields))
	for _, f := range fields {
		c, err := ParseCard(f)
		if err != nil {
			return nil, err
		}
		cards = append(cards, c)
	}
	return cards, nil
}

// MustParseCards is ParseCards for fixtures; it panics on malformed input.
func MustParseCards(s string) []Card {
	cards, err := ParseCards(s)
	if err != nil {
		panic(err)
	}
	return cards
}

func (c Card) MarshalText() ([]byte, error) {
	if !c.Suit.Valid() || !c.Rank.Valid() {
		return nil, fmt.Errorf("invalid card: %d/%d", int(c.Suit), int(c.Rank))
	}
	return []byte(c.String()), nil
}

func (c *Card) UnmarshalText(b []byte) error {
	parsed, err := ParseCard(string(b))
	if err != nil {
		return err
	}
	*c = parsed
	return nil
}
