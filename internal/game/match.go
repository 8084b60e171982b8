// Package game implements the match state machine: seating, dealing,
// proposals, the card exchange, mode selection, trick play and scoring.
//
// Match holds plain serializable state and performs one synchronous
// transition per call. Room wraps a Match in a single goroutine so every
// operation, including the timer-driven fallback, is serialized.
package game

import (
	"fmt"
	rand "math/rand/v2"

	"github.com/lox/hokm/internal/bot"
	"github.com/lox/hokm/internal/deck"
	"github.com/lox/hokm/internal/randutil"
	"github.com/lox/hokm/internal/rules"
)

// Phase is the stage of the current match
type Phase string

const (
	PhaseWait       Phase = "wait"
	PhasePropose    Phase = "propose"
	PhaseExchange   Phase = "exchange"
	PhaseSelectMode Phase = "selectMode"
	PhasePlaying    Phase = "playing"
	PhaseFinished   Phase = "finished"
	PhaseGameOver   Phase = "gameOver"
)

// Awaiting reports whether the phase waits on a decision from the seat on turn
func (p Phase) Awaiting() bool {
	switch p {
	case PhasePropose, PhaseExchange, PhaseSelectMode, PhasePlaying:
		return true
	}
	return false
}

// Deal sizes
const (
	HandSize     = 12
	CenterSize   = 4
	LeaderHand   = HandSize + CenterSize
	tricksPerRun = HandSize
)

// DefaultScoreLimit is the cumulative total that ends a game
const DefaultScoreLimit = 500

// Proposal is one entry of the bidding log
type Proposal struct {
	Seat  int  `json:"seat"`
	Value int  `json:"value,omitempty"`
	Pass  bool `json:"pass,omitempty"`
}

// MatchRecord summarizes a completed match
type MatchRecord struct {
	Number      int        `json:"number"`
	Leader      int        `json:"leader"`
	Contract    int        `json:"contract"`
	Mode        deck.Mode  `json:"mode"`
	MasterSuit  *deck.Suit `json:"masterSuit,omitempty"`
	RoundPoints [2]int     `json:"roundPoints"`
	Success     bool       `json:"success"`
	Delta       [2]int     `json:"delta"`
	Totals      [2]int     `json:"totals"`
}

// Play is one entry of the per-match play log
type Play struct {
	Trick int       `json:"trick"`
	Seat  int       `json:"seat"`
	Card  deck.Card `json:"card"`
}

// Match is the complete state of one room. Every field is plain data so
// the whole value round-trips through JSON.
type Match struct {
	Code       string   `json:"code"`
	Password   string   `json:"password,omitempty"`
	ScoreLimit int      `json:"scoreLimit"`
	Players    []Player `json:"players"`

	Phase      Phase      `json:"phase"`
	Mode       deck.Mode  `json:"mode"`
	MasterSuit *deck.Suit `json:"masterSuit,omitempty"`
	Contract   int        `json:"contract"`
	Leader     int        `json:"leader"`
	Turn       int        `json:"turn"`
	Opener     int        `json:"opener"`

	Hands     [SeatCount][]deck.Card `json:"hands"`
	Center    []deck.Card            `json:"center"`
	Trick     []rules.Slot           `json:"trick"`
	LastTrick []rules.Slot           `json:"lastTrick,omitempty"`
	Collected [2][]deck.Card         `json:"collected"`
	TrickNo   int                    `json:"trickNo"`
	Final     bool                   `json:"final"`

	RoundPoints [2]int `json:"roundPoints"`
	Totals      [2]int `json:"totals"`

	Passed    [SeatCount]bool `json:"passed"`
	Proposals []Proposal      `json:"proposals"`
	PlayLog   []Play          `json:"playLog,omitempty"`
	History   []MatchRecord   `json:"history,omitempty"`
	Winner    int             `json:"winner"`

	// Point counts decision points. It changes on every gameplay
	// transition and never otherwise, so a timer armed for one value is
	// stale once it differs.
	Point uint64 `json:"point"`

	rng *rand.Rand
}

// MatchConfig configures a new match
type MatchConfig struct {
	Code       string
	Password   string
	HostName   string
	ScoreLimit int
	Rand       *rand.Rand
}

// ValidScoreLimit reports whether limit can end a game: a multiple of 5
// no smaller than the points of one deal.
func ValidScoreLimit(limit int) bool {
	return limit >= rules.TotalPoints && limit%5 == 0
}

// NewMatch creates a match in the wait phase with the host seated at seat 0.
// A zero score limit selects DefaultScoreLimit.
func NewMatch(cfg MatchConfig) (*Match, error) {
	if cfg.ScoreLimit == 0 {
		cfg.ScoreLimit = DefaultScoreLimit
	}
	if !ValidScoreLimit(cfg.ScoreLimit) {
		return nil, fmt.Errorf("%w: got %d", ErrInvalidScoreLimit, cfg.ScoreLimit)
	}
	if cfg.Rand == nil {
		cfg.Rand = randutil.New(randutil.Seed(nil))
	}
	m := &Match{
		Code:       cfg.Code,
		Password:   cfg.Password,
		ScoreLimit: cfg.ScoreLimit,
		Phase:      PhaseWait,
		Mode:       deck.DefaultMode,
		Contract:   bot.MinBid,
		Leader:     -1,
		Winner:     -1,
		rng:        cfg.Rand,
	}
	if _, err := m.AddPlayer(cfg.HostName); err != nil {
		return nil, err
	}
	return m, nil
}

// SetRand replaces the shuffle source
func (m *Match) SetRand(rng *rand.Rand) {
	m.rng = rng
}

// StartMatch deals a new match. It is legal from wait or finished once
// four seats are filled.
func (m *Match) StartMatch() ([]Event, error) {
	if m.Phase != PhaseWait && m.Phase != PhaseFinished {
		return nil, ErrWrongPhase
	}
	if len(m.Players) < SeatCount {
		return nil, ErrNotEnoughPlayers
	}
	m.deal()
	return []Event{{Type: EventMatchStarted, Seat: m.Turn, Number: len(m.History) + 1}}, nil
}

// deal shuffles and deals a fresh round without touching cumulative totals.
func (m *Match) deal() {
	if m.rng == nil {
		m.rng = randutil.New(randutil.Seed(nil))
	}
	cards := deck.ShuffledDeck(m.rng)
	for s := range SeatCount {
		hand := make([]deck.Card, HandSize)
		copy(hand, cards[s*HandSize:(s+1)*HandSize])
		deck.SortHand(hand, deck.DefaultMode)
		m.Hands[s] = hand
	}
	m.Center = append([]deck.Card(nil), cards[SeatCount*HandSize:]...)

	m.Mode = deck.DefaultMode
	m.MasterSuit = nil
	m.Contract = bot.MinBid
	m.Leader = -1
	m.Trick = nil
	m.LastTrick = nil
	m.Collected = [2][]deck.Card{}
	m.TrickNo = 0
	m.Final = false
	m.RoundPoints = [2]int{}
	m.Passed = [SeatCount]bool{}
	m.Proposals = nil
	m.PlayLog = nil
	m.Phase = PhasePropose
	m.Turn = (m.Opener + 1) % SeatCount
	m.Point++
}

// Reset returns the room to wait, clearing scores and history. Only the
// host may reset. Players keep their seats.
func (m *Match) Reset(seat int) ([]Event, error) {
	if seat != HostSeat {
		return nil, ErrNotHost
	}
	m.Phase = PhaseWait
	m.Mode = deck.DefaultMode
	m.MasterSuit = nil
	m.Contract = bot.MinBid
	m.Leader = -1
	m.Turn = 0
	m.Opener = 0
	m.Hands = [SeatCount][]deck.Card{}
	m.Center = nil
	m.Trick = nil
	m.LastTrick = nil
	m.Collected = [2][]deck.Card{}
	m.TrickNo = 0
	m.Final = false
	m.RoundPoints = [2]int{}
	m.Totals = [2]int{}
	m.Passed = [SeatCount]bool{}
	m.Proposals = nil
	m.PlayLog = nil
	m.History = nil
	m.Winner = -1
	m.clearReady()
	m.Point++
	return []Event{{Type: EventReset, Seat: seat}}, nil
}

// Hand returns a copy of the seat's hand
func (m *Match) Hand(seat int) []deck.Card {
	if seat < 0 || seat >= SeatCount {
		return nil
	}
	return append([]deck.Card(nil), m.Hands[seat]...)
}

func (m *Match) checkTurn(phase Phase, seat int) error {
	if m.Phase != phase {
		return ErrWrongPhase
	}
	if seat < 0 || seat >= SeatCount {
		return ErrInvalidSeat
	}
	if seat != m.Turn {
		return ErrNotYourTurn
	}
	return nil
}
