package display

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/lox/hokm/internal/deck"
	"github.com/lox/hokm/internal/game"
	"github.com/lox/hokm/internal/rules"
)

func plain() *Renderer {
	return NewRenderer(PlainStyles())
}

func testPlayers() []game.PlayerInfo {
	return []game.PlayerInfo{
		{Seat: 0, Name: "alice", Connected: true, Team: 0},
		{Seat: 1, Name: "north", Connected: true, Bot: true, Team: 1},
		{Seat: 2, Name: "bob", Team: 0},
		{Seat: 3, Name: "east", Connected: true, Bot: true, Team: 1},
	}
}

func TestCards(t *testing.T) {
	t.Parallel()
	r := plain()
	cards := deck.MustParseCards("AS 10H")
	assert.Equal(t, "[A♠ 10♥]", r.Cards(cards))
	assert.Equal(t, "0:A♠ 1:10♥", r.Hand(cards))
	assert.Equal(t, "[]", r.Cards(nil))
}

func TestTrick(t *testing.T) {
	t.Parallel()
	r := plain()
	trick := []rules.Slot{
		{Seat: 2, Card: deck.MustParseCards("KD")[0]},
		{Seat: 3, Card: deck.MustParseCards("2C")[0]},
	}
	assert.Equal(t, "bob K♦  east 2♣", r.Trick(trick, testPlayers()))
	assert.Equal(t, "(empty)", r.Trick(nil, testPlayers()))
}

func TestContract(t *testing.T) {
	t.Parallel()
	r := plain()
	hearts := deck.Hearts
	v := game.SeatView{Phase: game.PhasePropose, Leader: -1, Contract: 100, Players: testPlayers()}
	assert.Equal(t, "open at 100", r.Contract(v))

	v.Phase, v.Leader, v.Contract = game.PhaseExchange, 2, 135
	assert.Equal(t, "bob takes 135", r.Contract(v))

	v.Phase, v.Mode, v.MasterSuit = game.PhasePlaying, deck.Hokm, &hearts
	assert.Equal(t, "bob takes 135 in hokm ♥", r.Contract(v))

	v.Mode, v.MasterSuit = deck.Sars, nil
	assert.Equal(t, "bob takes 135 in sars", r.Contract(v))
}

func TestView(t *testing.T) {
	t.Parallel()
	v := game.SeatView{
		Code:        "7K2QX9",
		Seat:        0,
		Phase:       game.PhasePropose,
		Players:     testPlayers(),
		Hand:        deck.MustParseCards("AS KS"),
		HandCounts:  [game.SeatCount]int{12, 12, 12, 12},
		CenterCount: 4,
		Turn:        1,
		Leader:      -1,
		Contract:    100,
		Passed:      [game.SeatCount]bool{false, false, false, true},
		ScoreLimit:  500,
		Winner:      -1,
		RemainingMs: 29500,
	}
	out := NewRenderer(PlainStyles()).View(v)

	assert.Contains(t, out, "Room 7K2QX9  propose")
	assert.Contains(t, out, "Contract: open at 100")
	assert.Contains(t, out, "Hand: 0:A♠ 1:K♠")
	assert.Contains(t, out, "30s left")
	assert.Contains(t, out, "Playing to 500")
	assert.NotContains(t, out, "Center:")

	lines := strings.Split(out, "\n")
	var turnLine, awayLine, passedLine string
	for _, l := range lines {
		switch {
		case strings.Contains(l, "north"):
			turnLine = l
		case strings.Contains(l, "bob"):
			awayLine = l
		case strings.Contains(l, "east"):
			passedLine = l
		}
	}
	assert.True(t, strings.HasPrefix(turnLine, "> "), turnLine)
	assert.Contains(t, turnLine, "(bot)")
	assert.Contains(t, awayLine, "(away)")
	assert.Contains(t, passedLine, "passed")
}

func TestScoreboard(t *testing.T) {
	t.Parallel()
	history := []game.MatchRecord{
		{Number: 1, Leader: 0, Contract: 120, Mode: deck.Sars, Success: true, Delta: [2]int{130, 35}},
		{Number: 2, Leader: 1, Contract: 150, Mode: deck.Hokm, Delta: [2]int{60, -150}},
	}
	out := plain().Scoreboard(history, [2]int{190, -115}, 500, 0)
	assert.Contains(t, out, "120 sars")
	assert.Contains(t, out, "made")
	assert.Contains(t, out, "set")
	assert.Contains(t, out, "-150")
	assert.Contains(t, out, "total")
	assert.Contains(t, out, "190")
	assert.Contains(t, out, "Team 0 wins")
}

func TestEvent(t *testing.T) {
	t.Parallel()
	r := plain()
	players := testPlayers()
	card := deck.MustParseCards("QH")[0]
	clubs := deck.Clubs
	tests := []struct {
		event game.Event
		want  string
	}{
		{game.Event{Type: game.EventMatchStarted, Seat: 1, Number: 3}, "Match 3 dealt, north opens the bidding"},
		{game.Event{Type: game.EventProposal, Seat: 0, Value: 115}, "alice proposes 115"},
		{game.Event{Type: game.EventPass, Seat: 2}, "bob passes"},
		{game.Event{Type: game.EventLeaderChosen, Seat: 0, Value: 115}, "alice leads at 115"},
		{game.Event{Type: game.EventModeSelected, Seat: 0, Mode: deck.Hokm, Suit: &clubs}, "alice plays hokm ♣"},
		{game.Event{Type: game.EventCardPlayed, Seat: 3, Card: &card}, "east plays Q♥"},
		{game.Event{Type: game.EventTrickWon, Seat: 2, Value: 15, Bonus: 20}, "bob wins the trick for 15 plus 20 from the center"},
		{game.Event{Type: game.EventMatchEnded, Team: 1, Value: 140}, "Team 1 was set at 140"},
		{game.Event{Type: game.EventGameOver, Seat: -1, Team: 0}, "Game over, team 0 wins"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, r.Event(tt.event, players))
	}
}
