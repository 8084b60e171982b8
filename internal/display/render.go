package display

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/lox/hokm/internal/deck"
	"github.com/lox/hokm/internal/game"
	"github.com/lox/hokm/internal/rules"
)

// Renderer formats game state with a fixed set of styles
type Renderer struct {
	styles *Styles
}

// NewRenderer creates a renderer. A nil styles uses DefaultStyles.
func NewRenderer(styles *Styles) *Renderer {
	if styles == nil {
		styles = DefaultStyles()
	}
	return &Renderer{styles: styles}
}

// Card renders one card in its suit color
func (r *Renderer) Card(c deck.Card) string {
	if c.Suit.IsRed() {
		return r.styles.RedCard.Render(c.String())
	}
	return r.styles.BlackCard.Render(c.String())
}

// Cards renders a bracketed list of cards
func (r *Renderer) Cards(cards []deck.Card) string {
	formatted := make([]string, len(cards))
	for i, c := range cards {
		formatted[i] = r.Card(c)
	}
	return "[" + strings.Join(formatted, " ") + "]"
}

// Hand renders cards with the indices a player sends to play or discard them
func (r *Renderer) Hand(cards []deck.Card) string {
	formatted := make([]string, len(cards))
	for i, c := range cards {
		formatted[i] = r.styles.Index.Render(strconv.Itoa(i)+":") + r.Card(c)
	}
	return strings.Join(formatted, " ")
}

// Trick renders the cards on the table with the seat that played each
func (r *Renderer) Trick(trick []rules.Slot, players []game.PlayerInfo) string {
	if len(trick) == 0 {
		return r.styles.Info.Render("(empty)")
	}
	parts := make([]string, len(trick))
	for i, s := range trick {
		parts[i] = fmt.Sprintf("%s %s", seatName(s.Seat, players), r.Card(s.Card))
	}
	return strings.Join(parts, "  ")
}

// Contract describes the contract and mode of a view
func (r *Renderer) Contract(v game.SeatView) string {
	if v.Leader < 0 {
		return fmt.Sprintf("open at %d", v.Contract)
	}
	s := fmt.Sprintf("%s takes %d", seatName(v.Leader, v.Players), v.Contract)
	if v.Phase == game.PhasePlaying || v.Phase == game.PhaseFinished || v.Phase == game.PhaseGameOver {
		s += " in " + modeName(v.Mode, v.MasterSuit)
	}
	return s
}

// View renders everything a seat can see
func (r *Renderer) View(v game.SeatView) string {
	var b strings.Builder

	b.WriteString(r.styles.Header.Render(fmt.Sprintf("Room %s  %s", v.Code, v.Phase)))
	b.WriteString("\n")
	fmt.Fprintf(&b, "%s %s\n", r.styles.Label.Render("Contract:"), r.Contract(v))

	for _, p := range v.Players {
		marker := "  "
		line := fmt.Sprintf("%d %-12s team %d  cards %2d", p.Seat, p.Name, p.Team, v.HandCounts[p.Seat])
		var flags []string
		if p.Bot {
			flags = append(flags, "bot")
		}
		if !p.Connected {
			flags = append(flags, "away")
		}
		if v.Phase == game.PhasePropose && v.Passed[p.Seat] {
			flags = append(flags, "passed")
		}
		if len(flags) > 0 {
			line += "  (" + strings.Join(flags, ", ") + ")"
		}
		if v.Phase.Awaiting() && v.Turn == p.Seat {
			marker = "> "
			line = r.styles.Turn.Render(line)
		}
		b.WriteString(marker + line + "\n")
	}

	if v.Phase == game.PhasePlaying {
		fmt.Fprintf(&b, "%s %s\n", r.styles.Label.Render("Trick:"), r.Trick(v.Trick, v.Players))
	}
	if len(v.LastTrick) > 0 {
		fmt.Fprintf(&b, "%s %s\n", r.styles.Label.Render("Last:"), r.Trick(v.LastTrick, v.Players))
	}
	if len(v.Center) > 0 {
		fmt.Fprintf(&b, "%s %s\n", r.styles.Label.Render("Center:"), r.Cards(v.Center))
	}
	if len(v.Hand) > 0 {
		fmt.Fprintf(&b, "%s %s\n", r.styles.Label.Render("Hand:"), r.Hand(v.Hand))
	}
	if v.Phase.Awaiting() && v.RemainingMs > 0 {
		b.WriteString(r.styles.Info.Render(fmt.Sprintf("%ds left", (v.RemainingMs+999)/1000)))
		b.WriteString("\n")
	}

	return lipgloss.JoinVertical(lipgloss.Left,
		r.styles.Table.Render(strings.TrimRight(b.String(), "\n")),
		r.Scoreboard(v.History, v.Totals, v.ScoreLimit, v.Winner),
	)
}

// Scoreboard renders the per-match history and running totals
func (r *Renderer) Scoreboard(history []game.MatchRecord, totals [2]int, limit, winner int) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%-4s %-6s %-14s %-9s %6s %6s\n", "#", "Leader", "Contract", "Result", "Team 0", "Team 1")
	for _, rec := range history {
		result := r.styles.Success.Render(fmt.Sprintf("%-9s", "made"))
		if !rec.Success {
			result = r.styles.Error.Render(fmt.Sprintf("%-9s", "set"))
		}
		contract := fmt.Sprintf("%d %s", rec.Contract, modeName(rec.Mode, rec.MasterSuit))
		fmt.Fprintf(&b, "%-4d %-6d %-14s %s %+6d %+6d\n", rec.Number, rec.Leader, contract, result, rec.Delta[0], rec.Delta[1])
	}
	fmt.Fprintf(&b, "%-4s %-6s %-14s %-9s %6d %6d", "", "", "", "total", totals[0], totals[1])
	if limit > 0 {
		fmt.Fprintf(&b, "\nPlaying to %d", limit)
	}
	if winner >= 0 {
		b.WriteString("\n" + r.styles.Success.Render(fmt.Sprintf("Team %d wins", winner)))
	}
	return r.styles.Score.Render(b.String())
}

// Event renders one event as a log line
func (r *Renderer) Event(e game.Event, players []game.PlayerInfo) string {
	who := seatName(e.Seat, players)
	switch e.Type {
	case game.EventMatchStarted:
		return fmt.Sprintf("Match %d dealt, %s opens the bidding", e.Number, who)
	case game.EventRedeal:
		return "Everyone passed, redealing"
	case game.EventProposal:
		return fmt.Sprintf("%s proposes %d", who, e.Value)
	case game.EventPass:
		return fmt.Sprintf("%s passes", who)
	case game.EventLeaderChosen:
		return fmt.Sprintf("%s leads at %d", who, e.Value)
	case game.EventExchange:
		return fmt.Sprintf("%s exchanges with the center", who)
	case game.EventModeSelected:
		return fmt.Sprintf("%s plays %s", who, modeName(e.Mode, e.Suit))
	case game.EventCardPlayed:
		if e.Card != nil {
			return fmt.Sprintf("%s plays %s", who, r.Card(*e.Card))
		}
	case game.EventTrickWon:
		s := fmt.Sprintf("%s wins the trick for %d", who, e.Value)
		if e.Bonus > 0 {
			s += fmt.Sprintf(" plus %d from the center", e.Bonus)
		}
		return s
	case game.EventMatchEnded:
		if e.Success {
			return r.styles.Success.Render(fmt.Sprintf("Team %d made %d", e.Team, e.Value))
		}
		return r.styles.Error.Render(fmt.Sprintf("Team %d was set at %d", e.Team, e.Value))
	case game.EventGameOver:
		return r.styles.Success.Render(fmt.Sprintf("Game over, team %d wins", e.Team))
	case game.EventReset:
		return fmt.Sprintf("%s reset the room", who)
	}
	return string(e.Type)
}

func seatName(seat int, players []game.PlayerInfo) string {
	if seat >= 0 && seat < len(players) {
		return players[seat].Name
	}
	return "seat " + strconv.Itoa(seat)
}

func modeName(mode deck.Mode, suit *deck.Suit) string {
	if suit != nil && mode.HasTrump() {
		return fmt.Sprintf("%s %s", mode, suit)
	}
	return mode.String()
}
