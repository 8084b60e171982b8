// Package simulator plays complete all-bot games in process. It is used to
// tune the decision engine and as a soak test for the rules.
package simulator

import (
	"context"
	"fmt"
	"io"
	"maps"
	"runtime"
	"slices"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"golang.org/x/sync/errgroup"

	"github.com/lox/hokm/internal/deck"
	"github.com/lox/hokm/internal/game"
	"github.com/lox/hokm/internal/randutil"
	"github.com/lox/hokm/internal/rules"
)

// maxSteps bounds the decisions in one game. A game to 500 needs a few
// hundred; anything near this is a stuck state machine.
const maxSteps = 100_000

// Config holds configuration for running simulations
type Config struct {
	Games       int
	Seed        int64
	ScoreLimit  int
	Timeout     time.Duration
	Concurrency int
	Logger      *log.Logger
}

// GameResult summarizes one finished game
type GameResult struct {
	Seed    int64
	Winner  int
	Totals  [2]int
	Redeals int
	Records []game.MatchRecord
}

// Stats aggregates results across games
type Stats struct {
	Games           int
	Matches         int
	Redeals         int
	TeamWins        [2]int
	ContractsMade   int
	ContractsFailed int
	ContractSum     int
	MaxContract     int
	Modes           map[deck.Mode]int
	LeaderSeats     [game.SeatCount]int
}

// Add folds one game into the totals
func (s *Stats) Add(r GameResult) {
	if s.Modes == nil {
		s.Modes = make(map[deck.Mode]int)
	}
	s.Games++
	s.Redeals += r.Redeals
	if r.Winner >= 0 {
		s.TeamWins[r.Winner]++
	}
	for _, rec := range r.Records {
		s.Matches++
		if rec.Success {
			s.ContractsMade++
		} else {
			s.ContractsFailed++
		}
		s.ContractSum += rec.Contract
		s.MaxContract = max(s.MaxContract, rec.Contract)
		s.Modes[rec.Mode]++
		s.LeaderSeats[rec.Leader]++
	}
}

// SuccessRate is the fraction of contracts the leading team made
func (s *Stats) SuccessRate() float64 {
	if s.Matches == 0 {
		return 0
	}
	return float64(s.ContractsMade) / float64(s.Matches)
}

// AverageContract is the mean winning proposal
func (s *Stats) AverageContract() float64 {
	if s.Matches == 0 {
		return 0
	}
	return float64(s.ContractSum) / float64(s.Matches)
}

// MatchesPerGame is the mean number of matches needed to reach the limit
func (s *Stats) MatchesPerGame() float64 {
	if s.Games == 0 {
		return 0
	}
	return float64(s.Matches) / float64(s.Games)
}

// Simulator runs all-bot games
type Simulator struct {
	config Config
}

// New creates a new simulator with the given configuration
func New(config Config) *Simulator {
	if config.Concurrency <= 0 {
		config.Concurrency = runtime.GOMAXPROCS(0)
	}
	if config.Timeout <= 0 {
		config.Timeout = 30 * time.Second
	}
	if config.Logger == nil {
		config.Logger = log.Default()
	}
	return &Simulator{config: config}
}

// Run plays every game and returns the aggregate. Game i is seeded from
// the configured seed, so a run is reproducible regardless of concurrency.
func (s *Simulator) Run(ctx context.Context) (*Stats, error) {
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(s.config.Concurrency)

	var mu sync.Mutex
	results := make([]GameResult, s.config.Games)
	done := 0
	for i := range s.config.Games {
		seed := randutil.Derive(s.config.Seed, i)
		g.Go(func() error {
			gameCtx, cancel := context.WithTimeout(ctx, s.config.Timeout)
			defer cancel()
			r, err := PlayGame(gameCtx, seed, s.config.ScoreLimit)
			if err != nil {
				return fmt.Errorf("game %d (seed %d): %w", i+1, seed, err)
			}
			mu.Lock()
			results[i] = r
			done++
			n := done
			mu.Unlock()
			s.config.Logger.Debug("Game finished", "game", i+1, "done", n, "winner", r.Winner, "matches", len(r.Records))
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	stats := &Stats{Modes: make(map[deck.Mode]int)}
	for _, r := range results {
		stats.Add(r)
	}
	return stats, nil
}

// PlayGame plays one game between four bots until a team reaches the
// score limit.
func PlayGame(ctx context.Context, seed int64, scoreLimit int) (GameResult, error) {
	m, err := game.NewMatch(game.MatchConfig{
		Code:       "SIM",
		HostName:   "south",
		ScoreLimit: scoreLimit,
		Rand:       randutil.New(seed),
	})
	if err != nil {
		return GameResult{}, err
	}
	for _, name := range []string{"west", "north", "east"} {
		if _, err := m.AddBot(name); err != nil {
			return GameResult{}, err
		}
	}

	result := GameResult{Seed: seed, Winner: -1}
	for step := 0; m.Phase != game.PhaseGameOver; step++ {
		if step >= maxSteps {
			return result, fmt.Errorf("no winner after %d decisions in phase %s", maxSteps, m.Phase)
		}
		if err := ctx.Err(); err != nil {
			return result, err
		}

		var events []game.Event
		if m.Phase == game.PhaseWait || m.Phase == game.PhaseFinished {
			events, err = m.StartMatch()
		} else {
			seat, action, ok := game.AutoAction(m)
			if !ok {
				return result, fmt.Errorf("no decision available in phase %s", m.Phase)
			}
			events, err = m.Apply(seat, action)
			if err != nil {
				return result, &game.InvariantError{Seat: seat, Action: action, Err: err}
			}
		}
		if err != nil {
			return result, err
		}
		for _, e := range events {
			if e.Type == game.EventRedeal {
				result.Redeals++
			}
		}
	}

	for _, rec := range m.History {
		if sum := rec.RoundPoints[0] + rec.RoundPoints[1]; sum != rules.TotalPoints {
			return result, fmt.Errorf("match %d scored %d points, want %d", rec.Number, sum, rules.TotalPoints)
		}
	}
	result.Winner = m.Winner
	result.Totals = m.Totals
	result.Records = m.History
	return result, nil
}

// PrintSummary writes a human readable summary of stats to w
func PrintSummary(w io.Writer, stats *Stats) {
	fmt.Fprintf(w, "\n=== SIMULATION RESULTS ===\n")
	fmt.Fprintf(w, "Games played: %d\n", stats.Games)
	fmt.Fprintf(w, "Matches played: %d (%.1f per game)\n", stats.Matches, stats.MatchesPerGame())
	fmt.Fprintf(w, "Redeals: %d\n", stats.Redeals)
	if stats.Games > 0 {
		for team, wins := range stats.TeamWins {
			fmt.Fprintf(w, "Team %d wins: %d (%.1f%%)\n", team, wins, float64(wins)/float64(stats.Games)*100)
		}
	}

	fmt.Fprintf(w, "\n=== CONTRACTS ===\n")
	fmt.Fprintf(w, "Made: %d  Failed: %d  Success rate: %.1f%%\n",
		stats.ContractsMade, stats.ContractsFailed, stats.SuccessRate()*100)
	fmt.Fprintf(w, "Average contract: %.1f  Highest: %d\n", stats.AverageContract(), stats.MaxContract)

	fmt.Fprintf(w, "\n=== MODES ===\n")
	for _, mode := range slices.Sorted(maps.Keys(stats.Modes)) {
		fmt.Fprintf(w, "%s: %d\n", mode, stats.Modes[mode])
	}

	fmt.Fprintf(w, "\n=== LEADER SEATS ===\n")
	for seat, n := range stats.LeaderSeats {
		fmt.Fprintf(w, "Seat %d: %d\n", seat, n)
	}
}
