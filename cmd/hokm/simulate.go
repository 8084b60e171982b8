package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/lox/hokm/internal/display"
	"github.com/lox/hokm/internal/randutil"
	"github.com/lox/hokm/internal/simulator"
)

// SimulateCmd plays all-bot games in process
type SimulateCmd struct {
	Rooms       int           `short:"n" default:"100" help:"Number of games to play"`
	Seed        *int64        `help:"Deterministic RNG seed (optional)"`
	ScoreLimit  int           `long:"score-limit" default:"500" help:"Score that ends a game"`
	Concurrency int           `short:"j" help:"Games played at once (default GOMAXPROCS)"`
	Timeout     time.Duration `default:"30s" help:"Give up on a single game after this long"`
	Show        bool          `help:"Print the scoreboard of the first game"`
}

func (c *SimulateCmd) Run(cli *CLI) error {
	logger := newLogger(cli.LogLevel)
	seed := randutil.Seed(c.Seed)

	ctx, cancel := signalContext(logger)
	defer cancel()

	logger.Info("Starting simulation", "games", c.Rooms, "seed", seed, "score_limit", c.ScoreLimit)
	start := time.Now()
	stats, err := simulator.New(simulator.Config{
		Games:       c.Rooms,
		Seed:        seed,
		ScoreLimit:  c.ScoreLimit,
		Timeout:     c.Timeout,
		Concurrency: c.Concurrency,
		Logger:      logger,
	}).Run(ctx)
	if err != nil {
		return err
	}
	logger.Info("Simulation complete", "games", stats.Games, "duration", time.Since(start))

	if c.Show && c.Rooms > 0 {
		r, err := simulator.PlayGame(context.Background(), randutil.Derive(seed, 0), c.ScoreLimit)
		if err != nil {
			return err
		}
		renderer := display.NewRenderer(nil)
		fmt.Println(renderer.Scoreboard(r.Records, r.Totals, c.ScoreLimit, r.Winner))
	}

	simulator.PrintSummary(os.Stdout, stats)
	if stats.Games > 0 && stats.TeamWins[0]+stats.TeamWins[1] != stats.Games {
		return fmt.Errorf("%d games ended without a winner", stats.Games-stats.TeamWins[0]-stats.TeamWins[1])
	}
	return nil
}
