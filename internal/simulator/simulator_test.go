package simulator

import (
	"bytes"
	"context"
	"io"
	"testing"
	"time"

	"github.com/charmbracelet/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lox/hokm/internal/deck"
	"github.com/lox/hokm/internal/game"
)

func testLogger() *log.Logger {
	return log.NewWithOptions(io.Discard, log.Options{})
}

func TestPlayGameReachesScoreLimit(t *testing.T) {
	t.Parallel()
	for seed := int64(1); seed <= 5; seed++ {
		r, err := PlayGame(context.Background(), seed, game.DefaultScoreLimit)
		require.NoError(t, err, "seed %d", seed)

		require.Contains(t, []int{0, 1}, r.Winner)
		require.NotEmpty(t, r.Records)
		last := r.Records[len(r.Records)-1]
		assert.Equal(t, r.Totals, last.Totals)
		assert.True(t, r.Totals[0] >= game.DefaultScoreLimit || r.Totals[1] >= game.DefaultScoreLimit)
		for _, rec := range r.Records {
			assert.NotEqual(t, deck.Nars, rec.Mode, "bots never choose nars")
			assert.NotEqual(t, deck.AsNars, rec.Mode, "bots never choose asNars")
		}
	}
}

func TestPlayGameIsDeterministic(t *testing.T) {
	t.Parallel()
	a, err := PlayGame(context.Background(), 42, game.DefaultScoreLimit)
	require.NoError(t, err)
	b, err := PlayGame(context.Background(), 42, game.DefaultScoreLimit)
	require.NoError(t, err)
	assert.Equal(t, a, b)
}

func TestPlayGameHonorsContext(t *testing.T) {
	t.Parallel()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := PlayGame(ctx, 1, game.DefaultScoreLimit)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestRunAggregates(t *testing.T) {
	t.Parallel()
	sim := New(Config{Games: 8, Seed: 9, Concurrency: 3, Timeout: 10 * time.Second, Logger: testLogger()})
	stats, err := sim.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 8, stats.Games)
	assert.Equal(t, 8, stats.TeamWins[0]+stats.TeamWins[1])
	assert.Equal(t, stats.Matches, stats.ContractsMade+stats.ContractsFailed)
	modes := 0
	for _, n := range stats.Modes {
		modes += n
	}
	assert.Equal(t, stats.Matches, modes)
	leaders := 0
	for _, n := range stats.LeaderSeats {
		leaders += n
	}
	assert.Equal(t, stats.Matches, leaders)
	assert.GreaterOrEqual(t, stats.AverageContract(), 100.0)
	assert.LessOrEqual(t, stats.MaxContract, 165)

	// Concurrency does not change the outcome.
	serial, err := New(Config{Games: 8, Seed: 9, Concurrency: 1, Logger: testLogger()}).Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, stats, serial)
}

func TestStatsRates(t *testing.T) {
	t.Parallel()
	var s Stats
	assert.Zero(t, s.SuccessRate())
	assert.Zero(t, s.AverageContract())
	assert.Zero(t, s.MatchesPerGame())

	s.Add(GameResult{Winner: 1, Redeals: 2, Records: []game.MatchRecord{
		{Leader: 0, Contract: 120, Mode: deck.Hokm, Success: true},
		{Leader: 3, Contract: 150, Mode: deck.Sars},
	}})
	assert.Equal(t, 1, s.Games)
	assert.Equal(t, 2, s.Redeals)
	assert.Equal(t, [2]int{0, 1}, s.TeamWins)
	assert.InDelta(t, 0.5, s.SuccessRate(), 1e-9)
	assert.InDelta(t, 135.0, s.AverageContract(), 1e-9)
	assert.InDelta(t, 2.0, s.MatchesPerGame(), 1e-9)
	assert.Equal(t, 150, s.MaxContract)
	assert.Equal(t, 1, s.Modes[deck.Sars])
	assert.Equal(t, [game.SeatCount]int{1, 0, 0, 1}, s.LeaderSeats)
}

func TestPrintSummary(t *testing.T) {
	t.Parallel()
	var s Stats
	s.Add(GameResult{Winner: 0, Records: []game.MatchRecord{{Contract: 100, Mode: deck.Hokm, Success: true}}})

	var buf bytes.Buffer
	PrintSummary(&buf, &s)
	out := buf.String()
	assert.Contains(t, out, "Games played: 1")
	assert.Contains(t, out, "Success rate: 100.0%")
	assert.Contains(t, out, "hokm: 1")
}
