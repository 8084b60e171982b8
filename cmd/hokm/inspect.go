package main

import (
	"context"
	"fmt"
	"time"

	"github.com/coder/quartz"

	"github.com/lox/hokm/internal/display"
	"github.com/lox/hokm/internal/game"
	"github.com/lox/hokm/internal/gameid"
	"github.com/lox/hokm/internal/randutil"
	"github.com/lox/hokm/internal/store"
)

// InspectCmd renders a persisted room as one seat sees it
type InspectCmd struct {
	Code     string        `arg:"" help:"Room code"`
	StoreDir string        `long:"store-dir" required:"" help:"Directory holding room snapshots"`
	Seat     int           `short:"s" default:"-1" help:"Seat to view from (-1 shows public information only)"`
	TTL      time.Duration `default:"24h" help:"Snapshot time-to-live"`
	Plain    bool          `help:"Render without colors or borders"`
}

func (c *InspectCmd) Run(cli *CLI) error {
	logger := newLogger(cli.LogLevel)
	st, err := store.NewFileStore(c.StoreDir, c.TTL, quartz.NewReal(), logger)
	if err != nil {
		return err
	}

	code := gameid.Normalize(c.Code)
	data, err := st.Load(context.Background(), code)
	if err != nil {
		return fmt.Errorf("load room %s: %w", code, err)
	}
	m, err := game.Restore(data, randutil.New(0))
	if err != nil {
		return err
	}
	if c.Seat >= len(m.Players) {
		return fmt.Errorf("%w: room has %d players", game.ErrInvalidSeat, len(m.Players))
	}

	styles := display.DefaultStyles()
	if c.Plain {
		styles = display.PlainStyles()
	}
	fmt.Println(display.NewRenderer(styles).View(m.ViewForSeat(c.Seat)))
	return nil
}
