package main

import (
	"context"
	"fmt"
	"net"
	"strconv"
	"time"

	"github.com/charmbracelet/log"
	"github.com/coder/quartz"
	"golang.org/x/sync/errgroup"

	"github.com/lox/hokm/internal/randutil"
	"github.com/lox/hokm/internal/server"
	"github.com/lox/hokm/internal/store"
)

// ServerCmd runs the websocket server
type ServerCmd struct {
	Config      string        `short:"c" long:"config" default:"hokm-server.hcl" help:"Path to HCL configuration file"`
	Addr        string        `short:"a" long:"addr" help:"Listen address host:port (overrides config)"`
	Seed        *int64        `help:"Deterministic RNG seed for deals (optional)"`
	ScoreLimit  int           `long:"score-limit" help:"Score that ends a game (overrides config)"`
	TurnTimeout time.Duration `long:"turn-timeout" help:"Time a player has to act (overrides config)"`
	StoreDir    string        `long:"store-dir" help:"Directory for room snapshots (overrides config)"`
}

// applyOverrides copies flags that were set onto cfg
func (c *ServerCmd) applyOverrides(cfg *server.Config, logLevel string) error {
	if c.Addr != "" {
		host, port, err := net.SplitHostPort(c.Addr)
		if err != nil {
			return fmt.Errorf("invalid --addr: %w", err)
		}
		p, err := strconv.Atoi(port)
		if err != nil {
			return fmt.Errorf("invalid --addr port: %w", err)
		}
		cfg.Server.Address = host
		cfg.Server.Port = p
	}
	if logLevel != "" {
		cfg.Server.LogLevel = logLevel
	}
	if c.ScoreLimit != 0 {
		cfg.Game.ScoreLimit = c.ScoreLimit
	}
	if c.TurnTimeout != 0 {
		cfg.Game.TurnTimeout = c.TurnTimeout.String()
	}
	if c.StoreDir != "" {
		cfg.Store.Dir = c.StoreDir
	}
	return cfg.Validate()
}

func openStore(cfg *server.Config, clock quartz.Clock, logger *log.Logger) (store.Store, error) {
	if cfg.Store.Dir == "" {
		return store.NewMemoryStore(cfg.StoreTTL(), clock), nil
	}
	return store.NewFileStore(cfg.Store.Dir, cfg.StoreTTL(), clock, logger)
}

func (c *ServerCmd) Run(cli *CLI) error {
	cfg, err := server.LoadConfig(c.Config)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if err := c.applyOverrides(cfg, cli.LogLevel); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	logger := newLogger(cfg.Server.LogLevel)
	seed := randutil.Seed(c.Seed)
	clock := quartz.NewReal()

	st, err := openStore(cfg, clock, logger)
	if err != nil {
		return err
	}

	rooms := server.NewRoomService(server.ServiceConfig{
		ScoreLimit:  cfg.Game.ScoreLimit,
		TurnTimeout: cfg.TurnTimeout(),
		BotDelay:    cfg.BotDelay(),
		MaxRooms:    cfg.Game.MaxRooms,
		Seed:        seed,
		IdleTTL:     cfg.StoreTTL(),
	}, st, clock, logger)
	defer rooms.Close()

	ctx, cancel := signalContext(logger)
	defer cancel()

	restored, err := rooms.RestoreRooms(ctx)
	if err != nil {
		return fmt.Errorf("restore rooms: %w", err)
	}

	srv := server.NewServer(rooms, logger)

	logger.Info("Starting Hokm server",
		"addr", cfg.ServerAddress(),
		"seed", seed,
		"score_limit", cfg.Game.ScoreLimit,
		"turn_timeout", cfg.TurnTimeout(),
		"store", cfg.Store.Dir,
		"restored", restored)

	listener, err := net.Listen("tcp", cfg.ServerAddress())
	if err != nil {
		return fmt.Errorf("listen on %s: %w", cfg.ServerAddress(), err)
	}

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return srv.Serve(listener)
	})
	g.Go(func() error {
		return rooms.Run(ctx)
	})
	g.Go(func() error {
		<-ctx.Done()
		logger.Info("Shutting down server...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})
	return g.Wait()
}
