package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/lox/hokm/internal/client"
	"github.com/lox/hokm/internal/display"
)

// PlayCmd seats a remote player driven by the decision engine
type PlayCmd struct {
	URL        string   `default:"http://localhost:8080" help:"Server URL"`
	Name       string   `required:"" help:"Display name"`
	Code       string   `help:"Room code to join; a new room is created when empty"`
	Password   string   `help:"Room password"`
	Token      string   `help:"Reconnection token from an earlier session (requires --code)"`
	Bots       []string `help:"Server-side bots to add after creating a room"`
	ScoreLimit int      `long:"score-limit" help:"Score limit for a new room (server default when zero)"`
	Quiet      bool     `short:"q" help:"Do not print game events"`
}

func (c *PlayCmd) Run(cli *CLI) error {
	logger := newLogger(cli.LogLevel)
	ctx, cancel := signalContext(logger)
	defer cancel()

	if c.Token != "" && c.Code == "" {
		return errors.New("--token requires --code")
	}

	conn := client.NewClient(c.URL, logger)
	if err := conn.Connect(ctx); err != nil {
		return err
	}
	defer func() { _ = conn.Close() }()

	renderer := display.NewRenderer(nil)
	var opts []client.PlayerOption
	if !c.Quiet {
		opts = append(opts, client.WithOutput(os.Stdout, renderer))
	}
	player := client.NewPlayer(conn, logger, opts...)

	var err error
	switch {
	case c.Token != "":
		err = conn.Reconnect(c.Code, c.Token)
	case c.Code != "":
		err = conn.JoinRoom(c.Code, c.Name, c.Password)
	default:
		err = conn.CreateRoom(c.Name, c.Password, c.ScoreLimit)
	}
	if err != nil {
		return err
	}
	if err := player.WaitJoined(ctx); err != nil {
		return err
	}
	code, seat, token := player.Seat()
	logger.Info("Joined room", "code", code, "seat", seat, "token", token)

	if c.Code == "" {
		for _, name := range c.Bots {
			if err := conn.AddBot(name); err != nil {
				return err
			}
		}
	}

	final, err := player.Wait(ctx)
	if err != nil {
		return err
	}
	fmt.Println(renderer.View(final))
	return nil
}
