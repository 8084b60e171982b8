package main

import (
	"github.com/alecthomas/kong"
)

// version is set by ldflags during build
var version = "dev"

type CLI struct {
	Version  kong.VersionFlag `short:"v" help:"Show version"`
	LogLevel string           `short:"l" long:"log-level" help:"Log level: debug, info, warn or error (overrides config)"`

	Server   ServerCmd   `cmd:"" help:"Run the websocket game server"`
	Simulate SimulateCmd `cmd:"" help:"Play all-bot games and report statistics"`
	Play     PlayCmd     `cmd:"" help:"Join a server as a player driven by the built-in bot"`
	Inspect  InspectCmd  `cmd:"" help:"Render a stored room snapshot from one seat"`
}

func main() {
	var cli CLI
	ctx := kong.Parse(&cli,
		kong.Name("hokm"),
		kong.Description("Server and tools for four-player Hokm"),
		kong.UsageOnError(),
		kong.ConfigureHelp(kong.HelpOptions{
			Compact: true,
		}),
		kong.Vars{
			"version": version,
		},
		kong.Bind(&cli),
	)
	err := ctx.Run()
	ctx.FatalIfErrorf(err)
}
