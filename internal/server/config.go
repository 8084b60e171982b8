package server

import (
	"fmt"
	"os"
	"time"

	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"

	"github.com/lox/hokm/internal/game"
	"github.com/lox/hokm/internal/rules"
)

// DefaultConfigFile is read when --config is not given
const DefaultConfigFile = "hokm-server.hcl"

// Config is the complete server configuration
type Config struct {
	Server ServerSettings
	Game   GameSettings
	Store  StoreSettings
}

// fileConfig mirrors Config with optional blocks for decoding
type fileConfig struct {
	Server *ServerSettings `hcl:"server,block"`
	Game   *GameSettings   `hcl:"game,block"`
	Store  *StoreSettings  `hcl:"store,block"`
}

// ServerSettings controls the listener and logging
type ServerSettings struct {
	Address  string `hcl:"address,optional"`
	Port     int    `hcl:"port,optional"`
	LogLevel string `hcl:"log_level,optional"`
}

// GameSettings controls every room the server creates
type GameSettings struct {
	ScoreLimit  int    `hcl:"score_limit,optional"`
	TurnTimeout string `hcl:"turn_timeout,optional"`
	BotDelay    string `hcl:"bot_delay,optional"`
	MaxRooms    int    `hcl:"max_rooms,optional"`
}

// StoreSettings selects snapshot persistence. An empty Dir keeps rooms in memory.
type StoreSettings struct {
	Dir string `hcl:"dir,optional"`
	TTL string `hcl:"ttl,optional"`
}

// DefaultConfig returns the configuration used when no file exists
func DefaultConfig() *Config {
	c := &Config{}
	c.applyDefaults()
	return c
}

func (c *Config) applyDefaults() {
	if c.Server.Address == "" {
		c.Server.Address = "localhost"
	}
	if c.Server.Port == 0 {
		c.Server.Port = 8080
	}
	if c.Server.LogLevel == "" {
		c.Server.LogLevel = "info"
	}
	if c.Game.ScoreLimit == 0 {
		c.Game.ScoreLimit = game.DefaultScoreLimit
	}
	if c.Game.TurnTimeout == "" {
		c.Game.TurnTimeout = "30s"
	}
	if c.Game.BotDelay == "" {
		c.Game.BotDelay = "1s"
	}
	if c.Game.MaxRooms == 0 {
		c.Game.MaxRooms = 1000
	}
	if c.Store.TTL == "" {
		c.Store.TTL = "24h"
	}
}

// LoadConfig reads an HCL file. A missing file yields the defaults.
func LoadConfig(filename string) (*Config, error) {
	if _, err := os.Stat(filename); os.IsNotExist(err) {
		return DefaultConfig(), nil
	}

	parser := hclparse.NewParser()
	file, diags := parser.ParseHCLFile(filename)
	if diags.HasErrors() {
		return nil, fmt.Errorf("failed to parse HCL file: %s", diags.Error())
	}

	var decoded fileConfig
	diags = gohcl.DecodeBody(file.Body, nil, &decoded)
	if diags.HasErrors() {
		return nil, fmt.Errorf("failed to decode HCL: %s", diags.Error())
	}

	var config Config
	if decoded.Server != nil {
		config.Server = *decoded.Server
	}
	if decoded.Game != nil {
		config.Game = *decoded.Game
	}
	if decoded.Store != nil {
		config.Store = *decoded.Store
	}
	config.applyDefaults()
	return &config, nil
}

// Validate checks ranges and durations
func (c *Config) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid port: %d", c.Server.Port)
	}
	switch c.Server.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("invalid log level: %q", c.Server.LogLevel)
	}
	if !game.ValidScoreLimit(c.Game.ScoreLimit) {
		return fmt.Errorf("score limit must be a multiple of 5 and at least %d, got %d", rules.TotalPoints, c.Game.ScoreLimit)
	}
	if c.Game.MaxRooms < 1 {
		return fmt.Errorf("max rooms must be at least 1, got %d", c.Game.MaxRooms)
	}
	for name, value := range map[string]string{
		"turn_timeout": c.Game.TurnTimeout,
		"bot_delay":    c.Game.BotDelay,
		"ttl":          c.Store.TTL,
	} {
		d, err := time.ParseDuration(value)
		if err != nil {
			return fmt.Errorf("invalid %s: %w", name, err)
		}
		if d <= 0 {
			return fmt.Errorf("%s must be positive, got %s", name, value)
		}
	}
	return nil
}

// ServerAddress returns host:port
func (c *Config) ServerAddress() string {
	return fmt.Sprintf("%s:%d", c.Server.Address, c.Server.Port)
}

// TurnTimeout returns the parsed turn timeout. Call Validate first.
func (c *Config) TurnTimeout() time.Duration {
	d, _ := time.ParseDuration(c.Game.TurnTimeout)
	return d
}

// BotDelay returns the parsed bot delay. Call Validate first.
func (c *Config) BotDelay() time.Duration {
	d, _ := time.ParseDuration(c.Game.BotDelay)
	return d
}

// StoreTTL returns the parsed snapshot time-to-live. Call Validate first.
func (c *Config) StoreTTL() time.Duration {
	d, _ := time.ParseDuration(c.Store.TTL)
	return d
}
