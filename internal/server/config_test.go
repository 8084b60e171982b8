package server

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfigMissingFileUsesDefaults(t *testing.T) {
	t.Parallel()
	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "absent.hcl"))
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig(), cfg)
	require.NoError(t, cfg.Validate())
	assert.Equal(t, "localhost:8080", cfg.ServerAddress())
	assert.Equal(t, 30*time.Second, cfg.TurnTimeout())
	assert.Equal(t, time.Second, cfg.BotDelay())
	assert.Equal(t, 24*time.Hour, cfg.StoreTTL())
}

func TestLoadConfigFile(t *testing.T) {
	t.Parallel()
	path := filepath.Join(t.TempDir(), "hokm-server.hcl")
	content := `
server {
  address   = "0.0.0.0"
  port      = 9090
  log_level = "debug"
}

game {
  score_limit  = 1000
  turn_timeout = "45s"
}

store {
  dir = "/var/lib/hokm"
}
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	require.NoError(t, cfg.Validate())

	assert.Equal(t, "0.0.0.0:9090", cfg.ServerAddress())
	assert.Equal(t, "debug", cfg.Server.LogLevel)
	assert.Equal(t, 1000, cfg.Game.ScoreLimit)
	assert.Equal(t, 45*time.Second, cfg.TurnTimeout())
	assert.Equal(t, time.Second, cfg.BotDelay(), "unset fields keep defaults")
	assert.Equal(t, 1000, cfg.Game.MaxRooms)
	assert.Equal(t, "/var/lib/hokm", cfg.Store.Dir)
	assert.Equal(t, 24*time.Hour, cfg.StoreTTL())
}

func TestLoadConfigOnlyOneBlock(t *testing.T) {
	t.Parallel()
	path := filepath.Join(t.TempDir(), "partial.hcl")
	require.NoError(t, os.WriteFile(path, []byte("game {\n  bot_delay = \"250ms\"\n}\n"), 0o644))

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, 250*time.Millisecond, cfg.BotDelay())
	assert.Equal(t, 8080, cfg.Server.Port)
}

func TestLoadConfigInvalidHCL(t *testing.T) {
	t.Parallel()
	path := filepath.Join(t.TempDir(), "broken.hcl")
	require.NoError(t, os.WriteFile(path, []byte("server {\n  port = \n"), 0o644))

	_, err := LoadConfig(path)
	assert.Error(t, err)
}

func TestConfigValidate(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name   string
		modify func(*Config)
	}{
		{"port zero", func(c *Config) { c.Server.Port = 0 }},
		{"port too high", func(c *Config) { c.Server.Port = 70000 }},
		{"log level", func(c *Config) { c.Server.LogLevel = "loud" }},
		{"score limit below one deal", func(c *Config) { c.Game.ScoreLimit = 160 }},
		{"score limit not a multiple of five", func(c *Config) { c.Game.ScoreLimit = 503 }},
		{"max rooms", func(c *Config) { c.Game.MaxRooms = -1 }},
		{"turn timeout unparsable", func(c *Config) { c.Game.TurnTimeout = "soon" }},
		{"bot delay negative", func(c *Config) { c.Game.BotDelay = "-1s" }},
		{"ttl zero", func(c *Config) { c.Store.TTL = "0s" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			cfg := DefaultConfig()
			tt.modify(cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}
