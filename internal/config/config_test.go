package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cartridge/sc2agent/internal/sc2"
)

func TestDefault(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Validate())
	assert.Equal(t, "exercise3", cfg.MapName)
	assert.Equal(t, 1, cfg.MaxEpisodes)
	assert.Equal(t, 0, cfg.MaxFrames)
	require.Len(t, cfg.Players, 2)
	assert.Equal(t, PlayerLocal, cfg.Players[0].Type)
	assert.Equal(t, PlayerBot, cfg.Players[1].Type)

	require.NoError(t, DefaultController().Validate())
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(c *Config)
	}{
		{"no engine", func(c *Config) { c.EngineAddr = "" }},
		{"unknown map", func(c *Config) { c.MapName = "atlantis" }},
		{"zero step mul", func(c *Config) { c.StepMul = 0 }},
		{"negative frames", func(c *Config) { c.MaxFrames = -1 }},
		{"zero batch", func(c *Config) { c.BatchSize = 0 }},
		{"no players", func(c *Config) { c.Players = nil }},
		{"only bots", func(c *Config) { c.Players = c.Players[1:] }},
		{"local without policy", func(c *Config) { c.Players[0].Policy = "" }},
		{"unknown policy", func(c *Config) { c.Players[0].Policy = "alphastar" }},
		{"unknown race", func(c *Config) { c.Players[0].Race = "human" }},
		{"unknown difficulty", func(c *Config) { c.Players[1].Difficulty = "nightmare" }},
		{"unknown type", func(c *Config) { c.Players[0].Type = "observer" }},
		{"remote without controller", func(c *Config) {
			c.ControllerAddr = ""
			c.Players[0] = PlayerConfig{Type: PlayerRemote, Name: "Player 1"}
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			err := cfg.Validate()
			assert.True(t, errors.Is(err, ErrConfig), "expected ErrConfig, got %v", err)
		})
	}
}

func TestPlayerDefaults(t *testing.T) {
	p := PlayerConfig{Type: PlayerBot}
	race, err := p.SC2Race()
	require.NoError(t, err)
	assert.Equal(t, sc2.RaceTerran, race)
	difficulty, err := p.SC2Difficulty()
	require.NoError(t, err)
	assert.Equal(t, sc2.DifficultyEasy, difficulty)
}

func TestMaps(t *testing.T) {
	m, err := LookupMap("exercise3")
	require.NoError(t, err)
	assert.Equal(t, "EEE466/exercise3.SC2Map", m.Path())
	assert.Equal(t, 2, m.Players)
	assert.Equal(t, uint32(0), m.GameStepsPerEpisode)

	_, err = LookupMap("atlantis")
	assert.ErrorIs(t, err, ErrConfig)
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "agent.yaml")
	require.NoError(t, os.WriteFile(file, []byte(`
map_name: lab3
remote_timeout: 2s
players:
  - type: remote
    name: Player 1
  - type: bot
    race: zerg
    difficulty: hard
    name: Player 2
`), 0o600))

	t.Setenv("AGENTTEST_MAX_EPISODES", "3")

	flags := pflag.NewFlagSet("agent", pflag.ContinueOnError)
	flags.String("config", "", "")
	flags.String("engine-addr", "localhost:50051", "")
	flags.Int("max-episodes", 1, "")
	flags.Bool("save-replay", false, "")
	require.NoError(t, flags.Parse([]string{"--engine-addr", "sc2host:7000"}))

	v, err := NewViper("AGENTTEST", file)
	require.NoError(t, err)
	require.NoError(t, BindFlags(v, flags, "config"))

	cfg, err := Load(v)
	require.NoError(t, err)

	assert.Equal(t, "sc2host:7000", cfg.EngineAddr, "flag")
	assert.Equal(t, 3, cfg.MaxEpisodes, "env")
	assert.Equal(t, "lab3", cfg.MapName, "file")
	assert.Equal(t, 2*time.Second, cfg.RemoteTimeout, "file")
	assert.Equal(t, uint32(1), cfg.StepMul, "default")
	require.Len(t, cfg.Players, 2)
	assert.Equal(t, PlayerConfig{Type: PlayerRemote, Name: "Player 1"}, cfg.Players[0])
	assert.Equal(t, "zerg", cfg.Players[1].Race)
	assert.NoError(t, cfg.Validate())
}

func TestNewViper_MissingFile(t *testing.T) {
	_, err := NewViper("AGENTTEST", filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}
