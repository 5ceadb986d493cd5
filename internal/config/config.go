package config

import (
	"errors"
	"fmt"
	"path"
	"sort"
	"strings"
	"time"

	"github.com/cartridge/sc2agent/internal/policy"
	"github.com/cartridge/sc2agent/internal/sc2"
)

// ErrConfig marks configuration errors
var ErrConfig = errors.New("invalid configuration")

func invalid(format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", ErrConfig, fmt.Sprintf(format, args...))
}

// PlayerType says who controls a player slot
type PlayerType string

const (
	PlayerLocal  PlayerType = "local"
	PlayerRemote PlayerType = "remote"
	PlayerBot    PlayerType = "bot"
)

// PlayerConfig declares one player slot
type PlayerConfig struct {
	Type       PlayerType `mapstructure:"type"`
	Race       string     `mapstructure:"race"`
	Difficulty string     `mapstructure:"difficulty"`
	Name       string     `mapstructure:"name"`

	// Policy names a registered policy; local players only
	Policy string `mapstructure:"policy"`
}

// Validate checks a player declaration. A local player without a policy is
// rejected here rather than when the game starts.
func (p PlayerConfig) Validate() error {
	switch p.Type {
	case PlayerLocal:
		if p.Policy == "" {
			return invalid("local player %q requires a policy", p.Name)
		}
		if _, err := policy.New(p.Policy); err != nil {
			return invalid("player %q: %v", p.Name, err)
		}
	case PlayerRemote, PlayerBot:
	default:
		return invalid("player %q: unknown type %q", p.Name, p.Type)
	}
	if _, err := p.SC2Race(); err != nil {
		return invalid("player %q: %v", p.Name, err)
	}
	if p.Type == PlayerBot {
		if _, err := p.SC2Difficulty(); err != nil {
			return invalid("player %q: %v", p.Name, err)
		}
	}
	return nil
}

// SC2Race parses Race; empty means terran
func (p PlayerConfig) SC2Race() (sc2.Race, error) {
	if p.Race == "" {
		return sc2.RaceTerran, nil
	}
	return sc2.ParseRace(p.Race)
}

// SC2Difficulty parses Difficulty; empty means easy
func (p PlayerConfig) SC2Difficulty() (sc2.Difficulty, error) {
	if p.Difficulty == "" {
		return sc2.DifficultyEasy, nil
	}
	return sc2.ParseDifficulty(p.Difficulty)
}

// MapConfig describes a map the engine host can load
type MapConfig struct {
	Name                string
	Directory           string
	Filename            string
	Players             int
	GameStepsPerEpisode uint32
}

// Path is the map file relative to the host's maps directory
func (m MapConfig) Path() string {
	return path.Join(m.Directory, m.Filename+".SC2Map")
}

func courseMap(name string) MapConfig {
	return MapConfig{Name: name, Directory: "EEE466", Filename: name, Players: 2}
}

// Maps lists the known maps by name
var Maps = map[string]MapConfig{
	"3v3":       courseMap("3v3"),
	"10v10":     courseMap("10v10"),
	"bonus":     courseMap("bonus"),
	"bonus_pvp": courseMap("bonus_pvp"),
	"lab3":      courseMap("lab3"),
	"exercise3": courseMap("exercise3"),
}

// LookupMap returns the named map
func LookupMap(name string) (MapConfig, error) {
	m, ok := Maps[name]
	if !ok {
		names := make([]string, 0, len(Maps))
		for n := range Maps {
			names = append(names, n)
		}
		sort.Strings(names)
		return MapConfig{}, invalid("unknown map %q (known: %s)", name, strings.Join(names, ", "))
	}
	return m, nil
}

// Config holds all agent runner configuration
type Config struct {
	// Service endpoints
	EngineAddr     string `mapstructure:"engine_addr"`
	ControllerAddr string `mapstructure:"controller_addr"`

	// Game settings
	MapName     string `mapstructure:"map_name"`
	StepMul     uint32 `mapstructure:"step_mul"`
	Realtime    bool   `mapstructure:"realtime"`
	DisableFog  bool   `mapstructure:"disable_fog"`
	Visualize   bool   `mapstructure:"visualize"`
	MaxEpisodes int    `mapstructure:"max_episodes"`
	MaxFrames   int    `mapstructure:"max_frames"`

	// Remote controller calls
	RemoteTimeout  time.Duration `mapstructure:"remote_timeout"`
	RemoteFallback bool          `mapstructure:"remote_fallback"`

	// Replays and transition recording
	SaveReplay bool   `mapstructure:"save_replay"`
	ReplayDir  string `mapstructure:"replay_dir"`
	RecordPath string `mapstructure:"record_path"`
	BatchSize  int    `mapstructure:"batch_size"`

	// Logging and metrics. An empty admin_addr serves no HTTP endpoint.
	LogLevel  string `mapstructure:"log_level"`
	LogFormat string `mapstructure:"log_format"`
	AdminAddr string `mapstructure:"admin_addr"`

	Players []PlayerConfig `mapstructure:"players"`
}

// DefaultPlayers is the stock roster: the heuristic against an easy bot
func DefaultPlayers() []PlayerConfig {
	return []PlayerConfig{
		{Type: PlayerLocal, Race: "terran", Name: "demo", Policy: "heuristic"},
		{Type: PlayerBot, Race: "terran", Difficulty: "easy", Name: "Player 2"},
	}
}

// Default returns a config with sensible defaults
func Default() *Config {
	return &Config{
		EngineAddr:     "localhost:50051",
		ControllerAddr: "localhost:50052",
		MapName:        "exercise3",
		StepMul:        1,
		DisableFog:     true,
		MaxEpisodes:    1,
		MaxFrames:      0, // unlimited
		BatchSize:      64,
		LogLevel:       "info",
		LogFormat:      "console",
		Players:        DefaultPlayers(),
	}
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if c.EngineAddr == "" {
		return invalid("engine_addr is required")
	}
	if _, err := LookupMap(c.MapName); err != nil {
		return err
	}
	if c.StepMul == 0 {
		return invalid("step_mul must be positive")
	}
	if c.MaxEpisodes < 0 {
		return invalid("max_episodes must not be negative")
	}
	if c.MaxFrames < 0 {
		return invalid("max_frames must not be negative")
	}
	if c.RemoteTimeout < 0 {
		return invalid("remote_timeout must not be negative")
	}
	if c.BatchSize <= 0 {
		return invalid("batch_size must be positive")
	}
	if len(c.Players) == 0 {
		return invalid("at least one player is required")
	}

	participants := 0
	for _, p := range c.Players {
		if err := p.Validate(); err != nil {
			return err
		}
		if p.Type == PlayerRemote {
			if c.ControllerAddr == "" {
				return invalid("controller_addr is required for remote player %q", p.Name)
			}
		}
		if p.Type != PlayerBot {
			participants++
		}
	}
	if participants == 0 {
		return invalid("at least one local or remote player is required")
	}
	return nil
}

// ControllerConfig holds the remote controller service configuration
type ControllerConfig struct {
	ListenAddr string `mapstructure:"listen_addr"`
	AdminAddr  string `mapstructure:"admin_addr"`
	Policy     string `mapstructure:"policy"`

	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`

	LogLevel  string `mapstructure:"log_level"`
	LogFormat string `mapstructure:"log_format"`
}

// DefaultController returns a controller config with sensible defaults
func DefaultController() *ControllerConfig {
	return &ControllerConfig{
		ListenAddr:      ":50052",
		AdminAddr:       ":9090",
		Policy:          "noop",
		ShutdownTimeout: 30 * time.Second,
		LogLevel:        "info",
		LogFormat:       "console",
	}
}

// Validate checks if the configuration is valid
func (c *ControllerConfig) Validate() error {
	if c.ListenAddr == "" {
		return invalid("listen_addr is required")
	}
	if _, err := policy.New(c.Policy); err != nil {
		return invalid("%v", err)
	}
	if c.ShutdownTimeout <= 0 {
		return invalid("shutdown_timeout must be positive")
	}
	return nil
}
