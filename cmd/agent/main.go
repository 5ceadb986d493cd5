package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/cartridge/sc2agent/internal/actor"
	"github.com/cartridge/sc2agent/internal/admin"
	"github.com/cartridge/sc2agent/internal/agent"
	"github.com/cartridge/sc2agent/internal/config"
	"github.com/cartridge/sc2agent/internal/controller"
	"github.com/cartridge/sc2agent/internal/engine"
	"github.com/cartridge/sc2agent/internal/logging"
	"github.com/cartridge/sc2agent/internal/metrics"
	"github.com/cartridge/sc2agent/internal/replay"
)

var cfgFile string

var rootCmd = &cobra.Command{
	Use:   "agent",
	Short: "SC2 agent runner",
	Long: `Agent runner that plays StarCraft II games through the engine host.

Each configured player is a local policy, a remote controller or a
built-in bot. Every game tick the agents receive their observation and
answer with one raw action.`,
	SilenceUsage: true,
	RunE:         runAgent,
}

func init() {
	defaults := config.Default()
	flags := rootCmd.Flags()

	flags.StringVar(&cfgFile, "config", "", "Config file with the player roster (yaml, json or toml)")

	// Service settings
	flags.String("engine-addr", defaults.EngineAddr, "Engine host address")
	flags.String("controller-addr", defaults.ControllerAddr, "Controller address for remote players")
	flags.Duration("remote-timeout", defaults.RemoteTimeout, "Per-call timeout for remote players (0 for none)")
	flags.Bool("remote-fallback", defaults.RemoteFallback, "Play a no-op when a remote call fails instead of stopping")

	// Game settings
	flags.String("map-name", defaults.MapName, "Map to play")
	flags.Uint32("step-mul", defaults.StepMul, "Game steps per agent step")
	flags.Bool("realtime", defaults.Realtime, "Run the game in real time")
	flags.Bool("disable-fog", defaults.DisableFog, "Disable fog of war")
	flags.Bool("visualize", defaults.Visualize, "Show the engine's feature layer viewer")
	flags.Int("max-episodes", defaults.MaxEpisodes, "Episodes to play (0 for unlimited)")
	flags.Int("max-frames", defaults.MaxFrames, "Total agent steps before stopping (0 for unlimited)")

	// Replays and recording
	flags.Bool("save-replay", defaults.SaveReplay, "Save a replay when the run ends")
	flags.String("replay-dir", defaults.ReplayDir, "Directory for saved replays")
	flags.String("record-path", defaults.RecordPath, "bbolt file for recorded transitions (empty disables recording)")
	flags.Int("batch-size", defaults.BatchSize, "Transitions buffered before each write")

	// Logging and metrics
	flags.String("log-level", defaults.LogLevel, "Log level (debug, info, warn, error)")
	flags.String("log-format", defaults.LogFormat, "Log format (console, json)")
	flags.String("admin-addr", defaults.AdminAddr, "Health and metrics HTTP address (empty to disable)")
}

func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	v, err := config.NewViper("AGENT", cfgFile)
	if err != nil {
		return nil, err
	}
	if err := config.BindFlags(v, cmd.Flags(), "config"); err != nil {
		return nil, err
	}
	cfg, err := config.Load(v)
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

func runAgent(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	logger, err := logging.New(os.Stderr, cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		return err
	}
	logger = logger.With().Str("service", "agent").Logger()

	reg := prometheus.NewRegistry()
	collector := metrics.NewCollector(logger, reg)

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if cfg.AdminAddr != "" {
		httpServer := serveAdmin(cfg, reg, logger)
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = httpServer.Shutdown(shutdownCtx)
		}()
	}

	dialRemote := func(p config.PlayerConfig) (actor.RemotePolicy, error) {
		return controller.Dial(cfg.ControllerAddr,
			controller.WithTimeout(cfg.RemoteTimeout),
			controller.WithFallback(cfg.RemoteFallback),
			controller.WithLogger(logger.With().Str("player", p.Name).Logger()),
			controller.WithMetrics(collector),
		)
	}
	roster, err := actor.BuildPlayers(cfg.Players, dialRemote,
		agent.WithLogger(logger),
		agent.WithMetrics(collector),
	)
	if err != nil {
		return err
	}

	env, err := engine.Dial(cfg.EngineAddr, logger)
	if err != nil {
		roster.Close()
		return err
	}
	defer func() {
		closeCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := env.Close(closeCtx); err != nil {
			logger.Warn().Err(err).Msg("Failed to close engine session")
		}
	}()

	opts := []actor.Option{actor.WithLogger(logger)}
	var recorder replay.Backend
	if cfg.RecordPath != "" {
		backend, err := replay.NewBoltBackend(cfg.RecordPath)
		if err != nil {
			roster.Close()
			return err
		}
		defer backend.Close()
		recorder = backend
		opts = append(opts, actor.WithRecorder(backend))
	}

	logger.Info().
		Str("engine", cfg.EngineAddr).
		Str("map", cfg.MapName).
		Int("players", len(cfg.Players)).
		Msg("Starting agent runner")

	runner := actor.New(cfg, env, roster, opts...)
	runErr := runner.Run(ctx)
	if err := runner.Close(); err != nil {
		logger.Warn().Err(err).Msg("Failed to close players")
	}
	if runErr != nil {
		if errors.Is(runErr, context.Canceled) {
			logger.Info().Msg("Run cancelled")
			return nil
		}
		return runErr
	}

	if recorder != nil {
		if stats, err := recorder.Stats(context.Background(), ""); err == nil {
			logger.Info().
				Str("path", cfg.RecordPath).
				Uint64("transitions", stats.TotalTransitions).
				Uint64("episodes", stats.TotalEpisodes).
				Msg("Transitions recorded")
		}
	}
	logger.Info().Int("episodes", runner.Episodes()).Msg("Agent runner stopped")
	return nil
}

func serveAdmin(cfg *config.Config, reg *prometheus.Registry, logger zerolog.Logger) *http.Server {
	adminServer := admin.NewServer(reg, logger, map[string]string{
		"service": "agent",
		"map":     cfg.MapName,
	})
	httpServer := &http.Server{
		Addr:              cfg.AdminAddr,
		Handler:           adminServer.Routes(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		logger.Info().Str("addr", cfg.AdminAddr).Msg("Admin server listening")
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error().Err(err).Msg("Admin server failed")
		}
	}()
	return httpServer
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
