package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
	"google.golang.org/grpc"

	"github.com/cartridge/sc2agent/internal/admin"
	"github.com/cartridge/sc2agent/internal/config"
	"github.com/cartridge/sc2agent/internal/controller"
	"github.com/cartridge/sc2agent/internal/logging"
	"github.com/cartridge/sc2agent/internal/metrics"
	"github.com/cartridge/sc2agent/internal/policy"
)

var cfgFile string

var rootCmd = &cobra.Command{
	Use:   "controller",
	Short: "SC2 remote controller service",
	Long: `Controller service that answers GetAction calls from remote agents.

Each call carries one observation; the hosted policy picks the action
returned to the agent.`,
	SilenceUsage: true,
	RunE:         runController,
}

func init() {
	defaults := config.DefaultController()
	flags := rootCmd.Flags()

	flags.StringVar(&cfgFile, "config", "", "Config file (yaml, json or toml)")
	flags.String("listen-addr", defaults.ListenAddr, "gRPC listen address")
	flags.String("admin-addr", defaults.AdminAddr, "Health and metrics HTTP address (empty to disable)")
	flags.String("policy", defaults.Policy, fmt.Sprintf("Hosted policy %v", policy.Names()))
	flags.Duration("shutdown-timeout", defaults.ShutdownTimeout, "Grace period for in-flight calls on shutdown")
	flags.String("log-level", defaults.LogLevel, "Log level (debug, info, warn, error)")
	flags.String("log-format", defaults.LogFormat, "Log format (console, json)")
}

func runController(cmd *cobra.Command, _ []string) error {
	v, err := config.NewViper("CONTROLLER", cfgFile)
	if err != nil {
		return err
	}
	if err := config.BindFlags(v, cmd.Flags(), "config"); err != nil {
		return err
	}
	cfg, err := config.LoadController(v)
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	logger, err := logging.New(os.Stderr, cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		return err
	}
	logger = logger.With().Str("service", "controller").Logger()

	p, err := policy.New(cfg.Policy)
	if err != nil {
		return err
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	collector := metrics.NewCollector(logger, reg)

	server := controller.NewGRPCServer(logger, reg, true, func(s grpc.ServiceRegistrar) {
		controller.Register(s, controller.NewServer(p, logger, collector))
	})

	listener, err := net.Listen("tcp", cfg.ListenAddr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", cfg.ListenAddr, err)
	}

	var httpServer *http.Server
	if cfg.AdminAddr != "" {
		adminServer := admin.NewServer(reg, logger, map[string]string{
			"service": "controller",
			"policy":  cfg.Policy,
		})
		httpServer = &http.Server{
			Addr:              cfg.AdminAddr,
			Handler:           adminServer.Routes(),
			ReadHeaderTimeout: 10 * time.Second,
		}
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	group, ctx := errgroup.WithContext(ctx)
	group.Go(func() error {
		logger.Info().Str("addr", listener.Addr().String()).Str("policy", cfg.Policy).Msg("Controller listening")
		return server.Serve(listener)
	})
	if httpServer != nil {
		group.Go(func() error {
			logger.Info().Str("addr", httpServer.Addr).Msg("Admin server listening")
			if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return fmt.Errorf("admin server failed: %w", err)
			}
			return nil
		})
	}
	group.Go(func() error {
		<-ctx.Done()
		logger.Info().Msg("Shutting down controller...")
		shutdown(server, httpServer, cfg.ShutdownTimeout, logger)
		return nil
	})

	if err := group.Wait(); err != nil && !errors.Is(err, grpc.ErrServerStopped) {
		return err
	}
	logger.Info().Msg("Controller stopped")
	return nil
}

// shutdown lets in-flight calls finish within timeout, then stops hard
func shutdown(server *grpc.Server, httpServer *http.Server, timeout time.Duration, logger zerolog.Logger) {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	if httpServer != nil {
		if err := httpServer.Shutdown(ctx); err != nil {
			logger.Warn().Err(err).Msg("Admin server shutdown failed")
		}
	}

	stopped := make(chan struct{})
	go func() {
		server.GracefulStop()
		close(stopped)
	}()
	select {
	case <-stopped:
	case <-ctx.Done():
		logger.Warn().Dur("timeout", timeout).Msg("Graceful stop timed out, forcing")
		server.Stop()
	}
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
