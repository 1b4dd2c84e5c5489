package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"aegis-hq/themis/pkg/config"
	"aegis-hq/themis/pkg/telemetry/logging"
	"aegis-hq/themis/pkg/telemetry/metrics"
)

var runFlags struct {
	logLevel string
	dryRun   bool
	watch    bool
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Start the Themis safety service",
	Long: `Start the Themis safety service with the specified configuration.

The service assembles the full pipeline (detector client, moderation
gate, token vault, evidence store) and keeps the metrics endpoint and
retention scheduler running until interrupted.

Examples:
  # Start with default config
  themis run

  # Start with custom config
  themis run --config /etc/themis/config.yaml

  # Validate config without starting
  themis run --dry-run

  # Reload configuration on file changes
  themis run --watch`,
	RunE: runService,
}

func init() {
	rootCmd.AddCommand(runCmd)

	runCmd.Flags().StringVar(&runFlags.logLevel, "log-level", "", "override log level (debug, info, warn, error)")
	runCmd.Flags().BoolVar(&runFlags.dryRun, "dry-run", false, "validate config without starting the service")
	runCmd.Flags().BoolVar(&runFlags.watch, "watch", false, "reload configuration on file changes")
}

func runService(cmd *cobra.Command, args []string) error {
	cfg, err := config.LoadConfigWithEnvOverrides(cfgFile)
	if err != nil {
		return err
	}

	if runFlags.logLevel != "" {
		cfg.Telemetry.Logging.Level = runFlags.logLevel
	}

	logger, err := logging.Install(logging.FromConfig(cfg.Telemetry.Logging))
	if err != nil {
		return err
	}

	if runFlags.dryRun {
		fmt.Println("✓ Configuration valid")
		fmt.Print(cfg.Describe())
		return nil
	}

	fmt.Printf("Themis v%s\n", Version)
	fmt.Printf("Loading configuration from: %s\n", cfgFile)
	fmt.Println("✓ Configuration loaded")
	logger.Info("safety posture", "description", cfg.Describe())

	s, err := buildStack(cfg)
	if err != nil {
		return err
	}
	defer s.Close()
	fmt.Println("✓ Safety pipeline assembled")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if s.pruner != nil {
		if err := s.pruner.Start(ctx); err != nil {
			logger.Warn("failed to start retention scheduler", "error", err)
		} else if next := s.pruner.NextPruning(); next != nil {
			logger.Debug("retention scheduler started", "next_pruning", next)
		}
	}

	// Metrics endpoint
	errChan := make(chan error, 1)
	var metricsServer *http.Server
	if boolValue(cfg.Telemetry.Metrics.Enabled, true) {
		mux := http.NewServeMux()
		mux.Handle("/metrics", metrics.Handler(s.registry))

		metricsServer = &http.Server{
			Addr:    cfg.Telemetry.Metrics.ListenAddress,
			Handler: mux,
		}
		go func() {
			if err := metricsServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				errChan <- fmt.Errorf("metrics server error: %w", err)
			}
		}()
		fmt.Printf("✓ Metrics endpoint: http://%s/metrics\n", cfg.Telemetry.Metrics.ListenAddress)
	}

	// Configuration hot reload. A changed file only updates the safety
	// posture log for now; pipeline wiring stays fixed for the process
	// lifetime.
	if runFlags.watch {
		watcher, err := config.NewWatcher(cfgFile, logger)
		if err != nil {
			return err
		}
		go func() {
			err := watcher.Watch(ctx, func(next *config.Config) {
				logger.Info("configuration changed; restart to apply pipeline wiring",
					"description", next.Describe(),
				)
			})
			if err != nil {
				logger.Error("configuration watcher exited", "error", err)
			}
		}()
		fmt.Println("✓ Watching configuration for changes")
	}

	fmt.Println("\nPress Ctrl+C to stop")

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errChan:
		return err
	case sig := <-sigChan:
		fmt.Printf("\nReceived signal %s, shutting down gracefully...\n", sig)
		cancel()

		if metricsServer != nil {
			shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer shutdownCancel()
			if err := metricsServer.Shutdown(shutdownCtx); err != nil {
				slog.Error("metrics server shutdown failed", "error", err)
			}
		}

		fmt.Println("✓ Service stopped")
		return nil
	}
}
