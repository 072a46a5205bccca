// Command swingdesk is the backend entry point for the swing trading desk.
// It loads configuration, validates it, wires dependencies and either runs
// the configured mode, a single evaluation cycle, or an offline ranking.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/alanyoungcy/swingdesk/internal/config"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "fatal: %v\n", err)
		stop()
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var configPath string
	root := &cobra.Command{
		Use:           "swingdesk",
		Short:         "Swing trading desk: portfolio evaluation, slots and the daily brief",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&configPath, "config", "config.toml", "path to configuration file")

	load := func() (*config.Config, *slog.Logger, error) {
		return loadConfig(configPath)
	}
	root.AddCommand(runCmd(load))
	root.AddCommand(briefCmd(load))
	root.AddCommand(rankCmd())
	return root
}

// loadConfig reads and validates the configuration and builds the JSON
// logger at the configured level.
func loadConfig(path string) (*config.Config, *slog.Logger, error) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		path = ""
	}
	cfg, err := config.Load(path)
	if err != nil {
		return nil, nil, fmt.Errorf("load config %s: %w", path, err)
	}

	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
		Level: parseLevel(cfg.LogLevel),
	}))
	slog.SetDefault(logger)

	if err := cfg.Validate(); err != nil {
		return nil, nil, err
	}
	return cfg, logger, nil
}

func parseLevel(s string) slog.Level {
	switch s {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
