package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/alanyoungcy/swingdesk/internal/app"
	"github.com/alanyoungcy/swingdesk/internal/brief"
	"github.com/alanyoungcy/swingdesk/internal/config"
)

type configLoader func() (*config.Config, *slog.Logger, error)

func runCmd(load configLoader) *cobra.Command {
	var mode string
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run the configured mode (server, cycle or full) until interrupted",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, logger, err := load()
			if err != nil {
				return err
			}
			if mode != "" {
				cfg.Mode = mode
				if err := cfg.Validate(); err != nil {
					return err
				}
			}

			logger.Info("swingdesk starting", slog.String("mode", cfg.Mode))
			application := app.New(cfg, logger)
			defer application.Close()

			err = application.Run(cmd.Context())
			if err != nil && !errors.Is(err, context.Canceled) {
				return err
			}
			logger.Info("swingdesk stopped")
			return nil
		},
	}
	cmd.Flags().StringVar(&mode, "mode", "", "override the configured mode")
	return cmd
}

func briefCmd(load configLoader) *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "brief",
		Short: "Run one evaluation cycle and print the daily brief",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, logger, err := load()
			if err != nil {
				return err
			}
			application := app.New(cfg, logger)
			defer application.Close()

			res, err := application.RunCycle(cmd.Context())
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if asJSON {
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(res)
			}
			_, err = fmt.Fprint(out, brief.Render(res.Brief))
			return err
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "print the full cycle result as JSON")
	return cmd
}
