package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/giovaniif/vending/cmd/api"
	"github.com/giovaniif/vending/infra/config"
	"github.com/giovaniif/vending/infra/logger"
	"github.com/giovaniif/vending/infra/loki"
	"github.com/spf13/cobra"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the vending machine HTTP server",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load()
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		if port, _ := cmd.Flags().GetInt("port"); port != 0 {
			cfg.Port = port
			if err := cfg.Validate(); err != nil {
				return err
			}
		}

		var extra io.Writer
		if lokiWriter := loki.NewWriter(cfg.LokiURL, cfg.ServiceName, map[string]string{"env": os.Getenv("ENV")}); lokiWriter != nil {
			defer lokiWriter.Close()
			extra = lokiWriter
		}
		log := logger.New(logger.Config{Level: cfg.LogLevel, Pretty: cfg.LogPretty, Extra: extra})

		machine, err := loadMachine(cmd, cfg)
		if err != nil {
			return fmt.Errorf("load machine: %w", err)
		}

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		if err := api.StartServer(ctx, cfg, machine, log); err != nil {
			log.Error().Err(err).Msg("server failed")
			return err
		}
		log.Info().Msg("vending machine stopped gracefully")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().IntP("port", "p", 0, "Port to listen on (overrides PORT)")
}
