package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"newspulse/internal/app"
	"newspulse/internal/config"
	"newspulse/internal/logging"
)

var rootCmd = &cobra.Command{
	Use:   "newspulse",
	Short: "newspulse - a Hacker News aggregator with AI summaries",
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP server and the periodic ingest loop",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
		defer cancel()

		cfg := config.Load()
		logger := logging.New(cfg.Logging.Level, cfg.Logging.Format)

		application, err := app.New(ctx, cfg, logger)
		if err != nil {
			return err
		}
		defer application.Close()

		return application.Serve(ctx)
	},
}

var ingestCmd = &cobra.Command{
	Use:   "ingest",
	Short: "Run one ingest pass and print the result",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := context.Background()

		cfg := config.Load()
		logger := logging.New(cfg.Logging.Level, cfg.Logging.Format)

		application, err := app.New(ctx, cfg, logger)
		if err != nil {
			return err
		}
		defer application.Close()

		result := application.IngestOnce(ctx)
		encoded, err := json.MarshalIndent(result, "", "  ")
		if err != nil {
			return err
		}
		fmt.Println(string(encoded))

		if result.Error != "" {
			return fmt.Errorf("ingest failed: %s", result.Error)
		}
		return nil
	},
}

func main() {
	// Missing .env is fine; real deployments use actual env vars.
	_ = godotenv.Load()

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(ingestCmd)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
