package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/loyalty/backend/internal/bootstrap"
	"github.com/loyalty/backend/internal/infrastructure/config"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var Version = "dev"

func main() {
	rootCmd := &cobra.Command{
		Use:           "loyaltyctl",
		Short:         "Operator tool for the creator loyalty backend",
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	rootCmd.PersistentFlags().String("log-level", "", "Override log.level (debug, info, warn, error)")

	rootCmd.AddCommand(runCmd())
	rootCmd.AddCommand(tierCmd())
	rootCmd.AddCommand(boostCmd())
	rootCmd.AddCommand(tokenCmd())
	rootCmd.AddCommand(migrateCmd())

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// loadConfig reads the shared configuration. Logs go to stderr so stdout stays
// machine readable.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	cfg.Log.Output = "stderr"
	if level, _ := cmd.Flags().GetString("log-level"); level != "" {
		cfg.Log.Level = level
	}
	return cfg, nil
}

// withContainer wires the services, runs fn and releases everything afterwards
func withContainer(cmd *cobra.Command, fn func(ctx context.Context, c *bootstrap.Container, log *zap.Logger) error) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	log := bootstrap.NewLogger(cfg)
	defer func() {
		_ = log.Sync()
	}()

	ctx := cmd.Context()
	container, err := bootstrap.New(ctx, cfg, log, nil)
	if err != nil {
		return err
	}
	defer func() {
		if err := container.Close(context.Background()); err != nil {
			log.Error("Error closing resources", zap.Error(err))
		}
	}()
	return fn(ctx, container, log)
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
