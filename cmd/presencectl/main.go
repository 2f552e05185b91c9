package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/cmlabs-hris/presence-backend-go/internal/app"
	"github.com/cmlabs-hris/presence-backend-go/internal/config"
)

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "presencectl",
		Short: "Administration tool for the presence backend",
		Long: `presencectl issues access tokens, resets attendance records and exports
attendance reports. It reads the same environment (and .env file) as the API server.`,
		SilenceUsage: true,
	}

	rootCmd.AddCommand(newTokenCmd())
	rootCmd.AddCommand(newResetDayCmd())
	rootCmd.AddCommand(newResetAllCmd())
	rootCmd.AddCommand(newExportCmd())
	return rootCmd
}

// withApp loads the configuration, wires the services and runs fn with them.
func withApp(ctx context.Context, fn func(ctx context.Context, a *app.App) error) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("error loading config: %w", err)
	}

	a, err := app.New(ctx, cfg)
	if err != nil {
		return err
	}
	defer a.Close()

	return fn(ctx, a)
}

func main() {
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn})))

	if err := newRootCmd().ExecuteContext(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
