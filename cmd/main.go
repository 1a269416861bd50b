package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"surfsup-api/internal/config"
	"surfsup-api/internal/logging"
)

const appName = "surfsup"

// Default version is "dev" if not set with -ldflags "-X main.version=..."
var version = "dev"

var (
	configFile string
	cfg        config.Config
	logger     *slog.Logger
)

var rootCmd = &cobra.Command{
	Use:   appName,
	Short: "Surf's Up climate API",
	Long: `Surf's Up serves a read-only JSON API over Hawaii weather station
observations: precipitation, stations, temperature observations and
temperature statistics over date ranges.

Without a subcommand it runs the HTTP server.`,
	SilenceUsage:      true,
	SilenceErrors:     true,
	PersistentPreRunE: setup,
	RunE:              runServe,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "TOML config file (overrides CONFIG_FILE; environment variables still win)")
	rootCmd.Version = version
}

func setup(cmd *cobra.Command, _ []string) error {
	path := configFile
	if path == "" {
		path = strings.TrimSpace(os.Getenv("CONFIG_FILE"))
	}
	var err error
	cfg, err = config.Load(path)
	if err != nil {
		return fmt.Errorf("config error: %w", err)
	}

	logger = logging.New(os.Stdout, cfg, version, appName)
	slog.SetDefault(logger)
	cmd.SetContext(logging.WithLogger(cmd.Context(), logger))
	return nil
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		stop()
		os.Exit(1)
	}
}
