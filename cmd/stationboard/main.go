package main

import (
	"fmt"
	"log/slog"
	"os"
	_ "time/tzdata"

	"github.com/spf13/cobra"

	"stationboard.org/internal/app"
	"stationboard.org/internal/appconf"
	"stationboard.org/internal/logging"
)

var rootCmd = &cobra.Command{
	Use:          "stationboard",
	Short:        "MBTA station departure board",
	Long:         "Shows the next commuter rail departures and arrivals at a station",
	SilenceUsage: true,
}

var (
	configPath string
	dotEnvPath string
)

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "Path to a YAML config file")
	rootCmd.PersistentFlags().StringVarP(&dotEnvPath, "env-file", "", ".env", "Path to a .env file loaded before the environment")
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(boardCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// loadApplication reads the configuration and wires the application.
func loadApplication() (*app.Application, error) {
	if err := appconf.LoadDotEnv(dotEnvPath); err != nil {
		return nil, fmt.Errorf("loading %s: %w", dotEnvPath, err)
	}

	cfg, err := appconf.Load(configPath)
	if err != nil {
		return nil, err
	}

	logger := newLogger(cfg)
	return app.New(cfg, logger), nil
}

func newLogger(cfg appconf.Config) *slog.Logger {
	logger := logging.NewLogger(os.Stdout, logging.ParseLevel(cfg.LogLevel), logging.Format(cfg.LogFormat))
	return logger.With(slog.String("env", cfg.Env.String()))
}
