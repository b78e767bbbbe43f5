// Package cmd defines and implements the CLI commands for the cartelera
// executable.
package cmd

import (
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/cartelera/cartelera/internal/logging"
	"github.com/cartelera/cartelera/pkg/config"
)

var cfgFile string

// newRootCmd creates and configures the root command.
func newRootCmd(logger *zap.Logger) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cartelera",
		Short: "Builds the city events listing from registered sources.",
		Long: `cartelera ingests a registry of unreliable event sources (feeds,
calendars, and plain listing pages), normalizes whatever can be salvaged
into one canonical shape, and publishes the upcoming-events artifacts the
frontend consumes.`,
	}

	cobra.OnInitialize(func() { config.InitConfig(cfgFile, logger) })

	cmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ./config.yaml)")

	cmd.AddCommand(newBuildCmd(logger))
	return cmd
}

// Execute is the main entry point.
func Execute() {
	logger, err := logging.New(os.Getenv("CARTELERA_DEV") != "")
	if err != nil {
		// No logger yet; this is the one place a raw exit is acceptable.
		os.Exit(1)
	}
	defer func() { _ = logger.Sync() }()

	if err := newRootCmd(logger).Execute(); err != nil {
		logger.Error("Command execution failed", zap.Error(err))
		_ = logger.Sync()
		os.Exit(1)
	}
}
