// Package cmd contains all CLI commands for powerstate.
package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"github.com/spf13/cobra"

	"github.com/bgsforge/powerstate/internal/config"
	"github.com/bgsforge/powerstate/internal/logging"
)

var (
	// Version is the current version of powerstate
	Version = "0.1.0"

	// Global flags
	verbose    bool
	configPath string
	logFormat  string
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "powerstate",
	Short: "Background simulation reports for powers in Elite Dangerous",
	Long: `powerstate builds background simulation (BGS) reports for a power.

It reads a snapshot of populated systems, fetches per-system faction data
from EDSM (cached locally), classifies every control sphere by its
fortification bonus and writes a report listing wars, pushes, defense
targets and the sphere economics.

Configuration:
  powerstate.yaml is searched from the working directory upwards, or given
  with --config. Run 'powerstate config init' to write the defaults.

Examples:
  powerstate report -p aisling              # Advanced and simple report
  powerstate report -p winters --cache-only # Never touch the network
  powerstate report -p aisling --format xlsx -o out/
  powerstate cache stats                    # Inspect the faction cache

See 'powerstate <command> --help' for command-specific options.`,
	Version:       Version,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		stop()
		os.Exit(1)
	}
}

func init() {
	// Global flags available to all commands
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging")
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Path to config file (default: search for powerstate.yaml)")
	rootCmd.PersistentFlags().StringVar(&logFormat, "log-format", "", "Log format (console|json), overrides the config")
}

// loadConfig reads the file named by --config, or searches from the
// working directory and falls back to the defaults.
func loadConfig() (*config.Config, error) {
	if configPath != "" {
		return config.LoadFromPath(configPath)
	}
	cwd, err := os.Getwd()
	if err != nil {
		return nil, fmt.Errorf("get working directory: %w", err)
	}
	return config.Load(cwd)
}

// newLogger applies the global logging flags on top of the config.
func newLogger(cfg *config.Config) (logging.Logger, error) {
	lc := cfg.Log
	if verbose {
		lc.Level = "debug"
	}
	if logFormat != "" {
		lc.Format = logFormat
	}
	return logging.NewLogger(lc)
}

func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}
