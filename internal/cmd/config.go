package cmd

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/bgsforge/powerstate/internal/config"
)

// configCmd represents the config command
var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage powerstate.yaml",
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Write the default powerstate.yaml",
	Long: `Write powerstate.yaml with the default settings into the current directory.

The defaults configure the aisling and winters powers. An existing file is
never overwritten.

Examples:
  powerstate config init`,
	Args: cobra.NoArgs,
	RunE: runConfigInit,
}

var configPowersCmd = &cobra.Command{
	Use:   "powers",
	Short: "List the configured powers",
	Args:  cobra.NoArgs,
	RunE:  runConfigPowers,
}

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(configInitCmd, configPowersCmd)
}

func runConfigInit(cmd *cobra.Command, args []string) error {
	cwd, err := os.Getwd()
	if err != nil {
		return fmt.Errorf("get working directory: %w", err)
	}
	return initConfig(cmd, cwd)
}

func initConfig(cmd *cobra.Command, dir string) error {
	path, err := config.SaveDefault(dir)
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s\n", path)
	return nil
}

func runConfigPowers(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	for _, id := range cfg.PowerIDs() {
		p := cfg.Powers[id]
		fmt.Fprintf(cmd.OutOrStdout(), "%-10s %s (HQ %s, favorable: %s)\n",
			id, p.Name, p.Headquarters, strings.Join(p.FavorableGovernments, ", "))
	}
	return nil
}
