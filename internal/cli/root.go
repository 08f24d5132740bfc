// Package cli implements the dbeelink command line: one-shot queries against
// configured data sources and catalog listings.
package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/kndndrj/dbeelink/internal/config"
	"github.com/kndndrj/dbeelink/plugin"
)

var version = "dev"

// Execute runs the CLI.
func Execute() int {
	rootCmd := newRootCmd()
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}
	return 0
}

// globals are the persistent flags shared by every command.
type globals struct {
	configPath string
	logLevel   string
	output     string
}

func newRootCmd() *cobra.Command {
	g := new(globals)

	rootCmd := &cobra.Command{
		Use:           "dbeelink",
		Short:         "Query remote databases through call-level drivers",
		Long:          "Command-line interface for streaming rows from configured data sources into typed results.",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return validateOutputFormat(g.output)
		},
	}

	rootCmd.PersistentFlags().StringVarP(&g.configPath, "config", "c", "", "Config file (default $"+config.EnvConfigPath+" or the user config dir)")
	rootCmd.PersistentFlags().StringVar(&g.logLevel, "log-level", "warn", "Log level written to stderr (debug, info, warn, error)")
	rootCmd.PersistentFlags().StringVarP(&g.output, "output", "o", "table", "Output format (table, json, csv)")

	rootCmd.AddCommand(newQueryCmd(g))
	rootCmd.AddCommand(newSourcesCmd(g))
	rootCmd.AddCommand(newDriversCmd(g))
	rootCmd.AddCommand(newTypesCmd(g))

	return rootCmd
}

func (g *globals) loadConfig() (*config.Config, error) {
	cfg, err := config.Load(g.configPath)
	if err != nil {
		return nil, fmt.Errorf("config.Load: %w", err)
	}
	return cfg, nil
}

func (g *globals) logger(cmd *cobra.Command) (*plugin.Logger, error) {
	level, err := plugin.ParseLevel(g.logLevel)
	if err != nil {
		return nil, err
	}
	return plugin.NewLogger(nil, plugin.WithOutput(cmd.ErrOrStderr()), plugin.WithLevel(level)), nil
}
