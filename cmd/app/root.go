package main

import (
	"os"

	"portfolio_go/internal/app"

	"github.com/spf13/cobra"
)

const defaultConfigPath = "configs/config.yaml"

var configPath string

var rootCmd = &cobra.Command{
	Use:   "app",
	Short: "Stock portfolio tracker with cached price lookups",
	Long: `Tracks holdings per ticker symbol with weighted average cost basis and
serves cached stock quotes from Finnhub.

Configuration is read from an optional YAML file and then from the
environment (DATABASE_URL, FINNHUB_API_KEY, PORT, ...).`,
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "path to YAML config file (default "+defaultConfigPath+" if present)")
}

// bootstrap initializes the application for a command. quiet keeps
// info logs out of one-shot command output.
func bootstrap(quiet bool) (*app.Bootstrap, error) {
	b := app.NewBootstrap()
	b.Quiet = quiet

	path := configPath
	if path == "" {
		if _, err := os.Stat(defaultConfigPath); err == nil {
			path = defaultConfigPath
		}
	}
	if err := b.Initialize(path); err != nil {
		return nil, err
	}
	return b, nil
}
