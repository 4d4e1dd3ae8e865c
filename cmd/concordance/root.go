package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/gcbaptista/imagination-concordance/config"
	"github.com/gcbaptista/imagination-concordance/internal/logging"
)

var (
	cfgFile  string
	verbose  bool
	settings *config.Settings
	logger   *slog.Logger
	version  = "dev"
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "concordance",
	Short: "ImagiNation concordance search",
	Long: `concordance serves a keyword-in-context search over the ImagiNation
corpus of Norwegian fiction, backed by the DH-lab concordance API.

Example usage:
  concordance serve                       # Start the web service
  concordance search "Norge"              # Search from the terminal
  concordance search --author Wergeland luftskib
  concordance authors                     # List the corpus authors`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return initConfig()
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "concordance.toml", "config file (TOML)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
}

// initConfig loads the settings and sets up the logger.
func initConfig() error {
	var err error
	settings, err = config.Load(cfgFile)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	level := settings.Logging.Level
	if verbose {
		level = "debug"
	}
	logger = logging.Init(os.Stderr, level, settings.Logging.Format)

	logger.Debug("configuration loaded",
		"config", cfgFile,
		"corpus", settings.Corpus.Source,
		"endpoint", settings.Search.Endpoint,
		"markup_mode", settings.Display.MarkupMode)

	return nil
}
