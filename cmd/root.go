// Package cmd implements the CLI commands using Cobra.
package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"bookextract/internal/config"
)

// Version is set at build time via ldflags.
var Version = "dev"

// Global flags
var (
	flagOutput      string
	flagVerbose     bool
	flagNoHistory   bool
	flagScreenshots bool
)

// cfg holds the loaded configuration (merged: defaults < config file < env < flags).
var cfg *config.Config

var rootCmd = &cobra.Command{
	Use:   "bookextract",
	Short: "Extract embedded PDF books from the Alkafeel digital library",
	Long: `bookextract opens reader pages of library.alkafeel.net in a headless browser,
finds the base64 PDF embedded in the page's nested iframes, and saves it as a file
together with a JSON metadata record.`,
	SilenceUsage:      true,
	PersistentPreRunE: loadConfig,
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&flagOutput, "output", "o", "", "Output directory (default: output)")
	rootCmd.PersistentFlags().BoolVarP(&flagVerbose, "verbose", "v", false, "Debug logging on the console")
	rootCmd.PersistentFlags().BoolVar(&flagNoHistory, "no-history", false, "Do not record attempts in the history database")
	rootCmd.PersistentFlags().BoolVar(&flagScreenshots, "screenshots", false, "Save a screenshot when an extraction fails")

	rootCmd.AddCommand(extractCmd)
	rootCmd.AddCommand(batchCmd)
	rootCmd.AddCommand(setupCmd)
	rootCmd.AddCommand(testCmd)
	rootCmd.AddCommand(infoCmd)
	rootCmd.AddCommand(historyCmd)
	rootCmd.AddCommand(versionCmd)
}

// loadConfig loads and merges configuration: defaults < config file < env < CLI flags.
func loadConfig(cmd *cobra.Command, args []string) error {
	var err error
	cfg, err = config.Load()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	if err := cfg.ApplyEnv(); err != nil {
		return err
	}

	// CLI flags override config file values
	if flagOutput != "" {
		cfg.OutputDir = flagOutput
	}
	if flagVerbose {
		cfg.Verbose = true
	}
	if flagNoHistory {
		cfg.History = false
	}
	if flagScreenshots {
		cfg.Browser.Screenshots = true
	}

	// Re-validate after env and flag overrides
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	return nil
}
