package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

// smokeURL is a reader page known to carry an embedded PDF.
const smokeURL = "https://library.alkafeel.net/dic/book/?e=38c15-44c77-06464-07b96-de2b7-82795-3b"

// smokeOutputDir keeps test runs apart from real output unless -o is given.
const smokeOutputDir = "test_output"

var testCmd = &cobra.Command{
	Use:   "test",
	Short: "Run a live extraction of a known book into test_output",
	Args:  cobra.NoArgs,
	RunE:  testRun,
}

func testRun(cmd *cobra.Command, args []string) error {
	if flagOutput == "" {
		cfg.OutputDir = smokeOutputDir
	}
	cfg.Verbose = true

	fmt.Fprintf(cmd.OutOrStdout(), "Test URL: %s\n", smokeURL)
	if err := runExtract(cmd, smokeURL); err != nil {
		return fmt.Errorf("test extraction failed: %w", err)
	}
	fmt.Fprintln(cmd.OutOrStdout(), "Test passed")
	return nil
}
