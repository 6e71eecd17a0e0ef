package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"bookextract/internal/book"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "bookextract %s (extractor %s)\n", Version, book.ExtractorVersion)
	},
}
