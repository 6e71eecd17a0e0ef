package cmd

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"bookextract/internal/book"
	"bookextract/internal/config"
	"bookextract/internal/history"
	"bookextract/internal/ui"
)

var (
	flagHistoryLimit  int
	flagHistoryRemove string
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "List recent extraction attempts",
	Args:  cobra.NoArgs,
	RunE:  historyRun,
}

func init() {
	historyCmd.Flags().IntVarP(&flagHistoryLimit, "limit", "n", 20, "Number of entries to show (0 for all)")
	historyCmd.Flags().StringVar(&flagHistoryRemove, "remove", "", "Forget every attempt for a book ID")
}

func historyRun(cmd *cobra.Command, args []string) error {
	path, err := config.HistoryPath()
	if err != nil {
		return err
	}
	ledger, err := history.Open(cmd.Context(), path)
	if err != nil {
		return fmt.Errorf("loading history: %w", err)
	}
	defer ledger.Close()

	p := ui.New(cmd.OutOrStdout())

	if flagHistoryRemove != "" {
		n, err := ledger.Remove(cmd.Context(), book.Identifier(flagHistoryRemove))
		if err != nil {
			return err
		}
		p.Printf("Removed %d entries for %s\n", n, flagHistoryRemove)
		return nil
	}

	entries, err := ledger.Load(cmd.Context(), flagHistoryLimit)
	if err != nil {
		return fmt.Errorf("loading history: %w", err)
	}
	if len(entries) == 0 {
		p.Printf("No history entries found.\n")
		return nil
	}

	p.Lines(history.FormatForDisplay(entries, time.Now()))
	return nil
}
