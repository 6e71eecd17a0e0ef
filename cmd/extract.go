package cmd

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"bookextract/internal/book"
)

var extractCmd = &cobra.Command{
	Use:   "extract URL",
	Short: "Extract the PDF from one reader page",
	Args:  cobra.ExactArgs(1),
	RunE:  extractRun,
}

func extractRun(cmd *cobra.Command, args []string) error {
	return runExtract(cmd, args[0])
}

// runExtract extracts one URL and prints the outcome.
func runExtract(cmd *cobra.Command, url string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	rt, err := newRuntime(ctx)
	if err != nil {
		return err
	}
	defer rt.Close()

	res, err := rt.pipeline.Extract(ctx, book.Request{
		URL:       url,
		OutputDir: rt.outDir,
		Verbose:   cfg.Verbose,
		Attempt:   1,
	})
	rt.record(ctx, "", res)
	if res != nil {
		rt.printer.Result(res)
	}
	if err != nil {
		return err
	}
	if !res.Success {
		return errFailed
	}
	return nil
}
