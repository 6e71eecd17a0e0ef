package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/spf13/cobra"

	"bookextract/internal/batch"
	"bookextract/internal/book"
	"bookextract/internal/logging"
	"bookextract/internal/source"
	"bookextract/internal/store"
)

var (
	flagContinueOnError bool
	flagRetries         int
)

var batchCmd = &cobra.Command{
	Use:   "batch-extract FILE",
	Short: "Extract every reader URL listed in FILE, one per line",
	Args:  cobra.ExactArgs(1),
	RunE:  batchRun,
}

func init() {
	batchCmd.Flags().BoolVar(&flagContinueOnError, "continue-on-error", false, "Keep going after a failed item")
	batchCmd.Flags().IntVar(&flagRetries, "retries", -1, "Extra attempts for navigation failures (default from config)")
}

func batchRun(cmd *cobra.Command, args []string) error {
	urls, err := source.ReadList(args[0])
	if err != nil {
		return err
	}
	if len(urls) == 0 {
		return fmt.Errorf("%s contains no URLs", args[0])
	}

	policy := book.FailFast
	if flagContinueOnError || cfg.ContinueOnError {
		policy = book.ContinueOnError
	}
	retries := cfg.Retries
	if flagRetries >= 0 {
		retries = flagRetries
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	rt, err := newRuntime(ctx)
	if err != nil {
		return err
	}
	defer rt.Close()

	o := batch.New(rt.pipeline, batch.Options{
		Policy:     policy,
		Retries:    retries,
		RetryDelay: cfg.RetryDelay,
		Logger:     rt.log,
		Observer: func(ctx context.Context, item book.BatchItem, done, total int) {
			rt.record(ctx, logging.RunID(ctx), item.Result)
			rt.printer.Progress(item, done, total)
		},
	})
	s, err := o.Run(ctx, urls, rt.outDir, cfg.Verbose)
	rt.printer.Summary(s, filepath.Join(rt.outDir, store.SummaryFile))
	if errors.Is(err, book.ErrBrowserLaunch) {
		return fmt.Errorf("batch aborted: %w", err)
	}
	return err
}
