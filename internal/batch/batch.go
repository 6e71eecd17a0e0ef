// Package batch runs extractions for a list of URLs one after another and
// records the outcome of each in a summary.
package batch

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"bookextract/internal/book"
	"bookextract/internal/logging"
	"bookextract/internal/store"
)

// Extractor runs one extraction attempt. The error is reserved for
// failures that end the whole batch.
type Extractor interface {
	Extract(ctx context.Context, req book.Request) (*book.Result, error)
}

// Observer is told about every item once it has finished. ctx carries the
// batch's run ID.
type Observer func(ctx context.Context, item book.BatchItem, done, total int)

// Options configures an Orchestrator.
type Options struct {
	Policy     book.Policy
	Retries    int           // Extra attempts for retryable failures
	RetryDelay time.Duration // Pause between attempts
	Observer   Observer
	Logger     *zap.Logger
	Now        func() time.Time
}

// Orchestrator drives a batch.
type Orchestrator struct {
	ex   Extractor
	opts Options
	log  *zap.Logger
}

// New creates an Orchestrator. The default policy is fail-fast.
func New(ex Extractor, opts Options) *Orchestrator {
	if opts.Policy == "" {
		opts.Policy = book.FailFast
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Orchestrator{ex: ex, opts: opts, log: opts.Logger}
}

// Run processes urls in order and writes the summary to
// <outDir>/batch_results.json. The summary is returned even when err is
// non-nil. err is set when the context is cancelled, when a batch-fatal
// failure occurs, or when a fail-fast batch stops on a failed item.
func (o *Orchestrator) Run(ctx context.Context, urls []string, outDir string, verbose bool) (*book.BatchSummary, error) {
	s := &book.BatchSummary{
		RunID:     uuid.NewString(),
		Policy:    o.opts.Policy,
		StartedAt: o.opts.Now(),
		Items:     make([]book.BatchItem, len(urls)),
	}
	for i, u := range urls {
		s.Items[i] = book.BatchItem{Index: i, URL: u, Status: book.StatusPending}
	}

	ctx = logging.WithRunID(ctx, s.RunID)
	log := logging.FromContext(ctx, o.log)
	log.Info("batch started", zap.Int("items", len(urls)), zap.String("policy", string(o.opts.Policy)))

	var runErr error
	for i := range s.Items {
		if err := ctx.Err(); err != nil {
			runErr = err
			break
		}

		it := &s.Items[i]
		it.Status = book.StatusRunning

		res, err := o.attempt(ctx, it.URL, outDir, verbose)
		it.Result = res
		if res != nil && res.Success {
			it.Status = book.StatusSucceeded
		} else {
			it.Status = book.StatusFailed
		}
		if o.opts.Observer != nil {
			o.opts.Observer(ctx, *it, i+1, len(s.Items))
		}

		if err != nil {
			s.Fatal = err.Error()
			runErr = err
			log.Error("batch aborted", zap.Int("item", i), zap.Error(err))
			break
		}
		if it.Status == book.StatusFailed {
			if cerr := ctx.Err(); cerr != nil {
				runErr = cerr
				break
			}
			if o.opts.Policy == book.FailFast {
				runErr = fmt.Errorf("item %d (%s) failed: %s", i, it.URL, res.Error)
				break
			}
		}
	}

	for i := range s.Items {
		if s.Items[i].Status == book.StatusPending {
			s.Items[i].Status = book.StatusSkipped
		}
	}
	s.FinishedAt = o.opts.Now()
	s.Tally()

	path, err := store.NewWriter(outDir, "", o.log).WriteSummary(s)
	if err != nil {
		log.Error("writing batch summary", zap.Error(err))
		if runErr == nil {
			runErr = err
		}
	} else {
		log.Info("batch finished",
			zap.Int("succeeded", s.Succeeded),
			zap.Int("failed", s.Failed),
			zap.Int("skipped", s.Skipped),
			zap.String("summary", path),
		)
	}
	return s, runErr
}

// attempt runs one item, retrying retryable failures.
func (o *Orchestrator) attempt(ctx context.Context, url, outDir string, verbose bool) (*book.Result, error) {
	for n := 1; ; n++ {
		res, err := o.ex.Extract(ctx, book.Request{URL: url, OutputDir: outDir, Verbose: verbose, Attempt: n})
		if err != nil || res == nil || res.Success || n > o.opts.Retries || ctx.Err() != nil {
			return res, err
		}
		if !(&book.Error{Kind: res.ErrorKind}).Retryable() {
			return res, nil
		}

		o.log.Info("retrying",
			zap.String("url", url),
			zap.Int("attempt", n+1),
			zap.String("reason", res.Error),
		)
		select {
		case <-ctx.Done():
			return res, nil
		case <-time.After(o.opts.RetryDelay):
		}
	}
}
