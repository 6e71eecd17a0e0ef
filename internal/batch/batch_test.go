package batch

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bookextract/internal/book"
	"bookextract/internal/logging"
)

// scripted fails any URL listed in failures with the given kind.
type scripted struct {
	failures map[string][]book.Kind // per-attempt kinds; success once exhausted
	calls    []book.Request
	onCall   func(n int)
}

func (s *scripted) Extract(ctx context.Context, req book.Request) (*book.Result, error) {
	s.calls = append(s.calls, req)
	if s.onCall != nil {
		s.onCall(len(s.calls))
	}
	res := &book.Result{URL: req.URL, Identifier: book.Identifier(req.URL), Attempts: req.Attempt}
	kinds := s.failures[req.URL]
	if len(kinds) >= req.Attempt {
		kind := kinds[req.Attempt-1]
		err := book.Errorf(kind, "scripted %s", kind)
		res.Fail(err)
		if kind == book.KindBrowserLaunch {
			return res, err
		}
		return res, nil
	}
	res.Success = true
	return res, nil
}

func (s *scripted) urls() []string {
	out := make([]string, len(s.calls))
	for i, c := range s.calls {
		out[i] = c.URL
	}
	return out
}

func statuses(s *book.BatchSummary) []book.Status {
	out := make([]book.Status, len(s.Items))
	for i, it := range s.Items {
		out[i] = it.Status
	}
	return out
}

func TestContinueOnError(t *testing.T) {
	ex := &scripted{failures: map[string][]book.Kind{"u2": {book.KindContentNotFound}}}
	o := New(ex, Options{Policy: book.ContinueOnError})

	s, err := o.Run(context.Background(), []string{"u1", "u2", "u3"}, t.TempDir(), false)
	require.NoError(t, err)

	assert.Equal(t, []string{"u1", "u2", "u3"}, ex.urls(), "all items attempted in order")
	assert.Equal(t, []book.Status{book.StatusSucceeded, book.StatusFailed, book.StatusSucceeded}, statuses(s))
	assert.Equal(t, 3, s.Attempted)
	assert.Equal(t, 2, s.Succeeded)
	assert.Equal(t, 1, s.Failed)
	assert.Equal(t, 0, s.Skipped)
	assert.Equal(t, book.KindContentNotFound, s.Items[1].Result.ErrorKind)
	assert.NotEmpty(t, s.RunID)
}

func TestFailFast(t *testing.T) {
	ex := &scripted{failures: map[string][]book.Kind{"u2": {book.KindDecode}}}
	o := New(ex, Options{Policy: book.FailFast})

	s, err := o.Run(context.Background(), []string{"u1", "u2", "u3", "u4"}, t.TempDir(), false)
	require.Error(t, err)

	assert.Equal(t, []string{"u1", "u2"}, ex.urls(), "items after the failure are never attempted")
	assert.Equal(t, []book.Status{book.StatusSucceeded, book.StatusFailed, book.StatusSkipped, book.StatusSkipped}, statuses(s))
	assert.Equal(t, 2, s.Attempted)
	assert.Equal(t, 2, s.Skipped)
	assert.Nil(t, s.Items[2].Result)
	assert.Empty(t, s.Fatal)
}

func TestFatalStopsEvenWhenContinuing(t *testing.T) {
	ex := &scripted{failures: map[string][]book.Kind{"u1": {book.KindBrowserLaunch}}}
	o := New(ex, Options{Policy: book.ContinueOnError})

	out := t.TempDir()
	s, err := o.Run(context.Background(), []string{"u1", "u2"}, out, false)
	require.Error(t, err)
	assert.True(t, errors.Is(err, book.ErrBrowserLaunch))
	assert.Equal(t, []book.Status{book.StatusFailed, book.StatusSkipped}, statuses(s))
	assert.NotEmpty(t, s.Fatal)

	_, statErr := os.Stat(filepath.Join(out, "batch_results.json"))
	assert.NoError(t, statErr, "summary persisted after fatal error")
}

func TestRetriesRetryableOnly(t *testing.T) {
	ex := &scripted{failures: map[string][]book.Kind{
		"flaky":  {book.KindNavigation, book.KindNavigation},
		"broken": {book.KindPayloadMissing},
	}}
	o := New(ex, Options{Policy: book.ContinueOnError, Retries: 2})

	s, err := o.Run(context.Background(), []string{"flaky", "broken"}, t.TempDir(), false)
	require.NoError(t, err)

	assert.Equal(t, []string{"flaky", "flaky", "flaky", "broken"}, ex.urls())
	assert.Equal(t, book.StatusSucceeded, s.Items[0].Status)
	assert.Equal(t, 3, s.Items[0].Result.Attempts)
	assert.Equal(t, book.StatusFailed, s.Items[1].Status)
	assert.Equal(t, 1, s.Items[1].Result.Attempts)
}

func TestRetriesExhausted(t *testing.T) {
	ex := &scripted{failures: map[string][]book.Kind{"down": {book.KindNavigation, book.KindNavigation}}}
	o := New(ex, Options{Policy: book.ContinueOnError, Retries: 1})

	s, err := o.Run(context.Background(), []string{"down"}, t.TempDir(), false)
	require.NoError(t, err)
	assert.Len(t, ex.calls, 2)
	assert.Equal(t, book.StatusFailed, s.Items[0].Status)
}

func TestCancelSkipsRemaining(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	ex := &scripted{onCall: func(n int) {
		if n == 2 {
			cancel()
		}
	}}
	o := New(ex, Options{Policy: book.ContinueOnError})

	out := t.TempDir()
	s, err := o.Run(ctx, []string{"u1", "u2", "u3"}, out, false)
	require.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, []string{"u1", "u2"}, ex.urls())
	assert.Equal(t, book.StatusSkipped, s.Items[2].Status)

	_, statErr := os.Stat(filepath.Join(out, "batch_results.json"))
	assert.NoError(t, statErr)
}

func TestObserverAndSummaryFile(t *testing.T) {
	ex := &scripted{failures: map[string][]book.Kind{"u2": {book.KindDecode}}}
	var seen []int
	o := New(ex, Options{
		Policy: book.ContinueOnError,
		Observer: func(ctx context.Context, item book.BatchItem, done, total int) {
			assert.Equal(t, 2, total)
			assert.NotEmpty(t, logging.RunID(ctx))
			seen = append(seen, done)
		},
	})

	out := t.TempDir()
	_, err := o.Run(context.Background(), []string{"u1", "u2"}, out, true)
	require.NoError(t, err)
	assert.Equal(t, []int{1, 2}, seen)
	for _, c := range ex.calls {
		assert.True(t, c.Verbose)
		assert.Equal(t, out, c.OutputDir)
	}

	data, err := os.ReadFile(filepath.Join(out, "batch_results.json"))
	require.NoError(t, err)
	var got book.BatchSummary
	require.NoError(t, json.Unmarshal(data, &got))
	assert.Equal(t, 2, got.Total)
	assert.Equal(t, 1, got.Succeeded)
	assert.InDelta(t, 50.0, got.SuccessRate, 0.001)
	assert.Equal(t, book.ContinueOnError, got.Policy)
}

func TestEmptyBatch(t *testing.T) {
	s, err := New(&scripted{}, Options{}).Run(context.Background(), nil, t.TempDir(), false)
	require.NoError(t, err)
	assert.Equal(t, 0, s.Total)
	assert.Equal(t, book.FailFast, s.Policy)
}
