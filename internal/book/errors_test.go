package book

import (
	"errors"
	"fmt"
	"testing"
	"time"
)

func TestErrorIs(t *testing.T) {
	cause := errors.New("net::ERR_NAME_NOT_RESOLVED")
	err := fmt.Errorf("opening page: %w", Errorf(KindNavigation, "navigate %s: %w", "https://x", cause))

	if !errors.Is(err, ErrNavigation) {
		t.Error("expected errors.Is(err, ErrNavigation)")
	}
	if errors.Is(err, ErrDecode) {
		t.Error("navigation error should not match ErrDecode")
	}
	if !errors.Is(err, cause) {
		t.Error("expected cause to be reachable through Unwrap")
	}
	if !IsRetryable(err) {
		t.Error("navigation errors should be retryable")
	}
	if IsFatal(err) {
		t.Error("navigation errors should not be fatal")
	}
}

func TestKindStage(t *testing.T) {
	tests := []struct {
		kind Kind
		want Stage
	}{
		{KindInvalidURL, StageValidate},
		{KindBrowserLaunch, StageLaunch},
		{KindNavigation, StageNavigate},
		{KindContentNotFound, StageLocate},
		{KindPayloadMissing, StageExtract},
		{KindDecode, StageDecode},
		{KindWrite, StageWrite},
	}
	for _, tt := range tests {
		t.Run(string(tt.kind), func(t *testing.T) {
			if got := tt.kind.Stage(); got != tt.want {
				t.Errorf("Stage() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestResultFail(t *testing.T) {
	r := &Result{StartedAt: time.Now()}
	r.Fail(Errorf(KindDecode, "illegal base64 data at input byte 4"))
	if r.Success || r.ErrorKind != KindDecode || r.Stage != StageDecode {
		t.Errorf("unexpected result: %+v", r)
	}

	r = &Result{}
	r.Fail(errors.New("disk full"))
	if r.ErrorKind != KindWrite {
		t.Errorf("foreign error kind = %q, want %q", r.ErrorKind, KindWrite)
	}
}

func TestBatchSummaryTally(t *testing.T) {
	s := &BatchSummary{Items: []BatchItem{
		{Status: StatusSucceeded},
		{Status: StatusFailed},
		{Status: StatusSucceeded},
		{Status: StatusSkipped},
	}}
	s.Tally()
	if s.Total != 4 || s.Attempted != 3 || s.Succeeded != 2 || s.Failed != 1 || s.Skipped != 1 {
		t.Errorf("unexpected counters: %+v", s)
	}
	if s.SuccessRate != 50 {
		t.Errorf("SuccessRate = %v, want 50", s.SuccessRate)
	}
}
