package ui

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"bookextract/internal/book"
)

func TestResultPlain(t *testing.T) {
	var buf bytes.Buffer
	p := New(&buf)

	p.Result(&book.Result{
		Success:    true,
		Identifier: "b1",
		OutputPath: "out/pdfs/b1.pdf",
		ByteSize:   2048,
		Duration:   1500 * time.Millisecond,
		Source:     &book.Source{Frame: book.FrameInfo{Path: "1.0", Depth: 2}, Via: book.ViaVariable},
	})

	got := buf.String()
	for _, want := range []string{"✓ b1", "out/pdfs/b1.pdf", "2.0 KiB", "1.0 (depth 2, variable)", "1.5s"} {
		if !strings.Contains(got, want) {
			t.Errorf("output missing %q:\n%s", want, got)
		}
	}
	if strings.Contains(got, "\x1b[") {
		t.Errorf("plain output contains escape codes: %q", got)
	}
}

func TestResultFailure(t *testing.T) {
	var buf bytes.Buffer
	New(&buf).Result(&book.Result{
		Identifier:   "b2",
		Stage:        book.StageLocate,
		Error:        "not found",
		MetadataPath: "out/metadata/b2.json",
	})

	got := buf.String()
	for _, want := range []string{"✗ b2", "locate", "not found", "out/metadata/b2.json"} {
		if !strings.Contains(got, want) {
			t.Errorf("output missing %q:\n%s", want, got)
		}
	}
}

func TestProgress(t *testing.T) {
	tests := []struct {
		name string
		item book.BatchItem
		want string
	}{
		{
			name: "succeeded",
			item: book.BatchItem{URL: "u", Status: book.StatusSucceeded, Result: &book.Result{Identifier: "a", Success: true, ByteSize: 10}},
			want: "[1/3] ✓ a 10 B",
		},
		{
			name: "failed",
			item: book.BatchItem{URL: "u", Status: book.StatusFailed, Result: &book.Result{Identifier: "b", Error: "boom"}},
			want: "[1/3] ✗ b: boom",
		},
		{
			name: "skipped",
			item: book.BatchItem{URL: "https://x", Status: book.StatusSkipped},
			want: "[1/3] - https://x",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			New(&buf).Progress(tt.item, 1, 3)
			if got := strings.TrimSpace(buf.String()); got != tt.want {
				t.Errorf("Progress = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestSummary(t *testing.T) {
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	s := &book.BatchSummary{
		RunID:       "r1",
		Policy:      book.ContinueOnError,
		StartedAt:   start,
		FinishedAt:  start.Add(90 * time.Second),
		Total:       4,
		Succeeded:   3,
		Failed:      1,
		SuccessRate: 75,
	}
	var buf bytes.Buffer
	New(&buf).Summary(s, "out/batch_results.json")

	got := buf.String()
	for _, want := range []string{"Batch summary", "r1", "continue-on-error", "75.0%", "1m30s", "out/batch_results.json"} {
		if !strings.Contains(got, want) {
			t.Errorf("summary missing %q:\n%s", want, got)
		}
	}
}

func TestTableAligns(t *testing.T) {
	var buf bytes.Buffer
	New(&buf).Table("Paths", [][2]string{{"a", "1"}, {"long", "2"}})

	want := "Paths\n  a     1\n  long  2\n"
	if buf.String() != want {
		t.Errorf("Table = %q, want %q", buf.String(), want)
	}
}
