// Package book defines shared types for the bookextract application.
package book

import "time"

// ExtractorVersion is stamped into every metadata record.
const ExtractorVersion = "1.0.0"

// Request is one extraction job as handed to the pipeline.
type Request struct {
	URL       string // Reader page URL
	OutputDir string // Root of the output tree
	Verbose   bool
	Attempt   int // 1-based; retries increment it
}

// Identifier names a book. It comes from the reader URL's query string and
// names both the artifact and its metadata record.
type Identifier string

func (id Identifier) String() string { return string(id) }

// FrameInfo describes where in the frame tree a payload was found.
type FrameInfo struct {
	Path  string `json:"path"`  // Dotted sibling indices from the top document, e.g. "2.0"
	Depth int    `json:"depth"` // 1 for frames directly inside the top document
	Index int    `json:"index"` // Position among its siblings
	Src   string `json:"src,omitempty"`
	Name  string `json:"name,omitempty"`
}

// Via says how a payload was read out of its frame.
type Via string

const (
	ViaVariable Via = "variable" // Read from the frame's script context
	ViaScript   Via = "script"   // Recovered from inline script text
)

// Source records the provenance of a payload.
type Source struct {
	Frame         FrameInfo `json:"frame"`
	PayloadLength int       `json:"payload_length"`
	Via           Via       `json:"via"`
}

// Payload is the raw encoded text pulled out of a frame.
type Payload struct {
	Text   string
	Source Source
}

// Result is the outcome of one extraction attempt. It doubles as the
// metadata record written next to the artifact.
type Result struct {
	Success          bool          `json:"success"`
	Identifier       Identifier    `json:"book_id"`
	URL              string        `json:"original_url"`
	OutputPath       string        `json:"pdf_path,omitempty"`
	MetadataPath     string        `json:"metadata_path,omitempty"`
	ByteSize         int64         `json:"pdf_size_bytes"`
	ContentType      string        `json:"content_type,omitempty"`
	StartedAt        time.Time     `json:"extraction_date"`
	Duration         time.Duration `json:"-"`
	DurationSeconds  float64       `json:"extraction_duration"`
	Stage            Stage         `json:"failed_stage,omitempty"`
	ErrorKind        Kind          `json:"error_kind,omitempty"`
	Error            string        `json:"error,omitempty"`
	Source           *Source       `json:"iframe_data,omitempty"`
	Attempts         int           `json:"attempts"`
	ExtractorVersion string        `json:"extractor_version"`
}

// Fail records err on the result. Errors that are not *Error are treated as
// write failures, the only stage that can surface foreign errors.
func (r *Result) Fail(err error) {
	r.Success = false
	r.Error = err.Error()
	if e, ok := AsError(err); ok {
		r.ErrorKind = e.Kind
		r.Stage = e.Kind.Stage()
		return
	}
	r.ErrorKind = KindWrite
	r.Stage = StageWrite
}

// Finish stamps the elapsed time.
func (r *Result) Finish(now time.Time) {
	r.Duration = now.Sub(r.StartedAt)
	r.DurationSeconds = r.Duration.Seconds()
}

// Status is the state of one batch item.
type Status string

const (
	StatusPending   Status = "pending"
	StatusRunning   Status = "running"
	StatusSucceeded Status = "succeeded"
	StatusFailed    Status = "failed"
	StatusSkipped   Status = "skipped"
)

// Policy selects how a batch reacts to a failed item.
type Policy string

const (
	FailFast        Policy = "fail-fast"
	ContinueOnError Policy = "continue-on-error"
)

// BatchItem is one URL of a batch run.
type BatchItem struct {
	Index  int     `json:"index"`
	URL    string  `json:"url"`
	Status Status  `json:"status"`
	Result *Result `json:"result,omitempty"`
}

// BatchSummary is the persisted record of a batch run.
type BatchSummary struct {
	RunID       string      `json:"run_id"`
	Policy      Policy      `json:"policy"`
	StartedAt   time.Time   `json:"start_time"`
	FinishedAt  time.Time   `json:"end_time"`
	Total       int         `json:"total_books"`
	Attempted   int         `json:"attempted"`
	Succeeded   int         `json:"succeeded"`
	Failed      int         `json:"failed"`
	Skipped     int         `json:"skipped"`
	SuccessRate float64     `json:"success_rate"`
	Fatal       string      `json:"fatal,omitempty"`
	Items       []BatchItem `json:"items"`
}

// Tally recomputes the counters from Items.
func (s *BatchSummary) Tally() {
	s.Total = len(s.Items)
	s.Attempted, s.Succeeded, s.Failed, s.Skipped = 0, 0, 0, 0
	for _, it := range s.Items {
		switch it.Status {
		case StatusSucceeded:
			s.Succeeded++
			s.Attempted++
		case StatusFailed:
			s.Failed++
			s.Attempted++
		case StatusSkipped:
			s.Skipped++
		}
	}
	s.SuccessRate = 0
	if s.Total > 0 {
		s.SuccessRate = float64(s.Succeeded) / float64(s.Total) * 100
	}
}
