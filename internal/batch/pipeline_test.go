package batch

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bookextract/internal/book"
	"bookextract/internal/decode"
	"bookextract/internal/locate"
	lt "bookextract/internal/locate/locatetest"
	"bookextract/internal/payload"
	"bookextract/internal/pipeline"
	"bookextract/internal/source"
)

// readerPage serves a reader whose nested frame holds a small PDF.
type readerPage struct {
	root *lt.Frame
}

func (p *readerPage) Open(ctx context.Context, url string) error { return nil }
func (p *readerPage) Root() locate.Frame { return p.root }
func (p *readerPage) Screenshot(ctx context.Context) ([]byte, error) { return nil, nil }
func (p *readerPage) Close() error { return nil }

func readerPipeline() *pipeline.Pipeline {
	pdf := decode.Encode([]byte("%PDF-1.4\n%%EOF\n"))
	return pipeline.New(pipeline.Config{
		Validator: source.NewValidator(source.DefaultRules()),
		Browser: pipeline.BrowserFunc(func(ctx context.Context) (pipeline.Page, error) {
			return &readerPage{root: lt.Root(
				lt.NewFrame("/reader.php", "", "", lt.NewFrame("/pdf/view.php", "pdfData", pdf)),
			)}, nil
		}),
		Locator: locate.New(locate.Options{
			Key: "pdfData", FrameWait: 20 * time.Millisecond, Timeout: 200 * time.Millisecond,
			Rescan: 10 * time.Millisecond, MaxDepth: 3,
		}, nil),
		Extractor: payload.NewExtractor("pdfData", 50*time.Millisecond),
		Extension: "pdf",
	})
}

func TestInvalidURLMidBatch(t *testing.T) {
	urls := []string{
		"https://library.alkafeel.net/dic/book/?e=MTAyMw",
		"https://example.com/dic/book/?e=MTAyNA",
		"https://library.alkafeel.net/dic/book/?e=MTAyNQ",
	}
	tests := []struct {
		policy  book.Policy
		third   book.Status
		wantErr bool
	}{
		{book.ContinueOnError, book.StatusSucceeded, false},
		{book.FailFast, book.StatusSkipped, true},
	}
	for _, tt := range tests {
		t.Run(string(tt.policy), func(t *testing.T) {
			out := t.TempDir()
			s, err := New(readerPipeline(), Options{Policy: tt.policy}).Run(context.Background(), urls, out, false)
			if tt.wantErr {
				require.Error(t, err)
			} else {
				require.NoError(t, err)
			}

			assert.Equal(t, book.StatusSucceeded, s.Items[0].Status)
			assert.FileExists(t, filepath.Join(out, "pdfs", "MTAyMw.pdf"))

			assert.Equal(t, book.StatusFailed, s.Items[1].Status)
			require.NotNil(t, s.Items[1].Result)
			assert.Equal(t, book.KindInvalidURL, s.Items[1].Result.ErrorKind)
			assert.Equal(t, book.StageValidate, s.Items[1].Result.Stage)

			assert.Equal(t, tt.third, s.Items[2].Status)
			if tt.third == book.StatusSkipped {
				assert.Nil(t, s.Items[2].Result)
				assert.NoFileExists(t, filepath.Join(out, "pdfs", "MTAyNQ.pdf"))
			} else {
				assert.FileExists(t, filepath.Join(out, "pdfs", "MTAyNQ.pdf"))
			}
		})
	}
}
