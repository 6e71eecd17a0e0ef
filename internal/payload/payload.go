// Package payload reads the encoded document out of a located frame.
package payload

import (
	"context"
	"strings"
	"time"

	"bookextract/internal/book"
	"bookextract/internal/locate"
)

// Provenance is implemented by frames that can say how their last value for
// key was obtained. Frames without it are assumed to read script variables.
type Provenance interface {
	Via(key string) book.Via
}

// Extractor re-reads the marker variable from a located frame.
type Extractor struct {
	key     string
	timeout time.Duration
}

// NewExtractor creates an Extractor for the given variable name.
func NewExtractor(key string, timeout time.Duration) *Extractor {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &Extractor{key: key, timeout: timeout}
}

// Extract returns the encoded payload held by m's frame. A value that is
// absent or empty yields a payload_missing *book.Error.
func (e *Extractor) Extract(ctx context.Context, m *locate.Match) (*book.Payload, error) {
	if m == nil || m.Frame == nil {
		return nil, book.Errorf(book.KindPayloadMissing, "no frame to read %q from", e.key)
	}

	rctx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	value, ok, err := m.Frame.TextValue(rctx, e.key)
	if err != nil {
		return nil, book.Errorf(book.KindPayloadMissing, "reading %q in frame %s: %w", e.key, m.Info.Path, err)
	}
	text := StripDataURI(value)
	if !ok || strings.TrimSpace(text) == "" {
		return nil, book.Errorf(book.KindPayloadMissing, "%q is absent or empty in frame %s", e.key, m.Info.Path)
	}

	via := book.ViaVariable
	if p, ok := m.Frame.(Provenance); ok {
		via = p.Via(e.key)
	}

	return &book.Payload{
		Text: text,
		Source: book.Source{
			Frame:         m.Info,
			PayloadLength: len(text),
			Via:           via,
		},
	}, nil
}

// StripDataURI removes a "data:<mime>;base64," prefix if present.
func StripDataURI(s string) string {
	if !strings.HasPrefix(s, "data:") {
		return s
	}
	if i := strings.Index(s, ";base64,"); i >= 0 {
		return s[i+len(";base64,"):]
	}
	return s
}
