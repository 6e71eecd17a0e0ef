// Package locate finds the frame that carries the embedded document.
//
// The reader page nests the document a few iframes deep and inserts frames
// after load, so the search walks the frame tree with an explicit worklist,
// waits a bounded time on each frame, and re-enumerates the top document
// until its overall budget runs out.
package locate

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"bookextract/internal/book"
)

// ValueSource reads a named text value from a frame's script context.
//
// TextValue blocks until the value is present and non-empty or ctx is done.
// A value that never shows up is reported as ok == false with a nil error;
// errors are reserved for frames that can no longer be inspected.
type ValueSource interface {
	TextValue(ctx context.Context, key string) (value string, ok bool, err error)
}

// Frame is one document in the frame tree.
type Frame interface {
	ValueSource
	// Children returns the frame's direct child frames in document order.
	Children(ctx context.Context) ([]Frame, error)
	Info() book.FrameInfo
}

// Match is the first frame, in document order, whose value was present.
type Match struct {
	Frame Frame
	Value string
	Info  book.FrameInfo
}

// Options bounds the search.
type Options struct {
	Key       string        // Variable name that marks the target frame
	FrameWait time.Duration // How long to wait on a single frame
	Timeout   time.Duration // Budget for the whole search; 0 means ctx only
	Rescan    time.Duration // Pause before re-enumerating the top document
	MaxDepth  int           // Deepest frame level searched; 1 is top-level iframes only
}

// Locator searches frame trees.
type Locator struct {
	opts Options
	log  *zap.Logger
}

// New creates a Locator. A nil logger disables logging.
func New(opts Options, log *zap.Logger) *Locator {
	if log == nil {
		log = zap.NewNop()
	}
	if opts.MaxDepth < 1 {
		opts.MaxDepth = 1
	}
	if opts.Rescan <= 0 {
		opts.Rescan = 500 * time.Millisecond
	}
	return &Locator{opts: opts, log: log}
}

type entry struct {
	frame Frame
	depth int
}

// Locate returns the first frame below root, in document order, whose value
// for the configured key is present. It fails with a content_not_found
// *book.Error when no frame matches before the budget or ctx runs out.
func (l *Locator) Locate(ctx context.Context, root Frame) (*Match, error) {
	if l.opts.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, l.opts.Timeout)
		defer cancel()
	}

	visited := 0
	for pass := 1; ; pass++ {
		m, n := l.search(ctx, root)
		visited += n
		if m != nil {
			l.log.Debug("frame located",
				zap.String("path", m.Info.Path),
				zap.String("src", m.Info.Src),
				zap.Int("pass", pass),
				zap.Int("frames_checked", visited),
			)
			return m, nil
		}

		l.log.Debug("no matching frame yet", zap.Int("pass", pass), zap.Int("frames_checked", visited))

		select {
		case <-ctx.Done():
			return nil, book.Errorf(book.KindContentNotFound,
				"no frame exposes %q after checking %d frames: %w", l.opts.Key, visited, ctx.Err())
		case <-time.After(l.opts.Rescan):
		}
	}
}

// search walks the tree once. Children are pushed to the front of the
// worklist so frames are visited in pre-order document order.
func (l *Locator) search(ctx context.Context, root Frame) (*Match, int) {
	top, err := root.Children(ctx)
	if err != nil {
		l.log.Debug("listing top-level frames", zap.Error(err))
		return nil, 0
	}

	work := make([]entry, 0, len(top))
	for _, f := range top {
		work = append(work, entry{frame: f, depth: 1})
	}

	visited := 0
	for len(work) > 0 && ctx.Err() == nil {
		e := work[0]
		work = work[1:]
		visited++

		info := e.frame.Info()
		value, ok, err := l.probe(ctx, e.frame)
		switch {
		case err != nil:
			l.log.Debug("frame not inspectable", zap.String("path", info.Path), zap.Error(err))
		case ok:
			return &Match{Frame: e.frame, Value: value, Info: info}, visited
		}

		if e.depth >= l.opts.MaxDepth {
			continue
		}
		kids, err := e.frame.Children(ctx)
		if err != nil {
			l.log.Debug("listing child frames", zap.String("path", info.Path), zap.Error(err))
			continue
		}
		if len(kids) == 0 {
			continue
		}
		next := make([]entry, 0, len(kids)+len(work))
		for _, k := range kids {
			next = append(next, entry{frame: k, depth: e.depth + 1})
		}
		work = append(next, work...)
	}
	return nil, visited
}

// probe waits up to FrameWait for the frame's value.
func (l *Locator) probe(ctx context.Context, f Frame) (string, bool, error) {
	wait := l.opts.FrameWait
	if wait <= 0 {
		wait = time.Second
	}
	fctx, cancel := context.WithTimeout(ctx, wait)
	defer cancel()

	value, ok, err := f.TextValue(fctx, l.opts.Key)
	if err != nil && errors.Is(err, context.DeadlineExceeded) {
		return "", false, nil
	}
	if ok && value == "" {
		ok = false
	}
	return value, ok, err
}
