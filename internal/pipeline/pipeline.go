// Package pipeline runs one extraction: validate the URL, open the page,
// locate the frame, read and decode the payload, and write the results.
package pipeline

import (
	"context"
	"time"

	"go.uber.org/zap"

	"bookextract/internal/book"
	"bookextract/internal/browser"
	"bookextract/internal/decode"
	"bookextract/internal/locate"
	"bookextract/internal/logging"
	"bookextract/internal/payload"
	"bookextract/internal/source"
	"bookextract/internal/store"
)

// Page is a browser tab.
type Page interface {
	Open(ctx context.Context, url string) error
	Root() locate.Frame
	Screenshot(ctx context.Context) ([]byte, error)
	Close() error
}

// Browser hands out tabs.
type Browser interface {
	NewPage(ctx context.Context) (Page, error)
}

// BrowserFunc adapts a function to Browser.
type BrowserFunc func(ctx context.Context) (Page, error)

// NewPage calls f.
func (f BrowserFunc) NewPage(ctx context.Context) (Page, error) { return f(ctx) }

// Chrome adapts a browser.Launcher to Browser.
func Chrome(l *browser.Launcher) Browser {
	return BrowserFunc(func(ctx context.Context) (Page, error) {
		s, err := l.NewPage(ctx)
		if err != nil {
			return nil, err
		}
		return s, nil
	})
}

// Config wires a Pipeline.
type Config struct {
	Validator   *source.Validator
	Browser     Browser
	Locator     *locate.Locator
	Extractor   *payload.Extractor
	Extension   string // Fallback artifact extension
	Screenshots bool   // Capture the page when an item fails after loading
	Logger      *zap.Logger
	Now         func() time.Time
}

// Pipeline extracts single books.
type Pipeline struct {
	cfg Config
	log *zap.Logger
}

// New creates a Pipeline.
func New(cfg Config) *Pipeline {
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	return &Pipeline{cfg: cfg, log: cfg.Logger}
}

// Extract runs one attempt for req. It always returns a Result, which has
// also been written as the item's metadata record when possible. The error
// is non-nil only when the browser cannot be started, which no later item
// could recover from.
func (p *Pipeline) Extract(ctx context.Context, req book.Request) (*book.Result, error) {
	res := &book.Result{
		URL:              req.URL,
		StartedAt:        p.cfg.Now(),
		Attempts:         max(req.Attempt, 1),
		ExtractorVersion: book.ExtractorVersion,
	}
	w := store.NewWriter(req.OutputDir, p.cfg.Extension, p.log)

	id, err := p.cfg.Validator.Validate(req.URL)
	if err != nil {
		res.Identifier = source.Surrogate(req.URL)
		return p.fail(ctx, w, res, nil, err), nil
	}
	res.Identifier = id

	ctx = logging.WithBookID(ctx, id.String())
	log := logging.FromContext(ctx, p.log)
	log.Info("extracting", zap.String("url", req.URL), zap.Int("attempt", res.Attempts))

	page, err := p.cfg.Browser.NewPage(ctx)
	if err != nil {
		res = p.fail(ctx, w, res, nil, err)
		if book.IsFatal(err) {
			return res, err
		}
		return res, nil
	}
	defer func() {
		if err := page.Close(); err != nil {
			log.Debug("closing tab", zap.Error(err))
		}
	}()

	if err := page.Open(ctx, req.URL); err != nil {
		return p.fail(ctx, w, res, page, err), nil
	}
	log.Debug("page loaded")

	match, err := p.cfg.Locator.Locate(ctx, page.Root())
	if err != nil {
		return p.fail(ctx, w, res, page, err), nil
	}
	found := []zap.Field{zap.String("frame", match.Info.Path), zap.String("src", match.Info.Src)}
	if req.Verbose {
		log.Info("payload frame found", found...)
	} else {
		log.Debug("payload frame found", found...)
	}

	pl, err := p.cfg.Extractor.Extract(ctx, match)
	if err != nil {
		return p.fail(ctx, w, res, page, err), nil
	}
	res.Source = &pl.Source

	data, err := decode.Decode(pl.Text)
	if err != nil {
		return p.fail(ctx, w, res, page, err), nil
	}

	art, err := w.WriteArtifact(id, data)
	if err != nil {
		return p.fail(ctx, w, res, nil, err), nil
	}
	res.Success = true
	res.OutputPath = art.Path
	res.ByteSize = art.Size
	res.ContentType = art.ContentType

	if mp, err := w.MetadataPath(id); err == nil {
		res.MetadataPath = mp
	}
	res.Finish(p.cfg.Now())
	if _, err := w.WriteMetadata(res); err != nil {
		log.Error("writing metadata", zap.Error(err))
		res.Success = false
		res.Fail(err)
		return res, nil
	}

	log.Info("extracted",
		zap.String("path", res.OutputPath),
		zap.Int64("bytes", res.ByteSize),
		zap.Duration("took", res.Duration),
	)
	return res, nil
}

// fail completes res as a failure, saves a screenshot when configured and
// a page is available, and writes the metadata record.
func (p *Pipeline) fail(ctx context.Context, w *store.Writer, res *book.Result, page Page, err error) *book.Result {
	log := logging.FromContext(logging.WithBookID(ctx, res.Identifier.String()), p.log)
	res.Fail(err)

	if page != nil && p.cfg.Screenshots && ctx.Err() == nil {
		if png, serr := page.Screenshot(ctx); serr != nil {
			log.Debug("screenshot failed", zap.Error(serr))
		} else if path, serr := w.WriteScreenshot(res.Identifier, png); serr == nil {
			log.Info("saved screenshot", zap.String("path", path))
		}
	}

	if mp, merr := w.MetadataPath(res.Identifier); merr == nil {
		res.MetadataPath = mp
	}
	res.Finish(p.cfg.Now())
	if _, werr := w.WriteMetadata(res); werr != nil {
		log.Error("writing failure record", zap.Error(werr))
	}

	log.Warn("extraction failed",
		zap.String("stage", string(res.Stage)),
		zap.String("kind", string(res.ErrorKind)),
		zap.Error(err),
	)
	return res
}
