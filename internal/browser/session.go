package browser

import (
	"context"
	"sync"
	"time"

	"github.com/chromedp/cdproto/cdp"
	"github.com/chromedp/cdproto/page"
	"github.com/chromedp/chromedp"
	"go.uber.org/zap"

	"bookextract/internal/book"
	"bookextract/internal/locate"
)

// Session is one browser tab.
type Session struct {
	ctx    context.Context
	cancel context.CancelFunc
	opts   Options
	log    *zap.Logger

	closeOnce sync.Once
}

// Open navigates to url and waits for the page to load. Navigation and the
// first body are bounded by NavigationTimeout and their failure is a
// navigation *book.Error. The network-idle wait and settle delay that
// follow are best effort.
func (s *Session) Open(ctx context.Context, url string) error {
	idle := s.watchNetworkIdle()

	navCtx, cancel := bindTo(s.ctx, ctx, s.opts.NavigationTimeout)
	err := chromedp.Run(navCtx,
		chromedp.Navigate(url),
		chromedp.WaitReady("body", chromedp.ByQuery),
	)
	cancel()
	if err != nil {
		s.logPageState(ctx)
		if ctx.Err() != nil {
			return book.Errorf(book.KindNavigation, "loading %s: %w", url, ctx.Err())
		}
		return book.Errorf(book.KindNavigation, "loading %s: %w", url, err)
	}

	if s.opts.NetworkIdleTimeout > 0 {
		select {
		case <-idle:
			s.log.Debug("network idle", zap.String("url", url))
		case <-time.After(s.opts.NetworkIdleTimeout):
			s.log.Debug("network did not go idle, continuing", zap.Duration("waited", s.opts.NetworkIdleTimeout))
		case <-ctx.Done():
			return book.Errorf(book.KindNavigation, "loading %s: %w", url, ctx.Err())
		}
	}

	if s.opts.SettleDelay > 0 {
		select {
		case <-time.After(s.opts.SettleDelay):
		case <-ctx.Done():
			return book.Errorf(book.KindNavigation, "loading %s: %w", url, ctx.Err())
		}
	}
	return nil
}

// watchNetworkIdle returns a channel that receives once the top frame
// reports networkIdle.
func (s *Session) watchNetworkIdle() <-chan struct{} {
	idle := make(chan struct{}, 1)
	var top cdp.FrameID
	if c := chromedp.FromContext(s.ctx); c != nil && c.Target != nil {
		top = cdp.FrameID(c.Target.TargetID)
	}
	chromedp.ListenTarget(s.ctx, func(ev any) {
		e, ok := ev.(*page.EventLifecycleEvent)
		if !ok || e.Name != "networkIdle" {
			return
		}
		if top != "" && e.FrameID != top {
			return
		}
		select {
		case idle <- struct{}{}:
		default:
		}
	})
	return idle
}

// logPageState records where the tab ended up after a failed navigation.
func (s *Session) logPageState(ctx context.Context) {
	stateCtx, cancel := bindTo(s.ctx, context.WithoutCancel(ctx), 3*time.Second)
	defer cancel()

	var currentURL, title, html string
	_ = chromedp.Run(stateCtx,
		chromedp.Location(&currentURL),
		chromedp.Title(&title),
		chromedp.OuterHTML("html", &html, chromedp.ByQuery),
	)
	s.log.Info("page state after navigation error",
		zap.String("current_url", currentURL),
		zap.String("title", title),
		zap.Int("dom_length", len(html)),
	)
	if len(html) > 1000 {
		html = html[:1000] + "..."
	}
	s.log.Debug("DOM snippet", zap.String("html", html))
}

// Root returns the tab's top document.
func (s *Session) Root() locate.Frame {
	return &frame{s: s, info: book.FrameInfo{Path: "", Depth: 0}}
}

// Screenshot captures the full page as PNG.
func (s *Session) Screenshot(ctx context.Context) ([]byte, error) {
	shotCtx, cancel := bindTo(s.ctx, ctx, s.opts.ScanTimeout)
	defer cancel()

	var buf []byte
	if err := chromedp.Run(shotCtx, chromedp.FullScreenshot(&buf, 90)); err != nil {
		return nil, err
	}
	return buf, nil
}

// Close closes the tab. It is safe to call more than once.
func (s *Session) Close() error {
	var err error
	s.closeOnce.Do(func() {
		err = chromedp.Cancel(s.ctx)
		s.cancel()
	})
	return err
}
