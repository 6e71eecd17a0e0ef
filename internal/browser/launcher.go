// Package browser drives a headless Chrome through chromedp: one browser
// process per run, one tab per extraction.
package browser

import (
	"context"
	"sync"
	"time"

	"github.com/chromedp/chromedp"
	"go.uber.org/zap"

	"bookextract/internal/book"
)

// Options configures the browser process and page waits.
type Options struct {
	Headless     bool
	ExecPath     string
	UserAgent    string
	Proxy        string
	WindowWidth  int
	WindowHeight int

	NavigationTimeout  time.Duration // Bound for navigation and first body
	NetworkIdleTimeout time.Duration // Best-effort wait for the networkIdle lifecycle event
	SettleDelay        time.Duration // Pause after load for late scripts
	PollInterval       time.Duration // Interval for in-page value polling
	ScanTimeout        time.Duration // Bound for frame listing and script scans
}

func (o Options) allocatorOptions() []chromedp.ExecAllocatorOption {
	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.NoSandbox,
		chromedp.DisableGPU,
		chromedp.Flag("disable-dev-shm-usage", true),
		chromedp.Flag("disable-web-security", true),
		chromedp.Flag("disable-site-isolation-trials", true),
		// Keeps cross-origin iframes in-process so their documents can be queried.
		chromedp.Flag("disable-features", "IsolateOrigins,site-per-process,VizDisplayCompositor"),
		chromedp.Flag("disable-blink-features", "AutomationControlled"),
	)
	if !o.Headless {
		opts = append(opts, chromedp.Flag("headless", false), chromedp.Flag("hide-scrollbars", false))
	}
	if o.ExecPath != "" {
		opts = append(opts, chromedp.ExecPath(o.ExecPath))
	}
	if o.UserAgent != "" {
		opts = append(opts, chromedp.UserAgent(o.UserAgent))
	}
	if o.Proxy != "" {
		opts = append(opts, chromedp.ProxyServer(o.Proxy))
	}
	if o.WindowWidth > 0 && o.WindowHeight > 0 {
		opts = append(opts, chromedp.WindowSize(o.WindowWidth, o.WindowHeight))
	}
	return opts
}

// Launcher owns the browser process. It starts lazily on the first page
// and is reused for every later page.
type Launcher struct {
	opts Options
	log  *zap.Logger

	mu         sync.Mutex
	browserCtx context.Context
	cancel     context.CancelFunc
	startErr   error
}

// NewLauncher creates a Launcher. Nothing is started until Start or NewPage.
func NewLauncher(opts Options, log *zap.Logger) *Launcher {
	if log == nil {
		log = zap.NewNop()
	}
	if opts.ScanTimeout <= 0 {
		opts.ScanTimeout = 5 * time.Second
	}
	if opts.PollInterval <= 0 {
		opts.PollInterval = 250 * time.Millisecond
	}
	return &Launcher{opts: opts, log: log}
}

// Start launches the browser if it is not running. The process lives until
// Close; ctx only bounds the launch itself. A failed launch is remembered
// and returned on every later call.
func (l *Launcher) Start(ctx context.Context) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.startLocked(ctx)
}

func (l *Launcher) startLocked(ctx context.Context) error {
	if l.browserCtx != nil {
		return nil
	}
	if l.startErr != nil {
		return l.startErr
	}

	allocCtx, allocCancel := chromedp.NewExecAllocator(context.Background(), l.opts.allocatorOptions()...)
	browserCtx, browserCancel := chromedp.NewContext(allocCtx,
		chromedp.WithLogf(l.log.Sugar().Debugf),
		chromedp.WithErrorf(l.log.Sugar().Debugf),
	)
	cancel := func() {
		browserCancel()
		allocCancel()
	}

	if err := firstRun(ctx, browserCtx, cancel); err != nil {
		cancel()
		l.startErr = book.Errorf(book.KindBrowserLaunch, "starting browser: %w", err)
		return l.startErr
	}

	l.log.Debug("browser started", zap.Bool("headless", l.opts.Headless), zap.String("exec_path", l.opts.ExecPath))
	l.browserCtx = browserCtx
	l.cancel = cancel
	return nil
}

// NewPage opens a fresh tab. Failing to start the browser or open a tab is
// a browser_launch *book.Error.
func (l *Launcher) NewPage(ctx context.Context) (*Session, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if err := l.startLocked(ctx); err != nil {
		return nil, err
	}

	tabCtx, tabCancel := chromedp.NewContext(l.browserCtx)
	waitCtx, stop := ctx, context.CancelFunc(func() {})
	if l.opts.NavigationTimeout > 0 {
		waitCtx, stop = context.WithTimeout(ctx, l.opts.NavigationTimeout)
	}
	err := firstRun(waitCtx, tabCtx, tabCancel)
	stop()
	if err != nil {
		tabCancel()
		if ctx.Err() != nil {
			return nil, book.Errorf(book.KindNavigation, "opening tab: %w", ctx.Err())
		}
		return nil, book.Errorf(book.KindBrowserLaunch, "opening tab: %w", err)
	}

	return &Session{ctx: tabCtx, cancel: tabCancel, opts: l.opts, log: l.log}, nil
}

// Close shuts the browser down.
func (l *Launcher) Close() {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.cancel != nil {
		l.cancel()
		l.cancel = nil
		l.browserCtx = nil
	}
}

// firstRun performs the first Run on a fresh chromedp context c, which
// allocates the browser process or attaches the tab. chromedp ties the
// process and its event loops to the context of that first Run, so it runs
// on c itself and ctx only bounds the wait.
func firstRun(ctx, c context.Context, cancel context.CancelFunc) error {
	return waitRun(ctx, func() error { return chromedp.Run(c) }, cancel)
}

// waitRun calls fn and waits for it or for ctx, whichever ends first. When
// ctx wins, cancel is called and must make fn return.
func waitRun(ctx context.Context, fn func() error, cancel context.CancelFunc) error {
	done := make(chan error, 1)
	go func() { done <- fn() }()
	select {
	case err := <-done:
		return err
	case <-ctx.Done():
		cancel()
		<-done
		return ctx.Err()
	}
}

// bindTo derives a context from a chromedp context that is also cancelled
// when ctx is done, and optionally bounded by timeout.
func bindTo(chromeCtx, ctx context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	c, cancel := context.WithCancel(chromeCtx)
	if timeout > 0 {
		var tcancel context.CancelFunc
		c, tcancel = context.WithTimeout(c, timeout)
		inner := cancel
		cancel = func() {
			tcancel()
			inner()
		}
	}
	stop := context.AfterFunc(ctx, cancel)
	return c, func() {
		stop()
		cancel()
	}
}
