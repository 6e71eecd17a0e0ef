package cmd

import (
	"context"
	"errors"
	"os"
	"path/filepath"

	"go.uber.org/zap"

	"bookextract/internal/book"
	"bookextract/internal/browser"
	"bookextract/internal/config"
	"bookextract/internal/history"
	"bookextract/internal/locate"
	"bookextract/internal/logging"
	"bookextract/internal/payload"
	"bookextract/internal/pipeline"
	"bookextract/internal/source"
	"bookextract/internal/store"
	"bookextract/internal/ui"
)

// runtime holds everything an extraction command needs.
type runtime struct {
	outDir   string
	log      *zap.Logger
	logPath  string
	launcher *browser.Launcher
	pipeline *pipeline.Pipeline
	ledger   *history.Ledger // nil when history is off or unavailable
	printer  *ui.Printer
}

func browserOptions(b config.Browser) browser.Options {
	return browser.Options{
		Headless:           b.Headless,
		ExecPath:           b.ChromePath,
		UserAgent:          b.UserAgent,
		Proxy:              b.Proxy,
		WindowWidth:        b.WindowWidth,
		WindowHeight:       b.WindowHeight,
		NavigationTimeout:  b.NavigationTimeout,
		NetworkIdleTimeout: b.NetworkIdleTimeout,
		SettleDelay:        b.SettleDelay,
		PollInterval:       b.PollInterval,
		ScanTimeout:        b.ReadTimeout,
	}
}

// locatorOptions maps the config onto the frame search. The top document is
// re-enumerated every poll interval.
func locatorOptions(c *config.Config) locate.Options {
	return locate.Options{
		Key:       c.Source.Variable,
		FrameWait: c.Browser.FrameWait,
		Timeout:   c.Browser.LocateTimeout,
		Rescan:    c.Browser.PollInterval,
		MaxDepth:  c.Browser.MaxFrameDepth,
	}
}

func newRuntime(ctx context.Context) (*runtime, error) {
	outDir, err := cfg.ExpandOutputDir()
	if err != nil {
		return nil, err
	}
	if err := store.PrepareDirs(outDir); err != nil {
		return nil, err
	}

	log, logPath, err := logging.New(logging.Options{
		Verbose: cfg.Verbose,
		Dir:     filepath.Join(outDir, store.DirLogs),
	})
	if err != nil {
		return nil, err
	}

	b := cfg.Browser
	launcher := browser.NewLauncher(browserOptions(b), log)

	rt := &runtime{
		outDir:   outDir,
		log:      log,
		logPath:  logPath,
		launcher: launcher,
		printer:  ui.New(os.Stdout),
		pipeline: pipeline.New(pipeline.Config{
			Validator: source.NewValidator(source.Rules{
				Scheme: cfg.Source.Scheme,
				Host:   cfg.Source.Host,
				Path:   cfg.Source.Path,
				Param:  cfg.Source.Param,
			}),
			Browser:     pipeline.Chrome(launcher),
			Locator:     locate.New(locatorOptions(cfg), log),
			Extractor:   payload.NewExtractor(cfg.Source.Variable, b.ReadTimeout),
			Extension:   cfg.Source.Extension,
			Screenshots: b.Screenshots,
			Logger:      log,
		}),
	}

	if cfg.History {
		path, err := config.HistoryPath()
		if err == nil {
			rt.ledger, err = history.Open(ctx, path)
		}
		if err != nil {
			log.Warn("history disabled", zap.Error(err))
		}
	}

	log.Debug("runtime ready", zap.String("output", outDir), zap.String("log_file", logPath))
	return rt, nil
}

// record adds res to the history ledger, if one is open.
func (r *runtime) record(ctx context.Context, runID string, res *book.Result) {
	if r.ledger == nil || res == nil {
		return
	}
	if err := r.ledger.Record(context.WithoutCancel(ctx), runID, res); err != nil {
		r.log.Warn("recording history", zap.Error(err))
	}
}

func (r *runtime) Close() {
	r.launcher.Close()
	if r.ledger != nil {
		if err := r.ledger.Close(); err != nil {
			r.log.Warn("closing history", zap.Error(err))
		}
	}
	_ = r.log.Sync()
}

// errFailed marks a command whose outcome was already reported.
var errFailed = errors.New("extraction failed")
