package browser

import (
	"context"
	_ "embed"
	"errors"
	"strconv"
	"sync"
	"time"

	"github.com/chromedp/cdproto/cdp"
	"github.com/chromedp/chromedp"
	"go.uber.org/zap"

	"bookextract/internal/book"
	"bookextract/internal/locate"
	"bookextract/internal/payload"
)

// readValueJS returns window[key] when it is a non-empty string, else null.
//
//go:embed js/read_value.js
var readValueJS string

// frameSelector matches frame owner elements in a document.
const frameSelector = "iframe, frame"

// frame is a document in the tab: the top document when node is nil,
// otherwise the content document of an iframe element.
type frame struct {
	s    *Session
	node *cdp.Node
	info book.FrameInfo

	mu  sync.Mutex
	via map[string]book.Via
}

// TextValue polls the frame's window for key until ctx is done. If the
// variable never appears as a global, the frame's inline scripts are
// scanned for an assignment instead.
func (f *frame) TextValue(ctx context.Context, key string) (string, bool, error) {
	if value, ok, err := f.poll(ctx, key); err != nil || ok {
		return value, ok, err
	}

	value, ok := f.scan(ctx, key)
	if ok {
		f.setVia(key, book.ViaScript)
	}
	return value, ok, nil
}

func (f *frame) poll(ctx context.Context, key string) (string, bool, error) {
	opts := []chromedp.PollOption{
		chromedp.WithPollingArgs(key),
		chromedp.WithPollingInterval(f.s.opts.PollInterval),
	}
	if f.node != nil {
		opts = append(opts, chromedp.WithPollingInFrame(f.node))
	}
	if dl, ok := ctx.Deadline(); ok {
		remaining := time.Until(dl)
		if remaining <= 0 {
			return "", false, nil
		}
		// Also bound the in-page poller so it stops with us.
		opts = append(opts, chromedp.WithPollingTimeout(remaining))
	} else {
		opts = append(opts, chromedp.WithPollingTimeout(0))
	}

	pollCtx, cancel := bindTo(f.s.ctx, ctx, 0)
	defer cancel()

	var value string
	err := chromedp.Run(pollCtx, chromedp.PollFunction(readValueJS, &value, opts...))
	switch {
	case err == nil && value != "":
		f.setVia(key, book.ViaVariable)
		return value, true, nil
	case err == nil, errors.Is(err, chromedp.ErrPollingTimeout), ctx.Err() != nil:
		return "", false, nil
	case f.s.ctx.Err() != nil:
		return "", false, err
	default:
		// Frames navigating or torn down mid-poll land here; the caller
		// treats them like frames without the value.
		f.s.log.Debug("polling frame", zap.String("path", f.info.Path), zap.Error(err))
		return "", false, nil
	}
}

// scan reads the frame's markup and looks for the payload in its scripts.
// It runs on its own short budget since the caller's has usually expired.
func (f *frame) scan(ctx context.Context, key string) (string, bool) {
	if errors.Is(ctx.Err(), context.Canceled) {
		return "", false
	}
	scanCtx, cancel := bindTo(f.s.ctx, context.WithoutCancel(ctx), f.s.opts.ScanTimeout)
	defer cancel()

	opts := []chromedp.QueryOption{chromedp.ByQuery}
	if f.node != nil {
		opts = append(opts, chromedp.FromNode(f.node))
	}
	var html string
	if err := chromedp.Run(scanCtx, chromedp.OuterHTML("html", &html, opts...)); err != nil {
		f.s.log.Debug("reading frame markup", zap.String("path", f.info.Path), zap.Error(err))
		return "", false
	}
	return payload.ScanHTML(html, key)
}

// Children lists the frame owner elements of this document in document
// order.
func (f *frame) Children(ctx context.Context) ([]locate.Frame, error) {
	listCtx, cancel := bindTo(f.s.ctx, ctx, f.s.opts.ScanTimeout)
	defer cancel()

	opts := []chromedp.QueryOption{chromedp.ByQueryAll, chromedp.AtLeast(0)}
	if f.node != nil {
		f.node.RLock()
		loaded := f.node.ContentDocument != nil
		f.node.RUnlock()
		if !loaded {
			return nil, nil
		}
		opts = append(opts, chromedp.FromNode(f.node))
	}

	var nodes []*cdp.Node
	if err := chromedp.Run(listCtx, chromedp.Nodes(frameSelector, &nodes, opts...)); err != nil {
		return nil, err
	}

	kids := make([]locate.Frame, 0, len(nodes))
	for i, n := range nodes {
		kids = append(kids, &frame{s: f.s, node: n, info: childInfo(f.info, i, n)})
	}
	return kids, nil
}

// Info describes the frame's position in the tree.
func (f *frame) Info() book.FrameInfo { return f.info }

// Via reports how the last value for key was read.
func (f *frame) Via(key string) book.Via {
	f.mu.Lock()
	defer f.mu.Unlock()
	if v, ok := f.via[key]; ok {
		return v
	}
	return book.ViaVariable
}

func (f *frame) setVia(key string, v book.Via) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.via == nil {
		f.via = make(map[string]book.Via)
	}
	f.via[key] = v
}

func childInfo(parent book.FrameInfo, i int, n *cdp.Node) book.FrameInfo {
	path := strconv.Itoa(i)
	if parent.Path != "" {
		path = parent.Path + "." + path
	}
	info := book.FrameInfo{Path: path, Depth: parent.Depth + 1, Index: i}
	if n != nil {
		info.Src = n.AttributeValue("src")
		info.Name = n.AttributeValue("name")
	}
	return info
}
