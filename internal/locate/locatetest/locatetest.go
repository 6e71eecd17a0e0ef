// Package locatetest provides in-memory frame trees for tests.
package locatetest

import (
	"context"
	"errors"
	"strconv"
	"sync/atomic"
	"time"

	"bookextract/internal/book"
	"bookextract/internal/locate"
)

// ErrDetached is returned by frames marked Detached.
var ErrDetached = errors.New("frame detached")

// Frame is a scripted frame. Values maps variable names to their contents.
type Frame struct {
	Src      string
	Values   map[string]string
	Delay    time.Duration // Time before Values become visible
	Block    bool          // Never report a value; wait for ctx instead
	Detached bool          // Fail every call
	Kids     []*Frame

	info   book.FrameInfo
	probes atomic.Int32
}

// NewFrame returns a frame with src and an optional value under key.
func NewFrame(src, key, value string, kids ...*Frame) *Frame {
	f := &Frame{Src: src, Kids: kids}
	if key != "" {
		f.Values = map[string]string{key: value}
	}
	return f
}

// Root builds a top document from kids and fills in every frame's position.
func Root(kids ...*Frame) *Frame {
	r := &Frame{Src: "about:top", Kids: kids}
	number(r, "", 0)
	return r
}

func number(f *Frame, prefix string, depth int) {
	for i, k := range f.Kids {
		path := strconv.Itoa(i)
		if prefix != "" {
			path = prefix + "." + path
		}
		k.info = book.FrameInfo{Path: path, Depth: depth + 1, Index: i, Src: k.Src}
		number(k, path, depth+1)
	}
}

// TextValue implements locate.ValueSource.
func (f *Frame) TextValue(ctx context.Context, key string) (string, bool, error) {
	f.probes.Add(1)
	if f.Detached {
		return "", false, ErrDetached
	}
	if f.Block {
		<-ctx.Done()
		return "", false, nil
	}
	if f.Delay > 0 {
		select {
		case <-time.After(f.Delay):
		case <-ctx.Done():
			return "", false, nil
		}
	}
	v, ok := f.Values[key]
	return v, ok && v != "", nil
}

// Children implements locate.Frame.
func (f *Frame) Children(ctx context.Context) ([]locate.Frame, error) {
	if f.Detached {
		return nil, ErrDetached
	}
	out := make([]locate.Frame, len(f.Kids))
	for i, k := range f.Kids {
		out[i] = k
	}
	return out, nil
}

// Info implements locate.Frame.
func (f *Frame) Info() book.FrameInfo { return f.info }

// Probes reports how many times TextValue was called.
func (f *Frame) Probes() int { return int(f.probes.Load()) }
