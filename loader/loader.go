// Package loader produces raw page data asynchronously.
//
// A Source reads one page synchronously (from a tile database, an image
// pyramid, the network). Async wraps a Source in a worker pool and reports
// completion to a Sink, typically the page cache, from a worker goroutine.
package loader

import (
	"context"
	"errors"

	"github.com/gogpu/clipmap/page"
)

// ErrPageNotFound is returned by sources that have no data for a page.
var ErrPageNotFound = errors.New("loader: page not found")

// ErrClosed is reported to sinks for loads submitted after Close.
var ErrClosed = errors.New("loader: closed")

// Sink receives the outcome of a load. Methods may be called from any
// goroutine, never while the loader holds a lock.
type Sink interface {
	// OnLoadComplete delivers the raw bytes of p, laid out as described by
	// the source's page.Info. data may be shared between sinks and must not
	// be modified.
	OnLoadComplete(p page.Page, data []byte)

	// OnLoadFailed reports that p could not be produced.
	OnLoadFailed(p page.Page, err error)
}

// Loader starts producing pages.
type Loader interface {
	// Load starts producing p and reports the result to sink exactly once.
	// Load must not block on the production itself.
	Load(p page.Page, sink Sink)
}

// Source reads pages synchronously.
type Source interface {
	// Info describes the virtual texture the source serves.
	Info() page.Info

	// ReadPage returns the raw bytes of p.
	ReadPage(ctx context.Context, p page.Page) ([]byte, error)
}

// LoaderFunc adapts a function to the Loader interface.
type LoaderFunc func(p page.Page, sink Sink)

// Load implements Loader.
func (f LoaderFunc) Load(p page.Page, sink Sink) { f(p, sink) }

// Sync is a Loader that reads the page on the caller's goroutine and
// completes before Load returns. It suits tests and sources whose reads
// are memory lookups.
type Sync struct {
	Source Source
}

// Load implements Loader.
func (s Sync) Load(p page.Page, sink Sink) {
	data, err := s.Source.ReadPage(context.Background(), p)
	if err != nil {
		sink.OnLoadFailed(p, err)
		return
	}
	sink.OnLoadComplete(p, data)
}
