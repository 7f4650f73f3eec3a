package loader

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/gogpu/clipmap/internal/logging"
	"github.com/gogpu/clipmap/page"
)

// AsyncOption configures an Async loader.
type AsyncOption func(*asyncOptions)

type asyncOptions struct {
	workers   int
	queueSize int
	timeout   time.Duration
	ctx       context.Context
	logger    *slog.Logger
}

// WithWorkers sets the number of reader goroutines. n <= 0 selects
// GOMAXPROCS.
func WithWorkers(n int) AsyncOption {
	return func(o *asyncOptions) { o.workers = n }
}

// WithQueueSize sets the per-worker queue length.
func WithQueueSize(n int) AsyncOption {
	return func(o *asyncOptions) { o.queueSize = n }
}

// WithTimeout bounds every ReadPage call. Zero means no timeout.
func WithTimeout(d time.Duration) AsyncOption {
	return func(o *asyncOptions) { o.timeout = d }
}

// WithContext sets the parent context of every ReadPage call.
func WithContext(ctx context.Context) AsyncOption {
	return func(o *asyncOptions) { o.ctx = ctx }
}

// WithLogger sets the logger. nil selects the package-wide logger.
func WithLogger(l *slog.Logger) AsyncOption {
	return func(o *asyncOptions) { o.logger = l }
}

// Async reads pages from a Source on a worker pool.
//
// Concurrent loads of the same page share one read; every sink that asked
// for the page is notified. Sinks are called from worker goroutines with
// no Async lock held.
type Async struct {
	src  Source
	pool *workerPool
	opts asyncOptions
	log  *slog.Logger

	mu       sync.Mutex
	inflight map[page.Page][]Sink
}

var _ Loader = (*Async)(nil)

// NewAsync starts the worker pool. Call Close to stop it.
func NewAsync(src Source, opts ...AsyncOption) *Async {
	o := asyncOptions{ctx: context.Background()}
	for _, opt := range opts {
		opt(&o)
	}
	a := &Async{
		src:      src,
		pool:     newWorkerPool(o.workers, o.queueSize),
		opts:     o,
		log:      logging.Or(o.logger),
		inflight: make(map[page.Page][]Sink),
	}
	return a
}

// Info returns the layout of the underlying source.
func (a *Async) Info() page.Info { return a.src.Info() }

// Load queues a read of p and returns without waiting, even when every
// worker queue is full. If the pool is closed, sink receives ErrClosed
// before Load returns.
func (a *Async) Load(p page.Page, sink Sink) {
	a.mu.Lock()
	if waiters, ok := a.inflight[p]; ok {
		a.inflight[p] = append(waiters, sink)
		a.mu.Unlock()
		return
	}
	a.inflight[p] = []Sink{sink}
	a.mu.Unlock()

	if !a.pool.Submit(func() { a.read(p) }) {
		a.finish(p, nil, ErrClosed)
	}
}

func (a *Async) read(p page.Page) {
	ctx := a.opts.ctx
	if a.opts.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, a.opts.timeout)
		defer cancel()
	}

	start := time.Now()
	data, err := a.src.ReadPage(ctx, p)
	if err != nil {
		err = fmt.Errorf("loader: read %v: %w", p, err)
	} else {
		a.log.Debug("loader: page read", "page", p, "bytes", len(data), "elapsed", time.Since(start))
	}
	a.finish(p, data, err)
}

func (a *Async) finish(p page.Page, data []byte, err error) {
	a.mu.Lock()
	waiters := a.inflight[p]
	delete(a.inflight, p)
	a.mu.Unlock()

	for _, s := range waiters {
		if err != nil {
			s.OnLoadFailed(p, err)
		} else {
			s.OnLoadComplete(p, data)
		}
	}
}

// InFlight returns the number of pages queued or being read.
func (a *Async) InFlight() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return len(a.inflight)
}

// Close stops accepting loads, finishes the queued ones and waits for the
// workers to exit.
func (a *Async) Close() error {
	a.pool.Close()
	return nil
}
