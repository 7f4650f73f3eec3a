package clipmap

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/gogpu/clipmap/cache"
	"github.com/gogpu/clipmap/composite"
	"github.com/gogpu/clipmap/config"
	"github.com/gogpu/clipmap/geom"
	"github.com/gogpu/clipmap/internal/logging"
	"github.com/gogpu/clipmap/loader"
	"github.com/gogpu/clipmap/loader/imagesrc"
	"github.com/gogpu/clipmap/loader/tiledb"
	"github.com/gogpu/clipmap/page"
	"github.com/gogpu/clipmap/stack"
	"github.com/gogpu/clipmap/texture"
)

// Errors returned by the engine.
var (
	// ErrClosed is returned by Frame after Close.
	ErrClosed = errors.New("clipmap: engine is closed")

	// ErrUnknownSource is returned by OpenSource for an unknown kind.
	ErrUnknownSource = errors.New("clipmap: unknown source kind")
)

// Engine owns the full streaming pipeline for one virtual texture: the
// loader, the page cache, the texture stack and the viewport.
//
// Engine is not safe for concurrent use. Page loads complete on loader
// goroutines, but Frame, SetViewport and Close must be called from one
// goroutine, normally the render loop.
type Engine struct {
	info     page.Info
	async    *loader.Async
	cache    *cache.Cache
	stack    *stack.Stack
	viewport geom.Rect
	log      *slog.Logger

	closers []func() error
	closed  bool
}

// Frame is the result of one Engine.Frame call.
type Frame struct {
	// Stats describes what the stack update did.
	Stats stack.UpdateStats
	// Params is what the display needs to draw. It is only meaningful
	// when Ready is true.
	Params composite.Params
	Ready  bool
}

// Complete reports whether every page the update needed was placed.
func (f Frame) Complete() bool { return f.Ready && f.Stats.Deferred() == 0 }

// New creates an engine streaming pages from src into textures made by
// factory. Atlases are allocated immediately.
func New(src loader.Source, factory texture.Factory, opts ...Option) (*Engine, error) {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	info := src.Info()
	if err := info.Validate(); err != nil {
		return nil, fmt.Errorf("clipmap: %w", err)
	}
	log := logging.Or(o.log)

	e := &Engine{
		info:     info,
		viewport: geom.R(0, 0, float64(o.width), float64(o.height)),
		log:      log,
	}

	var ld loader.Loader
	if o.sync {
		ld = loader.Sync{Source: src}
	} else {
		// Pages arrive frames after their request; an immediate commit would
		// mark them resident and never ask again.
		o.stackOpts = append([]stack.Option{stack.WithDeferredCommit(true)}, o.stackOpts...)
		e.async = loader.NewAsync(src, append([]loader.AsyncOption{loader.WithLogger(log)}, o.loaderOpts...)...)
		ld = e.async
	}

	e.cache = cache.New(ld, page.NewIndexer(info), nil,
		append([]cache.Option{cache.WithLogger(log)}, o.cacheOpts...)...)

	s, err := stack.New(info, e.cache, factory,
		append([]stack.Option{stack.WithLogger(log)}, o.stackOpts...)...)
	if err != nil {
		_ = e.Close()
		return nil, err
	}
	e.stack = s
	if err := e.checkViewport(e.viewport); err != nil {
		_ = e.Close()
		return nil, err
	}
	if err := s.Init(); err != nil {
		_ = e.Close()
		return nil, err
	}

	log.Info("clipmap: engine opened",
		"vtex", fmt.Sprintf("%dx%d", info.VTexWidth, info.VTexHeight),
		"tile", info.TileSize, "levels", info.Levels(),
		"atlas", s.AtlasSize(), "cache", e.cache.Capacity())
	return e, nil
}

// Open creates an engine from a configuration, opening the source it
// names. Options are applied after the configured ones.
func Open(cfg config.Config, factory texture.Factory, opts ...Option) (*Engine, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	src, closeSrc, err := OpenSource(cfg.Source)
	if err != nil {
		return nil, err
	}
	base := []Option{
		WithViewport(cfg.View.Width, cfg.View.Height),
		WithCache(cfg.CacheOptions()...),
		WithStack(cfg.StackOptions()...),
		WithLoader(cfg.LoaderOptions()...),
	}
	e, err := New(src, factory, append(base, opts...)...)
	if err != nil {
		_ = closeSrc()
		return nil, err
	}
	e.closers = append(e.closers, closeSrc)
	return e, nil
}

// OpenSource opens the page source described by sc. The returned close
// function releases it.
func OpenSource(sc config.SourceConfig) (loader.Source, func() error, error) {
	switch sc.Kind {
	case config.SourceTileDB:
		db, err := tiledb.Open(sc.Path)
		if err != nil {
			return nil, nil, err
		}
		return db, db.Close, nil
	case config.SourceImage:
		src, err := imagesrc.Load(sc.Path, sc.TileSize)
		if err != nil {
			return nil, nil, err
		}
		return src, func() error { return nil }, nil
	default:
		return nil, nil, fmt.Errorf("%w: %q", ErrUnknownSource, sc.Kind)
	}
}

// Info returns the virtual texture layout.
func (e *Engine) Info() page.Info { return e.info }

// Stack returns the texture stack.
func (e *Engine) Stack() *stack.Stack { return e.stack }

// Cache returns the page cache.
func (e *Engine) Cache() *cache.Cache { return e.cache }

// Viewport returns the viewport in screen pixels.
func (e *Engine) Viewport() geom.Rect { return e.viewport }

func (e *Engine) checkViewport(v geom.Rect) error {
	if !e.stack.Fits(v) {
		return fmt.Errorf("%w: %v, atlas %d", stack.ErrViewportTooLarge, v, e.stack.AtlasSize())
	}
	return nil
}

// SetViewport resizes the viewport.
func (e *Engine) SetViewport(width, height int) error {
	v := geom.R(0, 0, float64(width), float64(height))
	if v.IsEmpty() {
		return fmt.Errorf("%w: %v", stack.ErrInvalidViewport, v)
	}
	if err := e.checkViewport(v); err != nil {
		return err
	}
	e.viewport = v
	return nil
}

// Frame updates the stack for a view at scale (mip-0 pixels per screen
// pixel) with the viewport origin at offset, and describes the blend the
// display should draw.
func (e *Engine) Frame(scale float64, offset mgl64.Vec2) (Frame, error) {
	if e.closed {
		return Frame{}, ErrClosed
	}
	stats, err := e.stack.Update(e.viewport, scale, offset)
	if err != nil {
		return Frame{}, err
	}
	params, ok := composite.Build(e.stack)
	return Frame{Stats: stats, Params: params, Ready: ok}, nil
}

// Pending returns the number of requested pages not yet resident or
// failed.
func (e *Engine) Pending() int {
	return e.cache.Stats().Pending
}

// Wait blocks until no page load is in flight or ctx is done.
func (e *Engine) Wait(ctx context.Context) error {
	ticker := time.NewTicker(time.Millisecond)
	defer ticker.Stop()
	for e.Pending() > 0 {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
	return nil
}

// Close releases the atlases, stops the loader and closes the source. It
// is safe to call more than once.
func (e *Engine) Close() error {
	if e.closed {
		return nil
	}
	e.closed = true

	var errs []error
	if e.async != nil {
		errs = append(errs, e.async.Close())
	}
	if e.stack != nil {
		e.stack.Close()
	}
	if e.cache != nil {
		e.cache.Close()
	}
	for _, c := range e.closers {
		errs = append(errs, c())
	}
	e.log.Info("clipmap: engine closed")
	return errors.Join(errs...)
}
