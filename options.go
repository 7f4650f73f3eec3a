package clipmap

import (
	"log/slog"

	"github.com/gogpu/clipmap/cache"
	"github.com/gogpu/clipmap/loader"
	"github.com/gogpu/clipmap/stack"
)

// Option configures an Engine during creation.
//
// Example:
//
//	e, err := clipmap.New(src, soft.NewFactory(),
//		clipmap.WithViewport(800, 600),
//		clipmap.WithCache(cache.WithCapacity(1024)),
//	)
type Option func(*options)

type options struct {
	width, height int
	sync          bool
	log           *slog.Logger
	cacheOpts     []cache.Option
	stackOpts     []stack.Option
	loaderOpts    []loader.AsyncOption
}

func defaultOptions() options {
	return options{width: 512, height: 512}
}

// WithViewport sets the viewport size in screen pixels. Values below 1 are
// ignored. The viewport must fit inside the atlas.
func WithViewport(width, height int) Option {
	return func(o *options) {
		if width > 0 && height > 0 {
			o.width, o.height = width, height
		}
	}
}

// WithSyncLoading makes every page load complete inside the Frame that
// requested it. Useful for tests and offline rendering.
func WithSyncLoading(sync bool) Option {
	return func(o *options) {
		o.sync = sync
	}
}

// WithLogger sets the logger of the engine and every component it builds.
func WithLogger(l *slog.Logger) Option {
	return func(o *options) {
		o.log = l
	}
}

// WithCache appends options for the page cache.
func WithCache(opts ...cache.Option) Option {
	return func(o *options) {
		o.cacheOpts = append(o.cacheOpts, opts...)
	}
}

// WithStack appends options for the texture stack.
func WithStack(opts ...stack.Option) Option {
	return func(o *options) {
		o.stackOpts = append(o.stackOpts, opts...)
	}
}

// WithLoader appends options for the asynchronous loader. They have no
// effect with WithSyncLoading.
func WithLoader(opts ...loader.AsyncOption) Option {
	return func(o *options) {
		o.loaderOpts = append(o.loaderOpts, opts...)
	}
}
