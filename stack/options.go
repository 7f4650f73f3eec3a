package stack

import "log/slog"

// DefaultAtlasSize is the edge length of every layer atlas in pixels.
const DefaultAtlasSize = 1024

// Option configures a Stack.
type Option func(*options)

type options struct {
	atlasSize int
	deferred  bool
	logger    *slog.Logger
}

func defaultOptions() options {
	return options{atlasSize: DefaultAtlasSize}
}

// WithAtlasSize sets the layer atlas edge length. It must be a multiple of
// the tile size and larger than the viewport.
func WithAtlasSize(n int) Option {
	return func(o *options) {
		if n > 0 {
			o.atlasSize = n
		}
	}
}

// WithDeferredCommit makes Update commit a layer's new region only where
// its content is known to be placed. When any page of a layer's delta is
// unresolved, the layer keeps old ∩ new and the gap is requested again on
// the next Update. By default the full target is committed and unresolved
// pages leave stale pixels.
func WithDeferredCommit(deferred bool) Option {
	return func(o *options) {
		o.deferred = deferred
	}
}

// WithLogger sets the logger. nil selects the package-wide logger.
func WithLogger(l *slog.Logger) Option {
	return func(o *options) {
		o.logger = l
	}
}
