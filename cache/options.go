package cache

import "log/slog"

// DefaultCapacity is the number of tiles kept resident when no capacity is
// configured.
const DefaultCapacity = 256

// Option configures a Cache.
type Option func(*options)

type options struct {
	capacity int
	logger   *slog.Logger
	promote  bool
}

func defaultOptions() options {
	return options{capacity: DefaultCapacity}
}

// WithCapacity sets the maximum number of resident tiles.
// Values below 1 are ignored.
func WithCapacity(n int) Option {
	return func(o *options) {
		if n > 0 {
			o.capacity = n
		}
	}
}

// WithLogger sets the logger. nil selects the package-wide logger.
func WithLogger(l *slog.Logger) Option {
	return func(o *options) {
		o.logger = l
	}
}

// WithPromoteOnQuery makes Query mark hits as recently used. By default
// only loads establish recency.
func WithPromoteOnQuery(promote bool) Option {
	return func(o *options) {
		o.promote = promote
	}
}
