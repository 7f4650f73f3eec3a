package clipmap

import (
	"log/slog"

	"github.com/gogpu/clipmap/internal/logging"
)

// SetLogger configures the logger for clipmap and all its sub-packages.
// By default, clipmap produces no log output. Call SetLogger to enable
// logging.
//
// SetLogger is safe for concurrent use: it stores the new logger
// atomically. Pass nil to disable logging (restore default silent
// behavior). Components constructed with their own WithLogger option keep
// that logger.
//
// Log levels used by clipmap:
//   - [slog.LevelDebug]: per-frame diagnostics (delta rectangles, page counts, evictions)
//   - [slog.LevelInfo]: lifecycle events (engine opened, atlases allocated)
//   - [slog.LevelWarn]: non-fatal issues (page load failures, upload errors)
//
// Example:
//
//	// Enable debug-level logging to stderr:
//	clipmap.SetLogger(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
//	    Level: slog.LevelDebug,
//	})))
func SetLogger(l *slog.Logger) {
	logging.Set(l)
}

// Logger returns the current logger used by clipmap.
//
// Logger is safe for concurrent use.
func Logger() *slog.Logger {
	return logging.Logger()
}
