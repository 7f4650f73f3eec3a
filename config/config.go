// Package config loads clipmap settings from YAML.
//
// Every field has a default, so a file only needs the settings it changes:
//
//	source:
//	  kind: tiledb
//	  path: world.tiles
//	atlas:
//	  size: 1024
//	cache:
//	  capacity: 512
package config

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/go-gl/mathgl/mgl64"
	"gopkg.in/yaml.v3"

	"github.com/gogpu/clipmap/cache"
	"github.com/gogpu/clipmap/loader"
	"github.com/gogpu/clipmap/stack"
)

// ErrInvalid is wrapped by every Validate error.
var ErrInvalid = errors.New("config: invalid")

// Source kinds.
const (
	SourceTileDB = "tiledb"
	SourceImage  = "image"
)

// Config is the complete configuration of a clipmap tool.
type Config struct {
	Source SourceConfig `yaml:"source"`
	Atlas  AtlasConfig  `yaml:"atlas"`
	Cache  CacheConfig  `yaml:"cache"`
	Loader LoaderConfig `yaml:"loader"`
	View   ViewConfig   `yaml:"view"`
	Log    LogConfig    `yaml:"log"`
	Camera CameraConfig `yaml:"camera"`
}

// SourceConfig selects where pages come from.
type SourceConfig struct {
	Kind string `yaml:"kind"`
	Path string `yaml:"path"`
	// TileSize applies to image sources; tile databases store their own.
	TileSize int `yaml:"tile_size"`
}

// AtlasConfig configures the layer atlases.
type AtlasConfig struct {
	Size           int  `yaml:"size"`
	DeferredCommit bool `yaml:"deferred_commit"`
}

// CacheConfig configures the page cache.
type CacheConfig struct {
	Capacity       int  `yaml:"capacity"`
	PromoteOnQuery bool `yaml:"promote_on_query"`
}

// LoaderConfig configures the asynchronous loader.
type LoaderConfig struct {
	Workers   int           `yaml:"workers"`
	QueueSize int           `yaml:"queue_size"`
	Timeout   time.Duration `yaml:"timeout"`
}

// ViewConfig is the on-screen viewport size in pixels.
type ViewConfig struct {
	Width  int `yaml:"width"`
	Height int `yaml:"height"`
}

// LogConfig configures the slog handler of the tools.
type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Source: SourceConfig{Kind: SourceTileDB, TileSize: 128},
		Atlas:  AtlasConfig{Size: stack.DefaultAtlasSize, DeferredCommit: true},
		Cache:  CacheConfig{Capacity: cache.DefaultCapacity},
		Loader: LoaderConfig{Workers: 4, QueueSize: 64, Timeout: 5 * time.Second},
		View:   ViewConfig{Width: 512, Height: 512},
		Log:    LogConfig{Level: "info", Format: "text"},
	}
}

// Parse decodes YAML over the defaults and validates the result.
func Parse(raw []byte) (Config, error) {
	c := Default()
	if err := yaml.Unmarshal(raw, &c); err != nil {
		return c, fmt.Errorf("config: %w", err)
	}
	if err := c.Validate(); err != nil {
		return c, err
	}
	return c, nil
}

// Load reads and parses the file at path.
func Load(path string) (Config, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return Default(), err
	}
	c, err := Parse(raw)
	if err != nil {
		return c, fmt.Errorf("%s: %w", path, err)
	}
	return c, nil
}

// Validate checks the configuration for values no component accepts.
func (c Config) Validate() error {
	var errs []error
	check := func(ok bool, format string, args ...any) {
		if !ok {
			errs = append(errs, fmt.Errorf("%w: "+format, append([]any{ErrInvalid}, args...)...))
		}
	}

	check(c.Source.Kind == SourceTileDB || c.Source.Kind == SourceImage, "source.kind %q", c.Source.Kind)
	check(c.Source.TileSize > 0 && c.Source.TileSize&(c.Source.TileSize-1) == 0,
		"source.tile_size %d is not a power of two", c.Source.TileSize)
	check(c.Atlas.Size > 0, "atlas.size %d", c.Atlas.Size)
	check(c.Cache.Capacity > 0, "cache.capacity %d", c.Cache.Capacity)
	check(c.Loader.Workers >= 0, "loader.workers %d", c.Loader.Workers)
	check(c.Loader.Timeout >= 0, "loader.timeout %v", c.Loader.Timeout)
	check(c.View.Width > 0 && c.View.Height > 0, "view %dx%d", c.View.Width, c.View.Height)
	check(c.View.Width < c.Atlas.Size && c.View.Height < c.Atlas.Size,
		"view %dx%d exceeds atlas.size %d less one pixel", c.View.Width, c.View.Height, c.Atlas.Size)
	if _, err := c.Log.SlogLevel(); err != nil {
		errs = append(errs, fmt.Errorf("%w: log.level: %w", ErrInvalid, err))
	}
	check(c.Log.Format == "text" || c.Log.Format == "json", "log.format %q", c.Log.Format)
	for i, k := range c.Camera.Keys {
		check(k.Scale > 0, "camera.keys[%d].scale %v", i, k.Scale)
		check(i == 0 || k.Frame > c.Camera.Keys[i-1].Frame, "camera.keys[%d].frame %d is not increasing", i, k.Frame)
	}
	return errors.Join(errs...)
}

// SlogLevel parses Level ("debug", "info", "warn", "error").
func (l LogConfig) SlogLevel() (slog.Level, error) {
	var level slog.Level
	err := level.UnmarshalText([]byte(strings.ToUpper(l.Level)))
	return level, err
}

// NewLogger builds the logger described by l, writing to w.
func (l LogConfig) NewLogger(w io.Writer) *slog.Logger {
	level, err := l.SlogLevel()
	if err != nil {
		level = slog.LevelInfo
	}
	opts := &slog.HandlerOptions{Level: level}
	if l.Format == "json" {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}

// CacheOptions returns the cache options of c.
func (c Config) CacheOptions() []cache.Option {
	return []cache.Option{
		cache.WithCapacity(c.Cache.Capacity),
		cache.WithPromoteOnQuery(c.Cache.PromoteOnQuery),
	}
}

// StackOptions returns the stack options of c.
func (c Config) StackOptions() []stack.Option {
	return []stack.Option{
		stack.WithAtlasSize(c.Atlas.Size),
		stack.WithDeferredCommit(c.Atlas.DeferredCommit),
	}
}

// LoaderOptions returns the asynchronous loader options of c.
func (c Config) LoaderOptions() []loader.AsyncOption {
	return []loader.AsyncOption{
		loader.WithWorkers(c.Loader.Workers),
		loader.WithQueueSize(c.Loader.QueueSize),
		loader.WithTimeout(c.Loader.Timeout),
	}
}

// CameraConfig is a scripted camera path for headless runs.
type CameraConfig struct {
	Frames int   `yaml:"frames"`
	Keys   []Key `yaml:"keys"`
}

// Key is one camera keyframe.
type Key struct {
	Frame int     `yaml:"frame"`
	Scale float64 `yaml:"scale"`
	X     float64 `yaml:"x"`
	Y     float64 `yaml:"y"`
}

// At returns the camera at frame, interpolating linearly between keys and
// holding the first and last key outside their range. Without keys the
// camera sits at scale 1 at the origin.
func (c CameraConfig) At(frame int) (scale float64, offset mgl64.Vec2) {
	keys := c.Keys
	if len(keys) == 0 {
		return 1, mgl64.Vec2{}
	}
	if frame <= keys[0].Frame {
		return keys[0].Scale, mgl64.Vec2{keys[0].X, keys[0].Y}
	}
	for i := 1; i < len(keys); i++ {
		a, b := keys[i-1], keys[i]
		if frame > b.Frame {
			continue
		}
		t := float64(frame-a.Frame) / float64(b.Frame-a.Frame)
		pa := mgl64.Vec2{a.X, a.Y}
		pb := mgl64.Vec2{b.X, b.Y}
		return a.Scale + (b.Scale-a.Scale)*t, pa.Add(pb.Sub(pa).Mul(t))
	}
	last := keys[len(keys)-1]
	return last.Scale, mgl64.Vec2{last.X, last.Y}
}
