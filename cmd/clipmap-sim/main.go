// Command clipmap-sim drives the clipmap engine along a scripted camera
// path without a window and reports what every frame streamed.
//
//	clipmap-sim -config flight.yaml -dump out/ -every 10
//
// The camera path, source, cache and atlas settings come from the YAML
// configuration. With -dump, composed frames and the final layer atlases
// are written as PNG files.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"image"
	"image/png"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/xlab/closer"

	"github.com/gogpu/clipmap"
	"github.com/gogpu/clipmap/backend"
	"github.com/gogpu/clipmap/backend/soft"
	_ "github.com/gogpu/clipmap/backend/wgpu"
	"github.com/gogpu/clipmap/config"
	"github.com/gogpu/clipmap/integration/debugview"
)

type flags struct {
	config  string
	frames  int
	dump    string
	every   int
	backend string
	settle  bool
}

func main() {
	var f flags
	flag.StringVar(&f.config, "config", "clipmap.yaml", "configuration file")
	flag.IntVar(&f.frames, "frames", 0, "number of frames (overrides camera.frames)")
	flag.StringVar(&f.dump, "dump", "", "directory for PNG dumps")
	flag.IntVar(&f.every, "every", 30, "dump every n-th frame")
	flag.StringVar(&f.backend, "backend", "soft", "texture backend: soft, wgpu or auto")
	flag.BoolVar(&f.settle, "settle", false, "wait for outstanding loads after every frame")
	flag.Parse()

	defer closer.Close()

	cfg, err := config.Load(f.config)
	if err != nil {
		closer.Fatalln(err)
	}
	log := cfg.Log.NewLogger(os.Stderr)
	clipmap.SetLogger(log)

	if err := run(f, cfg, log); err != nil {
		closer.Fatalln(err)
	}
}

func openBackend(name string) (*backend.Backend, error) {
	if name == "auto" {
		return backend.Default()
	}
	return backend.Open(name)
}

func run(f flags, cfg config.Config, log *slog.Logger) error {
	b, err := openBackend(f.backend)
	if err != nil {
		return err
	}
	closer.Bind(b.Close)
	log.Info("texture backend", "name", b.Name)

	e, err := clipmap.Open(cfg, b.Factory)
	if err != nil {
		return err
	}
	closer.Bind(func() {
		if err := e.Close(); err != nil {
			log.Warn("close engine", "error", err)
		}
	})

	frames := cfg.Camera.Frames
	if f.frames > 0 {
		frames = f.frames
	}
	if frames <= 0 {
		frames = 1
	}

	var view *debugview.View
	if f.dump != "" {
		if err := os.MkdirAll(f.dump, 0o755); err != nil {
			return err
		}
		view = debugview.New(cfg.View.Width, cfg.View.Height)
		defer view.Close()
	}

	start := time.Now()
	var requested, placed, deferred int
	for i := range frames {
		scale, offset := cfg.Camera.At(i)
		fr, err := e.Frame(scale, offset)
		if err != nil {
			return fmt.Errorf("frame %d: %w", i, err)
		}
		requested += fr.Stats.Requested()
		placed += fr.Stats.Placed()
		deferred += fr.Stats.Deferred()
		log.Debug("frame",
			"n", i, "scale", fr.Stats.Scale, "level", fr.Stats.StartLevel,
			"requested", fr.Stats.Requested(), "placed", fr.Stats.Placed(),
			"deferred", fr.Stats.Deferred(), "pending", e.Pending())

		if view != nil && fr.Ready && i%max(f.every, 1) == 0 {
			if err := dumpFrame(view, fr, filepath.Join(f.dump, fmt.Sprintf("frame-%05d.png", i))); err != nil {
				return err
			}
		}
		if f.settle {
			ctx, cancel := context.WithTimeout(context.Background(), cfg.Loader.Timeout+time.Second)
			err := e.Wait(ctx)
			cancel()
			if err != nil {
				log.Warn("loads did not settle", "frame", i, "pending", e.Pending())
			}
		}
	}

	st := e.Cache().Stats()
	log.Info("simulation finished",
		"frames", frames, "elapsed", time.Since(start),
		"requested", requested, "placed", placed, "deferred", deferred,
		"cache_loads", st.Loads, "evictions", st.Evictions, "failures", st.Failures,
		"hit_rate", fmt.Sprintf("%.3f", st.HitRate))

	if f.dump != "" {
		return dumpLayers(e, f.dump)
	}
	return nil
}

func dumpFrame(view *debugview.View, fr clipmap.Frame, path string) error {
	img, err := view.Compose(fr.Params)
	if errors.Is(err, debugview.ErrNotSoft) {
		return nil
	}
	if err != nil {
		return err
	}
	return writePNG(path, img)
}

// dumpLayers writes every layer atlas, the debug strip of the engine.
func dumpLayers(e *clipmap.Engine, dir string) error {
	for _, l := range e.Stack().Layers() {
		tex, ok := l.Atlas().(*soft.Texture)
		if !ok {
			return nil
		}
		if err := writePNG(filepath.Join(dir, fmt.Sprintf("layer-%d.png", l.Mip())), tex.RGBA()); err != nil {
			return err
		}
	}
	return nil
}

func writePNG(path string, img image.Image) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := png.Encode(f, img); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
