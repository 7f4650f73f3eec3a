// Command clipmap-pack cuts an image into a mip pyramid of tiles and
// stores it in a tile database for the clipmap engine.
//
//	clipmap-pack -in earth.png -out earth.tiles -tile 128
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"time"

	"github.com/gogpu/clipmap/config"
	"github.com/gogpu/clipmap/loader/imagesrc"
	"github.com/gogpu/clipmap/loader/tiledb"
)

func main() {
	var (
		in       = flag.String("in", "", "source image (png, jpeg, bmp, tiff, webp)")
		out      = flag.String("out", "", "tile database to create")
		tileSize = flag.Int("tile", 128, "tile size in pixels, a power of two")
		gray     = flag.Bool("gray", false, "store one channel per pixel")
		level    = flag.String("log", "info", "log level")
	)
	flag.Parse()

	log := config.LogConfig{Level: *level, Format: "text"}.NewLogger(os.Stderr)
	if *in == "" || *out == "" {
		flag.Usage()
		os.Exit(2)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := run(ctx, log, *in, *out, *tileSize, *gray); err != nil {
		log.Error("clipmap-pack failed", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, log *slog.Logger, in, out string, tileSize int, gray bool) error {
	start := time.Now()
	src, err := imagesrc.Load(in, tileSize, imagesrc.WithGray(gray))
	if err != nil {
		return err
	}
	info := src.Info()
	log.Info("image decoded",
		"path", in, "vtex", fmt.Sprintf("%dx%d", info.VTexWidth, info.VTexHeight),
		"levels", info.Levels(), "elapsed", time.Since(start))

	db, err := tiledb.Create(out, info)
	if err != nil {
		return err
	}
	defer db.Close()

	var lastReport time.Time
	n, err := db.Import(ctx, src, func(done, total int) {
		if time.Since(lastReport) > time.Second || done == total {
			lastReport = time.Now()
			log.Info("packing", "done", done, "total", total)
		}
	})
	if err != nil {
		return err
	}
	if err := db.Close(); err != nil {
		return err
	}

	size := int64(0)
	if st, err := os.Stat(out); err == nil {
		size = st.Size()
	}
	log.Info("tile database written", "path", out, "tiles", n, "bytes", size, "elapsed", time.Since(start))
	return nil
}
