package main

import (
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/gogpu/clipmap/backend"
	"github.com/gogpu/clipmap/config"
)

func writeTestImage(t *testing.T, path string) {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 256, 256))
	for y := range 256 {
		for x := range 256 {
			img.SetRGBA(x, y, color.RGBA{uint8(x), uint8(y), 0, 255})
		}
	}
	if err := writePNG(path, img); err != nil {
		t.Fatal(err)
	}
}

func TestRunDumpsLayers(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "src.png")
	writeTestImage(t, src)

	cfg := config.Default()
	cfg.Source = config.SourceConfig{Kind: config.SourceImage, Path: src, TileSize: 64}
	cfg.View = config.ViewConfig{Width: 128, Height: 128}
	cfg.Camera = config.CameraConfig{
		Frames: 4,
		Keys: []config.Key{
			{Frame: 0, Scale: 1},
			{Frame: 3, Scale: 2, X: 32, Y: 32},
		},
	}

	out := filepath.Join(dir, "out")
	f := flags{dump: out, every: 1, backend: "soft", settle: true}
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	if err := run(f, cfg, log); err != nil {
		t.Fatalf("run() error = %v", err)
	}

	for mip := range 3 {
		path := filepath.Join(out, fmt.Sprintf("layer-%d.png", mip))
		fh, err := os.Open(path)
		if err != nil {
			t.Fatalf("layer %d not dumped: %v", mip, err)
		}
		img, err := png.Decode(fh)
		fh.Close()
		if err != nil {
			t.Fatalf("decode %s: %v", path, err)
		}
		if img.Bounds().Dx() != cfg.Atlas.Size {
			t.Errorf("layer %d width = %d, want %d", mip, img.Bounds().Dx(), cfg.Atlas.Size)
		}
	}
}

func TestOpenBackend(t *testing.T) {
	b, err := openBackend("soft")
	if err != nil {
		t.Fatalf("openBackend(soft) = %v", err)
	}
	b.Close()
	if _, err := openBackend("metal"); !errors.Is(err, backend.ErrBackendNotAvailable) {
		t.Errorf("openBackend(metal) = %v", err)
	}
}
