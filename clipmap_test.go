package clipmap

import (
	"context"
	"errors"
	"image"
	"image/color"
	"path/filepath"
	"testing"
	"time"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/gogpu/clipmap/backend/soft"
	"github.com/gogpu/clipmap/config"
	"github.com/gogpu/clipmap/loader/imagesrc"
	"github.com/gogpu/clipmap/loader/tiledb"
	"github.com/gogpu/clipmap/stack"
)

// gradient is a 256x256 image whose pixel (x, y) is (x, y, 7, 255).
func gradient() *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, 256, 256))
	for y := range 256 {
		for x := range 256 {
			img.SetRGBA(x, y, color.RGBA{uint8(x), uint8(y), 7, 255})
		}
	}
	return img
}

func newSource(t *testing.T) *imagesrc.Source {
	t.Helper()
	src, err := imagesrc.New(gradient(), 64)
	if err != nil {
		t.Fatal(err)
	}
	return src
}

func TestEngineSyncFrame(t *testing.T) {
	f := soft.NewFactory()
	e, err := New(newSource(t), f, WithSyncLoading(true), WithViewport(128, 128))
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	defer e.Close()

	if got := len(e.Stack().Layers()); got != 3 {
		t.Fatalf("layers = %d, want 3", got)
	}
	if f.Live() != 3 {
		t.Errorf("atlases allocated = %d, want 3", f.Live())
	}

	fr, err := e.Frame(1, mgl64.Vec2{64, 32})
	if err != nil {
		t.Fatalf("Frame() error = %v", err)
	}
	if !fr.Ready || !fr.Complete() {
		t.Fatalf("frame ready %v complete %v", fr.Ready, fr.Complete())
	}
	if !fr.Params.Fine.Covered || fr.Params.Fine.Mip != 0 {
		t.Errorf("fine binding = %+v", fr.Params.Fine)
	}

	// World pixel (100, 50) sits at the same atlas position: the atlas is
	// larger than the virtual texture.
	atlas := e.Stack().Layer(0).Atlas().(*soft.Texture)
	if px := atlas.At(100, 50); px == nil || px[0] != 100 || px[1] != 50 || px[2] != 7 {
		t.Errorf("atlas pixel = %v, want [100 50 7 255]", px)
	}
	if e.Pending() != 0 {
		t.Errorf("Pending() = %d with sync loading", e.Pending())
	}
}

func TestEngineAsyncSettles(t *testing.T) {
	e, err := New(newSource(t), soft.NewFactory(), WithViewport(128, 128))
	if err != nil {
		t.Fatal(err)
	}
	defer e.Close()

	if _, err := e.Frame(1, mgl64.Vec2{64, 32}); err != nil {
		t.Fatal(err)
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := e.Wait(ctx); err != nil {
		t.Fatalf("Wait() error = %v", err)
	}

	// A still camera must pick up the pages that arrived after the first
	// frame.
	fr, err := e.Frame(1, mgl64.Vec2{64, 32})
	if err != nil {
		t.Fatal(err)
	}
	if !fr.Complete() {
		t.Errorf("frame after Wait is incomplete: %d deferred", fr.Stats.Deferred())
	}
	if !fr.Params.Fine.Covered {
		t.Error("fine layer not covered after loads settled")
	}
	atlas := e.Stack().Layer(0).Atlas().(*soft.Texture)
	if px := atlas.At(100, 50); px == nil || px[0] != 100 || px[1] != 50 || px[2] != 7 {
		t.Errorf("atlas pixel = %v, want [100 50 7 255]", px)
	}
}

func TestEngineAsyncImmediateCommitOptIn(t *testing.T) {
	e, err := New(newSource(t), soft.NewFactory(),
		WithViewport(128, 128),
		WithStack(stack.WithDeferredCommit(false)),
	)
	if err != nil {
		t.Fatal(err)
	}
	defer e.Close()

	fr, err := e.Frame(1, mgl64.Vec2{})
	if err != nil {
		t.Fatal(err)
	}
	// The caller asked for immediate commit: the target is recorded even
	// though no page has arrived yet.
	if got := fr.Stats.Layers[0].Committed; got.IsEmpty() {
		t.Errorf("layer 0 committed %v, want the full target", got)
	}
}

func TestOpenTileDB(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "gradient.tiles")
	src := newSource(t)
	db, err := tiledb.Create(path, src.Info())
	if err != nil {
		t.Fatal(err)
	}
	if _, err := db.Import(ctx, src, nil); err != nil {
		t.Fatal(err)
	}
	if err := db.Close(); err != nil {
		t.Fatal(err)
	}

	cfg := config.Default()
	cfg.Source = config.SourceConfig{Kind: config.SourceTileDB, Path: path, TileSize: 64}
	cfg.View = config.ViewConfig{Width: 128, Height: 128}
	cfg.Atlas.Size = 256

	e, err := Open(cfg, soft.NewFactory(), WithSyncLoading(true))
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	if e.Info() != src.Info() {
		t.Errorf("Info() = %+v, want %+v", e.Info(), src.Info())
	}
	if e.Stack().AtlasSize() != 256 {
		t.Errorf("AtlasSize() = %d", e.Stack().AtlasSize())
	}
	fr, err := e.Frame(2, mgl64.Vec2{})
	if err != nil {
		t.Fatal(err)
	}
	if !fr.Complete() || fr.Stats.StartLevel != 1 {
		t.Errorf("complete %v start level %d", fr.Complete(), fr.Stats.StartLevel)
	}
	if err := e.Close(); err != nil {
		t.Errorf("Close() error = %v", err)
	}
}

func TestEngineErrors(t *testing.T) {
	if _, _, err := OpenSource(config.SourceConfig{Kind: "ftp"}); !errors.Is(err, ErrUnknownSource) {
		t.Errorf("OpenSource(ftp) = %v", err)
	}
	if _, err := New(newSource(t), soft.NewFactory(), WithViewport(1024, 128)); !errors.Is(err, stack.ErrViewportTooLarge) {
		t.Errorf("oversized viewport = %v", err)
	}

	f := soft.NewFactory()
	e, err := New(newSource(t), f, WithSyncLoading(true))
	if err != nil {
		t.Fatal(err)
	}
	if err := e.SetViewport(0, 10); !errors.Is(err, stack.ErrInvalidViewport) {
		t.Errorf("SetViewport(0, 10) = %v", err)
	}
	if err := e.SetViewport(1024, 10); !errors.Is(err, stack.ErrViewportTooLarge) {
		t.Errorf("SetViewport(1024, 10) = %v", err)
	}
	if err := e.SetViewport(300, 200); err != nil || e.Viewport().Width() != 300 {
		t.Errorf("SetViewport(300, 200) = %v, viewport %v", err, e.Viewport())
	}

	if err := e.Close(); err != nil {
		t.Fatal(err)
	}
	if err := e.Close(); err != nil {
		t.Errorf("second Close() = %v", err)
	}
	if f.Live() != 0 {
		t.Errorf("Live() = %d after Close", f.Live())
	}
	if _, err := e.Frame(1, mgl64.Vec2{}); !errors.Is(err, ErrClosed) {
		t.Errorf("Frame after Close = %v", err)
	}
}
