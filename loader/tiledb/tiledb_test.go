package tiledb

import (
	"context"
	"errors"
	"iter"
	"path/filepath"
	"testing"

	"github.com/gogpu/clipmap/loader"
	"github.com/gogpu/clipmap/page"
)

var testInfo = page.Info{TileSize: 8, Channels: 4, BytesPerChannel: 1, VTexWidth: 32, VTexHeight: 32}

func tileData(p page.Page) []byte {
	data := make([]byte, testInfo.PageBytes())
	for i := range data {
		data[i] = byte(p.X + 4*p.Y + 16*p.Mip + i%3)
	}
	return data
}

func create(t *testing.T) (*DB, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "tiles.db")
	db, err := Create(path, testInfo)
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	return db, path
}

func TestRoundTrip(t *testing.T) {
	ctx := context.Background()
	db, path := create(t)

	p := page.New(2, 3, 0)
	if err := db.WriteTile(ctx, p, tileData(p)); err != nil {
		t.Fatalf("WriteTile() error = %v", err)
	}
	if err := db.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}

	db2, err := Open(path)
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	defer db2.Close()

	if db2.Info() != testInfo {
		t.Errorf("Info() = %+v, want %+v", db2.Info(), testInfo)
	}
	got, err := db2.ReadPage(ctx, p)
	if err != nil {
		t.Fatalf("ReadPage() error = %v", err)
	}
	want := tileData(p)
	if string(got) != string(want) {
		t.Error("ReadPage returned different bytes")
	}
}

func TestReadMissing(t *testing.T) {
	db, _ := create(t)
	_, err := db.ReadPage(context.Background(), page.New(0, 0, 1))
	if !errors.Is(err, loader.ErrPageNotFound) {
		t.Errorf("ReadPage() error = %v, want ErrPageNotFound", err)
	}
}

func TestWriteRejects(t *testing.T) {
	db, _ := create(t)
	ctx := context.Background()
	tests := []struct {
		name string
		p    page.Page
		data []byte
	}{
		{"outside", page.New(4, 0, 0), tileData(page.New(0, 0, 0))},
		{"bad mip", page.New(0, 0, 3), tileData(page.New(0, 0, 0))},
		{"short", page.New(0, 0, 0), []byte{1, 2, 3}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := db.WriteTile(ctx, tt.p, tt.data); err == nil {
				t.Error("WriteTile() succeeded, want error")
			}
		})
	}
}

func allPages(info page.Info) iter.Seq2[page.Page, []byte] {
	return func(yield func(page.Page, []byte) bool) {
		for mip := range info.Levels() {
			for y := range info.LevelHeight(mip) {
				for x := range info.LevelWidth(mip) {
					p := page.New(x, y, mip)
					if !yield(p, tileData(p)) {
						return
					}
				}
			}
		}
	}
}

func TestWriteTiles(t *testing.T) {
	ctx := context.Background()
	db, _ := create(t)

	n, err := db.WriteTiles(ctx, allPages(testInfo))
	if err != nil {
		t.Fatalf("WriteTiles() error = %v", err)
	}
	want := page.NewIndexer(testInfo).Count()
	if n != want {
		t.Errorf("wrote %d tiles, want %d", n, want)
	}
	if got, err := db.Count(ctx); err != nil || got != want {
		t.Errorf("Count() = %d, %v; want %d", got, err, want)
	}

	p := page.New(1, 1, 1)
	got, err := db.ReadPage(ctx, p)
	if err != nil || string(got) != string(tileData(p)) {
		t.Errorf("ReadPage(%v) mismatch, err = %v", p, err)
	}
}

func TestWriteTilesRollsBack(t *testing.T) {
	ctx := context.Background()
	db, _ := create(t)

	bad := func(yield func(page.Page, []byte) bool) {
		if !yield(page.New(0, 0, 0), tileData(page.New(0, 0, 0))) {
			return
		}
		yield(page.New(9, 9, 0), nil)
	}
	if _, err := db.WriteTiles(ctx, bad); err == nil {
		t.Fatal("WriteTiles() succeeded with an invalid tile")
	}
	if n, _ := db.Count(ctx); n != 0 {
		t.Errorf("Count() = %d after rollback, want 0", n)
	}
}

func TestCreateTruncates(t *testing.T) {
	ctx := context.Background()
	db, path := create(t)
	if err := db.WriteTile(ctx, page.New(0, 0, 0), tileData(page.New(0, 0, 0))); err != nil {
		t.Fatal(err)
	}
	_ = db.Close()

	db2, err := Create(path, testInfo)
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	defer db2.Close()
	if n, _ := db2.Count(ctx); n != 0 {
		t.Errorf("Count() = %d after re-create, want 0", n)
	}
}

func TestOpenErrors(t *testing.T) {
	if _, err := Open(filepath.Join(t.TempDir(), "missing.db")); err == nil {
		t.Error("Open() of a missing file succeeded")
	}
	if _, err := Create(filepath.Join(t.TempDir(), "x.db"), page.Info{}); err == nil {
		t.Error("Create() with an invalid layout succeeded")
	}
}

func TestAsyncOverDB(t *testing.T) {
	ctx := context.Background()
	db, _ := create(t)
	if _, err := db.WriteTiles(ctx, allPages(testInfo)); err != nil {
		t.Fatal(err)
	}

	a := loader.NewAsync(db, loader.WithWorkers(3))
	defer a.Close()

	sink := &chanSink{ch: make(chan error, 16)}
	for x := range 4 {
		for y := range 4 {
			a.Load(page.New(x, y, 0), sink)
		}
	}
	for range 16 {
		if err := <-sink.ch; err != nil {
			t.Errorf("load error = %v", err)
		}
	}
}

type chanSink struct{ ch chan error }

func (s *chanSink) OnLoadComplete(p page.Page, data []byte) {
	if string(data) != string(tileData(p)) {
		s.ch <- errors.New("data mismatch for " + p.String())
		return
	}
	s.ch <- nil
}

func (s *chanSink) OnLoadFailed(_ page.Page, err error) { s.ch <- err }

type funcSource struct {
	info page.Info
	read func(page.Page) ([]byte, error)
}

func (s funcSource) Info() page.Info { return s.info }

func (s funcSource) ReadPage(_ context.Context, p page.Page) ([]byte, error) { return s.read(p) }

func TestImport(t *testing.T) {
	ctx := context.Background()
	db, _ := create(t)

	src := funcSource{info: testInfo, read: func(p page.Page) ([]byte, error) { return tileData(p), nil }}
	var calls, last int
	n, err := db.Import(ctx, src, func(done, total int) {
		calls++
		last = done
		if total != page.NewIndexer(testInfo).Count() {
			t.Errorf("total = %d", total)
		}
	})
	if err != nil {
		t.Fatalf("Import() error = %v", err)
	}
	want := page.NewIndexer(testInfo).Count()
	if n != want || calls != want || last != want {
		t.Errorf("n = %d, calls = %d, last = %d; want %d", n, calls, last, want)
	}
	p := page.New(0, 0, 2)
	if got, err := db.ReadPage(ctx, p); err != nil || string(got) != string(tileData(p)) {
		t.Errorf("ReadPage(%v) mismatch, err = %v", p, err)
	}
}

func TestImportRollsBack(t *testing.T) {
	ctx := context.Background()
	db, _ := create(t)

	boom := errors.New("boom")
	src := funcSource{info: testInfo, read: func(p page.Page) ([]byte, error) {
		if p.Mip == 1 {
			return nil, boom
		}
		return tileData(p), nil
	}}
	if _, err := db.Import(ctx, src, nil); !errors.Is(err, boom) {
		t.Fatalf("Import() error = %v, want boom", err)
	}
	if n, _ := db.Count(ctx); n != 0 {
		t.Errorf("Count() = %d after failed import, want 0", n)
	}

	other := testInfo
	other.Channels = 1
	if _, err := db.Import(ctx, funcSource{info: other}, nil); !errors.Is(err, ErrInfoMismatch) {
		t.Errorf("mismatched layout: %v", err)
	}
}
