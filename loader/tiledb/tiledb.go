// Package tiledb stores the pages of a virtual texture in a single SQLite
// file, one zstd-compressed blob per page.
//
// The layout follows MBTiles loosely: a meta table of key/value pairs
// describing the page.Info, and a tiles table keyed by (mip, x, y).
package tiledb

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"iter"
	"os"
	"path/filepath"
	"strconv"
	"sync"

	"github.com/klauspost/compress/zstd"
	_ "modernc.org/sqlite"

	"github.com/gogpu/clipmap/loader"
	"github.com/gogpu/clipmap/page"
)

const schemaVersion = "1"

// Errors returned by Open, ReadPage and Import.
var (
	ErrNotTileDB    = errors.New("tiledb: not a tile database")
	ErrCorruptTile  = errors.New("tiledb: corrupt tile")
	ErrInfoMismatch = errors.New("tiledb: source layout differs from database")
)

// DB is an open tile database. It implements loader.Source and is safe
// for concurrent use.
type DB struct {
	db   *sql.DB
	info page.Info

	enc *zstd.Encoder
	dec *zstd.Decoder

	once sync.Once
}

var _ loader.Source = (*DB)(nil)

// Create creates (or truncates) the database at path for info.
func Create(path string, info page.Info) (*DB, error) {
	if err := info.Validate(); err != nil {
		return nil, err
	}
	db, err := open(path)
	if err != nil {
		return nil, err
	}
	stmts := []string{
		`DELETE FROM tiles;`,
		`DELETE FROM meta;`,
	}
	for _, s := range stmts {
		if _, err := db.Exec(s); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("tiledb: reset %s: %w", path, err)
		}
	}
	if err := writeMeta(db, info); err != nil {
		_ = db.Close()
		return nil, err
	}
	return newDB(db, info)
}

// Open opens an existing database.
func Open(path string) (*DB, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("tiledb: %w", err)
	}
	db, err := open(path)
	if err != nil {
		return nil, err
	}
	info, err := readMeta(db)
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("tiledb: %s: %w", path, err)
	}
	return newDB(db, info)
}

func open(path string) (*sql.DB, error) {
	if path == "" {
		return nil, fmt.Errorf("tiledb: empty db path")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	if err := initPragmas(db); err != nil {
		_ = db.Close()
		return nil, err
	}
	if err := initSchema(db); err != nil {
		_ = db.Close()
		return nil, err
	}
	return db, nil
}

func newDB(db *sql.DB, info page.Info) (*DB, error) {
	enc, err := zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedDefault))
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	dec, err := zstd.NewReader(nil)
	if err != nil {
		_ = enc.Close()
		_ = db.Close()
		return nil, err
	}
	return &DB{db: db, info: info, enc: enc, dec: dec}, nil
}

func initPragmas(db *sql.DB) error {
	pragmas := []string{
		"PRAGMA journal_mode=WAL;",
		"PRAGMA synchronous=NORMAL;",
		"PRAGMA busy_timeout=5000;",
		"PRAGMA temp_store=MEMORY;",
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			return err
		}
	}
	return nil
}

func initSchema(db *sql.DB) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS meta (
			key TEXT PRIMARY KEY,
			value TEXT NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS tiles (
			mip INTEGER NOT NULL,
			x INTEGER NOT NULL,
			y INTEGER NOT NULL,
			data BLOB NOT NULL,
			PRIMARY KEY (mip, x, y)
		);`,
	}
	for _, s := range stmts {
		if _, err := db.Exec(s); err != nil {
			return err
		}
	}
	return nil
}

func writeMeta(db *sql.DB, info page.Info) error {
	kv := [][2]string{
		{"schema", schemaVersion},
		{"tile_size", strconv.Itoa(info.TileSize)},
		{"channels", strconv.Itoa(info.Channels)},
		{"bytes_per_channel", strconv.Itoa(info.BytesPerChannel)},
		{"vtex_width", strconv.Itoa(info.VTexWidth)},
		{"vtex_height", strconv.Itoa(info.VTexHeight)},
	}
	for _, e := range kv {
		if _, err := db.Exec(`INSERT OR REPLACE INTO meta(key, value) VALUES(?, ?)`, e[0], e[1]); err != nil {
			return fmt.Errorf("tiledb: write meta %s: %w", e[0], err)
		}
	}
	return nil
}

func readMeta(db *sql.DB) (page.Info, error) {
	rows, err := db.Query(`SELECT key, value FROM meta`)
	if err != nil {
		return page.Info{}, err
	}
	defer rows.Close()

	meta := make(map[string]string)
	for rows.Next() {
		var k, v string
		if err := rows.Scan(&k, &v); err != nil {
			return page.Info{}, err
		}
		meta[k] = v
	}
	if err := rows.Err(); err != nil {
		return page.Info{}, err
	}
	if meta["schema"] != schemaVersion {
		return page.Info{}, fmt.Errorf("%w: schema %q", ErrNotTileDB, meta["schema"])
	}

	var info page.Info
	fields := []struct {
		key string
		dst *int
	}{
		{"tile_size", &info.TileSize},
		{"channels", &info.Channels},
		{"bytes_per_channel", &info.BytesPerChannel},
		{"vtex_width", &info.VTexWidth},
		{"vtex_height", &info.VTexHeight},
	}
	for _, f := range fields {
		n, err := strconv.Atoi(meta[f.key])
		if err != nil {
			return page.Info{}, fmt.Errorf("%w: meta %s: %w", ErrNotTileDB, f.key, err)
		}
		*f.dst = n
	}
	if err := info.Validate(); err != nil {
		return page.Info{}, err
	}
	return info, nil
}

// Info returns the layout stored in the database.
func (d *DB) Info() page.Info { return d.info }

func (d *DB) checkTile(p page.Page, data []byte) error {
	if !d.info.Contains(p) {
		return fmt.Errorf("tiledb: %v outside page table", p)
	}
	if len(data) != d.info.PageBytes() {
		return fmt.Errorf("tiledb: %v has %d bytes, want %d", p, len(data), d.info.PageBytes())
	}
	return nil
}

// WriteTile stores the raw bytes of p, replacing any previous tile.
func (d *DB) WriteTile(ctx context.Context, p page.Page, data []byte) error {
	if err := d.checkTile(p, data); err != nil {
		return err
	}
	blob := d.enc.EncodeAll(data, nil)
	_, err := d.db.ExecContext(ctx,
		`INSERT OR REPLACE INTO tiles(mip, x, y, data) VALUES(?, ?, ?, ?)`,
		p.Mip, p.X, p.Y, blob)
	if err != nil {
		return fmt.Errorf("tiledb: write %v: %w", p, err)
	}
	return nil
}

// WriteTiles stores every tile of seq in one transaction.
func (d *DB) WriteTiles(ctx context.Context, seq iter.Seq2[page.Page, []byte]) (int, error) {
	return d.inTx(ctx, func(put func(page.Page, []byte) error) error {
		for p, data := range seq {
			if err := put(p, data); err != nil {
				return err
			}
		}
		return nil
	})
}

// Import copies every page of src, finest level first, in one
// transaction. progress, if non-nil, is called after each page. Nothing is
// stored if any page fails to read.
func (d *DB) Import(ctx context.Context, src loader.Source, progress func(done, total int)) (int, error) {
	if src.Info() != d.info {
		return 0, fmt.Errorf("%w: source %+v, database %+v", ErrInfoMismatch, src.Info(), d.info)
	}
	idx := page.NewIndexer(d.info)
	total := idx.Count()
	return d.inTx(ctx, func(put func(page.Page, []byte) error) error {
		for i := range total {
			p, _ := idx.IndexToPage(i)
			data, err := src.ReadPage(ctx, p)
			if err != nil {
				return fmt.Errorf("tiledb: import %v: %w", p, err)
			}
			if err := put(p, data); err != nil {
				return err
			}
			if progress != nil {
				progress(i+1, total)
			}
		}
		return nil
	})
}

// inTx runs fn with a put function that inserts tiles inside a single
// transaction, committed only if fn returns nil.
func (d *DB) inTx(ctx context.Context, fn func(put func(page.Page, []byte) error) error) (n int, err error) {
	tx, err := d.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	stmt, err := tx.PrepareContext(ctx, `INSERT OR REPLACE INTO tiles(mip, x, y, data) VALUES(?, ?, ?, ?)`)
	if err != nil {
		return 0, err
	}
	defer stmt.Close()

	put := func(p page.Page, data []byte) error {
		if err := d.checkTile(p, data); err != nil {
			return err
		}
		if _, err := stmt.ExecContext(ctx, p.Mip, p.X, p.Y, d.enc.EncodeAll(data, nil)); err != nil {
			return fmt.Errorf("tiledb: write %v: %w", p, err)
		}
		n++
		return nil
	}
	if err = fn(put); err != nil {
		return n, err
	}
	if err = tx.Commit(); err != nil {
		return n, err
	}
	return n, nil
}

// ReadPage returns the raw bytes of p. A page without a stored tile
// returns an error wrapping loader.ErrPageNotFound.
func (d *DB) ReadPage(ctx context.Context, p page.Page) ([]byte, error) {
	var blob []byte
	err := d.db.QueryRowContext(ctx,
		`SELECT data FROM tiles WHERE mip = ? AND x = ? AND y = ?`,
		p.Mip, p.X, p.Y).Scan(&blob)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("tiledb: %v: %w", p, loader.ErrPageNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("tiledb: read %v: %w", p, err)
	}

	data, err := d.dec.DecodeAll(blob, make([]byte, 0, d.info.PageBytes()))
	if err != nil {
		return nil, fmt.Errorf("%w: %v: %w", ErrCorruptTile, p, err)
	}
	if len(data) != d.info.PageBytes() {
		return nil, fmt.Errorf("%w: %v decoded to %d bytes", ErrCorruptTile, p, len(data))
	}
	return data, nil
}

// Count returns the number of stored tiles.
func (d *DB) Count(ctx context.Context) (int, error) {
	var n int
	if err := d.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM tiles`).Scan(&n); err != nil {
		return 0, err
	}
	return n, nil
}

// Close closes the database. It is safe to call more than once.
func (d *DB) Close() error {
	var err error
	d.once.Do(func() {
		d.dec.Close()
		err = errors.Join(d.enc.Close(), d.db.Close())
	})
	return err
}
