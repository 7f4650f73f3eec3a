// Package imagesrc serves the pages of an in-memory image.
//
// The image is padded to a whole number of tiles and downsampled into a mip
// pyramid once, at construction. Reads are plain memory copies, so a
// Source can back either loader.Sync or loader.Async.
package imagesrc

import (
	"context"
	"errors"
	"fmt"
	"image"
	"image/draw"
	_ "image/jpeg" // register JPEG decoder
	_ "image/png"  // register PNG decoder
	"io"
	"os"

	_ "golang.org/x/image/bmp"  // register BMP decoder
	xdraw "golang.org/x/image/draw"
	_ "golang.org/x/image/tiff" // register TIFF decoder
	_ "golang.org/x/image/webp" // register WebP decoder

	"github.com/gogpu/clipmap/loader"
	"github.com/gogpu/clipmap/page"
)

// ErrEmptyImage is returned for images without pixels.
var ErrEmptyImage = errors.New("imagesrc: empty image")

// Source is a loader.Source backed by a decoded image.
type Source struct {
	info   page.Info
	levels []*image.RGBA
}

var _ loader.Source = (*Source)(nil)

// Option configures a Source.
type Option func(*options)

type options struct {
	scaler xdraw.Scaler
	gray   bool
}

// WithScaler sets the downsampling filter. The default is
// xdraw.BiLinear.
func WithScaler(s xdraw.Scaler) Option {
	return func(o *options) { o.scaler = s }
}

// WithGray serves single-channel pages holding the red channel.
func WithGray(gray bool) Option {
	return func(o *options) { o.gray = gray }
}

// New builds the pyramid of img with tiles of tileSize pixels.
func New(img image.Image, tileSize int, opts ...Option) (*Source, error) {
	o := options{scaler: xdraw.BiLinear}
	for _, opt := range opts {
		opt(&o)
	}

	b := img.Bounds()
	if b.Empty() {
		return nil, ErrEmptyImage
	}
	if tileSize <= 0 {
		return nil, fmt.Errorf("%w: %d", page.ErrInvalidTileSize, tileSize)
	}

	info := page.Info{
		TileSize:        tileSize,
		Channels:        4,
		BytesPerChannel: 1,
		VTexWidth:       roundUp(b.Dx(), tileSize),
		VTexHeight:      roundUp(b.Dy(), tileSize),
	}
	if o.gray {
		info.Channels = 1
	}
	if err := info.Validate(); err != nil {
		return nil, err
	}

	base := image.NewRGBA(image.Rect(0, 0, info.VTexWidth, info.VTexHeight))
	draw.Draw(base, b.Sub(b.Min), img, b.Min, draw.Src)

	levels := make([]*image.RGBA, info.Levels())
	levels[0] = base
	for mip := 1; mip < len(levels); mip++ {
		w, h := info.LevelExtent(mip)
		dst := image.NewRGBA(image.Rect(0, 0, int(w), int(h)))
		o.scaler.Scale(dst, dst.Bounds(), levels[mip-1], levels[mip-1].Bounds(), xdraw.Src, nil)
		levels[mip] = dst
	}
	return &Source{info: info, levels: levels}, nil
}

// Decode reads an image in any registered format.
func Decode(r io.Reader, tileSize int, opts ...Option) (*Source, error) {
	img, _, err := image.Decode(r)
	if err != nil {
		return nil, fmt.Errorf("imagesrc: decode: %w", err)
	}
	return New(img, tileSize, opts...)
}

// Load decodes the image file at path.
func Load(path string, tileSize int, opts ...Option) (*Source, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("imagesrc: %w", err)
	}
	defer f.Close()
	return Decode(f, tileSize, opts...)
}

// Info returns the padded layout of the image.
func (s *Source) Info() page.Info { return s.info }

// Level returns the image of one pyramid level.
func (s *Source) Level(mip int) *image.RGBA {
	if mip < 0 || mip >= len(s.levels) {
		return nil
	}
	return s.levels[mip]
}

// ReadPage copies the pixels of p.
func (s *Source) ReadPage(ctx context.Context, p page.Page) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if !s.info.Contains(p) {
		return nil, fmt.Errorf("imagesrc: %v: %w", p, loader.ErrPageNotFound)
	}

	ts := s.info.TileSize
	lvl := s.levels[p.Mip]
	out := make([]byte, s.info.PageBytes())
	row := ts * s.info.Channels
	for y := range ts {
		off := lvl.PixOffset(p.X*ts, p.Y*ts+y)
		src := lvl.Pix[off : off+ts*4]
		dst := out[y*row : (y+1)*row]
		if s.info.Channels == 4 {
			copy(dst, src)
			continue
		}
		for x := range ts {
			dst[x] = src[x*4]
		}
	}
	return out, nil
}

func roundUp(n, m int) int {
	return (n + m - 1) / m * m
}
