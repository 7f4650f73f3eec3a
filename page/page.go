// Package page identifies the fixed-size tiles of a virtual texture and
// enumerates the tiles that cover a region.
//
// A virtual texture of VTexWidth x VTexHeight pixels is split into square
// tiles of TileSize pixels. Mip level 0 is the finest; each coarser level
// halves the page table in both dimensions.
package page

import (
	"errors"
	"fmt"
	"math"
	"math/bits"
)

// Page identifies one tile at one mip level. X and Y are tile-grid
// coordinates at that level.
type Page struct {
	X, Y int
	Mip  int
}

// New creates a Page.
func New(x, y, mip int) Page {
	return Page{X: x, Y: y, Mip: mip}
}

func (p Page) String() string {
	return fmt.Sprintf("page(%d,%d@%d)", p.X, p.Y, p.Mip)
}

// Errors returned by Info.Validate.
var (
	ErrInvalidTileSize = errors.New("page: tile size must be a positive power of two")
	ErrInvalidChannels = errors.New("page: channels must be in [1, 4]")
	ErrInvalidDepth    = errors.New("page: bytes per channel must be 1 or 2")
	ErrInvalidExtent   = errors.New("page: virtual texture extent must be a positive multiple of the tile size")
)

// Info describes the layout of a virtual texture.
type Info struct {
	// TileSize is the edge length of a page in pixels.
	TileSize int `yaml:"tile_size"`

	// Channels is the number of samples per pixel in raw page data.
	Channels int `yaml:"channels"`

	// BytesPerChannel is the size of one sample in raw page data.
	BytesPerChannel int `yaml:"bytes_per_channel"`

	// VTexWidth and VTexHeight are the mip-0 extent in pixels.
	VTexWidth  int `yaml:"vtex_width"`
	VTexHeight int `yaml:"vtex_height"`
}

// Validate checks that the layout is usable.
func (i Info) Validate() error {
	if i.TileSize <= 0 || bits.OnesCount(uint(i.TileSize)) != 1 {
		return fmt.Errorf("%w: %d", ErrInvalidTileSize, i.TileSize)
	}
	if i.Channels < 1 || i.Channels > 4 {
		return fmt.Errorf("%w: %d", ErrInvalidChannels, i.Channels)
	}
	if i.BytesPerChannel != 1 && i.BytesPerChannel != 2 {
		return fmt.Errorf("%w: %d", ErrInvalidDepth, i.BytesPerChannel)
	}
	if i.VTexWidth <= 0 || i.VTexHeight <= 0 ||
		i.VTexWidth%i.TileSize != 0 || i.VTexHeight%i.TileSize != 0 {
		return fmt.Errorf("%w: %dx%d, tile %d", ErrInvalidExtent, i.VTexWidth, i.VTexHeight, i.TileSize)
	}
	return nil
}

// PageTableWidth returns the number of tile columns at mip 0.
func (i Info) PageTableWidth() int { return i.VTexWidth / i.TileSize }

// PageTableHeight returns the number of tile rows at mip 0.
func (i Info) PageTableHeight() int { return i.VTexHeight / i.TileSize }

// Levels returns the number of mip levels,
// floor(log2(min(PageTableWidth, PageTableHeight))) + 1.
func (i Info) Levels() int {
	n := min(i.PageTableWidth(), i.PageTableHeight())
	if n <= 0 {
		return 0
	}
	return bits.Len(uint(n))
}

// LevelWidth returns the page-table width at mip.
func (i Info) LevelWidth(mip int) int { return max(i.PageTableWidth()>>mip, 1) }

// LevelHeight returns the page-table height at mip.
func (i Info) LevelHeight(mip int) int { return max(i.PageTableHeight()>>mip, 1) }

// LevelExtent returns the pixel extent of the virtual texture at mip, in
// that level's own pixel scale.
func (i Info) LevelExtent(mip int) (w, h float64) {
	s := math.Ldexp(1, -mip)
	return float64(i.VTexWidth) * s, float64(i.VTexHeight) * s
}

// PageBytes returns the size of one raw page.
func (i Info) PageBytes() int {
	return i.TileSize * i.TileSize * i.Channels * i.BytesPerChannel
}

// Contains reports whether p addresses a tile inside the page table.
func (i Info) Contains(p Page) bool {
	return p.Mip >= 0 && p.Mip < i.Levels() &&
		p.X >= 0 && p.X < i.LevelWidth(p.Mip) &&
		p.Y >= 0 && p.Y < i.LevelHeight(p.Mip)
}
