package texture

import (
	"fmt"

	"github.com/gogpu/gputypes"
)

// Format is the pixel format of a texture.
type Format uint8

const (
	// FormatRGBA8 is 8-bit RGBA, 4 bytes per pixel.
	FormatRGBA8 Format = iota

	// FormatR8 is a single 8-bit channel, used for grayscale pages.
	FormatR8

	formatCount
)

// FormatInfo contains metadata about a pixel format.
type FormatInfo struct {
	BytesPerPixel int
	Channels      int
	HasAlpha      bool
}

var formatInfoTable = [formatCount]FormatInfo{
	FormatRGBA8: {BytesPerPixel: 4, Channels: 4, HasAlpha: true},
	FormatR8:    {BytesPerPixel: 1, Channels: 1, HasAlpha: false},
}

// Info returns the FormatInfo for f, or the zero value for an unknown
// format.
func (f Format) Info() FormatInfo {
	if f >= formatCount {
		return FormatInfo{}
	}
	return formatInfoTable[f]
}

// IsValid reports whether f is a known format.
func (f Format) IsValid() bool { return f < formatCount }

// BytesPerPixel returns the size of one pixel.
func (f Format) BytesPerPixel() int { return f.Info().BytesPerPixel }

// RowBytes returns the size of a tightly packed row of width pixels.
func (f Format) RowBytes(width int) int { return width * f.BytesPerPixel() }

// GPUFormat returns the matching WebGPU texture format.
func (f Format) GPUFormat() gputypes.TextureFormat {
	switch f {
	case FormatR8:
		return gputypes.TextureFormatR8Unorm
	default:
		return gputypes.TextureFormatRGBA8Unorm
	}
}

func (f Format) String() string {
	switch f {
	case FormatRGBA8:
		return "RGBA8"
	case FormatR8:
		return "R8"
	default:
		return fmt.Sprintf("Unknown(%d)", uint8(f))
	}
}

// ForChannels picks the texture format for pages with the given number of
// source channels. Single-channel pages stay R8; everything else is
// expanded to RGBA8 with the missing channels filled with 0xFF.
func ForChannels(channels int) Format {
	if channels == 1 {
		return FormatR8
	}
	return FormatRGBA8
}
