package texture

// ConvertPage expands a raw page of tileSize x tileSize pixels with the
// given channels and bytes per channel into dst, laid out in format.
//
// Every destination byte starts as 0xFF; source channel c lands in
// destination channel c. Samples wider than one byte are big-endian and
// keep their most significant byte. Source channels beyond the
// destination's channel count are dropped.
//
// dst must hold at least tileSize*tileSize*format.BytesPerPixel() bytes and
// src at least tileSize*tileSize*channels*bytesPerChannel bytes; ConvertPage
// returns ErrDataTooSmall otherwise.
func ConvertPage(dst, src []byte, tileSize, channels, bytesPerChannel int, format Format) error {
	if !format.IsValid() {
		return ErrInvalidFormat
	}
	pixels := tileSize * tileSize
	bpp := format.BytesPerPixel()
	if len(dst) < pixels*bpp || len(src) < pixels*channels*bytesPerChannel {
		return ErrDataTooSmall
	}

	dst = dst[:pixels*bpp]
	for i := range dst {
		dst[i] = 0xff
	}

	n := min(channels, bpp)
	if n == bpp && channels == bpp && bytesPerChannel == 1 {
		copy(dst, src[:len(dst)])
		return nil
	}
	stride := channels * bytesPerChannel
	for p := range pixels {
		s := src[p*stride:]
		d := dst[p*bpp:]
		for c := range n {
			d[c] = s[c*bytesPerChannel]
		}
	}
	return nil
}
