package page

import (
	"testing"

	"github.com/gogpu/clipmap/geom"
)

// BenchmarkEnumerate walks the pages of a full 512px window at tile 128.
func BenchmarkEnumerate(b *testing.B) {
	region := geom.XYWH(64, 64, 512, 512)
	for i := 0; i < b.N; i++ {
		for p, cell := range Enumerate(region, 0, 128) {
			_, _ = p, cell
		}
	}
}

func BenchmarkIndexer(b *testing.B) {
	x := NewIndexer(Info{VTexWidth: 1 << 16, VTexHeight: 1 << 16, TileSize: 128, Channels: 4, BytesPerChannel: 1})
	n := x.Count()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		p, _ := x.IndexToPage(i % n)
		_ = x.PageToIndex(p)
	}
}
