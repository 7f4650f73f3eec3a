package stack

import (
	"errors"
	"fmt"
	"log/slog"
	"math"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/gogpu/clipmap/cache"
	"github.com/gogpu/clipmap/geom"
	"github.com/gogpu/clipmap/internal/logging"
	"github.com/gogpu/clipmap/page"
	"github.com/gogpu/clipmap/texture"
)

// Errors returned by New and Update.
var (
	ErrAtlasSize        = errors.New("stack: atlas size must be a positive multiple of the tile size")
	ErrInvalidScale     = errors.New("stack: scale must be positive and finite")
	ErrInvalidViewport  = errors.New("stack: viewport must be non-empty")
	ErrViewportTooLarge = errors.New("stack: viewport not smaller than the atlas")
	ErrClosed           = errors.New("stack: closed")
)

// PageCache is the part of the page cache the stack drives.
type PageCache interface {
	Request(p page.Page)
	Query(p page.Page) (*cache.Tile, bool)
}

var _ PageCache = (*cache.Cache)(nil)

// Stack keeps one atlas per mip level in sync with a moving view.
//
// Stack is driven from a single goroutine; it is not safe for concurrent
// use. Loads complete concurrently inside the cache, which is.
type Stack struct {
	info    page.Info
	cache   PageCache
	factory texture.Factory
	format  texture.Format
	opts    options
	log     *slog.Logger

	layers []*Layer
	ready  bool
	closed bool

	scale  float64
	world  geom.Rect
	frames uint64
}

// New creates a stack for the virtual texture described by info. Atlases
// are allocated by Init, or by the first Update.
func New(info page.Info, c PageCache, factory texture.Factory, opts ...Option) (*Stack, error) {
	if err := info.Validate(); err != nil {
		return nil, err
	}
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	if o.atlasSize%info.TileSize != 0 {
		return nil, fmt.Errorf("%w: atlas %d, tile %d", ErrAtlasSize, o.atlasSize, info.TileSize)
	}

	s := &Stack{
		info:    info,
		cache:   c,
		factory: factory,
		format:  texture.ForChannels(info.Channels),
		opts:    o,
		log:     logging.Or(o.logger),
		layers:  make([]*Layer, info.Levels()),
		world:   geom.Empty(),
	}
	for mip := range s.layers {
		s.layers[mip] = newLayer(mip, info.TileSize, o.atlasSize)
	}
	return s, nil
}

// Info returns the virtual texture layout.
func (s *Stack) Info() page.Info { return s.info }

// AtlasSize returns the atlas edge length in pixels.
func (s *Stack) AtlasSize() int { return s.opts.atlasSize }

// Layers returns every layer, finest first.
func (s *Stack) Layers() []*Layer { return s.layers }

// Layer returns the layer of mip, or nil.
func (s *Stack) Layer(mip int) *Layer {
	if mip < 0 || mip >= len(s.layers) {
		return nil
	}
	return s.layers[mip]
}

// Ready reports whether the atlases exist.
func (s *Stack) Ready() bool { return s.ready }

// View returns the clamped scale and the visible rectangle in mip-0 pixels
// of the last Update.
func (s *Stack) View() (scale float64, world geom.Rect) { return s.scale, s.world }

// Init allocates one atlas per layer. It is a no-op once the stack is
// ready.
func (s *Stack) Init() error {
	if s.closed {
		return ErrClosed
	}
	if s.ready {
		return nil
	}
	size := s.opts.atlasSize
	for i, l := range s.layers {
		label := fmt.Sprintf("clipmap-layer-%d", l.mip)
		tex, err := s.factory.CreateTexture(label, size, size, s.format, nil)
		if err != nil {
			for _, done := range s.layers[:i] {
				done.atlas.Destroy()
				done.atlas = nil
			}
			return fmt.Errorf("stack: create %s: %w", label, err)
		}
		l.atlas = tex
	}
	s.ready = true
	s.log.Info("stack: initialized",
		"layers", len(s.layers), "atlas", size, "format", s.format,
		"vtex", fmt.Sprintf("%dx%d", s.info.VTexWidth, s.info.VTexHeight))
	return nil
}

// Close destroys the atlases. The stack cannot be used afterwards.
func (s *Stack) Close() {
	if s.closed {
		return
	}
	s.closed = true
	for _, l := range s.layers {
		if l.atlas != nil {
			l.atlas.Destroy()
			l.atlas = nil
		}
		l.slots.Reset()
	}
	s.ready = false
}

// Level returns the finest mip level needed at scale:
// ceil(clamp(log2(scale), 0, levels-1)).
func Level(scale float64, levels int) int {
	if levels <= 0 {
		return 0
	}
	lg := math.Log2(scale)
	lg = max(0, min(lg, float64(levels-1)))
	return int(math.Ceil(lg))
}

// Clamp limits scale so that viewport, scaled, fits inside an extent of
// width x height mip-0 pixels, and limits offset so the visible rectangle
// stays inside that extent. It returns the visible rectangle.
func Clamp(viewport geom.Rect, scale float64, offset mgl64.Vec2, width, height float64) (float64, mgl64.Vec2, geom.Rect) {
	vw, vh := viewport.Width(), viewport.Height()
	scale = min(scale, width/vw, height/vh)

	world := viewport.Scale(scale)
	ox := max(0, min(offset.X()+world.XMin, width-world.Width())) - world.XMin
	oy := max(0, min(offset.Y()+world.YMin, height-world.Height())) - world.YMin
	offset = mgl64.Vec2{ox, oy}
	return scale, offset, world.Translate(ox, oy)
}

// Fits reports whether viewport leaves the atlas at least one pixel to
// spare in each direction. A window at a fractional offset snaps to one
// pixel more than its width.
func (s *Stack) Fits(viewport geom.Rect) bool {
	size := float64(s.opts.atlasSize)
	return viewport.Width() < size && viewport.Height() < size
}

// Target returns the region layer mip must hold for the visible rectangle
// world (mip-0 pixels): world at half resolution per level, grown to whole
// pixels, clipped to the level extent and capped to the atlas size.
func (s *Stack) Target(world geom.Rect, mip int) geom.Rect {
	w, h := s.info.LevelExtent(mip)
	r := world.Scale(math.Ldexp(1, -mip)).Snap().Intersect(geom.R(0, 0, w, h))
	if r.IsEmpty() {
		return geom.Empty()
	}
	size := float64(s.opts.atlasSize)
	r.XMax = min(r.XMax, r.XMin+size)
	r.YMax = min(r.YMax, r.YMin+size)
	return r
}

// Update refreshes the layers for a view showing viewport (screen pixels)
// at scale mip-0 pixels per screen pixel, with the viewport origin at
// offset in mip-0 pixels.
//
// Only the layers from the level selected by scale to the coarsest are
// refreshed; finer layers keep what they hold. Pages that are not resident
// yet are requested and left for a later Update.
func (s *Stack) Update(viewport geom.Rect, scale float64, offset mgl64.Vec2) (UpdateStats, error) {
	if s.closed {
		return UpdateStats{}, ErrClosed
	}
	if viewport.IsEmpty() || viewport.HasNaN() {
		return UpdateStats{}, fmt.Errorf("%w: %v", ErrInvalidViewport, viewport)
	}
	if !s.Fits(viewport) {
		return UpdateStats{}, fmt.Errorf("%w: %v, atlas %d", ErrViewportTooLarge, viewport, s.opts.atlasSize)
	}
	if !(scale > 0) || math.IsInf(scale, 0) {
		return UpdateStats{}, fmt.Errorf("%w: %v", ErrInvalidScale, scale)
	}
	if err := s.Init(); err != nil {
		return UpdateStats{}, err
	}

	scale, _, world := Clamp(viewport, scale, offset, float64(s.info.VTexWidth), float64(s.info.VTexHeight))
	s.scale, s.world = scale, world
	s.frames++

	start := Level(scale, len(s.layers))
	stats := UpdateStats{StartLevel: start, Scale: scale, World: world}

	type layerWork struct {
		layer  *Layer
		target geom.Rect
		delta  []geom.Rect
		work   []page.Placement
	}
	works := make([]layerWork, 0, len(s.layers)-start)
	for _, l := range s.layers[start:] {
		target := s.Target(world, l.mip)
		delta := geom.Diff(l.region, target)
		works = append(works, layerWork{
			layer:  l,
			target: target,
			delta:  delta,
			work:   page.Collect(delta, l.mip, s.info.TileSize),
		})
	}

	// Every request goes out before any query, so pages that load
	// synchronously are placed in the same frame.
	for i := range works {
		w := &works[i]
		seen := make(map[page.Page]struct{}, len(w.work))
		for _, pl := range w.work {
			if _, ok := seen[pl.Page]; ok {
				continue
			}
			seen[pl.Page] = struct{}{}
			s.cache.Request(pl.Page)
		}
		stats.Layers = append(stats.Layers, LayerStats{
			Mip:       w.layer.mip,
			Relation:  geom.Classify(w.layer.region, w.target),
			Target:    w.target,
			Delta:     w.delta,
			Requested: len(seen),
		})
	}

	for i := range works {
		w := &works[i]
		ls := &stats.Layers[i]
		for _, pl := range w.work {
			if s.place(w.layer, pl) {
				ls.Placed++
			} else {
				ls.Deferred++
			}
		}
		ls.Committed = s.commit(w.layer, w.target, ls.Deferred > 0)

		if len(w.delta) > 0 {
			s.log.Debug("stack: layer updated",
				"mip", w.layer.mip, "relation", ls.Relation, "delta", len(w.delta),
				"placed", ls.Placed, "deferred", ls.Deferred, "region", ls.Committed)
		}
	}
	return stats, nil
}

// place copies one clipped page rectangle into the layer atlas. It reports
// false if the page is not resident or the upload failed.
func (s *Stack) place(l *Layer, pl page.Placement) bool {
	tile, ok := s.cache.Query(pl.Page)
	if !ok {
		return false
	}
	if tile.Format() != s.format {
		s.log.Warn("stack: tile format mismatch", "page", pl.Page, "tile", tile.Format(), "atlas", s.format)
		return false
	}

	cell := page.Cell(pl.Page, s.info.TileSize)
	local := pl.Rect.Translate(-cell.XMin, -cell.YMin).Image()
	dst := l.slots.Target(pl.Page, pl.Rect)
	if err := l.atlas.UpdateRegion(dst, tile.SubImage(local)); err != nil {
		s.log.Warn("stack: atlas upload failed", "page", pl.Page, "rect", dst, "error", err)
		return false
	}
	l.slots.Assign(pl.Page, dst)
	return true
}

// commit stores the layer's new resident region and returns it.
func (s *Stack) commit(l *Layer, target geom.Rect, unresolved bool) geom.Rect {
	region := target
	if unresolved && s.opts.deferred {
		region = l.region.Intersect(target)
		if region.IsEmpty() {
			region = geom.Empty()
		}
	}
	l.region = region
	if !region.IsEmpty() {
		l.state = LayerPopulated
	}
	return region
}

// Frames returns the number of completed Update calls.
func (s *Stack) Frames() uint64 { return s.frames }
