// Package clipmap streams a very large virtual texture through a small,
// fixed set of GPU atlases, one per mip level.
//
// # Overview
//
// A clipmap keeps, for every mip level of the virtual texture, the window
// of texels around the current view resident in a square atlas. When the
// view scrolls or zooms, only the strips that entered the window are
// loaded and copied; everything still valid stays in place because the
// atlas is addressed toroidally (a texel lives at its world position
// modulo the atlas size).
//
// # Quick Start
//
//	import "github.com/gogpu/clipmap"
//
//	cfg, err := config.Load("clipmap.yaml")
//	if err != nil {
//		log.Fatal(err)
//	}
//	e, err := clipmap.Open(cfg, soft.NewFactory())
//	if err != nil {
//		log.Fatal(err)
//	}
//	defer e.Close()
//
//	for each frame {
//		fr, err := e.Frame(scale, offset)
//		if err != nil {
//			log.Fatal(err)
//		}
//		if fr.Ready {
//			draw(fr.Params) // fine and coarse atlas, UV windows, blend weight
//		}
//	}
//
// # Architecture
//
// The pipeline is split into packages, leaf first:
//   - geom: rectangles and the region difference used to find new strips
//   - page: page identity, virtual texture layout, page enumeration
//   - loader: page sources and the asynchronous worker pool
//   - loader/tiledb, loader/imagesrc: SQLite tile databases and decoded images
//   - cache: the bounded LRU page cache
//   - texture, backend/*: the GPU texture capability and its backends
//   - stack: the per-level atlases and the update algorithm
//   - composite: level selection and the two-layer blend shader
//   - config: YAML configuration
//
// Engine wires them together; each package is usable on its own.
//
// # Logging
//
// clipmap is silent by default. See SetLogger.
package clipmap
