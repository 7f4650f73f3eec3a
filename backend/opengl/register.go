//go:build !nogl

package opengl

import (
	"github.com/gogpu/clipmap/backend"
	"github.com/gogpu/clipmap/texture"
)

func init() {
	backend.Register(backend.BackendOpenGL, func() (texture.Factory, func(), error) {
		return NewFactory(), func() {}, nil
	})
}
