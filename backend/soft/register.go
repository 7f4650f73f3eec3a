package soft

import (
	"github.com/gogpu/clipmap/backend"
	"github.com/gogpu/clipmap/texture"
)

func init() {
	backend.Register(backend.BackendSoftware, func() (texture.Factory, func(), error) {
		return NewFactory(), func() {}, nil
	})
}
