package wgpu

import (
	"github.com/gogpu/gputypes"

	"github.com/gogpu/clipmap/backend"
	"github.com/gogpu/clipmap/texture"
)

// DefaultBackend is the HAL backend opened through the backend registry.
var DefaultBackend = gputypes.BackendVulkan

func init() {
	backend.Register(backend.BackendWGPU, func() (texture.Factory, func(), error) {
		f, err := Open(DefaultBackend)
		if err != nil {
			return nil, nil, err
		}
		return f, f.Close, nil
	})
}
