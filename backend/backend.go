package backend

import (
	"errors"

	"github.com/gogpu/clipmap/texture"
)

// Common backend errors.
var (
	// ErrBackendNotAvailable is returned when a requested backend is not
	// registered or failed to open.
	ErrBackendNotAvailable = errors.New("backend: not available")
)

// Backend name constants.
const (
	// BackendSoftware is the name of the CPU texture backend.
	BackendSoftware = "soft"
	// BackendWGPU is the name of the Pure Go GPU backend (gogpu/wgpu).
	BackendWGPU = "wgpu"
	// BackendOpenGL is the name of the OpenGL 4.1 backend. It needs a
	// current GL context on the calling thread.
	BackendOpenGL = "opengl"
)

// Opener opens a texture factory. The returned release function frees
// the device behind the factory; it is never nil on success.
type Opener func() (factory texture.Factory, release func(), err error)

// Backend is an opened texture backend.
type Backend struct {
	Name    string
	Factory texture.Factory

	release func()
}

// Close releases the device behind the factory. Textures created by the
// factory must be destroyed first.
func (b *Backend) Close() {
	if b.release != nil {
		b.release()
		b.release = nil
	}
}
