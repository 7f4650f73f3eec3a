// Package backend is the registry of texture backends.
//
// Each backend package registers an Opener from its init function, so a
// program selects backends by importing them:
//
//	import (
//		"github.com/gogpu/clipmap/backend"
//		_ "github.com/gogpu/clipmap/backend/soft"
//		_ "github.com/gogpu/clipmap/backend/wgpu"
//	)
//
//	b, err := backend.Open("wgpu") // or backend.Default()
//	if err != nil {
//		log.Fatal(err)
//	}
//	defer b.Close()
//
//	e, err := clipmap.Open(cfg, b.Factory)
//
// # Available Backends
//
//   - "soft": textures in system memory (always available)
//   - "wgpu": Pure Go WebGPU HAL textures (gogpu/wgpu); the HAL backend
//     itself, such as hal/vulkan, must be imported too
//   - "opengl": OpenGL 4.1 core textures; opens only on a thread with a
//     current context
package backend
