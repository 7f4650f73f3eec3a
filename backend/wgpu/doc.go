// Package wgpu is a texture backend on the gogpu/wgpu hardware abstraction
// layer.
//
// Atlases are 2D textures with TextureBinding and CopyDst usage. Region
// updates go through hal.Queue.WriteTexture with a tightly packed row
// layout, so no staging buffer alignment is involved.
//
// A Factory either opens its own device:
//
//	f, err := wgpu.Open(gputypes.BackendVulkan)
//	if err != nil {
//		return err
//	}
//	defer f.Close()
//
// or shares the device of a host application through FromProvider, which
// accepts anything exposing HalDevice() and HalQueue().
package wgpu
