//go:build !nogpu

package main

// Register the Vulkan HAL backend for -backend wgpu.
import _ "github.com/gogpu/wgpu/hal/vulkan"
