package wgpu

import (
	"errors"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"
)

// Errors returned when acquiring a device.
var (
	// ErrNoBackend is returned when the requested HAL backend is not
	// compiled in.
	ErrNoBackend = errors.New("wgpu: backend not available")

	// ErrNoAdapter is returned when the instance reports no adapters.
	ErrNoAdapter = errors.New("wgpu: no GPU adapters found")

	// ErrNoHAL is returned by FromProvider for providers that do not
	// expose HAL types.
	ErrNoHAL = errors.New("wgpu: provider does not expose HAL types")
)

// GPUInfo describes the adapter a Factory opened.
type GPUInfo struct {
	Name       string
	DeviceType gputypes.DeviceType
}

func (g GPUInfo) String() string {
	return fmt.Sprintf("%s (%v)", g.Name, g.DeviceType)
}

// Factory creates atlas textures on one HAL device. It is safe for
// concurrent use.
type Factory struct {
	device hal.Device
	queue  hal.Queue
	info   GPUInfo

	// instance is set when the Factory opened the device itself.
	instance  hal.Instance
	closeOnce sync.Once

	created   atomic.Int64
	destroyed atomic.Int64
	uploads   atomic.Int64
	bytes     atomic.Int64
}

// NewFactory wraps an existing device and queue. Close does not destroy
// them.
func NewFactory(device hal.Device, queue hal.Queue) *Factory {
	return &Factory{device: device, queue: queue}
}

// FromProvider shares the device of a host application. The provider must
// implement HalDevice() any and HalQueue() any returning hal.Device and
// hal.Queue.
func FromProvider(provider any) (*Factory, error) {
	type halProvider interface {
		HalDevice() any
		HalQueue() any
	}
	hp, ok := provider.(halProvider)
	if !ok {
		return nil, ErrNoHAL
	}
	device, ok := hp.HalDevice().(hal.Device)
	if !ok || device == nil {
		return nil, fmt.Errorf("%w: HalDevice is not hal.Device", ErrNoHAL)
	}
	queue, ok := hp.HalQueue().(hal.Queue)
	if !ok || queue == nil {
		return nil, fmt.Errorf("%w: HalQueue is not hal.Queue", ErrNoHAL)
	}
	return NewFactory(device, queue), nil
}

// Open creates a standalone device on the given backend, preferring a
// discrete or integrated GPU over software adapters.
func Open(kind gputypes.Backend) (*Factory, error) {
	backend, ok := hal.GetBackend(kind)
	if !ok {
		return nil, fmt.Errorf("%w: %v", ErrNoBackend, kind)
	}
	instance, err := backend.CreateInstance(&hal.InstanceDescriptor{Flags: 0})
	if err != nil {
		return nil, fmt.Errorf("wgpu: create instance: %w", err)
	}

	adapters := instance.EnumerateAdapters(nil)
	if len(adapters) == 0 {
		instance.Destroy()
		return nil, ErrNoAdapter
	}
	selected := &adapters[0]
	for i := range adapters {
		if adapters[i].Info.DeviceType == gputypes.DeviceTypeDiscreteGPU ||
			adapters[i].Info.DeviceType == gputypes.DeviceTypeIntegratedGPU {
			selected = &adapters[i]
			break
		}
	}

	openDev, err := selected.Adapter.Open(gputypes.Features(0), gputypes.DefaultLimits())
	if err != nil {
		instance.Destroy()
		return nil, fmt.Errorf("wgpu: open device: %w", err)
	}
	f := NewFactory(openDev.Device, openDev.Queue)
	f.instance = instance
	f.info = GPUInfo{Name: selected.Info.Name, DeviceType: selected.Info.DeviceType}
	return f, nil
}

// Info returns the adapter description. It is zero for factories that
// wrap a foreign device.
func (f *Factory) Info() GPUInfo { return f.info }

// Device returns the HAL device textures are created on.
func (f *Factory) Device() hal.Device { return f.device }

// Live returns the number of textures created and not yet destroyed.
func (f *Factory) Live() int64 { return f.created.Load() - f.destroyed.Load() }

// Uploads returns the number of region writes and the bytes they carried.
func (f *Factory) Uploads() (count, bytes int64) {
	return f.uploads.Load(), f.bytes.Load()
}

// Close destroys the device and instance if the Factory opened them.
// Textures must be destroyed first.
func (f *Factory) Close() {
	f.closeOnce.Do(func() {
		if f.instance == nil {
			return
		}
		f.device.Destroy()
		f.instance.Destroy()
	})
}
