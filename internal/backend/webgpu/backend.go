// Package webgpu implements the GPU compute backend on top of WebGPU,
// through the cogentcore/webgpu bindings to the native wgpu runtime.
//
// The hot training ops (elementwise add and mul, scalar scaling, matmul,
// ReLU) run as WGSL compute shaders; every other Backend operation is
// delegated to an embedded CPU engine so the full tensor interface works
// no matter which kernels have shaders. Tensor bytes live in host
// memory: each dispatch uploads its operands, runs the kernel and reads
// the result back.
package webgpu

import (
	"errors"
	"fmt"
	"sync"

	"github.com/cogentcore/webgpu/wgpu"

	"github.com/nilslice/tch-go/internal/backend/cpu"
	"github.com/nilslice/tch-go/internal/tensor"
)

// Backend executes tensor operations on a WebGPU device.
type Backend struct {
	instance *wgpu.Instance
	adapter  *wgpu.Adapter
	device   *wgpu.Device
	queue    *wgpu.Queue

	adapterInfo wgpu.AdapterInfo

	// Compiled shader modules and pipelines, keyed by kernel name.
	mu        sync.RWMutex
	shaders   map[string]*wgpu.ShaderModule
	pipelines map[string]*wgpu.ComputePipeline

	// fallback covers the ops without a WGSL kernel. It stamps results
	// with the WebGPU device tag so delegation is invisible to callers.
	fallback *cpu.Backend
}

// New acquires a WebGPU instance, adapter, device and queue and returns
// a ready backend. It fails with a descriptive error when no native
// wgpu runtime or no adapter is present; callers either treat that as
// fatal at startup or fall back to the CPU backend.
func New() (backend *Backend, err error) {
	// A missing native library surfaces as a panic inside
	// CreateInstance rather than an error.
	defer func() {
		if r := recover(); r != nil {
			backend = nil
			err = fmt.Errorf("webgpu: native runtime not available: %v", r)
		}
	}()

	instance := wgpu.CreateInstance(nil)

	adapter, err := instance.RequestAdapter(&wgpu.RequestAdapterOptions{
		PowerPreference: wgpu.PowerPreferenceHighPerformance,
	})
	if err != nil {
		instance.Release()
		return nil, fmt.Errorf("webgpu: request adapter: %w", err)
	}
	info := adapter.GetInfo()

	device, err := adapter.RequestDevice(nil)
	if err != nil {
		adapter.Release()
		instance.Release()
		return nil, fmt.Errorf("webgpu: request device: %w", err)
	}

	queue := device.GetQueue()
	if queue == nil {
		device.Release()
		adapter.Release()
		instance.Release()
		return nil, errors.New("webgpu: device has no queue")
	}

	return &Backend{
		instance:    instance,
		adapter:     adapter,
		device:      device,
		queue:       queue,
		adapterInfo: info,
		shaders:     make(map[string]*wgpu.ShaderModule),
		pipelines:   make(map[string]*wgpu.ComputePipeline),
		fallback:    cpu.NewFor(tensor.WebGPU),
	}, nil
}

// MustNew returns a WebGPU backend or panics. Startup paths that treat
// a missing GPU as fatal use it; everything else should call New and
// handle the error.
func MustNew() *Backend {
	b, err := New()
	if err != nil {
		panic(err)
	}
	return b
}

// Available reports whether a WebGPU adapter can be acquired on this
// system. It constructs and releases a probe instance, so call it once
// at startup rather than per operation.
func Available() (available bool) {
	defer func() {
		if r := recover(); r != nil {
			available = false
		}
	}()

	instance := wgpu.CreateInstance(nil)
	defer instance.Release()

	adapter, err := instance.RequestAdapter(nil)
	if err != nil {
		return false
	}
	adapter.Release()

	return true
}

// Release frees the shader and pipeline caches and every WebGPU object.
// The backend must not be used afterwards.
func (b *Backend) Release() {
	b.mu.Lock()
	defer b.mu.Unlock()

	for _, p := range b.pipelines {
		p.Release()
	}
	b.pipelines = nil

	for _, s := range b.shaders {
		s.Release()
	}
	b.shaders = nil

	if b.queue != nil {
		b.queue.Release()
		b.queue = nil
	}
	if b.device != nil {
		b.device.Release()
		b.device = nil
	}
	if b.adapter != nil {
		b.adapter.Release()
		b.adapter = nil
	}
	if b.instance != nil {
		b.instance.Release()
		b.instance = nil
	}
}

// Name identifies the backend and adapter in logs and checkpoint
// metadata.
func (b *Backend) Name() string {
	if b.adapterInfo.Name != "" {
		return fmt.Sprintf("webgpu (%s)", b.adapterInfo.Name)
	}
	return "webgpu"
}

// Device returns the device tag stamped on tensors this backend creates.
func (b *Backend) Device() tensor.Device { return tensor.WebGPU }

// AdapterInfo describes the GPU the backend is running on.
func (b *Backend) AdapterInfo() wgpu.AdapterInfo { return b.adapterInfo }
