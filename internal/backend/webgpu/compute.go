package webgpu

import (
	"encoding/binary"
	"fmt"
	"math"

	"github.com/cogentcore/webgpu/wgpu"

	"github.com/nilslice/tch-go/internal/tensor"
)

// shaderModule returns the cached module for name, compiling code on
// first use.
func (b *Backend) shaderModule(name, code string) (*wgpu.ShaderModule, error) {
	b.mu.RLock()
	module, ok := b.shaders[name]
	b.mu.RUnlock()
	if ok {
		return module, nil
	}

	module, err := b.device.CreateShaderModule(&wgpu.ShaderModuleDescriptor{
		Label:          name,
		WGSLDescriptor: &wgpu.ShaderModuleWGSLDescriptor{Code: code},
	})
	if err != nil {
		return nil, fmt.Errorf("compile shader %s: %w", name, err)
	}

	b.mu.Lock()
	if cached, ok := b.shaders[name]; ok {
		// Another goroutine compiled it first.
		b.mu.Unlock()
		module.Release()
		return cached, nil
	}
	b.shaders[name] = module
	b.mu.Unlock()
	return module, nil
}

// pipeline returns the cached compute pipeline for name, creating it
// with an auto bind group layout on first use.
func (b *Backend) pipeline(name, code string) (*wgpu.ComputePipeline, error) {
	b.mu.RLock()
	p, ok := b.pipelines[name]
	b.mu.RUnlock()
	if ok {
		return p, nil
	}

	module, err := b.shaderModule(name, code)
	if err != nil {
		return nil, err
	}

	p, err = b.device.CreateComputePipeline(&wgpu.ComputePipelineDescriptor{
		Label: name,
		Compute: wgpu.ProgrammableStageDescriptor{
			Module:     module,
			EntryPoint: "main",
		},
	})
	if err != nil {
		return nil, fmt.Errorf("create pipeline %s: %w", name, err)
	}

	b.mu.Lock()
	if cached, ok := b.pipelines[name]; ok {
		b.mu.Unlock()
		p.Release()
		return cached, nil
	}
	b.pipelines[name] = p
	b.mu.Unlock()
	return p, nil
}

// upload copies a tensor's bytes into a fresh storage buffer.
func (b *Backend) upload(label string, x *tensor.RawTensor) (*wgpu.Buffer, error) {
	buf, err := b.device.CreateBufferInit(&wgpu.BufferInitDescriptor{
		Label:    label,
		Contents: x.Data()[:x.ByteSize()],
		Usage:    wgpu.BufferUsageStorage | wgpu.BufferUsageCopySrc,
	})
	if err != nil {
		return nil, fmt.Errorf("upload %s: %w", label, err)
	}
	return buf, nil
}

// outputBuffer allocates the zeroed storage buffer a kernel writes to.
func (b *Backend) outputBuffer(label string, size uint64) (*wgpu.Buffer, error) {
	buf, err := b.device.CreateBuffer(&wgpu.BufferDescriptor{
		Label: label,
		Size:  size,
		Usage: wgpu.BufferUsageStorage | wgpu.BufferUsageCopySrc,
	})
	if err != nil {
		return nil, fmt.Errorf("allocate %s: %w", label, err)
	}
	return buf, nil
}

// uniformSize is the byte size every Params buffer is padded to.
// Uniform bindings require 16-byte alignment.
const uniformSize = 16

// uniformBuffer packs params into a padded uniform buffer.
func (b *Backend) uniformBuffer(params []byte) (*wgpu.Buffer, error) {
	padded := make([]byte, uniformSize)
	copy(padded, params)
	buf, err := b.device.CreateBufferInit(&wgpu.BufferInitDescriptor{
		Label:    "params",
		Contents: padded,
		Usage:    wgpu.BufferUsageUniform,
	})
	if err != nil {
		return nil, fmt.Errorf("create params buffer: %w", err)
	}
	return buf, nil
}

// dispatch binds the entries, runs one compute pass over the workgroup
// grid and submits it to the queue.
func (b *Backend) dispatch(p *wgpu.ComputePipeline, groupsX, groupsY uint32, entries []wgpu.BindGroupEntry) error {
	layout := p.GetBindGroupLayout(0)
	defer layout.Release()

	group, err := b.device.CreateBindGroup(&wgpu.BindGroupDescriptor{
		Layout:  layout,
		Entries: entries,
	})
	if err != nil {
		return fmt.Errorf("create bind group: %w", err)
	}
	defer group.Release()

	encoder, err := b.device.CreateCommandEncoder(nil)
	if err != nil {
		return fmt.Errorf("create command encoder: %w", err)
	}

	pass := encoder.BeginComputePass(nil)
	pass.SetPipeline(p)
	pass.SetBindGroup(0, group, nil)
	pass.DispatchWorkgroups(groupsX, groupsY, 1)
	pass.End()

	cmd, err := encoder.Finish(nil)
	if err != nil {
		return fmt.Errorf("finish encoder: %w", err)
	}
	b.queue.Submit(cmd)
	return nil
}

// download copies size bytes from a storage buffer back to host memory
// through a staging buffer, blocking until the queue drains.
func (b *Backend) download(src *wgpu.Buffer, size uint64) ([]byte, error) {
	staging, err := b.device.CreateBuffer(&wgpu.BufferDescriptor{
		Label: "staging",
		Size:  size,
		Usage: wgpu.BufferUsageMapRead | wgpu.BufferUsageCopyDst,
	})
	if err != nil {
		return nil, fmt.Errorf("create staging buffer: %w", err)
	}
	defer staging.Release()

	encoder, err := b.device.CreateCommandEncoder(nil)
	if err != nil {
		return nil, fmt.Errorf("create command encoder: %w", err)
	}
	if err := encoder.CopyBufferToBuffer(src, 0, staging, 0, size); err != nil {
		return nil, fmt.Errorf("copy to staging: %w", err)
	}
	cmd, err := encoder.Finish(nil)
	if err != nil {
		return nil, fmt.Errorf("finish encoder: %w", err)
	}
	b.queue.Submit(cmd)

	var status wgpu.BufferMapAsyncStatus
	err = staging.MapAsync(wgpu.MapModeRead, 0, size, func(s wgpu.BufferMapAsyncStatus) {
		status = s
	})
	if err != nil {
		return nil, fmt.Errorf("map staging buffer: %w", err)
	}
	b.device.Poll(true, nil)
	if status != wgpu.BufferMapAsyncStatusSuccess {
		return nil, fmt.Errorf("map staging buffer: status %v", status)
	}

	out := make([]byte, size)
	copy(out, staging.GetMappedRange(0, uint(size)))
	staging.Unmap()
	return out, nil
}

// runBinary executes an elementwise two-operand kernel and wraps the
// result in a new host tensor.
func (b *Backend) runBinary(name, code string, x, y *tensor.RawTensor) (*tensor.RawTensor, error) {
	pipe, err := b.pipeline(name, code)
	if err != nil {
		return nil, err
	}

	bufX, err := b.upload(name+"/x", x)
	if err != nil {
		return nil, err
	}
	defer bufX.Release()

	bufY, err := b.upload(name+"/y", y)
	if err != nil {
		return nil, err
	}
	defer bufY.Release()

	size := uint64(x.ByteSize()) //nolint:gosec // ByteSize is non-negative
	out, err := b.outputBuffer(name+"/out", size)
	if err != nil {
		return nil, err
	}
	defer out.Release()

	params := make([]byte, 4)
	binary.LittleEndian.PutUint32(params, uint32(x.NumElements())) //nolint:gosec // NumElements is non-negative
	bufParams, err := b.uniformBuffer(params)
	if err != nil {
		return nil, err
	}
	defer bufParams.Release()

	groups := uint32((x.NumElements() + workgroupSize - 1) / workgroupSize) //nolint:gosec // group count is non-negative
	err = b.dispatch(pipe, groups, 1, []wgpu.BindGroupEntry{
		{Binding: 0, Buffer: bufX, Size: size},
		{Binding: 1, Buffer: bufY, Size: size},
		{Binding: 2, Buffer: out, Size: size},
		{Binding: 3, Buffer: bufParams, Size: uniformSize},
	})
	if err != nil {
		return nil, err
	}

	data, err := b.download(out, size)
	if err != nil {
		return nil, err
	}

	result := tensor.MustRaw(x.Shape(), x.Kind(), tensor.WebGPU)
	copy(result.Data(), data)
	return result, nil
}

// runUnary executes a one-operand elementwise kernel.
func (b *Backend) runUnary(name, code string, x *tensor.RawTensor) (*tensor.RawTensor, error) {
	pipe, err := b.pipeline(name, code)
	if err != nil {
		return nil, err
	}

	bufX, err := b.upload(name+"/x", x)
	if err != nil {
		return nil, err
	}
	defer bufX.Release()

	size := uint64(x.ByteSize()) //nolint:gosec // ByteSize is non-negative
	out, err := b.outputBuffer(name+"/out", size)
	if err != nil {
		return nil, err
	}
	defer out.Release()

	params := make([]byte, 4)
	binary.LittleEndian.PutUint32(params, uint32(x.NumElements())) //nolint:gosec // NumElements is non-negative
	bufParams, err := b.uniformBuffer(params)
	if err != nil {
		return nil, err
	}
	defer bufParams.Release()

	groups := uint32((x.NumElements() + workgroupSize - 1) / workgroupSize) //nolint:gosec // group count is non-negative
	err = b.dispatch(pipe, groups, 1, []wgpu.BindGroupEntry{
		{Binding: 0, Buffer: bufX, Size: size},
		{Binding: 1, Buffer: out, Size: size},
		{Binding: 2, Buffer: bufParams, Size: uniformSize},
	})
	if err != nil {
		return nil, err
	}

	data, err := b.download(out, size)
	if err != nil {
		return nil, err
	}

	result := tensor.MustRaw(x.Shape(), x.Kind(), tensor.WebGPU)
	copy(result.Data(), data)
	return result, nil
}

// runScale executes the scale kernel: out = x * scalar.
func (b *Backend) runScale(x *tensor.RawTensor, scalar float32) (*tensor.RawTensor, error) {
	pipe, err := b.pipeline("scale", scaleShader)
	if err != nil {
		return nil, err
	}

	bufX, err := b.upload("scale/x", x)
	if err != nil {
		return nil, err
	}
	defer bufX.Release()

	size := uint64(x.ByteSize()) //nolint:gosec // ByteSize is non-negative
	out, err := b.outputBuffer("scale/out", size)
	if err != nil {
		return nil, err
	}
	defer out.Release()

	params := make([]byte, 8)
	binary.LittleEndian.PutUint32(params[0:4], uint32(x.NumElements())) //nolint:gosec // NumElements is non-negative
	binary.LittleEndian.PutUint32(params[4:8], math.Float32bits(scalar))
	bufParams, err := b.uniformBuffer(params)
	if err != nil {
		return nil, err
	}
	defer bufParams.Release()

	groups := uint32((x.NumElements() + workgroupSize - 1) / workgroupSize) //nolint:gosec // group count is non-negative
	err = b.dispatch(pipe, groups, 1, []wgpu.BindGroupEntry{
		{Binding: 0, Buffer: bufX, Size: size},
		{Binding: 1, Buffer: out, Size: size},
		{Binding: 2, Buffer: bufParams, Size: uniformSize},
	})
	if err != nil {
		return nil, err
	}

	data, err := b.download(out, size)
	if err != nil {
		return nil, err
	}

	result := tensor.MustRaw(x.Shape(), x.Kind(), tensor.WebGPU)
	copy(result.Data(), data)
	return result, nil
}

// runMatMul executes C = A @ B for 2-D float32 operands.
func (b *Backend) runMatMul(x, y *tensor.RawTensor) (*tensor.RawTensor, error) {
	m, k, n := x.Shape()[0], x.Shape()[1], y.Shape()[1]

	pipe, err := b.pipeline("matmul", matmulShader)
	if err != nil {
		return nil, err
	}

	bufX, err := b.upload("matmul/a", x)
	if err != nil {
		return nil, err
	}
	defer bufX.Release()

	bufY, err := b.upload("matmul/b", y)
	if err != nil {
		return nil, err
	}
	defer bufY.Release()

	size := uint64(m*n) * uint64(tensor.Float.Size()) //nolint:gosec // dims are non-negative
	out, err := b.outputBuffer("matmul/out", size)
	if err != nil {
		return nil, err
	}
	defer out.Release()

	params := make([]byte, 12)
	binary.LittleEndian.PutUint32(params[0:4], uint32(m))  //nolint:gosec // dims are non-negative
	binary.LittleEndian.PutUint32(params[4:8], uint32(k))  //nolint:gosec // dims are non-negative
	binary.LittleEndian.PutUint32(params[8:12], uint32(n)) //nolint:gosec // dims are non-negative
	bufParams, err := b.uniformBuffer(params)
	if err != nil {
		return nil, err
	}
	defer bufParams.Release()

	groupsX := uint32((n + matmulTile - 1) / matmulTile) //nolint:gosec // group counts are non-negative
	groupsY := uint32((m + matmulTile - 1) / matmulTile) //nolint:gosec // group counts are non-negative
	err = b.dispatch(pipe, groupsX, groupsY, []wgpu.BindGroupEntry{
		{Binding: 0, Buffer: bufX, Size: uint64(x.ByteSize())}, //nolint:gosec // ByteSize is non-negative
		{Binding: 1, Buffer: bufY, Size: uint64(y.ByteSize())}, //nolint:gosec // ByteSize is non-negative
		{Binding: 2, Buffer: out, Size: size},
		{Binding: 3, Buffer: bufParams, Size: uniformSize},
	})
	if err != nil {
		return nil, err
	}

	data, err := b.download(out, size)
	if err != nil {
		return nil, err
	}

	result := tensor.MustRaw(tensor.Shape{m, n}, tensor.Float, tensor.WebGPU)
	copy(result.Data(), data)
	return result, nil
}
