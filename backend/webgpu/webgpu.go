// Copyright 2025 The tch-go Authors. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package webgpu provides the GPU backend for tensor operations.
//
// The backend compiles the hot training kernels to WGSL compute
// shaders and delegates everything else to a CPU engine, so it
// implements the full Backend interface wherever a WebGPU runtime is
// present (Vulkan, Metal or D3D12 under the hood).
//
// Example:
//
//	import (
//	    "github.com/nilslice/tch-go/autodiff"
//	    "github.com/nilslice/tch-go/backend/webgpu"
//	    "github.com/nilslice/tch-go/tensor"
//	)
//
//	func main() {
//	    gpu, err := webgpu.New()
//	    if err != nil {
//	        log.Fatal(err)
//	    }
//	    defer gpu.Release()
//
//	    backend := autodiff.New(gpu)
//	    x := tensor.Randn[float32](tensor.Shape{1024, 1024}, backend)
//	}
package webgpu

import (
	internalwebgpu "github.com/nilslice/tch-go/internal/backend/webgpu"
	"github.com/nilslice/tch-go/tensor"
)

// Backend is the WebGPU backend implementation.
type Backend = internalwebgpu.Backend

// Compile-time check that Backend implements tensor.Backend.
var _ tensor.Backend = (*Backend)(nil)

// New acquires a GPU adapter and device and returns a backend ready
// for tensor operations. Call Release when done to free the GPU
// resources.
//
// New returns an error when no compatible adapter is present or the
// native WebGPU runtime cannot be loaded.
func New() (*Backend, error) {
	return internalwebgpu.New()
}

// MustNew is New for programs that cannot run without the GPU; it
// panics on error.
func MustNew() *Backend {
	return internalwebgpu.MustNew()
}

// Available reports whether a WebGPU adapter can be acquired on this
// system. It is the probe for graceful CPU fallback:
//
//	if webgpu.Available() {
//	    gpu, _ := webgpu.New()
//	    backend = autodiff.New(gpu)
//	} else {
//	    backend = autodiff.New(cpu.New())
//	}
func Available() bool {
	return internalwebgpu.Available()
}
