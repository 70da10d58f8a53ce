// Copyright 2025 The tch-go Authors. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package tensor provides type-safe tensor operations for tch-go.
//
// # Overview
//
// Tensors are the fundamental data structure of the library. This
// package provides:
//   - Generic type-safe tensors (Tensor[T, B])
//   - NumPy-style broadcasting on element-wise operations
//   - Reference-counted buffers with copy-on-write updates
//   - Device abstraction (CPU, WebGPU)
//
// # Basic Usage
//
//	import (
//	    "github.com/nilslice/tch-go/backend/cpu"
//	    "github.com/nilslice/tch-go/tensor"
//	)
//
//	func main() {
//	    backend := cpu.New()
//
//	    // Create tensors
//	    x := tensor.Zeros[float32](tensor.Shape{2, 3}, backend)
//	    y := tensor.Ones[float32](tensor.Shape{2, 3}, backend)
//
//	    // Tensor operations
//	    z := x.Add(y)
//	    result := x.MatMul(y.Transpose())
//	}
//
// # Supported Data Types
//
// The DType constraint admits float32, float64, int32 and int64. The
// runtime Kind of a tensor mirrors the compile-time type: Float is the
// training dtype, Double covers high-precision accumulation, Int and
// Int64 carry indices and labels.
//
// # Device Support
//
//	CPU     Pure Go, always available.
//	WebGPU  GPU compute via WGSL shaders, when a native runtime is present.
//
// # Broadcasting
//
// Element-wise operations follow NumPy broadcasting rules:
//
//	a := tensor.Zeros[float32](tensor.Shape{3, 1}, backend) // (3, 1)
//	b := tensor.Ones[float32](tensor.Shape{3, 4}, backend)  // (3, 4)
//	c := a.Add(b)                                           // (3, 4)
//
// # Memory Management
//
// Buffers are reference-counted. Clone shares the buffer and bumps the
// count; backends may update a uniquely-held operand in place instead
// of allocating. Release drops a reference when a tensor is no longer
// needed, though leaving cleanup to the garbage collector is also fine.
//
// # Gradients
//
// Tensors created on an autodiff backend record their operations on a
// gradient tape. See the autodiff package for Backward and NoGrad.
package tensor
