// Copyright 2025 The tch-go Authors. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package tensor

import "github.com/nilslice/tch-go/internal/tensor"

// Backend is the interface every compute engine implements. Tensor
// methods delegate to it, so the backend decides where and how the
// arithmetic runs.
//
// Implementations:
//   - backend/cpu: pure Go, chunked across worker goroutines
//   - backend/webgpu: WGSL compute shaders with a CPU fallback
//
// Decorator backends add behavior on top of a base engine:
//   - autodiff: records every operation on a gradient tape
//
// The interface covers element-wise arithmetic, scalar forms, matrix
// multiplication, the activation and softmax family, reductions,
// shape manipulation, gather and casts. Backends panic on shape or
// kind violations; those are programmer errors, not runtime
// conditions.
//
// Example:
//
//	backend := cpu.New()
//	x := tensor.Zeros[float32](tensor.Shape{2, 3}, backend)
//	y := tensor.Ones[float32](tensor.Shape{2, 3}, backend)
//	z := x.Add(y) // calls backend.Add under the hood
type Backend = tensor.Backend

// MockBackend is a slow, obviously-correct reference backend used in
// tests to cross-check the real engines.
type MockBackend = tensor.MockBackend

// NewMockBackend returns the reference backend.
func NewMockBackend() *MockBackend {
	return tensor.NewMockBackend()
}
