// Copyright 2025 The tch-go Authors. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package tensor

import (
	"github.com/nilslice/tch-go/internal/tensor"
)

// RawTensor is the untyped tensor representation backends and the
// serialization layer work with.
//
// RawTensor provides:
//   - Shape, Kind and Device metadata
//   - Typed views of the buffer via AsFloat32, AsInt64, and View
//   - Reference-counted sharing via Clone and Release
//
// Most users should use the high-level Tensor[T, B] type instead.
//
// Example:
//
//	raw, _ := tensor.NewRaw(tensor.Shape{2, 3}, tensor.Float, tensor.CPU)
//	data := raw.AsFloat32() // typed access to the buffer
//	clone := raw.Clone()    // shares the buffer, bumps the refcount
type RawTensor = tensor.RawTensor

// MustRaw is NewRaw for shapes known to be valid; it panics on error.
func MustRaw(shape Shape, kind Kind, device Device) *RawTensor {
	return tensor.MustRaw(shape, kind, device)
}

// View reinterprets the raw buffer as a slice of T. T must match the
// tensor's Kind.
func View[T DType](r *RawTensor) []T {
	return tensor.View[T](r)
}
