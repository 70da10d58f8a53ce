// Copyright 2025 The tch-go Authors. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package tensor

import (
	"github.com/nilslice/tch-go/internal/tensor"
)

// Type aliases for the public API.

// DType is the compile-time constraint for tensor element types.
// Supported types: float32, float64, int32, int64.
type DType = tensor.DType

// Kind is the runtime element type of a tensor.
type Kind = tensor.Kind

// Element kind constants.
const (
	Float  Kind = tensor.Float  // float32
	Double Kind = tensor.Double // float64
	Int    Kind = tensor.Int    // int32
	Int64  Kind = tensor.Int64  // int64
)

// KindFromString parses the names produced by Kind.String, such as
// "float32". The second result reports whether the name was known.
func KindFromString(s string) (Kind, bool) {
	return tensor.KindFromString(s)
}

// Device identifies where a tensor's buffer lives and which engine
// owns it.
type Device = tensor.Device

// Device constants.
const (
	CPU    Device = tensor.CPU
	WebGPU Device = tensor.WebGPU
)

// Shape represents the dimensions of a tensor.
// Example: Shape{2, 3, 4} is a 3-D tensor with dimensions 2x3x4.
type Shape = tensor.Shape

// Tensor is a generic type-safe tensor.
//
// T is the element type (float32, float64, int32, int64) and B the
// backend the tensor computes on. Operations are methods that call the
// backend, so the same model code runs on the CPU, on WebGPU, or under
// an autodiff decorator.
//
// Example:
//
//	backend := cpu.New()
//	x := tensor.Zeros[float32](tensor.Shape{2, 3}, backend)
//	y := tensor.Ones[float32](tensor.Shape{2, 3}, backend)
//	z := x.Add(y)
type Tensor[T DType, B Backend] = tensor.Tensor[T, B]

// Creation functions.

// Zeros creates a tensor filled with zeros.
func Zeros[T DType, B Backend](shape Shape, b B) *Tensor[T, B] {
	return tensor.Zeros[T, B](shape, b)
}

// Ones creates a tensor filled with ones.
func Ones[T DType, B Backend](shape Shape, b B) *Tensor[T, B] {
	return tensor.Ones[T, B](shape, b)
}

// Full creates a tensor filled with value.
func Full[T DType, B Backend](shape Shape, value T, b B) *Tensor[T, B] {
	return tensor.Full[T, B](shape, value, b)
}

// Randn creates a tensor with samples from the standard normal
// distribution N(0, 1).
func Randn[T DType, B Backend](shape Shape, b B) *Tensor[T, B] {
	return tensor.Randn[T, B](shape, b)
}

// Rand creates a tensor with samples from the uniform distribution
// U(0, 1).
func Rand[T DType, B Backend](shape Shape, b B) *Tensor[T, B] {
	return tensor.Rand[T, B](shape, b)
}

// Arange creates a 1-D tensor with values from start to end, exclusive.
//
//	x := tensor.Arange[float32](0, 10, backend) // [0, 1, ..., 9]
func Arange[T DType, B Backend](start, end T, b B) *Tensor[T, B] {
	return tensor.Arange[T, B](start, end, b)
}

// Eye creates an n-by-n identity matrix.
func Eye[T DType, B Backend](n int, b B) *Tensor[T, B] {
	return tensor.Eye[T, B](n, b)
}

// FromSlice creates a tensor holding a copy of data.
//
//	data := []float32{1, 2, 3, 4, 5, 6}
//	x, err := tensor.FromSlice(data, tensor.Shape{2, 3}, backend)
func FromSlice[T DType, B Backend](data []T, shape Shape, b B) (*Tensor[T, B], error) {
	return tensor.FromSlice[T, B](data, shape, b)
}

// New wraps a raw tensor in the typed API.
//
// This is a low-level function. Most users should use creation
// functions like Zeros, Ones, or FromSlice instead.
func New[T DType, B Backend](raw *RawTensor, b B) *Tensor[T, B] {
	return tensor.New[T, B](raw, b)
}

// NewRaw allocates a raw tensor with the given shape, kind and device.
//
// This is a low-level function. Most users should use the typed
// creation functions instead.
func NewRaw(shape Shape, kind Kind, device Device) (*RawTensor, error) {
	return tensor.NewRaw(shape, kind, device)
}

// ManualSeed seeds the generator behind Randn and Rand, making tensor
// initialization reproducible.
func ManualSeed(seed int64) {
	tensor.ManualSeed(seed)
}

// Utility functions.

// BroadcastShapes computes the broadcast shape of a and b following
// NumPy rules. The bool reports whether a needs broadcasting to reach
// the result.
func BroadcastShapes(a, b Shape) (Shape, bool, error) {
	return tensor.BroadcastShapes(a, b)
}
