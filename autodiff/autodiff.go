// Copyright 2025 The tch-go Authors. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package autodiff provides reverse-mode automatic differentiation.
//
// The package wraps any backend in a decorator that records every
// operation on a gradient tape; Backward replays the tape in reverse
// to produce gradients for the tensors that require them.
//
// Example:
//
//	import (
//	    "github.com/nilslice/tch-go/autodiff"
//	    "github.com/nilslice/tch-go/backend/cpu"
//	    "github.com/nilslice/tch-go/tensor"
//	)
//
//	func main() {
//	    backend := autodiff.New(cpu.New())
//
//	    x := tensor.Randn[float32](tensor.Shape{2, 3}, backend).RequireGrad()
//	    loss := x.Mul(x).Sum()
//
//	    grads := autodiff.Backward(loss, backend)
//	    dx, _ := autodiff.Grad(grads, x)
//	    _ = dx
//	}
package autodiff

import (
	"github.com/nilslice/tch-go/internal/autodiff"
	"github.com/nilslice/tch-go/internal/tensor"
)

// Backend decorates an inner backend with gradient recording. It
// implements tensor.Backend itself, so tensors are created on it
// directly.
type Backend[B tensor.Backend] = autodiff.Backend[B]

// New wraps backend with a fresh gradient tape.
//
//	backend := autodiff.New(cpu.New())
func New[B tensor.Backend](backend B) *Backend[B] {
	return autodiff.New(backend)
}

// GradientTape records operations for reverse-mode differentiation.
type GradientTape = autodiff.GradientTape

// NewGradientTape creates an empty tape. Backends made with New carry
// their own tape; this is for tests and custom decorators.
func NewGradientTape() *GradientTape {
	return autodiff.NewGradientTape()
}

// BackwardCapable is the constraint for backends that can run
// backpropagation, satisfied by *Backend[B].
type BackwardCapable = autodiff.BackwardCapable

// Backward seeds t with a gradient of ones and walks the tape in
// reverse, returning the gradient of every tensor that required one,
// keyed by its raw handle.
func Backward[T tensor.DType, B BackwardCapable](t *tensor.Tensor[T, B], backend B) map[*tensor.RawTensor]*tensor.RawTensor {
	return autodiff.Backward(t, backend)
}

// Grad looks up the gradient Backward computed for t. The bool
// reports whether one was found.
func Grad[T tensor.DType, B tensor.Backend](grads map[*tensor.RawTensor]*tensor.RawTensor, t *tensor.Tensor[T, B]) (*tensor.Tensor[T, B], bool) {
	return autodiff.Grad(grads, t)
}

// NoGrad runs fn with recording paused. Use it for evaluation and
// rollout passes that must not grow the tape.
func NoGrad[B BackwardCapable](backend B, fn func()) {
	autodiff.NoGrad(backend, fn)
}
