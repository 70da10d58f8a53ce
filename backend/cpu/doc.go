// Copyright 2025 The tch-go Authors. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package cpu provides the pure Go CPU backend for tensor operations.
//
// # Overview
//
// This package implements a CPU backend with:
//   - Pure Go implementation (no CGO)
//   - Worker-pool parallelism for matmul and large element-wise loops
//   - In-place updates on uniquely-held buffers
//   - NumPy-compatible broadcasting
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
//	    x := tensor.Zeros[float32](tensor.Shape{2, 3}, backend)
//	    y := tensor.Ones[float32](tensor.Shape{2, 3}, backend)
//	    z := x.Add(y)
//	}
//
// # Performance
//
// Element-wise kernels run serially below a size threshold and chunk
// across all cores above it. MatMul parallelizes over output rows.
// When an operand's buffer is not shared, binary kernels write the
// result into it instead of allocating.
//
// # Thread Safety
//
// The backend itself holds no mutable state and is safe for
// concurrent use. Concurrent operations on the same tensor are not
// synchronized; that is the caller's responsibility.
package cpu
