// Package autodiff provides reverse-mode automatic differentiation by
// decorating a backend with a gradient tape. Every operation executes
// on the wrapped backend and is recorded so that Backward can replay
// the computation in reverse and produce gradients.
//
// While an operation runs, its inputs are pinned with ForceNonUnique so
// the wrapped backend never takes an in-place fast path. Tensors saved
// on the tape therefore keep the values the backward pass needs.
package autodiff

import (
	"github.com/nilslice/tch-go/internal/autodiff/ops"
	"github.com/nilslice/tch-go/internal/tensor"
)

// Backend wraps an inner backend and records differentiable operations
// on a gradient tape. It implements tensor.Backend, so a Tensor bound
// to it routes every operation through the tape.
type Backend[B tensor.Backend] struct {
	inner B
	tape  *GradientTape
}

var _ tensor.Backend = (*Backend[*tensor.MockBackend])(nil)

// New wraps inner with a fresh tape. Recording starts immediately.
func New[B tensor.Backend](inner B) *Backend[B] {
	tape := NewGradientTape()
	tape.StartRecording()
	return &Backend[B]{inner: inner, tape: tape}
}

// Inner returns the wrapped backend.
func (b *Backend[B]) Inner() B { return b.inner }

// GetTape returns the gradient tape shared by all operations on this
// backend.
func (b *Backend[B]) GetTape() *GradientTape { return b.tape }

// NoGrad runs fn with recording paused and restores the previous
// recording state afterwards. Use it for rollouts, metrics, and
// parameter updates that must not grow the tape.
func (b *Backend[B]) NoGrad(fn func()) {
	was := b.tape.IsRecording()
	b.tape.StopRecording()
	defer func() {
		if was {
			b.tape.StartRecording()
		}
	}()
	fn()
}

// Name returns the inner backend's name wrapped in autodiff().
func (b *Backend[B]) Name() string { return "autodiff(" + b.inner.Name() + ")" }

// Device returns the device of the wrapped backend.
func (b *Backend[B]) Device() tensor.Device { return b.inner.Device() }

// Add computes a + c and records the operation.
func (b *Backend[B]) Add(a, c *tensor.RawTensor) *tensor.RawTensor {
	defer a.ForceNonUnique()()
	defer c.ForceNonUnique()()

	result := b.inner.Add(a, c)
	if b.tape.IsRecording() {
		b.tape.Record(ops.NewAddOp(a, c, result))
	}
	return result
}

// Sub computes a - c and records the operation.
func (b *Backend[B]) Sub(a, c *tensor.RawTensor) *tensor.RawTensor {
	defer a.ForceNonUnique()()
	defer c.ForceNonUnique()()

	result := b.inner.Sub(a, c)
	if b.tape.IsRecording() {
		b.tape.Record(ops.NewSubOp(a, c, result))
	}
	return result
}

// Mul computes a * c elementwise and records the operation.
func (b *Backend[B]) Mul(a, c *tensor.RawTensor) *tensor.RawTensor {
	defer a.ForceNonUnique()()
	defer c.ForceNonUnique()()

	result := b.inner.Mul(a, c)
	if b.tape.IsRecording() {
		b.tape.Record(ops.NewMulOp(a, c, result))
	}
	return result
}

// Div computes a / c elementwise and records the operation.
func (b *Backend[B]) Div(a, c *tensor.RawTensor) *tensor.RawTensor {
	defer a.ForceNonUnique()()
	defer c.ForceNonUnique()()

	result := b.inner.Div(a, c)
	if b.tape.IsRecording() {
		b.tape.Record(ops.NewDivOp(a, c, result))
	}
	return result
}

// Neg computes -x and records the operation.
func (b *Backend[B]) Neg(x *tensor.RawTensor) *tensor.RawTensor {
	defer x.ForceNonUnique()()

	result := b.inner.Neg(x)
	if b.tape.IsRecording() {
		b.tape.Record(ops.NewNegOp(x, result))
	}
	return result
}

// AddScalar computes x + scalar and records the operation.
func (b *Backend[B]) AddScalar(x *tensor.RawTensor, scalar any) *tensor.RawTensor {
	defer x.ForceNonUnique()()

	result := b.inner.AddScalar(x, scalar)
	if b.tape.IsRecording() {
		b.tape.Record(ops.NewAddScalarOp(x, result))
	}
	return result
}

// SubScalar computes x - scalar and records the operation.
func (b *Backend[B]) SubScalar(x *tensor.RawTensor, scalar any) *tensor.RawTensor {
	defer x.ForceNonUnique()()

	result := b.inner.SubScalar(x, scalar)
	if b.tape.IsRecording() {
		b.tape.Record(ops.NewSubScalarOp(x, result))
	}
	return result
}

// MulScalar computes x * scalar and records the operation.
func (b *Backend[B]) MulScalar(x *tensor.RawTensor, scalar any) *tensor.RawTensor {
	defer x.ForceNonUnique()()

	result := b.inner.MulScalar(x, scalar)
	if b.tape.IsRecording() {
		b.tape.Record(ops.NewMulScalarOp(x, result, scalar))
	}
	return result
}

// DivScalar computes x / scalar and records the operation.
func (b *Backend[B]) DivScalar(x *tensor.RawTensor, scalar any) *tensor.RawTensor {
	defer x.ForceNonUnique()()

	result := b.inner.DivScalar(x, scalar)
	if b.tape.IsRecording() {
		b.tape.Record(ops.NewDivScalarOp(x, result, scalar))
	}
	return result
}

// MatMul computes the matrix product a @ c and records the operation.
func (b *Backend[B]) MatMul(a, c *tensor.RawTensor) *tensor.RawTensor {
	defer a.ForceNonUnique()()
	defer c.ForceNonUnique()()

	result := b.inner.MatMul(a, c)
	if b.tape.IsRecording() {
		b.tape.Record(ops.NewMatMulOp(a, c, result))
	}
	return result
}

// Exp computes e^x elementwise and records the operation.
func (b *Backend[B]) Exp(x *tensor.RawTensor) *tensor.RawTensor {
	defer x.ForceNonUnique()()

	result := b.inner.Exp(x)
	if b.tape.IsRecording() {
		b.tape.Record(ops.NewExpOp(x, result))
	}
	return result
}

// Log computes ln(x) elementwise and records the operation.
func (b *Backend[B]) Log(x *tensor.RawTensor) *tensor.RawTensor {
	defer x.ForceNonUnique()()

	result := b.inner.Log(x)
	if b.tape.IsRecording() {
		b.tape.Record(ops.NewLogOp(x, result))
	}
	return result
}

// Sqrt computes the elementwise square root and records the operation.
func (b *Backend[B]) Sqrt(x *tensor.RawTensor) *tensor.RawTensor {
	defer x.ForceNonUnique()()

	result := b.inner.Sqrt(x)
	if b.tape.IsRecording() {
		b.tape.Record(ops.NewSqrtOp(x, result))
	}
	return result
}

// Pow raises x to a fixed scalar power and records the operation.
func (b *Backend[B]) Pow(x *tensor.RawTensor, exponent float64) *tensor.RawTensor {
	defer x.ForceNonUnique()()

	result := b.inner.Pow(x, exponent)
	if b.tape.IsRecording() {
		b.tape.Record(ops.NewPowOp(x, result, exponent))
	}
	return result
}

// ReLU computes max(x, 0) and records the operation.
func (b *Backend[B]) ReLU(x *tensor.RawTensor) *tensor.RawTensor {
	defer x.ForceNonUnique()()

	result := b.inner.ReLU(x)
	if b.tape.IsRecording() {
		b.tape.Record(ops.NewReLUOp(x, result))
	}
	return result
}

// Sigmoid computes the logistic function and records the operation.
func (b *Backend[B]) Sigmoid(x *tensor.RawTensor) *tensor.RawTensor {
	defer x.ForceNonUnique()()

	result := b.inner.Sigmoid(x)
	if b.tape.IsRecording() {
		b.tape.Record(ops.NewSigmoidOp(x, result))
	}
	return result
}

// Tanh computes the hyperbolic tangent and records the operation.
func (b *Backend[B]) Tanh(x *tensor.RawTensor) *tensor.RawTensor {
	defer x.ForceNonUnique()()

	result := b.inner.Tanh(x)
	if b.tape.IsRecording() {
		b.tape.Record(ops.NewTanhOp(x, result))
	}
	return result
}

// Softmax normalizes x to probabilities along dim and records the
// operation.
func (b *Backend[B]) Softmax(x *tensor.RawTensor, dim int) *tensor.RawTensor {
	defer x.ForceNonUnique()()

	dim = tensor.NormalizeAxis(dim, x.Shape().Rank())
	result := b.inner.Softmax(x, dim)
	if b.tape.IsRecording() {
		b.tape.Record(ops.NewSoftmaxOp(x, result, dim))
	}
	return result
}

// LogSoftmax computes log(softmax(x)) along dim and records the
// operation.
func (b *Backend[B]) LogSoftmax(x *tensor.RawTensor, dim int) *tensor.RawTensor {
	defer x.ForceNonUnique()()

	dim = tensor.NormalizeAxis(dim, x.Shape().Rank())
	result := b.inner.LogSoftmax(x, dim)
	if b.tape.IsRecording() {
		b.tape.Record(ops.NewLogSoftmaxOp(x, result, dim))
	}
	return result
}

// Sum reduces x to a scalar and records the operation.
func (b *Backend[B]) Sum(x *tensor.RawTensor) *tensor.RawTensor {
	defer x.ForceNonUnique()()

	result := b.inner.Sum(x)
	if b.tape.IsRecording() {
		b.tape.Record(ops.NewSumOp(x, result))
	}
	return result
}

// Mean reduces x to its scalar mean and records the operation.
func (b *Backend[B]) Mean(x *tensor.RawTensor) *tensor.RawTensor {
	defer x.ForceNonUnique()()

	result := b.inner.Mean(x)
	if b.tape.IsRecording() {
		b.tape.Record(ops.NewMeanOp(x, result))
	}
	return result
}

// Max returns the largest element of x. The reduction is not recorded,
// so gradient flow stops here; it serves metrics and diagnostics, not
// losses.
func (b *Backend[B]) Max(x *tensor.RawTensor) *tensor.RawTensor {
	return b.inner.Max(x)
}

// SumDim sums x along dim and records the operation.
func (b *Backend[B]) SumDim(x *tensor.RawTensor, dim int, keepDim bool) *tensor.RawTensor {
	defer x.ForceNonUnique()()

	dim = tensor.NormalizeAxis(dim, x.Shape().Rank())
	result := b.inner.SumDim(x, dim, keepDim)
	if b.tape.IsRecording() {
		b.tape.Record(ops.NewSumDimOp(x, result, dim, keepDim))
	}
	return result
}

// MeanDim averages x along dim and records the operation.
func (b *Backend[B]) MeanDim(x *tensor.RawTensor, dim int, keepDim bool) *tensor.RawTensor {
	defer x.ForceNonUnique()()

	dim = tensor.NormalizeAxis(dim, x.Shape().Rank())
	result := b.inner.MeanDim(x, dim, keepDim)
	if b.tape.IsRecording() {
		b.tape.Record(ops.NewMeanDimOp(x, result, dim, keepDim))
	}
	return result
}

// MaxDim returns per-slice maxima along dim. Like Max it is not
// recorded and gradient flow stops here.
func (b *Backend[B]) MaxDim(x *tensor.RawTensor, dim int, keepDim bool) *tensor.RawTensor {
	return b.inner.MaxDim(x, dim, keepDim)
}

// Argmax returns indices of maxima along dim. Index extraction is not
// differentiable, so nothing is recorded and gradient flow stops here.
func (b *Backend[B]) Argmax(x *tensor.RawTensor, dim int) *tensor.RawTensor {
	return b.inner.Argmax(x, dim)
}

// Reshape changes the logical shape of x and records the operation.
func (b *Backend[B]) Reshape(x *tensor.RawTensor, shape tensor.Shape) *tensor.RawTensor {
	defer x.ForceNonUnique()()

	result := b.inner.Reshape(x, shape)
	if b.tape.IsRecording() {
		b.tape.Record(ops.NewReshapeOp(x, result))
	}
	return result
}

// Transpose permutes the axes of x and records the operation. With no
// axes given the order is reversed.
func (b *Backend[B]) Transpose(x *tensor.RawTensor, axes ...int) *tensor.RawTensor {
	defer x.ForceNonUnique()()

	rank := x.Shape().Rank()
	resolved := make([]int, 0, rank)
	if len(axes) == 0 {
		for i := rank - 1; i >= 0; i-- {
			resolved = append(resolved, i)
		}
	} else {
		for _, axis := range axes {
			resolved = append(resolved, tensor.NormalizeAxis(axis, rank))
		}
	}

	result := b.inner.Transpose(x, resolved...)
	if b.tape.IsRecording() {
		b.tape.Record(ops.NewTransposeOp(x, result, resolved))
	}
	return result
}

// Expand broadcasts size-one axes of x to shape and records the
// operation.
func (b *Backend[B]) Expand(x *tensor.RawTensor, shape tensor.Shape) *tensor.RawTensor {
	defer x.ForceNonUnique()()

	result := b.inner.Expand(x, shape)
	if b.tape.IsRecording() {
		b.tape.Record(ops.NewExpandOp(x, result))
	}
	return result
}

// Gather selects elements of x along dim by index and records the
// operation. The gradient flows to x only, never to the indices.
func (b *Backend[B]) Gather(x *tensor.RawTensor, dim int, index *tensor.RawTensor) *tensor.RawTensor {
	defer x.ForceNonUnique()()
	defer index.ForceNonUnique()()

	dim = tensor.NormalizeAxis(dim, x.Shape().Rank())
	result := b.inner.Gather(x, dim, index)
	if b.tape.IsRecording() {
		b.tape.Record(ops.NewGatherOp(x, index, result, dim))
	}
	return result
}

// Cast converts x to another element kind. Kind conversion marks a
// gradient boundary, so nothing is recorded.
func (b *Backend[B]) Cast(x *tensor.RawTensor, kind tensor.Kind) *tensor.RawTensor {
	return b.inner.Cast(x, kind)
}
