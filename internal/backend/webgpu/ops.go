package webgpu

import (
	"github.com/nilslice/tch-go/internal/tensor"
)

var _ tensor.Backend = (*Backend)(nil)

// shaderable reports whether a two-operand elementwise op can run on
// the GPU: float32 operands of identical shape. Broadcasts and the
// other element kinds take the fallback path.
func shaderable(a, b *tensor.RawTensor) bool {
	return a.Kind() == tensor.Float && b.Kind() == tensor.Float && a.Shape().Equal(b.Shape())
}

// scalarFloat32 coerces the scalar forms' any argument for the scale
// kernel. Unsupported types report ok=false and take the fallback path,
// which owns the error message.
func scalarFloat32(scalar any) (float32, bool) {
	switch v := scalar.(type) {
	case float32:
		return v, true
	case float64:
		return float32(v), true
	case int:
		return float32(v), true
	case int32:
		return float32(v), true
	case int64:
		return float32(v), true
	default:
		return 0, false
	}
}

// Add returns a + b, on the GPU when both operands are same-shape
// float32.
func (b *Backend) Add(x, y *tensor.RawTensor) *tensor.RawTensor {
	if !shaderable(x, y) {
		return b.fallback.Add(x, y)
	}
	result, err := b.runBinary("add", addShader, x, y)
	if err != nil {
		panic("webgpu: add: " + err.Error())
	}
	return result
}

// Sub returns a - b.
func (b *Backend) Sub(x, y *tensor.RawTensor) *tensor.RawTensor {
	return b.fallback.Sub(x, y)
}

// Mul returns the elementwise product, on the GPU when both operands
// are same-shape float32.
func (b *Backend) Mul(x, y *tensor.RawTensor) *tensor.RawTensor {
	if !shaderable(x, y) {
		return b.fallback.Mul(x, y)
	}
	result, err := b.runBinary("mul", mulShader, x, y)
	if err != nil {
		panic("webgpu: mul: " + err.Error())
	}
	return result
}

// Div returns a / b.
func (b *Backend) Div(x, y *tensor.RawTensor) *tensor.RawTensor {
	return b.fallback.Div(x, y)
}

// Neg returns -x.
func (b *Backend) Neg(x *tensor.RawTensor) *tensor.RawTensor {
	return b.fallback.Neg(x)
}

// AddScalar adds a scalar to every element.
func (b *Backend) AddScalar(x *tensor.RawTensor, scalar any) *tensor.RawTensor {
	return b.fallback.AddScalar(x, scalar)
}

// SubScalar subtracts a scalar from every element.
func (b *Backend) SubScalar(x *tensor.RawTensor, scalar any) *tensor.RawTensor {
	return b.fallback.SubScalar(x, scalar)
}

// MulScalar multiplies every element by a scalar, on the GPU for
// float32 tensors.
func (b *Backend) MulScalar(x *tensor.RawTensor, scalar any) *tensor.RawTensor {
	s, ok := scalarFloat32(scalar)
	if x.Kind() != tensor.Float || !ok {
		return b.fallback.MulScalar(x, scalar)
	}
	result, err := b.runScale(x, s)
	if err != nil {
		panic("webgpu: mulscalar: " + err.Error())
	}
	return result
}

// DivScalar divides every element by a scalar.
func (b *Backend) DivScalar(x *tensor.RawTensor, scalar any) *tensor.RawTensor {
	return b.fallback.DivScalar(x, scalar)
}

// MatMul multiplies 2-D tensors, on the GPU for float32 operands.
func (b *Backend) MatMul(x, y *tensor.RawTensor) *tensor.RawTensor {
	gpuOK := x.Kind() == tensor.Float && y.Kind() == tensor.Float &&
		x.Shape().Rank() == 2 && y.Shape().Rank() == 2 &&
		x.Shape()[1] == y.Shape()[0]
	if !gpuOK {
		return b.fallback.MatMul(x, y)
	}
	result, err := b.runMatMul(x, y)
	if err != nil {
		panic("webgpu: matmul: " + err.Error())
	}
	return result
}

// Exp returns e**x elementwise.
func (b *Backend) Exp(x *tensor.RawTensor) *tensor.RawTensor {
	return b.fallback.Exp(x)
}

// Log returns the natural logarithm elementwise.
func (b *Backend) Log(x *tensor.RawTensor) *tensor.RawTensor {
	return b.fallback.Log(x)
}

// Sqrt returns the square root elementwise.
func (b *Backend) Sqrt(x *tensor.RawTensor) *tensor.RawTensor {
	return b.fallback.Sqrt(x)
}

// Pow raises every element to the given power.
func (b *Backend) Pow(x *tensor.RawTensor, exponent float64) *tensor.RawTensor {
	return b.fallback.Pow(x, exponent)
}

// ReLU returns max(0, x), on the GPU for float32 tensors.
func (b *Backend) ReLU(x *tensor.RawTensor) *tensor.RawTensor {
	if x.Kind() != tensor.Float {
		return b.fallback.ReLU(x)
	}
	result, err := b.runUnary("relu", reluShader, x)
	if err != nil {
		panic("webgpu: relu: " + err.Error())
	}
	return result
}

// Sigmoid returns 1 / (1 + e**-x).
func (b *Backend) Sigmoid(x *tensor.RawTensor) *tensor.RawTensor {
	return b.fallback.Sigmoid(x)
}

// Tanh returns the hyperbolic tangent elementwise.
func (b *Backend) Tanh(x *tensor.RawTensor) *tensor.RawTensor {
	return b.fallback.Tanh(x)
}

// Softmax normalizes along dim.
func (b *Backend) Softmax(x *tensor.RawTensor, dim int) *tensor.RawTensor {
	return b.fallback.Softmax(x, dim)
}

// LogSoftmax computes log-softmax along dim.
func (b *Backend) LogSoftmax(x *tensor.RawTensor, dim int) *tensor.RawTensor {
	return b.fallback.LogSoftmax(x, dim)
}

// Sum reduces to a scalar tensor.
func (b *Backend) Sum(x *tensor.RawTensor) *tensor.RawTensor {
	return b.fallback.Sum(x)
}

// Mean reduces to the scalar average.
func (b *Backend) Mean(x *tensor.RawTensor) *tensor.RawTensor {
	return b.fallback.Mean(x)
}

// Max reduces to the largest element.
func (b *Backend) Max(x *tensor.RawTensor) *tensor.RawTensor {
	return b.fallback.Max(x)
}

// SumDim sums along dim.
func (b *Backend) SumDim(x *tensor.RawTensor, dim int, keepDim bool) *tensor.RawTensor {
	return b.fallback.SumDim(x, dim, keepDim)
}

// MeanDim averages along dim.
func (b *Backend) MeanDim(x *tensor.RawTensor, dim int, keepDim bool) *tensor.RawTensor {
	return b.fallback.MeanDim(x, dim, keepDim)
}

// MaxDim takes the maximum along dim.
func (b *Backend) MaxDim(x *tensor.RawTensor, dim int, keepDim bool) *tensor.RawTensor {
	return b.fallback.MaxDim(x, dim, keepDim)
}

// Argmax returns the index of the maximum along dim.
func (b *Backend) Argmax(x *tensor.RawTensor, dim int) *tensor.RawTensor {
	return b.fallback.Argmax(x, dim)
}

// Reshape returns x with a new shape.
func (b *Backend) Reshape(x *tensor.RawTensor, shape tensor.Shape) *tensor.RawTensor {
	return b.fallback.Reshape(x, shape)
}

// Transpose permutes axes, materializing a contiguous result.
func (b *Backend) Transpose(x *tensor.RawTensor, axes ...int) *tensor.RawTensor {
	return b.fallback.Transpose(x, axes...)
}

// Expand broadcasts x to a larger shape.
func (b *Backend) Expand(x *tensor.RawTensor, shape tensor.Shape) *tensor.RawTensor {
	return b.fallback.Expand(x, shape)
}

// Gather selects elements along dim using an index tensor.
func (b *Backend) Gather(x *tensor.RawTensor, dim int, index *tensor.RawTensor) *tensor.RawTensor {
	return b.fallback.Gather(x, dim, index)
}

// Cast converts to another element kind.
func (b *Backend) Cast(x *tensor.RawTensor, kind tensor.Kind) *tensor.RawTensor {
	return b.fallback.Cast(x, kind)
}
