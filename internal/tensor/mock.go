package tensor

import (
	"fmt"
	"math"
)

// Compile-time check that the mock satisfies the full Backend surface.
var _ Backend = (*MockBackend)(nil)

// MockBackend is the in-package test double. Every op is implemented
// naively through float64 so tests exercise semantics, not kernels.
type MockBackend struct{}

// NewMockBackend returns a MockBackend.
func NewMockBackend() *MockBackend {
	return &MockBackend{}
}

// Name returns the backend name.
func (m *MockBackend) Name() string { return "mock" }

// Device returns the device the mock pretends to be.
func (m *MockBackend) Device() Device { return CPU }

// Add performs element-wise addition with broadcasting.
func (m *MockBackend) Add(a, b *RawTensor) *RawTensor {
	return m.elementWise(a, b, func(x, y float64) float64 { return x + y })
}

// Sub performs element-wise subtraction with broadcasting.
func (m *MockBackend) Sub(a, b *RawTensor) *RawTensor {
	return m.elementWise(a, b, func(x, y float64) float64 { return x - y })
}

// Mul performs element-wise multiplication with broadcasting.
func (m *MockBackend) Mul(a, b *RawTensor) *RawTensor {
	return m.elementWise(a, b, func(x, y float64) float64 { return x * y })
}

// Div performs element-wise division with broadcasting.
func (m *MockBackend) Div(a, b *RawTensor) *RawTensor {
	return m.elementWise(a, b, func(x, y float64) float64 { return x / y })
}

// Neg negates every element.
func (m *MockBackend) Neg(x *RawTensor) *RawTensor {
	return m.unary(x, func(v float64) float64 { return -v })
}

// AddScalar adds a scalar to every element.
func (m *MockBackend) AddScalar(x *RawTensor, scalar any) *RawTensor {
	s := scalarToFloat64(scalar)
	return m.unary(x, func(v float64) float64 { return v + s })
}

// SubScalar subtracts a scalar from every element.
func (m *MockBackend) SubScalar(x *RawTensor, scalar any) *RawTensor {
	s := scalarToFloat64(scalar)
	return m.unary(x, func(v float64) float64 { return v - s })
}

// MulScalar multiplies every element by a scalar.
func (m *MockBackend) MulScalar(x *RawTensor, scalar any) *RawTensor {
	s := scalarToFloat64(scalar)
	return m.unary(x, func(v float64) float64 { return v * s })
}

// DivScalar divides every element by a scalar.
func (m *MockBackend) DivScalar(x *RawTensor, scalar any) *RawTensor {
	s := scalarToFloat64(scalar)
	return m.unary(x, func(v float64) float64 { return v / s })
}

// MatMul multiplies two 2-D tensors.
func (m *MockBackend) MatMul(a, b *RawTensor) *RawTensor {
	as, bs := a.Shape(), b.Shape()
	if len(as) != 2 || len(bs) != 2 {
		panic("mock MatMul supports 2-D tensors only")
	}
	if as[1] != bs[0] {
		panic(fmt.Sprintf("incompatible shapes for MatMul: %v @ %v", as, bs))
	}

	rows, inner, cols := as[0], as[1], bs[1]
	result := MustRaw(Shape{rows, cols}, a.Kind(), m.Device())

	av := m.toFloat64(a)
	bv := m.toFloat64(b)
	out := make([]float64, rows*cols)
	for i := 0; i < rows; i++ {
		for j := 0; j < cols; j++ {
			sum := 0.0
			for k := 0; k < inner; k++ {
				sum += av[i*inner+k] * bv[k*cols+j]
			}
			out[i*cols+j] = sum
		}
	}
	m.fromFloat64(out, result)
	return result
}

// Exp computes e^x element-wise.
func (m *MockBackend) Exp(x *RawTensor) *RawTensor { return m.unary(x, math.Exp) }

// Log computes the natural logarithm element-wise.
func (m *MockBackend) Log(x *RawTensor) *RawTensor { return m.unary(x, math.Log) }

// Sqrt computes the square root element-wise.
func (m *MockBackend) Sqrt(x *RawTensor) *RawTensor { return m.unary(x, math.Sqrt) }

// Pow raises every element to the given power.
func (m *MockBackend) Pow(x *RawTensor, exponent float64) *RawTensor {
	return m.unary(x, func(v float64) float64 { return math.Pow(v, exponent) })
}

// ReLU clamps negatives to zero.
func (m *MockBackend) ReLU(x *RawTensor) *RawTensor {
	return m.unary(x, func(v float64) float64 { return math.Max(v, 0) })
}

// Sigmoid applies the logistic function.
func (m *MockBackend) Sigmoid(x *RawTensor) *RawTensor {
	return m.unary(x, func(v float64) float64 { return 1 / (1 + math.Exp(-v)) })
}

// Tanh applies the hyperbolic tangent.
func (m *MockBackend) Tanh(x *RawTensor) *RawTensor { return m.unary(x, math.Tanh) }

// Softmax normalizes along dim.
func (m *MockBackend) Softmax(x *RawTensor, dim int) *RawTensor {
	return m.softmaxImpl(x, dim, false)
}

// LogSoftmax computes log-softmax along dim.
func (m *MockBackend) LogSoftmax(x *RawTensor, dim int) *RawTensor {
	return m.softmaxImpl(x, dim, true)
}

func (m *MockBackend) softmaxImpl(x *RawTensor, dim int, logOutput bool) *RawTensor {
	shape := x.Shape()
	dim = NormalizeAxis(dim, len(shape))

	result := MustRaw(shape, x.Kind(), m.Device())
	src := m.toFloat64(x)
	out := make([]float64, len(src))

	// Iterate every slice along dim.
	strides := shape.ComputeStrides()
	dimSize := shape[dim]
	dimStride := strides[dim]
	total := shape.NumElements()

	for base := 0; base < total; base++ {
		// Only process positions whose dim coordinate is zero.
		if (base/dimStride)%dimSize != 0 {
			continue
		}
		maxVal := math.Inf(-1)
		for i := 0; i < dimSize; i++ {
			if v := src[base+i*dimStride]; v > maxVal {
				maxVal = v
			}
		}
		sum := 0.0
		for i := 0; i < dimSize; i++ {
			sum += math.Exp(src[base+i*dimStride] - maxVal)
		}
		logSum := math.Log(sum)
		for i := 0; i < dimSize; i++ {
			shifted := src[base+i*dimStride] - maxVal
			if logOutput {
				out[base+i*dimStride] = shifted - logSum
			} else {
				out[base+i*dimStride] = math.Exp(shifted) / sum
			}
		}
	}

	m.fromFloat64(out, result)
	return result
}

// Sum reduces all elements to a scalar tensor.
func (m *MockBackend) Sum(x *RawTensor) *RawTensor {
	sum := 0.0
	for _, v := range m.toFloat64(x) {
		sum += v
	}
	result := MustRaw(Shape{}, x.Kind(), m.Device())
	m.fromFloat64([]float64{sum}, result)
	return result
}

// Mean reduces all elements to their average.
func (m *MockBackend) Mean(x *RawTensor) *RawTensor {
	sum := 0.0
	src := m.toFloat64(x)
	for _, v := range src {
		sum += v
	}
	result := MustRaw(Shape{}, x.Kind(), m.Device())
	m.fromFloat64([]float64{sum / float64(len(src))}, result)
	return result
}

// Max reduces all elements to the largest one.
func (m *MockBackend) Max(x *RawTensor) *RawTensor {
	src := m.toFloat64(x)
	if len(src) == 0 {
		panic("max of empty tensor")
	}
	best := src[0]
	for _, v := range src[1:] {
		if v > best {
			best = v
		}
	}
	result := MustRaw(Shape{}, x.Kind(), m.Device())
	m.fromFloat64([]float64{best}, result)
	return result
}

// SumDim sums along dim.
func (m *MockBackend) SumDim(x *RawTensor, dim int, keepDim bool) *RawTensor {
	return m.reduceDim(x, dim, keepDim, false)
}

// MeanDim averages along dim.
func (m *MockBackend) MeanDim(x *RawTensor, dim int, keepDim bool) *RawTensor {
	return m.reduceDim(x, dim, keepDim, true)
}

// MaxDim takes the per-slice maximum along dim.
func (m *MockBackend) MaxDim(x *RawTensor, dim int, keepDim bool) *RawTensor {
	shape := x.Shape()
	dim = NormalizeAxis(dim, len(shape))

	outShape := make(Shape, 0, len(shape))
	for i, d := range shape {
		if i == dim {
			if keepDim {
				outShape = append(outShape, 1)
			}
			continue
		}
		outShape = append(outShape, d)
	}

	result := MustRaw(outShape, x.Kind(), m.Device())
	src := m.toFloat64(x)
	out := make([]float64, outShape.NumElements())

	strides := shape.ComputeStrides()
	dimSize := shape[dim]
	dimStride := strides[dim]

	pos := 0
	for base := 0; base < shape.NumElements(); base++ {
		if (base/dimStride)%dimSize != 0 {
			continue
		}
		best := src[base]
		for i := 1; i < dimSize; i++ {
			if v := src[base+i*dimStride]; v > best {
				best = v
			}
		}
		out[pos] = best
		pos++
	}

	m.fromFloat64(out, result)
	return result
}

func (m *MockBackend) reduceDim(x *RawTensor, dim int, keepDim, mean bool) *RawTensor {
	shape := x.Shape()
	dim = NormalizeAxis(dim, len(shape))

	outShape := make(Shape, 0, len(shape))
	for i, d := range shape {
		if i == dim {
			if keepDim {
				outShape = append(outShape, 1)
			}
			continue
		}
		outShape = append(outShape, d)
	}

	result := MustRaw(outShape, x.Kind(), m.Device())
	src := m.toFloat64(x)
	out := make([]float64, outShape.NumElements())

	strides := shape.ComputeStrides()
	dimSize := shape[dim]
	dimStride := strides[dim]

	pos := 0
	for base := 0; base < shape.NumElements(); base++ {
		if (base/dimStride)%dimSize != 0 {
			continue
		}
		sum := 0.0
		for i := 0; i < dimSize; i++ {
			sum += src[base+i*dimStride]
		}
		if mean {
			sum /= float64(dimSize)
		}
		out[pos] = sum
		pos++
	}

	m.fromFloat64(out, result)
	return result
}

// Argmax returns Int indices of per-slice maxima along dim.
func (m *MockBackend) Argmax(x *RawTensor, dim int) *RawTensor {
	shape := x.Shape()
	dim = NormalizeAxis(dim, len(shape))

	outShape := make(Shape, 0, len(shape))
	for i, d := range shape {
		if i != dim {
			outShape = append(outShape, d)
		}
	}

	result := MustRaw(outShape, Int, m.Device())
	src := m.toFloat64(x)
	out := result.AsInt32()

	strides := shape.ComputeStrides()
	dimSize := shape[dim]
	dimStride := strides[dim]

	pos := 0
	for base := 0; base < shape.NumElements(); base++ {
		if (base/dimStride)%dimSize != 0 {
			continue
		}
		best, bestIdx := math.Inf(-1), 0
		for i := 0; i < dimSize; i++ {
			if v := src[base+i*dimStride]; v > best {
				best, bestIdx = v, i
			}
		}
		out[pos] = int32(bestIdx)
		pos++
	}
	return result
}

// Reshape copies data into a new shape with an equal element count.
func (m *MockBackend) Reshape(x *RawTensor, shape Shape) *RawTensor {
	if err := shape.Validate(); err != nil {
		panic(err)
	}
	if x.NumElements() != shape.NumElements() {
		panic(fmt.Sprintf("cannot reshape %d elements into %v", x.NumElements(), shape))
	}
	result := MustRaw(shape, x.Kind(), m.Device())
	copy(result.Data(), x.Data())
	return result
}

// Transpose permutes axes, materializing a contiguous result.
func (m *MockBackend) Transpose(x *RawTensor, axes ...int) *RawTensor {
	shape := x.Shape()
	if len(axes) == 0 {
		axes = make([]int, len(shape))
		for i := range axes {
			axes[i] = len(shape) - 1 - i
		}
	}
	if len(axes) != len(shape) {
		panic(fmt.Sprintf("transpose axes %v do not match rank %d", axes, len(shape)))
	}

	normalized := make([]int, len(axes))
	for i, axis := range axes {
		normalized[i] = NormalizeAxis(axis, len(shape))
	}
	axes = normalized

	newShape := make(Shape, len(shape))
	for i, axis := range axes {
		newShape[i] = shape[axis]
	}

	result := MustRaw(newShape, x.Kind(), m.Device())
	src := m.toFloat64(x)
	out := make([]float64, len(src))

	oldStrides := shape.ComputeStrides()
	newStrides := newShape.ComputeStrides()

	for i := range src {
		rem := i
		newIdx := 0
		for j := range shape {
			coord := rem / oldStrides[j]
			rem %= oldStrides[j]
			// Where did axis j land in the permutation?
			for k, axis := range axes {
				if axis == j {
					newIdx += coord * newStrides[k]
				}
			}
		}
		out[newIdx] = src[i]
	}

	m.fromFloat64(out, result)
	return result
}

// Expand broadcasts to a larger shape.
func (m *MockBackend) Expand(x *RawTensor, shape Shape) *RawTensor {
	outShape, _, err := BroadcastShapes(x.Shape(), shape)
	if err != nil || !outShape.Equal(shape) {
		panic(fmt.Sprintf("cannot expand %v to %v", x.Shape(), shape))
	}

	result := MustRaw(shape, x.Kind(), m.Device())
	src := m.toFloat64(x)
	out := make([]float64, shape.NumElements())
	for i := range out {
		out[i] = src[broadcastIndex(i, shape, x.Shape())]
	}
	m.fromFloat64(out, result)
	return result
}

// Gather selects elements along dim using an Int index tensor.
func (m *MockBackend) Gather(x *RawTensor, dim int, index *RawTensor) *RawTensor {
	shape := x.Shape()
	dim = NormalizeAxis(dim, len(shape))
	idxShape := index.Shape()
	if len(idxShape) != len(shape) {
		panic("gather index must match input rank")
	}

	result := MustRaw(idxShape, x.Kind(), m.Device())
	src := m.toFloat64(x)
	idx := index.AsInt32()
	out := make([]float64, idxShape.NumElements())

	xStrides := shape.ComputeStrides()
	idxStrides := idxShape.ComputeStrides()

	for i := range out {
		rem := i
		srcPos := 0
		for j := range idxShape {
			coord := rem / idxStrides[j]
			rem %= idxStrides[j]
			if j == dim {
				coord = int(idx[i])
			}
			srcPos += coord * xStrides[j]
		}
		out[i] = src[srcPos]
	}

	m.fromFloat64(out, result)
	return result
}

// Cast converts to another element kind.
func (m *MockBackend) Cast(x *RawTensor, kind Kind) *RawTensor {
	result := MustRaw(x.Shape(), kind, m.Device())
	m.fromFloat64(m.toFloat64(x), result)
	return result
}

func (m *MockBackend) elementWise(a, b *RawTensor, op func(float64, float64) float64) *RawTensor {
	outShape, _, err := BroadcastShapes(a.Shape(), b.Shape())
	if err != nil {
		panic(err)
	}

	result := MustRaw(outShape, a.Kind(), m.Device())
	av := m.toFloat64(a)
	bv := m.toFloat64(b)
	out := make([]float64, outShape.NumElements())

	for i := range out {
		out[i] = op(av[broadcastIndex(i, outShape, a.Shape())], bv[broadcastIndex(i, outShape, b.Shape())])
	}

	m.fromFloat64(out, result)
	return result
}

func (m *MockBackend) unary(x *RawTensor, op func(float64) float64) *RawTensor {
	result := MustRaw(x.Shape(), x.Kind(), m.Device())
	src := m.toFloat64(x)
	out := make([]float64, len(src))
	for i, v := range src {
		out[i] = op(v)
	}
	m.fromFloat64(out, result)
	return result
}

func (m *MockBackend) toFloat64(t *RawTensor) []float64 {
	switch t.Kind() {
	case Float:
		src := t.AsFloat32()
		dst := make([]float64, len(src))
		for i, v := range src {
			dst[i] = float64(v)
		}
		return dst
	case Double:
		return t.AsFloat64()
	case Int:
		src := t.AsInt32()
		dst := make([]float64, len(src))
		for i, v := range src {
			dst[i] = float64(v)
		}
		return dst
	case Int64:
		src := t.AsInt64()
		dst := make([]float64, len(src))
		for i, v := range src {
			dst[i] = float64(v)
		}
		return dst
	default:
		panic(fmt.Sprintf("unsupported kind: %s", t.Kind()))
	}
}

func (m *MockBackend) fromFloat64(src []float64, t *RawTensor) {
	switch t.Kind() {
	case Float:
		dst := t.AsFloat32()
		for i, v := range src {
			dst[i] = float32(v)
		}
	case Double:
		copy(t.AsFloat64(), src)
	case Int:
		dst := t.AsInt32()
		for i, v := range src {
			dst[i] = int32(v)
		}
	case Int64:
		dst := t.AsInt64()
		for i, v := range src {
			dst[i] = int64(v)
		}
	}
}

func scalarToFloat64(scalar any) float64 {
	switch v := scalar.(type) {
	case float32:
		return float64(v)
	case float64:
		return v
	case int32:
		return float64(v)
	case int64:
		return float64(v)
	case int:
		return float64(v)
	default:
		panic(fmt.Sprintf("unsupported scalar type %T", scalar))
	}
}

// broadcastIndex maps a flat index in outShape back to the flat index in
// inShape, treating size-1 axes as pinned to zero.
func broadcastIndex(flatIdx int, outShape, inShape Shape) int {
	outStrides := outShape.ComputeStrides()
	inStrides := inShape.ComputeStrides()

	inIdx := 0
	offset := len(outShape) - len(inShape)
	rem := flatIdx
	for i := 0; i < len(outShape); i++ {
		coord := rem / outStrides[i]
		rem %= outStrides[i]
		if i < offset {
			continue
		}
		if inShape[i-offset] == 1 {
			continue
		}
		inIdx += coord * inStrides[i-offset]
	}
	return inIdx
}
