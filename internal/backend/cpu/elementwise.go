package cpu

import (
	"fmt"

	"github.com/nilslice/tch-go/internal/parallel"
	"github.com/nilslice/tch-go/internal/tensor"
)

// Add returns a + b, broadcasting either operand.
func (c *Backend) Add(a, b *tensor.RawTensor) *tensor.RawTensor {
	switch a.Kind() {
	case tensor.Float:
		return binary(c, "add", a, b, func(x, y float32) float32 { return x + y })
	case tensor.Double:
		return binary(c, "add", a, b, func(x, y float64) float64 { return x + y })
	case tensor.Int:
		return binary(c, "add", a, b, func(x, y int32) int32 { return x + y })
	case tensor.Int64:
		return binary(c, "add", a, b, func(x, y int64) int64 { return x + y })
	default:
		panic(fmt.Sprintf("add: unsupported kind %s", a.Kind()))
	}
}

// Sub returns a - b, broadcasting either operand.
func (c *Backend) Sub(a, b *tensor.RawTensor) *tensor.RawTensor {
	switch a.Kind() {
	case tensor.Float:
		return binary(c, "sub", a, b, func(x, y float32) float32 { return x - y })
	case tensor.Double:
		return binary(c, "sub", a, b, func(x, y float64) float64 { return x - y })
	case tensor.Int:
		return binary(c, "sub", a, b, func(x, y int32) int32 { return x - y })
	case tensor.Int64:
		return binary(c, "sub", a, b, func(x, y int64) int64 { return x - y })
	default:
		panic(fmt.Sprintf("sub: unsupported kind %s", a.Kind()))
	}
}

// Mul returns the elementwise product a * b, broadcasting either operand.
func (c *Backend) Mul(a, b *tensor.RawTensor) *tensor.RawTensor {
	switch a.Kind() {
	case tensor.Float:
		return binary(c, "mul", a, b, func(x, y float32) float32 { return x * y })
	case tensor.Double:
		return binary(c, "mul", a, b, func(x, y float64) float64 { return x * y })
	case tensor.Int:
		return binary(c, "mul", a, b, func(x, y int32) int32 { return x * y })
	case tensor.Int64:
		return binary(c, "mul", a, b, func(x, y int64) int64 { return x * y })
	default:
		panic(fmt.Sprintf("mul: unsupported kind %s", a.Kind()))
	}
}

// Div returns a / b, broadcasting either operand. Integer division
// truncates toward zero.
func (c *Backend) Div(a, b *tensor.RawTensor) *tensor.RawTensor {
	switch a.Kind() {
	case tensor.Float:
		return binary(c, "div", a, b, func(x, y float32) float32 { return x / y })
	case tensor.Double:
		return binary(c, "div", a, b, func(x, y float64) float64 { return x / y })
	case tensor.Int:
		return binary(c, "div", a, b, func(x, y int32) int32 { return x / y })
	case tensor.Int64:
		return binary(c, "div", a, b, func(x, y int64) int64 { return x / y })
	default:
		panic(fmt.Sprintf("div: unsupported kind %s", a.Kind()))
	}
}

// Neg returns -x.
func (c *Backend) Neg(x *tensor.RawTensor) *tensor.RawTensor {
	switch x.Kind() {
	case tensor.Float:
		return unary(c, x, func(v float32) float32 { return -v })
	case tensor.Double:
		return unary(c, x, func(v float64) float64 { return -v })
	case tensor.Int:
		return unary(c, x, func(v int32) int32 { return -v })
	case tensor.Int64:
		return unary(c, x, func(v int64) int64 { return -v })
	default:
		panic(fmt.Sprintf("neg: unsupported kind %s", x.Kind()))
	}
}

// binary runs one elementwise operation through the three execution
// paths. The in-place path reuses a's buffer when this handle is its
// only owner, which is what lets optimizer updates run without
// allocating.
func binary[T tensor.DType](c *Backend, name string, a, b *tensor.RawTensor, op func(T, T) T) *tensor.RawTensor {
	if a.Kind() != b.Kind() {
		panic(fmt.Sprintf("%s: kind mismatch: %s vs %s", name, a.Kind(), b.Kind()))
	}

	outShape, _, err := tensor.BroadcastShapes(a.Shape(), b.Shape())
	if err != nil {
		panic(fmt.Sprintf("%s: %v", name, err))
	}

	if a.Shape().Equal(b.Shape()) {
		av := tensor.View[T](a)
		bv := tensor.View[T](b)

		if a.IsUnique() {
			parallel.ForChunks(len(av), func(start, end int) {
				for i := start; i < end; i++ {
					av[i] = op(av[i], bv[i])
				}
			}, c.workers)
			return a
		}

		out := tensor.MustRaw(outShape, a.Kind(), c.device)
		dst := tensor.View[T](out)
		parallel.ForChunks(len(dst), func(start, end int) {
			for i := start; i < end; i++ {
				dst[i] = op(av[i], bv[i])
			}
		}, c.workers)
		return out
	}

	out := tensor.MustRaw(outShape, a.Kind(), c.device)
	dst := tensor.View[T](out)
	av := tensor.View[T](a)
	bv := tensor.View[T](b)

	outStrides := outShape.ComputeStrides()
	aStrides := broadcastStrides(a.Shape(), outShape)
	bStrides := broadcastStrides(b.Shape(), outShape)

	parallel.ForChunks(len(dst), func(start, end int) {
		for i := start; i < end; i++ {
			dst[i] = op(av[flatIndex(i, outStrides, aStrides)], bv[flatIndex(i, outStrides, bStrides)])
		}
	}, c.workers)
	return out
}

// unary allocates a fresh result and applies op to every element.
func unary[T tensor.DType](c *Backend, x *tensor.RawTensor, op func(T) T) *tensor.RawTensor {
	out := tensor.MustRaw(x.Shape(), x.Kind(), c.device)
	src := tensor.View[T](x)
	dst := tensor.View[T](out)
	parallel.ForChunks(len(dst), func(start, end int) {
		for i := start; i < end; i++ {
			dst[i] = op(src[i])
		}
	}, c.workers)
	return out
}

// unaryFloat dispatches a float-only elementwise op through a float64
// kernel. Integer kinds panic; callers convert with Cast first.
func unaryFloat(c *Backend, name string, x *tensor.RawTensor, op func(float64) float64) *tensor.RawTensor {
	switch x.Kind() {
	case tensor.Float:
		return unary(c, x, func(v float32) float32 { return float32(op(float64(v))) })
	case tensor.Double:
		return unary(c, x, op)
	default:
		panic(fmt.Sprintf("%s: unsupported kind %s (want float32 or float64)", name, x.Kind()))
	}
}
