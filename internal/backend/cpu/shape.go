package cpu

import (
	"fmt"

	"github.com/nilslice/tch-go/internal/parallel"
	"github.com/nilslice/tch-go/internal/tensor"
)

// Reshape returns a copy of x laid out under a new shape. The element
// count must not change.
func (c *Backend) Reshape(x *tensor.RawTensor, shape tensor.Shape) *tensor.RawTensor {
	if shape.NumElements() != x.NumElements() {
		panic(fmt.Sprintf("reshape: cannot view %v as %v", x.Shape(), shape))
	}
	out := tensor.MustRaw(shape, x.Kind(), c.device)
	copy(out.Data(), x.Data()[:x.ByteSize()])
	return out
}

// Transpose permutes axes and materializes the result contiguously.
// With no axes given the order is reversed, which is the usual matrix
// transpose for 2-D input.
func (c *Backend) Transpose(x *tensor.RawTensor, axes ...int) *tensor.RawTensor {
	rank := x.Shape().Rank()

	if len(axes) == 0 {
		axes = make([]int, rank)
		for i := range axes {
			axes[i] = rank - 1 - i
		}
	}
	if len(axes) != rank {
		panic(fmt.Sprintf("transpose: %d axes for rank-%d tensor", len(axes), rank))
	}

	norm := make([]int, rank)
	seen := make([]bool, rank)
	for i, ax := range axes {
		a := tensor.NormalizeAxis(ax, rank)
		if seen[a] {
			panic(fmt.Sprintf("transpose: duplicate axis %d", a))
		}
		seen[a] = true
		norm[i] = a
	}

	switch x.Kind() {
	case tensor.Float:
		return transposeImpl[float32](c, x, norm)
	case tensor.Double:
		return transposeImpl[float64](c, x, norm)
	case tensor.Int:
		return transposeImpl[int32](c, x, norm)
	case tensor.Int64:
		return transposeImpl[int64](c, x, norm)
	default:
		panic(fmt.Sprintf("transpose: unsupported kind %s", x.Kind()))
	}
}

// transposeImpl maps each output index back through the axis
// permutation: output axis d reads input axis axes[d].
func transposeImpl[T tensor.DType](c *Backend, x *tensor.RawTensor, axes []int) *tensor.RawTensor {
	shape := x.Shape()
	outShape := make(tensor.Shape, len(axes))
	for i, ax := range axes {
		outShape[i] = shape[ax]
	}

	out := tensor.MustRaw(outShape, x.Kind(), c.device)
	src := tensor.View[T](x)
	dst := tensor.View[T](out)

	outStrides := outShape.ComputeStrides()
	inStrides := shape.ComputeStrides()

	parallel.ForChunks(len(dst), func(start, end int) {
		for i := start; i < end; i++ {
			rem := i
			inIdx := 0
			for d, stride := range outStrides {
				coord := rem / stride
				rem %= stride
				inIdx += coord * inStrides[axes[d]]
			}
			dst[i] = src[inIdx]
		}
	}, c.workers)

	return out
}

// Expand materializes x broadcast to shape. Axes of size one repeat;
// the result owns fresh contiguous storage.
func (c *Backend) Expand(x *tensor.RawTensor, shape tensor.Shape) *tensor.RawTensor {
	xs := x.Shape()
	if len(shape) < len(xs) {
		panic(fmt.Sprintf("expand: target %v has fewer axes than %v", shape, xs))
	}
	offset := len(shape) - len(xs)
	for i, d := range xs {
		if d != 1 && d != shape[offset+i] {
			panic(fmt.Sprintf("expand: cannot expand axis %d from %d to %d", i, d, shape[offset+i]))
		}
	}

	switch x.Kind() {
	case tensor.Float:
		return expandImpl[float32](c, x, shape)
	case tensor.Double:
		return expandImpl[float64](c, x, shape)
	case tensor.Int:
		return expandImpl[int32](c, x, shape)
	case tensor.Int64:
		return expandImpl[int64](c, x, shape)
	default:
		panic(fmt.Sprintf("expand: unsupported kind %s", x.Kind()))
	}
}

func expandImpl[T tensor.DType](c *Backend, x *tensor.RawTensor, shape tensor.Shape) *tensor.RawTensor {
	out := tensor.MustRaw(shape, x.Kind(), c.device)
	src := tensor.View[T](x)
	dst := tensor.View[T](out)

	outStrides := shape.ComputeStrides()
	srcStrides := broadcastStrides(x.Shape(), shape)

	parallel.ForChunks(len(dst), func(start, end int) {
		for i := start; i < end; i++ {
			dst[i] = src[flatIndex(i, outStrides, srcStrides)]
		}
	}, c.workers)

	return out
}
