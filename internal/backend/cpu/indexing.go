package cpu

import (
	"fmt"

	"github.com/nilslice/tch-go/internal/tensor"
)

// Gather selects elements along dim using an int32 index tensor with
// the same rank as x: out[i0,...,id,...] = x[i0,...,index[i0,...,id,...],...].
// The index shape must match x everywhere except at dim.
func (c *Backend) Gather(x *tensor.RawTensor, dim int, index *tensor.RawTensor) *tensor.RawTensor {
	if index.Kind() != tensor.Int {
		panic(fmt.Sprintf("gather: index kind must be int32, got %s", index.Kind()))
	}

	shape := x.Shape()
	dim = tensor.NormalizeAxis(dim, shape.Rank())

	idxShape := index.Shape()
	if idxShape.Rank() != shape.Rank() {
		panic(fmt.Sprintf("gather: index rank %d does not match input rank %d", idxShape.Rank(), shape.Rank()))
	}
	for i := range shape {
		if i != dim && idxShape[i] != shape[i] {
			panic(fmt.Sprintf("gather: index shape %v incompatible with %v at axis %d", idxShape, shape, i))
		}
	}

	switch x.Kind() {
	case tensor.Float:
		return gatherImpl[float32](c, x, index, dim)
	case tensor.Double:
		return gatherImpl[float64](c, x, index, dim)
	case tensor.Int:
		return gatherImpl[int32](c, x, index, dim)
	case tensor.Int64:
		return gatherImpl[int64](c, x, index, dim)
	default:
		panic(fmt.Sprintf("gather: unsupported kind %s", x.Kind()))
	}
}

func gatherImpl[T tensor.DType](c *Backend, x, index *tensor.RawTensor, dim int) *tensor.RawTensor {
	out := tensor.MustRaw(index.Shape(), x.Kind(), c.device)
	src := tensor.View[T](x)
	dst := tensor.View[T](out)
	idx := index.AsInt32()

	srcShape := x.Shape()
	srcStrides := srcShape.ComputeStrides()
	outStrides := index.Shape().ComputeStrides()

	for i := range dst {
		pick := int(idx[i])
		if pick < 0 || pick >= srcShape[dim] {
			panic(fmt.Sprintf("gather: index %d out of range [0, %d)", pick, srcShape[dim]))
		}

		rem := i
		srcIdx := pick * srcStrides[dim]
		for d, stride := range outStrides {
			coord := rem / stride
			rem %= stride
			if d != dim {
				srcIdx += coord * srcStrides[d]
			}
		}
		dst[i] = src[srcIdx]
	}

	return out
}
