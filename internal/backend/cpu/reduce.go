package cpu

import (
	"fmt"

	"github.com/nilslice/tch-go/internal/parallel"
	"github.com/nilslice/tch-go/internal/tensor"
)

// Sum reduces all elements to a scalar tensor of the same kind.
func (c *Backend) Sum(x *tensor.RawTensor) *tensor.RawTensor {
	switch x.Kind() {
	case tensor.Float:
		return sumImpl[float32](c, x)
	case tensor.Double:
		return sumImpl[float64](c, x)
	case tensor.Int:
		return sumImpl[int32](c, x)
	case tensor.Int64:
		return sumImpl[int64](c, x)
	default:
		panic(fmt.Sprintf("sum: unsupported kind %s", x.Kind()))
	}
}

// Mean reduces all elements to their scalar average. Only defined for
// the floating kinds.
func (c *Backend) Mean(x *tensor.RawTensor) *tensor.RawTensor {
	switch x.Kind() {
	case tensor.Float:
		out := sumImpl[float32](c, x)
		tensor.View[float32](out)[0] /= float32(x.NumElements())
		return out
	case tensor.Double:
		out := sumImpl[float64](c, x)
		tensor.View[float64](out)[0] /= float64(x.NumElements())
		return out
	default:
		panic(fmt.Sprintf("mean: unsupported kind %s (want float32 or float64)", x.Kind()))
	}
}

func sumImpl[T tensor.DType](c *Backend, x *tensor.RawTensor) *tensor.RawTensor {
	out := tensor.MustRaw(tensor.Shape{}, x.Kind(), c.device)
	var acc T
	for _, v := range tensor.View[T](x) {
		acc += v
	}
	tensor.View[T](out)[0] = acc
	return out
}

// Max reduces all elements to the largest one. An empty tensor has no
// maximum and panics.
func (c *Backend) Max(x *tensor.RawTensor) *tensor.RawTensor {
	if x.NumElements() == 0 {
		panic("max: empty tensor has no maximum")
	}
	switch x.Kind() {
	case tensor.Float:
		return maxImpl[float32](c, x)
	case tensor.Double:
		return maxImpl[float64](c, x)
	case tensor.Int:
		return maxImpl[int32](c, x)
	case tensor.Int64:
		return maxImpl[int64](c, x)
	default:
		panic(fmt.Sprintf("max: unsupported kind %s", x.Kind()))
	}
}

func maxImpl[T tensor.DType](c *Backend, x *tensor.RawTensor) *tensor.RawTensor {
	out := tensor.MustRaw(tensor.Shape{}, x.Kind(), c.device)
	src := tensor.View[T](x)
	best := src[0]
	for _, v := range src[1:] {
		if v > best {
			best = v
		}
	}
	tensor.View[T](out)[0] = best
	return out
}

// SumDim sums along dim. With keepDim the reduced axis stays as size
// one, otherwise it is removed.
func (c *Backend) SumDim(x *tensor.RawTensor, dim int, keepDim bool) *tensor.RawTensor {
	switch x.Kind() {
	case tensor.Float:
		return reduceDim[float32](c, x, dim, keepDim, false)
	case tensor.Double:
		return reduceDim[float64](c, x, dim, keepDim, false)
	case tensor.Int:
		return reduceDim[int32](c, x, dim, keepDim, false)
	case tensor.Int64:
		return reduceDim[int64](c, x, dim, keepDim, false)
	default:
		panic(fmt.Sprintf("sumdim: unsupported kind %s", x.Kind()))
	}
}

// MeanDim averages along dim. Only defined for the floating kinds.
func (c *Backend) MeanDim(x *tensor.RawTensor, dim int, keepDim bool) *tensor.RawTensor {
	switch x.Kind() {
	case tensor.Float:
		return reduceDim[float32](c, x, dim, keepDim, true)
	case tensor.Double:
		return reduceDim[float64](c, x, dim, keepDim, true)
	default:
		panic(fmt.Sprintf("meandim: unsupported kind %s (want float32 or float64)", x.Kind()))
	}
}

// reduceDim collapses dim by summation. Slices decompose exactly as in
// softmaxImpl; slice s lands at output flat index s because removing
// the reduced axis leaves the (outer, inner) layout intact.
func reduceDim[T tensor.DType](c *Backend, x *tensor.RawTensor, dim int, keepDim, mean bool) *tensor.RawTensor {
	shape := x.Shape()
	dim = tensor.NormalizeAxis(dim, shape.Rank())

	out := tensor.MustRaw(reducedShape(shape, dim, keepDim), x.Kind(), c.device)
	src := tensor.View[T](x)
	dst := tensor.View[T](out)

	dimSize := shape[dim]
	dimStride := shape.ComputeStrides()[dim]
	n := x.NumElements()

	parallel.For(n/dimSize, func(s int) {
		base := (s/dimStride)*dimStride*dimSize + s%dimStride
		var acc T
		for k := 0; k < dimSize; k++ {
			acc += src[base+k*dimStride]
		}
		if mean {
			acc /= T(dimSize)
		}
		dst[s] = acc
	}, c.sliceCfg(n))

	return out
}

// MaxDim takes the maximum along dim. With keepDim the reduced axis
// stays as size one, otherwise it is removed.
func (c *Backend) MaxDim(x *tensor.RawTensor, dim int, keepDim bool) *tensor.RawTensor {
	switch x.Kind() {
	case tensor.Float:
		return maxDimImpl[float32](c, x, dim, keepDim)
	case tensor.Double:
		return maxDimImpl[float64](c, x, dim, keepDim)
	case tensor.Int:
		return maxDimImpl[int32](c, x, dim, keepDim)
	case tensor.Int64:
		return maxDimImpl[int64](c, x, dim, keepDim)
	default:
		panic(fmt.Sprintf("maxdim: unsupported kind %s", x.Kind()))
	}
}

func maxDimImpl[T tensor.DType](c *Backend, x *tensor.RawTensor, dim int, keepDim bool) *tensor.RawTensor {
	shape := x.Shape()
	dim = tensor.NormalizeAxis(dim, shape.Rank())

	out := tensor.MustRaw(reducedShape(shape, dim, keepDim), x.Kind(), c.device)
	src := tensor.View[T](x)
	dst := tensor.View[T](out)

	dimSize := shape[dim]
	dimStride := shape.ComputeStrides()[dim]
	n := x.NumElements()

	parallel.For(n/dimSize, func(s int) {
		base := (s/dimStride)*dimStride*dimSize + s%dimStride
		best := src[base]
		for k := 1; k < dimSize; k++ {
			if v := src[base+k*dimStride]; v > best {
				best = v
			}
		}
		dst[s] = best
	}, c.sliceCfg(n))

	return out
}

// Argmax returns int32 indices of the maximum along dim; the reduced
// axis is removed. Ties resolve to the first occurrence.
func (c *Backend) Argmax(x *tensor.RawTensor, dim int) *tensor.RawTensor {
	switch x.Kind() {
	case tensor.Float:
		return argmaxImpl[float32](c, x, dim)
	case tensor.Double:
		return argmaxImpl[float64](c, x, dim)
	case tensor.Int:
		return argmaxImpl[int32](c, x, dim)
	case tensor.Int64:
		return argmaxImpl[int64](c, x, dim)
	default:
		panic(fmt.Sprintf("argmax: unsupported kind %s", x.Kind()))
	}
}

func argmaxImpl[T tensor.DType](c *Backend, x *tensor.RawTensor, dim int) *tensor.RawTensor {
	shape := x.Shape()
	dim = tensor.NormalizeAxis(dim, shape.Rank())

	out := tensor.MustRaw(reducedShape(shape, dim, false), tensor.Int, c.device)
	src := tensor.View[T](x)
	dst := tensor.View[int32](out)

	dimSize := shape[dim]
	dimStride := shape.ComputeStrides()[dim]
	n := x.NumElements()

	parallel.For(n/dimSize, func(s int) {
		base := (s/dimStride)*dimStride*dimSize + s%dimStride
		best := src[base]
		bestIdx := 0
		for k := 1; k < dimSize; k++ {
			if v := src[base+k*dimStride]; v > best {
				best, bestIdx = v, k
			}
		}
		dst[s] = int32(bestIdx)
	}, c.sliceCfg(n))

	return out
}

// reducedShape drops or collapses the reduced axis.
func reducedShape(shape tensor.Shape, dim int, keepDim bool) tensor.Shape {
	if keepDim {
		out := shape.Clone()
		out[dim] = 1
		return out
	}
	out := make(tensor.Shape, 0, shape.Rank()-1)
	for i, d := range shape {
		if i != dim {
			out = append(out, d)
		}
	}
	return out
}
