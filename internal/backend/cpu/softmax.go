package cpu

import (
	"fmt"
	"math"

	"github.com/nilslice/tch-go/internal/parallel"
	"github.com/nilslice/tch-go/internal/tensor"
)

// floats constrains softmax kernels to the two floating kinds.
type floats interface {
	~float32 | ~float64
}

// Softmax normalizes x into probabilities along dim.
func (c *Backend) Softmax(x *tensor.RawTensor, dim int) *tensor.RawTensor {
	switch x.Kind() {
	case tensor.Float:
		return softmaxImpl[float32](c, x, dim, false)
	case tensor.Double:
		return softmaxImpl[float64](c, x, dim, false)
	default:
		panic(fmt.Sprintf("softmax: unsupported kind %s (want float32 or float64)", x.Kind()))
	}
}

// LogSoftmax computes log(softmax(x)) along dim in one pass using the
// log-sum-exp trick, which keeps large negative logits finite where
// Log(Softmax(x)) would underflow to -Inf.
func (c *Backend) LogSoftmax(x *tensor.RawTensor, dim int) *tensor.RawTensor {
	switch x.Kind() {
	case tensor.Float:
		return softmaxImpl[float32](c, x, dim, true)
	case tensor.Double:
		return softmaxImpl[float64](c, x, dim, true)
	default:
		panic(fmt.Sprintf("logsoftmax: unsupported kind %s (want float32 or float64)", x.Kind()))
	}
}

// softmaxImpl walks every 1-D slice along dim. A slice s decomposes as
// (outer, inner) with inner = stride(dim); its elements sit at
// base + k*stride(dim).
func softmaxImpl[T floats](c *Backend, x *tensor.RawTensor, dim int, logOut bool) *tensor.RawTensor {
	shape := x.Shape()
	dim = tensor.NormalizeAxis(dim, shape.Rank())

	dimSize := shape[dim]
	dimStride := shape.ComputeStrides()[dim]

	out := tensor.MustRaw(shape, x.Kind(), c.device)
	src := tensor.View[T](x)
	dst := tensor.View[T](out)

	n := x.NumElements()
	slices := n / dimSize

	parallel.For(slices, func(s int) {
		base := (s/dimStride)*dimStride*dimSize + s%dimStride

		maxv := src[base]
		for k := 1; k < dimSize; k++ {
			if v := src[base+k*dimStride]; v > maxv {
				maxv = v
			}
		}

		var sum float64
		for k := 0; k < dimSize; k++ {
			sum += math.Exp(float64(src[base+k*dimStride] - maxv))
		}

		if logOut {
			logSum := math.Log(sum)
			for k := 0; k < dimSize; k++ {
				i := base + k*dimStride
				dst[i] = T(float64(src[i]-maxv) - logSum)
			}
		} else {
			inv := 1 / sum
			for k := 0; k < dimSize; k++ {
				i := base + k*dimStride
				dst[i] = T(math.Exp(float64(src[i]-maxv)) * inv)
			}
		}
	}, c.sliceCfg(n))

	return out
}
