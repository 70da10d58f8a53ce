package cpu

import (
	"fmt"

	"github.com/nilslice/tch-go/internal/tensor"
)

// Cast converts x to another element kind. Casting to the same kind
// returns x unchanged. Float to int truncates toward zero.
func (c *Backend) Cast(x *tensor.RawTensor, kind tensor.Kind) *tensor.RawTensor {
	if x.Kind() == kind {
		return x
	}

	switch x.Kind() {
	case tensor.Float:
		return castFrom[float32](c, x, kind)
	case tensor.Double:
		return castFrom[float64](c, x, kind)
	case tensor.Int:
		return castFrom[int32](c, x, kind)
	case tensor.Int64:
		return castFrom[int64](c, x, kind)
	default:
		panic(fmt.Sprintf("cast: unsupported source kind %s", x.Kind()))
	}
}

func castFrom[From tensor.DType](c *Backend, x *tensor.RawTensor, kind tensor.Kind) *tensor.RawTensor {
	out := tensor.MustRaw(x.Shape(), kind, c.device)
	src := tensor.View[From](x)

	switch kind {
	case tensor.Float:
		castInto(src, tensor.View[float32](out))
	case tensor.Double:
		castInto(src, tensor.View[float64](out))
	case tensor.Int:
		castInto(src, tensor.View[int32](out))
	case tensor.Int64:
		castInto(src, tensor.View[int64](out))
	default:
		panic(fmt.Sprintf("cast: unsupported target kind %s", kind))
	}

	return out
}

func castInto[From, To tensor.DType](src []From, dst []To) {
	for i, v := range src {
		dst[i] = To(v)
	}
}
