package cpu

import (
	"fmt"

	"github.com/nilslice/tch-go/internal/parallel"
	"github.com/nilslice/tch-go/internal/tensor"
)

// MatMul computes the 2-D product (M,K) @ (K,N) -> (M,N).
func (c *Backend) MatMul(a, b *tensor.RawTensor) *tensor.RawTensor {
	if a.Kind() != b.Kind() {
		panic(fmt.Sprintf("matmul: kind mismatch: %s vs %s", a.Kind(), b.Kind()))
	}

	as, bs := a.Shape(), b.Shape()
	if as.Rank() != 2 || bs.Rank() != 2 {
		panic(fmt.Sprintf("matmul: want 2-D operands, got %v @ %v", as, bs))
	}
	if as[1] != bs[0] {
		panic(fmt.Sprintf("matmul: inner dimensions differ: %v @ %v", as, bs))
	}

	m, k, n := as[0], as[1], bs[1]

	switch a.Kind() {
	case tensor.Float:
		return matmulImpl[float32](c, a, b, m, k, n)
	case tensor.Double:
		return matmulImpl[float64](c, a, b, m, k, n)
	case tensor.Int:
		return matmulImpl[int32](c, a, b, m, k, n)
	case tensor.Int64:
		return matmulImpl[int64](c, a, b, m, k, n)
	default:
		panic(fmt.Sprintf("matmul: unsupported kind %s", a.Kind()))
	}
}

// matmulImpl uses the i-k-j loop order so the inner loop walks both b
// and the output row contiguously. Rows of the output are independent
// and split across cores.
func matmulImpl[T tensor.DType](c *Backend, a, b *tensor.RawTensor, m, k, n int) *tensor.RawTensor {
	out := tensor.MustRaw(tensor.Shape{m, n}, a.Kind(), c.device)
	av := tensor.View[T](a)
	bv := tensor.View[T](b)
	dst := tensor.View[T](out)

	parallel.For(m, func(i int) {
		row := dst[i*n : (i+1)*n]
		arow := av[i*k : (i+1)*k]
		for p, scale := range arow {
			brow := bv[p*n : (p+1)*n]
			for j, v := range brow {
				row[j] += scale * v
			}
		}
	}, c.sliceCfg(m*n*k))

	return out
}
