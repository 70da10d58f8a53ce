package ops

import (
	"github.com/nilslice/tch-go/internal/tensor"
)

// GatherOp records y = gather(x, dim, index). The index tensor is kept
// for the backward scatter but is not a differentiable input.
type GatherOp struct {
	input  *tensor.RawTensor
	index  *tensor.RawTensor
	output *tensor.RawTensor
	dim    int
}

func NewGatherOp(input, index, output *tensor.RawTensor, dim int) *GatherOp {
	return &GatherOp{input: input, index: index, output: output, dim: dim}
}

// Backward scatter-adds the output gradient back to the positions the
// forward pass read from. Positions never gathered receive zero, and
// positions gathered more than once accumulate.
func (op *GatherOp) Backward(outputGrad *tensor.RawTensor, backend tensor.Backend) []*tensor.RawTensor {
	grad := tensor.MustRaw(op.input.Shape(), op.input.Kind(), op.input.Device())

	srcStrides := op.input.Shape().ComputeStrides()
	outStrides := op.index.Shape().ComputeStrides()
	idx := op.index.AsInt32()

	switch op.input.Kind() {
	case tensor.Float:
		scatterAdd(outputGrad.AsFloat32(), grad.AsFloat32(), idx, srcStrides, outStrides, op.dim)
	case tensor.Double:
		scatterAdd(outputGrad.AsFloat64(), grad.AsFloat64(), idx, srcStrides, outStrides, op.dim)
	case tensor.Int:
		scatterAdd(outputGrad.AsInt32(), grad.AsInt32(), idx, srcStrides, outStrides, op.dim)
	case tensor.Int64:
		scatterAdd(outputGrad.AsInt64(), grad.AsInt64(), idx, srcStrides, outStrides, op.dim)
	}
	return []*tensor.RawTensor{grad}
}

func (op *GatherOp) Inputs() []*tensor.RawTensor { return []*tensor.RawTensor{op.input} }
func (op *GatherOp) Output() *tensor.RawTensor { return op.output }

// scatterAdd is the adjoint of the gather kernel. Indices were bounds
// checked during the forward pass.
func scatterAdd[T tensor.DType](g, dst []T, idx []int32, srcStrides, outStrides []int, dim int) {
	for i := range g {
		rem := i
		srcIdx := int(idx[i]) * srcStrides[dim]
		for d, stride := range outStrides {
			coord := rem / stride
			rem %= stride
			if d != dim {
				srcIdx += coord * srcStrides[d]
			}
		}
		dst[srcIdx] += g[i]
	}
}
