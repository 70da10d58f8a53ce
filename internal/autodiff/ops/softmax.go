package ops

import (
	"github.com/nilslice/tch-go/internal/tensor"
)

// SoftmaxOp records s = softmax(x) along dim. dim is stored normalized.
type SoftmaxOp struct {
	input  *tensor.RawTensor
	output *tensor.RawTensor
	dim    int
}

func NewSoftmaxOp(input, output *tensor.RawTensor, dim int) *SoftmaxOp {
	return &SoftmaxOp{input: input, output: output, dim: dim}
}

// Backward uses the Jacobian-vector form
//
//	dL/dx = s * (g - sum_dim(g * s))
//
// which avoids materializing the full Jacobian.
func (op *SoftmaxOp) Backward(outputGrad *tensor.RawTensor, backend tensor.Backend) []*tensor.RawTensor {
	weighted := backend.Mul(outputGrad, op.output)
	total := backend.SumDim(weighted, op.dim, true)
	return []*tensor.RawTensor{backend.Mul(op.output, backend.Sub(outputGrad, total))}
}

func (op *SoftmaxOp) Inputs() []*tensor.RawTensor { return []*tensor.RawTensor{op.input} }
func (op *SoftmaxOp) Output() *tensor.RawTensor { return op.output }

// LogSoftmaxOp records y = log(softmax(x)) along dim.
type LogSoftmaxOp struct {
	input  *tensor.RawTensor
	output *tensor.RawTensor
	dim    int
}

func NewLogSoftmaxOp(input, output *tensor.RawTensor, dim int) *LogSoftmaxOp {
	return &LogSoftmaxOp{input: input, output: output, dim: dim}
}

// Backward recovers softmax(x) as exp(y) from the stored output:
//
//	dL/dx = g - softmax(x) * sum_dim(g)
func (op *LogSoftmaxOp) Backward(outputGrad *tensor.RawTensor, backend tensor.Backend) []*tensor.RawTensor {
	total := backend.SumDim(outputGrad, op.dim, true)
	scaled := backend.Mul(backend.Exp(op.output), total)
	return []*tensor.RawTensor{backend.Sub(outputGrad, scaled)}
}

func (op *LogSoftmaxOp) Inputs() []*tensor.RawTensor { return []*tensor.RawTensor{op.input} }
func (op *LogSoftmaxOp) Output() *tensor.RawTensor { return op.output }
