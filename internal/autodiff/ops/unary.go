package ops

import (
	"github.com/nilslice/tch-go/internal/tensor"
)

// NegOp records y = -x.
type NegOp struct {
	input  *tensor.RawTensor
	output *tensor.RawTensor
}

func NewNegOp(input, output *tensor.RawTensor) *NegOp {
	return &NegOp{input: input, output: output}
}

func (op *NegOp) Backward(outputGrad *tensor.RawTensor, backend tensor.Backend) []*tensor.RawTensor {
	return []*tensor.RawTensor{backend.Neg(outputGrad)}
}

func (op *NegOp) Inputs() []*tensor.RawTensor { return []*tensor.RawTensor{op.input} }
func (op *NegOp) Output() *tensor.RawTensor { return op.output }

// ExpOp records y = exp(x). The output doubles as the local derivative.
type ExpOp struct {
	input  *tensor.RawTensor
	output *tensor.RawTensor
}

func NewExpOp(input, output *tensor.RawTensor) *ExpOp {
	return &ExpOp{input: input, output: output}
}

func (op *ExpOp) Backward(outputGrad *tensor.RawTensor, backend tensor.Backend) []*tensor.RawTensor {
	return []*tensor.RawTensor{backend.Mul(outputGrad, op.output)}
}

func (op *ExpOp) Inputs() []*tensor.RawTensor { return []*tensor.RawTensor{op.input} }
func (op *ExpOp) Output() *tensor.RawTensor { return op.output }

// LogOp records y = ln(x).
type LogOp struct {
	input  *tensor.RawTensor
	output *tensor.RawTensor
}

func NewLogOp(input, output *tensor.RawTensor) *LogOp {
	return &LogOp{input: input, output: output}
}

func (op *LogOp) Backward(outputGrad *tensor.RawTensor, backend tensor.Backend) []*tensor.RawTensor {
	return []*tensor.RawTensor{backend.Div(outputGrad, op.input)}
}

func (op *LogOp) Inputs() []*tensor.RawTensor { return []*tensor.RawTensor{op.input} }
func (op *LogOp) Output() *tensor.RawTensor { return op.output }

// SqrtOp records y = sqrt(x), with d/dx = 1 / (2 * sqrt(x)).
type SqrtOp struct {
	input  *tensor.RawTensor
	output *tensor.RawTensor
}

func NewSqrtOp(input, output *tensor.RawTensor) *SqrtOp {
	return &SqrtOp{input: input, output: output}
}

func (op *SqrtOp) Backward(outputGrad *tensor.RawTensor, backend tensor.Backend) []*tensor.RawTensor {
	return []*tensor.RawTensor{backend.Div(outputGrad, backend.MulScalar(op.output, 2.0))}
}

func (op *SqrtOp) Inputs() []*tensor.RawTensor { return []*tensor.RawTensor{op.input} }
func (op *SqrtOp) Output() *tensor.RawTensor { return op.output }

// PowOp records y = x^p for a fixed scalar exponent, with
// d/dx = p * x^(p-1).
type PowOp struct {
	input    *tensor.RawTensor
	output   *tensor.RawTensor
	exponent float64
}

func NewPowOp(input, output *tensor.RawTensor, exponent float64) *PowOp {
	return &PowOp{input: input, output: output, exponent: exponent}
}

func (op *PowOp) Backward(outputGrad *tensor.RawTensor, backend tensor.Backend) []*tensor.RawTensor {
	local := backend.MulScalar(backend.Pow(op.input, op.exponent-1), op.exponent)
	return []*tensor.RawTensor{backend.Mul(outputGrad, local)}
}

func (op *PowOp) Inputs() []*tensor.RawTensor { return []*tensor.RawTensor{op.input} }
func (op *PowOp) Output() *tensor.RawTensor { return op.output }
