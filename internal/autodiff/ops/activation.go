package ops

import (
	"github.com/nilslice/tch-go/internal/tensor"
)

// ReLUOp records y = max(x, 0).
type ReLUOp struct {
	input  *tensor.RawTensor
	output *tensor.RawTensor
}

func NewReLUOp(input, output *tensor.RawTensor) *ReLUOp {
	return &ReLUOp{input: input, output: output}
}

// Backward masks the output gradient to the positive region of the
// input. The derivative at exactly zero is taken as zero.
func (op *ReLUOp) Backward(outputGrad *tensor.RawTensor, backend tensor.Backend) []*tensor.RawTensor {
	mask := tensor.MustRaw(op.input.Shape(), op.input.Kind(), op.input.Device())
	switch op.input.Kind() {
	case tensor.Float:
		fillStepMask(op.input.AsFloat32(), mask.AsFloat32())
	case tensor.Double:
		fillStepMask(op.input.AsFloat64(), mask.AsFloat64())
	default:
		panic("relu backward: unsupported kind " + op.input.Kind().String())
	}
	return []*tensor.RawTensor{backend.Mul(outputGrad, mask)}
}

func (op *ReLUOp) Inputs() []*tensor.RawTensor { return []*tensor.RawTensor{op.input} }
func (op *ReLUOp) Output() *tensor.RawTensor { return op.output }

func fillStepMask[T float32 | float64](src, dst []T) {
	for i, v := range src {
		if v > 0 {
			dst[i] = 1
		}
	}
}

// SigmoidOp records y = 1 / (1 + exp(-x)), with d/dx = y * (1 - y).
type SigmoidOp struct {
	input  *tensor.RawTensor
	output *tensor.RawTensor
}

func NewSigmoidOp(input, output *tensor.RawTensor) *SigmoidOp {
	return &SigmoidOp{input: input, output: output}
}

func (op *SigmoidOp) Backward(outputGrad *tensor.RawTensor, backend tensor.Backend) []*tensor.RawTensor {
	oneMinus := backend.Neg(backend.SubScalar(op.output, 1.0))
	local := backend.Mul(op.output, oneMinus)
	return []*tensor.RawTensor{backend.Mul(outputGrad, local)}
}

func (op *SigmoidOp) Inputs() []*tensor.RawTensor { return []*tensor.RawTensor{op.input} }
func (op *SigmoidOp) Output() *tensor.RawTensor { return op.output }

// TanhOp records y = tanh(x), with d/dx = 1 - y^2.
type TanhOp struct {
	input  *tensor.RawTensor
	output *tensor.RawTensor
}

func NewTanhOp(input, output *tensor.RawTensor) *TanhOp {
	return &TanhOp{input: input, output: output}
}

func (op *TanhOp) Backward(outputGrad *tensor.RawTensor, backend tensor.Backend) []*tensor.RawTensor {
	local := backend.Neg(backend.SubScalar(backend.Mul(op.output, op.output), 1.0))
	return []*tensor.RawTensor{backend.Mul(outputGrad, local)}
}

func (op *TanhOp) Inputs() []*tensor.RawTensor { return []*tensor.RawTensor{op.input} }
func (op *TanhOp) Output() *tensor.RawTensor { return op.output }
