package ops

import (
	"github.com/nilslice/tch-go/internal/tensor"
)

// SumOp records y = sum(x) over every element, producing a scalar.
type SumOp struct {
	input  *tensor.RawTensor
	output *tensor.RawTensor
}

func NewSumOp(input, output *tensor.RawTensor) *SumOp {
	return &SumOp{input: input, output: output}
}

// Backward spreads the scalar gradient uniformly over the input shape.
func (op *SumOp) Backward(outputGrad *tensor.RawTensor, backend tensor.Backend) []*tensor.RawTensor {
	seed := backend.Reshape(outputGrad, onesRankShape(op.input.Shape().Rank()))
	return []*tensor.RawTensor{backend.Expand(seed, op.input.Shape())}
}

func (op *SumOp) Inputs() []*tensor.RawTensor { return []*tensor.RawTensor{op.input} }
func (op *SumOp) Output() *tensor.RawTensor { return op.output }

// MeanOp records y = mean(x) over every element.
type MeanOp struct {
	input  *tensor.RawTensor
	output *tensor.RawTensor
}

func NewMeanOp(input, output *tensor.RawTensor) *MeanOp {
	return &MeanOp{input: input, output: output}
}

func (op *MeanOp) Backward(outputGrad *tensor.RawTensor, backend tensor.Backend) []*tensor.RawTensor {
	n := op.input.NumElements()
	seed := backend.Reshape(outputGrad, onesRankShape(op.input.Shape().Rank()))
	spread := backend.Expand(seed, op.input.Shape())
	return []*tensor.RawTensor{backend.DivScalar(spread, float64(n))}
}

func (op *MeanOp) Inputs() []*tensor.RawTensor { return []*tensor.RawTensor{op.input} }
func (op *MeanOp) Output() *tensor.RawTensor { return op.output }

// SumDimOp records y = sum(x) along dim. dim is stored normalized.
type SumDimOp struct {
	input   *tensor.RawTensor
	output  *tensor.RawTensor
	dim     int
	keepDim bool
}

func NewSumDimOp(input, output *tensor.RawTensor, dim int, keepDim bool) *SumDimOp {
	return &SumDimOp{input: input, output: output, dim: dim, keepDim: keepDim}
}

// Backward restores the reduced axis at size one if it was dropped,
// then broadcasts the gradient back along it.
func (op *SumDimOp) Backward(outputGrad *tensor.RawTensor, backend tensor.Backend) []*tensor.RawTensor {
	grad := outputGrad
	if !op.keepDim {
		grad = backend.Reshape(grad, keepDimShape(op.input.Shape(), op.dim))
	}
	return []*tensor.RawTensor{backend.Expand(grad, op.input.Shape())}
}

func (op *SumDimOp) Inputs() []*tensor.RawTensor { return []*tensor.RawTensor{op.input} }
func (op *SumDimOp) Output() *tensor.RawTensor { return op.output }

// MeanDimOp records y = mean(x) along dim.
type MeanDimOp struct {
	input   *tensor.RawTensor
	output  *tensor.RawTensor
	dim     int
	keepDim bool
}

func NewMeanDimOp(input, output *tensor.RawTensor, dim int, keepDim bool) *MeanDimOp {
	return &MeanDimOp{input: input, output: output, dim: dim, keepDim: keepDim}
}

func (op *MeanDimOp) Backward(outputGrad *tensor.RawTensor, backend tensor.Backend) []*tensor.RawTensor {
	grad := outputGrad
	if !op.keepDim {
		grad = backend.Reshape(grad, keepDimShape(op.input.Shape(), op.dim))
	}
	spread := backend.Expand(grad, op.input.Shape())
	return []*tensor.RawTensor{backend.DivScalar(spread, float64(op.input.Shape()[op.dim]))}
}

func (op *MeanDimOp) Inputs() []*tensor.RawTensor { return []*tensor.RawTensor{op.input} }
func (op *MeanDimOp) Output() *tensor.RawTensor { return op.output }
