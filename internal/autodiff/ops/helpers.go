package ops

import (
	"github.com/nilslice/tch-go/internal/tensor"
)

// reduceBroadcast sums grad down to target, undoing the broadcasting a
// forward op applied to an input of that shape. Axes the input never
// had are summed away first, then axes the input held at size one.
//
// When no reduction is needed the gradient is returned as a cloned
// handle so that later in-place accumulation cannot corrupt it.
func reduceBroadcast(grad *tensor.RawTensor, target tensor.Shape, backend tensor.Backend) *tensor.RawTensor {
	if grad.Shape().Equal(target) {
		return grad.Clone()
	}

	if target.Rank() == 0 {
		return backend.Sum(grad)
	}

	result := grad
	for result.Shape().Rank() > target.Rank() {
		result = backend.SumDim(result, 0, false)
	}
	for dim, size := range target {
		if size == 1 && result.Shape()[dim] != 1 {
			result = backend.SumDim(result, dim, true)
		}
	}
	if !result.Shape().Equal(target) {
		result = backend.Reshape(result, target)
	}
	return result
}

// keepDimShape returns the input shape with dim collapsed to size one,
// the shape a keepDim reduction over dim produces.
func keepDimShape(input tensor.Shape, dim int) tensor.Shape {
	shape := input.Clone()
	shape[dim] = 1
	return shape
}

// onesRankShape builds a shape of the given rank with every axis at
// size one. Reduction backwards reshape a scalar gradient to it before
// expanding back over the input shape.
func onesRankShape(rank int) tensor.Shape {
	shape := make(tensor.Shape, rank)
	for i := range shape {
		shape[i] = 1
	}
	return shape
}
