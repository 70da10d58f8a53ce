// Package ops defines the differentiable operations recorded on a
// gradient tape. Each operation keeps handles to its inputs and output
// and knows how to turn the gradient flowing into its output into
// gradients for its inputs.
package ops

import (
	"github.com/nilslice/tch-go/internal/tensor"
)

// Operation is a single recorded step in a computation graph.
//
// Backward receives the gradient of the loss with respect to the
// operation's output and returns one gradient per differentiable input,
// in the same order as Inputs. Implementations compute gradients
// through the supplied backend so that backward passes run on the same
// device as the forward pass.
type Operation interface {
	// Backward computes input gradients from the output gradient.
	Backward(outputGrad *tensor.RawTensor, backend tensor.Backend) []*tensor.RawTensor

	// Inputs returns the differentiable inputs. Tensors an operation
	// consumed but cannot be differentiated against (index tensors,
	// for example) are not listed.
	Inputs() []*tensor.RawTensor

	// Output returns the tensor the operation produced.
	Output() *tensor.RawTensor
}
