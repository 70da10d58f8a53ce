// Package nn implements neural network building blocks: the Module
// interface, trainable Parameters grouped in a VarStore, the Linear
// layer, activations, loss functions, and the Sequential container.
//
// Modules compose into networks the way they do in PyTorch, adapted to
// Go generics:
//
//	vs := nn.NewVarStore(backend)
//	root := vs.Root()
//	model := nn.NewSequential(
//	    nn.NewLinear(root.Sub("l1"), 4, 32),
//	    nn.NewReLU[Backend](),
//	    nn.NewLinear(root.Sub("l2"), 32, 2),
//	)
//
// The VarStore owns every parameter the layers created through its
// paths, so optimizers iterate vs.TrainableVariables() and persistence
// is vs.Save / vs.Load.
package nn

import (
	"github.com/nilslice/tch-go/internal/tensor"
)

// Module is the base interface for all neural network components.
//
// Type parameter B is the backend the module's tensors are bound to.
// Training requires an autodiff-decorated backend so that Forward is
// recorded on the tape.
type Module[B tensor.Backend] interface {
	// Forward computes the module output for the given input.
	Forward(input *tensor.Tensor[float32, B]) *tensor.Tensor[float32, B]

	// Parameters returns the trainable parameters of this module,
	// including those of nested modules. Modules without parameters
	// return an empty slice.
	Parameters() []*Parameter[B]
}
