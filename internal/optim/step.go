package optim

import (
	"github.com/nilslice/tch-go/internal/autodiff"
	"github.com/nilslice/tch-go/internal/tensor"
)

// BackwardStep runs one complete training update: it backpropagates
// from loss, applies the optimizer step, and clears the gradient tape
// so the next forward pass starts from a clean slate.
func BackwardStep[T tensor.DType, B autodiff.BackwardCapable](loss *tensor.Tensor[T, B], optimizer Optimizer, backend B) {
	grads := autodiff.Backward(loss, backend)
	optimizer.Step(grads)
	backend.GetTape().Clear()
}
