package nn

import (
	"github.com/nilslice/tch-go/internal/tensor"
)

// MSELoss computes mean((predictions - targets)^2), the usual
// regression loss.
//
// The reduction runs through backend operations, so with an autodiff
// backend the loss is recorded on the tape and gradients flow back to
// the predictions.
type MSELoss[B tensor.Backend] struct{}

// NewMSELoss creates an MSE loss function.
func NewMSELoss[B tensor.Backend]() *MSELoss[B] {
	return &MSELoss[B]{}
}

// Forward returns the scalar loss. Predictions and targets must share
// a shape.
func (m *MSELoss[B]) Forward(predictions, targets *tensor.Tensor[float32, B]) *tensor.Tensor[float32, B] {
	if !predictions.Shape().Equal(targets.Shape()) {
		panic("MSELoss: predictions and targets must have the same shape")
	}

	return predictions.Sub(targets).Pow(2).Mean()
}

// Parameters returns nil; loss functions have no trainable state.
func (m *MSELoss[B]) Parameters() []*Parameter[B] {
	return nil
}
