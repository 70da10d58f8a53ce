package nn

import (
	"github.com/nilslice/tch-go/internal/tensor"
)

// Parameter is a trainable tensor with an attached gradient slot.
//
// Parameters are created through a VarStore path, which gives each one
// a unique dotted name ("l1.weight") used for optimizer state and
// persistence.
type Parameter[B tensor.Backend] struct {
	name      string
	tensor    *tensor.Tensor[float32, B]
	grad      *tensor.Tensor[float32, B]
	trainable bool
}

// Name returns the full dotted name of the parameter.
func (p *Parameter[B]) Name() string {
	return p.name
}

// Trainable reports whether optimizers should update this parameter.
func (p *Parameter[B]) Trainable() bool {
	return p.trainable
}

// SetTrainable marks the parameter as updatable or frozen.
func (p *Parameter[B]) SetTrainable(trainable bool) {
	p.trainable = trainable
}

// Tensor returns the parameter value.
func (p *Parameter[B]) Tensor() *tensor.Tensor[float32, B] {
	return p.tensor
}

// Grad returns the gradient computed by the last backward pass, or nil
// before the first one.
func (p *Parameter[B]) Grad() *tensor.Tensor[float32, B] {
	return p.grad
}

// SetGrad installs a gradient. Called by the optimizer's backward step.
func (p *Parameter[B]) SetGrad(grad *tensor.Tensor[float32, B]) {
	p.grad = grad
}

// ZeroGrad drops the gradient so the next step starts clean.
func (p *Parameter[B]) ZeroGrad() {
	p.grad = nil
}
