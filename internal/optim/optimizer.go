// Package optim implements the optimizers used to train models.
//
// An optimizer binds to a VarStore and updates its variables in place
// from the gradient map produced by autodiff.Backward:
//
//	vs := nn.NewVarStore(backend)
//	model := nn.NewLinear(vs.Root().Sub("l1"), 784, 10)
//	optimizer := optim.NewAdam(vs, optim.AdamConfig{LR: 1e-3})
//
//	for step := 0; step < steps; step++ {
//	    loss := criterion.Forward(model.Forward(x), y)
//	    optim.BackwardStep(loss, optimizer, backend)
//	}
//
// Updates run directly on the raw buffers, so stepping never records
// onto the gradient tape and parameter tensor handles stay stable
// across steps.
package optim

import (
	"github.com/nilslice/tch-go/internal/nn"
	"github.com/nilslice/tch-go/internal/tensor"
)

// Optimizer is the interface shared by all optimization algorithms.
// It subsumes nn.OptimizerState, so any optimizer can ride along in a
// checkpoint.
type Optimizer interface {
	// Step applies one update to every variable that has a gradient in
	// grads. Variables absent from the map are left untouched.
	Step(grads map[*tensor.RawTensor]*tensor.RawTensor)

	// ZeroGrad clears the gradient handles of all variables.
	ZeroGrad()

	// LR returns the current learning rate.
	LR() float64

	// SetLR replaces the learning rate. Used by schedules.
	SetLR(lr float64)

	// Name identifies the algorithm in checkpoint headers.
	Name() string

	// StateDict exports the optimizer's internal buffers.
	StateDict() map[string]*tensor.RawTensor

	// LoadStateDict restores internal buffers from a checkpoint.
	LoadStateDict(stateDict map[string]*tensor.RawTensor) error
}

// getGradient returns the gradient recorded for param, or nil when the
// parameter was not part of the traced computation.
func getGradient[B tensor.Backend](param *nn.Parameter[B], grads map[*tensor.RawTensor]*tensor.RawTensor) *tensor.RawTensor {
	if param == nil {
		return nil
	}
	return grads[param.Tensor().Raw()]
}
