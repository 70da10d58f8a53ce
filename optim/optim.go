// Copyright 2025 The tch-go Authors. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package optim

import (
	"github.com/nilslice/tch-go/internal/autodiff"
	"github.com/nilslice/tch-go/internal/nn"
	"github.com/nilslice/tch-go/internal/optim"
	"github.com/nilslice/tch-go/internal/tensor"
)

// Optimizer is the interface all optimizers implement. It subsumes
// nn.OptimizerState, so any optimizer can ride along in a checkpoint.
type Optimizer = optim.Optimizer

// SGD (stochastic gradient descent)

// SGD is the SGD optimizer with optional momentum, Nesterov momentum
// and weight decay.
type SGD[B tensor.Backend] = optim.SGD[B]

// SGDConfig configures SGD. Zero values fall back to documented
// defaults.
type SGDConfig = optim.SGDConfig

// NewSGD creates an SGD optimizer over the trainable variables of
// store.
//
// Example:
//
//	optimizer := optim.NewSGD(vs, optim.SGDConfig{
//	    LR:       0.01,
//	    Momentum: 0.9,
//	})
func NewSGD[B tensor.Backend](store *nn.VarStore[B], config SGDConfig) *SGD[B] {
	return optim.NewSGD(store, config)
}

// Adam (adaptive moment estimation)

// Adam is the Adam optimizer with bias-corrected moment estimates.
type Adam[B tensor.Backend] = optim.Adam[B]

// AdamConfig configures Adam. Zero values fall back to documented
// defaults.
type AdamConfig = optim.AdamConfig

// NewAdam creates an Adam optimizer over the trainable variables of
// store.
//
// Example:
//
//	optimizer := optim.NewAdam(vs, optim.AdamConfig{LR: 1e-3})
func NewAdam[B tensor.Backend](store *nn.VarStore[B], config AdamConfig) *Adam[B] {
	return optim.NewAdam(store, config)
}

// BackwardStep runs one full training step on loss: zero the stale
// gradients, backpropagate, apply the optimizer update, and clear the
// tape for the next iteration.
func BackwardStep[T tensor.DType, B autodiff.BackwardCapable](loss *tensor.Tensor[T, B], optimizer Optimizer, backend B) {
	optim.BackwardStep(loss, optimizer, backend)
}
