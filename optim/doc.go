// Copyright 2025 The tch-go Authors. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package optim provides optimizers for training neural networks.
//
// # Overview
//
// This package contains:
//   - SGD: stochastic gradient descent with momentum and weight decay
//   - Adam: adaptive moments with bias correction
//   - Optimizer: the interface both implement
//   - BackwardStep: the zero-grad / backward / step / clear-tape cycle
//
// # Basic Usage
//
//	import (
//	    "github.com/nilslice/tch-go/autodiff"
//	    "github.com/nilslice/tch-go/backend/cpu"
//	    "github.com/nilslice/tch-go/nn"
//	    "github.com/nilslice/tch-go/optim"
//	)
//
//	func main() {
//	    backend := autodiff.New(cpu.New())
//
//	    vs := nn.NewVarStore(backend)
//	    model := nn.NewLinear(vs.Root().Sub("lin"), 784, 10)
//	    optimizer := optim.NewAdam(vs, optim.AdamConfig{LR: 1e-3})
//
//	    for epoch := 0; epoch < 10; epoch++ {
//	        logits := model.Forward(images)
//	        loss := criterion.Forward(logits, labels)
//	        optim.BackwardStep(loss, optimizer, backend)
//	    }
//	}
//
// # The Update Cycle
//
// BackwardStep bundles the full training step: it zeroes stale
// gradients, runs the backward pass from the loss, applies the
// optimizer update, and clears the tape so the next iteration starts
// clean. The pieces are also available separately for custom loops:
//
//	optimizer.ZeroGrad()
//	grads := autodiff.Backward(loss, backend)
//	optimizer.Step(grads)
//	backend.GetTape().Clear()
//
// # Checkpointing
//
// Both optimizers expose StateDict and LoadStateDict, so momentum and
// moment buffers survive a save/restore through nn.Checkpoint and
// training resumes where it stopped.
package optim
