// Copyright 2025 The tch-go Authors. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package nn provides neural network building blocks.
//
// # Overview
//
// This package contains:
//   - Module: the interface every layer implements
//   - Linear, ReLU, Sigmoid, Tanh: layers and activations
//   - Sequential: ordered composition of modules
//   - MSELoss, CrossEntropyLoss: loss functions, plus Accuracy
//   - VarStore and Path: named, hierarchical parameter storage
//   - Checkpoint: full training snapshots (weights + optimizer state)
//
// # Basic Usage
//
//	import (
//	    "github.com/nilslice/tch-go/autodiff"
//	    "github.com/nilslice/tch-go/backend/cpu"
//	    "github.com/nilslice/tch-go/nn"
//	)
//
//	func main() {
//	    backend := autodiff.New(cpu.New())
//
//	    vs := nn.NewVarStore(backend)
//	    root := vs.Root()
//	    model := nn.NewSequential(
//	        nn.NewLinear(root.Sub("l1"), 784, 128),
//	        nn.NewReLU[*autodiff.Backend[*cpu.Backend]](),
//	        nn.NewLinear(root.Sub("l2"), 128, 10),
//	    )
//
//	    logits := model.Forward(images)
//	}
//
// # Variable Stores
//
// Layers built through a Path register their parameters in the owning
// VarStore under dotted names ("l1.weight", "l1.bias"), the names
// optimizers and checkpoints key on. vs.Save and vs.Load persist the
// weights; Freeze and Unfreeze flip what optimizers may touch.
//
// # Training
//
// Training requires an autodiff backend so that Forward passes land on
// the gradient tape. See the optim package for the update step.
package nn
