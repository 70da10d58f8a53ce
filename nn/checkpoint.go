// Copyright 2025 The tch-go Authors. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package nn

import (
	"github.com/nilslice/tch-go/internal/nn"
	"github.com/nilslice/tch-go/internal/tensor"
)

// OptimizerState is the slice of an optimizer a checkpoint records.
// The optim package's SGD and Adam implement it.
type OptimizerState = nn.OptimizerState

// Checkpoint is a full training snapshot: model weights, optimizer
// buffers, and where training stood when it was taken.
//
// Example:
//
//	ckpt := &nn.Checkpoint[B]{Store: vs, Optimizer: opt, Epoch: 10, Loss: 0.12}
//	if err := ckpt.Save("run.tch"); err != nil { ... }
//
//	ckpt, err := nn.LoadCheckpoint("run.tch", vs, opt)
//	startEpoch := ckpt.Epoch + 1
type Checkpoint[B tensor.Backend] = nn.Checkpoint[B]

// LoadCheckpoint restores store and optimizer from a checkpoint file
// and returns the recorded training position.
func LoadCheckpoint[B tensor.Backend](path string, store *VarStore[B], optimizer OptimizerState) (*Checkpoint[B], error) {
	return nn.LoadCheckpoint(path, store, optimizer)
}

// SaveCheckpoint writes a snapshot of store and optimizer at the given
// epoch. For control over step, loss and metadata, build a Checkpoint
// and call its Save method.
func SaveCheckpoint[B tensor.Backend](path string, store *VarStore[B], optimizer OptimizerState, epoch int) error {
	return nn.SaveCheckpoint(path, store, optimizer, epoch)
}
