// Copyright 2025 The tch-go Authors. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package nn

import (
	"github.com/nilslice/tch-go/internal/nn"
	"github.com/nilslice/tch-go/internal/tensor"
)

// Parameter is a named trainable tensor registered in a VarStore.
type Parameter[B tensor.Backend] = nn.Parameter[B]

// VarStore owns every parameter of a model under dotted names such as
// "l1.weight". Optimizers iterate its trainable variables and
// persistence goes through Save and Load.
type VarStore[B tensor.Backend] = nn.VarStore[B]

// NewVarStore creates an empty store bound to backend.
//
// Example:
//
//	vs := nn.NewVarStore(backend)
//	model := nn.NewLinear(vs.Root().Sub("l1"), 784, 10)
func NewVarStore[B tensor.Backend](backend B) *VarStore[B] {
	return nn.NewVarStore(backend)
}

// Path is a position in a VarStore's name hierarchy. Layers take a
// Path and register their parameters beneath it.
type Path[B tensor.Backend] = nn.Path[B]
