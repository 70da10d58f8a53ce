// Copyright 2025 The tch-go Authors. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package nn

import (
	"github.com/nilslice/tch-go/internal/nn"
	"github.com/nilslice/tch-go/internal/tensor"
)

// Module is the interface every neural network component implements.
type Module[B tensor.Backend] = nn.Module[B]

// Layers

// Linear is a fully connected layer computing x @ W^T + b.
type Linear[B tensor.Backend] = nn.Linear[B]

// NewLinear creates a linear layer with Xavier-initialized weights,
// registering them under path.
//
// Example:
//
//	vs := nn.NewVarStore(backend)
//	layer := nn.NewLinear(vs.Root().Sub("l1"), 784, 128)
func NewLinear[B tensor.Backend](path *Path[B], inFeatures, outFeatures int) *Linear[B] {
	return nn.NewLinear(path, inFeatures, outFeatures)
}

// NewLinearNoBias creates a linear layer without a bias term.
func NewLinearNoBias[B tensor.Backend](path *Path[B], inFeatures, outFeatures int) *Linear[B] {
	return nn.NewLinearNoBias(path, inFeatures, outFeatures)
}

// Activations

// ReLU applies max(0, x) element-wise.
type ReLU[B tensor.Backend] = nn.ReLU[B]

// NewReLU creates a ReLU activation module.
func NewReLU[B tensor.Backend]() *ReLU[B] {
	return nn.NewReLU[B]()
}

// Sigmoid applies 1/(1+exp(-x)) element-wise.
type Sigmoid[B tensor.Backend] = nn.Sigmoid[B]

// NewSigmoid creates a sigmoid activation module.
func NewSigmoid[B tensor.Backend]() *Sigmoid[B] {
	return nn.NewSigmoid[B]()
}

// Tanh applies the hyperbolic tangent element-wise.
type Tanh[B tensor.Backend] = nn.Tanh[B]

// NewTanh creates a tanh activation module.
func NewTanh[B tensor.Backend]() *Tanh[B] {
	return nn.NewTanh[B]()
}

// Containers

// Sequential applies its modules in order.
type Sequential[B tensor.Backend] = nn.Sequential[B]

// NewSequential composes modules into a pipeline.
//
// Example:
//
//	model := nn.NewSequential(
//	    nn.NewLinear(root.Sub("l1"), 4, 32),
//	    nn.NewTanh[B](),
//	    nn.NewLinear(root.Sub("l2"), 32, 2),
//	)
func NewSequential[B tensor.Backend](modules ...Module[B]) *Sequential[B] {
	return nn.NewSequential(modules...)
}

// Losses

// MSELoss is the mean squared error loss.
type MSELoss[B tensor.Backend] = nn.MSELoss[B]

// NewMSELoss creates an MSE loss module.
func NewMSELoss[B tensor.Backend]() *MSELoss[B] {
	return nn.NewMSELoss[B]()
}

// CrossEntropyLoss combines log-softmax and negative log-likelihood
// over class logits.
type CrossEntropyLoss[B tensor.Backend] = nn.CrossEntropyLoss[B]

// NewCrossEntropyLoss creates a cross-entropy loss module.
func NewCrossEntropyLoss[B tensor.Backend]() *CrossEntropyLoss[B] {
	return nn.NewCrossEntropyLoss[B]()
}

// Accuracy returns the fraction of rows where argmax(logits) equals
// the target class.
func Accuracy[B tensor.Backend](logits *tensor.Tensor[float32, B], targets *tensor.Tensor[int32, B]) float32 {
	return nn.Accuracy(logits, targets)
}

// Initialization helpers

// Xavier samples a tensor from the Glorot uniform distribution for the
// given fan-in and fan-out.
func Xavier[B tensor.Backend](fanIn, fanOut int, shape tensor.Shape, backend B) *tensor.Tensor[float32, B] {
	return nn.Xavier(fanIn, fanOut, shape, backend)
}
