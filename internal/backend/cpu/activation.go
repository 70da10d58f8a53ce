package cpu

import (
	"math"

	"github.com/nilslice/tch-go/internal/tensor"
)

// ReLU computes max(0, x) elementwise.
func (c *Backend) ReLU(x *tensor.RawTensor) *tensor.RawTensor {
	return unaryFloat(c, "relu", x, func(v float64) float64 {
		if v > 0 {
			return v
		}
		return 0
	})
}

// Sigmoid computes 1 / (1 + exp(-x)) elementwise.
func (c *Backend) Sigmoid(x *tensor.RawTensor) *tensor.RawTensor {
	return unaryFloat(c, "sigmoid", x, func(v float64) float64 {
		return 1 / (1 + math.Exp(-v))
	})
}

// Tanh computes the hyperbolic tangent elementwise.
func (c *Backend) Tanh(x *tensor.RawTensor) *tensor.RawTensor {
	return unaryFloat(c, "tanh", x, math.Tanh)
}
