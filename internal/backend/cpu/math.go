package cpu

import (
	"math"

	"github.com/nilslice/tch-go/internal/tensor"
)

// Exp computes the elementwise exponential.
func (c *Backend) Exp(x *tensor.RawTensor) *tensor.RawTensor {
	return unaryFloat(c, "exp", x, math.Exp)
}

// Log computes the elementwise natural logarithm. Zero maps to -Inf
// and negative input to NaN, following IEEE semantics.
func (c *Backend) Log(x *tensor.RawTensor) *tensor.RawTensor {
	return unaryFloat(c, "log", x, math.Log)
}

// Sqrt computes the elementwise square root. Negative input maps to NaN.
func (c *Backend) Sqrt(x *tensor.RawTensor) *tensor.RawTensor {
	return unaryFloat(c, "sqrt", x, math.Sqrt)
}

// Pow raises every element to the given power, with math.Pow special
// cases (a negative base and fractional exponent map to NaN).
func (c *Backend) Pow(x *tensor.RawTensor, exponent float64) *tensor.RawTensor {
	return unaryFloat(c, "pow", x, func(v float64) float64 { return math.Pow(v, exponent) })
}
