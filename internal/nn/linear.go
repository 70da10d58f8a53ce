package nn

import (
	"fmt"

	"github.com/nilslice/tch-go/internal/tensor"
)

// Linear is a fully connected layer computing y = x @ W^T + b.
//
//   - x: [batch, inFeatures]
//   - W: [outFeatures, inFeatures], Xavier initialized
//   - b: [outFeatures], zero initialized
//   - y: [batch, outFeatures]
//
// The weight and bias register on the given path as "weight" and
// "bias":
//
//	layer := nn.NewLinear(vs.Root().Sub("l1"), 784, 128)
type Linear[B tensor.Backend] struct {
	inFeatures  int
	outFeatures int
	weight      *Parameter[B]
	bias        *Parameter[B]
}

// NewLinear creates a Linear layer and registers its parameters under
// path.
func NewLinear[B tensor.Backend](path *Path[B], inFeatures, outFeatures int) *Linear[B] {
	layer := NewLinearNoBias(path, inFeatures, outFeatures)
	layer.bias = path.Add("bias", Zeros(tensor.Shape{outFeatures}, path.Backend()))
	return layer
}

// NewLinearNoBias creates a Linear layer computing y = x @ W^T, with no
// bias term.
func NewLinearNoBias[B tensor.Backend](path *Path[B], inFeatures, outFeatures int) *Linear[B] {
	weightShape := tensor.Shape{outFeatures, inFeatures}
	weight := path.Add("weight", Xavier(inFeatures, outFeatures, weightShape, path.Backend()))

	return &Linear[B]{
		inFeatures:  inFeatures,
		outFeatures: outFeatures,
		weight:      weight,
	}
}

// Forward applies the affine transformation to a [batch, inFeatures]
// input and returns [batch, outFeatures].
func (l *Linear[B]) Forward(input *tensor.Tensor[float32, B]) *tensor.Tensor[float32, B] {
	shape := input.Shape()
	if shape.Rank() != 2 {
		panic(fmt.Sprintf("Linear.Forward: expected 2D input [batch, features], got shape %v", shape))
	}
	if shape[1] != l.inFeatures {
		panic(fmt.Sprintf("Linear.Forward: expected input with %d features, got %d", l.inFeatures, shape[1]))
	}

	// [batch, in] @ [in, out] = [batch, out]
	output := input.MatMul(l.weight.Tensor().T())

	if l.bias != nil {
		// [outFeatures] reshaped to [1, outFeatures] broadcasts over
		// the batch axis.
		output = output.Add(l.bias.Tensor().Reshape(1, l.outFeatures))
	}
	return output
}

// Parameters returns the weight and bias.
func (l *Linear[B]) Parameters() []*Parameter[B] {
	if l.bias != nil {
		return []*Parameter[B]{l.weight, l.bias}
	}
	return []*Parameter[B]{l.weight}
}

// Weight returns the weight parameter.
func (l *Linear[B]) Weight() *Parameter[B] { return l.weight }

// Bias returns the bias parameter.
func (l *Linear[B]) Bias() *Parameter[B] { return l.bias }

// InFeatures returns the input width.
func (l *Linear[B]) InFeatures() int { return l.inFeatures }

// OutFeatures returns the output width.
func (l *Linear[B]) OutFeatures() int { return l.outFeatures }
