package nn

import (
	"fmt"

	"github.com/nilslice/tch-go/internal/tensor"
)

// CrossEntropyLoss computes the multi-class classification loss
//
//	loss = -mean(log_softmax(logits)[target])
//
// as the LogSoftmax + negative log likelihood decomposition. The
// log-sum-exp trick inside LogSoftmax keeps the loss finite for large
// logits, and every step runs through backend operations, so an
// autodiff backend records the whole chain and produces the
// softmax-minus-one-hot gradient without a custom backward.
type CrossEntropyLoss[B tensor.Backend] struct{}

// NewCrossEntropyLoss creates a cross-entropy loss function.
func NewCrossEntropyLoss[B tensor.Backend]() *CrossEntropyLoss[B] {
	return &CrossEntropyLoss[B]{}
}

// Forward computes the mean loss over the batch.
//
// logits must be [batch, classes]; targets holds one class index per
// batch row.
func (c *CrossEntropyLoss[B]) Forward(
	logits *tensor.Tensor[float32, B],
	targets *tensor.Tensor[int32, B],
) *tensor.Tensor[float32, B] {
	shape := logits.Shape()
	if shape.Rank() != 2 {
		panic(fmt.Sprintf("CrossEntropyLoss: logits must be 2D [batch, classes], got %v", shape))
	}
	if targets.NumElements() != shape[0] {
		panic(fmt.Sprintf("CrossEntropyLoss: expected %d targets, got %d", shape[0], targets.NumElements()))
	}

	logProbs := logits.LogSoftmax(1)
	picked := logProbs.Gather(1, targets.Reshape(shape[0], 1))
	return picked.Mean().Neg()
}

// Parameters returns nil; loss functions have no trainable state.
func (c *CrossEntropyLoss[B]) Parameters() []*Parameter[B] {
	return nil
}

// Accuracy returns the fraction of rows where the argmax of the logits
// equals the target class. Not differentiable; safe to call inside a
// training loop since index extraction is never recorded on a tape.
func Accuracy[B tensor.Backend](
	logits *tensor.Tensor[float32, B],
	targets *tensor.Tensor[int32, B],
) float32 {
	predictions := logits.Argmax(1).Data()
	targetData := targets.Data()
	if len(predictions) != len(targetData) {
		panic(fmt.Sprintf("Accuracy: %d predictions vs %d targets", len(predictions), len(targetData)))
	}

	correct := 0
	for i, p := range predictions {
		if p == targetData[i] {
			correct++
		}
	}
	return float32(correct) / float32(len(predictions))
}
