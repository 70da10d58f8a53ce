package autodiff

import (
	"github.com/nilslice/tch-go/internal/autodiff/ops"
	"github.com/nilslice/tch-go/internal/tensor"
)

// GradientTape records operations as they execute so gradients can be
// computed by replaying them in reverse. A tape serves one training
// step at a time: record the forward pass, call Backward, apply the
// gradients, then Clear before the next step.
//
// Tapes are not safe for concurrent use.
type GradientTape struct {
	operations []ops.Operation
	recording  bool
}

// NewGradientTape returns a tape that is not yet recording.
func NewGradientTape() *GradientTape {
	return &GradientTape{}
}

// StartRecording begins capturing operations.
func (t *GradientTape) StartRecording() { t.recording = true }

// StopRecording pauses capture. Operations still execute, they are just
// not recorded.
func (t *GradientTape) StopRecording() { t.recording = false }

// IsRecording reports whether operations are currently captured.
func (t *GradientTape) IsRecording() bool { return t.recording }

// Record appends an operation to the tape.
func (t *GradientTape) Record(op ops.Operation) {
	t.operations = append(t.operations, op)
}

// NumOperations returns the number of recorded operations.
func (t *GradientTape) NumOperations() int { return len(t.operations) }

// Clear drops all recorded operations, keeping capacity for the next
// step. The recording flag is left untouched.
func (t *GradientTape) Clear() {
	t.operations = t.operations[:0]
}

// Backward seeds the gradient of root with outputGrad and propagates it
// through the recorded operations in reverse order, accumulating
// gradients for every tensor on a path to root. Operations whose output
// is not reached by the flow are skipped.
//
// Recording is paused while the backward pass runs so that the gradient
// arithmetic does not extend the tape.
func (t *GradientTape) Backward(root, outputGrad *tensor.RawTensor, backend tensor.Backend) map[*tensor.RawTensor]*tensor.RawTensor {
	wasRecording := t.recording
	t.recording = false
	defer func() { t.recording = wasRecording }()

	grads := make(map[*tensor.RawTensor]*tensor.RawTensor)
	grads[root] = outputGrad

	for i := len(t.operations) - 1; i >= 0; i-- {
		op := t.operations[i]
		outGrad, ok := grads[op.Output()]
		if !ok {
			continue
		}

		inputGrads := op.Backward(outGrad, backend)
		for j, input := range op.Inputs() {
			if existing, ok := grads[input]; ok {
				grads[input] = backend.Add(existing, inputGrads[j])
			} else {
				grads[input] = inputGrads[j]
			}
		}
	}
	return grads
}
