package autodiff

import (
	"github.com/nilslice/tch-go/internal/tensor"
)

// BackwardCapable is a backend that carries a gradient tape. The
// autodiff Backend satisfies it for any wrapped backend.
type BackwardCapable interface {
	tensor.Backend
	GetTape() *GradientTape
}

// Backward runs the backward pass from t, seeding its gradient with
// ones, and returns the gradient of every tensor that participated in
// computing it, keyed by raw tensor identity.
//
// t is normally a scalar loss. For a non-scalar t the ones seed makes
// the result the gradient of sum(t).
func Backward[T tensor.DType, B BackwardCapable](t *tensor.Tensor[T, B], backend B) map[*tensor.RawTensor]*tensor.RawTensor {
	seed := tensor.Ones[T](t.Shape(), backend).Raw()
	return backend.GetTape().Backward(t.Raw(), seed, backend)
}

// Grad looks up the gradient of t produced by a previous Backward call
// and wraps it as a typed tensor. The second return is false when t was
// not part of the recorded computation.
func Grad[T tensor.DType, B tensor.Backend](grads map[*tensor.RawTensor]*tensor.RawTensor, t *tensor.Tensor[T, B]) (*tensor.Tensor[T, B], bool) {
	raw, ok := grads[t.Raw()]
	if !ok {
		return nil, false
	}
	return tensor.New[T](raw, t.Backend()), true
}

// NoGrad runs fn with the backend's tape paused and restores the
// previous recording state afterwards. It is the free-function form of
// Backend.NoGrad for code that only holds a BackwardCapable.
func NoGrad[B BackwardCapable](backend B, fn func()) {
	tape := backend.GetTape()
	was := tape.IsRecording()
	tape.StopRecording()
	defer func() {
		if was {
			tape.StartRecording()
		}
	}()
	fn()
}
