package optim

import (
	"fmt"

	"github.com/nilslice/tch-go/internal/nn"
	"github.com/nilslice/tch-go/internal/tensor"
)

// SGDConfig configures stochastic gradient descent.
type SGDConfig struct {
	// LR is the learning rate. Defaults to 0.01 when zero.
	LR float64

	// Momentum enables classical momentum when non-zero.
	Momentum float64

	// WeightDecay adds L2 regularization when non-zero.
	WeightDecay float64

	// Nesterov switches the momentum update to Nesterov's variant.
	// Only meaningful when Momentum is non-zero.
	Nesterov bool
}

// SGD implements stochastic gradient descent with optional momentum,
// Nesterov momentum, and weight decay.
//
// Momentum buffers are keyed by variable name, so state survives a
// save/load cycle even when the store is rebuilt.
type SGD[B tensor.Backend] struct {
	store       *nn.VarStore[B]
	lr          float64
	momentum    float64
	weightDecay float64
	nesterov    bool

	// buffers holds one velocity tensor per variable, created on the
	// first step that sees a gradient for it.
	buffers map[string]*tensor.RawTensor
}

var _ Optimizer = (*SGD[*tensor.MockBackend])(nil)
var _ nn.OptimizerState = (*SGD[*tensor.MockBackend])(nil)

// NewSGD creates an SGD optimizer over all trainable variables of the
// store, including ones registered after this call.
func NewSGD[B tensor.Backend](store *nn.VarStore[B], config SGDConfig) *SGD[B] {
	lr := config.LR
	if lr == 0 {
		lr = 0.01
	}
	return &SGD[B]{
		store:       store,
		lr:          lr,
		momentum:    config.Momentum,
		weightDecay: config.WeightDecay,
		nesterov:    config.Nesterov,
		buffers:     make(map[string]*tensor.RawTensor),
	}
}

// Step updates every variable that has a gradient in grads.
func (s *SGD[B]) Step(grads map[*tensor.RawTensor]*tensor.RawTensor) {
	lr := float32(s.lr)
	momentum := float32(s.momentum)
	weightDecay := float32(s.weightDecay)

	for _, param := range s.store.TrainableVariables() {
		grad := getGradient(param, grads)
		if grad == nil {
			continue
		}
		param.SetGrad(tensor.New[float32](grad, s.store.Backend()))

		paramData := param.Tensor().Raw().AsFloat32()
		gradData := grad.AsFloat32()

		var buf []float32
		if momentum != 0 {
			buf = s.momentumBuffer(param.Name(), grad).AsFloat32()
		}

		for i := range paramData {
			g := gradData[i]
			if weightDecay != 0 {
				g += weightDecay * paramData[i]
			}
			if momentum != 0 {
				buf[i] = momentum*buf[i] + g
				if s.nesterov {
					g += momentum * buf[i]
				} else {
					g = buf[i]
				}
			}
			paramData[i] -= lr * g
		}
	}
}

// momentumBuffer returns the velocity buffer for name, allocating a
// zeroed one shaped like grad on first use.
func (s *SGD[B]) momentumBuffer(name string, grad *tensor.RawTensor) *tensor.RawTensor {
	if buf, ok := s.buffers[name]; ok {
		return buf
	}
	buf := tensor.MustRaw(grad.Shape().Clone(), tensor.Float, grad.Device())
	s.buffers[name] = buf
	return buf
}

// ZeroGrad clears the gradients of all variables in the store.
func (s *SGD[B]) ZeroGrad() {
	s.store.ZeroGrad()
}

// LR returns the current learning rate.
func (s *SGD[B]) LR() float64 {
	return s.lr
}

// SetLR replaces the learning rate.
func (s *SGD[B]) SetLR(lr float64) {
	s.lr = lr
}

// Name returns "SGD".
func (s *SGD[B]) Name() string {
	return "SGD"
}

// StateDict exports the momentum buffers keyed by
// "{variable}.momentum_buffer". Stateless configurations export an
// empty map.
func (s *SGD[B]) StateDict() map[string]*tensor.RawTensor {
	stateDict := make(map[string]*tensor.RawTensor, len(s.buffers))
	for name, buf := range s.buffers {
		stateDict[name+".momentum_buffer"] = buf
	}
	return stateDict
}

// LoadStateDict restores momentum buffers from a checkpoint. Buffers
// for variables the store does not know are ignored, and variables
// without a saved buffer start fresh on the next step.
func (s *SGD[B]) LoadStateDict(stateDict map[string]*tensor.RawTensor) error {
	for _, param := range s.store.TrainableVariables() {
		buf, ok := stateDict[param.Name()+".momentum_buffer"]
		if !ok {
			continue
		}
		if !buf.Shape().Equal(param.Tensor().Raw().Shape()) {
			return fmt.Errorf("momentum buffer %q: shape %v does not match variable shape %v",
				param.Name(), buf.Shape(), param.Tensor().Raw().Shape())
		}
		s.buffers[param.Name()] = buf
	}
	return nil
}
