package optim

import (
	"fmt"
	"math"

	"github.com/nilslice/tch-go/internal/nn"
	"github.com/nilslice/tch-go/internal/tensor"
)

// AdamConfig configures the Adam optimizer.
type AdamConfig struct {
	// LR is the learning rate. Defaults to 1e-3 when zero.
	LR float64

	// Betas are the exponential decay rates for the first and second
	// moment estimates. Defaults to {0.9, 0.999} when zero.
	Betas [2]float64

	// Eps is added to the denominator for numerical stability.
	// Defaults to 1e-8 when zero.
	Eps float64

	// WeightDecay adds L2 regularization when non-zero.
	WeightDecay float64
}

// Adam implements the Adam optimizer (Kingma and Ba, 2015) with
// bias-corrected first and second moment estimates.
//
// Moment buffers are keyed by variable name and the timestep is part
// of the state dict, so resuming from a checkpoint continues the bias
// correction schedule exactly where it stopped.
type Adam[B tensor.Backend] struct {
	store       *nn.VarStore[B]
	lr          float64
	beta1       float64
	beta2       float64
	eps         float64
	weightDecay float64

	// step counts completed updates. Bias correction depends on it.
	step int64

	expAvg   map[string]*tensor.RawTensor
	expAvgSq map[string]*tensor.RawTensor
}

var _ Optimizer = (*Adam[*tensor.MockBackend])(nil)
var _ nn.OptimizerState = (*Adam[*tensor.MockBackend])(nil)

// NewAdam creates an Adam optimizer over all trainable variables of
// the store, including ones registered after this call.
func NewAdam[B tensor.Backend](store *nn.VarStore[B], config AdamConfig) *Adam[B] {
	lr := config.LR
	if lr == 0 {
		lr = 1e-3
	}
	beta1, beta2 := config.Betas[0], config.Betas[1]
	if beta1 == 0 {
		beta1 = 0.9
	}
	if beta2 == 0 {
		beta2 = 0.999
	}
	eps := config.Eps
	if eps == 0 {
		eps = 1e-8
	}
	return &Adam[B]{
		store:       store,
		lr:          lr,
		beta1:       beta1,
		beta2:       beta2,
		eps:         eps,
		weightDecay: config.WeightDecay,
		expAvg:      make(map[string]*tensor.RawTensor),
		expAvgSq:    make(map[string]*tensor.RawTensor),
	}
}

// Step updates every variable that has a gradient in grads and
// advances the timestep.
func (a *Adam[B]) Step(grads map[*tensor.RawTensor]*tensor.RawTensor) {
	a.step++

	lr := float32(a.lr)
	beta1 := float32(a.beta1)
	beta2 := float32(a.beta2)
	eps := float32(a.eps)
	weightDecay := float32(a.weightDecay)
	biasCorrection1 := float32(1 - math.Pow(a.beta1, float64(a.step)))
	biasCorrection2 := float32(1 - math.Pow(a.beta2, float64(a.step)))

	for _, param := range a.store.TrainableVariables() {
		grad := getGradient(param, grads)
		if grad == nil {
			continue
		}
		param.SetGrad(tensor.New[float32](grad, a.store.Backend()))

		paramData := param.Tensor().Raw().AsFloat32()
		gradData := grad.AsFloat32()
		mData := a.momentBuffer(a.expAvg, param.Name(), grad).AsFloat32()
		vData := a.momentBuffer(a.expAvgSq, param.Name(), grad).AsFloat32()

		for i := range paramData {
			g := gradData[i]
			if weightDecay != 0 {
				g += weightDecay * paramData[i]
			}
			mData[i] = beta1*mData[i] + (1-beta1)*g
			vData[i] = beta2*vData[i] + (1-beta2)*g*g

			mHat := mData[i] / biasCorrection1
			vHat := vData[i] / biasCorrection2
			paramData[i] -= lr * mHat / (float32(math.Sqrt(float64(vHat))) + eps)
		}
	}
}

// momentBuffer returns the buffer for name in the given map,
// allocating a zeroed one shaped like grad on first use.
func (a *Adam[B]) momentBuffer(buffers map[string]*tensor.RawTensor, name string, grad *tensor.RawTensor) *tensor.RawTensor {
	if buf, ok := buffers[name]; ok {
		return buf
	}
	buf := tensor.MustRaw(grad.Shape().Clone(), tensor.Float, grad.Device())
	buffers[name] = buf
	return buf
}

// ZeroGrad clears the gradients of all variables in the store.
func (a *Adam[B]) ZeroGrad() {
	a.store.ZeroGrad()
}

// LR returns the current learning rate.
func (a *Adam[B]) LR() float64 {
	return a.lr
}

// SetLR replaces the learning rate.
func (a *Adam[B]) SetLR(lr float64) {
	a.lr = lr
}

// Name returns "Adam".
func (a *Adam[B]) Name() string {
	return "Adam"
}

// Timestep returns the number of completed updates.
func (a *Adam[B]) Timestep() int64 {
	return a.step
}

// StateDict exports the moment buffers keyed by "{variable}.exp_avg"
// and "{variable}.exp_avg_sq", plus the timestep under "step".
func (a *Adam[B]) StateDict() map[string]*tensor.RawTensor {
	stateDict := make(map[string]*tensor.RawTensor, 2*len(a.expAvg)+1)
	for name, buf := range a.expAvg {
		stateDict[name+".exp_avg"] = buf
	}
	for name, buf := range a.expAvgSq {
		stateDict[name+".exp_avg_sq"] = buf
	}

	step := tensor.MustRaw(tensor.Shape{1}, tensor.Int64, tensor.CPU)
	step.AsInt64()[0] = a.step
	stateDict["step"] = step

	return stateDict
}

// LoadStateDict restores moment buffers and the timestep from a
// checkpoint. Variables without saved buffers start fresh on the next
// step.
func (a *Adam[B]) LoadStateDict(stateDict map[string]*tensor.RawTensor) error {
	if step, ok := stateDict["step"]; ok {
		if step.Kind() != tensor.Int64 || step.NumElements() != 1 {
			return fmt.Errorf("adam state: \"step\" must be a single int64, got %s %v", step.Kind(), step.Shape())
		}
		a.step = step.AsInt64()[0]
	}

	for _, param := range a.store.TrainableVariables() {
		if err := a.loadBuffer(a.expAvg, stateDict, param, ".exp_avg"); err != nil {
			return err
		}
		if err := a.loadBuffer(a.expAvgSq, stateDict, param, ".exp_avg_sq"); err != nil {
			return err
		}
	}
	return nil
}

func (a *Adam[B]) loadBuffer(buffers map[string]*tensor.RawTensor, stateDict map[string]*tensor.RawTensor, param *nn.Parameter[B], suffix string) error {
	buf, ok := stateDict[param.Name()+suffix]
	if !ok {
		return nil
	}
	if !buf.Shape().Equal(param.Tensor().Raw().Shape()) {
		return fmt.Errorf("adam buffer %q: shape %v does not match variable shape %v",
			param.Name()+suffix, buf.Shape(), param.Tensor().Raw().Shape())
	}
	buffers[param.Name()] = buf
	return nil
}
