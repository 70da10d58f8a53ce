package optim_test

import (
	"math"
	"testing"

	"github.com/nilslice/tch-go/internal/autodiff"
	"github.com/nilslice/tch-go/internal/backend/cpu"
	"github.com/nilslice/tch-go/internal/nn"
	"github.com/nilslice/tch-go/internal/optim"
	"github.com/nilslice/tch-go/internal/tensor"
)

type adB = *autodiff.Backend[*cpu.Backend]

// Helper to check float equality with tolerance.
func floatEqual(a, b, eps float32) bool {
	diff := a - b
	if diff < 0 {
		diff = -diff
	}
	return diff < eps
}

func newStore(t *testing.T) *nn.VarStore[adB] {
	t.Helper()
	return nn.NewVarStore(autodiff.New(cpu.New()))
}

func addVar(t *testing.T, vs *nn.VarStore[adB], name string, shape tensor.Shape, values ...float32) *nn.Parameter[adB] {
	t.Helper()
	x, err := tensor.FromSlice(values, shape, vs.Backend())
	if err != nil {
		t.Fatalf("FromSlice(%q): %v", name, err)
	}
	return vs.Root().Add(name, x)
}

// rawGrad builds a gradient tensor shaped like param holding values.
func rawGrad(t *testing.T, param *nn.Parameter[adB], values ...float32) *tensor.RawTensor {
	t.Helper()
	raw := param.Tensor().Raw()
	grad := tensor.MustRaw(raw.Shape().Clone(), tensor.Float, raw.Device())
	copy(grad.AsFloat32(), values)
	return grad
}

// gradMap builds a single-entry gradient map for param.
func gradMap(t *testing.T, param *nn.Parameter[adB], values ...float32) map[*tensor.RawTensor]*tensor.RawTensor {
	t.Helper()
	return map[*tensor.RawTensor]*tensor.RawTensor{
		param.Tensor().Raw(): rawGrad(t, param, values...),
	}
}

// TestSGD_SimpleUpdate tests SGD without momentum.
func TestSGD_SimpleUpdate(t *testing.T) {
	vs := newStore(t)
	param := addVar(t, vs, "x", tensor.Shape{1}, 2.0)

	optimizer := optim.NewSGD(vs, optim.SGDConfig{LR: 0.1})

	// Simulate gradient: grad_x = 1.0
	optimizer.Step(gradMap(t, param, 1.0))

	// Expected: x_new = x_old - lr * grad = 2.0 - 0.1 * 1.0 = 1.9
	actual := param.Tensor().Raw().AsFloat32()[0]
	if !floatEqual(actual, 1.9, 1e-6) {
		t.Errorf("SGD update: got %f, want 1.9", actual)
	}

	// The applied gradient is kept on the parameter for inspection.
	if param.Grad() == nil {
		t.Fatal("Grad should be set after Step")
	}
	if got := param.Grad().Data()[0]; !floatEqual(got, 1.0, 1e-6) {
		t.Errorf("Grad after Step: got %f, want 1.0", got)
	}
}

// TestSGD_WithMomentum tests SGD with momentum over two steps.
func TestSGD_WithMomentum(t *testing.T) {
	vs := newStore(t)
	param := addVar(t, vs, "x", tensor.Shape{1}, 1.0)

	optimizer := optim.NewSGD(vs, optim.SGDConfig{LR: 0.1, Momentum: 0.9})

	// First step:
	// v_1 = 0.9 * 0 + 1.0 = 1.0
	// x_1 = 1.0 - 0.1 * 1.0 = 0.9
	optimizer.Step(gradMap(t, param, 1.0))

	actual1 := param.Tensor().Raw().AsFloat32()[0]
	if !floatEqual(actual1, 0.9, 1e-6) {
		t.Errorf("SGD momentum step 1: got %f, want 0.9", actual1)
	}

	// Second step:
	// v_2 = 0.9 * 1.0 + 1.0 = 1.9
	// x_2 = 0.9 - 0.1 * 1.9 = 0.71
	optimizer.Step(gradMap(t, param, 1.0))

	actual2 := param.Tensor().Raw().AsFloat32()[0]
	if !floatEqual(actual2, 0.71, 1e-5) {
		t.Errorf("SGD momentum step 2: got %f, want 0.71", actual2)
	}
}

// TestSGD_Nesterov tests the Nesterov momentum variant.
func TestSGD_Nesterov(t *testing.T) {
	vs := newStore(t)
	param := addVar(t, vs, "x", tensor.Shape{1}, 1.0)

	optimizer := optim.NewSGD(vs, optim.SGDConfig{LR: 0.1, Momentum: 0.9, Nesterov: true})

	// v_1 = 1.0, nesterov: g = 1.0 + 0.9 * 1.0 = 1.9
	// x_1 = 1.0 - 0.1 * 1.9 = 0.81
	optimizer.Step(gradMap(t, param, 1.0))

	actual := param.Tensor().Raw().AsFloat32()[0]
	if !floatEqual(actual, 0.81, 1e-6) {
		t.Errorf("SGD nesterov step: got %f, want 0.81", actual)
	}
}

// TestSGD_WeightDecay tests L2 regularization.
func TestSGD_WeightDecay(t *testing.T) {
	vs := newStore(t)
	param := addVar(t, vs, "x", tensor.Shape{1}, 2.0)

	optimizer := optim.NewSGD(vs, optim.SGDConfig{LR: 0.1, WeightDecay: 0.1})

	// g = 1.0 + 0.1 * 2.0 = 1.2
	// x_1 = 2.0 - 0.1 * 1.2 = 1.88
	optimizer.Step(gradMap(t, param, 1.0))

	actual := param.Tensor().Raw().AsFloat32()[0]
	if !floatEqual(actual, 1.88, 1e-6) {
		t.Errorf("SGD weight decay step: got %f, want 1.88", actual)
	}
}

// TestSGD_SkipsVariablesWithoutGradient verifies that variables absent
// from the gradient map stay untouched.
func TestSGD_SkipsVariablesWithoutGradient(t *testing.T) {
	vs := newStore(t)
	trained := addVar(t, vs, "trained", tensor.Shape{1}, 1.0)
	frozen := addVar(t, vs, "frozen", tensor.Shape{1}, 5.0)

	optimizer := optim.NewSGD(vs, optim.SGDConfig{LR: 0.1})
	optimizer.Step(gradMap(t, trained, 1.0))

	if got := trained.Tensor().Raw().AsFloat32()[0]; !floatEqual(got, 0.9, 1e-6) {
		t.Errorf("trained variable: got %f, want 0.9", got)
	}
	if got := frozen.Tensor().Raw().AsFloat32()[0]; got != 5.0 {
		t.Errorf("frozen variable changed: got %f, want 5.0", got)
	}
	if frozen.Grad() != nil {
		t.Error("frozen variable should have no gradient")
	}
}

// TestSGD_FrozenVariables verifies that frozen variables are skipped
// even when a gradient is supplied for them.
func TestSGD_FrozenVariables(t *testing.T) {
	vs := newStore(t)
	param := addVar(t, vs, "x", tensor.Shape{1}, 2.0)

	optimizer := optim.NewSGD(vs, optim.SGDConfig{LR: 0.1})

	vs.Freeze()
	optimizer.Step(gradMap(t, param, 1.0))
	if got := param.Tensor().Raw().AsFloat32()[0]; got != 2.0 {
		t.Errorf("frozen variable changed: got %f, want 2.0", got)
	}

	vs.Unfreeze()
	optimizer.Step(gradMap(t, param, 1.0))
	if got := param.Tensor().Raw().AsFloat32()[0]; !floatEqual(got, 1.9, 1e-6) {
		t.Errorf("unfrozen variable: got %f, want 1.9", got)
	}
}

// TestSGD_LateRegistration verifies that variables added after the
// optimizer is constructed still get updated.
func TestSGD_LateRegistration(t *testing.T) {
	vs := newStore(t)
	optimizer := optim.NewSGD(vs, optim.SGDConfig{LR: 0.1})

	param := addVar(t, vs, "late", tensor.Shape{1}, 2.0)
	optimizer.Step(gradMap(t, param, 1.0))

	if got := param.Tensor().Raw().AsFloat32()[0]; !floatEqual(got, 1.9, 1e-6) {
		t.Errorf("late-registered variable: got %f, want 1.9", got)
	}
}

// TestSGD_ZeroGrad tests ZeroGrad.
func TestSGD_ZeroGrad(t *testing.T) {
	vs := newStore(t)
	param := addVar(t, vs, "x", tensor.Shape{1}, 1.0)

	optimizer := optim.NewSGD(vs, optim.SGDConfig{LR: 0.1})
	optimizer.Step(gradMap(t, param, 5.0))

	if param.Grad() == nil {
		t.Fatal("Grad should not be nil after Step")
	}

	optimizer.ZeroGrad()

	if param.Grad() != nil {
		t.Error("Grad should be nil after ZeroGrad")
	}
}

// TestOptimizer_LearningRate tests defaults, LR, and SetLR.
func TestOptimizer_LearningRate(t *testing.T) {
	vs := newStore(t)
	addVar(t, vs, "x", tensor.Shape{1}, 1.0)

	sgd := optim.NewSGD(vs, optim.SGDConfig{})
	if sgd.LR() != 0.01 {
		t.Errorf("SGD default LR: got %f, want 0.01", sgd.LR())
	}
	if sgd.Name() != "SGD" {
		t.Errorf("SGD Name: got %q, want \"SGD\"", sgd.Name())
	}

	sgd.SetLR(0.001)
	if sgd.LR() != 0.001 {
		t.Errorf("LR after SetLR: got %f, want 0.001", sgd.LR())
	}

	adam := optim.NewAdam(vs, optim.AdamConfig{})
	if adam.LR() != 1e-3 {
		t.Errorf("Adam default LR: got %f, want 1e-3", adam.LR())
	}
	if adam.Name() != "Adam" {
		t.Errorf("Adam Name: got %q, want \"Adam\"", adam.Name())
	}
}

// TestAdam_SimpleUpdate tests Adam's first update with bias correction.
func TestAdam_SimpleUpdate(t *testing.T) {
	vs := newStore(t)
	param := addVar(t, vs, "x", tensor.Shape{1}, 1.0)

	optimizer := optim.NewAdam(vs, optim.AdamConfig{LR: 0.001})

	// After first step (with bias correction):
	// m_1 = 0.9 * 0 + 0.1 * 1.0 = 0.1
	// v_1 = 0.999 * 0 + 0.001 * 1.0 = 0.001
	// m_hat = 0.1 / (1 - 0.9^1) = 1.0
	// v_hat = 0.001 / (1 - 0.999^1) = 1.0
	// x_new = 1.0 - 0.001 * 1.0 / (sqrt(1.0) + 1e-8) ≈ 0.999
	optimizer.Step(gradMap(t, param, 1.0))

	actual := param.Tensor().Raw().AsFloat32()[0]
	if !floatEqual(actual, 0.999, 1e-5) {
		t.Errorf("Adam first step: got %f, want 0.999", actual)
	}
}

// TestAdam_Timestep tests that the timestep increments once per step.
func TestAdam_Timestep(t *testing.T) {
	vs := newStore(t)
	param := addVar(t, vs, "x", tensor.Shape{1}, 1.0)

	optimizer := optim.NewAdam(vs, optim.AdamConfig{LR: 0.01})

	if optimizer.Timestep() != 0 {
		t.Errorf("initial timestep: got %d, want 0", optimizer.Timestep())
	}

	for i := int64(1); i <= 3; i++ {
		optimizer.Step(gradMap(t, param, 1.0))
		if optimizer.Timestep() != i {
			t.Errorf("after step %d, timestep: got %d, want %d", i, optimizer.Timestep(), i)
		}
	}

	// Parameter should decrease over steps with a positive gradient.
	final := param.Tensor().Raw().AsFloat32()[0]
	if final >= 1.0 {
		t.Errorf("after 3 Adam steps with positive gradient, parameter should decrease: got %f", final)
	}
}

// TestConvergence_SimpleQuadratic verifies both optimizers minimize
// f(x) = x². The minimum is at x = 0.
func TestConvergence_SimpleQuadratic(t *testing.T) {
	run := func(t *testing.T, build func(vs *nn.VarStore[adB]) optim.Optimizer) {
		vs := newStore(t)
		param := addVar(t, vs, "x", tensor.Shape{1}, 3.0)
		optimizer := build(vs)

		// f(x) = x², df/dx = 2x
		for i := 0; i < 100; i++ {
			currentX := param.Tensor().Raw().AsFloat32()[0]
			optimizer.Step(gradMap(t, param, 2.0*currentX))
		}

		final := param.Tensor().Raw().AsFloat32()[0]
		if math.Abs(float64(final)) > 0.1 {
			t.Errorf("convergence: x = %f, expected close to 0", final)
		}
	}

	t.Run("SGD", func(t *testing.T) {
		run(t, func(vs *nn.VarStore[adB]) optim.Optimizer {
			return optim.NewSGD(vs, optim.SGDConfig{LR: 0.1, Momentum: 0.9})
		})
	})

	t.Run("Adam", func(t *testing.T) {
		run(t, func(vs *nn.VarStore[adB]) optim.Optimizer {
			return optim.NewAdam(vs, optim.AdamConfig{LR: 0.1})
		})
	})
}

// TestMultipleParameters tests a step across several variables.
func TestMultipleParameters(t *testing.T) {
	vs := newStore(t)
	param1 := addVar(t, vs, "x1", tensor.Shape{2}, 1.0, 2.0)
	param2 := addVar(t, vs, "x2", tensor.Shape{1}, 3.0)

	optimizer := optim.NewSGD(vs, optim.SGDConfig{LR: 0.1})

	grads := map[*tensor.RawTensor]*tensor.RawTensor{
		param1.Tensor().Raw(): rawGrad(t, param1, 1.0, 2.0),
		param2.Tensor().Raw(): rawGrad(t, param2, 0.5),
	}
	optimizer.Step(grads)

	// param1: [1.0, 2.0] - 0.1 * [1.0, 2.0] = [0.9, 1.8]
	p1Data := param1.Tensor().Raw().AsFloat32()
	if !floatEqual(p1Data[0], 0.9, 1e-6) || !floatEqual(p1Data[1], 1.8, 1e-6) {
		t.Errorf("param1: got [%f, %f], want [0.9, 1.8]", p1Data[0], p1Data[1])
	}

	// param2: 3.0 - 0.1 * 0.5 = 2.95
	p2Data := param2.Tensor().Raw().AsFloat32()
	if !floatEqual(p2Data[0], 2.95, 1e-6) {
		t.Errorf("param2: got %f, want 2.95", p2Data[0])
	}
}

// TestSGD_StateDictRoundTrip verifies that restoring the momentum
// buffers makes a fresh optimizer continue exactly where the saved run
// stopped.
func TestSGD_StateDictRoundTrip(t *testing.T) {
	config := optim.SGDConfig{LR: 0.1, Momentum: 0.9}

	// Reference run: three momentum steps from x = 1.0 with grad = 1.0.
	// x_1 = 0.9, x_2 = 0.71, x_3 = 0.71 - 0.1 * (0.9*1.9 + 1.0) = 0.439
	refStore := newStore(t)
	refParam := addVar(t, refStore, "x", tensor.Shape{1}, 1.0)
	refOpt := optim.NewSGD(refStore, config)
	for i := 0; i < 3; i++ {
		refOpt.Step(gradMap(t, refParam, 1.0))
	}
	want := refParam.Tensor().Raw().AsFloat32()[0]

	// Saved run: two steps, then export optimizer state.
	savedStore := newStore(t)
	savedParam := addVar(t, savedStore, "x", tensor.Shape{1}, 1.0)
	savedOpt := optim.NewSGD(savedStore, config)
	for i := 0; i < 2; i++ {
		savedOpt.Step(gradMap(t, savedParam, 1.0))
	}

	state := savedOpt.StateDict()
	if _, ok := state["x.momentum_buffer"]; !ok {
		t.Fatalf("state dict missing \"x.momentum_buffer\", has %d entries", len(state))
	}

	// Resumed run: fresh store and optimizer, restore state, one step.
	resumedStore := newStore(t)
	resumedParam := addVar(t, resumedStore, "x", tensor.Shape{1},
		savedParam.Tensor().Raw().AsFloat32()[0])
	resumedOpt := optim.NewSGD(resumedStore, config)
	if err := resumedOpt.LoadStateDict(state); err != nil {
		t.Fatalf("LoadStateDict: %v", err)
	}
	resumedOpt.Step(gradMap(t, resumedParam, 1.0))

	got := resumedParam.Tensor().Raw().AsFloat32()[0]
	if !floatEqual(got, want, 1e-6) {
		t.Errorf("resumed step: got %f, want %f", got, want)
	}
}

// TestSGD_StatelessStateDict verifies momentum-free SGD exports no
// buffers.
func TestSGD_StatelessStateDict(t *testing.T) {
	vs := newStore(t)
	param := addVar(t, vs, "x", tensor.Shape{1}, 1.0)

	optimizer := optim.NewSGD(vs, optim.SGDConfig{LR: 0.1})
	optimizer.Step(gradMap(t, param, 1.0))

	if state := optimizer.StateDict(); len(state) != 0 {
		t.Errorf("stateless SGD exported %d entries, want 0", len(state))
	}
}

// TestAdam_StateDictRoundTrip verifies that restoring moment buffers
// and the timestep resumes the bias correction schedule exactly.
func TestAdam_StateDictRoundTrip(t *testing.T) {
	config := optim.AdamConfig{LR: 0.1}

	// Reference run: three steps from x = 1.0 with grad = 1.0.
	refStore := newStore(t)
	refParam := addVar(t, refStore, "x", tensor.Shape{1}, 1.0)
	refOpt := optim.NewAdam(refStore, config)
	for i := 0; i < 3; i++ {
		refOpt.Step(gradMap(t, refParam, 1.0))
	}
	want := refParam.Tensor().Raw().AsFloat32()[0]

	// Saved run: two steps, then export optimizer state.
	savedStore := newStore(t)
	savedParam := addVar(t, savedStore, "x", tensor.Shape{1}, 1.0)
	savedOpt := optim.NewAdam(savedStore, config)
	for i := 0; i < 2; i++ {
		savedOpt.Step(gradMap(t, savedParam, 1.0))
	}

	state := savedOpt.StateDict()
	for _, key := range []string{"x.exp_avg", "x.exp_avg_sq", "step"} {
		if _, ok := state[key]; !ok {
			t.Fatalf("state dict missing %q", key)
		}
	}
	if got := state["step"].AsInt64()[0]; got != 2 {
		t.Fatalf("saved step: got %d, want 2", got)
	}

	// Resumed run: restore into a fresh optimizer and take step three.
	// Without the restored timestep the bias correction would use t=1
	// and produce a visibly different update.
	resumedStore := newStore(t)
	resumedParam := addVar(t, resumedStore, "x", tensor.Shape{1},
		savedParam.Tensor().Raw().AsFloat32()[0])
	resumedOpt := optim.NewAdam(resumedStore, config)
	if err := resumedOpt.LoadStateDict(state); err != nil {
		t.Fatalf("LoadStateDict: %v", err)
	}
	if resumedOpt.Timestep() != 2 {
		t.Fatalf("restored timestep: got %d, want 2", resumedOpt.Timestep())
	}
	resumedOpt.Step(gradMap(t, resumedParam, 1.0))

	got := resumedParam.Tensor().Raw().AsFloat32()[0]
	if !floatEqual(got, want, 1e-6) {
		t.Errorf("resumed step: got %f, want %f", got, want)
	}
}

// TestAdam_LoadStateDictErrors tests rejection of malformed state.
func TestAdam_LoadStateDictErrors(t *testing.T) {
	vs := newStore(t)
	addVar(t, vs, "x", tensor.Shape{2}, 1.0, 2.0)
	optimizer := optim.NewAdam(vs, optim.AdamConfig{})

	t.Run("ShapeMismatch", func(t *testing.T) {
		bad := tensor.MustRaw(tensor.Shape{3}, tensor.Float, tensor.CPU)
		err := optimizer.LoadStateDict(map[string]*tensor.RawTensor{
			"x.exp_avg": bad,
		})
		if err == nil {
			t.Error("expected error for mismatched buffer shape")
		}
	})

	t.Run("BadStepTensor", func(t *testing.T) {
		bad := tensor.MustRaw(tensor.Shape{1}, tensor.Float, tensor.CPU)
		err := optimizer.LoadStateDict(map[string]*tensor.RawTensor{
			"step": bad,
		})
		if err == nil {
			t.Error("expected error for non-int64 step tensor")
		}
	})
}

// TestBackwardStep runs the combined backward/step/clear helper on a
// real model and checks the loss goes down.
func TestBackwardStep(t *testing.T) {
	backend := autodiff.New(cpu.New())
	vs := nn.NewVarStore(backend)
	model := nn.NewLinear(vs.Root().Sub("l1"), 2, 1)
	criterion := nn.NewMSELoss[adB]()
	optimizer := optim.NewSGD(vs, optim.SGDConfig{LR: 0.05})

	x, err := tensor.FromSlice([]float32{1.0, 0.0, 0.0, 1.0}, tensor.Shape{2, 2}, backend)
	if err != nil {
		t.Fatalf("FromSlice(x): %v", err)
	}
	y, err := tensor.FromSlice([]float32{1.0, -1.0}, tensor.Shape{2, 1}, backend)
	if err != nil {
		t.Fatalf("FromSlice(y): %v", err)
	}

	var first, last float32
	for i := 0; i < 20; i++ {
		loss := criterion.Forward(model.Forward(x), y)
		last = loss.Item()
		if i == 0 {
			first = last
		}

		optim.BackwardStep(loss, optimizer, backend)

		if ops := backend.GetTape().NumOperations(); ops != 0 {
			t.Fatalf("tape not cleared after step %d: %d operations", i, ops)
		}
	}

	if last >= first {
		t.Errorf("loss did not decrease: first %f, last %f", first, last)
	}
}
