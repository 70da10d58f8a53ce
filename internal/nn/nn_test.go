package nn_test

import (
	"math"
	"testing"

	"github.com/nilslice/tch-go/internal/autodiff"
	"github.com/nilslice/tch-go/internal/backend/cpu"
	"github.com/nilslice/tch-go/internal/nn"
	"github.com/nilslice/tch-go/internal/tensor"
)

type adB = *autodiff.Backend[*cpu.Backend]

func newBackend() adB {
	return autodiff.New(cpu.New())
}

func floatEqual(a, b, epsilon float32) bool {
	diff := a - b
	if diff < 0 {
		diff = -diff
	}
	return diff < epsilon
}

func fromF32(t *testing.T, b adB, shape tensor.Shape, values ...float32) *tensor.Tensor[float32, adB] {
	t.Helper()
	x, err := tensor.FromSlice(values, shape, b)
	if err != nil {
		t.Fatalf("FromSlice(%v): %v", shape, err)
	}
	return x
}

func TestVarStore_Registration(t *testing.T) {
	vs := nn.NewVarStore(newBackend())
	root := vs.Root()

	w := root.Sub("l1").Zeros("weight", tensor.Shape{2, 3})
	b := root.Sub("l1").Zeros("bias", tensor.Shape{2})
	root.Randn("head", tensor.Shape{4})

	if vs.Len() != 3 {
		t.Fatalf("Len() = %d, want 3", vs.Len())
	}
	if w.Name() != "l1.weight" || b.Name() != "l1.bias" {
		t.Errorf("names = %q, %q, want l1.weight, l1.bias", w.Name(), b.Name())
	}

	names := vs.Names()
	wantOrder := []string{"l1.weight", "l1.bias", "head"}
	for i, want := range wantOrder {
		if names[i] != want {
			t.Fatalf("Names() = %v, want %v", names, wantOrder)
		}
	}

	got, ok := vs.Get("l1.weight")
	if !ok || got != w {
		t.Error("Get(l1.weight) should return the registered parameter")
	}

	params := vs.TrainableVariables()
	if len(params) != 3 || params[0] != w || params[1] != b {
		t.Error("TrainableVariables() should follow registration order")
	}
}

func TestVarStore_DuplicateNamePanics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatal("expected panic on duplicate variable name")
		}
	}()

	vs := nn.NewVarStore(newBackend())
	vs.Root().Zeros("w", tensor.Shape{1})
	vs.Root().Zeros("w", tensor.Shape{1})
}

func TestVarStore_FreezeUnfreeze(t *testing.T) {
	vs := nn.NewVarStore(newBackend())
	w := vs.Root().Zeros("w", tensor.Shape{2})
	b := vs.Root().Zeros("b", tensor.Shape{2})

	if !w.Trainable() || !b.Trainable() {
		t.Fatal("variables should start trainable")
	}

	vs.Freeze()
	if len(vs.TrainableVariables()) != 0 {
		t.Error("Freeze should empty TrainableVariables")
	}
	if vs.Len() != 2 {
		t.Error("Freeze should not remove variables")
	}

	// Selective unfreeze for fine-tuning the head only.
	b.SetTrainable(true)
	params := vs.TrainableVariables()
	if len(params) != 1 || params[0] != b {
		t.Errorf("TrainableVariables = %d params, want just b", len(params))
	}

	vs.Unfreeze()
	if len(vs.TrainableVariables()) != 2 {
		t.Error("Unfreeze should restore all variables")
	}
}

func TestVarStore_Copy(t *testing.T) {
	backend := newBackend()

	src := nn.NewVarStore(backend)
	srcParam := src.Root().Zeros("w", tensor.Shape{3})
	copy(srcParam.Tensor().Data(), []float32{1, 2, 3})

	dst := nn.NewVarStore(backend)
	dstParam := dst.Root().Zeros("w", tensor.Shape{3})

	if err := dst.Copy(src); err != nil {
		t.Fatalf("Copy: %v", err)
	}
	for i, want := range []float32{1, 2, 3} {
		if dstParam.Tensor().Data()[i] != want {
			t.Fatalf("after Copy, dst = %v", dstParam.Tensor().Data())
		}
	}

	// A source missing a destination variable is an error.
	empty := nn.NewVarStore(backend)
	if err := dst.Copy(empty); err == nil {
		t.Fatal("expected error copying from a store without matching variables")
	}
}

func TestVarStore_LoadStateDict(t *testing.T) {
	backend := newBackend()
	vs := nn.NewVarStore(backend)
	param := vs.Root().Zeros("w", tensor.Shape{2})

	t.Run("CopiesInPlace", func(t *testing.T) {
		raw, err := tensor.NewRaw(tensor.Shape{2}, tensor.Float, tensor.CPU)
		if err != nil {
			t.Fatalf("NewRaw: %v", err)
		}
		copy(raw.AsFloat32(), []float32{5, 6})

		before := param.Tensor().Raw()
		if err := vs.LoadStateDict(map[string]*tensor.RawTensor{"w": raw}); err != nil {
			t.Fatalf("LoadStateDict: %v", err)
		}
		if param.Tensor().Raw() != before {
			t.Error("LoadStateDict must keep the existing tensor handle")
		}
		if param.Tensor().Data()[0] != 5 || param.Tensor().Data()[1] != 6 {
			t.Errorf("data = %v, want [5 6]", param.Tensor().Data())
		}
	})

	t.Run("MissingName", func(t *testing.T) {
		if err := vs.LoadStateDict(map[string]*tensor.RawTensor{}); err == nil {
			t.Fatal("expected error for missing variable")
		}
	})

	t.Run("ShapeMismatch", func(t *testing.T) {
		raw, _ := tensor.NewRaw(tensor.Shape{3}, tensor.Float, tensor.CPU)
		err := vs.LoadStateDict(map[string]*tensor.RawTensor{"w": raw})
		if err == nil {
			t.Fatal("expected error for shape mismatch")
		}
	})
}

func TestParameter_GradLifecycle(t *testing.T) {
	backend := newBackend()
	vs := nn.NewVarStore(backend)
	param := vs.Root().Zeros("w", tensor.Shape{3})

	if param.Grad() != nil {
		t.Error("Grad() should start nil")
	}

	grad := fromF32(t, backend, tensor.Shape{3}, 0.1, 0.2, 0.3)
	param.SetGrad(grad)
	if param.Grad() != grad {
		t.Error("SetGrad() should install the gradient")
	}

	param.ZeroGrad()
	if param.Grad() != nil {
		t.Error("ZeroGrad() should clear the gradient")
	}

	vs.ZeroGrad()
}

func TestLinear_Creation(t *testing.T) {
	vs := nn.NewVarStore(newBackend())
	layer := nn.NewLinear(vs.Root().Sub("l1"), 10, 5)

	if layer.InFeatures() != 10 || layer.OutFeatures() != 5 {
		t.Errorf("features = (%d, %d), want (10, 5)", layer.InFeatures(), layer.OutFeatures())
	}
	if !layer.Weight().Tensor().Shape().Equal(tensor.Shape{5, 10}) {
		t.Errorf("weight shape = %v, want [5 10]", layer.Weight().Tensor().Shape())
	}
	if !layer.Bias().Tensor().Shape().Equal(tensor.Shape{5}) {
		t.Errorf("bias shape = %v, want [5]", layer.Bias().Tensor().Shape())
	}

	for i, v := range layer.Bias().Tensor().Data() {
		if v != 0 {
			t.Fatalf("bias[%d] = %f, want 0", i, v)
		}
	}

	// Xavier keeps weights inside the Glorot bound.
	bound := float32(math.Sqrt(6.0 / 15.0))
	for _, v := range layer.Weight().Tensor().Data() {
		if v < -bound || v > bound {
			t.Fatalf("weight %f outside [-%f, %f]", v, bound, bound)
		}
	}

	if len(layer.Parameters()) != 2 {
		t.Errorf("Parameters() length = %d, want 2", len(layer.Parameters()))
	}
	if vs.Len() != 2 {
		t.Errorf("store Len() = %d, want 2", vs.Len())
	}
	if _, ok := vs.Get("l1.weight"); !ok {
		t.Error("weight not registered as l1.weight")
	}
}

func TestLinear_Forward(t *testing.T) {
	backend := newBackend()
	vs := nn.NewVarStore(backend)
	layer := nn.NewLinear(vs.Root(), 2, 2)

	// W = [[1, 2], [3, 4]], b = [0.5, 1].
	copy(layer.Weight().Tensor().Data(), []float32{1, 2, 3, 4})
	copy(layer.Bias().Tensor().Data(), []float32{0.5, 1})

	input := fromF32(t, backend, tensor.Shape{1, 2}, 1, 1)
	output := layer.Forward(input)

	if !output.Shape().Equal(tensor.Shape{1, 2}) {
		t.Fatalf("output shape = %v, want [1 2]", output.Shape())
	}
	want := []float32{3.5, 8}
	for i, v := range output.Data() {
		if !floatEqual(v, want[i], 1e-5) {
			t.Fatalf("output = %v, want %v", output.Data(), want)
		}
	}
}

func TestLinear_NoBias(t *testing.T) {
	backend := newBackend()
	vs := nn.NewVarStore(backend)
	layer := nn.NewLinearNoBias(vs.Root().Sub("proj"), 2, 2)

	if layer.Bias() != nil {
		t.Fatal("NewLinearNoBias should not create a bias")
	}
	if vs.Len() != 1 {
		t.Errorf("store Len() = %d, want just the weight", vs.Len())
	}
	if len(layer.Parameters()) != 1 {
		t.Errorf("Parameters() length = %d, want 1", len(layer.Parameters()))
	}

	copy(layer.Weight().Tensor().Data(), []float32{1, 2, 3, 4})
	output := layer.Forward(fromF32(t, backend, tensor.Shape{1, 2}, 1, 1))

	want := []float32{3, 7}
	for i, v := range output.Data() {
		if !floatEqual(v, want[i], 1e-5) {
			t.Fatalf("output = %v, want %v", output.Data(), want)
		}
	}
}

func TestLinear_InputValidation(t *testing.T) {
	backend := newBackend()
	vs := nn.NewVarStore(backend)
	layer := nn.NewLinear(vs.Root(), 3, 2)

	t.Run("WrongRank", func(t *testing.T) {
		defer func() {
			if recover() == nil {
				t.Fatal("expected panic for 1D input")
			}
		}()
		layer.Forward(fromF32(t, backend, tensor.Shape{3}, 1, 2, 3))
	})

	t.Run("WrongWidth", func(t *testing.T) {
		defer func() {
			if recover() == nil {
				t.Fatal("expected panic for feature mismatch")
			}
		}()
		layer.Forward(fromF32(t, backend, tensor.Shape{1, 2}, 1, 2))
	})
}

func TestSequential(t *testing.T) {
	backend := newBackend()
	vs := nn.NewVarStore(backend)
	root := vs.Root()

	l1 := nn.NewLinear(root.Sub("l1"), 2, 3)
	l2 := nn.NewLinear(root.Sub("l2"), 3, 1)
	model := nn.NewSequential[adB](l1, nn.NewReLU[adB](), l2)

	if model.Len() != 3 {
		t.Fatalf("Len() = %d, want 3", model.Len())
	}
	if model.Module(0) != nn.Module[adB](l1) {
		t.Error("Module(0) should be the first linear layer")
	}
	if len(model.Parameters()) != 4 {
		t.Errorf("Parameters() length = %d, want 4", len(model.Parameters()))
	}

	input := fromF32(t, backend, tensor.Shape{2, 2}, 1, -1, 0.5, 2)
	output := model.Forward(input)
	if !output.Shape().Equal(tensor.Shape{2, 1}) {
		t.Fatalf("output shape = %v, want [2 1]", output.Shape())
	}

	model.Add(nn.NewTanh[adB]())
	if model.Len() != 4 {
		t.Errorf("Len() after Add = %d, want 4", model.Len())
	}
}

func TestActivationModules(t *testing.T) {
	backend := newBackend()
	input := fromF32(t, backend, tensor.Shape{4}, -2, -0.5, 0.5, 2)

	t.Run("ReLU", func(t *testing.T) {
		out := nn.NewReLU[adB]().Forward(input)
		want := []float32{0, 0, 0.5, 2}
		for i, v := range out.Data() {
			if !floatEqual(v, want[i], 1e-6) {
				t.Fatalf("ReLU = %v, want %v", out.Data(), want)
			}
		}
	})

	t.Run("Sigmoid", func(t *testing.T) {
		out := nn.NewSigmoid[adB]().Forward(input)
		for i, x := range input.Data() {
			want := float32(1.0 / (1.0 + math.Exp(-float64(x))))
			if !floatEqual(out.Data()[i], want, 1e-5) {
				t.Fatalf("Sigmoid = %v", out.Data())
			}
		}
	})

	t.Run("Tanh", func(t *testing.T) {
		out := nn.NewTanh[adB]().Forward(input)
		for i, x := range input.Data() {
			want := float32(math.Tanh(float64(x)))
			if !floatEqual(out.Data()[i], want, 1e-5) {
				t.Fatalf("Tanh = %v", out.Data())
			}
		}
	})

	if nn.NewReLU[adB]().Parameters() != nil {
		t.Error("activations must not report parameters")
	}
}

func TestMSELoss(t *testing.T) {
	backend := newBackend()
	criterion := nn.NewMSELoss[adB]()

	pred := fromF32(t, backend, tensor.Shape{2}, 1, 2)
	target := fromF32(t, backend, tensor.Shape{2}, 1.5, 1)

	loss := criterion.Forward(pred, target)
	if !floatEqual(loss.Item(), 0.625, 1e-5) {
		t.Fatalf("loss = %v, want 0.625", loss.Item())
	}

	// dL/dpred = 2 (pred - target) / n.
	grads := autodiff.Backward(loss, backend)
	grad, ok := autodiff.Grad(grads, pred)
	if !ok {
		t.Fatal("loss did not flow back to the predictions")
	}
	want := []float32{-0.5, 1}
	for i, v := range grad.Data() {
		if !floatEqual(v, want[i], 1e-5) {
			t.Fatalf("grad = %v, want %v", grad.Data(), want)
		}
	}

	t.Run("ShapeMismatchPanics", func(t *testing.T) {
		defer func() {
			if recover() == nil {
				t.Fatal("expected panic for mismatched shapes")
			}
		}()
		criterion.Forward(pred, fromF32(t, backend, tensor.Shape{3}, 1, 2, 3))
	})
}

func TestCrossEntropyLoss(t *testing.T) {
	backend := newBackend()
	criterion := nn.NewCrossEntropyLoss[adB]()

	logits := fromF32(t, backend, tensor.Shape{2, 2}, 2, 0.5, 0.1, 3)
	targets, err := tensor.FromSlice([]int32{0, 1}, tensor.Shape{2}, backend)
	if err != nil {
		t.Fatalf("FromSlice targets: %v", err)
	}

	loss := criterion.Forward(logits, targets)
	// -0.5 * (log p(0|row0) + log p(1|row1)).
	if !floatEqual(loss.Item(), 0.127489, 1e-4) {
		t.Fatalf("loss = %v, want 0.127489", loss.Item())
	}

	// dL/dlogits = (softmax - onehot) / batch.
	grads := autodiff.Backward(loss, backend)
	grad, ok := autodiff.Grad(grads, logits)
	if !ok {
		t.Fatal("loss did not flow back to the logits")
	}
	want := []float32{-0.091215, 0.091215, 0.026076, -0.026076}
	for i, v := range grad.Data() {
		if !floatEqual(v, want[i], 1e-4) {
			t.Fatalf("grad = %v, want %v", grad.Data(), want)
		}
	}

	t.Run("NonMatrixLogitsPanics", func(t *testing.T) {
		defer func() {
			if recover() == nil {
				t.Fatal("expected panic for 1D logits")
			}
		}()
		criterion.Forward(fromF32(t, backend, tensor.Shape{2}, 1, 2), targets)
	})
}

func TestAccuracy(t *testing.T) {
	backend := newBackend()

	logits := fromF32(t, backend, tensor.Shape{4, 2},
		2, 1,
		0, 3,
		1, 0,
		0.2, 0.9)
	targets, err := tensor.FromSlice([]int32{0, 1, 1, 1}, tensor.Shape{4}, backend)
	if err != nil {
		t.Fatalf("FromSlice targets: %v", err)
	}

	got := nn.Accuracy(logits, targets)
	if !floatEqual(got, 0.75, 1e-6) {
		t.Fatalf("Accuracy = %v, want 0.75", got)
	}
}
