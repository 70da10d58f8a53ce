package cpu

import (
	"math"
	"testing"

	"github.com/nilslice/tch-go/internal/tensor"
)

func TestBackend_Exp(t *testing.T) {
	backend := newTestBackend()

	x := rawF32(t, tensor.Shape{3}, 0, 1, -1)
	result := backend.Exp(x)

	expected := []float32{1, float32(math.E), float32(1 / math.E)}
	if !f32Equal(result.AsFloat32(), expected) {
		t.Errorf("Exp: got %v, expected %v", result.AsFloat32(), expected)
	}
}

func TestBackend_Log(t *testing.T) {
	backend := newTestBackend()

	t.Run("Basic", func(t *testing.T) {
		x := rawF32(t, tensor.Shape{3}, 1, float32(math.E), 10)
		result := backend.Log(x)

		expected := []float32{0, 1, float32(math.Log(10))}
		if !f32Equal(result.AsFloat32(), expected) {
			t.Errorf("Log: got %v, expected %v", result.AsFloat32(), expected)
		}
	})

	t.Run("ZeroGivesNegInf", func(t *testing.T) {
		x := rawF32(t, tensor.Shape{1}, 0)
		result := backend.Log(x)

		if got := result.AsFloat32()[0]; !math.IsInf(float64(got), -1) {
			t.Errorf("log(0): got %v, expected -Inf", got)
		}
	})

	t.Run("IntKindPanics", func(t *testing.T) {
		x, _ := tensor.NewRaw(tensor.Shape{2}, tensor.Int, tensor.CPU)
		wantPanic(t, "log int32", func() { backend.Log(x) })
	})
}

func TestBackend_Sqrt(t *testing.T) {
	backend := newTestBackend()

	x := rawF32(t, tensor.Shape{4}, 0, 1, 4, 9)
	result := backend.Sqrt(x)

	if !f32Equal(result.AsFloat32(), []float32{0, 1, 2, 3}) {
		t.Errorf("Sqrt: got %v", result.AsFloat32())
	}
}

func TestBackend_Pow(t *testing.T) {
	backend := newTestBackend()

	t.Run("Square", func(t *testing.T) {
		x := rawF32(t, tensor.Shape{4}, -3, -1, 0, 2)
		result := backend.Pow(x, 2)

		if !f32Equal(result.AsFloat32(), []float32{9, 1, 0, 4}) {
			t.Errorf("Pow(2): got %v", result.AsFloat32())
		}
	})

	t.Run("HalfMatchesSqrt", func(t *testing.T) {
		x := rawF32(t, tensor.Shape{3}, 1, 4, 9)

		if !f32Equal(backend.Pow(x, 0.5).AsFloat32(), backend.Sqrt(x).AsFloat32()) {
			t.Errorf("Pow(0.5) disagrees with Sqrt")
		}
	})

	t.Run("IntKindPanics", func(t *testing.T) {
		x, _ := tensor.NewRaw(tensor.Shape{2}, tensor.Int, tensor.CPU)
		wantPanic(t, "pow int32", func() { backend.Pow(x, 2) })
	})
}

func TestBackend_ReLU(t *testing.T) {
	backend := newTestBackend()

	x := rawF32(t, tensor.Shape{5}, -2, -0.5, 0, 0.5, 2)
	result := backend.ReLU(x)

	if !f32Equal(result.AsFloat32(), []float32{0, 0, 0, 0.5, 2}) {
		t.Errorf("ReLU: got %v", result.AsFloat32())
	}
}

func TestBackend_Sigmoid(t *testing.T) {
	backend := newTestBackend()

	x := rawF32(t, tensor.Shape{3}, 0, 10, -10)
	result := backend.Sigmoid(x)

	got := result.AsFloat32()
	if got[0] != 0.5 {
		t.Errorf("sigmoid(0): got %v, expected 0.5", got[0])
	}
	if got[1] < 0.999 {
		t.Errorf("sigmoid(10): got %v, expected close to 1", got[1])
	}
	if got[2] > 0.001 {
		t.Errorf("sigmoid(-10): got %v, expected close to 0", got[2])
	}
}

func TestBackend_Tanh(t *testing.T) {
	backend := newTestBackend()

	x := rawF32(t, tensor.Shape{3}, 0, 1, -1)
	result := backend.Tanh(x)

	expected := []float32{0, float32(math.Tanh(1)), float32(math.Tanh(-1))}
	if !f32Equal(result.AsFloat32(), expected) {
		t.Errorf("Tanh: got %v, expected %v", result.AsFloat32(), expected)
	}
}

func TestBackend_Softmax(t *testing.T) {
	backend := newTestBackend()

	t.Run("RowsSumToOne", func(t *testing.T) {
		x := rawF32(t, tensor.Shape{2, 3}, 1, 2, 3, 1, 1, 1)
		result := backend.Softmax(x, -1)

		got := result.AsFloat32()
		for row := 0; row < 2; row++ {
			var sum float32
			for j := 0; j < 3; j++ {
				sum += got[row*3+j]
			}
			if diff := sum - 1; diff > 1e-5 || diff < -1e-5 {
				t.Errorf("Row %d sums to %v", row, sum)
			}
		}

		// Uniform logits give uniform probabilities.
		third := float32(1.0 / 3.0)
		if !f32Equal(got[3:], []float32{third, third, third}) {
			t.Errorf("Uniform row: got %v", got[3:])
		}
	})

	t.Run("AlongDim0", func(t *testing.T) {
		// Columns, not rows, are normalized.
		x := rawF32(t, tensor.Shape{2, 2}, 0, 0, 0, 0)
		result := backend.Softmax(x, 0)

		if !f32Equal(result.AsFloat32(), []float32{0.5, 0.5, 0.5, 0.5}) {
			t.Errorf("Softmax dim 0: got %v", result.AsFloat32())
		}
	})

	t.Run("LargeLogitsStayFinite", func(t *testing.T) {
		x := rawF32(t, tensor.Shape{1, 3}, 1000, 1000, 1000)
		result := backend.Softmax(x, 1)

		for i, v := range result.AsFloat32() {
			if math.IsNaN(float64(v)) || math.IsInf(float64(v), 0) {
				t.Fatalf("Element %d not finite: %v", i, v)
			}
		}
	})
}

func TestBackend_LogSoftmax(t *testing.T) {
	backend := newTestBackend()

	t.Run("MatchesLogOfSoftmax", func(t *testing.T) {
		x := rawF32(t, tensor.Shape{2, 4}, 0.5, -1, 2, 0, 3, 3, 3, 3)

		direct := backend.LogSoftmax(x, -1)
		viaLog := backend.Log(backend.Softmax(x, -1))

		if !f32Equal(direct.AsFloat32(), viaLog.AsFloat32()) {
			t.Errorf("LogSoftmax %v != log(Softmax) %v", direct.AsFloat32(), viaLog.AsFloat32())
		}
	})

	t.Run("VeryNegativeLogitStaysFinite", func(t *testing.T) {
		// log(softmax) would underflow to -Inf for the small logit;
		// log-sum-exp keeps it finite.
		x := rawF32(t, tensor.Shape{1, 2}, 0, -200)
		result := backend.LogSoftmax(x, 1)

		got := result.AsFloat32()
		if math.IsInf(float64(got[1]), 0) || math.IsNaN(float64(got[1])) {
			t.Errorf("LogSoftmax(-200): got %v, expected finite", got[1])
		}
		if got[1] > -199 || got[1] < -201 {
			t.Errorf("LogSoftmax(-200): got %v, expected about -200", got[1])
		}
	})
}
