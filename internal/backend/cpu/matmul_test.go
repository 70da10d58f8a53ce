package cpu

import (
	"testing"

	"github.com/nilslice/tch-go/internal/tensor"
)

func TestBackend_MatMul(t *testing.T) {
	backend := newTestBackend()

	t.Run("2x3_times_3x2", func(t *testing.T) {
		a := rawF32(t, tensor.Shape{2, 3},
			1, 2, 3,
			4, 5, 6)
		b := rawF32(t, tensor.Shape{3, 2},
			7, 8,
			9, 10,
			11, 12)

		result := backend.MatMul(a, b)

		if !result.Shape().Equal(tensor.Shape{2, 2}) {
			t.Fatalf("Expected shape [2 2], got %v", result.Shape())
		}
		// [1*7+2*9+3*11, 1*8+2*10+3*12] = [58, 64]
		// [4*7+5*9+6*11, 4*8+5*10+6*12] = [139, 154]
		expected := []float32{58, 64, 139, 154}
		if !f32Equal(result.AsFloat32(), expected) {
			t.Errorf("MatMul: got %v, expected %v", result.AsFloat32(), expected)
		}
	})

	t.Run("Identity", func(t *testing.T) {
		a := rawF32(t, tensor.Shape{2, 2}, 3, -1, 2, 5)
		eye := rawF32(t, tensor.Shape{2, 2}, 1, 0, 0, 1)

		result := backend.MatMul(a, eye)
		if !f32Equal(result.AsFloat32(), a.AsFloat32()) {
			t.Errorf("A @ I: got %v, expected %v", result.AsFloat32(), a.AsFloat32())
		}
	})

	t.Run("VectorShapes", func(t *testing.T) {
		// (1,3) @ (3,1) -> (1,1) dot product.
		a := rawF32(t, tensor.Shape{1, 3}, 1, 2, 3)
		b := rawF32(t, tensor.Shape{3, 1}, 4, 5, 6)

		result := backend.MatMul(a, b)
		if !result.Shape().Equal(tensor.Shape{1, 1}) {
			t.Fatalf("Expected shape [1 1], got %v", result.Shape())
		}
		if got := result.AsFloat32()[0]; got != 32 {
			t.Errorf("Dot: got %v, expected 32", got)
		}
	})

	t.Run("Int64", func(t *testing.T) {
		a, _ := tensor.NewRaw(tensor.Shape{2, 2}, tensor.Int64, tensor.CPU)
		b, _ := tensor.NewRaw(tensor.Shape{2, 2}, tensor.Int64, tensor.CPU)
		copy(a.AsInt64(), []int64{1, 2, 3, 4})
		copy(b.AsInt64(), []int64{5, 6, 7, 8})

		result := backend.MatMul(a, b)
		got := result.AsInt64()
		expected := []int64{19, 22, 43, 50}
		for i := range expected {
			if got[i] != expected[i] {
				t.Errorf("Int64 matmul[%d]: got %d, expected %d", i, got[i], expected[i])
			}
		}
	})

	t.Run("InnerDimMismatchPanics", func(t *testing.T) {
		a := rawF32(t, tensor.Shape{2, 3}, 1, 2, 3, 4, 5, 6)
		b := rawF32(t, tensor.Shape{2, 2}, 1, 2, 3, 4)
		wantPanic(t, "2x3 @ 2x2", func() { backend.MatMul(a, b) })
	})

	t.Run("NonMatrixPanics", func(t *testing.T) {
		a := rawF32(t, tensor.Shape{6}, 1, 2, 3, 4, 5, 6)
		b := rawF32(t, tensor.Shape{2, 3}, 1, 2, 3, 4, 5, 6)
		wantPanic(t, "1-D operand", func() { backend.MatMul(a, b) })
	})
}

func TestBackend_MatMulLarge(t *testing.T) {
	// Large enough to cross the parallel threshold; every cell of
	// ones(64,64) @ ones(64,64) must equal 64.
	backend := newTestBackend()

	a, _ := tensor.NewRaw(tensor.Shape{64, 64}, tensor.Float, tensor.CPU)
	b, _ := tensor.NewRaw(tensor.Shape{64, 64}, tensor.Float, tensor.CPU)
	av, bv := a.AsFloat32(), b.AsFloat32()
	for i := range av {
		av[i] = 1
		bv[i] = 1
	}

	result := backend.MatMul(a, b)
	for i, v := range result.AsFloat32() {
		if v != 64 {
			t.Fatalf("Cell %d: got %v, expected 64", i, v)
		}
	}
}
