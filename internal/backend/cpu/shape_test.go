package cpu

import (
	"testing"

	"github.com/nilslice/tch-go/internal/tensor"
)

func TestBackend_Reshape(t *testing.T) {
	backend := newTestBackend()

	t.Run("CopiesData", func(t *testing.T) {
		x := rawF32(t, tensor.Shape{2, 3}, 1, 2, 3, 4, 5, 6)
		result := backend.Reshape(x, tensor.Shape{3, 2})

		if !result.Shape().Equal(tensor.Shape{3, 2}) {
			t.Fatalf("Expected shape [3 2], got %v", result.Shape())
		}
		if !f32Equal(result.AsFloat32(), x.AsFloat32()) {
			t.Errorf("Reshape reordered data: %v", result.AsFloat32())
		}

		// The result owns its storage.
		result.AsFloat32()[0] = 99
		if x.AsFloat32()[0] != 1 {
			t.Error("Reshape aliased the source buffer")
		}
	})

	t.Run("ElementCountMismatchPanics", func(t *testing.T) {
		x := rawF32(t, tensor.Shape{2, 3}, 1, 2, 3, 4, 5, 6)
		wantPanic(t, "reshape 6 as 4", func() { backend.Reshape(x, tensor.Shape{2, 2}) })
	})
}

func TestBackend_Transpose(t *testing.T) {
	backend := newTestBackend()

	t.Run("Matrix", func(t *testing.T) {
		// [[1 2 3]      [[1 4]
		//  [4 5 6]]  ->  [2 5]
		//                [3 6]]
		x := rawF32(t, tensor.Shape{2, 3}, 1, 2, 3, 4, 5, 6)
		result := backend.Transpose(x)

		if !result.Shape().Equal(tensor.Shape{3, 2}) {
			t.Fatalf("Expected shape [3 2], got %v", result.Shape())
		}
		expected := []float32{1, 4, 2, 5, 3, 6}
		if !f32Equal(result.AsFloat32(), expected) {
			t.Errorf("Transpose: got %v, expected %v", result.AsFloat32(), expected)
		}
	})

	t.Run("ExplicitAxes3D", func(t *testing.T) {
		x := rawF32(t, tensor.Shape{2, 3, 4},
			0, 1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11,
			12, 13, 14, 15, 16, 17, 18, 19, 20, 21, 22, 23)
		result := backend.Transpose(x, 1, 0, 2)

		if !result.Shape().Equal(tensor.Shape{3, 2, 4}) {
			t.Fatalf("Expected shape [3 2 4], got %v", result.Shape())
		}
		// out[j][i][k] = x[i][j][k]; spot-check a few cells.
		got := result.AsFloat32()
		if got[0] != 0 || got[4] != 12 || got[8] != 4 {
			t.Errorf("Transpose(1,0,2): got %v", got[:12])
		}
	})

	t.Run("NegativeAxes", func(t *testing.T) {
		x := rawF32(t, tensor.Shape{2, 3}, 1, 2, 3, 4, 5, 6)
		result := backend.Transpose(x, -1, -2)

		if !result.Shape().Equal(tensor.Shape{3, 2}) {
			t.Fatalf("Expected shape [3 2], got %v", result.Shape())
		}
	})

	t.Run("DuplicateAxisPanics", func(t *testing.T) {
		x := rawF32(t, tensor.Shape{2, 3}, 1, 2, 3, 4, 5, 6)
		wantPanic(t, "axes (0,0)", func() { backend.Transpose(x, 0, 0) })
	})
}

func TestBackend_Expand(t *testing.T) {
	backend := newTestBackend()

	t.Run("RepeatAxis", func(t *testing.T) {
		x := rawF32(t, tensor.Shape{3, 1}, 1, 2, 3)
		result := backend.Expand(x, tensor.Shape{3, 4})

		expected := []float32{1, 1, 1, 1, 2, 2, 2, 2, 3, 3, 3, 3}
		if !f32Equal(result.AsFloat32(), expected) {
			t.Errorf("Expand: got %v, expected %v", result.AsFloat32(), expected)
		}
	})

	t.Run("AddLeadingAxis", func(t *testing.T) {
		x := rawF32(t, tensor.Shape{2}, 7, 8)
		result := backend.Expand(x, tensor.Shape{3, 2})

		expected := []float32{7, 8, 7, 8, 7, 8}
		if !f32Equal(result.AsFloat32(), expected) {
			t.Errorf("Expand leading: got %v, expected %v", result.AsFloat32(), expected)
		}
	})

	t.Run("NonUnitAxisPanics", func(t *testing.T) {
		x := rawF32(t, tensor.Shape{3}, 1, 2, 3)
		wantPanic(t, "expand 3 to 4", func() { backend.Expand(x, tensor.Shape{4}) })
	})
}

func TestBackend_Gather(t *testing.T) {
	backend := newTestBackend()

	t.Run("PickPerRow", func(t *testing.T) {
		// The cross-entropy pattern: pick one logit per row.
		x := rawF32(t, tensor.Shape{3, 4},
			0.1, 0.2, 0.3, 0.4,
			1, 2, 3, 4,
			10, 20, 30, 40)
		index, _ := tensor.NewRaw(tensor.Shape{3, 1}, tensor.Int, tensor.CPU)
		copy(index.AsInt32(), []int32{2, 0, 3})

		result := backend.Gather(x, 1, index)

		if !result.Shape().Equal(tensor.Shape{3, 1}) {
			t.Fatalf("Expected shape [3 1], got %v", result.Shape())
		}
		if !f32Equal(result.AsFloat32(), []float32{0.3, 1, 40}) {
			t.Errorf("Gather: got %v", result.AsFloat32())
		}
	})

	t.Run("AlongDim0", func(t *testing.T) {
		x := rawF32(t, tensor.Shape{3, 2}, 1, 2, 3, 4, 5, 6)
		index, _ := tensor.NewRaw(tensor.Shape{2, 2}, tensor.Int, tensor.CPU)
		copy(index.AsInt32(), []int32{0, 2, 1, 1})

		result := backend.Gather(x, 0, index)

		// out[i][j] = x[index[i][j]][j]
		expected := []float32{1, 6, 3, 4}
		if !f32Equal(result.AsFloat32(), expected) {
			t.Errorf("Gather dim 0: got %v, expected %v", result.AsFloat32(), expected)
		}
	})

	t.Run("IndexOutOfRangePanics", func(t *testing.T) {
		x := rawF32(t, tensor.Shape{2, 2}, 1, 2, 3, 4)
		index, _ := tensor.NewRaw(tensor.Shape{2, 1}, tensor.Int, tensor.CPU)
		copy(index.AsInt32(), []int32{0, 5})
		wantPanic(t, "index 5 of size 2", func() { backend.Gather(x, 1, index) })
	})

	t.Run("NonIntIndexPanics", func(t *testing.T) {
		x := rawF32(t, tensor.Shape{2, 2}, 1, 2, 3, 4)
		badIndex := rawF32(t, tensor.Shape{2, 1}, 0, 1)
		wantPanic(t, "float index", func() { backend.Gather(x, 1, badIndex) })
	})
}
