package webgpu

import (
	"math/rand"
	"testing"

	"github.com/nilslice/tch-go/internal/backend/cpu"
	"github.com/nilslice/tch-go/internal/tensor"
)

// newBackend skips the test when no GPU adapter is present.
func newBackend(t *testing.T) *Backend {
	t.Helper()
	if !Available() {
		t.Skip("WebGPU not available")
	}
	b, err := New()
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	t.Cleanup(b.Release)
	return b
}

func fromF32(t *testing.T, shape tensor.Shape, data []float32) *tensor.RawTensor {
	t.Helper()
	raw, err := tensor.NewRaw(shape, tensor.Float, tensor.WebGPU)
	if err != nil {
		t.Fatalf("NewRaw: %v", err)
	}
	copy(raw.AsFloat32(), data)
	return raw
}

func floatEqual(a, b, eps float32) bool {
	d := a - b
	if d < 0 {
		d = -d
	}
	return d <= eps
}

func assertClose(t *testing.T, want, got []float32, eps float32) {
	t.Helper()
	if len(want) != len(got) {
		t.Fatalf("length mismatch: want %d, got %d", len(want), len(got))
	}
	for i := range want {
		if !floatEqual(want[i], got[i], eps) {
			t.Fatalf("value mismatch at %d: want %f, got %f", i, want[i], got[i])
		}
	}
}

func TestAvailable(t *testing.T) {
	// Must not crash regardless of whether a native runtime is present.
	t.Logf("WebGPU available: %v", Available())
}

func TestNew_Metadata(t *testing.T) {
	b := newBackend(t)

	if b.Device() != tensor.WebGPU {
		t.Fatalf("Device() = %v, want WebGPU", b.Device())
	}
	if b.Name() == "" {
		t.Fatal("Name() is empty")
	}
	t.Logf("adapter: %s", b.Name())
}

func TestAdd(t *testing.T) {
	b := newBackend(t)

	x := fromF32(t, tensor.Shape{4}, []float32{1, 2, 3, 4})
	y := fromF32(t, tensor.Shape{4}, []float32{5, 6, 7, 8})

	result := b.Add(x, y)
	want := []float32{6, 8, 10, 12}
	assertClose(t, want, result.AsFloat32(), 1e-6)

	if result.Device() != tensor.WebGPU {
		t.Fatalf("result device = %v, want WebGPU", result.Device())
	}

	// Second dispatch reuses the cached shader and pipeline.
	again := b.Add(fromF32(t, tensor.Shape{4}, []float32{1, 2, 3, 4}), y)
	assertClose(t, want, again.AsFloat32(), 1e-6)
}

func TestMul(t *testing.T) {
	b := newBackend(t)

	x := fromF32(t, tensor.Shape{2, 2}, []float32{1, 2, 3, 4})
	y := fromF32(t, tensor.Shape{2, 2}, []float32{5, 6, 7, 8})

	result := b.Mul(x, y)
	assertClose(t, []float32{5, 12, 21, 32}, result.AsFloat32(), 1e-6)
}

func TestMulScalar(t *testing.T) {
	b := newBackend(t)

	x := fromF32(t, tensor.Shape{3}, []float32{1, -2, 3})

	result := b.MulScalar(x, float32(2.5))
	assertClose(t, []float32{2.5, -5, 7.5}, result.AsFloat32(), 1e-6)

	// Untyped literals arrive as int or float64; the scale kernel
	// accepts both.
	result = b.MulScalar(fromF32(t, tensor.Shape{3}, []float32{1, -2, 3}), 2)
	assertClose(t, []float32{2, -4, 6}, result.AsFloat32(), 1e-6)
}

func TestReLU(t *testing.T) {
	b := newBackend(t)

	x := fromF32(t, tensor.Shape{5}, []float32{-2, -0.5, 0, 0.5, 2})

	result := b.ReLU(x)
	assertClose(t, []float32{0, 0, 0, 0.5, 2}, result.AsFloat32(), 1e-6)
}

func TestMatMul(t *testing.T) {
	b := newBackend(t)

	x := fromF32(t, tensor.Shape{2, 3}, []float32{1, 2, 3, 4, 5, 6})
	y := fromF32(t, tensor.Shape{3, 2}, []float32{7, 8, 9, 10, 11, 12})

	result := b.MatMul(x, y)
	if !result.Shape().Equal(tensor.Shape{2, 2}) {
		t.Fatalf("result shape = %v, want [2 2]", result.Shape())
	}
	assertClose(t, []float32{58, 64, 143, 154}, result.AsFloat32(), 1e-5)
}

// TestKernels_MatchCPU cross-checks every shader against the CPU
// reference on inputs large enough to span several workgroups.
func TestKernels_MatchCPU(t *testing.T) {
	b := newBackend(t)
	ref := cpu.New()
	rng := rand.New(rand.NewSource(99)) //nolint:gosec // math/rand is fine for test fixtures

	randData := func(n int) []float32 {
		data := make([]float32, n)
		for i := range data {
			data[i] = rng.Float32()*2 - 1
		}
		return data
	}

	const n = 1000 // four workgroups minus a partial one
	xData, yData := randData(n), randData(n)
	shape := tensor.Shape{n}

	t.Run("Add", func(t *testing.T) {
		want := ref.Add(fromF32(t, shape, xData), fromF32(t, shape, yData))
		got := b.Add(fromF32(t, shape, xData), fromF32(t, shape, yData))
		assertClose(t, want.AsFloat32(), got.AsFloat32(), 1e-6)
	})

	t.Run("Mul", func(t *testing.T) {
		want := ref.Mul(fromF32(t, shape, xData), fromF32(t, shape, yData))
		got := b.Mul(fromF32(t, shape, xData), fromF32(t, shape, yData))
		assertClose(t, want.AsFloat32(), got.AsFloat32(), 1e-6)
	})

	t.Run("MulScalar", func(t *testing.T) {
		want := ref.MulScalar(fromF32(t, shape, xData), float32(0.125))
		got := b.MulScalar(fromF32(t, shape, xData), float32(0.125))
		assertClose(t, want.AsFloat32(), got.AsFloat32(), 1e-6)
	})

	t.Run("ReLU", func(t *testing.T) {
		want := ref.ReLU(fromF32(t, shape, xData))
		got := b.ReLU(fromF32(t, shape, xData))
		assertClose(t, want.AsFloat32(), got.AsFloat32(), 1e-6)
	})

	t.Run("MatMul", func(t *testing.T) {
		// 17x33 @ 33x9 exercises partial tiles on both axes.
		aData, bData := randData(17*33), randData(33*9)
		want := ref.MatMul(fromF32(t, tensor.Shape{17, 33}, aData), fromF32(t, tensor.Shape{33, 9}, bData))
		got := b.MatMul(fromF32(t, tensor.Shape{17, 33}, aData), fromF32(t, tensor.Shape{33, 9}, bData))
		assertClose(t, want.AsFloat32(), got.AsFloat32(), 1e-3)
	})
}

// TestFallbackOps verifies that ops without shaders delegate to the CPU
// engine and still stamp results with the WebGPU device tag.
func TestFallbackOps(t *testing.T) {
	b := newBackend(t)
	ref := cpu.New()

	logits := []float32{1, 2, 3, 1, 0, -1}

	want := ref.Softmax(fromF32(t, tensor.Shape{2, 3}, logits), 1)
	got := b.Softmax(fromF32(t, tensor.Shape{2, 3}, logits), 1)
	assertClose(t, want.AsFloat32(), got.AsFloat32(), 1e-6)
	if got.Device() != tensor.WebGPU {
		t.Fatalf("fallback result device = %v, want WebGPU", got.Device())
	}

	sum := b.Sum(fromF32(t, tensor.Shape{2, 3}, logits))
	assertClose(t, []float32{6}, sum.AsFloat32(), 1e-6)
	if sum.Device() != tensor.WebGPU {
		t.Fatalf("fallback result device = %v, want WebGPU", sum.Device())
	}
}

// TestBroadcastFallsBack routes mismatched shapes to the fallback
// instead of the same-shape shader.
func TestBroadcastFallsBack(t *testing.T) {
	b := newBackend(t)

	x := fromF32(t, tensor.Shape{2, 3}, []float32{1, 2, 3, 4, 5, 6})
	row := fromF32(t, tensor.Shape{3}, []float32{10, 20, 30})

	result := b.Add(x, row)
	assertClose(t, []float32{11, 22, 33, 14, 25, 36}, result.AsFloat32(), 1e-6)
}
