package tensor

import (
	"math"
	"math/rand"
)

// rng drives random tensor creation. Training runs call ManualSeed for
// reproducible rollouts and weight init; the generator is not safe for
// concurrent use.
var rng = rand.New(rand.NewSource(1))

// ManualSeed reseeds the creation RNG, mirroring torch.manual_seed.
func ManualSeed(seed int64) {
	rng = rand.New(rand.NewSource(seed))
}

// Zeros creates a tensor filled with zeros.
func Zeros[T DType, B Backend](shape Shape, b B) *Tensor[T, B] {
	raw, err := NewRaw(shape, kindOf[T](), b.Device())
	if err != nil {
		panic(err)
	}
	// A fresh buffer is already zeroed.
	return New[T, B](raw, b)
}

// Ones creates a tensor filled with ones.
func Ones[T DType, B Backend](shape Shape, b B) *Tensor[T, B] {
	return Full[T, B](shape, 1, b)
}

// Full creates a tensor with every element set to value.
func Full[T DType, B Backend](shape Shape, value T, b B) *Tensor[T, B] {
	t := Zeros[T, B](shape, b)
	data := t.Data()
	for i := range data {
		data[i] = value
	}
	return t
}

// Randn creates a tensor sampled from the standard normal distribution
// via the Box-Muller transform. Float kinds only.
func Randn[T DType, B Backend](shape Shape, b B) *Tensor[T, B] {
	t := Zeros[T, B](shape, b)
	data := t.Data()

	switch dst := any(data).(type) {
	case []float32:
		for i := 0; i < len(dst); i += 2 {
			z0, z1 := boxMuller()
			dst[i] = float32(z0)
			if i+1 < len(dst) {
				dst[i+1] = float32(z1)
			}
		}
	case []float64:
		for i := 0; i < len(dst); i += 2 {
			z0, z1 := boxMuller()
			dst[i] = z0
			if i+1 < len(dst) {
				dst[i+1] = z1
			}
		}
	default:
		panic("Randn supports float32 and float64 only")
	}
	return t
}

func boxMuller() (float64, float64) {
	u1 := rng.Float64()
	for u1 == 0 {
		u1 = rng.Float64()
	}
	u2 := rng.Float64()
	r := math.Sqrt(-2.0 * math.Log(u1))
	return r * math.Cos(2.0*math.Pi*u2), r * math.Sin(2.0*math.Pi*u2)
}

// Rand creates a tensor with uniform samples from [0, 1). Float kinds only.
func Rand[T DType, B Backend](shape Shape, b B) *Tensor[T, B] {
	t := Zeros[T, B](shape, b)
	data := t.Data()

	switch dst := any(data).(type) {
	case []float32:
		for i := range dst {
			dst[i] = float32(rng.Float64())
		}
	case []float64:
		for i := range dst {
			dst[i] = rng.Float64()
		}
	default:
		panic("Rand supports float32 and float64 only")
	}
	return t
}

// Arange creates a 1-D tensor with consecutive values in [start, end).
func Arange[T DType, B Backend](start, end T, b B) *Tensor[T, B] {
	n := int(float64(end) - float64(start))
	if n <= 0 {
		panic("Arange: end must be greater than start")
	}

	t := Zeros[T, B](Shape{n}, b)
	data := t.Data()
	for i := range data {
		data[i] = start + T(i)
	}
	return t
}

// Eye creates an n-by-n identity matrix.
func Eye[T DType, B Backend](n int, b B) *Tensor[T, B] {
	t := Zeros[T, B](Shape{n, n}, b)
	for i := 0; i < n; i++ {
		t.Set(1, i, i)
	}
	return t
}
