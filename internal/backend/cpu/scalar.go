package cpu

import (
	"fmt"

	"github.com/nilslice/tch-go/internal/tensor"
)

// AddScalar adds a scalar to every element.
func (c *Backend) AddScalar(x *tensor.RawTensor, scalar any) *tensor.RawTensor {
	switch x.Kind() {
	case tensor.Float:
		s := toScalar[float32]("addscalar", scalar)
		return unary(c, x, func(v float32) float32 { return v + s })
	case tensor.Double:
		s := toScalar[float64]("addscalar", scalar)
		return unary(c, x, func(v float64) float64 { return v + s })
	case tensor.Int:
		s := toScalar[int32]("addscalar", scalar)
		return unary(c, x, func(v int32) int32 { return v + s })
	case tensor.Int64:
		s := toScalar[int64]("addscalar", scalar)
		return unary(c, x, func(v int64) int64 { return v + s })
	default:
		panic(fmt.Sprintf("addscalar: unsupported kind %s", x.Kind()))
	}
}

// SubScalar subtracts a scalar from every element.
func (c *Backend) SubScalar(x *tensor.RawTensor, scalar any) *tensor.RawTensor {
	switch x.Kind() {
	case tensor.Float:
		s := toScalar[float32]("subscalar", scalar)
		return unary(c, x, func(v float32) float32 { return v - s })
	case tensor.Double:
		s := toScalar[float64]("subscalar", scalar)
		return unary(c, x, func(v float64) float64 { return v - s })
	case tensor.Int:
		s := toScalar[int32]("subscalar", scalar)
		return unary(c, x, func(v int32) int32 { return v - s })
	case tensor.Int64:
		s := toScalar[int64]("subscalar", scalar)
		return unary(c, x, func(v int64) int64 { return v - s })
	default:
		panic(fmt.Sprintf("subscalar: unsupported kind %s", x.Kind()))
	}
}

// MulScalar multiplies every element by a scalar.
func (c *Backend) MulScalar(x *tensor.RawTensor, scalar any) *tensor.RawTensor {
	switch x.Kind() {
	case tensor.Float:
		s := toScalar[float32]("mulscalar", scalar)
		return unary(c, x, func(v float32) float32 { return v * s })
	case tensor.Double:
		s := toScalar[float64]("mulscalar", scalar)
		return unary(c, x, func(v float64) float64 { return v * s })
	case tensor.Int:
		s := toScalar[int32]("mulscalar", scalar)
		return unary(c, x, func(v int32) int32 { return v * s })
	case tensor.Int64:
		s := toScalar[int64]("mulscalar", scalar)
		return unary(c, x, func(v int64) int64 { return v * s })
	default:
		panic(fmt.Sprintf("mulscalar: unsupported kind %s", x.Kind()))
	}
}

// DivScalar divides every element by a scalar. Integer division
// truncates toward zero.
func (c *Backend) DivScalar(x *tensor.RawTensor, scalar any) *tensor.RawTensor {
	switch x.Kind() {
	case tensor.Float:
		s := toScalar[float32]("divscalar", scalar)
		return unary(c, x, func(v float32) float32 { return v / s })
	case tensor.Double:
		s := toScalar[float64]("divscalar", scalar)
		return unary(c, x, func(v float64) float64 { return v / s })
	case tensor.Int:
		s := toScalar[int32]("divscalar", scalar)
		return unary(c, x, func(v int32) int32 { return v / s })
	case tensor.Int64:
		s := toScalar[int64]("divscalar", scalar)
		return unary(c, x, func(v int64) int64 { return v / s })
	default:
		panic(fmt.Sprintf("divscalar: unsupported kind %s", x.Kind()))
	}
}

// toScalar coerces scalar to the tensor's element type. Untyped
// numeric literals arrive as int or float64, so conversion rather than
// a bare type assertion keeps call sites untyped.
func toScalar[T tensor.DType](name string, scalar any) T {
	switch v := scalar.(type) {
	case float32:
		return T(v)
	case float64:
		return T(v)
	case int:
		return T(v)
	case int32:
		return T(v)
	case int64:
		return T(v)
	default:
		panic(fmt.Sprintf("%s: unsupported scalar type %T", name, scalar))
	}
}
