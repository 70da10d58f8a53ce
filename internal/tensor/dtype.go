// Package tensor provides the core tensor types shared by every tch-go backend.
package tensor

// DType is the compile-time constraint for element types a Tensor can carry.
type DType interface {
	~float32 | ~float64 | ~int32 | ~int64
}

// Kind is the runtime element type of a tensor.
type Kind int

// Element kinds. Float is the training dtype; Double, Int and Int64
// cover accumulation, indices and labels.
const (
	Float Kind = iota // float32
	Double            // float64
	Int               // int32
	Int64             // int64
)

// Size returns the width of one element in bytes.
func (k Kind) Size() int {
	switch k {
	case Float, Int:
		return 4
	case Double, Int64:
		return 8
	default:
		panic("unknown kind")
	}
}

// String returns the Go name of the element type.
func (k Kind) String() string {
	switch k {
	case Float:
		return "float32"
	case Double:
		return "float64"
	case Int:
		return "int32"
	case Int64:
		return "int64"
	default:
		return "unknown"
	}
}

// KindFromString parses the names produced by String. Used when decoding
// checkpoint headers.
func KindFromString(s string) (Kind, bool) {
	switch s {
	case "float32":
		return Float, true
	case "float64":
		return Double, true
	case "int32":
		return Int, true
	case "int64":
		return Int64, true
	default:
		return 0, false
	}
}

// kindOf maps a generic element type to its runtime Kind.
func kindOf[T DType]() Kind {
	var zero T
	switch any(zero).(type) {
	case float32:
		return Float
	case float64:
		return Double
	case int32:
		return Int
	case int64:
		return Int64
	default:
		panic("unsupported element type")
	}
}
