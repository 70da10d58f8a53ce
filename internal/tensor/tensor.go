package tensor

import "fmt"

// Tensor is a typed handle over a RawTensor bound to the backend that
// computes with it.
//
// Type parameters:
//   - T: element type (DType constraint)
//   - B: compute engine (Backend interface)
//
// Example:
//
//	eng := cpu.New()
//	x := tensor.Zeros[float32](tensor.Shape{3, 4}, eng)
//	y := x.Add(x)
type Tensor[T DType, B Backend] struct {
	raw          *RawTensor
	backend      B
	grad         *Tensor[T, B]
	requiresGrad bool
}

// New wraps a RawTensor in a typed handle.
func New[T DType, B Backend](raw *RawTensor, b B) *Tensor[T, B] {
	return &Tensor[T, B]{raw: raw, backend: b}
}

// FromSlice copies a Go slice into a freshly allocated tensor.
func FromSlice[T DType, B Backend](data []T, shape Shape, b B) (*Tensor[T, B], error) {
	if shape.NumElements() != len(data) {
		return nil, fmt.Errorf("shape %v wants %d elements, got %d", shape, shape.NumElements(), len(data))
	}

	raw, err := NewRaw(shape, kindOf[T](), b.Device())
	if err != nil {
		return nil, err
	}

	t := New[T, B](raw, b)
	copy(t.Data(), data)
	return t, nil
}

// Shape returns the tensor's dimensions.
func (t *Tensor[T, B]) Shape() Shape { return t.raw.Shape() }

// Kind returns the runtime element type.
func (t *Tensor[T, B]) Kind() Kind { return t.raw.Kind() }

// Device returns where the tensor lives.
func (t *Tensor[T, B]) Device() Device { return t.raw.Device() }

// NumElements returns the total element count.
func (t *Tensor[T, B]) NumElements() int { return t.raw.NumElements() }

// Raw returns the untyped carrier. Backends and the gradient tape key
// their bookkeeping on this pointer.
func (t *Tensor[T, B]) Raw() *RawTensor { return t.raw }

// Backend returns the compute engine bound to this tensor.
func (t *Tensor[T, B]) Backend() B { return t.backend }

// Grad returns the gradient tensor populated by a backward pass, or nil.
func (t *Tensor[T, B]) Grad() *Tensor[T, B] { return t.grad }

// SetGrad installs a gradient tensor. Called by the autodiff layer.
func (t *Tensor[T, B]) SetGrad(grad *Tensor[T, B]) { t.grad = grad }

// RequireGrad marks the tensor as a differentiation root so a recording
// backend tracks operations involving it. Returns the tensor for chaining.
func (t *Tensor[T, B]) RequireGrad() *Tensor[T, B] {
	t.requiresGrad = true
	return t
}

// RequiresGrad reports whether the tensor participates in gradients.
func (t *Tensor[T, B]) RequiresGrad() bool { return t.requiresGrad }

// Detach returns a handle sharing the same data with gradient tracking
// stripped. Operations on the detached handle stay off the tape; used
// for targets and for sampled actions during rollouts.
func (t *Tensor[T, B]) Detach() *Tensor[T, B] {
	return &Tensor[T, B]{raw: t.raw, backend: t.backend}
}

// Data returns the typed view of the underlying buffer. The slice
// aliases tensor memory; writes through it mutate the tensor.
func (t *Tensor[T, B]) Data() []T {
	var zero T
	switch any(zero).(type) {
	case float32:
		return any(t.raw.AsFloat32()).([]T)
	case float64:
		return any(t.raw.AsFloat64()).([]T)
	case int32:
		return any(t.raw.AsInt32()).([]T)
	case int64:
		return any(t.raw.AsInt64()).([]T)
	default:
		panic("unsupported element type")
	}
}

// Item returns the value of a single-element tensor. Panics otherwise.
func (t *Tensor[T, B]) Item() T {
	if t.NumElements() != 1 {
		panic(fmt.Sprintf("Item needs a single-element tensor, shape is %v", t.Shape()))
	}
	return t.Data()[0]
}

// At returns the element at the given multi-dimensional index.
func (t *Tensor[T, B]) At(indices ...int) T {
	return t.Data()[t.flatIndex(indices)]
}

// Set writes the element at the given multi-dimensional index.
func (t *Tensor[T, B]) Set(value T, indices ...int) {
	t.Data()[t.flatIndex(indices)] = value
}

func (t *Tensor[T, B]) flatIndex(indices []int) int {
	shape := t.Shape()
	if len(indices) != len(shape) {
		panic(fmt.Sprintf("expected %d indices, got %d", len(shape), len(indices)))
	}
	offset := 0
	strides := t.raw.Strides()
	for i, idx := range indices {
		if idx < 0 || idx >= shape[i] {
			panic(fmt.Sprintf("index %d out of bounds for axis %d (size %d)", idx, i, shape[i]))
		}
		offset += idx * strides[i]
	}
	return offset
}

// Clone returns a copy-on-write duplicate. Gradient state is not cloned.
func (t *Tensor[T, B]) Clone() *Tensor[T, B] {
	return &Tensor[T, B]{raw: t.raw.Clone(), backend: t.backend}
}

// String describes the tensor without dumping its contents.
func (t *Tensor[T, B]) String() string {
	return fmt.Sprintf("Tensor[%s]%v on %s", t.Kind(), t.Shape(), t.Device())
}
