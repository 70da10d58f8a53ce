package tensor

import "fmt"

// Reshape returns a tensor viewing the same data with a new shape.
// The element count must be unchanged.
func (t *Tensor[T, B]) Reshape(shape ...int) *Tensor[T, B] {
	return New[T, B](t.backend.Reshape(t.raw, Shape(shape)), t.backend)
}

// Flatten reshapes to 1-D.
func (t *Tensor[T, B]) Flatten() *Tensor[T, B] {
	return t.Reshape(t.NumElements())
}

// View is Reshape with one axis allowed to be -1, inferred from the
// element count.
func (t *Tensor[T, B]) View(shape ...int) *Tensor[T, B] {
	infer := -1
	known := 1
	for i, d := range shape {
		if d == -1 {
			if infer >= 0 {
				panic("View: only one axis may be -1")
			}
			infer = i
			continue
		}
		known *= d
	}
	if infer >= 0 {
		n := t.NumElements()
		if known == 0 || n%known != 0 {
			panic(fmt.Sprintf("View: cannot infer axis %d for %d elements in %v", infer, n, shape))
		}
		resolved := append([]int(nil), shape...)
		resolved[infer] = n / known
		return t.Reshape(resolved...)
	}
	return t.Reshape(shape...)
}

// Transpose permutes dimensions. Without arguments all axes are
// reversed, which is the standard transpose for 2-D tensors.
func (t *Tensor[T, B]) Transpose(axes ...int) *Tensor[T, B] {
	return New[T, B](t.backend.Transpose(t.raw, axes...), t.backend)
}

// T transposes a 2-D tensor. Panics for other ranks.
func (t *Tensor[T, B]) T() *Tensor[T, B] {
	if t.Shape().Rank() != 2 {
		panic("T works on 2-D tensors only")
	}
	return t.Transpose(1, 0)
}

// Expand broadcasts the tensor to a larger shape. Axes of size 1 may
// grow; others must match.
func (t *Tensor[T, B]) Expand(shape Shape) *Tensor[T, B] {
	return New[T, B](t.backend.Expand(t.raw, shape), t.backend)
}
