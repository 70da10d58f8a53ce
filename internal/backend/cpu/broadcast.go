package cpu

import "github.com/nilslice/tch-go/internal/tensor"

// broadcastStrides right-aligns shape under out and returns element
// strides addressable by out-shaped indices. Axes of size one and
// missing leading axes get stride zero, so walking an expanded axis
// revisits the same source element.
func broadcastStrides(shape, out tensor.Shape) []int {
	strides := make([]int, len(out))
	src := shape.ComputeStrides()
	offset := len(out) - len(shape)
	for i := range shape {
		if shape[i] != 1 {
			strides[offset+i] = src[i]
		}
	}
	return strides
}

// flatIndex maps a flat index over the output shape to the flat index
// of a broadcast operand.
func flatIndex(idx int, outStrides, inStrides []int) int {
	in := 0
	for d, stride := range outStrides {
		coord := idx / stride
		idx %= stride
		in += coord * inStrides[d]
	}
	return in
}
