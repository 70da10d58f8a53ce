package tensor

// Backend is the flat operation surface every compute engine implements.
// The typed Tensor API dispatches through it, so an engine (or a
// decorator such as the gradient tape) can be swapped without touching
// model code.
//
// Kernels panic on shape or kind violations: by the time a RawTensor
// reaches a backend, user input has already been validated.
type Backend interface {
	// Element-wise arithmetic with NumPy broadcasting.
	Add(a, b *RawTensor) *RawTensor
	Sub(a, b *RawTensor) *RawTensor
	Mul(a, b *RawTensor) *RawTensor
	Div(a, b *RawTensor) *RawTensor
	Neg(x *RawTensor) *RawTensor

	// Scalar forms. The scalar must match the tensor's kind.
	AddScalar(x *RawTensor, scalar any) *RawTensor
	SubScalar(x *RawTensor, scalar any) *RawTensor
	MulScalar(x *RawTensor, scalar any) *RawTensor
	DivScalar(x *RawTensor, scalar any) *RawTensor

	// MatMul multiplies 2-D tensors: (M,K) @ (K,N) -> (M,N).
	MatMul(a, b *RawTensor) *RawTensor

	// Element-wise math. Pow raises every element to a fixed scalar
	// power.
	Exp(x *RawTensor) *RawTensor
	Log(x *RawTensor) *RawTensor
	Sqrt(x *RawTensor) *RawTensor
	Pow(x *RawTensor, exponent float64) *RawTensor

	// Activations.
	ReLU(x *RawTensor) *RawTensor
	Sigmoid(x *RawTensor) *RawTensor
	Tanh(x *RawTensor) *RawTensor

	// Softmax and LogSoftmax along an axis (negative axes allowed).
	// LogSoftmax is computed with the log-sum-exp trick, not Log(Softmax).
	Softmax(x *RawTensor, dim int) *RawTensor
	LogSoftmax(x *RawTensor, dim int) *RawTensor

	// Full reductions to a scalar tensor. Max panics on an empty
	// tensor.
	Sum(x *RawTensor) *RawTensor
	Mean(x *RawTensor) *RawTensor
	Max(x *RawTensor) *RawTensor

	// Axis reductions.
	SumDim(x *RawTensor, dim int, keepDim bool) *RawTensor
	MeanDim(x *RawTensor, dim int, keepDim bool) *RawTensor
	MaxDim(x *RawTensor, dim int, keepDim bool) *RawTensor
	Argmax(x *RawTensor, dim int) *RawTensor

	// Shape manipulation. Reshape and Expand never move data across
	// devices; Transpose materializes a contiguous result.
	Reshape(x *RawTensor, shape Shape) *RawTensor
	Transpose(x *RawTensor, axes ...int) *RawTensor
	Expand(x *RawTensor, shape Shape) *RawTensor

	// Gather selects elements along dim using an Int index tensor with
	// the same rank as x.
	Gather(x *RawTensor, dim int, index *RawTensor) *RawTensor

	// Cast converts to another element kind.
	Cast(x *RawTensor, kind Kind) *RawTensor

	// Metadata.
	Name() string
	Device() Device
}
