package tensor

import (
	"fmt"
	"sync"
	"sync/atomic"
	"unsafe"
)

// buffer is the reference-counted storage behind RawTensor. Sharing the
// buffer makes Clone cheap; a backend may write in place only while the
// count is exactly one.
type buffer struct {
	data     []byte
	refCount atomic.Int32
	mu       sync.Mutex
}

func newBuffer(size int) *buffer {
	b := &buffer{data: make([]byte, size)}
	b.refCount.Store(1)
	return b
}

func (b *buffer) addRef() {
	b.refCount.Add(1)
}

func (b *buffer) release() {
	if b.refCount.Add(-1) == 0 {
		b.mu.Lock()
		defer b.mu.Unlock()
		b.data = nil
	}
}

func (b *buffer) isUnique() bool {
	return b.refCount.Load() == 1
}

// RawTensor is the untyped tensor carrier every backend operates on:
// a shape, row-major strides, an element kind, a device tag and a shared
// copy-on-write buffer.
type RawTensor struct {
	buffer *buffer
	shape  Shape
	stride []int
	kind   Kind
	device Device
	offset int
}

// NewRaw allocates a zero-filled RawTensor.
func NewRaw(shape Shape, kind Kind, device Device) (*RawTensor, error) {
	if err := shape.Validate(); err != nil {
		return nil, fmt.Errorf("invalid shape: %w", err)
	}

	return &RawTensor{
		buffer: newBuffer(shape.NumElements() * kind.Size()),
		shape:  shape.Clone(),
		stride: shape.ComputeStrides(),
		kind:   kind,
		device: device,
	}, nil
}

// MustRaw allocates a RawTensor and panics on an invalid shape. Backends
// use it internally where shapes were already checked.
func MustRaw(shape Shape, kind Kind, device Device) *RawTensor {
	r, err := NewRaw(shape, kind, device)
	if err != nil {
		panic(err)
	}
	return r
}

// Shape returns the tensor's dimensions.
func (r *RawTensor) Shape() Shape { return r.shape }

// Strides returns the row-major strides.
func (r *RawTensor) Strides() []int { return r.stride }

// Kind returns the runtime element type.
func (r *RawTensor) Kind() Kind { return r.kind }

// Device returns where the tensor lives.
func (r *RawTensor) Device() Device { return r.device }

// NumElements returns the total element count.
func (r *RawTensor) NumElements() int { return r.shape.NumElements() }

// ByteSize returns the buffer size in bytes.
func (r *RawTensor) ByteSize() int { return r.NumElements() * r.kind.Size() }

// Data exposes the raw bytes. Writes alias the shared buffer.
func (r *RawTensor) Data() []byte {
	return r.buffer.data[r.offset:]
}

// AsFloat32 views the buffer as []float32. Panics on a kind mismatch.
func (r *RawTensor) AsFloat32() []float32 {
	if r.kind != Float {
		panic(fmt.Sprintf("tensor kind is %s, not float32", r.kind))
	}
	data := r.buffer.data[r.offset:]
	return unsafe.Slice((*float32)(unsafe.Pointer(&data[0])), r.NumElements())
}

// AsFloat64 views the buffer as []float64. Panics on a kind mismatch.
func (r *RawTensor) AsFloat64() []float64 {
	if r.kind != Double {
		panic(fmt.Sprintf("tensor kind is %s, not float64", r.kind))
	}
	data := r.buffer.data[r.offset:]
	return unsafe.Slice((*float64)(unsafe.Pointer(&data[0])), r.NumElements())
}

// AsInt32 views the buffer as []int32. Panics on a kind mismatch.
func (r *RawTensor) AsInt32() []int32 {
	if r.kind != Int {
		panic(fmt.Sprintf("tensor kind is %s, not int32", r.kind))
	}
	data := r.buffer.data[r.offset:]
	return unsafe.Slice((*int32)(unsafe.Pointer(&data[0])), r.NumElements())
}

// AsInt64 views the buffer as []int64. Panics on a kind mismatch.
func (r *RawTensor) AsInt64() []int64 {
	if r.kind != Int64 {
		panic(fmt.Sprintf("tensor kind is %s, not int64", r.kind))
	}
	data := r.buffer.data[r.offset:]
	return unsafe.Slice((*int64)(unsafe.Pointer(&data[0])), r.NumElements())
}

// View is the generic form of the As* accessors. Kernels that are
// generic over the element type use it to avoid a per-kind accessor
// call. Panics when T does not match the tensor's kind.
func View[T DType](r *RawTensor) []T {
	if kindOf[T]() != r.kind {
		panic(fmt.Sprintf("tensor kind is %s, not %s", r.kind, kindOf[T]()))
	}
	data := r.buffer.data[r.offset:]
	return unsafe.Slice((*T)(unsafe.Pointer(&data[0])), r.NumElements())
}

// Clone returns a new handle sharing the same buffer. The copy is cheap;
// the buffer is duplicated only when a unique owner later writes to it.
func (r *RawTensor) Clone() *RawTensor {
	r.buffer.addRef()
	return &RawTensor{
		buffer: r.buffer,
		shape:  r.shape.Clone(),
		stride: append([]int(nil), r.stride...),
		kind:   r.kind,
		device: r.device,
		offset: r.offset,
	}
}

// Release drops this handle's reference; the buffer is freed when the
// last reference goes away.
func (r *RawTensor) Release() {
	r.buffer.release()
}

// IsUnique reports whether this handle is the only reference. Backends
// may overwrite the buffer in place only while this holds.
func (r *RawTensor) IsUnique() bool {
	return r.buffer.isUnique()
}

// ForceNonUnique pins the buffer as shared so no backend writes it in
// place, and returns the release function to defer. The gradient tape
// uses this to keep recorded inputs intact.
func (r *RawTensor) ForceNonUnique() func() {
	r.buffer.addRef()
	return func() {
		r.buffer.release()
	}
}
