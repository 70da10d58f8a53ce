package tensor

// Device identifies where a tensor's buffer lives and which engine owns it.
type Device int

// Supported devices. CPU is always available; WebGPU requires a native
// runtime discovered when the backend is constructed.
const (
	CPU Device = iota
	WebGPU
)

// String returns a human-readable device name.
func (d Device) String() string {
	switch d {
	case CPU:
		return "CPU"
	case WebGPU:
		return "WebGPU"
	default:
		return "Unknown"
	}
}
