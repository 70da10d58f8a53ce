// Package cpu implements the pure-Go compute backend. It is always
// available and serves as the reference the webgpu backend is checked
// against.
package cpu

import (
	"github.com/nilslice/tch-go/internal/parallel"
	"github.com/nilslice/tch-go/internal/tensor"
)

// parallelThreshold is the minimum number of touched elements before a
// kernel is worth splitting across cores.
const parallelThreshold = 4096

// Backend executes tensor operations on the host CPU.
//
// Elementwise kernels pick one of three paths: in place when the left
// operand uniquely owns its buffer, a vectorized same-shape loop, or a
// stride walk when broadcasting is involved. Large loops are split
// across cores through the parallel package.
type Backend struct {
	device  tensor.Device
	workers parallel.Config
}

// New returns a CPU backend using all available cores.
func New() *Backend {
	return NewFor(tensor.CPU)
}

// NewFor returns a backend that computes on the host CPU but stamps
// device on the tensors it creates. The webgpu backend embeds one as
// its fallback engine so delegated results keep the caller's device
// tag.
func NewFor(device tensor.Device) *Backend {
	return &Backend{
		device:  device,
		workers: parallel.DefaultConfig(),
	}
}

// Name identifies the backend in logs and checkpoint metadata.
func (c *Backend) Name() string { return "cpu" }

// Device returns the device tag stamped on tensors this backend creates.
func (c *Backend) Device() tensor.Device { return c.device }

// sliceCfg is the worker config for loops whose unit is a whole row or
// reduction slice. The chunk floor drops to one slice and small
// workloads stay sequential.
func (c *Backend) sliceCfg(totalWork int) parallel.Config {
	cfg := c.workers
	cfg.MinChunkSize = 1
	cfg.Enabled = cfg.Enabled && totalWork >= parallelThreshold
	return cfg
}
