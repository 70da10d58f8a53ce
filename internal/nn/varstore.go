package nn

import (
	"fmt"

	"github.com/nilslice/tch-go/internal/serialization"
	"github.com/nilslice/tch-go/internal/tensor"
)

// VarStore owns the trainable variables of one or more modules.
//
// Layers register their parameters through a Path, which assigns each
// one a unique dotted name. The store is then the single handle for
// everything training needs: the optimizer iterates
// TrainableVariables, persistence goes through Save and Load, and
// target-network style synchronization through Copy.
//
// A VarStore is not safe for concurrent mutation.
type VarStore[B tensor.Backend] struct {
	backend B
	vars    map[string]*Parameter[B]
	order   []string
}

// NewVarStore creates an empty variable store bound to backend.
func NewVarStore[B tensor.Backend](backend B) *VarStore[B] {
	return &VarStore[B]{
		backend: backend,
		vars:    make(map[string]*Parameter[B]),
	}
}

// Backend returns the backend the store's variables live on.
func (vs *VarStore[B]) Backend() B {
	return vs.backend
}

// Root returns the path at the top of the name hierarchy.
func (vs *VarStore[B]) Root() *Path[B] {
	return &Path[B]{store: vs}
}

// Len returns the number of registered variables.
func (vs *VarStore[B]) Len() int {
	return len(vs.vars)
}

// Names returns variable names in registration order.
func (vs *VarStore[B]) Names() []string {
	names := make([]string, len(vs.order))
	copy(names, vs.order)
	return names
}

// Get looks up a variable by its full dotted name.
func (vs *VarStore[B]) Get(name string) (*Parameter[B], bool) {
	p, ok := vs.vars[name]
	return p, ok
}

// Device returns the device the store's variables live on.
func (vs *VarStore[B]) Device() tensor.Device {
	return vs.backend.Device()
}

// TrainableVariables returns the non-frozen parameters in registration
// order. The slice is fresh, the parameters are shared.
func (vs *VarStore[B]) TrainableVariables() []*Parameter[B] {
	params := make([]*Parameter[B], 0, len(vs.order))
	for _, name := range vs.order {
		if p := vs.vars[name]; p.trainable {
			params = append(params, p)
		}
	}
	return params
}

// Freeze marks every variable as non-trainable. Frozen variables keep
// their values and stay loadable, optimizers just skip them.
func (vs *VarStore[B]) Freeze() {
	for _, p := range vs.vars {
		p.trainable = false
	}
}

// Unfreeze marks every variable as trainable again.
func (vs *VarStore[B]) Unfreeze() {
	for _, p := range vs.vars {
		p.trainable = true
	}
}

// ZeroGrad clears the gradients of every variable.
func (vs *VarStore[B]) ZeroGrad() {
	for _, p := range vs.vars {
		p.ZeroGrad()
	}
}

// StateDict returns the variables as a name to raw tensor map.
func (vs *VarStore[B]) StateDict() map[string]*tensor.RawTensor {
	stateDict := make(map[string]*tensor.RawTensor, len(vs.vars))
	for name, p := range vs.vars {
		stateDict[name] = p.Tensor().Raw()
	}
	return stateDict
}

// LoadStateDict copies values from stateDict into the registered
// variables. Every variable in the store must be present with a
// matching shape and kind; data is copied in place so existing tensor
// handles, including those held by an optimizer or a tape, stay valid.
// Entries in stateDict that match no variable are ignored.
func (vs *VarStore[B]) LoadStateDict(stateDict map[string]*tensor.RawTensor) error {
	for _, name := range vs.order {
		raw, ok := stateDict[name]
		if !ok {
			return fmt.Errorf("state dict is missing %q", name)
		}

		dst := vs.vars[name].Tensor()
		if !raw.Shape().Equal(dst.Shape()) {
			return fmt.Errorf("%s: shape mismatch: expected %v, got %v",
				name, dst.Shape(), raw.Shape())
		}
		if raw.Kind() != tensor.Float {
			return fmt.Errorf("%s: kind mismatch: expected %s, got %s",
				name, tensor.Float, raw.Kind())
		}

		copy(dst.Data(), raw.AsFloat32())
	}
	return nil
}

// Save writes all variables to a .tch file.
func (vs *VarStore[B]) Save(path string) (err error) {
	writer, err := serialization.NewTchWriter(path)
	if err != nil {
		return fmt.Errorf("create writer: %w", err)
	}
	defer func() {
		if closeErr := writer.Close(); closeErr != nil && err == nil {
			err = closeErr
		}
	}()

	if err := writer.WriteStateDict(vs.StateDict(), nil); err != nil {
		return fmt.Errorf("write state dict: %w", err)
	}
	return nil
}

// Load restores all variables from a .tch file written by Save. The
// store must already hold variables of the same names and shapes.
func (vs *VarStore[B]) Load(path string) (err error) {
	reader, err := serialization.NewTchReader(path)
	if err != nil {
		return fmt.Errorf("open %s: %w", path, err)
	}
	defer func() {
		if closeErr := reader.Close(); closeErr != nil && err == nil {
			err = closeErr
		}
	}()

	stateDict, err := reader.ReadStateDict(vs.backend)
	if err != nil {
		return fmt.Errorf("read state dict: %w", err)
	}
	return vs.LoadStateDict(stateDict)
}

// Copy copies variable values from src into this store. Both stores
// must hold the same names with the same shapes. Used to synchronize a
// target network with its online counterpart.
func (vs *VarStore[B]) Copy(src *VarStore[B]) error {
	for _, name := range vs.order {
		srcParam, ok := src.vars[name]
		if !ok {
			return fmt.Errorf("source store is missing %q", name)
		}

		dst := vs.vars[name].Tensor()
		if !dst.Shape().Equal(srcParam.Tensor().Shape()) {
			return fmt.Errorf("%s: shape mismatch: %v vs %v",
				name, dst.Shape(), srcParam.Tensor().Shape())
		}
		copy(dst.Data(), srcParam.Tensor().Data())
	}
	return nil
}

// Path names a position in a VarStore's variable hierarchy. Layers
// take a Path and register their parameters under it.
type Path[B tensor.Backend] struct {
	store  *VarStore[B]
	prefix string
}

// Sub descends one level, extending the dotted prefix.
func (p *Path[B]) Sub(name string) *Path[B] {
	return &Path[B]{store: p.store, prefix: p.full(name)}
}

// Backend returns the backend of the owning store.
func (p *Path[B]) Backend() B {
	return p.store.backend
}

// Add registers t under this path and returns the parameter handle.
// Panics if the full name is already taken.
func (p *Path[B]) Add(name string, t *tensor.Tensor[float32, B]) *Parameter[B] {
	full := p.full(name)
	if _, exists := p.store.vars[full]; exists {
		panic(fmt.Sprintf("nn: variable %q already registered", full))
	}

	param := &Parameter[B]{name: full, tensor: t, trainable: true}
	p.store.vars[full] = param
	p.store.order = append(p.store.order, full)
	return param
}

// Zeros registers a zero-filled variable of the given shape.
func (p *Path[B]) Zeros(name string, shape tensor.Shape) *Parameter[B] {
	return p.Add(name, tensor.Zeros[float32](shape, p.store.backend))
}

// Randn registers a variable sampled from the standard normal
// distribution.
func (p *Path[B]) Randn(name string, shape tensor.Shape) *Parameter[B] {
	return p.Add(name, tensor.Randn[float32](shape, p.store.backend))
}

func (p *Path[B]) full(name string) string {
	if p.prefix == "" {
		return name
	}
	return p.prefix + "." + name
}
