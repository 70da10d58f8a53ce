package nn

import (
	"fmt"
	"time"

	"github.com/nilslice/tch-go/internal/serialization"
	"github.com/nilslice/tch-go/internal/tensor"
)

// OptimizerState is the slice of an optimizer a checkpoint needs. The
// optim package implements it; declaring it here avoids an import
// cycle.
type OptimizerState interface {
	// StateDict returns the optimizer's internal buffers keyed by
	// parameter name.
	StateDict() map[string]*tensor.RawTensor

	// LoadStateDict restores the optimizer's internal buffers.
	LoadStateDict(stateDict map[string]*tensor.RawTensor) error

	// LR returns the current learning rate.
	LR() float64

	// Name identifies the optimizer type ("sgd", "adam").
	Name() string
}

// Checkpoint is a full training snapshot: the variable store, the
// optimizer buffers, and where training stood when it was taken.
//
// Saving and loading a checkpoint lets an interrupted run resume at
// the recorded epoch instead of restarting:
//
//	ckpt := &nn.Checkpoint[B]{Store: vs, Optimizer: opt, Epoch: 10, Loss: 0.12}
//	if err := ckpt.Save("run.tch"); err != nil { ... }
//
//	ckpt, err := nn.LoadCheckpoint("run.tch", vs, opt)
//	startEpoch := ckpt.Epoch + 1
type Checkpoint[B tensor.Backend] struct {
	Store     *VarStore[B]
	Optimizer OptimizerState
	Epoch     int
	Step      int64
	Loss      float64
	Metadata  map[string]any
	CreatedAt time.Time
}

const optimizerPrefix = "optimizer."

// Save writes the checkpoint to a .tch file. Model variables keep
// their store names; optimizer buffers are prefixed with "optimizer."
// so both live in one state dictionary.
func (c *Checkpoint[B]) Save(path string) (err error) {
	combined := make(map[string]*tensor.RawTensor)
	for name, raw := range c.Store.StateDict() {
		combined[name] = raw
	}
	for name, raw := range c.Optimizer.StateDict() {
		combined[optimizerPrefix+name] = raw
	}

	header := serialization.Header{
		FormatVersion: serialization.FormatVersion,
		ModelType:     "Checkpoint",
		CreatedAt:     time.Now().UTC(),
		Metadata:      make(map[string]string),
		CheckpointMeta: &serialization.CheckpointMeta{
			IsCheckpoint:  true,
			Epoch:         c.Epoch,
			Step:          c.Step,
			Loss:          c.Loss,
			OptimizerType: c.Optimizer.Name(),
			OptimizerConfig: map[string]any{
				"lr": c.Optimizer.LR(),
			},
			TrainingMeta: c.Metadata,
		},
	}

	writer, err := serialization.NewTchWriter(path)
	if err != nil {
		return fmt.Errorf("create writer: %w", err)
	}
	defer func() {
		if closeErr := writer.Close(); closeErr != nil && err == nil {
			err = closeErr
		}
	}()

	if err := writer.WriteStateDictWithHeader(combined, header); err != nil {
		return fmt.Errorf("write checkpoint: %w", err)
	}
	return nil
}

// LoadCheckpoint restores a checkpoint into an existing store and
// optimizer. Both must be constructed with the same architecture and
// configuration the checkpoint was saved from.
func LoadCheckpoint[B tensor.Backend](
	path string,
	store *VarStore[B],
	optimizer OptimizerState,
) (_ *Checkpoint[B], err error) {
	reader, err := serialization.NewTchReader(path)
	if err != nil {
		return nil, fmt.Errorf("open checkpoint: %w", err)
	}
	defer func() {
		if closeErr := reader.Close(); closeErr != nil && err == nil {
			err = closeErr
		}
	}()

	header := reader.Header()
	if header.CheckpointMeta == nil || !header.CheckpointMeta.IsCheckpoint {
		return nil, fmt.Errorf("%s is not a checkpoint file", path)
	}

	stateDict, err := reader.ReadStateDict(store.Backend())
	if err != nil {
		return nil, fmt.Errorf("read state dict: %w", err)
	}

	modelState := make(map[string]*tensor.RawTensor)
	optimizerState := make(map[string]*tensor.RawTensor)
	for name, raw := range stateDict {
		if len(name) > len(optimizerPrefix) && name[:len(optimizerPrefix)] == optimizerPrefix {
			optimizerState[name[len(optimizerPrefix):]] = raw
		} else {
			modelState[name] = raw
		}
	}

	if err := store.LoadStateDict(modelState); err != nil {
		return nil, fmt.Errorf("load model state: %w", err)
	}
	if err := optimizer.LoadStateDict(optimizerState); err != nil {
		return nil, fmt.Errorf("load optimizer state: %w", err)
	}

	return &Checkpoint[B]{
		Store:     store,
		Optimizer: optimizer,
		Epoch:     header.CheckpointMeta.Epoch,
		Step:      header.CheckpointMeta.Step,
		Loss:      header.CheckpointMeta.Loss,
		Metadata:  header.CheckpointMeta.TrainingMeta,
		CreatedAt: header.CreatedAt,
	}, nil
}

// SaveCheckpoint is shorthand for snapshotting at the end of an epoch.
func SaveCheckpoint[B tensor.Backend](
	path string,
	store *VarStore[B],
	optimizer OptimizerState,
	epoch int,
) error {
	checkpoint := &Checkpoint[B]{
		Store:     store,
		Optimizer: optimizer,
		Epoch:     epoch,
		CreatedAt: time.Now().UTC(),
	}
	return checkpoint.Save(path)
}
