package serialization

import (
	"encoding/binary"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sort"
	"time"

	"github.com/nilslice/tch-go/internal/tensor"
)

const tchVersion = "0.1.0" // Library version recorded in headers

// TchWriter writes state dictionaries in .tch format.
type TchWriter struct {
	file   *os.File
	closed bool
}

// NewTchWriter creates a writer for path, truncating any existing file.
func NewTchWriter(path string) (*TchWriter, error) {
	//nolint:gosec // G304: the caller chooses where to save the model
	file, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("failed to create file: %w", err)
	}

	return &TchWriter{file: file}, nil
}

// WriteStateDict writes a state dictionary with a minimal header.
//
// The state dictionary is a map from parameter names to tensors.
func (w *TchWriter) WriteStateDict(stateDict map[string]*tensor.RawTensor, metadata map[string]string) error {
	return w.WriteStateDictWithHeader(stateDict, Header{
		ModelType: "StateDict",
		Metadata:  metadata,
	})
}

// WriteStateDictWithHeader writes a state dictionary under a
// caller-built header. Checkpoints use this to attach their
// CheckpointMeta. The writer fills in the format version, library
// version and tensor table; CreatedAt is set only when the caller left
// it zero.
func (w *TchWriter) WriteStateDictWithHeader(stateDict map[string]*tensor.RawTensor, header Header) error {
	if w.closed {
		return fmt.Errorf("writer is closed")
	}
	return writeStateDict(w.file, stateDict, header)
}

// Close closes the writer and the underlying file.
func (w *TchWriter) Close() error {
	if w.closed {
		return nil
	}
	w.closed = true
	return w.file.Close()
}

// WriteTo writes a state dictionary to an io.Writer. Useful for writing
// to buffers or network connections.
func WriteTo(writer io.Writer, stateDict map[string]*tensor.RawTensor, modelType string, metadata map[string]string) error {
	return writeStateDict(writer, stateDict, Header{
		ModelType: modelType,
		Metadata:  metadata,
	})
}

// writeStateDict is the single serialization path. Tensors are laid out
// in name order so identical dictionaries produce identical files.
func writeStateDict(out io.Writer, stateDict map[string]*tensor.RawTensor, header Header) error {
	names := make([]string, 0, len(stateDict))
	for name := range stateDict {
		names = append(names, name)
	}
	sort.Strings(names)

	header.FormatVersion = FormatVersion
	header.TchVersion = tchVersion
	if header.CreatedAt.IsZero() {
		header.CreatedAt = time.Now().UTC()
	}
	if header.Metadata == nil {
		header.Metadata = make(map[string]string)
	}

	// Build the tensor table and collect the data section.
	var currentOffset int64
	var tensorData []byte
	header.Tensors = make([]TensorMeta, 0, len(stateDict))
	for _, name := range names {
		raw := stateDict[name]
		size := int64(raw.ByteSize())

		header.Tensors = append(header.Tensors, TensorMeta{
			Name:   name,
			DType:  raw.Kind().String(),
			Shape:  []int(raw.Shape()),
			Offset: currentOffset,
			Size:   size,
		})
		tensorData = append(tensorData, raw.Data()[:size]...)
		currentOffset += size
	}

	checksum := ComputeChecksum(tensorData)

	headerJSON, err := json.Marshal(header)
	if err != nil {
		return fmt.Errorf("failed to marshal header: %w", err)
	}

	fixed := make([]byte, FixedHeaderSize)
	copy(fixed[0:4], MagicBytes)
	binary.LittleEndian.PutUint32(fixed[4:8], uint32(FormatVersion))

	flags := uint32(0)
	if len(header.Metadata) > 0 {
		flags |= FlagHasMetadata
	}
	if header.CheckpointMeta != nil && header.CheckpointMeta.IsCheckpoint {
		flags |= FlagHasOptimizer
	}
	binary.LittleEndian.PutUint32(fixed[8:12], flags)

	// 0x0C-0x0F reserved, left zero.
	binary.LittleEndian.PutUint64(fixed[16:24], uint64(len(headerJSON)))
	binary.LittleEndian.PutUint64(fixed[24:32], uint64(len(tensorData)))
	copy(fixed[ChecksumOffset:ChecksumOffset+ChecksumSize], checksum[:])

	if _, err := out.Write(fixed); err != nil {
		return fmt.Errorf("failed to write fixed header: %w", err)
	}
	if _, err := out.Write(headerJSON); err != nil {
		return fmt.Errorf("failed to write header JSON: %w", err)
	}

	padding := alignmentPadding(int64(FixedHeaderSize) + int64(len(headerJSON)))
	if padding > 0 {
		if _, err := out.Write(make([]byte, padding)); err != nil {
			return fmt.Errorf("failed to write padding: %w", err)
		}
	}

	if _, err := out.Write(tensorData); err != nil {
		return fmt.Errorf("failed to write tensor data: %w", err)
	}

	return nil
}

// alignmentPadding returns the bytes needed to advance pos to the next
// HeaderAlignment boundary.
func alignmentPadding(pos int64) int64 {
	return (HeaderAlignment - (pos % HeaderAlignment)) % HeaderAlignment
}
