// Package serialization implements the .tch binary format for saving
// and loading model state.
//
//	Format structure:
//	  [0x00] 4 bytes: magic "TCHG"
//	  [0x04] 4 bytes: format version (uint32 LE)
//	  [0x08] 4 bytes: flags (uint32 LE)
//	  [0x0C] 4 bytes: reserved
//	  [0x10] 8 bytes: header size (uint64 LE)
//	  [0x18] 8 bytes: data size (uint64 LE)
//	  [0x20] 32 bytes: SHA-256 of the data section
//	  [0x40] header: JSON metadata
//	  [....] data section: raw tensor bytes, 64-byte aligned
//
// Tensors are written in name order, packed back to back. The JSON
// header records each tensor's dtype, shape, offset and size; optional
// checkpoint metadata carries training state alongside the weights.
//
// Example usage:
//
//	writer, _ := serialization.NewTchWriter("model.tch")
//	defer writer.Close()
//	writer.WriteStateDict(stateDict, nil)
//
//	reader, _ := serialization.NewTchReader("model.tch")
//	defer reader.Close()
//	stateDict, err := reader.ReadStateDict(backend)
package serialization
