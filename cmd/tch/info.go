package main

import (
	"fmt"
	"os"
	"sort"
	"time"

	"github.com/nilslice/tch-go/internal/serialization"
)

func runInfo(args []string) int {
	if len(args) != 1 {
		fmt.Fprint(os.Stderr, "usage: tch info <file.tch>\n")
		return 1
	}
	path := args[0]

	reader, err := serialization.NewMmapReader(path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "tch: %v\n", err)
		return 1
	}
	defer reader.Close()

	header := reader.Header()
	fmt.Printf("file:    %s\n", path)
	fmt.Printf("format:  v%d\n", header.FormatVersion)
	fmt.Printf("model:   %s\n", header.ModelType)
	fmt.Printf("created: %s\n", header.CreatedAt.Format(time.RFC3339))

	if meta := header.CheckpointMeta; meta != nil && meta.IsCheckpoint {
		fmt.Printf("checkpoint: epoch=%d step=%d loss=%g optimizer=%s\n",
			meta.Epoch, meta.Step, meta.Loss, meta.OptimizerType)
	}

	if len(header.Metadata) > 0 {
		keys := make([]string, 0, len(header.Metadata))
		for k := range header.Metadata {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		fmt.Println("metadata:")
		for _, k := range keys {
			fmt.Printf("  %s = %s\n", k, header.Metadata[k])
		}
	}

	names := reader.TensorNames()
	sort.Strings(names)

	fmt.Printf("\ntensors (%d):\n", len(names))
	var totalBytes int64
	for _, name := range names {
		info, err := reader.TensorInfo(name)
		if err != nil {
			fmt.Fprintf(os.Stderr, "tch: %v\n", err)
			return 1
		}
		totalBytes += info.Size
		fmt.Printf("  %-40s %-8s %-16v %10d bytes\n", name, info.DType, info.Shape, info.Size)
	}
	fmt.Printf("\ntotal tensor data: %d bytes\n", totalBytes)

	if err := reader.ValidateData(); err != nil {
		fmt.Fprintf(os.Stderr, "tch: checksum validation failed: %v\n", err)
		return 1
	}
	fmt.Println("checksum: ok")
	return 0
}
