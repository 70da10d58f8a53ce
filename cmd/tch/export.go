package main

import (
	"fmt"
	"os"

	"github.com/nilslice/tch-go/backend/cpu"
	"github.com/nilslice/tch-go/internal/serialization"
)

// runExport converts a .tch state dictionary to the SafeTensors
// interchange format.
func runExport(args []string) int {
	if len(args) != 2 {
		fmt.Fprint(os.Stderr, "usage: tch export <file.tch> <out.safetensors>\n")
		return 1
	}
	src, dst := args[0], args[1]

	reader, err := serialization.NewTchReader(src)
	if err != nil {
		fmt.Fprintf(os.Stderr, "tch: %v\n", err)
		return 1
	}
	defer reader.Close()

	stateDict, err := reader.ReadStateDict(cpu.New())
	if err != nil {
		fmt.Fprintf(os.Stderr, "tch: read %s: %v\n", src, err)
		return 1
	}

	header := reader.Header()
	metadata := map[string]string{"format": "pt"}
	if header.ModelType != "" {
		metadata["model_type"] = header.ModelType
	}

	if err := serialization.WriteSafeTensors(dst, stateDict, metadata); err != nil {
		fmt.Fprintf(os.Stderr, "tch: write %s: %v\n", dst, err)
		return 1
	}
	fmt.Printf("exported %d tensors to %s\n", len(stateDict), dst)
	return 0
}
