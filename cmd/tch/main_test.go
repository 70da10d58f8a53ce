package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/nilslice/tch-go/backend/cpu"
	"github.com/nilslice/tch-go/nn"
	"github.com/nilslice/tch-go/tensor"
)

func TestRunExitCodes(t *testing.T) {
	tests := []struct {
		name string
		args []string
		want int
	}{
		{"no args", nil, 1},
		{"version", []string{"version"}, 0},
		{"help", []string{"help"}, 0},
		{"unknown command", []string{"convert"}, 1},
		{"train bad flag", []string{"train", "-bogus"}, 1},
		{"train bad backend", []string{"train", "-backend", "quantum"}, 1},
		{"train bad task", []string{"train", "diffusion"}, 1},
		{"info no args", []string{"info"}, 1},
		{"info missing file", []string{"info", "/nonexistent/model.tch"}, 1},
		{"export no args", []string{"export"}, 1},
		{"export missing file", []string{"export", "/nonexistent/model.tch", "/tmp/out.safetensors"}, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := run(tt.args); got != tt.want {
				t.Errorf("run(%v) = %d, want %d", tt.args, got, tt.want)
			}
		})
	}
}

func TestRunInfo_SavedModel(t *testing.T) {
	store := nn.NewVarStore(cpu.New())
	root := store.Root()
	root.Zeros("weight", tensor.Shape{4, 3})
	root.Zeros("bias", tensor.Shape{3})

	path := filepath.Join(t.TempDir(), "model.tch")
	if err := store.Save(path); err != nil {
		t.Fatalf("save: %v", err)
	}

	if got := runInfo([]string{path}); got != 0 {
		t.Errorf("runInfo(%q) = %d, want 0", path, got)
	}

	exported := filepath.Join(t.TempDir(), "model.safetensors")
	if got := runExport([]string{path, exported}); got != 0 {
		t.Errorf("runExport = %d, want 0", got)
	}
	if _, err := os.Stat(exported); err != nil {
		t.Errorf("exported file: %v", err)
	}
}
