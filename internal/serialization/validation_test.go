package serialization

import (
	"errors"
	"strings"
	"testing"
)

func TestValidateTensorOffsets(t *testing.T) {
	t.Run("ValidLayout", func(t *testing.T) {
		tensors := []TensorMeta{
			{Name: "a", Offset: 0, Size: 16},
			{Name: "b", Offset: 16, Size: 32},
			{Name: "c", Offset: 48, Size: 8},
		}
		if err := ValidateTensorOffsets(tensors, 56); err != nil {
			t.Errorf("valid layout rejected: %v", err)
		}
	})

	t.Run("Overlap", func(t *testing.T) {
		tensors := []TensorMeta{
			{Name: "a", Offset: 0, Size: 20},
			{Name: "b", Offset: 16, Size: 16},
		}
		err := ValidateTensorOffsets(tensors, 64)
		if err == nil {
			t.Fatal("overlapping tensors accepted")
		}
		var vErr *ValidationError
		if !errors.As(err, &vErr) || vErr.Type != "offset_overlap" {
			t.Errorf("expected offset_overlap, got %v", err)
		}
	})

	t.Run("OutOfBounds", func(t *testing.T) {
		tensors := []TensorMeta{
			{Name: "a", Offset: 0, Size: 128},
		}
		err := ValidateTensorOffsets(tensors, 64)
		if err == nil {
			t.Fatal("out-of-bounds tensor accepted")
		}
		var vErr *ValidationError
		if !errors.As(err, &vErr) || vErr.Type != "out_of_bounds" {
			t.Errorf("expected out_of_bounds, got %v", err)
		}
	})

	t.Run("NegativeOffset", func(t *testing.T) {
		tensors := []TensorMeta{
			{Name: "a", Offset: -8, Size: 16},
		}
		err := ValidateTensorOffsets(tensors, 64)
		if err == nil {
			t.Fatal("negative offset accepted")
		}
		var vErr *ValidationError
		if !errors.As(err, &vErr) || vErr.Type != "negative_offset" {
			t.Errorf("expected negative_offset, got %v", err)
		}
	})

	t.Run("UnsortedInput", func(t *testing.T) {
		// Overlap detection must not depend on header order.
		tensors := []TensorMeta{
			{Name: "b", Offset: 16, Size: 16},
			{Name: "a", Offset: 0, Size: 20},
		}
		if err := ValidateTensorOffsets(tensors, 64); err == nil {
			t.Error("overlap missed for unsorted metadata")
		}
	})
}

func TestValidateTensorName(t *testing.T) {
	valid := []string{"weight", "l1.weight", "block_3.attn.bias", "0"}
	for _, name := range valid {
		if err := ValidateTensorName(name); err != nil {
			t.Errorf("ValidateTensorName(%q) = %v", name, err)
		}
	}

	invalid := []string{
		"../etc/passwd",
		"dir/weight",
		"dir\\weight",
		"weight\x00hidden",
		strings.Repeat("x", MaxTensorNameLen+1),
	}
	for _, name := range invalid {
		if err := ValidateTensorName(name); err == nil {
			t.Errorf("ValidateTensorName(%.20q...) accepted", name)
		}
	}
}

func TestValidateHeader(t *testing.T) {
	header := &Header{
		Tensors: []TensorMeta{
			{Name: "a", Offset: 0, Size: 128},
		},
	}

	if err := ValidateHeader(header, 64, ValidationStrict); err == nil {
		t.Error("strict validation should catch out-of-bounds tensors")
	}
	if err := ValidateHeader(header, 64, ValidationNormal); err != nil {
		t.Errorf("normal validation checks names only, got %v", err)
	}
	if err := ValidateHeader(header, 64, ValidationNone); err != nil {
		t.Errorf("none validation should pass, got %v", err)
	}

	bad := &Header{
		Tensors: []TensorMeta{
			{Name: "../escape", Offset: 0, Size: 8},
		},
	}
	if err := ValidateHeader(bad, 64, ValidationNormal); err == nil {
		t.Error("normal validation should reject bad names")
	}
}
