package mnist

import (
	"encoding/binary"
	"fmt"
	"io"
	"os"
)

const (
	magicLabels = 2049 // 0x00000801
	magicImages = 2051 // 0x00000803
)

// readImages reads an IDX image file: uint32 magic 0x803, count, rows,
// cols (all big-endian), then count*rows*cols unsigned pixel bytes.
func readImages(path string) ([][]byte, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	var magic uint32
	if err := binary.Read(file, binary.BigEndian, &magic); err != nil {
		return nil, fmt.Errorf("read magic: %w", err)
	}
	if magic != magicImages {
		return nil, fmt.Errorf("invalid image magic: got %d, want %d", magic, magicImages)
	}

	var count, rows, cols uint32
	if err := binary.Read(file, binary.BigEndian, &count); err != nil {
		return nil, err
	}
	if err := binary.Read(file, binary.BigEndian, &rows); err != nil {
		return nil, err
	}
	if err := binary.Read(file, binary.BigEndian, &cols); err != nil {
		return nil, err
	}
	if rows != 28 || cols != 28 {
		return nil, fmt.Errorf("unexpected image size %dx%d, want 28x28", rows, cols)
	}

	imageSize := int(rows * cols)
	images := make([][]byte, count)
	for i := range images {
		images[i] = make([]byte, imageSize)
		if _, err := io.ReadFull(file, images[i]); err != nil {
			return nil, fmt.Errorf("read image %d: %w", i, err)
		}
	}
	return images, nil
}

// readLabels reads an IDX label file: uint32 magic 0x801, count (both
// big-endian), then count unsigned label bytes.
func readLabels(path string) ([]byte, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	var magic uint32
	if err := binary.Read(file, binary.BigEndian, &magic); err != nil {
		return nil, fmt.Errorf("read magic: %w", err)
	}
	if magic != magicLabels {
		return nil, fmt.Errorf("invalid label magic: got %d, want %d", magic, magicLabels)
	}

	var count uint32
	if err := binary.Read(file, binary.BigEndian, &count); err != nil {
		return nil, err
	}

	labels := make([]byte, count)
	if _, err := io.ReadFull(file, labels); err != nil {
		return nil, fmt.Errorf("read labels: %w", err)
	}
	return labels, nil
}
