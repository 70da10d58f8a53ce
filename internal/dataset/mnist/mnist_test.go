package mnist

import (
	"bytes"
	"encoding/binary"
	"math/rand"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nilslice/tch-go/internal/backend/cpu"
	"github.com/nilslice/tch-go/internal/tensor"
)

// writeIDX writes a train image/label file pair in IDX format.
func writeIDX(t *testing.T, dir string, images [][]byte, labels []byte) {
	t.Helper()

	var img bytes.Buffer
	binary.Write(&img, binary.BigEndian, uint32(magicImages))
	binary.Write(&img, binary.BigEndian, uint32(len(images)))
	binary.Write(&img, binary.BigEndian, uint32(28))
	binary.Write(&img, binary.BigEndian, uint32(28))
	for _, im := range images {
		img.Write(im)
	}
	require.NoError(t, os.WriteFile(filepath.Join(dir, "train-images-idx3-ubyte"), img.Bytes(), 0o600))

	var lbl bytes.Buffer
	binary.Write(&lbl, binary.BigEndian, uint32(magicLabels))
	binary.Write(&lbl, binary.BigEndian, uint32(len(labels)))
	lbl.Write(labels)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "train-labels-idx1-ubyte"), lbl.Bytes(), 0o600))
}

func makeImages(n int) ([][]byte, []byte) {
	images := make([][]byte, n)
	labels := make([]byte, n)
	for i := range images {
		images[i] = make([]byte, ImageSize)
		images[i][0] = byte(50 + i)
		images[i][ImageSize-1] = 255
		labels[i] = byte(i % 10)
	}
	return images, labels
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	images, labels := makeImages(12)
	writeIDX(t, dir, images, labels)

	ds, err := Load(dir, true, 0)
	require.NoError(t, err)

	assert.Equal(t, 12, ds.NumSamples())
	assert.Equal(t, int32(3), ds.Labels[3])
	assert.InDelta(t, float32(53)/255.0, ds.Images[3][0], 1e-6)
	assert.InDelta(t, 1.0, ds.Images[3][ImageSize-1], 1e-6)
	assert.Zero(t, ds.Images[3][1])
}

func TestLoad_MaxSamples(t *testing.T) {
	dir := t.TempDir()
	images, labels := makeImages(12)
	writeIDX(t, dir, images, labels)

	ds, err := Load(dir, true, 5)
	require.NoError(t, err)
	assert.Equal(t, 5, ds.NumSamples())
}

func TestLoad_MissingFiles(t *testing.T) {
	_, err := Load(t.TempDir(), true, 0)
	require.Error(t, err)
}

func TestLoad_BadMagic(t *testing.T) {
	dir := t.TempDir()
	images, labels := makeImages(3)
	writeIDX(t, dir, images, labels)

	path := filepath.Join(dir, "train-images-idx3-ubyte")
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	data[3] = 0x99
	require.NoError(t, os.WriteFile(path, data, 0o600))

	_, err = Load(dir, true, 0)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid image magic")
}

func TestLoad_CountMismatch(t *testing.T) {
	dir := t.TempDir()
	images, _ := makeImages(3)
	_, labels := makeImages(2)
	writeIDX(t, dir, images, labels)

	_, err := Load(dir, true, 0)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "image count")
}

func TestSplit(t *testing.T) {
	ds := Synthetic(10)
	train, val := ds.Split(0.2)
	assert.Equal(t, 8, train.NumSamples())
	assert.Equal(t, 2, val.NumSamples())
}

func TestSynthetic(t *testing.T) {
	ds := Synthetic(10)
	require.Equal(t, 10, ds.NumSamples())
	for i, img := range ds.Images {
		assert.Len(t, img, ImageSize)
		assert.Equal(t, int32(i%NumClasses), ds.Labels[i])
	}
	// Each pattern has a lit band.
	assert.InDelta(t, 0.8, ds.Images[0][5], 1e-6)
}

func TestBatches(t *testing.T) {
	backend := cpu.New()
	ds := Synthetic(10)

	batches, err := Batches(ds, 4, nil, backend)
	require.NoError(t, err)
	require.Len(t, batches, 3)

	assert.Equal(t, tensor.Shape{4, ImageSize}, batches[0].Images.Shape())
	assert.Equal(t, tensor.Shape{4}, batches[0].Labels.Shape())
	assert.Equal(t, 2, batches[2].Size)

	// Unshuffled batches keep dataset order.
	labels := batches[0].Labels.Data()
	assert.Equal(t, []int32{0, 1, 2, 3}, labels)
}

func TestBatches_ShufflePreservesSamples(t *testing.T) {
	backend := cpu.New()
	ds := Synthetic(10)
	rng := rand.New(rand.NewSource(7)) //nolint:gosec // deterministic test shuffle

	batches, err := Batches(ds, 3, rng, backend)
	require.NoError(t, err)

	seen := make(map[int32]int)
	total := 0
	for _, b := range batches {
		for _, label := range b.Labels.Data() {
			seen[label]++
			total++
		}
	}
	assert.Equal(t, 10, total)
	for digit := int32(0); digit < 10; digit++ {
		assert.Equal(t, 1, seen[digit], "digit %d", digit)
	}
}

func TestBatches_RejectsBadBatchSize(t *testing.T) {
	backend := cpu.New()
	_, err := Batches(Synthetic(4), 0, nil, backend)
	require.Error(t, err)
}
