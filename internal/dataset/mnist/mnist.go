// Package mnist loads the MNIST handwritten-digit dataset from the
// official IDX binary files and slices it into training batches.
//
// Expected files (gunzipped, from http://yann.lecun.com/exdb/mnist/):
//
//	train-images-idx3-ubyte  train-labels-idx1-ubyte
//	t10k-images-idx3-ubyte   t10k-labels-idx1-ubyte
package mnist

import (
	"fmt"
	"path/filepath"
)

// ImageSize is the flattened pixel count of one 28x28 image.
const ImageSize = 28 * 28

// NumClasses is the number of digit classes.
const NumClasses = 10

// Dataset holds images flattened to [n, 784] with pixels normalized to
// [0, 1], and labels in [0, 9].
type Dataset struct {
	Images [][]float32
	Labels []int32
}

// Load reads the training set (60k samples) or the test set (10k
// samples) from dir. maxSamples limits the result when positive.
func Load(dir string, train bool, maxSamples int) (*Dataset, error) {
	prefix := "t10k"
	if train {
		prefix = "train"
	}
	imagePath := filepath.Join(dir, prefix+"-images-idx3-ubyte")
	labelPath := filepath.Join(dir, prefix+"-labels-idx1-ubyte")

	rawImages, err := readImages(imagePath)
	if err != nil {
		return nil, fmt.Errorf("load images: %w", err)
	}
	rawLabels, err := readLabels(labelPath)
	if err != nil {
		return nil, fmt.Errorf("load labels: %w", err)
	}
	if len(rawImages) != len(rawLabels) {
		return nil, fmt.Errorf("image count %d != label count %d", len(rawImages), len(rawLabels))
	}

	n := len(rawImages)
	if maxSamples > 0 && n > maxSamples {
		n = maxSamples
	}

	images := make([][]float32, n)
	labels := make([]int32, n)
	for i := 0; i < n; i++ {
		images[i] = make([]float32, ImageSize)
		for j, pixel := range rawImages[i] {
			images[i][j] = float32(pixel) / 255.0
		}
		labels[i] = int32(rawLabels[i])
	}
	return &Dataset{Images: images, Labels: labels}, nil
}

// NumSamples returns the number of samples in the dataset.
func (d *Dataset) NumSamples() int { return len(d.Images) }

// Split splits off the trailing validationRatio fraction as a
// validation set. The two returned datasets share backing storage with
// the receiver.
func (d *Dataset) Split(validationRatio float32) (train, validation *Dataset) {
	splitIdx := int(float32(d.NumSamples()) * (1.0 - validationRatio))
	train = &Dataset{Images: d.Images[:splitIdx], Labels: d.Labels[:splitIdx]}
	validation = &Dataset{Images: d.Images[splitIdx:], Labels: d.Labels[splitIdx:]}
	return train, validation
}

// Synthetic builds a small stand-in dataset of banded patterns, one
// band position per digit class. It keeps the training pipeline
// runnable without the real IDX files.
func Synthetic(numSamples int) *Dataset {
	images := make([][]float32, numSamples)
	labels := make([]int32, numSamples)
	for i := 0; i < numSamples; i++ {
		digit := i % NumClasses
		labels[i] = int32(digit)
		images[i] = make([]float32, ImageSize)
		startRow := digit * 2
		for row := startRow; row < startRow+8 && row < 28; row++ {
			for col := 5; col < 23; col++ {
				images[i][row*28+col] = 0.8
			}
		}
	}
	return &Dataset{Images: images, Labels: labels}
}
