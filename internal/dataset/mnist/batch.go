package mnist

import (
	"fmt"
	"math/rand"

	"github.com/nilslice/tch-go/internal/tensor"
)

// Batch is one training mini-batch: images [size, 784] float32 and
// labels [size] int32 on the backend's device.
type Batch[B tensor.Backend] struct {
	Images *tensor.Tensor[float32, B]
	Labels *tensor.Tensor[int32, B]
	Size   int
}

// Batches slices the dataset into mini-batches. A non-nil rng shuffles
// the sample order first (Fisher-Yates). The last batch may be smaller
// when the dataset does not divide evenly.
func Batches[B tensor.Backend](d *Dataset, batchSize int, rng *rand.Rand, backend B) ([]*Batch[B], error) {
	n := d.NumSamples()
	if n != len(d.Labels) {
		return nil, fmt.Errorf("images and labels length mismatch: %d != %d", n, len(d.Labels))
	}
	if batchSize <= 0 {
		return nil, fmt.Errorf("batch size must be positive, got %d", batchSize)
	}

	indices := make([]int, n)
	for i := range indices {
		indices[i] = i
	}
	if rng != nil {
		rng.Shuffle(n, func(i, j int) {
			indices[i], indices[j] = indices[j], indices[i]
		})
	}

	batches := make([]*Batch[B], 0, (n+batchSize-1)/batchSize)
	for start := 0; start < n; start += batchSize {
		end := start + batchSize
		if end > n {
			end = n
		}
		size := end - start

		imagesRaw, err := tensor.NewRaw(tensor.Shape{size, ImageSize}, tensor.Float, backend.Device())
		if err != nil {
			return nil, fmt.Errorf("batch images: %w", err)
		}
		labelsRaw, err := tensor.NewRaw(tensor.Shape{size}, tensor.Int, backend.Device())
		if err != nil {
			return nil, fmt.Errorf("batch labels: %w", err)
		}

		images := imagesRaw.AsFloat32()
		labels := labelsRaw.AsInt32()
		for row := start; row < end; row++ {
			idx := indices[row]
			copy(images[(row-start)*ImageSize:(row-start+1)*ImageSize], d.Images[idx])
			labels[row-start] = d.Labels[idx]
		}

		batches = append(batches, &Batch[B]{
			Images: tensor.New[float32](imagesRaw, backend),
			Labels: tensor.New[int32](labelsRaw, backend),
			Size:   size,
		})
	}
	return batches, nil
}
