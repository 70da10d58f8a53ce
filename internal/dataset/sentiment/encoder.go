package sentiment

import (
	"fmt"

	"github.com/pkoukk/tiktoken-go"

	"github.com/nilslice/tch-go/internal/tensor"
)

// FeatureDim is the width of the bag-of-tokens feature vector. Token
// IDs are folded into it modulo FeatureDim.
const FeatureDim = 512

// encodingName selects the cl100k_base BPE vocabulary.
const encodingName = "cl100k_base"

// Encoder turns review text into fixed-width bag-of-tokens features
// using the tiktoken BPE tokenizer.
type Encoder struct {
	encoding *tiktoken.Tiktoken
}

// NewEncoder loads the cl100k_base encoding. The first call fetches
// the BPE ranks unless they are already cached locally.
func NewEncoder() (*Encoder, error) {
	encoding, err := tiktoken.GetEncoding(encodingName)
	if err != nil {
		return nil, fmt.Errorf("load tiktoken encoding %q: %w", encodingName, err)
	}
	return &Encoder{encoding: encoding}, nil
}

// Encode returns the raw BPE token IDs for text.
func (e *Encoder) Encode(text string) []int {
	return e.encoding.Encode(text, nil, nil)
}

// Features folds the token IDs of text into a FeatureDim-wide count
// vector normalized by token count, so the entries sum to one for any
// non-empty text.
func (e *Encoder) Features(text string) []float32 {
	features := make([]float32, FeatureDim)
	tokens := e.Encode(text)
	if len(tokens) == 0 {
		return features
	}
	for _, id := range tokens {
		features[id%FeatureDim]++
	}
	scale := 1.0 / float32(len(tokens))
	for i := range features {
		features[i] *= scale
	}
	return features
}

// Tensors featurizes samples into a [n, FeatureDim] float32 batch and
// an [n] int32 label vector on the backend's device.
func Tensors[B tensor.Backend](enc *Encoder, samples []Sample, backend B) (*tensor.Tensor[float32, B], *tensor.Tensor[int32, B], error) {
	n := len(samples)
	if n == 0 {
		return nil, nil, fmt.Errorf("no samples to featurize")
	}

	featuresRaw, err := tensor.NewRaw(tensor.Shape{n, FeatureDim}, tensor.Float, backend.Device())
	if err != nil {
		return nil, nil, fmt.Errorf("features tensor: %w", err)
	}
	labelsRaw, err := tensor.NewRaw(tensor.Shape{n}, tensor.Int, backend.Device())
	if err != nil {
		return nil, nil, fmt.Errorf("labels tensor: %w", err)
	}

	features := featuresRaw.AsFloat32()
	labels := labelsRaw.AsInt32()
	for i, sample := range samples {
		copy(features[i*FeatureDim:(i+1)*FeatureDim], enc.Features(sample.Text))
		labels[i] = sample.Label
	}

	return tensor.New[float32](featuresRaw, backend), tensor.New[int32](labelsRaw, backend), nil
}
