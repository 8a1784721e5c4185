// Package train implements the training loop: batching, metrics,
// callbacks and checkpointing on top of the nn and optim packages.
package train

import (
	"math/rand"

	"github.com/pkg/errors"

	"github.com/dakofler/walnut/internal/tensor"
)

// DataLoader yields (x, y) mini batches from a pair of tensors whose
// first dimension indexes samples. With shuffling enabled the sample
// order is re-drawn from a seeded RNG on every Reset, so runs are
// reproducible.
type DataLoader struct {
	x, y      *tensor.Tensor
	batchSize int
	shuffle   bool
	dropLast  bool
	rng       *rand.Rand
	order     []int
	pos       int
}

// DataLoaderConfig holds configuration for a DataLoader.
type DataLoaderConfig struct {
	BatchSize int   // samples per batch (default 32)
	Shuffle   bool  // reshuffle sample order on every Reset
	DropLast  bool  // drop a trailing batch smaller than BatchSize
	Seed      int64 // RNG seed for shuffling (default 1)
}

// NewDataLoader creates a loader over x and y, which must agree on the
// number of samples.
func NewDataLoader(x, y *tensor.Tensor, config DataLoaderConfig) (*DataLoader, error) {
	if x.Dims() == 0 || y.Dims() == 0 {
		return nil, errors.New("dataloader: inputs must have at least one dimension")
	}
	if x.Shape()[0] != y.Shape()[0] {
		return nil, errors.Errorf("dataloader: x has %d samples, y has %d", x.Shape()[0], y.Shape()[0])
	}
	if config.BatchSize == 0 {
		config.BatchSize = 32
	}
	if config.BatchSize < 1 {
		return nil, errors.Errorf("dataloader: batch size must be >= 1, got %d", config.BatchSize)
	}
	if config.Seed == 0 {
		config.Seed = 1
	}

	dl := &DataLoader{
		x:         x,
		y:         y,
		batchSize: config.BatchSize,
		shuffle:   config.Shuffle,
		dropLast:  config.DropLast,
		rng:       rand.New(rand.NewSource(config.Seed)),
		order:     make([]int, x.Shape()[0]),
	}
	dl.Reset()
	return dl, nil
}

// NumSamples returns the number of samples in the dataset.
func (dl *DataLoader) NumSamples() int {
	return dl.x.Shape()[0]
}

// NumBatches returns the number of batches per epoch.
func (dl *DataLoader) NumBatches() int {
	n := dl.NumSamples() / dl.batchSize
	if !dl.dropLast && dl.NumSamples()%dl.batchSize != 0 {
		n++
	}
	return n
}

// Reset rewinds the loader and, with shuffling enabled, re-draws the
// sample order.
func (dl *DataLoader) Reset() {
	for i := range dl.order {
		dl.order[i] = i
	}
	if dl.shuffle {
		dl.rng.Shuffle(len(dl.order), func(i, j int) {
			dl.order[i], dl.order[j] = dl.order[j], dl.order[i]
		})
	}
	dl.pos = 0
}

// Next returns the next batch, or ok=false when the epoch is exhausted.
func (dl *DataLoader) Next() (xb, yb *tensor.Tensor, ok bool) {
	remaining := len(dl.order) - dl.pos
	if remaining == 0 || (dl.dropLast && remaining < dl.batchSize) {
		return nil, nil, false
	}

	size := dl.batchSize
	if remaining < size {
		size = remaining
	}
	indices := dl.order[dl.pos : dl.pos+size]
	dl.pos += size

	return takeRows(dl.x, indices), takeRows(dl.y, indices), true
}

// takeRows assembles the selected samples into a new tensor along the
// first dimension.
func takeRows(t *tensor.Tensor, indices []int) *tensor.Tensor {
	shape := t.Shape().Clone()
	rowSize := 1
	for _, d := range shape[1:] {
		rowSize *= d
	}
	shape[0] = len(indices)

	out := tensor.Zeros(shape)
	for i, idx := range indices {
		copy(out.Data()[i*rowSize:(i+1)*rowSize], t.Data()[idx*rowSize:(idx+1)*rowSize])
	}
	return out
}
