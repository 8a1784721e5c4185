package tensor

import (
	"fmt"
	"math"
	"math/rand"
)

// rng is the source for random tensor creation. Tensor creation is
// sequential (see the package doc), so no locking is done here beyond
// what math/rand provides.
var rng = rand.New(rand.NewSource(1)) //nolint:gosec // weight init, not security-critical

// SetSeed reseeds the random source used by Randn and Rand.
func SetSeed(seed int64) {
	rng = rand.New(rand.NewSource(seed)) //nolint:gosec // weight init, not security-critical
}

// Zeros creates a tensor filled with zeros.
func Zeros(shape Shape) *Tensor {
	return New(make([]float32, shape.NumElements()), shape)
}

// Ones creates a tensor filled with ones.
func Ones(shape Shape) *Tensor {
	return Full(shape, 1)
}

// Full creates a tensor filled with value.
func Full(shape Shape, value float32) *Tensor {
	data := make([]float32, shape.NumElements())
	for i := range data {
		data[i] = value
	}
	return New(data, shape)
}

// ZerosLike creates a zero tensor with the same shape as t.
func ZerosLike(t *Tensor) *Tensor {
	return Zeros(t.shape)
}

// OnesLike creates a tensor of ones with the same shape as t.
func OnesLike(t *Tensor) *Tensor {
	return Ones(t.shape)
}

// Randn creates a tensor with values drawn from N(0, 1).
func Randn(shape Shape) *Tensor {
	data := make([]float32, shape.NumElements())
	for i := range data {
		data[i] = float32(rng.NormFloat64())
	}
	return New(data, shape)
}

// Rand creates a tensor with values drawn from U(0, 1).
func Rand(shape Shape) *Tensor {
	data := make([]float32, shape.NumElements())
	for i := range data {
		data[i] = rng.Float32()
	}
	return New(data, shape)
}

// Uniform creates a tensor with values drawn from U(low, high).
func Uniform(shape Shape, low, high float32) *Tensor {
	data := make([]float32, shape.NumElements())
	for i := range data {
		data[i] = low + rng.Float32()*(high-low)
	}
	return New(data, shape)
}

// Arange creates a 1D tensor with values [start, start+1, ..., end-1].
func Arange(start, end float32) *Tensor {
	n := int(math.Ceil(float64(end - start)))
	if n < 0 {
		n = 0
	}
	data := make([]float32, n)
	for i := range data {
		data[i] = start + float32(i)
	}
	return New(data, Shape{n})
}

// Eye creates an n-by-n identity matrix.
func Eye(n int) *Tensor {
	t := Zeros(Shape{n, n})
	for i := 0; i < n; i++ {
		t.data[i*n+i] = 1
	}
	return t
}

// OneHot encodes class indices into a one-hot matrix.
//
// indices must be a 1D tensor of non-negative integer values below
// numClasses. The result has shape [len(indices), numClasses].
func OneHot(indices *Tensor, numClasses int) *Tensor {
	if indices.Dims() != 1 {
		panic(fmt.Sprintf("tensor.OneHot: indices must be 1D, got shape %v", indices.shape))
	}
	n := indices.NumElements()
	out := Zeros(Shape{n, numClasses})
	for i, v := range indices.data {
		class := int(v)
		if class < 0 || class >= numClasses {
			panic(fmt.Sprintf("tensor.OneHot: class index %d out of range [0, %d)", class, numClasses))
		}
		out.data[i*numClasses+class] = 1
	}
	return out
}
