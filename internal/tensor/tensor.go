// Package tensor implements the n-dimensional float32 array underlying
// all walnut layers.
//
// A Tensor couples a contiguous row-major data buffer with a gradient
// slot. Gradients are never computed automatically: layers accumulate
// into the slot during their manual backward pass via AccumulateGrad,
// and optimizers clear it explicitly with ZeroGrad.
package tensor

import (
	"fmt"
	"math"
	"strings"
)

// Tensor is an n-dimensional float32 array with an associated gradient slot.
//
// The data buffer is always contiguous in row-major order. The gradient
// slot starts out nil and is lazily allocated by the first
// AccumulateGrad call.
type Tensor struct {
	data  []float32
	shape Shape
	grad  *Tensor
}

// New creates a tensor that takes ownership of data. The length of data
// must match the shape.
func New(data []float32, shape Shape) *Tensor {
	if err := shape.Validate(); err != nil {
		panic(fmt.Sprintf("tensor.New: %v", err))
	}
	if shape.NumElements() != len(data) {
		panic(fmt.Sprintf("tensor.New: shape %v requires %d elements, got %d",
			shape, shape.NumElements(), len(data)))
	}
	return &Tensor{data: data, shape: shape.Clone()}
}

// FromSlice creates a tensor by copying data into a new buffer.
func FromSlice(data []float32, shape Shape) (*Tensor, error) {
	if err := shape.Validate(); err != nil {
		return nil, err
	}
	if shape.NumElements() != len(data) {
		return nil, fmt.Errorf("shape %v requires %d elements, but got %d",
			shape, shape.NumElements(), len(data))
	}
	buf := make([]float32, len(data))
	copy(buf, data)
	return &Tensor{data: buf, shape: shape.Clone()}, nil
}

// Shape returns the tensor's shape.
func (t *Tensor) Shape() Shape {
	return t.shape
}

// Dims returns the number of dimensions.
func (t *Tensor) Dims() int {
	return len(t.shape)
}

// NumElements returns the total number of elements.
func (t *Tensor) NumElements() int {
	return len(t.data)
}

// Data returns the underlying buffer (zero-copy).
//
// WARNING: modifications to the returned slice modify the tensor.
func (t *Tensor) Data() []float32 {
	return t.data
}

// Item returns the value of a single-element tensor.
func (t *Tensor) Item() float32 {
	if len(t.data) != 1 {
		panic(fmt.Sprintf("tensor.Item: tensor has %d elements, want 1", len(t.data)))
	}
	return t.data[0]
}

// At returns the element at the given multi-dimensional index.
func (t *Tensor) At(idx ...int) float32 {
	return t.data[t.flatIndex(idx)]
}

// Set writes the element at the given multi-dimensional index.
func (t *Tensor) Set(v float32, idx ...int) {
	t.data[t.flatIndex(idx)] = v
}

func (t *Tensor) flatIndex(idx []int) int {
	if len(idx) != len(t.shape) {
		panic(fmt.Sprintf("tensor: index has %d dimensions, tensor has %d", len(idx), len(t.shape)))
	}
	flat := 0
	for i, stride := range t.shape.Strides() {
		if idx[i] < 0 || idx[i] >= t.shape[i] {
			panic(fmt.Sprintf("tensor: index %d out of range for dimension %d (size %d)", idx[i], i, t.shape[i]))
		}
		flat += idx[i] * stride
	}
	return flat
}

// Clone returns a deep copy of the tensor. The gradient slot is not copied.
func (t *Tensor) Clone() *Tensor {
	buf := make([]float32, len(t.data))
	copy(buf, t.data)
	return &Tensor{data: buf, shape: t.shape.Clone()}
}

// Grad returns the accumulated gradient, or nil if none has been
// accumulated since the last reset.
func (t *Tensor) Grad() *Tensor {
	return t.grad
}

// AccumulateGrad adds g into the tensor's gradient slot, allocating it
// on first use. The gradient shape must match the tensor shape.
func (t *Tensor) AccumulateGrad(g *Tensor) {
	if !g.shape.Equal(t.shape) {
		panic(fmt.Sprintf("tensor.AccumulateGrad: gradient shape %v does not match tensor shape %v",
			g.shape, t.shape))
	}
	if t.grad == nil {
		t.grad = Zeros(t.shape)
	}
	for i, v := range g.data {
		t.grad.data[i] += v
	}
}

// ZeroGrad clears the gradient slot. The next AccumulateGrad starts
// from zero again.
func (t *Tensor) ZeroGrad() {
	t.grad = nil
}

// AllClose reports whether all elements of t and other are within tol
// of each other. Shapes must match.
func (t *Tensor) AllClose(other *Tensor, tol float32) bool {
	if !t.shape.Equal(other.shape) {
		return false
	}
	for i := range t.data {
		if float32(math.Abs(float64(t.data[i]-other.data[i]))) > tol {
			return false
		}
	}
	return true
}

// String returns a short description, e.g. "Tensor(2, 3)[1 2 3 4 5 6]".
// Large tensors are elided.
func (t *Tensor) String() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Tensor%v[", t.shape)
	limit := min(len(t.data), 8)
	for i := 0; i < limit; i++ {
		if i > 0 {
			sb.WriteByte(' ')
		}
		fmt.Fprintf(&sb, "%g", t.data[i])
	}
	if len(t.data) > limit {
		sb.WriteString(" ...")
	}
	sb.WriteByte(']')
	return sb.String()
}
