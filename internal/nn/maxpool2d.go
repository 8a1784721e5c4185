package nn

import (
	"fmt"

	"github.com/dakofler/walnut/internal/backend/cpu"
	"github.com/dakofler/walnut/internal/tensor"
)

// MaxPool2D downsamples spatial dimensions by taking the maximum over
// square windows.
//
//	input:  [batch, channels, h, w]
//	output: [batch, channels, (h-k)/stride+1, (w-k)/stride+1]
//
// The backward pass routes gradients to the positions that produced
// each maximum.
type MaxPool2D struct {
	module
	kernel int
	stride int

	idx     []int32 // flat input index of each window maximum
	inShape tensor.Shape
}

// NewMaxPool2D creates a pooling layer. A stride of 0 defaults to the
// kernel size (non-overlapping windows).
func NewMaxPool2D(kernel, stride int) *MaxPool2D {
	if stride == 0 {
		stride = kernel
	}
	return &MaxPool2D{module: newModule("MaxPool2D"), kernel: kernel, stride: stride}
}

// Forward applies max pooling and caches the argmax indices.
func (m *MaxPool2D) Forward(x *tensor.Tensor) *tensor.Tensor {
	shape := x.Shape()
	if len(shape) != 4 {
		panic(fmt.Sprintf("MaxPool2D.Forward: expected 4D input [batch, channels, h, w], got shape %v", shape))
	}
	n, c, h, w := shape[0], shape[1], shape[2], shape[3]
	hout := (h-m.kernel)/m.stride + 1
	wout := (w-m.kernel)/m.stride + 1
	if hout <= 0 || wout <= 0 {
		panic(fmt.Sprintf("MaxPool2D.Forward: input %dx%d too small for kernel %d with stride %d",
			h, w, m.kernel, m.stride))
	}

	y := tensor.Zeros(tensor.Shape{n, c, hout, wout})
	idx := make([]int32, y.NumElements())
	cpu.MaxPool2D(y.Data(), idx, x.Data(), n, c, h, w, m.kernel, m.stride)

	if m.Training() {
		m.idx = idx
		m.inShape = shape.Clone()
	}
	m.forwarded()
	return y
}

// Backward scatters gradients back to the argmax positions.
func (m *MaxPool2D) Backward(dy *tensor.Tensor) *tensor.Tensor {
	m.enterBackward()
	if dy.NumElements() != len(m.idx) {
		panic(fmt.Sprintf("MaxPool2D.Backward: expected %d gradient elements, got %d",
			len(m.idx), dy.NumElements()))
	}
	dx := tensor.Zeros(m.inShape)
	cpu.MaxPool2DBackward(dx.Data(), dy.Data(), m.idx)
	return dx
}

// Parameters returns nil.
func (m *MaxPool2D) Parameters() []*Parameter { return nil }
