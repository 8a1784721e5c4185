package nn

import (
	"github.com/dakofler/walnut/internal/tensor"
)

// Flatten reshapes [batch, d1, d2, ...] into [batch, d1*d2*...], the
// layout Linear expects after convolutional blocks.
type Flatten struct {
	module
	inShape tensor.Shape
}

// NewFlatten creates a Flatten module.
func NewFlatten() *Flatten {
	return &Flatten{module: newModule("Flatten")}
}

// Forward flattens all dimensions after the batch dimension.
func (f *Flatten) Forward(x *tensor.Tensor) *tensor.Tensor {
	y := x.Flatten2D()
	if f.Training() {
		f.inShape = x.Shape().Clone()
	}
	f.forwarded()
	return y
}

// Backward restores the original input shape.
func (f *Flatten) Backward(dy *tensor.Tensor) *tensor.Tensor {
	f.enterBackward()
	return dy.Reshape(f.inShape...)
}

// Parameters returns nil.
func (f *Flatten) Parameters() []*Parameter { return nil }
