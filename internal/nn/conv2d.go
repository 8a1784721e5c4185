package nn

import (
	"fmt"

	"github.com/dakofler/walnut/internal/backend/cpu"
	"github.com/dakofler/walnut/internal/tensor"
)

// Conv2D implements a 2D convolution layer (cross-correlation).
//
//	input:  [batch, in_channels, height, width]
//	weight: [out_channels, in_channels, kernel, kernel]
//	bias:   [out_channels]
//	output: [batch, out_channels, out_h, out_w]
//
// Weights are initialized with Kaiming uniform over
// fan_in = in_channels * kernel².
type Conv2D struct {
	module
	inChannels  int
	outChannels int
	kernel      int
	stride      int
	padding     int
	weight      *Parameter
	bias        *Parameter

	x *tensor.Tensor
}

// NewConv2D creates a convolution layer with a square kernel.
func NewConv2D(inChannels, outChannels, kernel, stride, padding int) *Conv2D {
	if stride < 1 {
		panic(fmt.Sprintf("Conv2D: stride must be >= 1, got %d", stride))
	}
	fanIn := inChannels * kernel * kernel
	weight := KaimingUniform(fanIn, tensor.Shape{outChannels, inChannels, kernel, kernel})
	bias := tensor.Zeros(tensor.Shape{outChannels})
	return &Conv2D{
		module:      newModule("Conv2D"),
		inChannels:  inChannels,
		outChannels: outChannels,
		kernel:      kernel,
		stride:      stride,
		padding:     padding,
		weight:      NewParameter("weight", weight),
		bias:        NewParameter("bias", bias),
	}
}

func (c *Conv2D) outSize(h, w int) (int, int) {
	hout := (h+2*c.padding-c.kernel)/c.stride + 1
	wout := (w+2*c.padding-c.kernel)/c.stride + 1
	return hout, wout
}

// Forward convolves the input with the layer kernel.
func (c *Conv2D) Forward(x *tensor.Tensor) *tensor.Tensor {
	shape := x.Shape()
	if len(shape) != 4 {
		panic(fmt.Sprintf("Conv2D.Forward: expected 4D input [batch, channels, h, w], got shape %v", shape))
	}
	if shape[1] != c.inChannels {
		panic(fmt.Sprintf("Conv2D.Forward: expected %d input channels, got %d", c.inChannels, shape[1]))
	}

	n, h, w := shape[0], shape[2], shape[3]
	hout, wout := c.outSize(h, w)
	if hout <= 0 || wout <= 0 {
		panic(fmt.Sprintf("Conv2D.Forward: input %dx%d too small for kernel %d with stride %d and padding %d",
			h, w, c.kernel, c.stride, c.padding))
	}

	y := tensor.Zeros(tensor.Shape{n, c.outChannels, hout, wout})
	cpu.Conv2D(y.Data(), x.Data(), c.weight.Tensor().Data(), c.bias.Tensor().Data(),
		n, c.inChannels, h, w, c.outChannels, c.kernel, c.kernel, c.stride, c.padding)

	if c.Training() {
		c.x = x
	}
	c.forwarded()
	return y
}

// Backward computes the input gradient and accumulates the weight and
// bias gradients.
func (c *Conv2D) Backward(dy *tensor.Tensor) *tensor.Tensor {
	c.enterBackward()

	shape := c.x.Shape()
	n, h, w := shape[0], shape[2], shape[3]
	hout, wout := c.outSize(h, w)

	want := tensor.Shape{n, c.outChannels, hout, wout}
	if !dy.Shape().Equal(want) {
		panic(fmt.Sprintf("Conv2D.Backward: expected gradient shape %v, got %v", want, dy.Shape()))
	}

	dx := tensor.ZerosLike(c.x)
	cpu.Conv2DBackwardInput(dx.Data(), dy.Data(), c.weight.Tensor().Data(),
		n, c.inChannels, h, w, c.outChannels, c.kernel, c.kernel, c.stride, c.padding)

	dw := tensor.ZerosLike(c.weight.Tensor())
	db := tensor.ZerosLike(c.bias.Tensor())
	cpu.Conv2DBackwardParams(dw.Data(), db.Data(), dy.Data(), c.x.Data(),
		n, c.inChannels, h, w, c.outChannels, c.kernel, c.kernel, c.stride, c.padding)

	c.weight.Tensor().AccumulateGrad(dw)
	c.bias.Tensor().AccumulateGrad(db)
	return dx
}

// Parameters returns [weight, bias].
func (c *Conv2D) Parameters() []*Parameter {
	return []*Parameter{c.weight, c.bias}
}

// StateDict returns the layer parameters keyed by name.
func (c *Conv2D) StateDict() map[string]*tensor.Tensor {
	return map[string]*tensor.Tensor{
		"weight": c.weight.Tensor(),
		"bias":   c.bias.Tensor(),
	}
}

// LoadStateDict restores the layer parameters from a state dict.
func (c *Conv2D) LoadStateDict(state map[string]*tensor.Tensor) error {
	if err := loadInto(c.label, state, "weight", c.weight.Tensor()); err != nil {
		return err
	}
	return loadInto(c.label, state, "bias", c.bias.Tensor())
}
