package nn

import (
	"fmt"

	"github.com/dakofler/walnut/internal/tensor"
)

// batchnorm holds the machinery shared by BatchNorm1D and BatchNorm2D:
// learnable scale/shift per channel plus running statistics that are
// updated in training mode and used verbatim in inference mode.
type batchnorm struct {
	module
	channels float64
	momentum float32
	eps      float32
	weight   *Parameter // gamma [C]
	bias     *Parameter // beta [C]
	rmean    *tensor.Tensor
	rvar     *tensor.Tensor

	wview  *tensor.Tensor // gamma reshaped for broadcasting
	invStd *tensor.Tensor
	xnorm  *tensor.Tensor
}

func newBatchnorm(label string, channels int, momentum, eps float32) batchnorm {
	return batchnorm{
		module:   newModule(label),
		channels: float64(channels),
		momentum: momentum,
		eps:      eps,
		weight:   NewParameter("weight", tensor.Ones(tensor.Shape{channels})),
		bias:     NewParameter("bias", tensor.Zeros(tensor.Shape{channels})),
		rmean:    tensor.Zeros(tensor.Shape{channels}),
		rvar:     tensor.Ones(tensor.Shape{channels}),
	}
}

// viewShape reshapes a per-channel tensor [C] so it broadcasts across
// an input with the given number of dimensions (channel axis 1).
func (b *batchnorm) viewShape(t *tensor.Tensor, dims int) *tensor.Tensor {
	if dims == 2 {
		return t
	}
	shape := make([]int, dims-1)
	shape[0] = t.NumElements()
	for i := 1; i < len(shape); i++ {
		shape[i] = 1
	}
	return t.Reshape(shape...)
}

// forward normalizes x over the given axes (all axes except the
// channel axis).
func (b *batchnorm) forward(x *tensor.Tensor, axes []int) *tensor.Tensor {
	var invStd, xnorm *tensor.Tensor
	if b.Training() {
		mean := x.MeanAxes(axes, true)
		variance := x.VarAxes(axes, 0, true)
		invStd = variance.AddScalar(b.eps).Sqrt().Pow(-1)
		xnorm = x.Sub(mean).Mul(invStd)

		// Update running statistics; the running variance uses the
		// unbiased (ddof=1) estimate, matching the original framework.
		m := b.momentum
		newMean := x.MeanAxes(axes, false)
		newVar := x.VarAxes(axes, 1, false)
		for i := range b.rmean.Data() {
			b.rmean.Data()[i] = b.rmean.Data()[i]*(1-m) + newMean.Data()[i]*m
			b.rvar.Data()[i] = b.rvar.Data()[i]*(1-m) + newVar.Data()[i]*m
		}
	} else {
		rmean := b.viewShape(b.rmean, x.Dims())
		rvar := b.viewShape(b.rvar, x.Dims())
		invStd = rvar.AddScalar(b.eps).Sqrt().Pow(-1)
		xnorm = x.Sub(rmean).Mul(invStd)
	}

	wview := b.viewShape(b.weight.Tensor(), x.Dims())
	bview := b.viewShape(b.bias.Tensor(), x.Dims())
	y := wview.Mul(xnorm).Add(bview)

	if b.Training() {
		b.wview = wview
		b.invStd = invStd
		b.xnorm = xnorm
	}
	b.forwarded()
	return y
}

// backward computes input gradients and accumulates gamma/beta
// gradients. Shared by the 1D and 2D variants.
func (b *batchnorm) backward(dy *tensor.Tensor, axes []int) *tensor.Tensor {
	b.enterBackward()

	n := float32(float64(dy.NumElements()) / b.channels)
	dySum := dy.SumAxes(axes, true)
	dyXnormSum := dy.Mul(b.xnorm).SumAxes(axes, true)

	dx := b.wview.Mul(b.invStd).DivScalar(n).
		Mul(dy.MulScalar(n).Sub(dySum).Sub(b.xnorm.Mul(dyXnormSum)))

	c := b.weight.Tensor().NumElements()
	b.weight.Tensor().AccumulateGrad(dyXnormSum.Reshape(c))
	b.bias.Tensor().AccumulateGrad(dySum.Reshape(c))
	return dx
}

// Parameters returns [weight, bias].
func (b *batchnorm) Parameters() []*Parameter {
	return []*Parameter{b.weight, b.bias}
}

// StateDict returns gamma, beta and the running statistics.
func (b *batchnorm) StateDict() map[string]*tensor.Tensor {
	return map[string]*tensor.Tensor{
		"weight":       b.weight.Tensor(),
		"bias":         b.bias.Tensor(),
		"running_mean": b.rmean,
		"running_var":  b.rvar,
	}
}

// LoadStateDict restores gamma, beta and the running statistics.
func (b *batchnorm) LoadStateDict(state map[string]*tensor.Tensor) error {
	for name, dst := range map[string]*tensor.Tensor{
		"weight":       b.weight.Tensor(),
		"bias":         b.bias.Tensor(),
		"running_mean": b.rmean,
		"running_var":  b.rvar,
	} {
		if err := loadInto(b.label, state, name, dst); err != nil {
			return err
		}
	}
	return nil
}

// BatchNorm1D normalizes over the batch dimension (and, for 3D inputs,
// the trailing length dimension) per channel.
//
// Accepts [batch, channels] or [batch, channels, length] inputs.
type BatchNorm1D struct {
	batchnorm
	channels int
}

// NewBatchNorm1D creates a 1D batch normalization layer with momentum
// 0.1 and eps 1e-5.
func NewBatchNorm1D(channels int) *BatchNorm1D {
	return &BatchNorm1D{
		batchnorm: newBatchnorm("BatchNorm1D", channels, 0.1, 1e-5),
		channels:  channels,
	}
}

func (b *BatchNorm1D) axes(dims int) []int {
	if dims == 2 {
		return []int{0}
	}
	return []int{0, 2}
}

// Forward normalizes the input using batch statistics (training) or
// running statistics (inference).
func (b *BatchNorm1D) Forward(x *tensor.Tensor) *tensor.Tensor {
	shape := x.Shape()
	if len(shape) != 2 && len(shape) != 3 {
		panic(fmt.Sprintf("BatchNorm1D.Forward: expected 2D or 3D input, got shape %v", shape))
	}
	if shape[1] != b.channels {
		panic(fmt.Sprintf("BatchNorm1D.Forward: expected %d channels, got %d", b.channels, shape[1]))
	}
	return b.forward(x, b.axes(len(shape)))
}

// Backward computes the input gradient.
func (b *BatchNorm1D) Backward(dy *tensor.Tensor) *tensor.Tensor {
	return b.backward(dy, b.axes(dy.Dims()))
}

// BatchNorm2D normalizes [batch, channels, h, w] inputs per channel
// over the batch and both spatial dimensions.
type BatchNorm2D struct {
	batchnorm
	channels int
}

// NewBatchNorm2D creates a 2D batch normalization layer with momentum
// 0.1 and eps 1e-5.
func NewBatchNorm2D(channels int) *BatchNorm2D {
	return &BatchNorm2D{
		batchnorm: newBatchnorm("BatchNorm2D", channels, 0.1, 1e-5),
		channels:  channels,
	}
}

// Forward normalizes the input using batch statistics (training) or
// running statistics (inference).
func (b *BatchNorm2D) Forward(x *tensor.Tensor) *tensor.Tensor {
	shape := x.Shape()
	if len(shape) != 4 {
		panic(fmt.Sprintf("BatchNorm2D.Forward: expected 4D input [batch, channels, h, w], got shape %v", shape))
	}
	if shape[1] != b.channels {
		panic(fmt.Sprintf("BatchNorm2D.Forward: expected %d channels, got %d", b.channels, shape[1]))
	}
	return b.forward(x, []int{0, 2, 3})
}

// Backward computes the input gradient.
func (b *BatchNorm2D) Backward(dy *tensor.Tensor) *tensor.Tensor {
	return b.backward(dy, []int{0, 2, 3})
}
