package nn

import (
	"fmt"

	"github.com/dakofler/walnut/internal/tensor"
)

// LayerNorm normalizes the trailing dimensions of the input to zero
// mean and unit variance, then applies a learnable scale and shift.
//
// normalizedShape gives the trailing dimensions to normalize over; for
// the common case of normalizing feature vectors it is {features}.
type LayerNorm struct {
	module
	normalizedShape tensor.Shape
	eps             float32
	weight          *Parameter // gamma, shape normalizedShape
	bias            *Parameter // beta, shape normalizedShape

	invStd *tensor.Tensor
	xnorm  *tensor.Tensor
}

// NewLayerNorm creates a layer normalization module.
func NewLayerNorm(normalizedShape tensor.Shape) *LayerNorm {
	if len(normalizedShape) == 0 {
		panic("LayerNorm: normalizedShape must not be empty")
	}
	return &LayerNorm{
		module:          newModule("LayerNorm"),
		normalizedShape: normalizedShape.Clone(),
		eps:             1e-5,
		weight:          NewParameter("weight", tensor.Ones(normalizedShape)),
		bias:            NewParameter("bias", tensor.Zeros(normalizedShape)),
	}
}

// normAxes returns the trailing axes covered by normalizedShape.
func (l *LayerNorm) normAxes() []int {
	axes := make([]int, len(l.normalizedShape))
	for i := range axes {
		axes[i] = -1 - i
	}
	return axes
}

// Forward normalizes the trailing dimensions and applies gamma/beta.
func (l *LayerNorm) Forward(x *tensor.Tensor) *tensor.Tensor {
	shape := x.Shape()
	if len(shape) < len(l.normalizedShape) {
		panic(fmt.Sprintf("LayerNorm.Forward: input shape %v has fewer dimensions than normalized shape %v",
			shape, l.normalizedShape))
	}
	trailing := tensor.Shape(shape[len(shape)-len(l.normalizedShape):])
	if !trailing.Equal(l.normalizedShape) {
		panic(fmt.Sprintf("LayerNorm.Forward: trailing dimensions %v do not match normalized shape %v",
			trailing, l.normalizedShape))
	}

	axes := l.normAxes()
	invStd := x.VarAxes(axes, 0, true).AddScalar(l.eps).Sqrt().Pow(-1)
	xnorm := x.Sub(x.MeanAxes(axes, true)).Mul(invStd)
	y := l.weight.Tensor().Mul(xnorm).Add(l.bias.Tensor())

	if l.Training() {
		l.invStd = invStd
		l.xnorm = xnorm
	}
	l.forwarded()
	return y
}

// Backward computes the input gradient and accumulates gamma/beta
// gradients.
func (l *LayerNorm) Backward(dy *tensor.Tensor) *tensor.Tensor {
	l.enterBackward()

	axes := l.normAxes()
	leading := make([]int, dy.Dims()-len(l.normalizedShape))
	for i := range leading {
		leading[i] = i
	}

	size := float32(l.weight.Tensor().NumElements())
	dySum := dy.SumAxes(axes, true)
	dyXnormSum := dy.Mul(l.xnorm).SumAxes(axes, true)

	dx := l.weight.Tensor().Mul(l.invStd).DivScalar(size).
		Mul(dy.MulScalar(size).Sub(dySum).Sub(l.xnorm.Mul(dyXnormSum)))

	dw := dy.Mul(l.xnorm).SumAxes(leading, false)
	db := dy.SumAxes(leading, false)
	l.weight.Tensor().AccumulateGrad(dw.Reshape(l.normalizedShape...))
	l.bias.Tensor().AccumulateGrad(db.Reshape(l.normalizedShape...))
	return dx
}

// Parameters returns [weight, bias].
func (l *LayerNorm) Parameters() []*Parameter {
	return []*Parameter{l.weight, l.bias}
}

// StateDict returns gamma and beta keyed by name.
func (l *LayerNorm) StateDict() map[string]*tensor.Tensor {
	return map[string]*tensor.Tensor{
		"weight": l.weight.Tensor(),
		"bias":   l.bias.Tensor(),
	}
}

// LoadStateDict restores gamma and beta from a state dict.
func (l *LayerNorm) LoadStateDict(state map[string]*tensor.Tensor) error {
	if err := loadInto(l.label, state, "weight", l.weight.Tensor()); err != nil {
		return err
	}
	return loadInto(l.label, state, "bias", l.bias.Tensor())
}
