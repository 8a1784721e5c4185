package nn

import (
	"fmt"

	"github.com/dakofler/walnut/internal/tensor"
)

// Linear implements a fully connected layer: y = x @ W.T + b.
//
//	x: [batch, in_features]
//	W: [out_features, in_features]
//	b: [out_features]
//	y: [batch, out_features]
//
// Weights are initialized with Xavier/Glorot uniform, biases with
// zeros.
type Linear struct {
	module
	inFeatures  int
	outFeatures int
	weight      *Parameter
	bias        *Parameter // nil when constructed without bias

	x *tensor.Tensor // cached input for the backward pass
}

// NewLinear creates a fully connected layer with bias.
func NewLinear(inFeatures, outFeatures int) *Linear {
	weight := XavierUniform(inFeatures, outFeatures, tensor.Shape{outFeatures, inFeatures})
	bias := tensor.Zeros(tensor.Shape{outFeatures})
	return &Linear{
		module:      newModule("Linear"),
		inFeatures:  inFeatures,
		outFeatures: outFeatures,
		weight:      NewParameter("weight", weight),
		bias:        NewParameter("bias", bias),
	}
}

// NewLinearNoBias creates a fully connected layer without bias.
func NewLinearNoBias(inFeatures, outFeatures int) *Linear {
	l := NewLinear(inFeatures, outFeatures)
	l.bias = nil
	return l
}

// Forward computes y = x @ W.T + b and caches x for the backward pass.
func (l *Linear) Forward(x *tensor.Tensor) *tensor.Tensor {
	shape := x.Shape()
	if len(shape) != 2 {
		panic(fmt.Sprintf("Linear.Forward: expected 2D input [batch, features], got shape %v", shape))
	}
	if shape[1] != l.inFeatures {
		panic(fmt.Sprintf("Linear.Forward: expected input with %d features, got %d", l.inFeatures, shape[1]))
	}

	y := x.MatMul(l.weight.Tensor().Transpose())
	if l.bias != nil {
		y = y.Add(l.bias.Tensor().Reshape(1, l.outFeatures))
	}

	if l.Training() {
		l.x = x
	}
	l.forwarded()
	return y
}

// Backward computes dx = dy @ W and accumulates dW = dy.T @ x and
// db = sum of dy over the batch dimension.
func (l *Linear) Backward(dy *tensor.Tensor) *tensor.Tensor {
	l.enterBackward()

	want := tensor.Shape{l.x.Shape()[0], l.outFeatures}
	if !dy.Shape().Equal(want) {
		panic(fmt.Sprintf("Linear.Backward: expected gradient shape %v, got %v", want, dy.Shape()))
	}

	l.weight.Tensor().AccumulateGrad(dy.Transpose().MatMul(l.x))
	if l.bias != nil {
		l.bias.Tensor().AccumulateGrad(dy.SumAxes([]int{0}, false))
	}
	return dy.MatMul(l.weight.Tensor())
}

// Parameters returns [weight, bias], or just [weight] without bias.
func (l *Linear) Parameters() []*Parameter {
	if l.bias != nil {
		return []*Parameter{l.weight, l.bias}
	}
	return []*Parameter{l.weight}
}

// Weight returns the weight parameter.
func (l *Linear) Weight() *Parameter { return l.weight }

// Bias returns the bias parameter, or nil.
func (l *Linear) Bias() *Parameter { return l.bias }

// StateDict returns the layer parameters keyed by name.
func (l *Linear) StateDict() map[string]*tensor.Tensor {
	state := map[string]*tensor.Tensor{"weight": l.weight.Tensor()}
	if l.bias != nil {
		state["bias"] = l.bias.Tensor()
	}
	return state
}

// LoadStateDict restores the layer parameters from a state dict.
func (l *Linear) LoadStateDict(state map[string]*tensor.Tensor) error {
	if err := loadInto(l.label, state, "weight", l.weight.Tensor()); err != nil {
		return err
	}
	if l.bias != nil {
		return loadInto(l.label, state, "bias", l.bias.Tensor())
	}
	return nil
}
