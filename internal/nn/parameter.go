package nn

import (
	"github.com/dakofler/walnut/internal/tensor"
)

// Parameter represents a trainable parameter in a neural network.
//
// Parameters persist across forward passes; their gradients accumulate
// additively in the underlying tensor's gradient slot during backward
// passes and are reset explicitly between optimizer steps.
type Parameter struct {
	name   string
	tensor *tensor.Tensor
}

// NewParameter wraps an initialized tensor as a trainable parameter.
func NewParameter(name string, t *tensor.Tensor) *Parameter {
	return &Parameter{name: name, tensor: t}
}

// Name returns the parameter name (e.g. "weight", "bias").
func (p *Parameter) Name() string {
	return p.name
}

// Tensor returns the parameter tensor.
func (p *Parameter) Tensor() *tensor.Tensor {
	return p.tensor
}

// Grad returns the accumulated gradient, or nil before the first
// backward pass (and after every reset).
func (p *Parameter) Grad() *tensor.Tensor {
	return p.tensor.Grad()
}

// ZeroGrad clears the accumulated gradient. The optimizer never does
// this implicitly; callers reset gradients after each step.
func (p *Parameter) ZeroGrad() {
	p.tensor.ZeroGrad()
}
