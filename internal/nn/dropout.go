package nn

import (
	"fmt"

	"github.com/dakofler/walnut/internal/tensor"
)

// Dropout randomly zeroes elements with probability p during training
// and scales the survivors by 1/(1-p) (inverted dropout), so inference
// needs no rescaling. In inference mode it is the identity.
type Dropout struct {
	module
	p    float32
	mask *tensor.Tensor
}

// NewDropout creates a dropout layer with drop probability p.
func NewDropout(p float32) *Dropout {
	if p < 0 || p >= 1 {
		panic(fmt.Sprintf("Dropout: probability must be in [0, 1), got %g", p))
	}
	return &Dropout{module: newModule("Dropout"), p: p}
}

// Forward applies the dropout mask in training mode and is the
// identity in inference mode.
func (d *Dropout) Forward(x *tensor.Tensor) *tensor.Tensor {
	if !d.Training() {
		d.forwarded()
		return x
	}

	scale := 1 / (1 - d.p)
	mask := tensor.Rand(x.Shape())
	for i, v := range mask.Data() {
		if v < d.p {
			mask.Data()[i] = 0
		} else {
			mask.Data()[i] = scale
		}
	}
	d.mask = mask
	d.forwarded()
	return x.Mul(mask)
}

// Backward applies the same mask to the gradient.
func (d *Dropout) Backward(dy *tensor.Tensor) *tensor.Tensor {
	d.enterBackward()
	return dy.Mul(d.mask)
}

// Parameters returns nil.
func (d *Dropout) Parameters() []*Parameter { return nil }
